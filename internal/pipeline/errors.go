package pipeline

import (
	"errors"
	"fmt"
)

// Phases reported by PipelineError.
const (
	PhaseSource   = "source"
	PhaseDispatch = "dispatch"
	PhaseLoad     = "load"
)

// ErrQueueClosed is returned when a record is delivered to a worker whose
// queue was already closed. It indicates a lifecycle bug and is fatal.
var ErrQueueClosed = errors.New("worker queue closed")

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// inPhase wraps err unless it already carries a phase.
func inPhase(phase string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return err
	}
	return &PipelineError{Phase: phase, Err: err}
}

// StoreWriteError reports a failed bulk insert. Batches are not retried or
// split, so the run aborts.
type StoreWriteError struct {
	Worker    int
	Rows      int
	FirstLine int64
	LastLine  int64
	Err       error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("worker %d: bulk insert of %d rows (lines %d-%d): %s",
		e.Worker, e.Rows, e.FirstLine, e.LastLine, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}
