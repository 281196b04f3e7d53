package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	StoreConnError  = 3
	StoreWriteError = 4
	SourceError     = 5
	DispatchError   = 6
	Interrupted     = 130
)
