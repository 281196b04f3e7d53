package parquet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/logload/internal/model"
)

// Reader streams ParquetRow records from one part file.
type Reader struct {
	file   *os.File
	reader *parquet.GenericReader[model.ParquetRow]
}

// OpenReader opens a part file for streaming.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	if err := ValidateSchema(pf.Schema()); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Reader{file: f, reader: parquet.NewGenericReader[model.ParquetRow](pf)}, nil
}

// requiredColumns are present in every part file written by this package.
var requiredColumns = []string{
	model.FieldTimestamp,
	model.FieldSeverity,
	model.FieldComponent,
	model.FieldMessageRaw,
}

// ValidateSchema checks that schema carries the envelope columns of a record.
func ValidateSchema(schema *parquet.Schema) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}
	var missing []string
	for _, col := range requiredColumns {
		if !columns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// NumRows returns the total number of rows in the file.
func (r *Reader) NumRows() int64 {
	return r.reader.NumRows()
}

// Read reads up to len(rows) records into the provided slice.
// Returns the number of rows read and io.EOF when done.
func (r *Reader) Read(rows []model.ParquetRow) (int, error) {
	n, err := r.reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("read parquet rows: %w", err)
	}
	return n, err
}

// Close releases all resources.
func (r *Reader) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// Parts lists the completed part files in dir, sorted by name.
func Parts(dir string) ([]string, error) {
	parts, err := filepath.Glob(filepath.Join(dir, "part-*.parquet"))
	if err != nil {
		return nil, err
	}
	sort.Strings(parts)
	return parts, nil
}

// ReadAll reads every row from every part file in dir.
func ReadAll(dir string) ([]model.ParquetRow, error) {
	parts, err := Parts(dir)
	if err != nil {
		return nil, err
	}
	var out []model.ParquetRow
	for _, p := range parts {
		r, err := OpenReader(p)
		if err != nil {
			return nil, err
		}
		buf := make([]model.ParquetRow, r.NumRows())
		n, err := r.Read(buf)
		r.Close()
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, buf[:n]...)
	}
	return out, nil
}
