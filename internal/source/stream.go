// Package source reads a log file as a single-pass sequence of numbered lines.
package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/gyeh/logload/internal/model"
)

// MaxLineSize bounds a single log line. Longer lines fail the scan.
const MaxLineSize = 16 << 20

// Stream yields the lines of a source in order. It is not safe for concurrent
// use and cannot be rewound; open a new Stream for another pass.
type Stream struct {
	sc     *bufio.Scanner
	closer io.Closer
	line   model.RawLine
	n      int64
}

// Open opens the file at path, decoding it from enc to UTF-8.
func Open(path, enc string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	s, err := NewStream(f, enc)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// NewStream wraps r. The caller keeps ownership of r.
func NewStream(r io.Reader, enc string) (*Stream, error) {
	dec, err := Decoder(enc)
	if err != nil {
		return nil, err
	}
	if dec != nil {
		r = transform.NewReader(r, dec.NewDecoder())
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return &Stream{sc: sc}, nil
}

// Decoder resolves an encoding name. It returns nil for UTF-8, which needs
// no transcoding.
func Decoder(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	e, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return e, nil
}

// Next advances to the next line. It returns false at end of input or on a
// read error; check Err afterwards.
func (s *Stream) Next() bool {
	if !s.sc.Scan() {
		return false
	}
	s.n++
	s.line = model.RawLine{Number: s.n, Text: strings.TrimSuffix(s.sc.Text(), "\r")}
	return true
}

// Line returns the current line. Valid only after Next returned true.
func (s *Stream) Line() model.RawLine {
	return s.line
}

// Count returns the number of lines read so far.
func (s *Stream) Count() int64 {
	return s.n
}

func (s *Stream) Err() error {
	if err := s.sc.Err(); err != nil {
		return fmt.Errorf("read line %d: %w", s.n+1, err)
	}
	return nil
}

// Close releases the underlying file when the stream was created by Open.
func (s *Stream) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
