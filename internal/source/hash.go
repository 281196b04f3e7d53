package source

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// FileInfo describes a source file for reports.
type FileInfo struct {
	Path   string
	Size   int64
	SHA256 string
}

// Stat hashes the file at path and returns its size and digest.
func Stat(path string) (*FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return nil, fmt.Errorf("hash file: %w", err)
	}
	return &FileInfo{Path: path, Size: n, SHA256: fmt.Sprintf("%x", h.Sum(nil))}, nil
}
