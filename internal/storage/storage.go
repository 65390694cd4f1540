// Package storage handles the local disk layout: one directory for raw
// uploads, one for processed outputs.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// StorageError wraps a filesystem failure during upload finalize or
// artifact handling.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// LocalStore writes uploads and outputs to two base directories.
type LocalStore struct {
	UploadDir string
	OutputDir string
}

// NewLocalStore creates both directories if needed.
func NewLocalStore(uploadDir, outputDir string) (*LocalStore, error) {
	for _, dir := range []string{uploadDir, outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &StorageError{Op: "create directory " + dir, Err: err}
		}
	}
	return &LocalStore{UploadDir: uploadDir, OutputDir: outputDir}, nil
}

// SaveUpload streams a multipart upload into the uploads directory under
// the given filename and returns the final path.
func (s *LocalStore) SaveUpload(header *multipart.FileHeader, filename string) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", &StorageError{Op: "open upload", Err: err}
	}
	defer src.Close()

	path := filepath.Join(s.UploadDir, filename)
	dst, err := os.Create(path)
	if err != nil {
		return "", &StorageError{Op: "create " + path, Err: err}
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", &StorageError{Op: "write " + path, Err: err}
	}
	return path, nil
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (s *LocalStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &StorageError{Op: "remove " + path, Err: err}
	}
	return nil
}
