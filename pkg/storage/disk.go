// Package storage provides the blob-store abstraction used for export
// artifacts, uploaded import files, and product images.
//
// Two drivers are available out of the box:
//   - "local"  — local filesystem (default)
//   - "s3"     — S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
// Quick start:
//
//	// boot once (e.g. in internal/server/server.go):
//	storage.Connect()
//
//	// default disk
//	storage.Put("exports/acme/summer.csv", data)
//	data, _ := storage.Get("exports/acme/summer.csv")
//
//	// named disk
//	storage.Use("s3").Put("exports/acme/summer.csv", data)
package storage

import (
	"io"
	"time"
)

// Disk is the blob-store driver interface.
type Disk interface {
	// Put writes content to path, creating parent directories as needed.
	Put(path string, content []byte) error

	// Get returns the full content of the file at path.
	Get(path string) ([]byte, error)

	// GetStream returns a ReadCloser for the file. Caller must close it.
	GetStream(path string) (io.ReadCloser, error)

	// Exists reports whether a file exists at path.
	Exists(path string) bool

	// Size returns the byte size of the file.
	Size(path string) (int64, error)

	// LastModified returns the file's last-modified time.
	LastModified(path string) (time.Time, error)

	// URL returns the public URL for path.
	URL(path string) string

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(path string) error

	// AllFiles lists all files inside directory, recursively.
	AllFiles(directory string) ([]string, error)

	// DeleteDirectory removes directory and all its contents.
	DeleteDirectory(path string) error
}
