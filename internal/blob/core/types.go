// Package core defines the read-only blob abstraction used to fetch the flat
// reference tables, independent of where they are stored.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverFilesystem represents a local directory.
	DriverFilesystem Driver = "fs" // local filesystem (default, dev)
	// DriverS3 represents an S3 / MinIO compatible bucket.
	DriverS3 Driver = "s3"
	// DriverMemory represents an in-process map, typically used in tests.
	DriverMemory Driver = "memory"
)

// Info describes a stored blob.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Reader provides read access to blobs addressed by slash-separated keys.
type Reader interface {
	// Get returns metadata and a stream over the blob contents. Callers close the stream.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Head returns metadata only.
	Head(ctx context.Context, key string) (Info, error)
	// List returns blobs whose key has the provided prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	// Driver returns the configured backend driver.
	Driver() Driver
}

// ErrNotFound is wrapped by every driver when a key does not exist.
var ErrNotFound = errors.New("blob: not found")
