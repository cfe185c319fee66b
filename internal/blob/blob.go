// Package blob re-exports the blob abstractions and selects a driver from
// configuration.
package blob

import (
	"context"
	"fmt"

	"orthocore/internal/blob/core"
	"orthocore/internal/infra/blob/fs"
	"orthocore/internal/infra/blob/memory"
	"orthocore/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// Info describes stored blob metadata.
	Info = core.Info
	// Reader is the interface implemented by every blob backend.
	Reader = core.Reader
	// S3Config configures the S3 driver.
	S3Config = s3.Config
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

// ErrNotFound is wrapped by drivers for missing keys.
var ErrNotFound = core.ErrNotFound

// Config selects and configures a driver.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
	// Objects seeds the memory driver, keyed by blob key.
	Objects map[string]string
}

// Open constructs the configured Reader. An empty driver selects the filesystem.
func Open(ctx context.Context, cfg Config) (Reader, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case DriverS3:
		return s3.New(ctx, cfg.S3)
	case DriverMemory:
		return memory.NewWithObjects(cfg.Objects), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
