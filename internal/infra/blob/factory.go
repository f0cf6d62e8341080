// Package blob selects and re-exports the blob storage backends used for
// tenant export archives.
package blob

import (
	"context"
	"fmt"
	"os"

	"clubcore/internal/infra/blob/core"
	"clubcore/internal/infra/blob/fs"
	"clubcore/internal/infra/blob/memory"
	"clubcore/internal/infra/blob/s3"
)

type (
	// Store is the backend abstraction consumed by the export layer.
	Store = core.Store
	// Driver identifies a concrete backend implementation.
	Driver = core.Driver
	// Info describes a stored blob.
	Info = core.Info
	// PutOptions specifies optional parameters for Put.
	PutOptions = core.PutOptions
	// SignedURLOptions holds options for generating a pre-signed URL.
	SignedURLOptions = core.SignedURLOptions
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

// Open selects a blob store implementation using environment variables.
//
//	CLUBCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	CLUBCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("CLUBCORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		root := os.Getenv("CLUBCORE_BLOB_FS_ROOT")
		return fs.New(root)
	case DriverS3:
		return s3.OpenFromEnv(ctx)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
