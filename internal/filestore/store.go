// Package filestore defines the object storage interface used to archive
// finished audit files.
//
// Callers depend only on this package, never on a provider package:
//
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	info, err := store.PutObject(ctx, cfg.Bucket, "audit/2024-01-02.json", f, size, "application/json")
package filestore

import (
	"context"
	"io"
)

// Store is the interface every storage provider implements.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// EnsureBucket creates bucket when it does not exist yet.
	EnsureBucket(ctx context.Context, bucket string) error

	// PutObject uploads size bytes from r to key inside bucket.
	// size may be -1 when unknown.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (*ObjectInfo, error)

	// StatObject returns metadata for the object at key inside bucket
	// without downloading its content. A missing object is ErrKindNotFound.
	StatObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)
}
