package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by StatObject and GetObject for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage defines the object operations used to share pool snapshots.
// Implementations: MinIOStorage (any S3-compatible endpoint) and FSStorage (a shared directory).
type ObjectStorage interface {
	// GetObject opens a reader for an object.
	// Caller must close the returned reader.
	GetObject(ctx context.Context, bucket, objectKey string) (ObjectReader, error)

	// PutObject uploads sizeBytes read from reader.
	PutObject(ctx context.Context, bucket, objectKey string, reader io.Reader, sizeBytes int64, contentType string) error

	// StatObject returns size and ETag for an object.
	StatObject(ctx context.Context, bucket, objectKey string) (ObjectStat, error)

	// ListObjects streams the keys under prefix. The channel is closed when listing ends
	// or ctx is canceled; callers that stop reading early cancel ctx.
	ListObjects(ctx context.Context, bucket, prefix string) <-chan ObjectInfo
}

// ObjectReader is a streaming reader for object data.
type ObjectReader interface {
	Read(p []byte) (int, error)
	Close() error
}

// ObjectStat contains object metadata used for validation.
type ObjectStat struct {
	SizeBytes   int64
	ETag        string
	ContentType string
}

// ObjectInfo is one listing entry. Err is set when listing failed.
type ObjectInfo struct {
	Key       string
	SizeBytes int64
	Err       error
}
