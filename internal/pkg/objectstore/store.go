// Package objectstore abstracts the blob storage that holds property media.
package objectstore

import (
	"context"
	"errors"
	"net/http"
	"time"
)

var ErrNotFound = errors.New("object not found")

// PutOptions shape a presigned upload. ContentType and CacheControl become
// signed headers the client has to send back.
type PutOptions struct {
	ContentType  string
	CacheControl string
	TTL          time.Duration
}

type Presigned struct {
	URL       string
	Method    string
	Headers   http.Header
	ExpiresAt time.Time
}

type Object struct {
	Key          string
	ContentType  string
	CacheControl string
	Size         int64
	LastModified time.Time
}

// Store is implemented by S3Store and MemoryStore.
type Store interface {
	PresignPut(ctx context.Context, key string, opts PutOptions) (*Presigned, error)
	Head(ctx context.Context, key string) (*Object, error)
	// Copy replaces the destination metadata with contentType and cacheControl.
	Copy(ctx context.Context, srcKey, dstKey, contentType, cacheControl string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Object, error)
}
