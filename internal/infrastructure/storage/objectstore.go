// Package storage turns uploaded recipe images into public object URLs.
package storage

import (
	"context"
	"io"
)

// PutOptions carries the object metadata written with an upload.
type PutOptions struct {
	ContentType     string
	ContentEncoding string
	CacheControl    string
}

// ObjectStore is the minimal bucket API the uploader needs. Implementations
// are bound to a single bucket.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) error
	Delete(ctx context.Context, key string) error
}
