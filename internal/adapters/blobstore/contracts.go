package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key holds no object.
var ErrNotFound = errors.New("blob not found")

// Store is the object storage the datasets and the
// usage log are kept in, addressed by key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte, contentType string) error
}
