// Package storage holds durable, immutable image blobs addressed by
// caller-generated keys. Blobs are only ever created and deleted, never
// updated in place.
package storage

import "context"

// Store is the asset store consumed by the registration workflow and the
// map/detail views.
//
// Delete of an empty or missing key is a no-op success: cleanup paths may
// race with or duplicate earlier cleanup, and a second delete must not
// turn into an error.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
	// URL returns the public URL a stored key is served under.
	URL(key string) string
}
