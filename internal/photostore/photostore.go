// Package photostore abstracts the object-storage collaborator that
// holds evidence photos. The core only needs three operations:
// overwrite uploads to a caller-chosen path, short-lived signed read
// URLs, and deletes for superseded objects.
package photostore

import (
	"context"
	"io"
	"time"
)

type Store interface {
	// Upload writes the object at bucket/object, replacing any previous
	// content at that path.
	Upload(ctx context.Context, bucket, object, contentType string, r io.Reader) error

	// SignedURL issues a time-limited read link for bucket/object.
	SignedURL(ctx context.Context, bucket, object string, ttl time.Duration) (string, error)

	// Delete removes bucket/object. Deleting an object that does not
	// exist is not an error.
	Delete(ctx context.Context, bucket, object string) error
}
