// Package gcs implements photostore.Store on Google Cloud Storage.
// Application Default Credentials are assumed; signing uses the V4
// scheme through the bucket handle so no key file is needed.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
)

const uploadTimeout = 2 * time.Minute

type Store struct {
	client *storage.Client
}

func New(ctx context.Context) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Upload streams r into bucket/object. GCS object writes are atomic:
// the previous content stays readable until the new object lands.
func (s *Store) Upload(ctx context.Context, bucket, object, contentType string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy to gs://%s/%s: %w", bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload gs://%s/%s: %w", bucket, object, err)
	}
	return nil
}

// Delete removes bucket/object. A missing object is treated as already
// deleted.
func (s *Store) Delete(ctx context.Context, bucket, object string) error {
	err := s.client.Bucket(bucket).Object(object).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete gs://%s/%s: %w", bucket, object, err)
	}
	return nil
}

// SignedURL issues a V4 GET link valid for ttl.
func (s *Store) SignedURL(_ context.Context, bucket, object string, ttl time.Duration) (string, error) {
	url, err := s.client.Bucket(bucket).SignedURL(object, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("sign gs://%s/%s: %w", bucket, object, err)
	}
	return url, nil
}
