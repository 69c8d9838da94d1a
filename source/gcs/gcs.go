// Package gcs opens "gs://bucket/object" references from Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/gobeaver/tikakit"
)

// Scheme is the reference scheme served by this package
const Scheme = "gs"

// Adapter opens GCS objects
type Adapter struct {
	client *storage.Client
}

// New creates a GCS source
func New(client *storage.Client) *Adapter {
	return &Adapter{client: client}
}

// Close closes the underlying client
func (a *Adapter) Close() error {
	return a.client.Close()
}

// Open implements tikakit.Source
func (a *Adapter) Open(ctx context.Context, ref *tikakit.Reference) (*tikakit.Document, error) {
	bucket, object, err := splitReference(ref)
	if err != nil {
		return nil, err
	}

	r, err := a.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, mapGCSError(ref.Raw, err)
	}

	return &tikakit.Document{
		Name:        path.Base(object),
		ContentType: r.Attrs.ContentType,
		Size:        r.Attrs.Size,
		Body:        r,
	}, nil
}

// splitReference returns the bucket (host) and object name (path without the
// leading slash) of ref.
func splitReference(ref *tikakit.Reference) (string, string, error) {
	bucket := ref.Host()
	object := strings.TrimPrefix(ref.Path, "/")
	if bucket == "" || object == "" {
		return "", "", &tikakit.ProcessingError{Op: "open", Ref: ref.Raw, Err: errors.New("reference must name a bucket and an object")}
	}
	return bucket, object, nil
}

func mapGCSError(ref string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return &tikakit.ProcessingError{
			Op:  "open",
			Ref: ref,
			Err: tikakit.ErrNotExist,
		}
	}

	return &tikakit.ProcessingError{
		Op:  "open",
		Ref: ref,
		Err: err,
	}
}

var _ tikakit.Source = (*Adapter)(nil)
