// Package s3 opens "s3://bucket/key" references from Amazon S3 or any
// S3-compatible store.
package s3

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gobeaver/tikakit"
)

// Scheme is the reference scheme served by this package
const Scheme = "s3"

// API is the subset of the S3 client the source uses
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Adapter opens S3 objects
type Adapter struct {
	client API
}

// New creates an S3 source
func New(client API) *Adapter {
	return &Adapter{client: client}
}

// Open implements tikakit.Source. The reference host is the bucket and the
// path, without its leading slash, is the key.
func (a *Adapter) Open(ctx context.Context, ref *tikakit.Reference) (*tikakit.Document, error) {
	bucket := ref.Host()
	key := strings.TrimPrefix(ref.Path, "/")
	if bucket == "" || key == "" {
		return nil, &tikakit.ProcessingError{Op: "open", Ref: ref.Raw, Err: errors.New("reference must name a bucket and a key")}
	}

	resp, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapS3Error(ref.Raw, err)
	}

	size := int64(-1)
	if resp.ContentLength != nil {
		size = *resp.ContentLength
	}

	return &tikakit.Document{
		Name:        path.Base(key),
		ContentType: aws.ToString(resp.ContentType),
		Size:        size,
		Body:        resp.Body,
	}, nil
}

func mapS3Error(ref string, err error) error {
	var nsk *types.NoSuchKey
	var notFound *types.NotFound
	var noBucket *types.NoSuchBucket

	if errors.As(err, &nsk) || errors.As(err, &notFound) || errors.As(err, &noBucket) {
		return &tikakit.ProcessingError{Op: "open", Ref: ref, Err: tikakit.ErrNotExist}
	}

	return &tikakit.ProcessingError{Op: "open", Ref: ref, Err: err}
}

var _ tikakit.Source = (*Adapter)(nil)
