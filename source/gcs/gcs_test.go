package gcs

import (
	"errors"
	"fmt"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/gobeaver/tikakit"
)

func TestSplitReference(t *testing.T) {
	tests := []struct {
		ref     string
		bucket  string
		object  string
		wantErr bool
	}{
		{ref: "gs://docs/reports/q1.pdf", bucket: "docs", object: "reports/q1.pdf"},
		{ref: "gs://docs/a.txt", bucket: "docs", object: "a.txt"},
		{ref: "gs://docs", wantErr: true},
		{ref: "gs://docs/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			ref, err := tikakit.ParseReference(tt.ref)
			if err != nil {
				t.Fatal(err)
			}
			bucket, object, err := splitReference(ref)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bucket != tt.bucket || object != tt.object {
				t.Errorf("got %q/%q, want %q/%q", bucket, object, tt.bucket, tt.object)
			}
		})
	}
}

func TestMapGCSError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notExist bool
	}{
		{name: "object", err: storage.ErrObjectNotExist, notExist: true},
		{name: "bucket", err: storage.ErrBucketNotExist, notExist: true},
		{name: "wrapped", err: fmt.Errorf("read: %w", storage.ErrObjectNotExist), notExist: true},
		{name: "other", err: errors.New("permission denied")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapGCSError("gs://b/o", tt.err)
			if tikakit.IsNotExist(err) != tt.notExist {
				t.Errorf("IsNotExist = %v, want %v", tikakit.IsNotExist(err), tt.notExist)
			}
			if !errors.Is(err, tikakit.ErrProcessing) {
				t.Errorf("expected processing error, got %v", err)
			}
		})
	}
}
