package tikakit

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func sizedSource(body string, size int64) Source {
	return SourceFunc(func(ctx context.Context, ref *Reference) (*Document, error) {
		return &Document{Body: io.NopCloser(strings.NewReader(body)), Size: size}, nil
	})
}

func TestLimitedSource(t *testing.T) {
	ctx := context.Background()
	ref, _ := ParseReference("/docs/a.txt")

	tests := []struct {
		name     string
		body     string
		size     int64
		openErr  bool
		readErr  bool
		wantRead string
	}{
		{"known size under limit", "0123456789", 10, false, false, "0123456789"},
		{"known size over limit", "0123456789abc", 13, true, false, ""},
		{"unknown size under limit", "01234", -1, false, false, "01234"},
		{"unknown size at limit", "0123456789", -1, false, false, "0123456789"},
		{"unknown size over limit", "0123456789abc", -1, false, true, "0123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewLimitedSource(sizedSource(tt.body, tt.size), 10)
			if err != nil {
				t.Fatal(err)
			}
			doc, err := src.Open(ctx, ref)
			if tt.openErr {
				if !IsTooLarge(err) || !errors.Is(err, ErrProcessing) {
					t.Errorf("Open() error = %v, want too large", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer doc.Close()

			data, err := io.ReadAll(doc.Body)
			if tt.readErr != IsTooLarge(err) {
				t.Errorf("read error = %v, want too large %v", err, tt.readErr)
			}
			if string(data) != tt.wantRead {
				t.Errorf("read %q, want %q", data, tt.wantRead)
			}
		})
	}
}

func TestNewLimitedSourceErrors(t *testing.T) {
	if _, err := NewLimitedSource(nil, 10); !errors.Is(err, ErrNilSource) {
		t.Errorf("nil source error = %v", err)
	}
	if _, err := NewLimitedSource(sizedSource("", 0), 0); err == nil {
		t.Error("zero limit should fail")
	}
	src, _ := NewLimitedSource(sizedSource("", 0), 5*MB)
	if src.MaxBytes() != 5*1024*1024 || src.Unwrap() == nil {
		t.Errorf("MaxBytes() = %d", src.MaxBytes())
	}
}
