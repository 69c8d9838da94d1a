package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/gobeaver/tikakit"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func open(t *testing.T, a *Adapter, raw string) (*tikakit.Document, error) {
	t.Helper()
	ref, err := tikakit.ParseReference(raw)
	if err != nil {
		t.Fatalf("ParseReference(%q): %v", raw, err)
	}
	return a.Open(context.Background(), ref)
}

func TestNew(t *testing.T) {
	t.Run("empty root is unconfined", func(t *testing.T) {
		a, err := New("")
		if err != nil {
			t.Fatal(err)
		}
		if a.Root() != "" {
			t.Errorf("expected empty root, got %q", a.Root())
		}
	})

	t.Run("missing root", func(t *testing.T) {
		if _, err := New(filepath.Join(t.TempDir(), "missing")); err == nil {
			t.Error("expected error for missing root")
		}
	})

	t.Run("root must be a directory", func(t *testing.T) {
		file := writeFile(t, t.TempDir(), "f.txt", "x")
		if _, err := New(file); err == nil {
			t.Error("expected error for file root")
		}
	})
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "docs/test.txt", "This is a small text file")

	unconfined, _ := New("")
	confined, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		adapter *Adapter
		ref     string
		wantErr func(error) bool
	}{
		{name: "absolute path", adapter: unconfined, ref: path},
		{name: "file URL", adapter: unconfined, ref: "file://" + filepath.ToSlash(path)},
		{name: "relative under root", adapter: confined, ref: "docs/test.txt"},
		{name: "absolute under root", adapter: confined, ref: path},
		{name: "escape root", adapter: confined, ref: "../outside.txt", wantErr: tikakit.IsNotAllowed},
		{name: "absolute outside root", adapter: confined, ref: filepath.Join(filepath.Dir(dir), "x.txt"), wantErr: tikakit.IsNotAllowed},
		{name: "missing file", adapter: confined, ref: "docs/missing.txt", wantErr: tikakit.IsNotExist},
		{name: "directory", adapter: confined, ref: "docs", wantErr: func(err error) bool { return err != nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := open(t, tt.adapter, tt.ref)
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer doc.Close()

			data, err := io.ReadAll(doc.Body)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != "This is a small text file" {
				t.Errorf("unexpected content %q", data)
			}
			if doc.Name != "test.txt" {
				t.Errorf("expected name test.txt, got %q", doc.Name)
			}
			if doc.Size != int64(len(data)) {
				t.Errorf("expected size %d, got %d", len(data), doc.Size)
			}
		})
	}
}

func TestOpenCancelled(t *testing.T) {
	a, _ := New("")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ref, _ := tikakit.ParseReference("/tmp/whatever.txt")
	if _, err := a.Open(ctx, ref); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
