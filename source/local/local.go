// Package local opens local files for "file" references and bare paths.
package local

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobeaver/tikakit"
)

// Adapter opens files from the local filesystem
type Adapter struct {
	root string
}

// New creates a local source. A non-empty root confines references to that
// directory: relative paths resolve under it and absolute paths must lie
// within it. An empty root opens any path the process can read.
func New(root string) (*Adapter, error) {
	if root == "" {
		return &Adapter{}, nil
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("local base path is not a directory: " + absRoot)
	}

	return &Adapter{
		root: absRoot,
	}, nil
}

// Root returns the confining directory, or "" when unconfined
func (a *Adapter) Root() string {
	return a.root
}

// resolve maps a reference path to a filesystem path.
func (a *Adapter) resolve(path string) (string, bool) {
	path = filepath.FromSlash(path)
	if a.root == "" {
		return filepath.Clean(path), true
	}

	var fullPath string
	if filepath.IsAbs(path) {
		fullPath = filepath.Clean(path)
	} else {
		fullPath = filepath.Join(a.root, filepath.Clean(path))
	}
	return fullPath, isPathUnderRoot(a.root, fullPath)
}

// Open implements tikakit.Source
func (a *Adapter) Open(ctx context.Context, ref *tikakit.Reference) (*tikakit.Document, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		// Continue
	}

	fullPath, ok := a.resolve(ref.Path)
	if !ok {
		return nil, &tikakit.ProcessingError{
			Op:  "open",
			Ref: ref.Raw,
			Err: tikakit.ErrNotAllowed,
		}
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &tikakit.ProcessingError{
				Op:  "open",
				Ref: ref.Raw,
				Err: tikakit.ErrNotExist,
			}
		}
		return nil, &tikakit.ProcessingError{
			Op:  "open",
			Ref: ref.Raw,
			Err: err,
		}
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &tikakit.ProcessingError{Op: "open", Ref: ref.Raw, Err: err}
	}
	if info.IsDir() {
		f.Close()
		return nil, &tikakit.ProcessingError{Op: "open", Ref: ref.Raw, Err: errors.New("is a directory")}
	}

	return &tikakit.Document{
		Name:        filepath.Base(fullPath),
		ContentType: getContentType(fullPath),
		Size:        info.Size(),
		Body:        f,
	}, nil
}

func isPathUnderRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return !filepath.IsAbs(rel) && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// getContentType tries to determine the content type of a file
func getContentType(path string) string {
	// Try to determine content type from extension
	ext := filepath.Ext(path)
	if ext != "" {
		if contentType := mime.TypeByExtension(ext); contentType != "" {
			return contentType
		}
	}

	// Try to determine content type by reading file header
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}

	return http.DetectContentType(buffer[:n])
}

var _ tikakit.Source = (*Adapter)(nil)
