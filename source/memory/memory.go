// Package memory provides an in-memory document source for the "mem" scheme.
// It is useful in tests and when documents are already held in memory.
package memory

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobeaver/tikakit"
	"github.com/gobwas/glob"
)

// Scheme is the reference scheme served by this package
const Scheme = "mem"

// memoryFile represents a document stored in memory
type memoryFile struct {
	content     []byte
	contentType string
	modTime     time.Time
}

// Adapter holds documents addressed as "mem://<name>"
type Adapter struct {
	mu      sync.RWMutex
	files   map[string]*memoryFile
	maxSize int64 // Maximum total storage size (0 = unlimited)
	size    int64 // Current total size
}

// Config holds configuration for the memory adapter
type Config struct {
	// MaxSize is the maximum total storage size in bytes (0 = unlimited)
	MaxSize int64
}

// New creates a new in-memory source
func New(cfg ...Config) *Adapter {
	var maxSize int64
	if len(cfg) > 0 {
		maxSize = cfg[0].MaxSize
	}

	return &Adapter{
		files:   make(map[string]*memoryFile),
		maxSize: maxSize,
	}
}

// Put stores content under name, replacing any previous document. An empty
// contentType is derived from the name extension and the content.
func (a *Adapter) Put(name string, content []byte, contentType string) error {
	name = normalizePath(name)
	if !isValidPath(name) {
		return &tikakit.ProcessingError{Op: "put", Ref: name, Err: tikakit.ErrNotAllowed}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	newSize := a.size + int64(len(content))
	if existing, exists := a.files[name]; exists {
		newSize -= int64(len(existing.content))
	}
	if a.maxSize > 0 && newSize > a.maxSize {
		return &tikakit.ProcessingError{Op: "put", Ref: name, Err: ErrStoreFull}
	}

	if contentType == "" {
		contentType = detectContentType(name, content)
	}

	a.files[name] = &memoryFile{
		content:     bytes.Clone(content),
		contentType: contentType,
		modTime:     time.Now(),
	}
	a.size = newSize
	return nil
}

// Delete removes the document stored under name
func (a *Adapter) Delete(name string) error {
	name = normalizePath(name)

	a.mu.Lock()
	defer a.mu.Unlock()

	file, exists := a.files[name]
	if !exists {
		return &tikakit.ProcessingError{Op: "delete", Ref: name, Err: tikakit.ErrNotExist}
	}
	a.size -= int64(len(file.content))
	delete(a.files, name)
	return nil
}

// List returns the stored names matching the glob pattern, sorted. An empty
// pattern matches everything.
func (a *Adapter) List(pattern string) ([]string, error) {
	var g glob.Glob
	if pattern != "" {
		var err error
		if g, err = glob.Compile(pattern, '/'); err != nil {
			return nil, err
		}
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, 0, len(a.files))
	for name := range a.files {
		if g == nil || g.Match(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Size returns the total stored bytes
func (a *Adapter) Size() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.size
}

// Clear removes all documents
func (a *Adapter) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files = make(map[string]*memoryFile)
	a.size = 0
}

// Open implements tikakit.Source. The reference host and path together form
// the document name, so "mem://docs/a.txt" opens "docs/a.txt".
func (a *Adapter) Open(ctx context.Context, ref *tikakit.Reference) (*tikakit.Document, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	name := normalizePath(ref.Host() + ref.Path)

	a.mu.RLock()
	file, exists := a.files[name]
	a.mu.RUnlock()

	if !exists {
		return nil, &tikakit.ProcessingError{Op: "open", Ref: ref.Raw, Err: tikakit.ErrNotExist}
	}

	return &tikakit.Document{
		Name:        path.Base(name),
		ContentType: file.contentType,
		Size:        int64(len(file.content)),
		Body:        io.NopCloser(bytes.NewReader(file.content)),
	}, nil
}

// normalizePath cleans a document name and strips leading slashes
func normalizePath(p string) string {
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// isValidPath rejects empty names and names escaping the root
func isValidPath(p string) bool {
	return p != "" && p != "." && !strings.HasPrefix(p, "..")
}

// detectContentType derives a type from the extension, falling back to
// content sniffing
func detectContentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

var _ tikakit.Source = (*Adapter)(nil)
