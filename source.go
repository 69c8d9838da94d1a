package tikakit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrSourceExists is returned when a prefix is already mounted
	ErrSourceExists = errors.New("source already mounted")
	// ErrEmptyPrefix is returned when the mount prefix is empty
	ErrEmptyPrefix = errors.New("mount prefix cannot be empty")
)

// SourceRouter opens references by routing them to the Source mounted for
// their scheme. A prefix is either a bare scheme ("s3") or a scheme plus
// authority and path ("s3://archive/2024"); the longest matching prefix wins.
//
// Example:
//
//	router.Mount("file", localSource)
//	router.Mount("s3", s3Source)
//	router.Mount("s3://archive", glacierSource) // nested prefixes supported
type SourceRouter struct {
	mu      sync.RWMutex
	sources map[string]Source
	// sorted prefixes for longest-prefix matching
	sortedPrefixes []string
}

// NewSourceRouter creates an empty router.
func NewSourceRouter() *SourceRouter {
	return &SourceRouter{
		sources: make(map[string]Source),
	}
}

// Mount attaches src at prefix.
func (r *SourceRouter) Mount(prefix string, src Source) error {
	if src == nil {
		return ErrNilSource
	}

	prefix = normalizePrefix(prefix)
	if prefix == "" {
		return ErrEmptyPrefix
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[prefix]; exists {
		return fmt.Errorf("%w: %s", ErrSourceExists, prefix)
	}

	r.sources[prefix] = src
	r.updateSortedPrefixes()

	return nil
}

// Unmount removes the source at prefix.
func (r *SourceRouter) Unmount(prefix string) error {
	prefix = normalizePrefix(prefix)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[prefix]; !exists {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, prefix)
	}

	delete(r.sources, prefix)
	r.updateSortedPrefixes()

	return nil
}

// Prefixes returns all mount prefixes, longest first.
func (r *SourceRouter) Prefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, len(r.sortedPrefixes))
	copy(result, r.sortedPrefixes)
	return result
}

// Schemes returns the distinct schemes the router can open, sorted.
func (r *SourceRouter) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for p := range r.sources {
		scheme, _, _ := strings.Cut(p, "://")
		seen[scheme] = true
	}
	schemes := make([]string, 0, len(seen))
	for s := range seen {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// Resolve returns the source that would open ref.
func (r *SourceRouter) Resolve(ref *Reference) (Source, error) {
	canonical := ref.Canonical()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, prefix := range r.sortedPrefixes {
		if prefixMatches(prefix, canonical) {
			return r.sources[prefix], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, ref.Scheme)
}

// Open parses ref and opens it through the matching source. It implements
// Opener.
func (r *SourceRouter) Open(ctx context.Context, ref string) (*Document, error) {
	parsed, err := ParseReference(ref)
	if err != nil {
		return nil, err
	}
	src, err := r.Resolve(parsed)
	if err != nil {
		return nil, err
	}
	doc, err := src.Open(ctx, parsed)
	if err != nil {
		return nil, err
	}
	if doc.Name == "" {
		doc.Name = parsed.Name()
	}
	return doc, nil
}

// updateSortedPrefixes must be called with lock held.
func (r *SourceRouter) updateSortedPrefixes() {
	prefixes := make([]string, 0, len(r.sources))
	for p := range r.sources {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool {
		if len(prefixes[i]) != len(prefixes[j]) {
			return len(prefixes[i]) > len(prefixes[j])
		}
		return prefixes[i] < prefixes[j]
	})
	r.sortedPrefixes = prefixes
}

// normalizePrefix lower-cases the scheme, turns a bare scheme into
// "scheme://" and drops a trailing slash after the authority.
func normalizePrefix(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	scheme, rest, found := strings.Cut(p, "://")
	scheme = strings.ToLower(strings.TrimSuffix(scheme, ":"))
	if scheme == "" {
		return ""
	}
	if !found {
		return scheme + "://"
	}
	rest = strings.TrimSuffix(rest, "/")
	return scheme + "://" + rest
}

func prefixMatches(prefix, canonical string) bool {
	if !strings.HasPrefix(canonical, prefix) {
		return false
	}
	if len(canonical) == len(prefix) || strings.HasSuffix(prefix, "://") {
		return true
	}
	return canonical[len(prefix)] == '/'
}
