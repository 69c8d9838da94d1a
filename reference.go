package tikakit

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Reference schemes understood out of the box
const (
	SchemeFile  = "file"
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeFTP   = "ftp"
)

// Reference is a parsed document reference: a local filesystem path or a URI.
type Reference struct {
	// Raw is the reference exactly as the caller supplied it
	Raw string

	// Scheme is the lower-cased URI scheme, "file" for local paths
	Scheme string

	// URL is the parsed URI. It is nil for bare local paths.
	URL *url.URL

	// Path is the filesystem path for file references and the URL path
	// otherwise. It is cleaned: "." and ".." elements are resolved.
	Path string
}

// ParseReference parses ref. Strings without a scheme, and Windows drive
// letters such as "C:\docs\a.pdf", are local paths.
func ParseReference(ref string) (*Reference, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrEmptyReference
	}

	u, err := url.Parse(ref)
	if err != nil || len(u.Scheme) <= 1 {
		return &Reference{Raw: ref, Scheme: SchemeFile, Path: filepath.Clean(ref)}, nil
	}

	r := &Reference{Raw: ref, Scheme: strings.ToLower(u.Scheme), URL: u}
	switch r.Scheme {
	case SchemeFile:
		r.Path = u.Path
		if r.Path == "" {
			r.Path = u.Opaque
		}
		if r.Path == "" {
			return nil, fmt.Errorf("%w: %s has no path", ErrEmptyReference, ref)
		}
		r.Path = path.Clean(r.Path)
	default:
		if u.Host == "" && u.Opaque == "" {
			return nil, fmt.Errorf("invalid reference %q: missing host", ref)
		}
		if cleaned := cleanURLPath(u.Path); cleaned != u.Path {
			u.Path = cleaned
			u.RawPath = ""
		}
		r.Path = u.Path
	}
	return r, nil
}

// cleanURLPath resolves dot segments and keeps a trailing slash.
func cleanURLPath(p string) string {
	if p == "" {
		return p
	}
	cleaned := path.Clean(p)
	if strings.HasSuffix(p, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

// URLString returns the reference to dial: the cleaned URL, or Raw for local
// paths.
func (r *Reference) URLString() string {
	if r.URL == nil {
		return r.Raw
	}
	return r.URL.String()
}

// IsLocal reports whether the reference names a local file
func (r *Reference) IsLocal() bool {
	return r.Scheme == SchemeFile
}

// Host returns the URI host, or "" for local paths
func (r *Reference) Host() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Host
}

// Name returns the resource name of the document: the last path element, or
// the host when the URI has no path.
func (r *Reference) Name() string {
	if r.IsLocal() {
		return filepath.Base(r.Path)
	}
	name := path.Base(r.Path)
	if name == "/" || name == "." || name == "" {
		return r.Host()
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}

// Canonical returns the form used for routing and access checks:
// "scheme://host/path". Local paths become "file://" followed by the
// slash-separated path.
func (r *Reference) Canonical() string {
	if r.IsLocal() {
		return SchemeFile + "://" + filepath.ToSlash(r.Path)
	}
	return r.Scheme + "://" + r.Host() + r.Path
}

// String implements fmt.Stringer
func (r *Reference) String() string {
	return r.Raw
}
