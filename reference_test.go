package tikakit

import (
	"errors"
	"testing"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		ref       string
		scheme    string
		path      string
		host      string
		name      string
		canonical string
	}{
		{"/docs/report.pdf", "file", "/docs/report.pdf", "", "report.pdf", "file:///docs/report.pdf"},
		{"relative/notes.txt", "file", "relative/notes.txt", "", "notes.txt", "file://relative/notes.txt"},
		{"file:///tmp/a%20b.txt", "file", "/tmp/a b.txt", "", "a b.txt", "file:///tmp/a b.txt"},
		{"HTTPS://Example.com/files/My%20Doc.docx", "https", "/files/My Doc.docx", "Example.com", "My Doc.docx", "https://Example.com/files/My Doc.docx"},
		{"http://example.com", "http", "", "example.com", "example.com", "http://example.com"},
		{"ftp://ftp.example.org/pub/readme.txt", "ftp", "/pub/readme.txt", "ftp.example.org", "readme.txt", "ftp://ftp.example.org/pub/readme.txt"},
		{`C:\docs\a.pdf`, "file", `C:\docs\a.pdf`, "", "", ""},
		{"/data/../etc/passwd", "file", "/etc/passwd", "", "passwd", "file:///etc/passwd"},
		{"file:///data/./x/../../etc/shadow", "file", "/etc/shadow", "", "shadow", "file:///etc/shadow"},
		{"https://docs.example.com/pub/../../internal/a.pdf", "https", "/internal/a.pdf", "docs.example.com", "a.pdf", "https://docs.example.com/internal/a.pdf"},
		{"https://docs.example.com/pub/%2e%2e/secret.txt", "https", "/secret.txt", "docs.example.com", "secret.txt", "https://docs.example.com/secret.txt"},
		{"https://docs.example.com/dir/", "https", "/dir/", "docs.example.com", "dir", "https://docs.example.com/dir/"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			r, err := ParseReference(tt.ref)
			if err != nil {
				t.Fatalf("ParseReference() error = %v", err)
			}
			if r.Scheme != tt.scheme {
				t.Errorf("Scheme = %q, want %q", r.Scheme, tt.scheme)
			}
			if r.Path != tt.path {
				t.Errorf("Path = %q, want %q", r.Path, tt.path)
			}
			if r.Host() != tt.host {
				t.Errorf("Host() = %q, want %q", r.Host(), tt.host)
			}
			if tt.name != "" && r.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", r.Name(), tt.name)
			}
			if tt.canonical != "" && r.Canonical() != tt.canonical {
				t.Errorf("Canonical() = %q, want %q", r.Canonical(), tt.canonical)
			}
			if r.String() != tt.ref {
				t.Errorf("String() = %q, want raw reference", r.String())
			}
		})
	}
}

func TestReferenceURLString(t *testing.T) {
	r, _ := ParseReference("https://docs.example.com/a/../b%20c.pdf?v=1")
	if got := r.URLString(); got != "https://docs.example.com/b%20c.pdf?v=1" {
		t.Errorf("URLString() = %q", got)
	}
	r, _ = ParseReference("/docs/a.pdf")
	if got := r.URLString(); got != "/docs/a.pdf" {
		t.Errorf("URLString() = %q", got)
	}
}

func TestParseReferenceErrors(t *testing.T) {
	if _, err := ParseReference("  "); !errors.Is(err, ErrEmptyReference) {
		t.Errorf("blank reference error = %v", err)
	}
	if _, err := ParseReference("file://"); err == nil {
		t.Error("file reference without a path should fail")
	}
	if _, err := ParseReference("http:///no-host"); err == nil {
		t.Error("http reference without a host should fail")
	}
}
