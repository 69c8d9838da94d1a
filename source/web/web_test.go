package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gobeaver/tikakit"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/docs/report.txt", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "tikakit-test" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "remote text")
	})
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="real name.pdf"`)
		_, _ = io.WriteString(w, "%PDF")
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpen(t *testing.T) {
	srv := newServer(t)
	a := New(WithUserAgent("tikakit-test"))
	ctx := context.Background()

	open := func(raw string) (*tikakit.Document, error) {
		ref, err := tikakit.ParseReference(raw)
		if err != nil {
			t.Fatalf("ParseReference(%q): %v", raw, err)
		}
		return a.Open(ctx, ref)
	}

	t.Run("fetches document", func(t *testing.T) {
		doc, err := open(srv.URL + "/docs/report.txt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer doc.Close()

		data, _ := io.ReadAll(doc.Body)
		if string(data) != "remote text" {
			t.Errorf("unexpected content %q", data)
		}
		if doc.Name != "report.txt" {
			t.Errorf("expected name report.txt, got %q", doc.Name)
		}
		if doc.ContentType != "text/plain" {
			t.Errorf("unexpected content type %q", doc.ContentType)
		}
	})

	t.Run("content disposition names the document", func(t *testing.T) {
		doc, err := open(srv.URL + "/download")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer doc.Close()
		if doc.Name != "real name.pdf" {
			t.Errorf("expected name from header, got %q", doc.Name)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := open(srv.URL + "/missing")
		if !tikakit.IsNotExist(err) {
			t.Errorf("expected not exist, got %v", err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		_, err := open(srv.URL + "/broken")
		if err == nil || tikakit.IsNotExist(err) {
			t.Errorf("expected processing error, got %v", err)
		}
	})

	t.Run("unreachable host", func(t *testing.T) {
		_, err := open("http://127.0.0.1:1/doc.txt")
		if err == nil {
			t.Error("expected error for unreachable host")
		}
	})
}

func TestOpenRedirectPolicy(t *testing.T) {
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "instance credentials")
	}))
	t.Cleanup(internal.Close)

	mux := http.NewServeMux()
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/report.txt", http.StatusFound)
	})
	mux.HandleFunc("/escape", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, internal.URL+"/latest/meta-data", http.StatusFound)
	})
	mux.HandleFunc("/docs/report.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "public text")
	})
	public := httptest.NewServer(mux)
	t.Cleanup(public.Close)

	src, err := tikakit.NewRestrictedSource(New(), tikakit.Policy{
		AllowPatterns: []string{public.URL + "/**"},
	})
	if err != nil {
		t.Fatal(err)
	}
	open := func(raw string) (*tikakit.Document, error) {
		ref, err := tikakit.ParseReference(raw)
		if err != nil {
			t.Fatalf("ParseReference(%q): %v", raw, err)
		}
		return src.Open(context.Background(), ref)
	}

	t.Run("redirect inside policy", func(t *testing.T) {
		doc, err := open(public.URL + "/moved")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer doc.Close()
		data, _ := io.ReadAll(doc.Body)
		if string(data) != "public text" {
			t.Errorf("unexpected content %q", data)
		}
	})

	t.Run("redirect outside policy", func(t *testing.T) {
		doc, err := open(public.URL + "/escape")
		if err == nil {
			doc.Close()
			t.Fatal("redirect to a disallowed host was followed")
		}
		if !tikakit.IsNotAllowed(err) {
			t.Errorf("expected not allowed, got %v", err)
		}
	})

	t.Run("no policy follows redirects", func(t *testing.T) {
		ref, _ := tikakit.ParseReference(public.URL + "/escape")
		doc, err := New().Open(context.Background(), ref)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		doc.Close()
	})
}
