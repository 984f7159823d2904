package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/webwatch/webwatch/internal/step"
)

func TestFetchParsesDocument(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`<html><body><a href="/file.pdf">Download</a></body></html>`))
	}))
	defer server.Close()

	f := &Fetcher{AllowPrivate: true}
	root, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if gotUA != DefaultUserAgent {
		t.Fatalf("expected default user agent, got %q", gotUA)
	}
	if got := step.Text(root); got != "Download" {
		t.Fatalf("unexpected document text: %q", got)
	}
}

func TestFetchCustomUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	f := &Fetcher{UserAgent: "custom-agent/2.0", AllowPrivate: true}
	if _, err := f.Fetch(context.Background(), server.URL); err != nil {
		t.Fatal(err)
	}
	if gotUA != "custom-agent/2.0" {
		t.Fatalf("expected custom user agent, got %q", gotUA)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := &Fetcher{AllowPrivate: true}
	_, err := f.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestFetchBlocksPrivateTargets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	f := &Fetcher{}
	_, err := f.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected loopback fetch to be blocked by default")
	}
}

func TestFetchInvalidURL(t *testing.T) {
	f := &Fetcher{}
	if _, err := f.Fetch(context.Background(), "http://\x00invalid"); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}
