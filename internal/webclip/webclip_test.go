package webclip

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/halvard/othala/internal/apperr"
)

func TestFetch_ExtractsTitleAndText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<title>  My &amp; Page  </title>
			<style>body { color: red }</style>
			</head><body>
			<script>var x = "<p>not text</p>";</script>
			<h1>Heading</h1>
			<p>First   paragraph.</p>
			<p>Second &lt;b&gt; paragraph.</p>
			</body></html>`))
	}))
	defer srv.Close()

	clip, err := New().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if clip.Title != "My & Page" {
		t.Errorf("title = %q", clip.Title)
	}
	for _, want := range []string{"Heading", "First paragraph.", "Second <b> paragraph."} {
		if !strings.Contains(clip.Content, want) {
			t.Errorf("content missing %q:\n%s", want, clip.Content)
		}
	}
	for _, reject := range []string{"color: red", "not text", "<p>"} {
		if strings.Contains(clip.Content, reject) {
			t.Errorf("content kept %q:\n%s", reject, clip.Content)
		}
	}
}

func TestFetch_TitleFallsBackToHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>no title element</body></html>`))
	}))
	defer srv.Close()

	clip, err := New().Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(srv.URL, clip.Title) {
		t.Errorf("title = %q, want host of %s", clip.Title, srv.URL)
	}
}

func TestFetch_RejectsBadURLs(t *testing.T) {
	tests := []string{
		"ftp://example.com/file",
		"javascript:alert(1)",
		"file:///etc/passwd",
		"not a url at all",
		"",
	}
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := New().Fetch(context.Background(), raw)
			if !errors.Is(err, apperr.ErrInvalidInput) {
				t.Errorf("Fetch(%q) = %v, want ErrInvalidInput", raw, err)
			}
		})
	}
}

func TestFetch_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	_, err := New().Fetch(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "410") {
		t.Errorf("err = %v, want status in message", err)
	}
}
