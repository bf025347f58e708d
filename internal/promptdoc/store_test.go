package promptdoc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/promptforge/promptforge-backend/internal/element"
	"github.com/promptforge/promptforge-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestGetFetchesOnceAndCaches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/docs/task.md" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte("# Task\nGenerate for {{topic}}"))
	}))
	defer srv.Close()

	store := NewStore(srv.URL+"/docs", testLogger(t))

	first := store.Get(context.Background(), element.TypeTask)
	second := store.Get(context.Background(), element.TypeTask)
	if first == "" || first != second {
		t.Fatalf("first=%q second=%q", first, second)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected 1 fetch, got %d", n)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("template body"))
	}))
	defer srv.Close()

	store := NewStore(srv.URL, testLogger(t))
	store.Get(context.Background(), element.TypeBehavior)
	store.Invalidate()
	store.Get(context.Background(), element.TypeBehavior)

	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("expected 2 fetches after invalidate, got %d", n)
	}
}

func TestGetRejectsHTMLErrorPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("  <!DOCTYPE html><html><body>not found</body></html>"))
	}))
	defer srv.Close()

	store := NewStore(srv.URL, testLogger(t))
	if got := store.Get(context.Background(), element.TypeTask); got != "" {
		t.Fatalf("HTML page must yield empty template, got %q", got)
	}
}

func TestGetRejectsEmptyAndErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/" + DocFile(element.TypeTask):
			w.Write([]byte("   \n  "))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	store := NewStore(srv.URL, testLogger(t))
	if got := store.Get(context.Background(), element.TypeTask); got != "" {
		t.Fatalf("blank body must yield empty template, got %q", got)
	}
	if got := store.Get(context.Background(), element.TypeDelivery); got != "" {
		t.Fatalf("404 must yield empty template, got %q", got)
	}
}

func TestLooksLikeHTMLPage(t *testing.T) {
	cases := map[string]bool{
		"<!DOCTYPE html><html>": true,
		"  <!doctype html>":     true,
		"<html lang=\"en\">":    true,
		"# Heading\nsome text":  false,
		"plain text with <b>":   false,
	}
	for body, want := range cases {
		if got := LooksLikeHTMLPage(body); got != want {
			t.Errorf("LooksLikeHTMLPage(%q) = %v, want %v", body, got, want)
		}
	}
}
