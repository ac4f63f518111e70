package media

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUpload(t *testing.T) {
	var gotFilename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, fh, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer func() { _ = f.Close() }()
		gotFilename = fh.Filename
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"secure_url": "https://cdn.example.com/tomate.jpg"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	url, err := c.Upload(context.Background(), "tomate.jpg", strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "https://cdn.example.com/tomate.jpg" {
		t.Fatalf("url = %q, want the secure_url from the host", url)
	}
	if gotFilename != "tomate.jpg" {
		t.Fatalf("filename = %q, want tomate.jpg", gotFilename)
	}
}

// The buffered body lets a second attempt succeed after one transient
// server failure.
func TestUploadRetriesOnce(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"secure_url": "https://cdn.example.com/ok.jpg"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	url, err := c.Upload(context.Background(), "ok.jpg", strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "https://cdn.example.com/ok.jpg" {
		t.Fatalf("url = %q, want the retried upload result", url)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}

func TestUploadGivesUpAfterRetry(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Upload(context.Background(), "x.jpg", strings.NewReader("image-bytes")); err == nil {
		t.Fatal("Upload succeeded against a failing host")
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}

func TestUploadDisabled(t *testing.T) {
	c := &Client{}
	if _, err := c.Upload(context.Background(), "x.jpg", strings.NewReader("")); !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}
