package upload

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"reflection-audio/internal/asset"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sealed(t *testing.T, data []byte, mime string) *asset.Asset {
	t.Helper()
	a, err := asset.NewAssembler(asset.NewPreviewRegistry()).Seal([][]byte{data}, mime)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	return a
}

// uploadServer accepts multipart uploads and records the object names it saw.
func uploadServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var names []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/upload-audio" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, header, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		names = append(names, header.Filename)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"message":  "audio uploaded successfully",
			"audioUrl": "/uploads/" + header.Filename,
			"filename": header.Filename,
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &names
}

func TestClient_Upload(t *testing.T) {
	srv, names := uploadServer(t)
	c := NewClient(srv.URL, testLogger())

	url, err := c.Upload(context.Background(), sealed(t, []byte("audio-bytes"), asset.MimeWebM))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(*names) != 1 {
		t.Fatalf("server saw %d uploads, want 1", len(*names))
	}
	if !strings.HasSuffix((*names)[0], ".webm") {
		t.Errorf("object name = %q, want .webm extension", (*names)[0])
	}
	if url != "/uploads/"+(*names)[0] {
		t.Errorf("url = %q, want it to point at the stored object", url)
	}
}

func TestClient_Upload_twice_yields_distinct_urls(t *testing.T) {
	srv, names := uploadServer(t)
	c := NewClient(srv.URL, testLogger())
	a := sealed(t, []byte("identical-content"), asset.MimeMP4)

	url1, err := c.Upload(context.Background(), a)
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	url2, err := c.Upload(context.Background(), a)
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if url1 == url2 {
		t.Errorf("re-uploading the same asset reused url %q", url1)
	}
	if (*names)[0] == (*names)[1] {
		t.Errorf("re-uploading the same asset reused object name %q", (*names)[0])
	}
}

func TestClient_Upload_unsupported_format(t *testing.T) {
	srv, names := uploadServer(t)
	c := NewClient(srv.URL, testLogger())

	_, err := c.Upload(context.Background(), sealed(t, []byte("nope"), "text/plain"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if len(*names) != 0 {
		t.Error("unsupported format should be rejected before any request")
	}
}

func TestClient_Upload_payload_too_large(t *testing.T) {
	srv, names := uploadServer(t)
	c := NewClient(srv.URL, testLogger())

	big := make([]byte, asset.MaxUploadBytes+1)
	_, err := c.Upload(context.Background(), sealed(t, big, asset.MimeWAV))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if len(*names) != 0 {
		t.Error("oversized payload should be rejected before any request")
	}
}

func TestClient_Upload_server_error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "disk full"})
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, testLogger())

	_, err := c.Upload(context.Background(), sealed(t, []byte("audio"), asset.MimeOGG))
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("error should carry the storage reason, got %v", err)
	}
}

func TestClient_Upload_transport_failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	c := NewClient(srv.URL, testLogger())

	_, err := c.Upload(context.Background(), sealed(t, []byte("audio"), asset.MimeWebM))
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
}
