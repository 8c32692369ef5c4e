package client

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jo-hoe/aisign/internal/verdict"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

// countingServer records how many requests reached it.
func countingServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var count int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&count, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &count
}

func TestSubmitImage_NoFile(t *testing.T) {
	server, count := countingServer(t, func(w http.ResponseWriter, r *http.Request) {})
	c := NewImageClient(0)

	tests := []struct {
		name string
		file *File
	}{
		{name: "nil file", file: nil},
		{name: "empty selection", file: &File{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.SubmitImage(context.Background(), server.URL+"/embed", tt.file, Policy{CheckStatus: true})
			if !errors.Is(err, ErrNoFile) {
				t.Fatalf("expected ErrNoFile, got %v", err)
			}
		})
	}

	if got := atomic.LoadInt32(count); got != 0 {
		t.Fatalf("expected zero requests, got %d", got)
	}
}

func TestSubmitImage_SendsMultipartImage(t *testing.T) {
	data := testPNG(t)
	signed := []byte("signed-bytes")

	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/embed" {
			t.Errorf("expected /embed, got %s", r.URL.Path)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Errorf("expected image field: %v", err)
			return
		}
		defer func() { _ = file.Close() }()
		got, _ := io.ReadAll(file)
		if !bytes.Equal(got, data) {
			t.Errorf("uploaded bytes differ from the selected file")
		}
		if header.Filename != "photo.png" {
			t.Errorf("expected filename photo.png, got %q", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("expected part content type image/png, got %q", ct)
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(signed)
	})

	c := NewImageClient(0)
	blob, err := c.SubmitImage(context.Background(), server.URL+"/embed", &File{Name: "photo.png", Data: data}, Policy{CheckStatus: true})
	if err != nil {
		t.Fatalf("SubmitImage failed: %v", err)
	}
	if !bytes.Equal(blob.Data, signed) {
		t.Errorf("expected signed bytes, got %q", blob.Data)
	}
	if blob.ContentType != "image/png" {
		t.Errorf("expected image/png, got %q", blob.ContentType)
	}
}

func TestSubmitImage_StatusPolicy(t *testing.T) {
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "Unsupported image format"}`))
	})
	c := NewImageClient(0)
	file := &File{Name: "a.gif", Data: []byte("GIF89a")}

	t.Run("checked", func(t *testing.T) {
		_, err := c.SubmitImage(context.Background(), server.URL, file, Policy{CheckStatus: true})
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected *StatusError, got %v", err)
		}
		if statusErr.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", statusErr.StatusCode)
		}
		if statusErr.Message != "Unsupported image format" {
			t.Errorf("unexpected message %q", statusErr.Message)
		}
	})

	t.Run("unchecked", func(t *testing.T) {
		blob, err := c.SubmitImage(context.Background(), server.URL, file, Policy{})
		if err != nil {
			t.Fatalf("expected no error without status check, got %v", err)
		}
		if len(blob.Data) == 0 {
			t.Error("expected the error body to be returned as blob")
		}
	})
}

func TestSubmitImage_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewImageClient(0)
	_, err := c.SubmitImage(context.Background(), url, &File{Name: "a.png", Data: testPNG(t)}, Policy{CheckStatus: true})
	if err == nil {
		t.Fatal("expected transport error, got nil")
	}
}

func TestVerify_BlockVerdict(t *testing.T) {
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.FormValue("context"); got != "media_marketing" {
			t.Errorf("expected context media_marketing, got %q", got)
		}
		if _, _, err := r.FormFile("image"); err != nil {
			t.Errorf("expected image field: %v", err)
		}
		_, _ = w.Write([]byte(`{"detection_status":"AI-Generated","confidence":"87%","decision":"BLOCK","reason":"model artifact detected"}`))
	})

	c := NewImageClient(0)
	result, err := c.Verify(context.Background(), server.URL+"/verify", &File{Name: "a.png", Data: testPNG(t)}, "media_marketing")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if result.DetectionStatus != "AI-Generated" {
		t.Errorf("unexpected detection status %q", result.DetectionStatus)
	}
	if result.Confidence != "87%" {
		t.Errorf("unexpected confidence %q", result.Confidence)
	}
	if result.Verdict() != verdict.Block {
		t.Errorf("expected BLOCK, got %q", result.Verdict())
	}
	if result.Reason != "model artifact detected" {
		t.Errorf("unexpected reason %q", result.Reason)
	}
}

func TestVerify_NumericConfidence(t *testing.T) {
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"detection_status":"TAMPERED","confidence":0.456,"decision":"MAYBE","reason":"x"}`))
	})

	c := NewImageClient(0)
	result, err := c.Verify(context.Background(), server.URL, &File{Name: "a.png", Data: testPNG(t)}, "")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if result.Confidence != "0.456" {
		t.Errorf("expected 0.456, got %q", result.Confidence)
	}
	if result.Verdict() != verdict.Unknown {
		t.Errorf("expected Unknown verdict, got %q", result.Verdict())
	}
}

func TestVerify_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus bool
	}{
		{name: "error payload", status: http.StatusBadRequest, body: `{"error":"No image uploaded"}`, wantStatus: true},
		{name: "non json", status: http.StatusInternalServerError, body: `<html>boom</html>`},
		{name: "non json ok", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			c := NewImageClient(0)
			_, err := c.Verify(context.Background(), server.URL, &File{Name: "a.png", Data: testPNG(t)}, "education_exam")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var statusErr *StatusError
			if got := errors.As(err, &statusErr); got != tt.wantStatus {
				t.Errorf("errors.As(*StatusError) = %v, expected %v (err=%v)", got, tt.wantStatus, err)
			}
		})
	}
}

func TestVerify_NonOKWithVerdictIsRendered(t *testing.T) {
	server, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"detection_status":"TAMPERED","confidence":0.5,"decision":"WARN","reason":"r"}`))
	})
	c := NewImageClient(0)
	result, err := c.Verify(context.Background(), server.URL, &File{Name: "a.png", Data: testPNG(t)}, "media_marketing")
	if err != nil {
		t.Fatalf("expected verdict to be returned, got %v", err)
	}
	if result.Verdict() != verdict.Warn {
		t.Errorf("expected WARN, got %q", result.Verdict())
	}
}

func TestVerify_NoFile(t *testing.T) {
	server, count := countingServer(t, func(w http.ResponseWriter, r *http.Request) {})
	c := NewImageClient(0)
	if _, err := c.Verify(context.Background(), server.URL, nil, "education_exam"); !errors.Is(err, ErrNoFile) {
		t.Fatalf("expected ErrNoFile, got %v", err)
	}
	if got := atomic.LoadInt32(count); got != 0 {
		t.Fatalf("expected zero requests, got %d", got)
	}
}

func TestFile_PartContentType(t *testing.T) {
	tests := []struct {
		name     string
		file     File
		expected string
	}{
		{name: "png sniffed", file: File{Name: "x.bin", Data: testPNG(t)}, expected: "image/png"},
		{name: "declared fallback", file: File{Name: "x", ContentType: "image/heic", Data: []byte("....")}, expected: "image/heic"},
		{name: "empty", file: File{Name: "x"}, expected: mimeOctetStream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.file.partContentType(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
