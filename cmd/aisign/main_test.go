package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nfake"), 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	return path
}

func TestRun_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("signed"))
	}))
	defer server.Close()

	out := filepath.Join(t.TempDir(), "signed.png")
	var stdout, stderr bytes.Buffer
	code := run([]string{"embed", "-endpoint", server.URL, "-in", writeInput(t), "-out", out}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "signed" {
		t.Fatalf("expected signed output, got %q (%v)", data, err)
	}
}

func TestRun_EmbedCheckStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Unsupported image format"}`))
	}))
	defer server.Close()

	var stdout, stderr bytes.Buffer
	out := filepath.Join(t.TempDir(), "signed")
	code := run([]string{"embed", "-endpoint", server.URL, "-in", writeInput(t), "-out", out, "-check-status"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "Unsupported image format") {
		t.Errorf("expected service message on stderr, got %q", stderr.String())
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("expected no output file")
	}
}

func TestRun_NoInputSendsNothing(t *testing.T) {
	var count int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&count, 1)
	}))
	defer server.Close()

	for _, command := range []string{"embed", "verify"} {
		var stdout, stderr bytes.Buffer
		if code := run([]string{command, "-endpoint", server.URL}, &stdout, &stderr); code != 2 {
			t.Errorf("%s: expected exit 2, got %d", command, code)
		}
	}
	if got := atomic.LoadInt32(&count); got != 0 {
		t.Fatalf("expected zero requests, got %d", got)
	}
}

func TestRun_Verify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.FormValue("context"); got != "education_exam" {
			t.Errorf("expected context education_exam, got %q", got)
		}
		_, _ = w.Write([]byte(`{"detection_status":"NO_VERIFIABLE_SIGNATURE","confidence":0.0,"context":"education_exam","decision":"BLOCK","reason":"Content not permitted in this context"}`))
	}))
	defer server.Close()

	t.Run("text", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := run([]string{"verify", "-endpoint", server.URL, "-in", writeInput(t), "-context", "education_exam"}, &stdout, &stderr)
		if code != 0 {
			t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
		}
		if !strings.Contains(stdout.String(), "Decision:   BLOCK") {
			t.Errorf("unexpected output %q", stdout.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := run([]string{"verify", "-endpoint", server.URL, "-in", writeInput(t), "-context", "education_exam", "-json"}, &stdout, &stderr)
		if code != 0 {
			t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
		}
		var result map[string]any
		if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if result["decision"] != "BLOCK" || result["confidence"] != "0.0" {
			t.Errorf("unexpected result %v", result)
		}
	})
}

func TestRun_VerifyEndpointFromConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"detection_status":"TAMPERED","confidence":0.5,"decision":"WARN","reason":"r"}`))
	}))
	defer server.Close()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	config := "[frontend.verify]\nendpoint = \"" + server.URL + "/verify\"\n"
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code := run([]string{"verify", "-config", configPath, "-in", writeInput(t), "-context", "media_marketing"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "WARN") {
		t.Errorf("unexpected output %q", stdout.String())
	}
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 2 {
		t.Errorf("expected exit 2, got %d", code)
	}
	if code := run([]string{"sign"}, &stdout, &stderr); code != 2 {
		t.Errorf("expected exit 2, got %d", code)
	}
}
