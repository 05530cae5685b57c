package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"nova-cli/internal/api"
	"nova-cli/internal/auth"
	"nova-cli/internal/config"
)

// testBackend fakes the two backend endpoints the protocol touches plus the
// object store PUT target, all on one server.
type testBackend struct {
	srv *httptest.Server

	presignCalls  atomic.Int64
	putCalls      atomic.Int64
	registerCalls atomic.Int64

	putBody        atomic.Value // string
	putContentType atomic.Value // string
	registered     atomic.Value // api.RegisterFileInput

	failPut      bool
	failRegister bool
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	b := &testBackend{}
	mux := http.NewServeMux()
	mux.HandleFunc("/files/presigned-url", func(w http.ResponseWriter, r *http.Request) {
		b.presignCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{
			"presignedUrl": b.srv.URL + "/blob/abc",
			"fileId":       "file-new",
			"key":          "uploads/abc",
		})
	})
	mux.HandleFunc("/blob/abc", func(w http.ResponseWriter, r *http.Request) {
		b.putCalls.Add(1)
		if b.failPut {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("credential expired"))
			return
		}
		body, _ := io.ReadAll(r.Body)
		b.putBody.Store(string(body))
		b.putContentType.Store(r.Header.Get("Content-Type"))
	})
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		b.registerCalls.Add(1)
		if b.failRegister {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var in api.RegisterFileInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode register body: %v", err)
		}
		b.registered.Store(in)
		json.NewEncoder(w).Encode(map[string]any{
			"_id":  in.FileID,
			"name": in.Name,
			"size": in.Size,
		})
	})
	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func newUploader(t *testing.T, b *testBackend) *Uploader {
	t.Helper()
	tokens := auth.NewTokenCache(t.TempDir())
	cfg := config.Config{APIURL: b.srv.URL, HTTPTimeout: 5 * time.Second}
	return New(api.New(cfg, tokens))
}

func TestUploadRunsAllThreeSteps(t *testing.T) {
	t.Parallel()

	b := newTestBackend(t)
	u := newUploader(t, b)

	content := "hello, object store"
	f, err := u.Upload(context.Background(), Input{
		Name:        "notes.txt",
		ContentType: "text/plain",
		Size:        int64(len(content)),
		Body:        strings.NewReader(content),
		FolderID:    "folder-1",
		ClientID:    "user-9",
	}, nil)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if f.ID != "file-new" || f.Name != "notes.txt" {
		t.Fatalf("registered file = %+v", f)
	}
	if b.presignCalls.Load() != 1 || b.putCalls.Load() != 1 || b.registerCalls.Load() != 1 {
		t.Fatalf("calls = %d/%d/%d, want 1/1/1",
			b.presignCalls.Load(), b.putCalls.Load(), b.registerCalls.Load())
	}
	if got := b.putBody.Load(); got != content {
		t.Fatalf("PUT body = %q", got)
	}
	if got := b.putContentType.Load(); got != "text/plain" {
		t.Fatalf("PUT content type = %q", got)
	}
	reg := b.registered.Load().(api.RegisterFileInput)
	if reg.Key != "uploads/abc" || reg.FolderID != "folder-1" || reg.ClientID != "user-9" {
		t.Fatalf("register input = %+v", reg)
	}
}

func TestUploadReportsProgress(t *testing.T) {
	t.Parallel()

	b := newTestBackend(t)
	u := newUploader(t, b)

	content := strings.Repeat("x", 4096)
	var last atomic.Int64
	_, err := u.Upload(context.Background(), Input{
		Name:        "big.bin",
		ContentType: "application/octet-stream",
		Size:        int64(len(content)),
		Body:        strings.NewReader(content),
		FolderID:    "folder-1",
	}, func(sent, total int64) {
		if total != int64(len(content)) {
			t.Errorf("total = %d, want %d", total, len(content))
		}
		last.Store(sent)
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if last.Load() != int64(len(content)) {
		t.Fatalf("final progress = %d, want %d", last.Load(), len(content))
	}
}

func TestUploadPresignFailureReportsStepNone(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tokens := auth.NewTokenCache(t.TempDir())
	u := New(api.New(config.Config{APIURL: srv.URL, HTTPTimeout: 5 * time.Second}, tokens))

	_, err := u.Upload(context.Background(), Input{
		Name: "x", Size: 1, Body: strings.NewReader("x"), FolderID: "f",
	}, nil)

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("error = %v, want *StepError", err)
	}
	if stepErr.Completed != StepNone {
		t.Fatalf("Completed = %v, want StepNone", stepErr.Completed)
	}
}

func TestUploadTransferFailureReportsStepRequested(t *testing.T) {
	t.Parallel()

	b := newTestBackend(t)
	b.failPut = true
	u := newUploader(t, b)

	_, err := u.Upload(context.Background(), Input{
		Name: "x", Size: 1, Body: strings.NewReader("x"), FolderID: "f",
	}, nil)

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("error = %v, want *StepError", err)
	}
	if stepErr.Completed != StepRequested {
		t.Fatalf("Completed = %v, want StepRequested", stepErr.Completed)
	}
	if !strings.Contains(stepErr.Error(), "credential expired") {
		t.Fatalf("Error() = %q, want store body included", stepErr.Error())
	}
	if b.registerCalls.Load() != 0 {
		t.Fatal("register must not run after a failed transfer")
	}
}

func TestUploadRegisterFailureReportsStepTransferredNoRollback(t *testing.T) {
	t.Parallel()

	b := newTestBackend(t)
	b.failRegister = true
	u := newUploader(t, b)

	_, err := u.Upload(context.Background(), Input{
		Name: "x", Size: 1, Body: strings.NewReader("x"), FolderID: "f",
	}, nil)

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("error = %v, want *StepError", err)
	}
	if stepErr.Completed != StepTransferred {
		t.Fatalf("Completed = %v, want StepTransferred", stepErr.Completed)
	}
	// The blob was PUT exactly once and no compensating delete happened.
	if b.putCalls.Load() != 1 {
		t.Fatalf("putCalls = %d, want 1", b.putCalls.Load())
	}
}

func TestStepStrings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		step Step
		want string
	}{
		{StepNone, "none"},
		{StepRequested, "requested"},
		{StepTransferred, "transferred"},
		{StepRegistered, "registered"},
	}
	for _, tt := range tests {
		if got := tt.step.String(); got != tt.want {
			t.Fatalf("Step(%d).String() = %q, want %q", tt.step, got, tt.want)
		}
	}
}
