package logging

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type captureLogger struct {
	entries []string
}

func (c *captureLogger) Printf(format string, args ...any) {
	c.entries = append(c.entries, fmt.Sprintf(format, args...))
}

func TestWithHTTPLoggingRecordsRequestAndResponse(t *testing.T) {
	logger := &captureLogger{}
	handler := WithHTTPLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"sub_1"}`))
	}), logger)

	req := httptest.NewRequest(http.MethodPost, "/api/requests", strings.NewReader("name=Ada"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if len(logger.entries) != 2 {
		t.Fatalf("expected two log entries, got %d", len(logger.entries))
	}
	if !strings.Contains(logger.entries[0], "name=Ada") {
		t.Fatalf("expected request body in log, got %q", logger.entries[0])
	}
	if !strings.Contains(logger.entries[1], "201 Created") || !strings.Contains(logger.entries[1], `"sub_1"`) {
		t.Fatalf("unexpected response log %q", logger.entries[1])
	}
}

func TestWithHTTPLoggingLeavesBodyReadable(t *testing.T) {
	var seen string
	handler := WithHTTPLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		seen = string(b)
	}), &captureLogger{})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("payload"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "payload" {
		t.Fatalf("handler saw %q", seen)
	}
}

func TestWithHTTPLoggingNilLoggerReturnsOriginal(t *testing.T) {
	base := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	if got := WithHTTPLogging(base, nil); fmt.Sprintf("%p", got) != fmt.Sprintf("%p", base) {
		t.Fatalf("expected handler to be returned untouched when logger is nil")
	}
}

func TestWithHTTPLoggingSkipsMultipartBodies(t *testing.T) {
	logger := &captureLogger{}
	handler := WithHTTPLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), logger)

	body := "--xyz\r\nContent-Disposition: form-data; name=\"file-0\"; filename=\"secret.pdf\"\r\n\r\nSECRET-BYTES\r\n--xyz--\r\n"
	req := httptest.NewRequest(http.MethodPost, "/api/requests", strings.NewReader(body))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if strings.Contains(logger.entries[0], "SECRET-BYTES") {
		t.Fatalf("multipart body must not be logged: %q", logger.entries[0])
	}
	want := fmt.Sprintf("-- multipart body, %d bytes --", len(body))
	if !strings.Contains(logger.entries[0], want) {
		t.Fatalf("expected %q in %q", want, logger.entries[0])
	}
}

func TestWithHTTPLoggingRedactsCredentials(t *testing.T) {
	logger := &captureLogger{}
	handler := WithHTTPLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("handler saw Authorization %q", got)
		}
	}), logger)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/requests", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	req.Header.Set("Cookie", "session=abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	for _, secret := range []string{"tok-123", "session=abc"} {
		if strings.Contains(logger.entries[0], secret) {
			t.Fatalf("%q leaked into %q", secret, logger.entries[0])
		}
	}
	if !strings.Contains(logger.entries[0], "[redacted]") {
		t.Fatalf("expected redaction marker, got %q", logger.entries[0])
	}
}

func TestWithHTTPLoggingQuietBodies(t *testing.T) {
	logger := &captureLogger{}
	handler := WithHTTPLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok-xyz"}`))
	}), logger, QuietBodies("/api/admin/login"))

	body := `{"email":"a@b.c","password":"hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if strings.Contains(logger.entries[0], "hunter2") {
		t.Fatalf("password leaked into %q", logger.entries[0])
	}
	if strings.Contains(logger.entries[1], "tok-xyz") {
		t.Fatalf("token leaked into %q", logger.entries[1])
	}
	if !strings.Contains(logger.entries[1], "-- body omitted, 19 bytes --") {
		t.Fatalf("expected omission note, got %q", logger.entries[1])
	}
}

func TestWithHTTPLoggingOmitsBinaryResponses(t *testing.T) {
	logger := &captureLogger{}
	handler := WithHTTPLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}), logger)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/admin/requests/x/files/file-0", nil))

	if strings.Contains(logger.entries[1], "%PDF") {
		t.Fatalf("binary body logged: %q", logger.entries[1])
	}
}

func TestLoggingResponseWriterTruncatesLargeBodies(t *testing.T) {
	lrw := newLoggingResponseWriter(httptest.NewRecorder(), true)
	payload := strings.Repeat("x", maxLoggedResponseBody+10)

	if _, err := lrw.Write([]byte(payload)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if lrw.StatusCode() != http.StatusOK {
		t.Fatalf("expected default status to be 200, got %d", lrw.StatusCode())
	}
	if body := lrw.LoggedBody(); !strings.Contains(body, "-- response truncated after") {
		t.Fatalf("expected truncation notice, got %q", body)
	}
}

type flushRecorder struct {
	http.ResponseWriter
	flushed bool
}

func (f *flushRecorder) Flush() {
	f.flushed = true
}

func TestLoggingResponseWriterImplementsFlusher(t *testing.T) {
	fr := &flushRecorder{ResponseWriter: httptest.NewRecorder()}
	var w http.ResponseWriter = newLoggingResponseWriter(fr, true)
	flusher, ok := w.(http.Flusher)
	if !ok {
		t.Fatalf("expected loggingResponseWriter to implement http.Flusher")
	}
	flusher.Flush()
	if !fr.flushed {
		t.Fatalf("expected underlying flusher to be invoked")
	}
}
