package logging

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"net/http/httputil"
	"strings"
)

const maxLoggedResponseBody = 4096

var redactedHeaders = []string{"Authorization", "Cookie", "Set-Cookie"}

// HTTPOption tunes WithHTTPLogging.
type HTTPOption func(*httpLogConfig)

type httpLogConfig struct {
	quietPaths []string
}

// QuietBodies keeps request and response bodies of the given path prefixes out
// of the log, e.g. credential exchanges.
func QuietBodies(prefixes ...string) HTTPOption {
	return func(c *httpLogConfig) {
		c.quietPaths = append(c.quietPaths, prefixes...)
	}
}

func (c httpLogConfig) quiet(path string) bool {
	for _, p := range c.quietPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// WithHTTPLogging wraps next so every request/response pair is logged.
// Credentials headers are masked. Multipart uploads and quiet paths are logged
// by size only, and only textual responses are echoed.
func WithHTTPLogging(next http.Handler, logger Logger, opts ...HTTPOption) http.Handler {
	if logger == nil || next == nil {
		return next
	}
	var cfg httpLogConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		quiet := cfg.quiet(r.URL.Path)
		logger.Printf("---- Incoming request from %s ----\n%s", r.RemoteAddr, dumpRequest(r, quiet))

		lrw := newLoggingResponseWriter(w, !quiet)
		next.ServeHTTP(lrw, r)

		status := lrw.StatusCode()
		logger.Printf(
			"---- Response for %s %s (%d %s) ----\n%s",
			r.Method,
			r.URL.Path,
			status,
			http.StatusText(status),
			lrw.LoggedBody(),
		)
	})
}

func dumpRequest(r *http.Request, quiet bool) string {
	withBody := !quiet && !isMultipart(r)

	// Clone copies the header map, so masking leaves the handler's view intact.
	clone := r.Clone(r.Context())
	for _, h := range redactedHeaders {
		if clone.Header.Get(h) != "" {
			clone.Header.Set(h, "[redacted]")
		}
	}

	dump, err := httputil.DumpRequest(clone, withBody)
	if err != nil {
		return fmt.Sprintf("-- failed to dump request: %v --", err)
	}
	if withBody {
		// DumpRequest replaced clone.Body with an equivalent reader.
		r.Body = clone.Body
	} else if r.ContentLength != 0 {
		kind := "body"
		if isMultipart(r) {
			kind = "multipart body"
		}
		if r.ContentLength > 0 {
			dump = append(dump, fmt.Sprintf("-- %s, %d bytes --", kind, r.ContentLength)...)
		} else {
			dump = append(dump, fmt.Sprintf("-- %s, streamed --", kind)...)
		}
	}
	return string(dump)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/")
}

func isTextual(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "text/") || mediaType == "application/json"
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status    int
	capture   bool
	checked   bool
	written   int
	buf       bytes.Buffer
	truncated bool
}

func newLoggingResponseWriter(w http.ResponseWriter, capture bool) *loggingResponseWriter {
	return &loggingResponseWriter{ResponseWriter: w, capture: capture}
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	if !lrw.checked {
		lrw.checked = true
		lrw.capture = lrw.capture && isTextual(lrw.Header().Get("Content-Type"))
	}
	lrw.written += len(b)
	if lrw.capture {
		if remaining := maxLoggedResponseBody - lrw.buf.Len(); remaining > 0 {
			if len(b) > remaining {
				lrw.buf.Write(b[:remaining])
				lrw.truncated = true
			} else {
				lrw.buf.Write(b)
			}
		} else {
			lrw.truncated = true
		}
	}
	return lrw.ResponseWriter.Write(b)
}

func (lrw *loggingResponseWriter) StatusCode() int {
	if lrw.status == 0 {
		return http.StatusOK
	}
	return lrw.status
}

func (lrw *loggingResponseWriter) LoggedBody() string {
	if !lrw.capture {
		return fmt.Sprintf("-- body omitted, %d bytes --", lrw.written)
	}
	body := lrw.buf.String()
	if lrw.truncated {
		return fmt.Sprintf("%s\n-- response truncated after %d bytes --", body, maxLoggedResponseBody)
	}
	return body
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
