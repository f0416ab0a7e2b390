package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"service-request-form/internal/attachments"
	"service-request-form/internal/logging"
	"service-request-form/internal/metrics"
	"service-request-form/internal/submissions"
	"service-request-form/internal/uploads"
)

const (
	serviceField       = "service"
	maxFieldValueBytes = 64 * 1024
)

// RequestStore persists accepted service requests.
type RequestStore interface {
	Reserve() string
	Append(submissions.Submission) (submissions.Submission, error)
}

// FileSink stores attachments of a request.
type FileSink interface {
	Save(submissionID, field, name string, r io.Reader, limit int64) (uploads.Saved, error)
	RemoveAll(submissionID string) error
}

// RequestsOptions configures the service request endpoint.
type RequestsOptions struct {
	Store  RequestStore
	Files  FileSink
	Logger logging.Logger
	// Services lists the accepted service values; empty accepts any non-blank value.
	Services        []string
	MaxFileBytes    int64
	MaxRequestBytes int64
	Observer        metrics.Observer
}

type requestsHandler struct {
	store           RequestStore
	files           FileSink
	logger          logging.Logger
	services        map[string]struct{}
	maxFileBytes    int64
	maxRequestBytes int64
	observer        metrics.Observer
}

// errBadRequest marks failures caused by the submitted payload.
type errBadRequest struct{ msg string }

func (e errBadRequest) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return errBadRequest{msg: fmt.Sprintf(format, args...)}
}

// NewRequestsHandler accepts multipart service requests posted by the form.
func NewRequestsHandler(opts RequestsOptions) http.Handler {
	h := requestsHandler{
		store:           opts.Store,
		files:           opts.Files,
		logger:          opts.Logger,
		maxFileBytes:    opts.MaxFileBytes,
		maxRequestBytes: opts.MaxRequestBytes,
		observer:        opts.Observer,
	}
	if h.logger == nil {
		h.logger = logging.Discard()
	}
	if h.observer == nil {
		h.observer = metrics.Nop()
	}
	if h.maxFileBytes <= 0 {
		h.maxFileBytes = attachments.MaxFileBytes
	}
	if len(opts.Services) > 0 {
		h.services = make(map[string]struct{}, len(opts.Services))
		for _, s := range opts.Services {
			h.services[s] = struct{}{}
		}
	}
	return h
}

func (h requestsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.store == nil || h.files == nil {
		respondError(w, http.StatusServiceUnavailable, "request storage is not configured")
		return
	}
	if h.maxRequestBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBytes)
	}

	saved, err := h.receive(r)
	if err != nil {
		var bad errBadRequest
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			h.observer.RecordRequest(time.Since(started), metrics.OutcomeTooLarge)
			respondError(w, http.StatusRequestEntityTooLarge, "request is too large")
		case errors.As(err, &bad):
			h.observer.RecordRequest(time.Since(started), metrics.OutcomeRejected)
			respondError(w, http.StatusBadRequest, bad.msg)
		default:
			h.observer.RecordRequest(time.Since(started), metrics.OutcomeFailed)
			h.logger.Printf("store service request: %v", err)
			respondError(w, http.StatusInternalServerError, "failed to store request")
		}
		return
	}

	for _, a := range saved.Attachments {
		h.observer.RecordUpload(a.Size)
	}
	h.observer.RecordRequest(time.Since(started), metrics.OutcomeAccepted)
	h.logger.Printf("accepted request %s for %q with %d attachment(s)", saved.ID, saved.Service, len(saved.Attachments))
	respondJSON(w, map[string]string{"id": saved.ID})
}

// receive streams the multipart body. Uploaded files are removed again when
// the request is not stored.
func (h requestsHandler) receive(r *http.Request) (sub submissions.Submission, err error) {
	mediaType, _, perr := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if perr != nil || mediaType != "multipart/form-data" {
		return sub, badRequest("expected multipart/form-data")
	}
	reader, err := r.MultipartReader()
	if err != nil {
		return sub, badRequest("malformed multipart body")
	}

	id := h.store.Reserve()
	stored := false
	defer func() {
		if !stored {
			if rmErr := h.files.RemoveAll(id); rmErr != nil {
				h.logger.Printf("discard uploads for %s: %v", id, rmErr)
			}
		}
	}()

	sub = submissions.Submission{ID: id, Fields: map[string]string{}, RemoteAddr: r.RemoteAddr}
	haveService := false
	fileFields := map[string]struct{}{}
	for {
		part, nerr := reader.NextPart()
		if errors.Is(nerr, io.EOF) {
			break
		}
		if nerr != nil {
			return sub, classifyReadError(nerr)
		}

		name := part.FormName()
		if name == "" {
			part.Close()
			continue
		}

		if part.FileName() == "" {
			value, verr := readField(part)
			part.Close()
			if verr != nil {
				return sub, verr
			}
			if name == serviceField {
				if !haveService && strings.TrimSpace(value) != "" {
					sub.Service = strings.TrimSpace(value)
					haveService = true
				}
				continue
			}
			if _, dup := sub.Fields[name]; !dup {
				sub.Fields[name] = value
			}
			continue
		}

		if _, dup := fileFields[name]; dup {
			part.Close()
			return sub, badRequest("duplicate file field %q", name)
		}
		fileFields[name] = struct{}{}

		saved, serr := h.files.Save(id, name, part.FileName(), part, h.maxFileBytes)
		part.Close()
		if serr != nil {
			if errors.Is(serr, uploads.ErrTooLarge) {
				return sub, badRequest("file %q exceeds %s", part.FileName(), attachments.FormatSize(h.maxFileBytes))
			}
			return sub, classifyReadError(serr)
		}
		sub.Attachments = append(sub.Attachments, submissions.Attachment{
			Field: name,
			Name:  saved.Name,
			Size:  saved.Size,
			Path:  saved.Path,
		})
	}

	if !haveService {
		return sub, badRequest("service is required")
	}
	if h.services != nil {
		if _, ok := h.services[sub.Service]; !ok {
			return sub, badRequest("unknown service %q", sub.Service)
		}
	}

	persisted, err := h.store.Append(sub)
	if err != nil {
		return sub, err
	}
	stored = true
	return persisted, nil
}

func readField(part io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, maxFieldValueBytes+1))
	if err != nil {
		return "", classifyReadError(err)
	}
	if len(data) > maxFieldValueBytes {
		return "", badRequest("field value is too long")
	}
	return string(data), nil
}

// classifyReadError keeps body size violations distinct from malformed input.
func classifyReadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || strings.Contains(err.Error(), "multipart") {
		return badRequest("malformed multipart body")
	}
	return err
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
