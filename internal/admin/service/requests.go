package service

import (
	"context"
	"errors"
	"strings"

	"service-request-form/internal/logging"
	"service-request-form/internal/submissions"
)

// RequestStore is the part of submissions.Store the admin views need.
type RequestStore interface {
	List() ([]submissions.Submission, error)
	Get(id string) (submissions.Submission, error)
	Remove(id string) (submissions.Submission, error)
}

// FileRemover deletes the uploads stored for a request.
type FileRemover interface {
	RemoveAll(submissionID string) error
}

// RequestsOptions configures the RequestsService.
type RequestsOptions struct {
	Store  RequestStore
	Files  FileRemover
	Logger logging.Logger
}

// RequestsService lets an admin review and discard received requests.
type RequestsService struct {
	store  RequestStore
	files  FileRemover
	logger logging.Logger
}

// NewRequestsService constructs a RequestsService with the provided options.
func NewRequestsService(opts RequestsOptions) *RequestsService {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &RequestsService{
		store:  opts.Store,
		files:  opts.Files,
		logger: logger,
	}
}

// List returns every stored request, newest first.
func (s *RequestsService) List(ctx context.Context) ([]submissions.Submission, error) {
	if err := s.ensureStore(); err != nil {
		return nil, err
	}
	all, err := s.store.List()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all, nil
}

// Get returns one request.
func (s *RequestsService) Get(ctx context.Context, id string) (submissions.Submission, error) {
	if err := s.ensureStore(); err != nil {
		return submissions.Submission{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return submissions.Submission{}, ErrMissingIdentifier
	}
	return s.store.Get(id)
}

// Delete removes a request and its stored files.
func (s *RequestsService) Delete(ctx context.Context, id string) (submissions.Submission, error) {
	if err := s.ensureStore(); err != nil {
		return submissions.Submission{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return submissions.Submission{}, ErrMissingIdentifier
	}
	removed, err := s.store.Remove(id)
	if err != nil {
		return submissions.Submission{}, err
	}
	if s.files != nil {
		if err := s.files.RemoveAll(removed.ID); err != nil {
			s.logger.Printf("remove uploads for %s: %v", removed.ID, err)
		}
	}
	return removed, nil
}

// Attachment looks up one stored file of a request by its form field.
func (s *RequestsService) Attachment(ctx context.Context, id, field string) (submissions.Attachment, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return submissions.Attachment{}, err
	}
	for _, a := range sub.Attachments {
		if a.Field == field {
			return a, nil
		}
	}
	return submissions.Attachment{}, ErrAttachmentNotFound
}

func (s *RequestsService) ensureStore() error {
	if s == nil {
		return errors.New("requests service is nil")
	}
	if s.store == nil {
		return errors.New("requests store is not configured")
	}
	return nil
}

var (
	// ErrMissingIdentifier signals that the request ID was omitted.
	ErrMissingIdentifier = errors.New("request id is required")
	// ErrAttachmentNotFound is returned when a request has no file for a field.
	ErrAttachmentNotFound = errors.New("attachment not found")
)
