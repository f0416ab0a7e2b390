// Package submissions persists received service requests in a JSON file.
package submissions

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultFilePath is where received requests are stored.
	DefaultFilePath = "data/submissions.json"
)

// ErrNotFound is returned when a submission ID cannot be located.
var ErrNotFound = errors.New("submission not found")

// File represents the on-disk submissions format.
type File struct {
	Submissions []Submission `json:"submissions"`
}

// Attachment describes one uploaded file kept alongside a submission.
type Attachment struct {
	Field string `json:"field"`
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	Path  string `json:"path"`
}

// Submission captures one received service request.
type Submission struct {
	ID          string            `json:"id"`
	Service     string            `json:"service"`
	Fields      map[string]string `json:"fields,omitempty"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	SubmittedAt time.Time         `json:"submittedAt"`
	RemoteAddr  string            `json:"remoteAddr,omitempty"`
}

// Option customises a Store.
type Option func(*Store)

// WithNow overrides the clock used for SubmittedAt.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the ID source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// Store guards a single submissions file.
type Store struct {
	path  string
	now   func() time.Time
	newID func() string

	mu sync.Mutex
}

// NewStore returns a Store backed by path, or DefaultFilePath when empty.
func NewStore(path string, opts ...Option) *Store {
	if strings.TrimSpace(path) == "" {
		path = DefaultFilePath
	}
	s := &Store{
		path:  path,
		now:   func() time.Time { return time.Now().UTC() },
		newID: NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID returns a random submission identifier.
func NewID() string {
	return "sub_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Path reports the backing file.
func (s *Store) Path() string {
	return s.path
}

// Reserve returns a fresh ID so uploads can be stored before the record is appended.
func (s *Store) Reserve() string {
	return s.newID()
}

// List returns every stored submission, oldest first.
func (s *Store) List() ([]Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make([]Submission, len(file.Submissions))
	copy(out, file.Submissions)
	return out, nil
}

// Get returns the submission with id.
func (s *Store) Get(id string) (Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read()
	if err != nil {
		return Submission{}, err
	}
	for _, sub := range file.Submissions {
		if sub.ID == id {
			return sub, nil
		}
	}
	return Submission{}, ErrNotFound
}

// Append stores submission, filling ID and SubmittedAt when unset.
func (s *Store) Append(submission Submission) (Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read()
	if err != nil {
		return Submission{}, err
	}
	saved := submission
	if saved.ID == "" {
		saved.ID = s.newID()
	}
	if saved.SubmittedAt.IsZero() {
		saved.SubmittedAt = s.now()
	}
	file.Submissions = append(file.Submissions, saved)
	if err := s.write(file); err != nil {
		return Submission{}, err
	}
	return saved, nil
}

// Remove deletes the submission with id and returns it.
func (s *Store) Remove(id string) (Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read()
	if err != nil {
		return Submission{}, err
	}
	idx := -1
	for i, sub := range file.Submissions {
		if sub.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return Submission{}, ErrNotFound
	}

	removed := file.Submissions[idx]
	file.Submissions = append(file.Submissions[:idx], file.Submissions[idx+1:]...)
	if err := s.write(file); err != nil {
		return Submission{}, err
	}
	return removed, nil
}

func (s *Store) read() (File, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return File{Submissions: []Submission{}}, nil
		}
		return File{}, err
	}
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("decode submissions file: %w", err)
	}
	if file.Submissions == nil {
		file.Submissions = []Submission{}
	}
	return file, nil
}

func (s *Store) write(file File) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create submissions dir: %w", err)
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode submissions file: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write submissions file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace submissions file: %w", err)
	}
	return nil
}
