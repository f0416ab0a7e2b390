// Package attachments tracks the files a user has staged for a form submission.
package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MaxFileBytes is the largest file accepted for staging (10 MiB).
const MaxFileBytes int64 = 10 * 1024 * 1024

// ErrOversizedFile is matched by every *SizeError.
var ErrOversizedFile = errors.New("file exceeds size limit")

// Blob is a named binary payload picked by the user.
type Blob interface {
	Name() string
	Size() int64
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Binding is the form-bound representation of one staged file.
type Binding interface {
	Detach()
}

// Binder creates bindings so staged files travel with the form.
type Binder interface {
	Bind(field string, blob Blob) (Binding, error)
}

// SizeError reports a file rejected by the size ceiling.
type SizeError struct {
	FileName string
	Size     int64
	Limit    int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("file %q is %s, limit is %s", e.FileName, FormatSize(e.Size), FormatSize(e.Limit))
}

// Is lets errors.Is match ErrOversizedFile.
func (e *SizeError) Is(target error) bool {
	return target == ErrOversizedFile
}

// Attachment is one staged file and the field name it is submitted under.
type Attachment struct {
	ID    string
	Field string
	Blob  Blob

	binding Binding
}

// Name returns the display name of the underlying blob.
func (a Attachment) Name() string {
	if a.Blob == nil {
		return ""
	}
	return a.Blob.Name()
}

// Size returns the byte size of the underlying blob.
func (a Attachment) Size() int64 {
	if a.Blob == nil {
		return 0
	}
	return a.Blob.Size()
}

// Option customises a Tracker.
type Option func(*Tracker)

// WithLimit overrides MaxFileBytes.
func WithLimit(limit int64) Option {
	return func(t *Tracker) {
		if limit > 0 {
			t.limit = limit
		}
	}
}

// WithIDGenerator swaps the attachment ID source.
func WithIDGenerator(gen func() string) Option {
	return func(t *Tracker) {
		if gen != nil {
			t.newID = gen
		}
	}
}

// WithOnChange registers the hook fired after every mutation with a snapshot of the set.
func WithOnChange(fn func([]Attachment)) Option {
	return func(t *Tracker) {
		t.onChange = fn
	}
}

// Tracker is the ordered set of staged attachments. Insertion order is display order.
type Tracker struct {
	binder   Binder
	limit    int64
	newID    func() string
	onChange func([]Attachment)

	mu      sync.Mutex
	items   []Attachment
	seen    map[string]struct{}
	counter int
}

// NewTracker builds an empty Tracker that binds files through binder.
func NewTracker(binder Binder, opts ...Option) (*Tracker, error) {
	if binder == nil {
		return nil, errors.New("attachments: binder is required")
	}
	t := &Tracker{
		binder: binder,
		limit:  MaxFileBytes,
		newID:  GenerateID,
		seen:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// GenerateID returns a random alphanumeric attachment identifier.
func GenerateID() string {
	return "file-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Limit reports the size ceiling applied by Add.
func (t *Tracker) Limit() int64 {
	return t.limit
}

// Add stages blob. Files above the limit are rejected with *SizeError and the set is unchanged.
func (t *Tracker) Add(blob Blob) (Attachment, error) {
	if blob == nil {
		return Attachment{}, errors.New("attachments: blob is nil")
	}
	if blob.Size() > t.limit {
		return Attachment{}, &SizeError{FileName: blob.Name(), Size: blob.Size(), Limit: t.limit}
	}

	t.mu.Lock()
	id := t.uniqueIDLocked()
	field := fmt.Sprintf("file-%d", t.counter)
	binding, err := t.binder.Bind(field, blob)
	if err != nil {
		t.mu.Unlock()
		return Attachment{}, fmt.Errorf("bind %q: %w", blob.Name(), err)
	}
	t.counter++
	t.seen[id] = struct{}{}
	att := Attachment{ID: id, Field: field, Blob: blob, binding: binding}
	t.items = append(t.items, att)
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	t.changed(snapshot)
	return att, nil
}

func (t *Tracker) uniqueIDLocked() string {
	for {
		id := t.newID()
		if _, dup := t.seen[id]; !dup && id != "" {
			return id
		}
	}
}

// Remove drops the attachment with id together with its binding.
// It reports false, without firing the change hook, when id is unknown.
func (t *Tracker) Remove(id string) bool {
	t.mu.Lock()
	idx := -1
	for i, item := range t.items {
		if item.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		t.mu.Unlock()
		return false
	}
	removed := t.items[idx]
	t.items = append(t.items[:idx], t.items[idx+1:]...)
	detach(removed)
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	t.changed(snapshot)
	return true
}

// Clear detaches every binding, empties the set and restarts field numbering.
func (t *Tracker) Clear() {
	t.mu.Lock()
	for _, item := range t.items {
		detach(item)
	}
	t.items = nil
	t.counter = 0
	t.mu.Unlock()

	t.changed(nil)
}

// List returns a copy of the staged attachments in insertion order.
func (t *Tracker) List() []Attachment {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Len reports the number of staged attachments.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

func (t *Tracker) snapshotLocked() []Attachment {
	out := make([]Attachment, len(t.items))
	copy(out, t.items)
	return out
}

func (t *Tracker) changed(snapshot []Attachment) {
	if t.onChange != nil {
		t.onChange(snapshot)
	}
}

func detach(a Attachment) {
	if a.binding != nil {
		a.binding.Detach()
	}
}
