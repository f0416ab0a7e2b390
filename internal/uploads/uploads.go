// Package uploads stores files received with a service request on disk.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// DefaultDir is where uploaded files live when no directory is configured.
const DefaultDir = "data/uploads"

// ErrTooLarge is returned when an upload exceeds the per-file limit.
var ErrTooLarge = errors.New("uploads: file exceeds size limit")

// Saved describes a file written by Save.
type Saved struct {
	Name string
	Size int64
	Path string
}

// Dir writes uploads below a root directory, one sub-directory per submission.
type Dir struct {
	root string
}

// NewDir returns a Dir rooted at root, or DefaultDir when empty.
func NewDir(root string) *Dir {
	if strings.TrimSpace(root) == "" {
		root = DefaultDir
	}
	return &Dir{root: root}
}

// Root reports the base directory.
func (d *Dir) Root() string {
	return d.root
}

// Save copies r into <root>/<submissionID>/<field>-<name>, adding a numeric
// suffix when that name is taken. A limit <= 0 disables the size check.
// The partial file is removed when the copy fails or the limit is exceeded.
func (d *Dir) Save(submissionID, field, name string, r io.Reader, limit int64) (Saved, error) {
	id := SanitizeName(submissionID)
	if id == "" {
		return Saved{}, fmt.Errorf("uploads: submission id is required")
	}
	dir := filepath.Join(d.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Saved{}, fmt.Errorf("uploads: create dir: %w", err)
	}

	clean := SanitizeName(name)
	if clean == "" {
		clean = "upload"
	}
	if f := SanitizeName(field); f != "" {
		clean = f + "-" + clean
	}

	out, path, err := createUnique(dir, clean)
	if err != nil {
		return Saved{}, fmt.Errorf("uploads: open %s: %w", clean, err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, copyErr := io.Copy(out, src)
	closeErr := out.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return Saved{}, fmt.Errorf("uploads: write %s: %w", clean, copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return Saved{}, fmt.Errorf("uploads: close %s: %w", clean, closeErr)
	case limit > 0 && n > limit:
		_ = os.Remove(path)
		return Saved{}, fmt.Errorf("%w: %s", ErrTooLarge, name)
	}

	return Saved{Name: name, Size: n, Path: path}, nil
}

const maxNameAttempts = 100

// createUnique opens dir/name exclusively, falling back to name-1.ext,
// name-2.ext and so on, so an earlier file is never overwritten.
func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 1; ; i++ {
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) || i >= maxNameAttempts {
			return nil, "", err
		}
		candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
}

// RemoveAll deletes every file stored for submissionID.
func (d *Dir) RemoveAll(submissionID string) error {
	id := SanitizeName(submissionID)
	if id == "" {
		return nil
	}
	return os.RemoveAll(filepath.Join(d.root, id))
}

// SanitizeName keeps the base name of a client supplied filename and replaces
// anything outside letters, digits, dot, dash and underscore.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), ".")
}
