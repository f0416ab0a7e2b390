package uploads_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"service-request-form/internal/uploads"
)

func TestSaveWritesBelowSubmissionDir(t *testing.T) {
	root := t.TempDir()
	dir := uploads.NewDir(root)

	saved, err := dir.Save("sub_1", "file-1", "report.pdf", strings.NewReader("hello"), 10)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	want := filepath.Join(root, "sub_1", "file-1-report.pdf")
	if saved.Path != want {
		t.Fatalf("expected path %s, got %s", want, saved.Path)
	}
	if saved.Size != 5 || saved.Name != "report.pdf" {
		t.Fatalf("unexpected saved info: %+v", saved)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected contents %q", data)
	}
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	root := t.TempDir()
	dir := uploads.NewDir(root)

	_, err := dir.Save("sub_1", "file-1", "big.bin", strings.NewReader("0123456789"), 4)
	if !errors.Is(err, uploads.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(root, "sub_1", "file-1-big.bin")); !os.IsNotExist(statErr) {
		t.Fatalf("expected partial file to be removed, stat err %v", statErr)
	}
}

func TestSaveAcceptsFileAtLimit(t *testing.T) {
	dir := uploads.NewDir(t.TempDir())
	if _, err := dir.Save("sub_1", "file-1", "exact.bin", strings.NewReader("1234"), 4); err != nil {
		t.Fatalf("expected file at the limit to be accepted, got %v", err)
	}
}

func TestSaveRequiresSubmissionID(t *testing.T) {
	dir := uploads.NewDir(t.TempDir())
	if _, err := dir.Save("  ", "file-1", "a.txt", strings.NewReader("x"), 0); err == nil {
		t.Fatalf("expected error for missing submission id")
	}
}

func TestRemoveAllDeletesSubmissionFiles(t *testing.T) {
	root := t.TempDir()
	dir := uploads.NewDir(root)
	if _, err := dir.Save("sub_2", "file-1", "a.txt", strings.NewReader("x"), 0); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := dir.RemoveAll("sub_2"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "sub_2")); !os.IsNotExist(err) {
		t.Fatalf("expected directory removed, got %v", err)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"report.pdf":          "report.pdf",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\tax.xls`: "tax.xls",
		"my file (1).txt":     "my_file__1_.txt",
		".hidden":             "hidden",
		"..":                  "",
		"":                    "",
		"račun.pdf":           "račun.pdf",
	}
	for in, want := range tests {
		if got := uploads.SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewDirDefaultsRoot(t *testing.T) {
	if got := uploads.NewDir("").Root(); got != uploads.DefaultDir {
		t.Fatalf("expected default root, got %s", got)
	}
}

func TestSaveNeverOverwritesExistingFile(t *testing.T) {
	root := t.TempDir()
	dir := uploads.NewDir(root)

	first, err := dir.Save("sub_1", "file-0", "a.txt", strings.NewReader("FIRST"), 0)
	if err != nil {
		t.Fatalf("save first: %v", err)
	}
	second, err := dir.Save("sub_1", "file-0", "a.txt", strings.NewReader("SECOND!"), 0)
	if err != nil {
		t.Fatalf("save second: %v", err)
	}

	if first.Path == second.Path {
		t.Fatalf("expected distinct paths, both were %s", first.Path)
	}
	if want := filepath.Join(root, "sub_1", "file-0-a-1.txt"); second.Path != want {
		t.Fatalf("expected suffixed path %s, got %s", want, second.Path)
	}
	for _, tc := range []struct {
		saved uploads.Saved
		want  string
	}{{first, "FIRST"}, {second, "SECOND!"}} {
		data, err := os.ReadFile(tc.saved.Path)
		if err != nil {
			t.Fatalf("read %s: %v", tc.saved.Path, err)
		}
		if string(data) != tc.want || tc.saved.Size != int64(len(tc.want)) {
			t.Fatalf("%s holds %q (size %d), want %q", tc.saved.Path, data, tc.saved.Size, tc.want)
		}
	}
}
