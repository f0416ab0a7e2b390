package submissions_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"service-request-form/internal/submissions"
)

func TestStoreAppendPopulatesDefaults(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := submissions.NewStore(
		filepath.Join(dir, "subs.json"),
		submissions.WithNow(func() time.Time { return fixed }),
	)

	saved, err := store.Append(submissions.Submission{Service: "payroll", Fields: map[string]string{"name": "Ada"}})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if !strings.HasPrefix(saved.ID, "sub_") {
		t.Fatalf("expected generated ID, got %q", saved.ID)
	}
	if !saved.SubmittedAt.Equal(fixed) {
		t.Fatalf("expected SubmittedAt to use injected clock, got %s", saved.SubmittedAt)
	}

	list, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Service != "payroll" || list[0].Fields["name"] != "Ada" {
		t.Fatalf("unexpected list contents: %+v", list)
	}

	list[0].Service = "Mutated"
	list2, _ := store.List()
	if list2[0].Service != "payroll" {
		t.Fatalf("list mutated original slice")
	}
}

func TestStoreAppendRespectsProvidedFields(t *testing.T) {
	store := submissions.NewStore(filepath.Join(t.TempDir(), "subs.json"))
	now := time.Now().Add(-time.Hour).UTC()
	saved, err := store.Append(submissions.Submission{ID: "sub_1", Service: "audit", SubmittedAt: now})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if saved.ID != "sub_1" {
		t.Fatalf("expected ID preserved, got %s", saved.ID)
	}
	if !saved.SubmittedAt.Equal(now) {
		t.Fatalf("expected SubmittedAt preserved, got %s", saved.SubmittedAt)
	}
}

func TestStoreGetAndRemove(t *testing.T) {
	store := submissions.NewStore(filepath.Join(t.TempDir(), "subs.json"))
	first, _ := store.Append(submissions.Submission{Service: "one"})
	second, _ := store.Append(submissions.Submission{Service: "two"})

	t.Run("get existing entry", func(t *testing.T) {
		got, err := store.Get(second.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Service != "two" {
			t.Fatalf("unexpected submission %+v", got)
		}
	})

	t.Run("removes existing entry", func(t *testing.T) {
		removed, err := store.Remove(first.ID)
		if err != nil {
			t.Fatalf("remove: %v", err)
		}
		if removed.ID != first.ID {
			t.Fatalf("expected removed %s, got %s", first.ID, removed.ID)
		}
		list, _ := store.List()
		if len(list) != 1 || list[0].ID != second.ID {
			t.Fatalf("expected only second entry to remain, got %+v", list)
		}
	})

	t.Run("missing entry returns ErrNotFound", func(t *testing.T) {
		if _, err := store.Remove("does-not-exist"); err != submissions.ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := store.Get("does-not-exist"); err != submissions.ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestNewStoreDefaultsPath(t *testing.T) {
	store := submissions.NewStore("  ")
	if store.Path() != submissions.DefaultFilePath {
		t.Fatalf("expected default path, got %s", store.Path())
	}
}

func TestStoreCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "subs.json")
	store := submissions.NewStore(path)
	if _, err := store.Append(submissions.Submission{Service: "x"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
}

func TestStoreUsesInjectedIDGenerator(t *testing.T) {
	store := submissions.NewStore(
		filepath.Join(t.TempDir(), "subs.json"),
		submissions.WithIDGenerator(func() string { return "fixed-id" }),
	)
	if got := store.Reserve(); got != "fixed-id" {
		t.Fatalf("expected reserve to use generator, got %s", got)
	}
	saved, err := store.Append(submissions.Submission{Service: "x"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if saved.ID != "fixed-id" {
		t.Fatalf("expected injected ID generator to run, got %s", saved.ID)
	}
}

func TestStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := submissions.NewStore(path).List(); err == nil {
		t.Fatalf("expected decode error")
	}
}
