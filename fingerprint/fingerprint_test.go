package fingerprint

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	root := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), DbName)

	store, err := Open(dbPath, root, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close returned error: %v", err)
		}
	})

	return store, root
}

func writeFile(t *testing.T, root, name, content string) string {
	t.Helper()

	file := filepath.Join(root, name)
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestOpen_Validation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), DbName)

	if _, err := Open(dbPath, "", log.New(io.Discard)); !errors.Is(err, ErrEmptyRoot) {
		t.Errorf("expected ErrEmptyRoot, got %v", err)
	}
	if _, err := Open(dbPath, t.TempDir(), nil); !errors.Is(err, ErrEmptyLogger) {
		t.Errorf("expected ErrEmptyLogger, got %v", err)
	}
}

func TestTag_StableAcrossCalls(t *testing.T) {
	store, root := newTestStore(t)
	writeFile(t, root, "app.js", "console.log('hi')")

	first, err := store.Tag("/app.js")
	if err != nil {
		t.Fatalf("Tag returned error: %v", err)
	}
	if first == "" {
		t.Fatal("expected a tag for an existing file")
	}
	if !strings.HasPrefix(first, `"`) || !strings.HasSuffix(first, `"`) {
		t.Errorf("tag %q is not a quoted validator", first)
	}

	second, err := store.Tag("/app.js")
	if err != nil {
		t.Fatalf("Tag returned error: %v", err)
	}
	if first != second {
		t.Errorf("tag changed between calls: %q then %q", first, second)
	}
}

func TestTag_ChangesWithContent(t *testing.T) {
	store, root := newTestStore(t)
	file := writeFile(t, root, "app.js", "one")

	first, err := store.Tag("/app.js")
	if err != nil {
		t.Fatalf("Tag returned error: %v", err)
	}

	writeFile(t, root, "app.js", "two")
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(file, later, later); err != nil {
		t.Fatal(err)
	}

	second, err := store.Tag("/app.js")
	if err != nil {
		t.Fatalf("Tag returned error: %v", err)
	}
	if first == second {
		t.Errorf("tag did not change with content: %q", first)
	}
}

func TestTag_MissingFile(t *testing.T) {
	store, _ := newTestStore(t)

	tag, err := store.Tag("/missing.png")
	if err != nil {
		t.Fatalf("Tag returned error: %v", err)
	}
	if tag != "" {
		t.Errorf("expected no tag for a missing file, got %q", tag)
	}
}

func TestTag_DirectoryUsesIndex(t *testing.T) {
	store, root := newTestStore(t)
	writeFile(t, root, "index.html", "<html></html>")

	rootTag, err := store.Tag("/")
	if err != nil {
		t.Fatalf("Tag returned error: %v", err)
	}
	indexTag, err := store.Tag("/index.html")
	if err != nil {
		t.Fatalf("Tag returned error: %v", err)
	}

	if rootTag == "" || rootTag != indexTag {
		t.Errorf("root tag %q should match index tag %q", rootTag, indexTag)
	}
}

func TestSweep_DropsRemovedFiles(t *testing.T) {
	store, root := newTestStore(t)
	file := writeFile(t, root, "style.css", "body{}")

	if _, err := store.Tag("/style.css"); err != nil {
		t.Fatalf("Tag returned error: %v", err)
	}
	if n, err := store.Count(); err != nil || n != 1 {
		t.Fatalf("Count = %d, %v; want 1 record", n, err)
	}

	if err := os.Remove(file); err != nil {
		t.Fatal(err)
	}

	cleaner := NewCleaner(store, time.NewTicker(time.Hour))
	defer cleaner.frequency.Stop()

	removed, err := cleaner.Sweep()
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if removed != 1 {
		t.Errorf("Sweep removed %d records, want 1", removed)
	}
	if n, err := store.Count(); err != nil || n != 0 {
		t.Errorf("Count after sweep = %d, %v; want 0", n, err)
	}
}

func TestSweep_KeepsFreshFiles(t *testing.T) {
	store, root := newTestStore(t)
	writeFile(t, root, "index.html", "<html></html>")

	if _, err := store.Tag("/index.html"); err != nil {
		t.Fatalf("Tag returned error: %v", err)
	}

	cleaner := NewCleaner(store, time.NewTicker(time.Hour))
	defer cleaner.frequency.Stop()

	removed, err := cleaner.Sweep()
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if removed != 0 {
		t.Errorf("Sweep removed %d records, want 0", removed)
	}
}
