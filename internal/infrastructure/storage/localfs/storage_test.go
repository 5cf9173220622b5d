package localfs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveCreatesDirectoryAndOpenReadsBack(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "model")
	s := New(dir)

	if err := s.Save(context.Background(), "vectorizer.json", strings.NewReader(`{"a":1}`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	rc, err := s.Open(context.Background(), "vectorizer.json")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestSaveReplacesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	for _, body := range []string{"first", "second"} {
		if err := s.Save(context.Background(), "model.json", strings.NewReader(body)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "model.json" {
		t.Fatalf("unexpected directory contents %v", entries)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "model.json"))
	if string(data) != "second" {
		t.Fatalf("content = %q", data)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestSaveFailureKeepsPreviousFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if err := s.Save(context.Background(), "model.json", strings.NewReader("good")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(context.Background(), "model.json", failingReader{}); err == nil {
		t.Fatalf("expected write error")
	}
	data, _ := os.ReadFile(filepath.Join(dir, "model.json"))
	if string(data) != "good" {
		t.Fatalf("previous artifact clobbered: %q", data)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %v", entries)
	}
}

func TestSaveFailsWhenDirectoryIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	s := New(filepath.Join(blocker, "model"))
	if err := s.Save(context.Background(), "model.json", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestOpenMissingAndInvalidKeys(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Open(context.Background(), "absent.json"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	for _, key := range []string{"", "../escape.json", "a/b.json"} {
		if _, err := s.Open(context.Background(), key); err == nil {
			t.Fatalf("key %q should be rejected", key)
		}
	}
}
