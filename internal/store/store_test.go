package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type testDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteLoadRoundtrip(t *testing.T) {
	s := New(t.TempDir(), "default")

	want := testDoc{Name: "tracker", Count: 3}
	if err := s.Write(DocTracker, want); err != nil {
		t.Fatalf("write: %v", err)
	}

	var got testDoc
	if err := s.Load(DocTracker, &got); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := New(t.TempDir(), "default")

	var got testDoc
	err := s.Load(DocTracker, &got)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
	if got != (testDoc{}) {
		t.Errorf("value touched on missing file: %+v", got)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, "default")

	if err := os.MkdirAll(filepath.Join(dir, "default"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Path(DocTracker), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	var got testDoc
	if err := s.Load(DocTracker, &got); err == nil {
		t.Error("expected error for malformed document")
	}
}

func TestWriteReplacesAtomically(t *testing.T) {
	s := New(t.TempDir(), "default")

	if err := s.Write(DocTracker, testDoc{Name: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(DocTracker, testDoc{Name: "new"}); err != nil {
		t.Fatal(err)
	}

	var got testDoc
	if err := s.Load(DocTracker, &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "new" {
		t.Errorf("name = %q, want new", got.Name)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(s.Path(DocTracker)))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("leftover files: %v", entries)
	}
}
