package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/millwork/internal/checksum"
)

func tempFS(t *testing.T) *FS {
	t.Helper()
	s, err := NewFS(filepath.Join(t.TempDir(), "specs"))
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return s
}

func tempSQLite(t *testing.T) *SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "millwork-storage-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })
	s, err := OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// providers runs fn against every backend.
func providers(t *testing.T, fn func(t *testing.T, p Provider)) {
	t.Run("fs", func(t *testing.T) { fn(t, tempFS(t)) })
	t.Run("sqlite", func(t *testing.T) { fn(t, tempSQLite(t)) })
}

func TestWriteAndRead(t *testing.T) {
	providers(t, func(t *testing.T, p Provider) {
		content := []byte(`[{"id":"room_1","type":"room"}]`)
		if err := p.Write("kitchen-remodel", content); err != nil {
			t.Fatalf("Write: %v", err)
		}
		got, err := p.Read("kitchen-remodel")
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if string(got) != string(content) {
			t.Errorf("content mismatch: got %q", got)
		}
	})
}

func TestOverwrite(t *testing.T) {
	providers(t, func(t *testing.T, p Provider) {
		_ = p.Write("p1", []byte("[]"))
		if err := p.Write("p1", []byte(`[{"id":"x"}]`)); err != nil {
			t.Fatal(err)
		}
		got, _ := p.Read("p1")
		if string(got) != `[{"id":"x"}]` {
			t.Errorf("got %q", got)
		}
	})
}

func TestReadMissing(t *testing.T) {
	providers(t, func(t *testing.T, p Provider) {
		_, err := p.Read("nope")
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("err = %v, want ErrNotExist", err)
		}
	})
}

func TestDelete(t *testing.T) {
	providers(t, func(t *testing.T, p Provider) {
		_ = p.Write("del", []byte("[]"))
		if err := p.Delete("del"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := p.Read("del"); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("read after delete: %v", err)
		}
		if err := p.Delete("del"); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("second delete: %v", err)
		}
	})
}

func TestList(t *testing.T) {
	providers(t, func(t *testing.T, p Provider) {
		_ = p.Write("b", []byte("[]"))
		_ = p.Write("a", []byte(`[{"id":"r"}]`))
		metas, err := p.List()
		if err != nil {
			t.Fatal(err)
		}
		if len(metas) != 2 || metas[0].ID != "a" || metas[1].ID != "b" {
			t.Fatalf("metas = %+v", metas)
		}
		if metas[1].Checksum != checksum.Sum([]byte("[]")) {
			t.Errorf("checksum = %s", metas[1].Checksum)
		}
		if metas[0].UpdatedAt.IsZero() {
			t.Error("updated_at not set")
		}
	})
}

func TestRejectsBadIDs(t *testing.T) {
	providers(t, func(t *testing.T, p Provider) {
		for _, id := range []string{"", "../escape", "a/b", ".hidden", "sp ace"} {
			if err := p.Write(id, []byte("[]")); err == nil {
				t.Errorf("Write(%q) succeeded", id)
			}
		}
	})
}

func TestFS_NoTempFilesLeft(t *testing.T) {
	s := tempFS(t)
	_ = s.Write("p", []byte("[]"))
	entries, _ := os.ReadDir(s.root)
	if len(entries) != 1 || entries[0].Name() != "p.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("dir = %v", names)
	}
}

func TestFS_ListSkipsForeignFiles(t *testing.T) {
	s := tempFS(t)
	_ = s.Write("p", []byte("[]"))
	_ = os.WriteFile(filepath.Join(s.root, "notes.txt"), []byte("x"), 0o644)
	_ = os.Mkdir(filepath.Join(s.root, "sub.json"), 0o755)
	metas, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 {
		t.Errorf("metas = %+v", metas)
	}
}
