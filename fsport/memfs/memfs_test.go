package memfs

import (
	"bytes"
	"testing"
)

func TestWriteReadTruncate(t *testing.T) {
	fs := New()
	if err := fs.MkdirAll("dir", 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	f, err := fs.OpenFile("dir/f")
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.WriteAt([]byte("hello world"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	size, err := f.Size()
	if err != nil || size != 11 {
		t.Fatalf("Size() = %d, %v, want 11, nil", size, err)
	}
	buf := make([]byte, 5)
	if _, err := f.ReadAt(buf, 6); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(buf, []byte("world")) {
		t.Fatalf("ReadAt = %q, want \"world\"", buf)
	}
	if err := f.Truncate(5); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	size, _ = f.Size()
	if size != 5 {
		t.Fatalf("Size() after Truncate = %d, want 5", size)
	}
}

func TestReadDirAndRemoveDir(t *testing.T) {
	fs := New()
	fs.MkdirAll("d", 0o755)
	f, _ := fs.OpenFile("d/1")
	f.Close()

	entries, err := fs.ReadDir("d")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "1" {
		t.Fatalf("ReadDir = %+v, want one entry named \"1\"", entries)
	}

	if err := fs.RemoveDir("d"); err == nil {
		t.Fatalf("RemoveDir on a non-empty directory should fail")
	}
	if err := fs.Remove("d/1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := fs.RemoveDir("d"); err != nil {
		t.Fatalf("RemoveDir on an empty directory: %v", err)
	}
}

func TestRenameDirectory(t *testing.T) {
	fs := New()
	fs.MkdirAll("old", 0o755)
	f, _ := fs.OpenFile("old/1")
	f.WriteAt([]byte("x"), 0)
	f.Close()

	if err := fs.Rename("old", "new"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	entries, err := fs.ReadDir("new")
	if err != nil || len(entries) != 1 || entries[0].Name != "1" {
		t.Fatalf("ReadDir(new) = %+v, %v, want one entry named \"1\"", entries, err)
	}
}
