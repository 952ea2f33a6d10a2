// Package memfs is an in-memory fsport.FileSystem used by tests, the
// counterpart to the real OS-backed one that scenario tests (crash
// recovery, directory scans) can drive without touching disk.
package memfs

import (
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/merklixdb/merklix/fsport"
)

// FS is an in-memory filesystem rooted at an implicit "/".
type FS struct {
	mu    sync.Mutex
	dirs  map[string]bool
	files map[string]*buffer
}

// New returns an empty in-memory filesystem.
func New() *FS {
	return &FS{
		dirs:  map[string]bool{"": true},
		files: map[string]*buffer{},
	}
}

type buffer struct {
	mu   sync.Mutex
	data []byte
}

func clean(p string) string { return filepath.Clean(strings.TrimPrefix(p, "/")) }

func (fsys *FS) MkdirAll(dir string, perm fs.FileMode) error {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	d := clean(dir)
	for d != "." && d != "" {
		fsys.dirs[d] = true
		d = filepath.Dir(d)
	}
	fsys.dirs[""] = true
	return nil
}

func (fsys *FS) ReadDir(dir string) ([]fsport.DirEntry, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	d := clean(dir)
	if !fsys.dirs[d] {
		return nil, &fs.PathError{Op: "readdir", Path: dir, Err: fs.ErrNotExist}
	}
	seen := map[string]bool{}
	var out []fsport.DirEntry
	for name := range fsys.files {
		if filepath.Dir(name) == d {
			base := filepath.Base(name)
			if !seen[base] {
				seen[base] = true
				out = append(out, fsport.DirEntry{Name: base, IsDir: false})
			}
		}
	}
	for name := range fsys.dirs {
		if name != d && filepath.Dir(name) == d {
			base := filepath.Base(name)
			if !seen[base] {
				seen[base] = true
				out = append(out, fsport.DirEntry{Name: base, IsDir: true})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (fsys *FS) Stat(path string) (int64, bool, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	p := clean(path)
	if b, ok := fsys.files[p]; ok {
		b.mu.Lock()
		n := len(b.data)
		b.mu.Unlock()
		return int64(n), true, nil
	}
	if fsys.dirs[p] {
		return 0, false, nil
	}
	return 0, false, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
}

func (fsys *FS) Rename(oldpath, newpath string) error {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	o, n := clean(oldpath), clean(newpath)
	if fsys.dirs[o] {
		delete(fsys.dirs, o)
		fsys.dirs[n] = true
		prefix := o + "/"
		for name := range fsys.files {
			if strings.HasPrefix(name, prefix) {
				fsys.files[n+"/"+strings.TrimPrefix(name, prefix)] = fsys.files[name]
				delete(fsys.files, name)
			}
		}
		return nil
	}
	b, ok := fsys.files[o]
	if !ok {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}
	fsys.files[n] = b
	delete(fsys.files, o)
	return nil
}

func (fsys *FS) Remove(path string) error {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	p := clean(path)
	if _, ok := fsys.files[p]; !ok {
		return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrNotExist}
	}
	delete(fsys.files, p)
	return nil
}

func (fsys *FS) RemoveDir(path string) error {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	p := clean(path)
	prefix := p + "/"
	for name := range fsys.files {
		if strings.HasPrefix(name, prefix) {
			return &fs.PathError{Op: "rmdir", Path: path, Err: fs.ErrExist}
		}
	}
	delete(fsys.dirs, p)
	return nil
}

func (fsys *FS) OpenFile(path string) (fsport.File, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	p := clean(path)
	d := filepath.Dir(p)
	if d != "." {
		fsys.dirs[d] = true
	}
	b, ok := fsys.files[p]
	if !ok {
		b = &buffer{}
		fsys.files[p] = b
	}
	return &memFile{buf: b}, nil
}

type memFile struct{ buf *buffer }

func (f *memFile) ReadAt(p []byte, off int64) (int, error) {
	f.buf.mu.Lock()
	defer f.buf.mu.Unlock()
	if off >= int64(len(f.buf.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.buf.data[off:])
	var err error
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}

func (f *memFile) WriteAt(p []byte, off int64) (int, error) {
	f.buf.mu.Lock()
	defer f.buf.mu.Unlock()
	end := off + int64(len(p))
	if end > int64(len(f.buf.data)) {
		grown := make([]byte, end)
		copy(grown, f.buf.data)
		f.buf.data = grown
	}
	copy(f.buf.data[off:end], p)
	return len(p), nil
}

func (f *memFile) Size() (int64, error) {
	f.buf.mu.Lock()
	defer f.buf.mu.Unlock()
	return int64(len(f.buf.data)), nil
}

func (f *memFile) Truncate(n int64) error {
	f.buf.mu.Lock()
	defer f.buf.mu.Unlock()
	if n <= int64(len(f.buf.data)) {
		f.buf.data = f.buf.data[:n]
	} else {
		grown := make([]byte, n)
		copy(grown, f.buf.data)
		f.buf.data = grown
	}
	return nil
}

func (f *memFile) Sync() error  { return nil }
func (f *memFile) Close() error { return nil }
