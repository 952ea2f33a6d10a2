package store

import (
	"sync"
	"sync/atomic"

	"github.com/merklixdb/merklix/fsport"
)

// fileHandle wraps one numbered store file, tracking outstanding reads so
// the open-file cache's eviction policy never closes a file a read is
// still in flight against (§5 "Shared resources"), the role
// backend/utils/buffered_file.go's BufferedFile plays for Carmen's single
// append cursor, generalized here to scattered positional reads.
type fileHandle struct {
	index uint16
	file  fsport.File

	mu    sync.Mutex
	size  int64
	reads int32
}

func openFileHandle(fs fsport.FileSystem, path string, index uint16) (*fileHandle, error) {
	f, err := fs.OpenFile(path)
	if err != nil {
		return nil, err
	}
	size, err := f.Size()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileHandle{index: index, file: f, size: size}, nil
}

// ReadAt performs a positional read, bracketed by the outstanding-read
// counter the eviction policy consults.
func (h *fileHandle) ReadAt(p []byte, off int64) (int, error) {
	atomic.AddInt32(&h.reads, 1)
	defer atomic.AddInt32(&h.reads, -1)
	return h.file.ReadAt(p, off)
}

// outstandingReads reports how many ReadAt calls are currently in flight.
func (h *fileHandle) outstandingReads() int32 {
	return atomic.LoadInt32(&h.reads)
}

// Append writes p at the current end of the file and returns the offset
// it was written at.
func (h *fileHandle) Append(p []byte) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	off := h.size
	n, err := h.file.WriteAt(p, off)
	if err != nil {
		return 0, err
	}
	h.size += int64(n)
	return off, nil
}

func (h *fileHandle) Size() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

func (h *fileHandle) Sync() error { return h.file.Sync() }

func (h *fileHandle) Truncate(n int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.file.Truncate(n); err != nil {
		return err
	}
	h.size = n
	return nil
}

func (h *fileHandle) Close() error { return h.file.Close() }
