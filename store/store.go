package store

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strconv"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/merklixdb/merklix"
	"github.com/merklixdb/merklix/fsport"
	"github.com/merklixdb/merklix/hashing"
)

// recoverySlabSize bounds how much of a file recovery reads into memory
// at once while scanning backward for a valid meta record.
const recoverySlabSize = 1 << 20 // ~1 MiB, kept a multiple of MetaSize below

// Config configures a Store. Layout is derived from Hasher.Size() and
// KeySize (B/8 in the design document).
type Config struct {
	FS      fsport.FileSystem
	Hasher  hashing.Hasher
	Prefix  string
	KeySize int

	// Standalone, when true, makes the store self-manage meta records
	// and historical root lookup via recovery and the meta chain. When
	// false, the caller tracks roots externally and the store only
	// appends nodes (§6.5).
	Standalone bool

	// Seed drives the open-file cache's eviction RNG. Fixed by default
	// so eviction order is reproducible in tests (§9).
	Seed int64
}

// Store is the append-only flat-file layer (§4.3): numbered files, a
// bounded open-file cache with random eviction, meta-record write and
// recovery, and historical-root lookup through the meta chain.
type Store struct {
	fs         fsport.FileSystem
	hasher     hashing.Hasher
	layout     Layout
	prefix     string
	standalone bool

	mu        sync.Mutex
	cache     map[uint16]*fileHandle
	openLocks sync.Map // uint16 -> *sync.Mutex
	rng       *rand.Rand

	current     uint16
	lastMeta    Meta
	lastMetaPtr Pointer
	rootCache   map[string]Pointer

	writeBuf *writeBuffer
	closed   bool
}

// Open scans cfg.Prefix for numbered data files, validates their
// contiguity (§9 OQ-2: a gap in indices is corruption), and in
// Standalone mode recovers the most recent valid meta record.
func Open(cfg Config) (*Store, error) {
	if err := cfg.FS.MkdirAll(cfg.Prefix, 0o755); err != nil {
		return nil, err
	}
	entries, err := cfg.FS.ReadDir(cfg.Prefix)
	if err != nil {
		return nil, err
	}

	var indices []uint16
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		n, err := strconv.Atoi(e.Name)
		if err != nil || n <= 0 || n > MaxFiles {
			continue
		}
		_, isFile, err := cfg.FS.Stat(filepath.Join(cfg.Prefix, e.Name))
		if err != nil || !isFile {
			continue
		}
		indices = append(indices, uint16(n))
	}
	slices.Sort(indices)
	for i := 1; i < len(indices); i++ {
		if indices[i] != indices[i-1]+1 {
			return nil, merklix.ErrNonMonotonicIndex
		}
	}

	s := &Store{
		fs:         cfg.FS,
		hasher:     cfg.Hasher,
		layout:     Layout{DigestSize: cfg.Hasher.Size(), KeySize: cfg.KeySize},
		prefix:     cfg.Prefix,
		standalone: cfg.Standalone,
		cache:      map[uint16]*fileHandle{},
		rootCache:  map[string]Pointer{},
		rng:        rand.New(rand.NewSource(cfg.Seed)),
	}

	if len(indices) == 0 {
		s.current = 1
	} else {
		s.current = indices[len(indices)-1]
	}

	if cfg.Standalone {
		if err := s.recover(); err != nil {
			return nil, err
		}
	} else {
		fh, err := s.getFile(s.current)
		if err != nil {
			return nil, err
		}
		s.writeBuf = newWriteBuffer(s.current, uint32(fh.Size()))
	}
	return s, nil
}

func (s *Store) pathFor(index uint16) string {
	return filepath.Join(s.prefix, strconv.Itoa(int(index)))
}

// Layout reports the record layout this store was opened with.
func (s *Store) Layout() Layout { return s.layout }

// Hasher returns the digest collaborator this store was opened with.
func (s *Store) Hasher() hashing.Hasher { return s.hasher }

// -- open-file cache --

func (s *Store) getFile(index uint16) (*fileHandle, error) {
	s.mu.Lock()
	if fh, ok := s.cache[index]; ok {
		s.mu.Unlock()
		return fh, nil
	}
	s.mu.Unlock()

	lockIface, _ := s.openLocks.LoadOrStore(index, &sync.Mutex{})
	lock := lockIface.(*sync.Mutex)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	if fh, ok := s.cache[index]; ok {
		s.mu.Unlock()
		return fh, nil
	}
	s.mu.Unlock()

	fh, err := openFileHandle(s.fs, s.pathFor(index), index)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cache) >= MaxOpenFiles {
		s.evictLocked()
	}
	s.cache[index] = fh
	return fh, nil
}

// evictLocked picks, via reservoir sampling, a uniformly random open file
// that is neither the current append target nor has any read in flight,
// and closes it. Per §9 OQ-3, the candidate is captured directly during
// the single pass rather than recorded by index and re-looked-up
// afterward, so it cannot have been concurrently evicted out from under
// the caller between the scan and the close.
func (s *Store) evictLocked() {
	var chosen *fileHandle
	eligible := 0
	for idx, fh := range s.cache {
		if idx == s.current || fh.outstandingReads() > 0 {
			continue
		}
		eligible++
		if s.rng.Intn(eligible) == 0 {
			chosen = fh
		}
	}
	if chosen == nil {
		return
	}
	chosen.Close()
	delete(s.cache, chosen.index)
}

// -- append path (single writer) --

// AppendNode appends an encoded node record and returns the (index, pos)
// it was written at.
func (s *Store) AppendNode(data []byte) (uint16, uint32, error) {
	index, pos := s.writeBuf.Position()
	s.writeBuf.Write(data)
	return index, pos, nil
}

// AppendValue appends value bytes and returns a ValuePointer to them.
func (s *Store) AppendValue(data []byte) (ValuePointer, error) {
	index, pos := s.writeBuf.Position()
	s.writeBuf.Write(data)
	return ValuePointer{Index: index, Pos: pos, Size: uint32(len(data))}, nil
}

// CommitMeta pads the write buffer to a MetaSize boundary, appends the
// meta record referencing root and the previous meta, flushes every
// touched file, and fsyncs each of them before returning, per §4.3's
// commit-write ordering and §5's durability guarantee.
func (s *Store) CommitMeta(root Pointer) (Meta, error) {
	index, pos := s.writeBuf.Position()
	if pad := (MetaSize - int(pos)%MetaSize) % MetaSize; pad > 0 {
		s.writeBuf.Write(make([]byte, pad))
		index, pos = s.writeBuf.Position()
	}

	s.mu.Lock()
	prevMeta := s.lastMetaPtr
	s.mu.Unlock()

	meta := Meta{PrevMeta: prevMeta, Root: root}
	metaIndex, metaPos := index, pos
	s.writeBuf.Write(EncodeMeta(s.hasher, meta))

	chunks := s.writeBuf.Flush()
	touched := make([]*fileHandle, 0, len(chunks))
	for _, c := range chunks {
		if c.Index > MaxFiles {
			return Meta{}, merklix.ErrTooManyFiles
		}
		fh, err := s.getFile(c.Index)
		if err != nil {
			return Meta{}, err
		}
		if _, err := fh.Append(c.Bytes); err != nil {
			return Meta{}, err
		}
		touched = append(touched, fh)
	}
	for _, fh := range touched {
		if err := fh.Sync(); err != nil {
			return Meta{}, err
		}
	}

	newIndex, _ := s.writeBuf.Position()

	s.mu.Lock()
	s.current = newIndex
	s.lastMeta = meta
	s.lastMetaPtr = Pointer{Index: metaIndex, Pos: metaPos}
	if !root.IsNil() {
		s.rootCache[string(root.Digest)] = root
	}
	s.mu.Unlock()

	return meta, nil
}

// -- reads --

// ReadNode reads the raw, fixed-size record bytes a pointer addresses.
// Decoding (Internal vs. Leaf) is the caller's responsibility, driven by
// ptr.Leaf. Index 0 addresses the NIL node, which callers must check for
// with Pointer.IsNil before ever reaching here; dereferencing it anyway is
// corruption, not a normal miss.
func (s *Store) ReadNode(ptr Pointer) ([]byte, error) {
	if ptr.Index == 0 {
		return nil, &merklix.CorruptionError{Err: merklix.ErrBadPointer, File: ptr.Index, Pos: ptr.Pos}
	}
	fh, err := s.getFile(ptr.Index)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, s.layout.NodeSize())
	if _, err := fh.ReadAt(buf, int64(ptr.Pos)); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadValue reads the bytes a ValuePointer addresses.
func (s *Store) ReadValue(vp ValuePointer) ([]byte, error) {
	fh, err := s.getFile(vp.Index)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, vp.Size)
	if _, err := fh.ReadAt(buf, int64(vp.Pos)); err != nil {
		return nil, err
	}
	return buf, nil
}

// CurrentRoot returns the root of the most recently committed state (the
// NIL pointer if nothing has been committed yet).
func (s *Store) CurrentRoot() Pointer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMeta.Root
}

// GetRoot resolves a historical root by digest (§4.3 getRoot). A zero- or
// nil-length hash returns the current state's root. Otherwise the root
// cache is consulted, falling back to walking the meta chain backward
// from the last meta record.
func (s *Store) GetRoot(hash []byte) (Pointer, error) {
	if len(hash) == 0 || isZero(hash) {
		return s.CurrentRoot(), nil
	}

	s.mu.Lock()
	if p, ok := s.rootCache[string(hash)]; ok {
		s.mu.Unlock()
		return p, nil
	}
	meta := s.lastMeta
	s.mu.Unlock()

	for {
		// A meta record decoded from disk does not carry its root's digest;
		// derive it from the root node's record.
		if meta.Root.Digest == nil && !meta.Root.IsNil() {
			raw, err := s.ReadNode(meta.Root)
			if err != nil {
				return Pointer{}, err
			}
			if meta.Root.Leaf {
				meta.Root.Digest = s.layout.DecodeLeaf(raw).Digest
			} else {
				in := s.layout.DecodeInternal(raw)
				meta.Root.Digest = s.hasher.Sum(in.Left.Digest, in.Right.Digest)
			}
		}
		if bytesEqual(meta.Root.Digest, hash) {
			s.mu.Lock()
			s.rootCache[string(hash)] = meta.Root
			s.mu.Unlock()
			return meta.Root, nil
		}
		if meta.PrevMeta.Index == 0 {
			return Pointer{}, &merklix.MissingNodeError{Root: true, Digest: hash}
		}
		raw, err := s.readMetaAt(meta.PrevMeta)
		if err != nil {
			return Pointer{}, err
		}
		next, err := DecodeMeta(s.hasher, raw)
		if err != nil {
			return Pointer{}, err
		}
		meta = next
	}
}

func (s *Store) readMetaAt(p Pointer) ([]byte, error) {
	fh, err := s.getFile(p.Index)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, MetaSize)
	if _, err := fh.ReadAt(buf, int64(p.Pos)); err != nil {
		return nil, err
	}
	return buf, nil
}

// -- recovery --

// recover scans backward from the highest-numbered file for the last
// valid, checksummed meta record, truncating away any torn commit tail
// and establishing the store's current state from it. A file with no
// valid meta record anywhere in it is unlinked and the scan continues
// with the preceding file. If no file yields a meta record, the store
// starts from an empty state (§4.3).
func (s *Store) recover() error {
	for idx := s.current; idx >= 1; idx-- {
		fh, err := s.getFile(idx)
		if err != nil {
			return err
		}
		size := fh.Size()
		pos := size - size%MetaSize

		for pos >= MetaSize {
			slabLen := recoverySlabSize
			if int64(slabLen) > pos {
				slabLen = int(pos)
			}
			slabLen -= slabLen % MetaSize
			start := pos - int64(slabLen)
			slab := make([]byte, pos-start)
			if _, err := fh.ReadAt(slab, start); err != nil {
				return err
			}
			for off := len(slab) - MetaSize; off >= 0; off -= MetaSize {
				cand := slab[off : off+MetaSize]
				meta, err := DecodeMeta(s.hasher, cand)
				if err != nil {
					continue
				}
				truncateAt := start + int64(off) + MetaSize
				if err := fh.Truncate(truncateAt); err != nil {
					return err
				}
				s.current = idx
				s.lastMeta = meta
				s.lastMetaPtr = Pointer{Index: idx, Pos: uint32(start) + uint32(off)}
				s.writeBuf = newWriteBuffer(idx, uint32(truncateAt))
				if !meta.Root.IsNil() {
					s.rootCache[string(meta.Root.Digest)] = meta.Root
				}
				return nil
			}
			pos = start
		}

		fh.Close()
		s.mu.Lock()
		delete(s.cache, idx)
		s.mu.Unlock()
		if err := s.fs.Remove(s.pathFor(idx)); err != nil {
			return err
		}
		if idx == 1 {
			break
		}
	}

	s.current = 1
	s.lastMeta = Meta{}
	s.writeBuf = newWriteBuffer(1, 0)
	return nil
}

// -- lifecycle --

// Close releases every cached open file handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return merklix.ErrClosed
	}
	s.closed = true
	var errs []error
	for _, fh := range s.cache {
		if err := fh.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.cache = nil
	return errors.Join(errs...)
}

// Destroy removes every file under the store's prefix directory and the
// directory itself. The store must already be closed. If the directory
// cannot be removed because it is not empty, it is renamed aside to a
// randomly suffixed sibling and the error is swallowed (best-effort
// removal, §4.3) — a fixed suffix would collide with an orphan left by an
// earlier destroy-and-recreate cycle at the same prefix, so suffixes whose
// sibling already exists are skipped.
func (s *Store) Destroy() error {
	if !s.closed {
		return merklix.ErrNotOpen
	}
	entries, err := s.fs.ReadDir(s.prefix)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir {
			if err := s.fs.Remove(filepath.Join(s.prefix, e.Name)); err != nil {
				return err
			}
		}
	}
	if err := s.fs.RemoveDir(s.prefix); err != nil {
		if fsport.IsNotEmpty(err) {
			for {
				orphan := fmt.Sprintf("%s.orphaned-%08x", s.prefix, s.rng.Uint32())
				if _, _, statErr := s.fs.Stat(orphan); statErr != nil {
					return s.fs.Rename(s.prefix, orphan)
				}
			}
		}
		return err
	}
	return nil
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

