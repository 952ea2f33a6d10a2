// Package store implements the append-only flat-file layer: the node and
// meta record codecs, the write buffer, file handles, and the Store type
// that ties numbered files, an open-file cache, and crash recovery
// together. See the module's DESIGN.md, decision OQ-1, for why the
// leaf/internal tag is carried by the referencing pointer rather than by
// a self-describing byte in the pointed-to record.
package store

import "encoding/binary"

// MaxFileSize bounds a single store file so an append never needs to span
// two files mid-write; MAX_FILE_SIZE in the design document.
const MaxFileSize = 0x7ffff000

// MaxFiles is the largest legal file index (index 0 is reserved).
const MaxFiles = 0xFFFF

// MaxOpenFiles bounds the store's open-file cache.
const MaxOpenFiles = 32

// Pointer addresses a node (Internal, Leaf, or NIL) by the file it was
// written to and its byte offset within that file, plus the digest of the
// node it addresses and whether that node is a leaf. A pointer whose
// Index is zero addresses the NIL node and Pos/Leaf are meaningless.
type Pointer struct {
	Digest []byte
	Index  uint16
	Pos    uint32
	Leaf   bool
}

// IsNil reports whether p addresses the canonical empty subtree.
func (p Pointer) IsNil() bool { return p.Index == 0 }

// ValuePointer addresses a leaf's value bytes. Unlike Pointer it never
// needs a leaf/internal tag (it never addresses another node), so its
// position field is not shifted.
type ValuePointer struct {
	Index uint16
	Pos   uint32
	Size  uint32
}

// putPointer writes a node pointer's index/pos fields (not its digest,
// which callers place separately since it is shared with other fields at
// a fixed offset) into b, which must be at least 6 bytes.
func putPointer(b []byte, p Pointer) {
	binary.LittleEndian.PutUint16(b[0:2], p.Index)
	stored := p.Pos << 1
	if p.Leaf {
		stored |= 1
	}
	binary.LittleEndian.PutUint32(b[2:6], stored)
}

// getPointer reads a node pointer's index/pos/leaf fields from b, which
// must be at least 6 bytes. digest is supplied by the caller since it
// lives in a separate, adjacent slice of the record.
func getPointer(b []byte, digest []byte) Pointer {
	index := binary.LittleEndian.Uint16(b[0:2])
	stored := binary.LittleEndian.Uint32(b[2:6])
	return Pointer{
		Digest: digest,
		Index:  index,
		Pos:    stored >> 1,
		Leaf:   stored&1 == 1,
	}
}

func putValuePointer(b []byte, v ValuePointer) {
	binary.LittleEndian.PutUint16(b[0:2], v.Index)
	binary.LittleEndian.PutUint32(b[2:6], v.Pos)
	binary.LittleEndian.PutUint32(b[6:10], v.Size)
}

func getValuePointer(b []byte) ValuePointer {
	return ValuePointer{
		Index: binary.LittleEndian.Uint16(b[0:2]),
		Pos:   binary.LittleEndian.Uint32(b[2:6]),
		Size:  binary.LittleEndian.Uint32(b[6:10]),
	}
}
