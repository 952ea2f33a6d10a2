package store

import (
	"encoding/binary"

	"github.com/merklixdb/merklix"
	"github.com/merklixdb/merklix/hashing"
)

// MetaSize is the fixed, on-disk size of a meta record: magic(4) ‖
// meta_index(2) ‖ meta_pos(4) ‖ root_index(2) ‖ root_pos(4) ‖ checksum(20).
const MetaSize = 36

// magic identifies the start of a meta record during a recovery scan.
const magic = 0x6d6b6c78

// Meta is a decoded meta record: the pointer to the previous meta record
// (forming the backwards-linked meta chain) and the pointer to this
// commit's root node.
type Meta struct {
	PrevMeta Pointer // Leaf is always false; meta records are never leaves.
	Root     Pointer
}

// EncodeMeta serializes m into a MetaSize-byte buffer, computing the
// trailing truncated checksum over the first 16 bytes with h.
func EncodeMeta(h hashing.Hasher, m Meta) []byte {
	buf := make([]byte, MetaSize)
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	binary.LittleEndian.PutUint16(buf[4:6], m.PrevMeta.Index)
	storedMetaPos := m.PrevMeta.Pos << 1
	binary.LittleEndian.PutUint32(buf[6:10], storedMetaPos)
	binary.LittleEndian.PutUint16(buf[10:12], m.Root.Index)
	storedRootPos := m.Root.Pos << 1
	if m.Root.Leaf {
		storedRootPos |= 1
	}
	binary.LittleEndian.PutUint32(buf[12:16], storedRootPos)
	sum := h.Sum(buf[0:16])
	copy(buf[16:36], sum[:20])
	return buf
}

// DecodeMeta parses and verifies a MetaSize-byte buffer. It returns
// merklix.ErrBadMagic or merklix.ErrChecksumMismatch on a malformed
// record, the two failure modes a recovery scan probes for at every
// candidate offset.
func DecodeMeta(h hashing.Hasher, buf []byte) (Meta, error) {
	if len(buf) < MetaSize {
		return Meta{}, merklix.ErrBadMagic
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != magic {
		return Meta{}, merklix.ErrBadMagic
	}
	want := h.Sum(buf[0:16])[:20]
	got := buf[16:36]
	for i := range want {
		if want[i] != got[i] {
			return Meta{}, merklix.ErrChecksumMismatch
		}
	}
	metaIndex := binary.LittleEndian.Uint16(buf[4:6])
	metaPos := binary.LittleEndian.Uint32(buf[6:10]) >> 1
	rootIndex := binary.LittleEndian.Uint16(buf[10:12])
	storedRootPos := binary.LittleEndian.Uint32(buf[12:16])
	return Meta{
		PrevMeta: Pointer{Index: metaIndex, Pos: metaPos},
		Root: Pointer{
			Index: rootIndex,
			Pos:   storedRootPos >> 1,
			Leaf:  storedRootPos&1 == 1,
		},
	}, nil
}
