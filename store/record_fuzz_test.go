package store

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// expand stretches (or trims) raw into exactly n bytes by repeating it
// cyclically, the same "cap/pad the fuzzer's bytes to a usable shape"
// approach buffered_file_fuzz_test.go's parseUpdates takes with its own
// raw input.
func expand(raw []byte, n int) []byte {
	out := make([]byte, n)
	if len(raw) == 0 {
		return out
	}
	for i := range out {
		out[i] = raw[i%len(raw)]
	}
	return out
}

// FuzzInternalRoundTrip feeds arbitrary bytes through EncodeInternal and
// DecodeInternal and checks the decoded record matches what was encoded,
// mirroring buffered_file_fuzz_test.go's read-after-write round trip.
func FuzzInternalRoundTrip(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x01})
	f.Add(bytes.Repeat([]byte{0xAB, 0xCD}, 40))

	f.Fuzz(func(t *testing.T, raw []byte) {
		layout := Layout{DigestSize: 32, KeySize: 32}
		b := expand(raw, 78)

		left := Pointer{
			Digest: append([]byte(nil), b[0:32]...),
			Index:  binary.LittleEndian.Uint16(b[32:34]),
			Pos:    binary.LittleEndian.Uint32(b[34:38]) & 0x7fffffff,
			Leaf:   b[38]&1 == 1,
		}
		right := Pointer{
			Digest: append([]byte(nil), b[39:71]...),
			Index:  binary.LittleEndian.Uint16(b[71:73]),
			Pos:    binary.LittleEndian.Uint32(b[73:77]) & 0x7fffffff,
			Leaf:   b[77]&1 == 1,
		}

		record := layout.EncodeInternal(Internal{Left: left, Right: right})
		if len(record) != layout.NodeSize() {
			t.Fatalf("encoded record has length %d, want NodeSize %d", len(record), layout.NodeSize())
		}
		decoded := layout.DecodeInternal(record)

		if !bytes.Equal(decoded.Left.Digest, left.Digest) {
			t.Fatalf("left digest mismatch: got %x, want %x", decoded.Left.Digest, left.Digest)
		}
		if decoded.Left.Index != left.Index || decoded.Left.Pos != left.Pos || decoded.Left.Leaf != left.Leaf {
			t.Fatalf("left pointer mismatch: got %+v, want %+v", decoded.Left, left)
		}
		if !bytes.Equal(decoded.Right.Digest, right.Digest) {
			t.Fatalf("right digest mismatch: got %x, want %x", decoded.Right.Digest, right.Digest)
		}
		if decoded.Right.Index != right.Index || decoded.Right.Pos != right.Pos || decoded.Right.Leaf != right.Leaf {
			t.Fatalf("right pointer mismatch: got %+v, want %+v", decoded.Right, right)
		}
	})
}

// FuzzLeafRoundTrip feeds arbitrary bytes through EncodeLeaf and
// DecodeLeaf and checks the decoded record matches what was encoded,
// including zero-valued keys (scenario S1) since they arise naturally
// whenever the fuzzer's input happens to expand to all zero bytes.
func FuzzLeafRoundTrip(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x00})
	f.Add(bytes.Repeat([]byte{0x42}, 20))

	f.Fuzz(func(t *testing.T, raw []byte) {
		layout := Layout{DigestSize: 32, KeySize: 32}
		b := expand(raw, 74)

		leaf := Leaf{
			Digest: append([]byte(nil), b[0:32]...),
			Key:    append([]byte(nil), b[32:64]...),
			Value: ValuePointer{
				Index: binary.LittleEndian.Uint16(b[64:66]),
				Pos:   binary.LittleEndian.Uint32(b[66:70]),
				Size:  binary.LittleEndian.Uint32(b[70:74]),
			},
		}

		record := layout.EncodeLeaf(leaf)
		if len(record) != layout.NodeSize() {
			t.Fatalf("encoded record has length %d, want NodeSize %d", len(record), layout.NodeSize())
		}
		decoded := layout.DecodeLeaf(record)

		if !bytes.Equal(decoded.Digest, leaf.Digest) {
			t.Fatalf("digest mismatch: got %x, want %x", decoded.Digest, leaf.Digest)
		}
		if !bytes.Equal(decoded.Key, leaf.Key) {
			t.Fatalf("key mismatch: got %x, want %x", decoded.Key, leaf.Key)
		}
		if decoded.Value != leaf.Value {
			t.Fatalf("value pointer mismatch: got %+v, want %+v", decoded.Value, leaf.Value)
		}
	})
}
