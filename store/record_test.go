package store

import (
	"bytes"
	"testing"
)

func TestInternalRoundTrip(t *testing.T) {
	l := Layout{DigestSize: 32, KeySize: 32}
	in := Internal{
		Left:  Pointer{Digest: bytes.Repeat([]byte{1}, 32), Index: 3, Pos: 128, Leaf: false},
		Right: Pointer{Digest: bytes.Repeat([]byte{2}, 32), Index: 4, Pos: 9000, Leaf: true},
	}
	buf := l.EncodeInternal(in)
	if len(buf) != l.NodeSize() {
		t.Fatalf("encoded length = %d, want NodeSize() = %d", len(buf), l.NodeSize())
	}
	got := l.DecodeInternal(buf)
	if !bytes.Equal(got.Left.Digest, in.Left.Digest) || got.Left.Index != in.Left.Index ||
		got.Left.Pos != in.Left.Pos || got.Left.Leaf != in.Left.Leaf {
		t.Fatalf("left pointer round trip mismatch: got %+v, want %+v", got.Left, in.Left)
	}
	if !bytes.Equal(got.Right.Digest, in.Right.Digest) || got.Right.Index != in.Right.Index ||
		got.Right.Pos != in.Right.Pos || got.Right.Leaf != in.Right.Leaf {
		t.Fatalf("right pointer round trip mismatch: got %+v, want %+v", got.Right, in.Right)
	}
}

// TestLeafRoundTripZeroKey covers scenario S1: a leaf key of all zero bits
// must decode intact, proving the leaf/internal tag cannot be read out of
// the key bytes themselves (decision OQ-1).
func TestLeafRoundTripZeroKey(t *testing.T) {
	l := Layout{DigestSize: 32, KeySize: 32}
	leaf := Leaf{
		Digest: bytes.Repeat([]byte{0xaa}, 32),
		Key:    make([]byte, 32),
		Value:  ValuePointer{Index: 1, Pos: 0, Size: 5},
	}
	buf := l.EncodeLeaf(leaf)
	got := l.DecodeLeaf(buf)
	if !bytes.Equal(got.Key, leaf.Key) {
		t.Fatalf("zero key corrupted by round trip: got %x", got.Key)
	}
	if !bytes.Equal(got.Digest, leaf.Digest) {
		t.Fatalf("digest mismatch: got %x, want %x", got.Digest, leaf.Digest)
	}
	if got.Value != leaf.Value {
		t.Fatalf("value pointer mismatch: got %+v, want %+v", got.Value, leaf.Value)
	}
}

func TestNodeSizeIsMaxOfBoth(t *testing.T) {
	l := Layout{DigestSize: 32, KeySize: 8}
	if l.NodeSize() != l.InternalSize() {
		t.Fatalf("with a short key, NodeSize() should equal InternalSize(): got %d vs %d", l.NodeSize(), l.InternalSize())
	}
	l2 := Layout{DigestSize: 32, KeySize: 64}
	if l2.NodeSize() != l2.LeafSize() {
		t.Fatalf("with a long key, NodeSize() should equal LeafSize(): got %d vs %d", l2.NodeSize(), l2.LeafSize())
	}
}

func TestPointerIsNil(t *testing.T) {
	if !(Pointer{}).IsNil() {
		t.Fatalf("zero-value Pointer should be nil")
	}
	if (Pointer{Index: 1}).IsNil() {
		t.Fatalf("Pointer with Index 1 should not be nil")
	}
}
