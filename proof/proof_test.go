package proof

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeExists(t *testing.T) {
	p := Proof{
		Depth:    3,
		Omitted:  []bool{false, true, false},
		Siblings: [][]byte{bytes.Repeat([]byte{1}, 32), bytes.Repeat([]byte{2}, 32)},
		Variant:  VariantExists,
		Value:    []byte("hello"),
	}
	buf := Encode(p)
	got, err := Decode(buf, 32)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Depth != p.Depth {
		t.Fatalf("Depth = %d, want %d", got.Depth, p.Depth)
	}
	if !equalBools(got.Omitted, p.Omitted) {
		t.Fatalf("Omitted = %v, want %v", got.Omitted, p.Omitted)
	}
	if len(got.Siblings) != len(p.Siblings) {
		t.Fatalf("Siblings len = %d, want %d", len(got.Siblings), len(p.Siblings))
	}
	for i := range p.Siblings {
		if !bytes.Equal(got.Siblings[i], p.Siblings[i]) {
			t.Fatalf("Siblings[%d] = %x, want %x", i, got.Siblings[i], p.Siblings[i])
		}
	}
	if got.Variant != VariantExists || string(got.Value) != "hello" {
		t.Fatalf("got variant/value %v/%q, want VariantExists/\"hello\"", got.Variant, got.Value)
	}
}

func TestEncodeDecodeCollision(t *testing.T) {
	p := Proof{
		Depth:          2,
		Omitted:        []bool{true, true},
		Variant:        VariantCollision,
		CollisionKey:   bytes.Repeat([]byte{0x42}, 32),
		CollisionValue: []byte("other"),
	}
	buf := Encode(p)
	got, err := Decode(buf, 32)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Variant != VariantCollision {
		t.Fatalf("Variant = %v, want VariantCollision", got.Variant)
	}
	if !bytes.Equal(got.CollisionKey, p.CollisionKey) || string(got.CollisionValue) != "other" {
		t.Fatalf("collision fields mismatch: got key=%x value=%q", got.CollisionKey, got.CollisionValue)
	}
}

func TestEncodeDecodeDeadend(t *testing.T) {
	p := Proof{Depth: 1, Omitted: []bool{true}, Variant: VariantDeadend}
	buf := Encode(p)
	got, err := Decode(buf, 32)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Variant != VariantDeadend {
		t.Fatalf("Variant = %v, want VariantDeadend", got.Variant)
	}
}

func TestDecodeTruncatedIsMalformed(t *testing.T) {
	if _, err := Decode([]byte{1}, 32); err == nil {
		t.Fatalf("Decode of a 1-byte buffer should fail")
	}
	p := Proof{Depth: 3, Omitted: []bool{false, false, false}, Siblings: [][]byte{
		bytes.Repeat([]byte{1}, 32), bytes.Repeat([]byte{2}, 32), bytes.Repeat([]byte{3}, 32),
	}, Variant: VariantDeadend}
	buf := Encode(p)
	if _, err := Decode(buf[:len(buf)-40], 32); err == nil {
		t.Fatalf("Decode of a truncated buffer should fail")
	}
}

func TestDecodeUnknownVariantIsMalformed(t *testing.T) {
	buf := Encode(Proof{Depth: 0, Variant: VariantDeadend})
	buf[len(buf)-1] = 0x7f
	if _, err := Decode(buf, 32); err == nil {
		t.Fatalf("Decode with an unknown variant tag should fail")
	}
}

func equalBools(a, b []bool) bool {
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
