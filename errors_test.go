package merklix

import "testing"

func TestCorruptionErrorWrapsSentinel(t *testing.T) {
	err := &CorruptionError{Err: ErrBadMagic, File: 2, Pos: 96}
	if err.Unwrap() != ErrBadMagic {
		t.Fatalf("Unwrap() = %v, want ErrBadMagic", err.Unwrap())
	}
	if err.Error() == "" {
		t.Fatalf("Error() should not be empty")
	}
}

func TestMissingNodeErrorMessage(t *testing.T) {
	digest := []byte{0xde, 0xad}
	root := &MissingNodeError{Root: true, Digest: digest}
	node := &MissingNodeError{Root: false, Digest: digest}
	if root.Error() == node.Error() {
		t.Fatalf("root and node MissingNodeError messages should differ")
	}
}
