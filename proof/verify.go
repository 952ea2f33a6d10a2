package proof

import (
	"bytes"

	"github.com/merklixdb/merklix/hashing"
)

// Code is the closed, total enum Verify returns (§7 "ProofError codes").
type Code int

const (
	OKInclusion Code = iota
	OKExclusion
	MismatchedRoot
	Malformed
	DepthTooLarge
	UnexpectedNil
	SameKey
)

func (c Code) String() string {
	switch c {
	case OKInclusion:
		return "OK_INCLUSION"
	case OKExclusion:
		return "OK_EXCLUSION"
	case MismatchedRoot:
		return "MISMATCHED_ROOT"
	case Malformed:
		return "MALFORMED"
	case DepthTooLarge:
		return "DEPTH_TOO_LARGE"
	case UnexpectedNil:
		return "UNEXPECTED_NIL"
	case SameKey:
		return "SAME_KEY"
	default:
		return "UNKNOWN"
	}
}

// Verify reconstructs the expected root hash from proofBytes and compares
// it to rootHash, returning one of the codes above and, for OKInclusion,
// the proved value. It never returns a Go error: every malformed or
// tampered input maps to a code (§7, §4.4).
func Verify(h hashing.Hasher, bits int, rootHash, key, proofBytes []byte) (Code, []byte) {
	p, err := Decode(proofBytes, h.Size())
	if err != nil {
		return Malformed, nil
	}
	if p.Depth > bits {
		return DepthTooLarge, nil
	}
	if len(p.Omitted) != p.Depth {
		return Malformed, nil
	}
	presentCount := 0
	for _, o := range p.Omitted {
		if !o {
			presentCount++
		}
	}
	if presentCount != len(p.Siblings) {
		return Malformed, nil
	}

	var leafDigest []byte
	switch p.Variant {
	case VariantExists:
		leafDigest = h.Sum(key, p.Value)
	case VariantCollision:
		if bytes.Equal(p.CollisionKey, key) {
			return SameKey, nil
		}
		if !sharesPrefix(p.CollisionKey, key, p.Depth) || sameBit(p.CollisionKey, key, p.Depth) {
			return Malformed, nil
		}
		leafDigest = h.Sum(p.CollisionKey, p.CollisionValue)
	case VariantDeadend:
		leafDigest = h.Zero()
	default:
		return Malformed, nil
	}

	// By invariant 3 (no unary internal nodes), a real leaf can never be
	// the sole occupant of a position whose digest coincides with the
	// NIL sentinel; a proof asserting otherwise is rejected rather than
	// silently folded (§9 decision OQ-5).
	if p.Variant != VariantDeadend && bytes.Equal(leafDigest, h.Zero()) {
		return UnexpectedNil, nil
	}

	current := leafDigest
	siblingIdx := len(p.Siblings) - 1
	for d := p.Depth - 1; d >= 0; d-- {
		var sibling []byte
		if p.Omitted[d] {
			sibling = h.Zero()
		} else {
			if siblingIdx < 0 {
				return Malformed, nil
			}
			sibling = p.Siblings[siblingIdx]
			siblingIdx--
		}
		if bitAt(key, d) == 0 {
			current = h.Sum(current, sibling)
		} else {
			current = h.Sum(sibling, current)
		}
	}

	if !bytes.Equal(current, rootHash) {
		return MismatchedRoot, nil
	}
	if p.Variant == VariantExists {
		return OKInclusion, p.Value
	}
	return OKExclusion, nil
}

func bitAt(key []byte, d int) int {
	byteIdx := d / 8
	bitIdx := 7 - (d % 8)
	if byteIdx >= len(key) {
		return 0
	}
	return int((key[byteIdx] >> uint(bitIdx)) & 1)
}

// sharesPrefix reports whether a and b agree on their first n bits.
func sharesPrefix(a, b []byte, n int) bool {
	for d := 0; d < n; d++ {
		if bitAt(a, d) != bitAt(b, d) {
			return false
		}
	}
	return true
}

// sameBit reports whether a and b agree on the bit at depth n (a valid
// collision must instead *disagree* there, that being the point at which
// their paths diverged).
func sameBit(a, b []byte, n int) bool {
	return bitAt(a, n) == bitAt(b, n)
}
