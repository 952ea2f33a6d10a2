// Package proof implements the Merklix proof format and its stateless
// verifier (§4.4): a depth, a bit vector marking sibling digests omitted
// because they equal the hash collaborator's zero constant (dead-end
// compression), the sequence of present sibling digests root-to-leaf, and
// a terminal variant (inclusion, a colliding leaf, or a dead end).
package proof

import (
	"encoding/binary"
	"fmt"
)

// Variant tags the terminal node a proof's path ends at.
type Variant byte

const (
	VariantExists Variant = iota
	VariantCollision
	VariantDeadend
)

// Proof is a decoded inclusion/exclusion proof for one key against one
// root hash.
type Proof struct {
	Depth    int
	Omitted  []bool   // length Depth; true => the sibling at that level is H.zero and was not stored
	Siblings [][]byte // present (non-omitted) sibling digests, root-to-leaf order

	Variant Variant
	// Value is set when Variant == VariantExists.
	Value []byte
	// CollisionKey/CollisionValue are set when Variant == VariantCollision:
	// an unrelated leaf sharing the requested key's first Depth bits.
	CollisionKey   []byte
	CollisionValue []byte
}

// Encode serializes p. Sibling digests are written back to back without
// a length; Decode takes the digest length as a parameter instead.
func Encode(p Proof) []byte {
	omittedBytes := (p.Depth + 7) / 8
	buf := make([]byte, 0, 2+omittedBytes+len(p.Siblings)*32+16+len(p.Value)+len(p.CollisionKey)+len(p.CollisionValue))

	var depthBuf [2]byte
	binary.LittleEndian.PutUint16(depthBuf[:], uint16(p.Depth))
	buf = append(buf, depthBuf[:]...)

	omitted := make([]byte, omittedBytes)
	for i, o := range p.Omitted {
		if o {
			omitted[i/8] |= 1 << uint(7-i%8)
		}
	}
	buf = append(buf, omitted...)

	for _, s := range p.Siblings {
		buf = append(buf, s...)
	}

	buf = append(buf, byte(p.Variant))
	switch p.Variant {
	case VariantExists:
		buf = appendLenPrefixed(buf, p.Value)
	case VariantCollision:
		buf = appendLenPrefixed(buf, p.CollisionKey)
		buf = appendLenPrefixed(buf, p.CollisionValue)
	case VariantDeadend:
	}
	return buf
}

func appendLenPrefixed(buf []byte, data []byte) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, data...)
}

// Decode parses a proof encoded with digest length digestSize.
func Decode(b []byte, digestSize int) (Proof, error) {
	if len(b) < 2 {
		return Proof{}, errMalformed("truncated depth")
	}
	depth := int(binary.LittleEndian.Uint16(b[0:2]))
	b = b[2:]

	omittedBytes := (depth + 7) / 8
	if len(b) < omittedBytes {
		return Proof{}, errMalformed("truncated omitted bit vector")
	}
	omittedBits := b[:omittedBytes]
	b = b[omittedBytes:]

	omitted := make([]bool, depth)
	present := 0
	for i := 0; i < depth; i++ {
		if omittedBits[i/8]&(1<<uint(7-i%8)) != 0 {
			omitted[i] = true
		} else {
			present++
		}
	}

	if len(b) < present*digestSize {
		return Proof{}, errMalformed("truncated sibling digests")
	}
	siblings := make([][]byte, present)
	for i := 0; i < present; i++ {
		siblings[i] = append([]byte(nil), b[i*digestSize:(i+1)*digestSize]...)
	}
	b = b[present*digestSize:]

	if len(b) < 1 {
		return Proof{}, errMalformed("truncated variant tag")
	}
	variant := Variant(b[0])
	b = b[1:]

	p := Proof{Depth: depth, Omitted: omitted, Siblings: siblings, Variant: variant}
	switch variant {
	case VariantExists:
		value, _, err := readLenPrefixed(b)
		if err != nil {
			return Proof{}, err
		}
		p.Value = value
	case VariantCollision:
		key, rest, err := readLenPrefixed(b)
		if err != nil {
			return Proof{}, err
		}
		value, _, err := readLenPrefixed(rest)
		if err != nil {
			return Proof{}, err
		}
		p.CollisionKey = key
		p.CollisionValue = value
	case VariantDeadend:
	default:
		return Proof{}, errMalformed("unknown variant tag")
	}
	return p, nil
}

func readLenPrefixed(b []byte) (data, rest []byte, err error) {
	if len(b) < 4 {
		return nil, nil, errMalformed("truncated length prefix")
	}
	n := binary.LittleEndian.Uint32(b[0:4])
	b = b[4:]
	if uint32(len(b)) < n {
		return nil, nil, errMalformed("truncated payload")
	}
	return b[:n], b[n:], nil
}

func errMalformed(why string) error { return fmt.Errorf("proof: malformed: %s", why) }
