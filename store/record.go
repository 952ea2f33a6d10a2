package store

// Internal is a decoded internal node record: two child pointers.
type Internal struct {
	Left  Pointer
	Right Pointer
}

// Leaf is a decoded leaf node record: the leaf's own digest (computed by
// the caller from key and value and stored at the start of the record,
// whereas an Internal node's digest is stored only in its parent), the
// full key, and a pointer to its value bytes.
type Leaf struct {
	Digest []byte
	Key    []byte
	Value  ValuePointer
}

// Layout fixes the record sizes for a store opened with a given digest
// size D (bytes) and key size (bytes, B/8 in the design document). Both
// record kinds are padded to the same NodeSize so a read of fixed length
// can be issued without knowing the record's kind in advance.
type Layout struct {
	DigestSize int
	KeySize    int
}

// InternalSize is 2*D + 12: two (digest, index, pos) child pointers.
func (l Layout) InternalSize() int { return 2*l.DigestSize + 12 }

// LeafSize is D + B/8 + 10: digest, key, and a (index, pos, size) value
// pointer.
func (l Layout) LeafSize() int { return l.DigestSize + l.KeySize + 10 }

// NodeSize is the padded, fixed size every node record occupies on disk.
func (l Layout) NodeSize() int {
	i, f := l.InternalSize(), l.LeafSize()
	if i > f {
		return i
	}
	return f
}

// EncodeInternal serializes n into a NodeSize()-byte, zero-padded buffer.
func (l Layout) EncodeInternal(n Internal) []byte {
	buf := make([]byte, l.NodeSize())
	d := l.DigestSize
	copy(buf[0:d], n.Left.Digest)
	putPointer(buf[d:d+6], n.Left)
	copy(buf[d+6:2*d+6], n.Right.Digest)
	putPointer(buf[2*d+6:2*d+12], n.Right)
	return buf
}

// DecodeInternal parses an internal record out of a NodeSize()-byte
// buffer previously produced by EncodeInternal (zero padding ignored).
func (l Layout) DecodeInternal(buf []byte) Internal {
	d := l.DigestSize
	leftDigest := append([]byte(nil), buf[0:d]...)
	rightDigest := append([]byte(nil), buf[d+6:2*d+6]...)
	left := getPointer(buf[d:d+6], leftDigest)
	right := getPointer(buf[2*d+6:2*d+12], rightDigest)
	return Internal{Left: left, Right: right}
}

// EncodeLeaf serializes n into a NodeSize()-byte, zero-padded buffer.
func (l Layout) EncodeLeaf(n Leaf) []byte {
	buf := make([]byte, l.NodeSize())
	d := l.DigestSize
	copy(buf[0:d], n.Digest)
	copy(buf[d:d+l.KeySize], n.Key)
	putValuePointer(buf[d+l.KeySize:d+l.KeySize+10], n.Value)
	return buf
}

// DecodeLeaf parses a leaf record out of a NodeSize()-byte buffer
// previously produced by EncodeLeaf.
func (l Layout) DecodeLeaf(buf []byte) Leaf {
	d := l.DigestSize
	digest := append([]byte(nil), buf[0:d]...)
	key := append([]byte(nil), buf[d:d+l.KeySize]...)
	value := getValuePointer(buf[d+l.KeySize : d+l.KeySize+10])
	return Leaf{Digest: digest, Key: key, Value: value}
}
