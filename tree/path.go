// Package tree implements the Merklix tree engine (the in-memory working
// tree, insert/remove/get, grow-down/ungrow, and commit to the store) and
// the public Tree API (Open/Close/Destroy/Insert/Remove/Get/Commit/
// RootHash/Prove/Verify/Values).
package tree

// bit returns the path bit at depth d of key: the bits of key read
// most-significant-first, byte by byte (§4.1's path convention). Depth 0
// is the top bit of the first byte.
func bit(key []byte, d int) int {
	byteIdx := d / 8
	bitIdx := 7 - (d % 8)
	return int((key[byteIdx] >> uint(bitIdx)) & 1)
}

// commonPrefixLen returns the number of leading bits at which a and b
// agree, starting at depth 'from'. Used by insert's grow-down to find how
// deep two colliding keys must diverge.
func commonPrefixLen(a, b []byte, from, maxBits int) int {
	d := from
	for d < maxBits && bit(a, d) == bit(b, d) {
		d++
	}
	return d
}
