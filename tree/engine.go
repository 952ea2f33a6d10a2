package tree

import "github.com/merklixdb/merklix/hashing"

// get descends root along key's bits and returns the value stored under
// key, or ok=false if key is absent (§4.1 get).
func get(root *node, key []byte, bits int, src source) (value []byte, ok bool, err error) {
	n := root
	for d := 0; d < bits; d++ {
		if err := n.resolve(src); err != nil {
			return nil, false, err
		}
		switch n.kind {
		case kindNil:
			return nil, false, nil
		case kindLeaf:
			if !bytesEqual(n.key, key) {
				return nil, false, nil
			}
			v, err := n.valueBytes(src)
			return v, true, err
		case kindInternal:
			if bit(key, d) == 0 {
				n = n.left
			} else {
				n = n.right
			}
		}
	}
	// After all B bits, n is the node at depth == bits: a leaf whose key
	// differs from its sibling's only in the last bit, or NIL. Insert never
	// places an internal node there.
	if err := n.resolve(src); err != nil {
		return nil, false, err
	}
	if n.kind == kindLeaf && bytesEqual(n.key, key) {
		v, err := n.valueBytes(src)
		return v, true, err
	}
	return nil, false, nil
}

// insert places value under key in the tree rooted at root, returning the
// (possibly new) root (§4.1 insert: land-on-NIL, replace-same-key, or
// grow-down on a colliding different key).
func insert(root *node, key, value []byte, bits int, src source) (*node, error) {
	return insertAt(root, key, value, 0, bits, src)
}

func insertAt(n *node, key, value []byte, depth, bits int, src source) (*node, error) {
	if err := n.resolve(src); err != nil {
		return nil, err
	}
	switch n.kind {
	case kindNil:
		return newLeaf(key, value), nil

	case kindLeaf:
		if bytesEqual(n.key, key) {
			return newLeaf(key, value), nil
		}
		// grow down: build the chain of internal nodes along the shared
		// bit prefix of key and n.key, then place both leaves at the
		// depth they first differ.
		existingValue, err := n.valueBytes(src)
		if err != nil {
			return nil, err
		}
		splitDepth := commonPrefixLen(key, n.key, depth, bits)
		newLeafNode := newLeaf(key, value)
		existingLeafNode := newLeaf(n.key, existingValue)

		var top *node
		if bit(key, splitDepth) == 0 {
			top = &node{kind: kindInternal, dirty: true, left: newLeafNode, right: existingLeafNode}
		} else {
			top = &node{kind: kindInternal, dirty: true, left: existingLeafNode, right: newLeafNode}
		}
		for d := splitDepth - 1; d >= depth; d-- {
			parent := &node{kind: kindInternal, dirty: true}
			if bit(key, d) == 0 {
				parent.left, parent.right = top, newNil()
			} else {
				parent.left, parent.right = newNil(), top
			}
			top = parent
		}
		return top, nil

	case kindInternal:
		var err error
		if bit(key, depth) == 0 {
			n.left, err = insertAt(n.left, key, value, depth+1, bits, src)
		} else {
			n.right, err = insertAt(n.right, key, value, depth+1, bits, src)
		}
		if err != nil {
			return nil, err
		}
		n.dirty = true
		n.digest = nil
		return n, nil
	}
	panic("unreachable node kind")
}

// remove deletes key from the tree rooted at root, returning the
// (possibly new) root. A no-op (returns root unchanged) if key is absent
// (§4.1 remove + ungrow).
func remove(root *node, key []byte, bits int, src source) (*node, error) {
	newRoot, _, err := removeAt(root, key, 0, bits, src)
	return newRoot, err
}

// removeAt returns the replacement for n and whether key was actually
// found and removed (a caller uses this to decide whether ungrowing
// applies).
func removeAt(n *node, key []byte, depth, bits int, src source) (*node, bool, error) {
	if err := n.resolve(src); err != nil {
		return nil, false, err
	}
	switch n.kind {
	case kindNil:
		return n, false, nil

	case kindLeaf:
		if !bytesEqual(n.key, key) {
			return n, false, nil
		}
		return newNil(), true, nil

	case kindInternal:
		var child *node
		var removed bool
		var err error
		if bit(key, depth) == 0 {
			child, removed, err = removeAt(n.left, key, depth+1, bits, src)
			if err != nil {
				return nil, false, err
			}
			n.left = child
		} else {
			child, removed, err = removeAt(n.right, key, depth+1, bits, src)
			if err != nil {
				return nil, false, err
			}
			n.right = child
		}
		if !removed {
			return n, false, nil
		}
		// ungrow inspects both children's kinds, so the untouched sibling
		// must be resolved from the store first.
		sibling := n.right
		if bit(key, depth) == 1 {
			sibling = n.left
		}
		if err := sibling.resolve(src); err != nil {
			return nil, false, err
		}
		n.dirty = true
		n.digest = nil
		return ungrow(n), true, nil
	}
	panic("unreachable node kind")
}

// ungrow collapses an internal node whose children are now (leaf, NIL) or
// (NIL, leaf) into that leaf directly, undoing one level of grow-down.
// Stops as soon as a sibling is itself an internal node, leaving a dead
// end (NIL) on the removed side, per §4.1.
func ungrow(n *node) *node {
	left, right := n.left, n.right
	if left.kind == kindLeaf && right.kind == kindNil {
		return left
	}
	if left.kind == kindNil && right.kind == kindLeaf {
		return right
	}
	return n
}

// digestOf computes (and caches) n's digest, recursing into dirty
// children first so every child's digest is final before this node's is
// derived from it (§4.1 rootHash: "recompute digests lazily at commit").
func digestOf(n *node, h hashing.Hasher, src source) ([]byte, error) {
	if n.kind == kindNil {
		return h.Zero(), nil
	}
	if !n.dirty && n.digest != nil {
		return n.digest, nil
	}
	switch n.kind {
	case kindLeaf:
		v, err := n.valueBytes(src)
		if err != nil {
			return nil, err
		}
		n.digest = h.Sum(n.key, v)
		return n.digest, nil
	case kindInternal:
		ld, err := digestOf(n.left, h, src)
		if err != nil {
			return nil, err
		}
		rd, err := digestOf(n.right, h, src)
		if err != nil {
			return nil, err
		}
		n.digest = h.Sum(ld, rd)
		return n.digest, nil
	}
	return n.digest, nil
}

func bytesEqual(a, b []byte) bool {
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
