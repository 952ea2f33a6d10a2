package tree

import (
	"github.com/merklixdb/merklix/hashing"
	"github.com/merklixdb/merklix/store"
)

type kind int

const (
	kindNil kind = iota
	kindHash
	kindInternal
	kindLeaf
)

// node is the tagged variant covering every state a node can be in: the
// canonical empty subtree, a lazy placeholder resolved from a store
// pointer on first descent, a resolved internal node, or a resolved leaf.
// This replaces any virtual-dispatch-by-type pattern the way the design
// document's notes describe (§9).
type node struct {
	kind  kind
	dirty bool

	// digest caches this node's hash. For a dirty node it is recomputed
	// lazily by digestOf; for a resolved node it is known immediately
	// (an internal's digest is recomputed from its children's digests
	// read off the record, since the record itself doesn't store it).
	digest []byte

	// ptr is valid for a kindHash node (not yet resolved) and, after
	// commit, for any node that has been written to the store.
	ptr store.Pointer

	left, right *node // kindInternal

	key      []byte             // kindLeaf
	value    []byte             // kindLeaf, populated once fetched or before commit
	valuePtr store.ValuePointer // kindLeaf, valid once committed
}

func newNil() *node { return &node{kind: kindNil} }

func newLeaf(key, value []byte) *node {
	return &node{kind: kindLeaf, dirty: true, key: key, value: value}
}

// fromPointer builds the node a store pointer addresses, without
// resolving it yet.
func fromPointer(p store.Pointer) *node {
	if p.IsNil() {
		return newNil()
	}
	return &node{kind: kindHash, ptr: p, digest: p.Digest}
}

// source is the subset of *store.Store the tree engine needs to resolve
// lazy nodes and fetch leaf values.
type source interface {
	ReadNode(store.Pointer) ([]byte, error)
	ReadValue(store.ValuePointer) ([]byte, error)
	Layout() store.Layout
	Hasher() hashing.Hasher
}

// resolve turns a kindHash placeholder into a kindInternal or kindLeaf
// node by reading its record from src. No-op for every other kind.
func (n *node) resolve(src source) error {
	if n.kind != kindHash {
		return nil
	}
	raw, err := src.ReadNode(n.ptr)
	if err != nil {
		return err
	}
	layout := src.Layout()
	if n.ptr.Leaf {
		leaf := layout.DecodeLeaf(raw)
		n.kind = kindLeaf
		n.key = leaf.Key
		n.valuePtr = leaf.Value
		n.digest = leaf.Digest
		return nil
	}
	in := layout.DecodeInternal(raw)
	n.kind = kindInternal
	n.left = fromPointer(in.Left)
	n.right = fromPointer(in.Right)
	n.digest = src.Hasher().Sum(n.left.digestOrZero(src.Hasher()), n.right.digestOrZero(src.Hasher()))
	return nil
}

func (n *node) digestOrZero(h interface{ Zero() []byte }) []byte {
	if n.kind == kindNil {
		return h.Zero()
	}
	return n.digest
}

// valueBytes returns a leaf's value bytes, fetching them from src on first
// access if this leaf was resolved from the store rather than freshly
// inserted.
func (n *node) valueBytes(src source) ([]byte, error) {
	if n.value != nil {
		return n.value, nil
	}
	v, err := src.ReadValue(n.valuePtr)
	if err != nil {
		return nil, err
	}
	n.value = v
	return v, nil
}
