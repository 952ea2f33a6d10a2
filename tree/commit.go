package tree

import (
	"github.com/merklixdb/merklix/hashing"
	"github.com/merklixdb/merklix/store"
)

// sink is the subset of *store.Store the commit path needs to persist
// dirty nodes and values.
type sink interface {
	source
	AppendValue([]byte) (store.ValuePointer, error)
	AppendNode([]byte) (uint16, uint32, error)
	CommitMeta(store.Pointer) (store.Meta, error)
}

// commit writes every reachable dirty node (and its value, for dirty
// leaves) to dst in post-order — so every child's (digest, index, pos) is
// known before its parent is serialized — then asks the store to write
// the trailing meta record (§4.1 commit).
func commit(root *node, dst sink) (store.Pointer, error) {
	h := dst.Hasher()
	if _, err := digestOf(root, h, dst); err != nil {
		return store.Pointer{}, err
	}
	ptr, err := writeNode(root, dst, h)
	if err != nil {
		return store.Pointer{}, err
	}
	if _, err := dst.CommitMeta(ptr); err != nil {
		return store.Pointer{}, err
	}
	return ptr, nil
}

// writeNode persists n (if dirty) and returns the pointer addressing it,
// recursing into children first.
func writeNode(n *node, dst sink, h hashing.Hasher) (store.Pointer, error) {
	switch n.kind {
	case kindNil:
		return store.Pointer{}, nil

	case kindHash:
		// already committed; ptr is already valid.
		return n.ptr, nil

	case kindLeaf:
		if !n.dirty {
			return n.ptr, nil
		}
		value, err := n.valueBytes(dst)
		if err != nil {
			return store.Pointer{}, err
		}
		vp, err := dst.AppendValue(value)
		if err != nil {
			return store.Pointer{}, err
		}
		n.valuePtr = vp
		record := dst.Layout().EncodeLeaf(store.Leaf{Digest: n.digest, Key: n.key, Value: vp})
		index, pos, err := dst.AppendNode(record)
		if err != nil {
			return store.Pointer{}, err
		}
		n.ptr = store.Pointer{Digest: n.digest, Index: index, Pos: pos, Leaf: true}
		n.dirty = false
		return n.ptr, nil

	case kindInternal:
		if !n.dirty {
			return n.ptr, nil
		}
		leftPtr, err := writeNode(n.left, dst, h)
		if err != nil {
			return store.Pointer{}, err
		}
		rightPtr, err := writeNode(n.right, dst, h)
		if err != nil {
			return store.Pointer{}, err
		}
		leftPtr.Digest = n.left.digestOrZero(h)
		rightPtr.Digest = n.right.digestOrZero(h)
		record := dst.Layout().EncodeInternal(store.Internal{Left: leftPtr, Right: rightPtr})
		index, pos, err := dst.AppendNode(record)
		if err != nil {
			return store.Pointer{}, err
		}
		n.ptr = store.Pointer{Digest: n.digest, Index: index, Pos: pos, Leaf: false}
		n.dirty = false
		return n.ptr, nil
	}
	panic("unreachable node kind")
}
