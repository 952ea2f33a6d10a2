package tree

import (
	"context"
	"fmt"

	"github.com/merklixdb/merklix"
	"github.com/merklixdb/merklix/proof"
	"github.com/merklixdb/merklix/store"
)

// Tree is the public API (§6.4): a persistent, authenticated key-value
// index backed by an append-only flat-file store, exposing Open/Close/
// Destroy, Insert/Remove/Get, Commit/RootHash, Prove/Verify, and an
// in-order Values iterator.
type Tree struct {
	cfg    Config
	st     *store.Store
	root   *node
	closed bool
}

// Open opens (creating if necessary) the tree rooted at cfg.Prefix.
func Open(cfg Config) (*Tree, error) {
	if cfg.Bits <= 0 || cfg.Bits%8 != 0 {
		return nil, fmt.Errorf("merklix: Bits must be a positive multiple of 8, got %d", cfg.Bits)
	}
	st, err := store.Open(store.Config{
		FS:         cfg.FS,
		Hasher:     cfg.Hasher,
		Prefix:     cfg.Prefix,
		KeySize:    cfg.keySize(),
		Standalone: cfg.Standalone,
		Seed:       cfg.Seed,
	})
	if err != nil {
		return nil, err
	}
	root := fromPointer(st.CurrentRoot())
	if root.kind == kindHash && root.digest == nil {
		// A root recovered from a meta record has no digest yet; resolving
		// it derives one from the record.
		if err := root.resolve(st); err != nil {
			st.Close()
			return nil, err
		}
		root.ptr.Digest = root.digest
	}
	return &Tree{cfg: cfg, st: st, root: root}, nil
}

func (t *Tree) checkKey(key []byte) error {
	if t.closed {
		return merklix.ErrClosed
	}
	if len(key) != t.cfg.keySize() {
		return merklix.ErrKeyWrongSize
	}
	return nil
}

// Get returns the value stored under key, or ok=false if absent.
func (t *Tree) Get(key []byte) (value []byte, ok bool, err error) {
	if err := t.checkKey(key); err != nil {
		return nil, false, err
	}
	return get(t.root, key, t.cfg.Bits, t.st)
}

// Insert stores value under key, replacing any existing value.
func (t *Tree) Insert(key, value []byte) error {
	if err := t.checkKey(key); err != nil {
		return err
	}
	newRoot, err := insert(t.root, key, value, t.cfg.Bits, t.st)
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}

// Remove deletes key, if present; a no-op otherwise.
func (t *Tree) Remove(key []byte) error {
	if err := t.checkKey(key); err != nil {
		return err
	}
	newRoot, err := remove(t.root, key, t.cfg.Bits, t.st)
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}

// RootHash computes (without persisting) the current working tree's root
// digest, recursing into any still-dirty nodes as needed.
func (t *Tree) RootHash() ([]byte, error) {
	if t.closed {
		return nil, merklix.ErrClosed
	}
	return digestOf(t.root, t.cfg.Hasher, t.st)
}

// Commit writes every reachable dirty node to the store and returns the
// new, immutable root hash.
func (t *Tree) Commit() ([]byte, error) {
	if t.closed {
		return nil, merklix.ErrClosed
	}
	ptr, err := commit(t.root, t.st)
	if err != nil {
		return nil, err
	}
	t.root = fromPointer(ptr)
	if ptr.IsNil() {
		return t.cfg.Hasher.Zero(), nil
	}
	return ptr.Digest, nil
}

// Prove builds a proof of key's inclusion or exclusion against rootHash.
// rootHash must refer to a root this store still has (the current root,
// or, in standalone mode, any historical root reachable through the meta
// chain).
func (t *Tree) Prove(rootHash, key []byte) ([]byte, error) {
	if err := t.checkKey(key); err != nil {
		return nil, err
	}
	ptr, err := t.st.GetRoot(rootHash)
	if err != nil {
		return nil, err
	}
	p, err := prove(fromPointer(ptr), key, t.cfg.Bits, t.st)
	if err != nil {
		return nil, err
	}
	return proof.Encode(p), nil
}

// Verify is a convenience wrapper around proof.Verify using this tree's
// hash collaborator and bit width; it does not touch the store and can be
// called with any rootHash/key/proofBytes triple (§4.1 verify).
func (t *Tree) Verify(rootHash, key, proofBytes []byte) (proof.Code, []byte) {
	return proof.Verify(t.cfg.Hasher, t.cfg.Bits, rootHash, key, proofBytes)
}

// Values performs an in-order traversal of the committed tree, calling
// visit for each (key, value) pair in ascending key order.
func (t *Tree) Values(ctx context.Context, visit VisitFunc) error {
	if t.closed {
		return merklix.ErrClosed
	}
	return values(ctx, fromPointer(t.st.CurrentRoot()), t.st, visit)
}

// Stats reports the current tree's leaf count and maximum depth.
func (t *Tree) Stats() (Stats, error) {
	if t.closed {
		return Stats{}, merklix.ErrClosed
	}
	return stats(t.root, t.st)
}

// Close releases the store's open file handles.
func (t *Tree) Close() error {
	if t.closed {
		return merklix.ErrClosed
	}
	t.closed = true
	return t.st.Close()
}

// Destroy removes every file backing this tree. The tree must already be
// closed.
func (t *Tree) Destroy() error {
	return t.st.Destroy()
}
