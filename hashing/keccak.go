package hashing

import (
	"sync"

	"golang.org/x/crypto/sha3"
)

// Keccak256 is a Hasher backed by the legacy Keccak-256 permutation, the
// same construction common/keccak.go uses for Ethereum-compatible digests.
// hash.Hash instances are pooled because they carry internal state that is
// expensive to allocate on every call (the same rationale common/keccak.go
// uses its sync.Pool for).
type Keccak256 struct {
	pool sync.Pool
}

// NewKeccak256 returns a ready-to-use Keccak256 hasher.
func NewKeccak256() *Keccak256 {
	k := &Keccak256{}
	k.pool.New = func() any { return sha3.NewLegacyKeccak256() }
	return k
}

func (k *Keccak256) Size() int { return 32 }

func (k *Keccak256) Zero() []byte { return make([]byte, 32) }

func (k *Keccak256) Sum(parts ...[]byte) []byte {
	h := k.pool.Get().(interface {
		Write([]byte) (int, error)
		Sum([]byte) []byte
		Reset()
	})
	defer func() {
		h.Reset()
		k.pool.Put(h)
	}()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}
