package tree

import (
	"github.com/merklixdb/merklix/fsport"
	"github.com/merklixdb/merklix/hashing"
)

// Config configures a Tree (§6.5): the hash collaborator, the key width
// in bits, the backing directory, and whether the store self-manages
// meta records and historical roots (standalone) or defers that to the
// caller.
type Config struct {
	FS         fsport.FileSystem
	Hasher     hashing.Hasher
	Bits       int
	Prefix     string
	Standalone bool
	// Seed seeds the store's open-file cache eviction RNG; see
	// store.Config.Seed.
	Seed int64
}

func (c Config) keySize() int { return c.Bits / 8 }
