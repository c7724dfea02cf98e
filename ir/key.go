package ir

import (
	"hash/fnv"
	"sync"
)

// Key is a 64-bit interned identifier for a name, shared across a
// compilation's Module. Two identifiers with equal textual content
// always produce bit-equal keys.
type Key uint64

// KeyInterner assigns stable 64-bit keys to identifier text. Keys are
// derived from an FNV-64a hash of the name; collisions (two distinct
// names hashing to the same value) are resolved by linear probing over
// the interner's own map, the same way the teacher resolves collisions in
// its import-signature table rather than trusting a hash to be injective.
//
// Safe for concurrent use: SPEC_FULL.md's concurrency model allows
// compiling Functions of one Module in parallel provided the Module-wide
// interners are protected.
type KeyInterner struct {
	mu     sync.Mutex
	byName map[string]Key
	byKey  map[Key]string
}

// NewKeyInterner creates an empty key interner.
func NewKeyInterner() *KeyInterner {
	return &KeyInterner{
		byName: make(map[string]Key),
		byKey:  make(map[Key]string),
	}
}

// KeyFor returns the interned key for name, assigning one on first use.
func (ki *KeyInterner) KeyFor(name string) Key {
	ki.mu.Lock()
	defer ki.mu.Unlock()

	if k, ok := ki.byName[name]; ok {
		return k
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	k := Key(h.Sum64())
	for {
		existing, taken := ki.byKey[k]
		if !taken || existing == name {
			break
		}
		k++
	}

	ki.byName[name] = k
	ki.byKey[k] = name
	return k
}

// NameOf returns the identifier text k was interned from, for debug
// dumps.
func (ki *KeyInterner) NameOf(k Key) (string, bool) {
	ki.mu.Lock()
	defer ki.mu.Unlock()
	name, ok := ki.byKey[k]
	return name, ok
}

// CacheAllocator issues the monotonic 16-bit per-Module cache ids used by
// ctx_get/ctx_put inline-cache sites. Ids are unique within the Module
// regardless of which Function issued them (testable property 5).
type CacheAllocator struct {
	mu   sync.Mutex
	next uint16
}

// NewCacheAllocator creates a cache id allocator starting at zero.
func NewCacheAllocator() *CacheAllocator {
	return &CacheAllocator{}
}

// Next returns the next unused cache id.
func (c *CacheAllocator) Next() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	return id
}
