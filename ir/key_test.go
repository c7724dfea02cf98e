package ir

import "testing"

func TestKeyInterning(t *testing.T) {
	ki := NewKeyInterner()

	a := ki.KeyFor("foo")
	b := ki.KeyFor("foo")
	if a != b {
		t.Errorf("equal names produced distinct keys: %x, %x", a, b)
	}
	if ki.KeyFor("bar") == a {
		t.Error("distinct names share a key")
	}

	name, ok := ki.NameOf(a)
	if !ok || name != "foo" {
		t.Errorf("NameOf(%x) = %q, %v", a, name, ok)
	}
}

func TestKeyInternersIndependent(t *testing.T) {
	// Keys are hash-derived, so two separately created interners agree
	// on the key of a collision-free name.
	k1 := NewKeyInterner().KeyFor("foo")
	k2 := NewKeyInterner().KeyFor("foo")
	if k1 != k2 {
		t.Errorf("content-derived keys disagree across interners: %x, %x", k1, k2)
	}
}

func TestCacheAllocatorUnique(t *testing.T) {
	c := NewCacheAllocator()
	seen := make(map[uint16]bool)
	for i := 0; i < 100; i++ {
		id := c.Next()
		if seen[id] {
			t.Fatalf("cache id %d issued twice", id)
		}
		seen[id] = true
	}
}

func TestStringResourceInterning(t *testing.T) {
	m := NewModule()

	r1 := m.InternString("hello")
	r2 := m.InternString("hello")
	if r1 != r2 {
		t.Error("equal strings produced distinct resources")
	}
	r3 := m.InternString("world")
	if r3.ID != r1.ID+1 {
		t.Errorf("ids not dense: %d after %d", r3.ID, r1.ID)
	}
	if len(m.Resources) != 2 {
		t.Errorf("resources = %d, want 2", len(m.Resources))
	}
}
