package ir

import "testing"

func TestPrimitiveSingletons(t *testing.T) {
	if Void() != Void() {
		t.Error("Void() not a singleton")
	}
	if !Boolean().Equal(Boolean()) {
		t.Error("Boolean() not equal to itself")
	}
	if Boolean().Equal(Double()) {
		t.Error("Boolean() equal to Double()")
	}
}

func TestInternerStructuralIdentity(t *testing.T) {
	in := NewInterner()

	a1 := in.Array(ValueType(), 4)
	a2 := in.Array(ValueType(), 4)
	if a1 != a2 {
		t.Error("equal array types not interned to one instance")
	}
	if a3 := in.Array(ValueType(), 5); a3 == a1 || a3.Equal(a1) {
		t.Error("arrays of different length compare equal")
	}

	p1 := in.Pointer(Double())
	p2 := in.Pointer(Double())
	if p1 != p2 {
		t.Error("equal pointer types not interned to one instance")
	}

	o1 := in.Opaque("exception_state")
	o2 := in.Opaque("exception_state")
	if o1 != o2 {
		t.Error("equal opaque types not interned to one instance")
	}
	if in.Opaque("property_iterator").Equal(o1) {
		t.Error("distinct opaque names compare equal")
	}

	r1 := in.ReferenceTo("x")
	r2 := in.ReferenceTo("x")
	if r1 != r2 {
		t.Error("equal reference types not interned to one instance")
	}
}

func TestInternerCrossInstanceEquality(t *testing.T) {
	// Two interners never share pointer identity, but structural
	// equality still holds across them.
	a := NewInterner().Array(Pointer(ValueType()), 3)
	b := NewInterner().Array(Pointer(ValueType()), 3)
	if a == b {
		t.Error("distinct interners returned one instance")
	}
	if !a.Equal(b) {
		t.Error("structurally equal types from distinct interners not Equal")
	}
}

func TestTypeOrdering(t *testing.T) {
	in := NewInterner()
	cases := []struct {
		lo, hi *Type
	}{
		{Void(), Boolean()},
		{Boolean(), Double()},
		{Double(), String()},
		{String(), ValueType()},
		{in.Array(Double(), 1), in.Array(Double(), 2)},
		{in.Array(Boolean(), 9), in.Array(Double(), 1)},
		{in.Opaque("a"), in.Opaque("b")},
	}
	for _, c := range cases {
		if !c.lo.Less(c.hi) {
			t.Errorf("%s not less than %s", c.lo, c.hi)
		}
		if c.hi.Less(c.lo) {
			t.Errorf("%s less than %s", c.hi, c.lo)
		}
	}
	if ValueType().Less(ValueType()) {
		t.Error("type less than itself")
	}
}

func TestTypeString(t *testing.T) {
	in := NewInterner()
	cases := []struct {
		typ  *Type
		want string
	}{
		{Void(), "void"},
		{ValueType(), "value"},
		{in.Array(ValueType(), 3), "value[3]"},
		{in.Pointer(Double()), "double*"},
		{in.Opaque("property_iterator"), "opaque(property_iterator)"},
		{in.ReferenceTo("x"), "reference(x)"},
		{Reference(), "reference"},
	}
	for _, c := range cases {
		if got := c.typ.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}
