package ir

import (
	"strings"
	"testing"
)

func TestDumpShape(t *testing.T) {
	m := NewModule()
	m.InternString("x")

	fn := NewFunction("f")
	fn.ParamCount = 0
	m.PushFunction(fn)

	entry := fn.EntryBlock()
	entry.PushCtxSetStrict(false)
	slot := entry.PushMemAlloc(ValueType())
	get := entry.PushCtxGet(m.Keys.KeyFor("x"), slot, 7)

	body := fn.PushBlock(NewBlock("body"))
	expt := fn.PushBlock(NewBlock("expt"))
	entry.PushBranch(get, body, expt)

	body.PushMemStore(&ReturnConstant{}, slot)
	body.PushReturn(NewBooleanConstant(true))
	expt.PushReturn(NewBooleanConstant(false))

	dump := m.Dump()

	for _, want := range []string{
		`str#0 "x"`,
		"function f(0)",
		"entry:",
		"ctx_set_strict false",
		"mem_alloc value",
		`ctx_get "x"`,
		"br",
		"mem_store retval",
		"ret true",
		"ret false",
	} {
		if !strings.Contains(dump, want) {
			t.Errorf("dump missing %q:\n%s", want, dump)
		}
	}

	// Branch pushed the terminator after the target blocks existed;
	// operand numbering still starts from the first result-producing
	// instruction.
	if !strings.Contains(dump, "%0 = mem_alloc value") {
		t.Errorf("value numbering does not start at %%0:\n%s", dump)
	}
}
