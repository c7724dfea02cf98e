package ir

import "testing"

func TestBlockTermination(t *testing.T) {
	fn := NewFunction("f")
	entry := fn.EntryBlock()
	if entry.Terminated() {
		t.Fatal("fresh block already terminated")
	}

	entry.PushCtxSetStrict(false)
	if entry.Terminated() {
		t.Fatal("non-terminator terminated the block")
	}

	exit := fn.PushBlock(NewBlock("exit"))
	entry.PushJump(exit)
	if !entry.Terminated() {
		t.Fatal("jump did not terminate the block")
	}
}

func TestPushOntoTerminatedBlockPanics(t *testing.T) {
	fn := NewFunction("f")
	entry := fn.EntryBlock()
	entry.PushReturn(NewBooleanConstant(true))

	defer func() {
		if recover() == nil {
			t.Fatal("push onto terminated block did not panic")
		}
	}()
	entry.PushCtxLeave()
}

func TestDoubleTerminatorPanics(t *testing.T) {
	fn := NewFunction("f")
	entry := fn.EntryBlock()
	entry.PushReturn(NewBooleanConstant(true))

	defer func() {
		if recover() == nil {
			t.Fatal("second terminator did not panic")
		}
	}()
	entry.PushReturn(NewBooleanConstant(false))
}

func TestReferrerRegistration(t *testing.T) {
	fn := NewFunction("f")
	entry := fn.EntryBlock()
	a := fn.PushBlock(NewBlock("a"))
	b := fn.PushBlock(NewBlock("b"))

	cond := NewBooleanConstant(true)
	entry.PushBranch(cond, a, b)

	for _, blk := range []*Block{a, b} {
		found := false
		for _, r := range blk.Referrers {
			if r == entry {
				found = true
			}
		}
		if !found {
			t.Errorf("block %q missing referrer %q", blk.Label, entry.Label)
		}
	}

	join := fn.PushBlock(NewBlock("join"))
	a.PushJump(join)
	b.PushJump(join)
	if len(join.Referrers) != 2 {
		t.Errorf("join referrers = %d, want 2", len(join.Referrers))
	}
}

func TestInstructionResultTypes(t *testing.T) {
	fn := NewFunction("f")
	b := fn.EntryBlock()

	arr := b.PushMemAlloc(Array(ValueType(), 2))
	if got := arr.Type().String(); got != "value[2]" {
		t.Errorf("mem_alloc type = %s, want value[2]", got)
	}

	slot := b.PushMemAlloc(ValueType())
	if slot.Type().Kind() != KindValue {
		t.Errorf("mem_alloc value type = %s", slot.Type())
	}

	p := b.PushMemElmPtr(arr, 0)
	if got := p.Type().String(); got != "value*" {
		t.Errorf("mem_elm_ptr type = %s, want value*", got)
	}

	get := b.PushArrGet(arr, 1)
	if get.Type().Kind() != KindValue {
		t.Errorf("arr_get type = %s", get.Type())
	}

	// Faulting instructions carry the completed-normally flag.
	call := b.PushCall(slot, 0, arr, slot)
	if call.Type().Kind() != KindBoolean {
		t.Errorf("call type = %s, want boolean", call.Type())
	}
	get2 := b.PushCtxGet(Key(1), slot, 0)
	if get2.Type().Kind() != KindBoolean {
		t.Errorf("ctx_get type = %s, want boolean", get2.Type())
	}
	bin := b.PushEsBinary(EsAdd, slot, slot, slot)
	if bin.Type().Kind() != KindBoolean {
		t.Errorf("es_bin_add type = %s, want boolean", bin.Type())
	}

	box := b.PushValFromDouble(NewDoubleConstant(1))
	if box.Type().Kind() != KindValue {
		t.Errorf("val_from_double type = %s, want value", box.Type())
	}
	d := b.PushMemAlloc(Double())
	conv := b.PushValToDouble(box, d)
	if conv.Type().Kind() != KindBoolean {
		t.Errorf("val_to_double type = %s, want boolean", conv.Type())
	}

	it := b.PushPrpItNew(slot)
	if got := it.Type().String(); got != "opaque(property_iterator)" {
		t.Errorf("prp_it_new type = %s", got)
	}

	tok := b.PushExSaveState()
	if got := tok.Type().String(); got != "opaque(exception_state)" {
		t.Errorf("ex_save_state type = %s", got)
	}
}

func TestPersistence(t *testing.T) {
	fn := NewFunction("f")
	b := fn.EntryBlock()

	slot := b.PushMemAlloc(ValueType())
	if slot.Persistent() {
		t.Error("fresh value already persistent")
	}
	slot.MakePersistent()
	if !slot.Persistent() {
		t.Error("MakePersistent did not stick")
	}
}

func TestFunctionEntryBlockInvariant(t *testing.T) {
	fn := NewFunction("f")
	if len(fn.Blocks) != 1 {
		t.Fatalf("new function has %d blocks, want 1", len(fn.Blocks))
	}
	if fn.EntryBlock() != fn.Blocks[0] {
		t.Error("entry block is not Blocks[0]")
	}
	if fn.LastBlock() != fn.Blocks[0] {
		t.Error("last block of fresh function is not the entry")
	}
}
