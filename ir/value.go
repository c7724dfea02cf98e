package ir

// Value is anything that carries a Type: instructions and constants. A
// Value that is persistent has its lifetime analysis disabled and is
// treated as live for the whole enclosing Function — set whenever the
// lowering takes the value's address (MemElmPtr), closes over it, or
// threads it across a block boundary through memory (an exception-state
// token, a logical/ternary join slot).
type Value interface {
	Type() *Type
	IsConstant() bool
	Persistent() bool
	MakePersistent()
}

// valueBase is embedded by every concrete instruction and constant to
// supply the persistent flag and the default IsConstant() = false.
type valueBase struct {
	persistent bool
}

func (v *valueBase) Persistent() bool { return v.persistent }
func (v *valueBase) MakePersistent()  { v.persistent = true }
func (v *valueBase) IsConstant() bool { return false }
