package ir

import "fmt"

// Constant is the sub-variety of Value representing a value known at
// lowering time: a typed null, a literal boolean/double/string, one of
// the five script singleton values, or one of the module-local pseudo
// slots (array element, callee, return).
type Constant interface {
	Value
	constantMarker()
}

type constBase struct{ valueBase }

func (constBase) IsConstant() bool { return true }
func (constBase) constantMarker()  {}

// ArrayElementConstant denotes the i'th element of an array or pointer
// value, e.g. a formal parameter's slot in the arguments array.
type ArrayElementConstant struct {
	constBase
	Array Value
	Index int
}

// NewArrayElementConstant builds an ArrayElementConstant. arr must be an
// array(T,N) or pointer(T) value; the constant's type is T.
func NewArrayElementConstant(arr Value, index int) *ArrayElementConstant {
	k := arr.Type().Kind()
	if k != KindArray && k != KindPointer {
		panic(fmt.Sprintf("ir: array element constant over non-array/pointer type %s", arr.Type()))
	}
	return &ArrayElementConstant{Array: arr, Index: index}
}

func (c *ArrayElementConstant) Type() *Type { return c.Array.Type().Elem() }

// CalleeConstant denotes the function's own callee slot (used by named
// recursive calls that need to refer to the currently-executing function
// without a fresh ctx_get).
type CalleeConstant struct{ constBase }

func (c *CalleeConstant) Type() *Type { return ValueType() }

// ReturnConstant denotes the function's return-value slot.
type ReturnConstant struct{ constBase }

func (c *ReturnConstant) Type() *Type { return ValueType() }

// NullConstant is a typed null pointer/opaque handle, e.g. the initial
// value of a property iterator slot before prp_it_new runs.
type NullConstant struct {
	constBase
	T *Type
}

func NewNullConstant(t *Type) *NullConstant { return &NullConstant{T: t} }

func (c *NullConstant) Type() *Type { return c.T }

// BooleanConstant is a literal boolean.
type BooleanConstant struct {
	constBase
	Val bool
}

func NewBooleanConstant(v bool) *BooleanConstant { return &BooleanConstant{Val: v} }

func (c *BooleanConstant) Type() *Type { return Boolean() }

// DoubleConstant is a literal double.
type DoubleConstant struct {
	constBase
	Val float64
}

func NewDoubleConstant(v float64) *DoubleConstant { return &DoubleConstant{Val: v} }

func (c *DoubleConstant) Type() *Type { return Double() }

// StringifiedDoubleConstant is a literal double given in source text
// form, deferring the text-to-double parse to the runtime/emitter (used
// when the lexer hands the lowering a NumberLiteral's raw digits rather
// than a pre-parsed float64).
type StringifiedDoubleConstant struct {
	constBase
	Val string
}

func NewStringifiedDoubleConstant(v string) *StringifiedDoubleConstant {
	return &StringifiedDoubleConstant{Val: v}
}

func (c *StringifiedDoubleConstant) Type() *Type { return Double() }

// StringConstant is a literal string.
type StringConstant struct {
	constBase
	Val string
}

func NewStringConstant(v string) *StringConstant { return &StringConstant{Val: v} }

func (c *StringConstant) Type() *Type { return String() }

// ScriptValue names one of the five value-type singletons a ValueConstant
// may hold.
type ScriptValue int

const (
	Nothing ScriptValue = iota
	Undefined
	Null
	True
	False
)

func (v ScriptValue) String() string {
	switch v {
	case Nothing:
		return "nothing"
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "<unknown script value>"
	}
}

// ValueConstant is one of the script language's singleton values,
// boxed into the tagged dynamic value type.
type ValueConstant struct {
	constBase
	Val ScriptValue
}

func NewValueConstant(v ScriptValue) *ValueConstant { return &ValueConstant{Val: v} }

func (c *ValueConstant) Type() *Type { return ValueType() }
