package ir

// Instruction is a typed Value representing one operation in a Block.
// Concrete instruction types are a closed set, one Go struct per IR
// operation — a tagged sum rather than a visitor hierarchy. IsTerminating
// is true only for Branch, Jump and Return; the builder enforces that
// only those may be a block's last instruction.
//
// Instructions that may set the pending exception (the call family, the
// context and property families, script arithmetic, the faulting value
// coercions) are boolean-typed: the instruction's own value is the
// completed-normally flag, and lowering branches on it to the active
// landing pad. Their script-level result, when they have one, is written
// through a caller-supplied slot operand instead.
type Instruction interface {
	Value
	IsTerminating() bool
}

type instBase struct{ valueBase }

func (instBase) IsTerminating() bool { return false }

// ---- Arguments object ----------------------------------------------------

// ArgsObjInit allocates backing storage for an Argc-element arguments
// object.
type ArgsObjInit struct {
	instBase
	Argc int
}

func (i *ArgsObjInit) Type() *Type { return ValueType() }

// ArgsObjLink writes val into slot Index of an arguments object produced
// by ArgsObjInit, emitted for every allocated formal parameter of a
// function that needs an arguments object, so that writes through
// arguments[i] and the named binding observe each other.
type ArgsObjLink struct {
	instBase
	Args  Value
	Index int
	Val   Value
}

func (i *ArgsObjLink) Type() *Type { return Void() }

// ---- Stack array ----------------------------------------------------------

// ArrGet reads element Index of a stack array.
type ArrGet struct {
	instBase
	Index int
	Arr   Value
}

func (i *ArrGet) Type() *Type { return i.Arr.Type().Elem() }

// ArrPut writes Val into element Index of a stack array.
type ArrPut struct {
	instBase
	Index int
	Arr   Value
	Val   Value
}

func (i *ArrPut) Type() *Type { return Void() }

// ---- Typed binary / compare (non-script primitives) ------------------------

// BinOp names a typed binary operation over non-script primitive values.
type BinOp int

const (
	BinAdd BinOp = iota
	BinSub
	BinOr
	BinEq
)

func (op BinOp) String() string {
	switch op {
	case BinAdd:
		return "add"
	case BinSub:
		return "sub"
	case BinOr:
		return "or"
	case BinEq:
		return "eq"
	default:
		return "<unknown bin op>"
	}
}

// BinInst is a typed binary/compare operation over primitives (as opposed
// to EsBinary, which implements full script arithmetic semantics).
type BinInst struct {
	instBase
	Op    BinOp
	Left  Value
	Right Value
}

func (i *BinInst) Type() *Type {
	if i.Op == BinEq {
		return Boolean()
	}
	return i.Left.Type()
}

// ---- Extra-bindings slot (closures via displays) ---------------------------

// BndExtraInit allocates the current function's extra-bindings record,
// sized to hold every name captured by a nested function literal. The
// record is a heap array of value slots; the result points at its first
// slot.
type BndExtraInit struct {
	instBase
	NumExtra int
}

func (i *BndExtraInit) Type() *Type { return Pointer(ValueType()) }

// BndExtraPtr obtains a pointer to the extra-bindings record Hops lexical
// nesting levels up from the current function.
type BndExtraPtr struct {
	instBase
	Hops int
}

func (i *BndExtraPtr) Type() *Type { return Pointer(ValueType()) }

// ---- Call family ------------------------------------------------------------

// Call invokes a function value directly.
type Call struct {
	instBase
	Fun  Value
	Argc int
	Argv Value
	Res  Value
}

func (i *Call) Type() *Type { return Boolean() }

// CallKeyed invokes a method looked up by an interned key (fast path of
// o.m(...)).
type CallKeyed struct {
	instBase
	Obj  Value
	Key  Key
	Argc int
	Argv Value
	Res  Value
}

func (i *CallKeyed) Type() *Type { return Boolean() }

// CallKeyedSlow invokes a method looked up by a runtime key value (slow
// path of o[e](...)).
type CallKeyedSlow struct {
	instBase
	Obj  Value
	Key  Value
	Argc int
	Argv Value
	Res  Value
}

func (i *CallKeyedSlow) Type() *Type { return Boolean() }

// CallNamed invokes a function whose callee is a bare identifier; the
// runtime resolves the name against the scope chain and enforces the
// `this` binding rule for unqualified calls.
type CallNamed struct {
	instBase
	Key  Key
	Argc int
	Argv Value
	Res  Value
}

func (i *CallNamed) Type() *Type { return Boolean() }

// CallNew invokes a function as a constructor (`new f(...)`).
type CallNew struct {
	instBase
	Fun  Value
	Argc int
	Argv Value
	Res  Value
}

func (i *CallNew) Type() *Type { return Boolean() }

// ---- Memory -----------------------------------------------------------------

// MemAlloc allocates stack storage for a value of type T. The
// instruction stands in for the slot itself: storing through it uses
// MemStore with the instruction as Dst, and reading it is simply using
// the instruction as an operand.
type MemAlloc struct {
	instBase
	T *Type
}

func (i *MemAlloc) Type() *Type { return i.T }

// MemStore writes Src through pointer Dst.
type MemStore struct {
	instBase
	Dst Value
	Src Value
}

func (i *MemStore) Type() *Type { return Void() }

// MemElmPtr computes the address of element Index of an array or
// pointed-to value.
type MemElmPtr struct {
	instBase
	Val   Value
	Index int
}

func (i *MemElmPtr) Type() *Type { return Pointer(i.Val.Type().Elem()) }

// ---- Value coercion ----------------------------------------------------------

// ValOp names a value-coercion operation.
type ValOp int

const (
	ValToBoolean ValOp = iota
	ValToDouble
	ValToString
	ValFromBoolean
	ValFromDouble
	ValFromString
	ValIsNull
	ValIsUndefined
	ValTestCoercibility
)

// ValInst coerces between the tagged dynamic value type and a typed
// primitive, or tests a value's nullishness/coercibility.
//
// ValToBoolean, ValIsNull and ValIsUndefined cannot fault; the boolean
// they produce is the answer. ValToDouble and ValToString run ToPrimitive
// and may set the pending exception, so they write the coerced primitive
// through Res and produce the completed-normally flag instead.
// ValTestCoercibility sets the pending exception (a TypeError) when Val
// is null or undefined, producing the completed-normally flag; it has no
// Res. ValFrom* boxing cannot fault and is SSA-valued: the instruction
// itself is the boxed value.
type ValInst struct {
	instBase
	Op  ValOp
	Val Value
	Res Value // ValToDouble, ValToString only
}

func (i *ValInst) Type() *Type {
	switch i.Op {
	case ValToBoolean, ValIsNull, ValIsUndefined:
		return Boolean()
	case ValToDouble, ValToString, ValTestCoercibility:
		return Boolean()
	case ValFromBoolean, ValFromDouble, ValFromString:
		return ValueType()
	default:
		return Void()
	}
}

// ---- Terminators --------------------------------------------------------------

type termBase struct{ instBase }

func (termBase) IsTerminating() bool { return true }

// Branch transfers control to TrueBlock or FalseBlock depending on Cond.
type Branch struct {
	termBase
	Cond       Value
	TrueBlock  *Block
	FalseBlock *Block
}

func (i *Branch) Type() *Type { return Void() }

// Jump transfers control unconditionally to Target.
type Jump struct {
	termBase
	Target *Block
}

func (i *Jump) Type() *Type { return Void() }

// Return exits the enclosing Function with Val (possibly nil for a
// value-less return).
type Return struct {
	termBase
	Val Value
}

func (i *Return) Type() *Type { return Void() }

// ---- Context ------------------------------------------------------------------

// CtxSetStrict records the function's strict-mode flag on the execution
// context.
type CtxSetStrict struct {
	instBase
	Strict bool
}

func (i *CtxSetStrict) Type() *Type { return Void() }

// CtxEnterCatch pushes a catch scope binding Key to the caught exception
// value.
type CtxEnterCatch struct {
	instBase
	Key Key
}

func (i *CtxEnterCatch) Type() *Type { return Boolean() }

// CtxEnterWith pushes a `with` scope over Val.
type CtxEnterWith struct {
	instBase
	Val Value
}

func (i *CtxEnterWith) Type() *Type { return Boolean() }

// CtxLeave pops the innermost catch/with scope. Every CtxEnterCatch and
// CtxEnterWith on any control-flow path has exactly one matching
// CtxLeave on that path (testable property 7).
type CtxLeave struct{ instBase }

func (i *CtxLeave) Type() *Type { return Void() }

// CtxThis reads the current `this` binding.
type CtxThis struct{ instBase }

func (i *CtxThis) Type() *Type { return ValueType() }

// CtxGet resolves Key against the scope chain into Res, through the
// per-site inline cache identified by CacheID.
type CtxGet struct {
	instBase
	Key     Key
	Res     Value
	CacheID uint16
}

func (i *CtxGet) Type() *Type { return Boolean() }

// CtxPut assigns Val to Key in the scope chain, through the per-site
// inline cache identified by CacheID. In strict mode the runtime fails
// if no binding for Key exists.
type CtxPut struct {
	instBase
	Key     Key
	Val     Value
	CacheID uint16
}

func (i *CtxPut) Type() *Type { return Boolean() }

// CtxDel deletes the binding named by Key from the scope chain, writing
// whether the deletion succeeded into Res.
type CtxDel struct {
	instBase
	Key Key
	Res Value
}

func (i *CtxDel) Type() *Type { return Boolean() }

// ---- Meta references ----------------------------------------------------------

// MetaCtxLoad is a compile-time placeholder for an unresolved environment
// reference to Name: the lowered form of an identifier whose binding
// could not be resolved to a local slot. It never reaches the emitter —
// every consumer expands it into a ctx_get/ctx_put before the enclosing
// Function is closed.
type MetaCtxLoad struct {
	instBase
	Key  Key
	Name string
}

func (i *MetaCtxLoad) Type() *Type { return ReferenceTo(i.Name) }

// MetaPrpLoad is a compile-time placeholder for a property reference
// (Obj, Key): the lowered form of a property expression before its
// consumer decides between get, put and delete. Like MetaCtxLoad it is
// always expanded before the Function is closed.
type MetaPrpLoad struct {
	instBase
	Obj Value
	Key Value
}

func (i *MetaPrpLoad) Type() *Type { return Reference() }

// ---- Exception ----------------------------------------------------------------

// ExSaveState captures the current pending-exception slot into an opaque
// token, for later restoration by ExLoadState (used at the entry of a
// `finally` block).
type ExSaveState struct{ instBase }

func (i *ExSaveState) Type() *Type { return Opaque("exception_state") }

// ExLoadState restores the pending-exception slot from a token captured
// by ExSaveState.
type ExLoadState struct {
	instBase
	State Value
}

func (i *ExLoadState) Type() *Type { return Void() }

// ExSet sets the pending exception to Val (lowering of `throw`).
type ExSet struct {
	instBase
	Val Value
}

func (i *ExSet) Type() *Type { return Void() }

// ExClear clears the pending exception (entry of a `catch` body after
// binding the caught value).
type ExClear struct{ instBase }

func (i *ExClear) Type() *Type { return Void() }

// ---- Declarations / links ------------------------------------------------------

// DeclKind distinguishes the three binding categories a Decl or Link
// instruction introduces.
type DeclKind int

const (
	DeclFunction DeclKind = iota
	DeclVariable
	DeclParameter
)

// InitArgs copies the function's Argc actual arguments into fixed slot
// array Dst.
type InitArgs struct {
	instBase
	Dst  Value
	Prmc int
}

func (i *InitArgs) Type() *Type { return Void() }

// InitArgsObj creates and initializes the `arguments` object from the
// Prmc-element parameter array Prmv.
type InitArgsObj struct {
	instBase
	Prmc int
	Prmv Value
}

func (i *InitArgsObj) Type() *Type { return ValueType() }

// Decl introduces a binding in the current environment: a `var`
// declaration, a function declaration bound to Val, or the Index'th
// formal parameter read from ParamArray.
type Decl struct {
	instBase
	Kind       DeclKind
	Key        Key
	IsStrict   bool
	Val        Value // DeclFunction only
	ParamIndex int   // DeclParameter only
	ParamArray Value // DeclParameter only
}

func (i *Decl) Type() *Type { return Boolean() }

// Link binds Key to a slot whose storage is owned by an outer frame
// (closure capture) rather than declared locally.
type Link struct {
	instBase
	Kind     DeclKind
	Key      Key
	IsStrict bool
	Val      Value
}

func (i *Link) Type() *Type { return Void() }

// ---- Property -----------------------------------------------------------------

// PrpDefData defines a new data property Key on Obj with value Val.
type PrpDefData struct {
	instBase
	Obj Value
	Key Value
	Val Value
}

func (i *PrpDefData) Type() *Type { return Boolean() }

// PrpDefAccessor defines a getter or setter accessor property Key on Obj
// backed by Fun.
type PrpDefAccessor struct {
	instBase
	Obj      Value
	Key      Key
	Fun      Value
	IsSetter bool
}

func (i *PrpDefAccessor) Type() *Type { return Boolean() }

// PrpItNew creates a new property-name iterator over Obj (used by
// `for-in`).
type PrpItNew struct {
	instBase
	Obj Value
}

func (i *PrpItNew) Type() *Type { return Opaque("property_iterator") }

// PrpItNext advances It, writing the next property name into Val and
// returning false when exhausted.
type PrpItNext struct {
	instBase
	It  Value
	Val Value
}

func (i *PrpItNext) Type() *Type { return Boolean() }

// PrpGet reads property Key of Obj into Res (fast path, interned key).
type PrpGet struct {
	instBase
	Obj Value
	Key Key
	Res Value
}

func (i *PrpGet) Type() *Type { return Boolean() }

// PrpGetSlow reads property Key of Obj into Res (slow path, runtime key
// value — subscript access `o[e]`).
type PrpGetSlow struct {
	instBase
	Obj Value
	Key Value
	Res Value
}

func (i *PrpGetSlow) Type() *Type { return Boolean() }

// PrpPut writes Val to property Key of Obj (fast path).
type PrpPut struct {
	instBase
	Obj Value
	Key Key
	Val Value
}

func (i *PrpPut) Type() *Type { return Boolean() }

// PrpPutSlow writes Val to property Key of Obj (slow path).
type PrpPutSlow struct {
	instBase
	Obj Value
	Key Value
	Val Value
}

func (i *PrpPutSlow) Type() *Type { return Boolean() }

// PrpDel deletes property Key from Obj, writing success into Res (fast
// path).
type PrpDel struct {
	instBase
	Obj Value
	Key Key
	Res Value
}

func (i *PrpDel) Type() *Type { return Boolean() }

// PrpDelSlow deletes property Key from Obj, writing success into Res
// (slow path).
type PrpDelSlow struct {
	instBase
	Obj Value
	Key Value
	Res Value
}

func (i *PrpDelSlow) Type() *Type { return Boolean() }

// ---- Script-level constructors ---------------------------------------------------

// EsNewArr constructs a new script array of Length from Vals.
type EsNewArr struct {
	instBase
	Length int
	Vals   Value
}

func (i *EsNewArr) Type() *Type { return ValueType() }

// EsNewFunDecl constructs the function object for a function declaration.
type EsNewFunDecl struct {
	instBase
	Fun        *Function
	ParamCount int
	IsStrict   bool
}

func (i *EsNewFunDecl) Type() *Type { return ValueType() }

// EsNewFunExpr constructs the function object for a function expression.
type EsNewFunExpr struct {
	instBase
	Fun        *Function
	ParamCount int
	IsStrict   bool
}

func (i *EsNewFunExpr) Type() *Type { return ValueType() }

// EsNewObj constructs a new plain script object.
type EsNewObj struct{ instBase }

func (i *EsNewObj) Type() *Type { return ValueType() }

// EsNewRex constructs a new regular-expression object from a literal
// pattern and flags.
type EsNewRex struct {
	instBase
	Pattern string
	Flags   string
}

func (i *EsNewRex) Type() *Type { return ValueType() }

// ---- Script arithmetic --------------------------------------------------------------

// EsBinOp names a binary script-language operator with full ECMAScript
// coercion semantics.
type EsBinOp int

const (
	EsMul EsBinOp = iota
	EsDiv
	EsMod
	EsAdd
	EsSub
	EsLs
	EsRss
	EsRus
	EsLt
	EsGt
	EsLte
	EsGte
	EsIn
	EsInstanceof
	EsEq
	EsNeq
	EsStrictEq
	EsStrictNeq
	EsBitAnd
	EsBitXor
	EsBitOr
)

func (op EsBinOp) String() string {
	names := [...]string{
		"mul", "div", "mod", "add", "sub", "ls", "rss", "rus",
		"lt", "gt", "lte", "gte", "in", "instanceof",
		"eq", "neq", "strict_eq", "strict_neq",
		"bit_and", "bit_xor", "bit_or",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "<unknown es bin op>"
}

// EsBinary computes Left `Op` Right into Res with full ECMAScript
// coercion semantics (ToPrimitive/ToNumber/ToString, NaN handling, the
// `+` string-or-number dispatch, the `instanceof` prototype walk, etc.),
// possibly setting a pending exception.
type EsBinary struct {
	instBase
	Op    EsBinOp
	Left  Value
	Right Value
	Res   Value
}

func (i *EsBinary) Type() *Type { return Boolean() }

// EsUnaryOp names a unary script-language operator.
type EsUnaryOp int

const (
	EsTypeof EsUnaryOp = iota
	EsNeg
	EsBitNot
	EsLogNot
)

func (op EsUnaryOp) String() string {
	switch op {
	case EsTypeof:
		return "typeof"
	case EsNeg:
		return "neg"
	case EsBitNot:
		return "bit_not"
	case EsLogNot:
		return "log_not"
	default:
		return "<unknown es unary op>"
	}
}

// EsUnary computes `Op` Val into Res, possibly setting a pending
// exception (e.g. ToPrimitive during `typeof` on a reference).
type EsUnary struct {
	instBase
	Op  EsUnaryOp
	Val Value
	Res Value
}

func (i *EsUnary) Type() *Type { return Boolean() }
