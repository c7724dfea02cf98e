package lower

import "github.com/RobertoMalatesta/descripten/ir"

// ScopeKind names the five scope-frame kinds a Lowerer's scope stack can
// hold, mirroring original_source/ir/compiler.hh's Scope::Type.
type ScopeKind int

const (
	ScopeDefault ScopeKind = iota
	ScopeIteration
	ScopeSwitch
	ScopeFunction
	ScopeWith
)

// epilogue is a late-bound block of cleanup code run when control leaves
// a scope — a `with` or catch scope's ctx_leave, a copy of a try
// statement's `finally` body. It is a
// Go closure rather than the original's TemplateBlock: the original
// defers epilogue codegen because the target IR address isn't known
// until the whole function has been laid out; here the closure plays
// that role; it is invoked with the ir.Block execution has reached and
// itself issues the catch-up instructions.
type epilogue func(b *ir.Block)

// scope is one frame of the Lowerer's scope stack: the Go analogue of
// ir::compiler.hh's Scope, reshaped as a plain struct (no stack-frame
// slot/temporary bookkeeping — SPEC_FULL.md's IR has no such notion;
// ir.Block.Instructions already supplies ordering, and MemAlloc supplies
// storage).
type scope struct {
	Kind ScopeKind

	Labels map[string]bool

	// CatchName is the identifier a catch scope binds. A frame binding
	// name blocks compile-time resolution of that name: the catch
	// binding lives on the runtime scope chain, not in a slot.
	CatchName string

	ContinueTarget *ir.Block // ScopeIteration only
	BreakTarget    *ir.Block // ScopeIteration, ScopeSwitch, block and try frames

	Epilogue epilogue // ScopeWith and catch frames (ctx_leave), try/finally frames

	// Locals maps a declared name to the ir.Value holding its storage,
	// the in-scope binding lowering resolves identifier references
	// against before falling back to ctx_get against the scope chain.
	Locals map[string]ir.Value

	// CacheMap reuses one ctx_get/ctx_put inline-cache id per distinct
	// key within this scope. Ids themselves come from the Module-wide
	// allocator, so two scopes never share an id.
	CacheMap map[ir.Key]uint16

	// ScopeStacks maps a hop distance to the bnd_extra_ptr value giving
	// this function access to that enclosing frame's extra-bindings
	// record. Function scopes only.
	ScopeStacks map[int]ir.Value
}

func newScope(kind ScopeKind) *scope {
	return &scope{
		Kind:        kind,
		Labels:      make(map[string]bool),
		Locals:      make(map[string]ir.Value),
		CacheMap:    make(map[ir.Key]uint16),
		ScopeStacks: make(map[int]ir.Value),
	}
}

func (s *scope) hasLabel(label string) bool { return s.Labels[label] }

// scopeStack is the Lowerer's active chain of scope frames, innermost
// last.
type scopeStack struct {
	frames []*scope
}

func (s *scopeStack) push(sc *scope) { s.frames = append(s.frames, sc) }

func (s *scopeStack) pop() *scope {
	sc := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return sc
}

func (s *scopeStack) top() *scope { return s.frames[len(s.frames)-1] }
