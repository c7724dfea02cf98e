package lower

import (
	"fmt"

	"github.com/RobertoMalatesta/descripten/ast"
	"github.com/RobertoMalatesta/descripten/ir"
)

// Lowerer drives one compilation: analysis of the whole function tree
// followed by a single bottom-up emission pass producing an ir.Module.
// A Lowerer is single-use; all of its state is scoped to one Lower call.
type Lowerer struct {
	module *ir.Module
	an     *analyzer

	scopes           scopeStack
	exceptionActions []padAction
	inEpilogue       bool

	funs []*funcState

	diags []Diagnostic

	blockSeq int
	funSeq   int
}

// funcState is the per-function lowering state not already carried by a
// scope frame: the strict-mode flag inherited down the lexical nesting
// and the global-code marker that gates return statements.
type funcState struct {
	strict   bool
	isGlobal bool
}

// New creates a Lowerer for one compilation.
func New() *Lowerer {
	return &Lowerer{
		module: ir.NewModule(),
		an:     newAnalyzer(),
	}
}

// lowerAbort carries the fail-fast unwind of a compile-time diagnostic
// from the emission site back to Lower. Any other panic is an internal
// invariant violation and is left to propagate.
type lowerAbort struct{}

// Lower lowers program (the top-level statement list of a script) to an
// ir.Module. On a compile-time error it returns a nil module and the
// diagnostics; lowering halts at the first diagnostic. Programming
// errors — builder misuse, an AST violating the shape the parser
// guarantees — panic instead.
func (l *Lowerer) Lower(program []ast.Statement) (m *ir.Module, diags []Diagnostic) {
	root := &ast.FunctionLit{
		Body:     program,
		IsStrict: hasStrictDirective(program),
	}

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(lowerAbort); !ok {
				panic(r)
			}
			m, diags = nil, l.diags
		}
	}()

	l.an.analyze(root)
	l.parseFun(root, true, false)
	return l.module, nil
}

// hasStrictDirective reports whether a function body opens with the
// "use strict" directive prologue.
func hasStrictDirective(body []ast.Statement) bool {
	for _, s := range body {
		es, ok := s.(*ast.ExprStmt)
		if !ok {
			return false
		}
		lit, ok := es.Expr.(*ast.StringLit)
		if !ok {
			return false
		}
		if lit.Val == "use strict" {
			return true
		}
	}
	return false
}

// fail records a diagnostic and aborts the compilation.
func (l *Lowerer) fail(span ast.Meta, format string, args ...any) {
	l.diags = append(l.diags, diag(span, format, args...))
	panic(lowerAbort{})
}

func (l *Lowerer) cur() *funcState { return l.funs[len(l.funs)-1] }

func (l *Lowerer) strict() bool { return l.cur().strict }

// newBlock creates an unattached block with a compilation-unique label.
func (l *Lowerer) newBlock() *ir.Block {
	l.blockSeq++
	return ir.NewBlock(fmt.Sprintf("b%d", l.blockSeq))
}

// keyFor interns an identifier into the module-wide 64-bit key space.
func (l *Lowerer) keyFor(name string) ir.Key {
	l.module.InternString(name)
	return l.module.Keys.KeyFor(name)
}

// ctxCacheID returns the inline-cache id for a ctx_get/ctx_put of key at
// the current position: one id per distinct key per function or with
// scope, issued by the module-wide allocator.
func (l *Lowerer) ctxCacheID(key ir.Key) uint16 {
	for i := len(l.scopes.frames) - 1; i >= 0; i-- {
		sc := l.scopes.frames[i]
		if sc.Kind != ScopeFunction && sc.Kind != ScopeWith {
			continue
		}
		if cid, ok := sc.CacheMap[key]; ok {
			return cid
		}
		cid := l.module.Caches.Next()
		sc.CacheMap[key] = cid
		return cid
	}
	panic("lower: no function scope for cache id")
}

// nextFunName produces a module-unique name for a lowered function.
func (l *Lowerer) nextFunName(base string) string {
	if base == "" {
		base = "anon"
	}
	l.funSeq++
	return fmt.Sprintf("_%s_%d", base, l.funSeq)
}

// parseFun lowers one function literal (or the synthetic global
// function) into a fresh ir.Function, emitting the
// declaration-instantiation prologue and then the body.
func (l *Lowerer) parseFun(lit *ast.FunctionLit, isGlobal, parentStrict bool) *ir.Function {
	strict := parentStrict || lit.IsStrict || hasStrictDirective(lit.Body)

	if strict {
		seen := make(map[string]bool, len(lit.Params))
		for _, p := range lit.Params {
			if seen[p] {
				l.fail(lit.Span(), "duplicate parameter name %q not allowed in strict mode", p)
			}
			seen[p] = true
		}
	}

	name := ir.GlobalFunctionName
	if !isGlobal {
		name = l.nextFunName(lit.Name)
	}

	fn := ir.NewFunction(name)
	fn.IsGlobal = isGlobal
	fn.IsStrict = strict
	fn.ParamCount = len(lit.Params)
	l.module.PushFunction(fn)

	fn.LastBlock().PushCtxSetStrict(strict)

	l.funs = append(l.funs, &funcState{strict: strict, isGlobal: isGlobal})
	defer func() { l.funs = l.funs[:len(l.funs)-1] }()

	sc := newScope(ScopeFunction)
	l.scopes.push(sc)
	defer l.scopes.pop()

	l.pushExceptionAction(returnFalseAction)
	defer l.popExceptionAction()

	af := l.an.lookup(lit)
	if af == nil {
		panic(fmt.Sprintf("lower: function %q was not analyzed", name))
	}

	bodyBlock := l.newBlock()
	exptBlock := l.newBlock()

	// Locals array and extra-bindings record.
	var locals, extras ir.Value

	startLocals := 0 // first non-parameter slot in the locals array
	startExtras := 0 // first non-parameter slot in the extras record

	if !af.needsArgsObj {
		numParams := len(lit.Params)
		numLocals := af.numLocals()
		if numLocals > 0 || numParams > 0 {
			m := fn.LastBlock().PushMemAlloc(l.module.Types.Array(ir.ValueType(), numParams+numLocals))
			m.MakePersistent()
			locals = m
		}

		if numParams > 0 {
			fn.LastBlock().PushInitArgs(locals, numParams)
		}
		startLocals = numParams

		if n := af.numExtra(); n > 0 {
			e := fn.LastBlock().PushBndExtraInit(n)
			e.MakePersistent()
			extras = e
		}

		l.linkReferencedScopes(fn, sc, af)

		// Bind the formal parameters.
		for _, v := range af.vars {
			if !v.isParam || !v.allocated() {
				continue
			}
			switch v.storage {
			case storageLocal:
				sc.Locals[v.name] = ir.NewArrayElementConstant(locals, v.paramIndex)
				if af.taintedByEval || v.name == "arguments" {
					p := fn.LastBlock().PushMemElmPtr(locals, v.paramIndex)
					fn.LastBlock().PushLinkVar(l.keyFor(v.name), strict, p)
				}
			case storageLocalExtra:
				slot := ir.NewArrayElementConstant(extras, startExtras)
				startExtras++
				sc.Locals[v.name] = slot
				fn.LastBlock().PushMemStore(slot, ir.NewArrayElementConstant(locals, v.paramIndex))
			case storageContext:
				next := l.newBlock()
				t := fn.LastBlock().PushDeclPrm(l.keyFor(v.name), strict, v.paramIndex, locals)
				fn.LastBlock().PushBranch(t, next, exptBlock)
				fn.PushBlock(next)
			}
		}
	} else {
		// The arguments object aliases the parameter slots, so all
		// parameters live in the heap-allocated extras record.
		if n := af.numLocals(); n > 0 {
			m := fn.LastBlock().PushMemAlloc(l.module.Types.Array(ir.ValueType(), n))
			m.MakePersistent()
			locals = m
		}

		if n := af.numExtra(); n > 0 {
			e := fn.LastBlock().PushBndExtraInit(n)
			e.MakePersistent()
			extras = e
		}

		numParams := len(lit.Params)
		if numParams > 0 {
			fn.LastBlock().PushInitArgs(extras, numParams)
		}
		startExtras = numParams

		l.linkReferencedScopes(fn, sc, af)

		argsObj := fn.LastBlock().PushArgsObjInit(numParams)
		fn.LastBlock().PushInitArgsObj(numParams, extras)

		for _, v := range af.vars {
			if !v.isParam || !v.allocated() {
				continue
			}
			p := fn.LastBlock().PushMemElmPtr(extras, v.paramIndex)
			fn.LastBlock().PushArgsObjLink(argsObj, v.paramIndex, p)

			slot := ir.NewArrayElementConstant(extras, v.paramIndex)
			sc.Locals[v.name] = slot

			if v.storage == storageContext || af.taintedByEval || v.name == "arguments" {
				q := fn.LastBlock().PushMemElmPtr(extras, v.paramIndex)
				fn.LastBlock().PushLinkPrm(l.keyFor(v.name), strict, q)
			}
		}
	}

	// Assign the remaining slot indices: the named function
	// expression's self-binding first, then function declarations, then
	// var declarations, continuing past the parameter slots.
	localsIndex, extrasIndex := startLocals, startExtras
	for _, pass := range []func(*analyzedVar) bool{
		func(v *analyzedVar) bool { return v.isCallee },
		func(v *analyzedVar) bool { return !v.isCallee && v.funDecl != nil },
		func(v *analyzedVar) bool { return !v.isCallee && v.funDecl == nil && v.isVar },
	} {
		for _, v := range af.vars {
			if v.isParam || !v.allocated() || !pass(v) {
				continue
			}
			switch v.storage {
			case storageLocal:
				sc.Locals[v.name] = ir.NewArrayElementConstant(locals, localsIndex)
				localsIndex++
			case storageLocalExtra:
				sc.Locals[v.name] = ir.NewArrayElementConstant(extras, extrasIndex)
				extrasIndex++
			}
		}
	}

	// Bind the self-reference of a named function expression.
	for _, v := range af.vars {
		if !v.isCallee || !v.allocated() || v.isParam {
			continue
		}
		if slot, ok := sc.Locals[v.name].(*ir.ArrayElementConstant); ok {
			fn.LastBlock().PushMemStore(slot, &ir.CalleeConstant{})
		}
	}

	// Instantiate function declarations, in source order. A declaration
	// sharing its name with a parameter or the callee binding overwrites
	// that slot.
	for _, v := range af.vars {
		if v.funDecl == nil || !v.allocated() {
			continue
		}
		f := l.parseFunValue(v.funDecl, fn)
		if v.storage == storageContext {
			next := l.newBlock()
			t := fn.LastBlock().PushDeclFun(l.keyFor(v.name), strict, f)
			fn.LastBlock().PushBranch(t, next, exptBlock)
			fn.PushBlock(next)
			continue
		}
		slot := sc.Locals[v.name].(*ir.ArrayElementConstant)
		fn.LastBlock().PushArrPut(slot.Array, slot.Index, f)
		if af.taintedByEval || v.name == "arguments" {
			p := fn.LastBlock().PushMemElmPtr(slot.Array, slot.Index)
			fn.LastBlock().PushLinkFun(l.keyFor(v.name), strict, p)
		}
	}

	// Instantiate var declarations not already bound as parameters,
	// callee, or function declarations.
	for _, v := range af.vars {
		if !v.isVar || v.funDecl != nil || v.isParam || v.isCallee || !v.allocated() {
			continue
		}
		if v.storage == storageContext {
			next := l.newBlock()
			t := fn.LastBlock().PushDeclVar(l.keyFor(v.name), strict)
			fn.LastBlock().PushBranch(t, next, exptBlock)
			fn.PushBlock(next)
			continue
		}
		slot := sc.Locals[v.name].(*ir.ArrayElementConstant)
		fn.LastBlock().PushArrPut(slot.Array, slot.Index, ir.NewValueConstant(ir.Undefined))
		if af.taintedByEval || v.name == "arguments" {
			p := fn.LastBlock().PushMemElmPtr(slot.Array, slot.Index)
			fn.LastBlock().PushLinkVar(l.keyFor(v.name), strict, p)
		}
	}

	fn.LastBlock().PushJump(bodyBlock)

	l.inflatePad(fn, exptBlock)

	fn.PushBlock(bodyBlock)

	for _, s := range lit.Body {
		l.parseStmt(s, fn)
	}

	// A function falling off its end returns undefined.
	if !fn.LastBlock().Terminated() {
		fn.LastBlock().PushMemStore(&ir.ReturnConstant{}, ir.NewValueConstant(ir.Undefined))
		fn.LastBlock().PushReturn(ir.NewBooleanConstant(true))
	}

	return fn
}

// linkReferencedScopes materializes a pointer to each enclosing frame's
// extra-bindings record this function's nested lookups reach into.
func (l *Lowerer) linkReferencedScopes(fn *ir.Function, sc *scope, af *analyzedFunction) {
	for _, hops := range af.referencedScopes() {
		p := fn.LastBlock().PushBndExtraPtr(hops)
		p.MakePersistent()
		sc.ScopeStacks[hops] = p
	}
}

// parseFunValue lowers a nested function literal and produces the
// function object value in the current block of the enclosing function.
func (l *Lowerer) parseFunValue(lit *ast.FunctionLit, fn *ir.Function) ir.Value {
	inner := l.parseFun(lit, false, l.strict())
	if lit.IsDeclaration {
		return fn.LastBlock().PushEsNewFunDecl(inner, len(lit.Params), inner.IsStrict)
	}
	return fn.LastBlock().PushEsNewFunExpr(inner, len(lit.Params), inner.IsStrict)
}
