package lower

import (
	"fmt"

	"github.com/RobertoMalatesta/descripten/ast"
	"github.com/RobertoMalatesta/descripten/ir"
)

// parseStmt lowers one statement, leaving the cursor on a block where
// control continues.
func (l *Lowerer) parseStmt(s ast.Statement, fn *ir.Function) {
	switch st := s.(type) {
	case *ast.EmptyStmt, *ast.DebuggerStmt:
		// debugger is reserved for a future hook; both are no-ops.
	case *ast.FunctionLit:
		// Function declarations are instantiated by the prologue.
	case *ast.ExprStmt:
		l.parseExprStmt(st, fn)
	case *ast.VarStmt:
		l.parseVarStmt(st, fn)
	case *ast.BlockStmt:
		l.parseBlockStmt(st, fn)
	case *ast.IfStmt:
		l.parseIfStmt(st, fn)
	case *ast.DoWhileStmt:
		l.parseDoWhileStmt(st, fn)
	case *ast.WhileStmt:
		l.parseWhileStmt(st, fn)
	case *ast.ForInStmt:
		l.parseForInStmt(st, fn)
	case *ast.ForStmt:
		l.parseForStmt(st, fn)
	case *ast.ContinueStmt:
		l.parseContinueStmt(st, fn)
	case *ast.BreakStmt:
		l.parseBreakStmt(st, fn)
	case *ast.ReturnStmt:
		l.parseReturnStmt(st, fn)
	case *ast.WithStmt:
		l.parseWithStmt(st, fn)
	case *ast.SwitchStmt:
		l.parseSwitchStmt(st, fn)
	case *ast.ThrowStmt:
		l.parseThrowStmt(st, fn)
	case *ast.TryStmt:
		l.parseTryStmt(st, fn)
	default:
		panic(fmt.Sprintf("lower: unknown statement %T", s))
	}
}

func (l *Lowerer) parseExprStmt(stmt *ast.ExprStmt, fn *ir.Function) {
	done := l.newBlock()
	expt := l.newBlock()

	t := l.parseExpr(stmt.Expr, fn)
	v := fn.LastBlock().PushMemAlloc(ir.ValueType())
	l.expandRefGetInto(t, v, fn, done, expt)

	l.inflatePad(fn, expt)
	fn.PushBlock(done)
}

func (l *Lowerer) parseVarStmt(stmt *ast.VarStmt, fn *ir.Function) {
	for i, name := range stmt.Names {
		if i >= len(stmt.Inits) || stmt.Inits[i] == nil {
			continue
		}

		done := l.newBlock()
		expt := l.newBlock()

		lhs := l.parseIdent(name, fn)
		v := l.expandRefGet(l.parseExpr(stmt.Inits[i], fn), fn, expt)
		l.expandRefPutTo(lhs, v, fn, done, expt)

		l.inflatePad(fn, expt)
		fn.PushBlock(done)
	}
}

func (l *Lowerer) parseBlockStmt(stmt *ast.BlockStmt, fn *ir.Function) {
	done := l.newBlock()

	sc := newScope(ScopeDefault)
	sc.BreakTarget = done
	for _, lb := range stmt.Labels {
		sc.Labels[lb] = true
	}
	l.scopes.push(sc)

	for _, inner := range stmt.Body {
		l.parseStmt(inner, fn)
	}

	l.scopes.pop()

	if !fn.LastBlock().Terminated() {
		fn.LastBlock().PushJump(done)
	}
	fn.PushBlock(done)
}

func (l *Lowerer) parseIfStmt(stmt *ast.IfStmt, fn *ir.Function) {
	trueBlock := l.newBlock()
	falseBlock := l.newBlock()
	done := l.newBlock()
	expt := l.newBlock()

	t := l.expandRefGet(l.parseExpr(stmt.Cond, fn), fn, expt)
	b := fn.LastBlock().PushValToBoolean(t)
	if stmt.Else != nil {
		fn.LastBlock().PushBranch(b, trueBlock, falseBlock)
	} else {
		fn.LastBlock().PushBranch(b, trueBlock, done)
	}

	fn.PushBlock(trueBlock)
	l.parseStmt(stmt.Then, fn)
	fn.LastBlock().PushJump(done)

	if stmt.Else != nil {
		fn.PushBlock(falseBlock)
		l.parseStmt(stmt.Else, fn)
		fn.LastBlock().PushJump(done)
	}

	l.inflatePad(fn, expt)
	fn.PushBlock(done)
}

// pushIteration enters a loop scope with the given continue and break
// targets and the loop statement's labels.
func (l *Lowerer) pushIteration(cnt, brk *ir.Block, labels []string) *scope {
	sc := newScope(ScopeIteration)
	sc.ContinueTarget = cnt
	sc.BreakTarget = brk
	for _, lb := range labels {
		sc.Labels[lb] = true
	}
	l.scopes.push(sc)
	return sc
}

func (l *Lowerer) parseDoWhileStmt(stmt *ast.DoWhileStmt, fn *ir.Function) {
	next := l.newBlock()
	cond := l.newBlock()
	done := l.newBlock()
	expt := l.newBlock()

	fn.LastBlock().PushJump(next)

	l.pushIteration(cond, done, stmt.Labels)

	fn.PushBlock(next)
	l.parseStmt(stmt.Body, fn)
	fn.LastBlock().PushJump(cond)

	fn.PushBlock(cond)
	t := l.expandRefGet(l.parseExpr(stmt.Cond, fn), fn, expt)
	b := fn.LastBlock().PushValToBoolean(t)
	fn.LastBlock().PushBranch(b, next, done)

	l.scopes.pop()

	l.inflatePad(fn, expt)
	fn.PushBlock(done)
}

func (l *Lowerer) parseWhileStmt(stmt *ast.WhileStmt, fn *ir.Function) {
	cond := l.newBlock()
	next := l.newBlock()
	done := l.newBlock()
	expt := l.newBlock()

	l.pushIteration(cond, done, stmt.Labels)

	fn.LastBlock().PushJump(cond)

	fn.PushBlock(cond)
	t := l.expandRefGet(l.parseExpr(stmt.Cond, fn), fn, expt)
	b := fn.LastBlock().PushValToBoolean(t)
	fn.LastBlock().PushBranch(b, next, done)

	fn.PushBlock(next)
	l.parseStmt(stmt.Body, fn)
	fn.LastBlock().PushJump(cond)

	l.scopes.pop()

	l.inflatePad(fn, expt)
	fn.PushBlock(done)
}

func (l *Lowerer) parseForInStmt(stmt *ast.ForInStmt, fn *ir.Function) {
	initBlock := l.newBlock()
	cond := l.newBlock()
	body := l.newBlock()
	done := l.newBlock()
	expt := l.newBlock()

	l.pushIteration(cond, done, stmt.Labels)

	// A null or undefined enumerable skips the loop entirely.
	e := l.expandRefGet(l.parseExpr(stmt.Enum, fn), fn, expt)
	t := fn.LastBlock().PushBin(ir.BinOr,
		fn.LastBlock().PushValIsNull(e),
		fn.LastBlock().PushValIsUndefined(e))
	fn.LastBlock().PushBranch(t, done, initBlock)

	fn.PushBlock(initBlock)
	itExpt := l.newBlock()
	it := fn.LastBlock().PushPrpItNew(e)
	it.MakePersistent()
	nul := fn.LastBlock().PushBin(ir.BinEq, it,
		ir.NewNullConstant(l.module.Types.Opaque("property_iterator")))
	fn.LastBlock().PushBranch(nul, itExpt, cond)
	l.inflatePad(fn, itExpt)

	fn.PushBlock(cond)
	p := fn.LastBlock().PushMemAlloc(ir.ValueType())
	p.MakePersistent()
	t2 := fn.LastBlock().PushPrpItNext(it, p)
	fn.LastBlock().PushBranch(t2, body, done)

	fn.PushBlock(body)
	next := l.newBlock()
	d := l.parseExpr(stmt.Decl, fn)
	l.expandRefPutTo(d, p, fn, next, expt)

	fn.PushBlock(next)
	l.parseStmt(stmt.Body, fn)
	fn.LastBlock().PushJump(cond)

	l.scopes.pop()

	l.inflatePad(fn, expt)
	fn.PushBlock(done)
}

func (l *Lowerer) parseForStmt(stmt *ast.ForStmt, fn *ir.Function) {
	cond := l.newBlock()
	next := l.newBlock()
	body := l.newBlock()
	done := l.newBlock()
	expt := l.newBlock()

	l.pushIteration(next, done, stmt.Labels)

	if stmt.Init != nil {
		l.parseStmt(stmt.Init, fn)
	}
	fn.LastBlock().PushJump(cond)

	fn.PushBlock(cond)
	if stmt.Cond != nil {
		t := l.expandRefGet(l.parseExpr(stmt.Cond, fn), fn, expt)
		b := fn.LastBlock().PushValToBoolean(t)
		fn.LastBlock().PushBranch(b, body, done)
	} else {
		fn.LastBlock().PushJump(body)
	}

	fn.PushBlock(body)
	l.parseStmt(stmt.Body, fn)
	fn.LastBlock().PushJump(next)

	fn.PushBlock(next)
	if stmt.Next != nil {
		l.parseExprStmt(&ast.ExprStmt{Expr: stmt.Next}, fn)
	}
	fn.LastBlock().PushJump(cond)

	l.scopes.pop()

	l.inflatePad(fn, expt)
	fn.PushBlock(done)
}

// unroll walks the scope stack innermost-first looking for the frame
// stop accepts, inflating each crossed scope's epilogue (ctx_leave for
// with and catch scopes, the finally body for try/finally scopes) along
// the way. Epilogue inflation is suppressed while already lowering
// inside an epilogue, which is what bounds the recursion when a finally
// body itself breaks or returns.
func (l *Lowerer) unroll(fn *ir.Function, stop func(*scope) bool) *scope {
	frames := append([]*scope(nil), l.scopes.frames...)

	var unrl *ir.Block
	for i := len(frames) - 1; i >= 0; i-- {
		sc := frames[i]
		if stop(sc) {
			return sc
		}

		if !l.inEpilogue && sc.Epilogue != nil {
			l.inEpilogue = true
			if unrl == nil {
				unrl = l.newBlock()
				fn.LastBlock().PushJump(unrl)
				fn.PushBlock(unrl)
			}
			sc.Epilogue(fn.LastBlock())
			l.inEpilogue = false
		}
	}
	return nil
}

func (l *Lowerer) unrollForContinue(fn *ir.Function, label string) *scope {
	return l.unroll(fn, func(sc *scope) bool {
		if sc.Kind != ScopeIteration {
			return false
		}
		return label == "" || sc.hasLabel(label)
	})
}

func (l *Lowerer) unrollForBreak(fn *ir.Function, label string) *scope {
	return l.unroll(fn, func(sc *scope) bool {
		if label == "" {
			return sc.Kind == ScopeIteration || sc.Kind == ScopeSwitch
		}
		return sc.hasLabel(label)
	})
}

func (l *Lowerer) unrollForReturn(fn *ir.Function) *scope {
	return l.unroll(fn, func(sc *scope) bool {
		return sc.Kind == ScopeFunction
	})
}

func (l *Lowerer) parseContinueStmt(stmt *ast.ContinueStmt, fn *ir.Function) {
	sc := l.unrollForContinue(fn, stmt.Label)
	if sc == nil {
		if stmt.Label != "" {
			l.fail(stmt.Span(), "continue references unknown label %q", stmt.Label)
		}
		l.fail(stmt.Span(), "continue statement outside of a loop")
	}
	fn.LastBlock().PushJump(sc.ContinueTarget)
	fn.PushBlock(l.newBlock())
}

func (l *Lowerer) parseBreakStmt(stmt *ast.BreakStmt, fn *ir.Function) {
	sc := l.unrollForBreak(fn, stmt.Label)
	if sc == nil {
		if stmt.Label != "" {
			l.fail(stmt.Span(), "break references unknown label %q", stmt.Label)
		}
		l.fail(stmt.Span(), "break statement outside of a loop or switch")
	}
	fn.LastBlock().PushJump(sc.BreakTarget)
	fn.PushBlock(l.newBlock())
}

func (l *Lowerer) parseReturnStmt(stmt *ast.ReturnStmt, fn *ir.Function) {
	if l.cur().isGlobal {
		l.fail(stmt.Span(), "return statement outside of a function")
	}

	r := &ir.ReturnConstant{}

	if stmt.Expr != nil {
		next := l.newBlock()
		expt := l.newBlock()

		t := l.parseExpr(stmt.Expr, fn)
		l.expandRefGetInto(t, r, fn, next, expt)

		fn.PushBlock(next)
		l.unrollForReturn(fn)
		fn.LastBlock().PushReturn(ir.NewBooleanConstant(true))

		l.inflatePad(fn, expt)
		fn.PushBlock(l.newBlock())
		return
	}

	fn.LastBlock().PushMemStore(r, ir.NewValueConstant(ir.Undefined))
	l.unrollForReturn(fn)
	fn.LastBlock().PushReturn(ir.NewBooleanConstant(true))
	fn.PushBlock(l.newBlock())
}

func (l *Lowerer) parseWithStmt(stmt *ast.WithStmt, fn *ir.Function) {
	if l.strict() {
		l.fail(stmt.Span(), "with statement not allowed in strict mode")
	}

	next := l.newBlock()
	done := l.newBlock()
	expt0 := l.newBlock()

	sc := newScope(ScopeWith)
	sc.Epilogue = leaveContextAction
	l.scopes.push(sc)

	v := l.expandRefGet(l.parseExpr(stmt.Expr, fn), fn, expt0)

	t := fn.LastBlock().PushCtxEnterWith(v)
	fn.LastBlock().PushBranch(t, next, expt0)

	l.inflatePad(fn, expt0)

	fn.PushBlock(next)

	// A fault inside the body leaves the with scope before unwinding
	// further.
	l.pushExceptionAction(multiAction(leaveContextAction, l.exceptionAction()))
	l.parseStmt(stmt.Body, fn)
	l.popExceptionAction()

	fn.LastBlock().PushCtxLeave()
	fn.LastBlock().PushJump(done)

	l.scopes.pop()

	fn.PushBlock(done)
}

func (l *Lowerer) parseSwitchStmt(stmt *ast.SwitchStmt, fn *ir.Function) {
	done := l.newBlock()
	expt := l.newBlock()

	sc := newScope(ScopeSwitch)
	sc.BreakTarget = done
	for _, lb := range stmt.Labels {
		sc.Labels[lb] = true
	}
	l.scopes.push(sc)

	e := l.expandRefGet(l.parseExpr(stmt.Expr, fn), fn, expt)

	// One body block per clause; bodies fall through in source order
	// regardless of where the matching label sat, and a default clause
	// need not be last.
	bodyBlocks := make([]*ir.Block, len(stmt.Clauses))
	for i := range stmt.Clauses {
		bodyBlocks[i] = l.newBlock()
	}

	defaultIdx := -1
	for i, clause := range stmt.Clauses {
		if clause.IsDefault() {
			if defaultIdx >= 0 {
				l.fail(stmt.Span(), "more than one default clause in switch statement")
			}
			defaultIdx = i
		}
	}

	// Comparison chain: strict-compare the discriminant against each
	// case label in source order; fall to the default (or out) when
	// nothing matches.
	for i, clause := range stmt.Clauses {
		if clause.IsDefault() {
			continue
		}

		checked := l.newBlock()

		v := l.expandRefGet(l.parseExpr(clause.Label, fn), fn, expt)
		c := fn.LastBlock().PushMemAlloc(ir.ValueType())
		t := fn.LastBlock().PushEsBinary(ir.EsStrictEq, v, e, c)
		fn.LastBlock().PushBranch(t, checked, expt)

		fn.PushBlock(checked)
		miss := l.newBlock()
		b := fn.LastBlock().PushValToBoolean(c)
		fn.LastBlock().PushBranch(b, bodyBlocks[i], miss)
		fn.PushBlock(miss)
	}

	if defaultIdx >= 0 {
		fn.LastBlock().PushJump(bodyBlocks[defaultIdx])
	} else {
		fn.LastBlock().PushJump(done)
	}

	for i, clause := range stmt.Clauses {
		fn.PushBlock(bodyBlocks[i])
		for _, inner := range clause.Body {
			l.parseStmt(inner, fn)
		}
		if !fn.LastBlock().Terminated() {
			if i+1 < len(stmt.Clauses) {
				fn.LastBlock().PushJump(bodyBlocks[i+1])
			} else {
				fn.LastBlock().PushJump(done)
			}
		}
	}

	l.scopes.pop()

	l.inflatePad(fn, expt)
	fn.PushBlock(done)
}

func (l *Lowerer) parseThrowStmt(stmt *ast.ThrowStmt, fn *ir.Function) {
	done := l.newBlock()
	expt := l.newBlock()

	t := l.parseExpr(stmt.Expr, fn)
	fn.LastBlock().PushExSet(l.expandRefGet(t, fn, expt))
	fn.LastBlock().PushJump(expt)

	l.inflatePad(fn, expt)
	fn.PushBlock(done)
}

func (l *Lowerer) parseTryStmt(stmt *ast.TryStmt, fn *ir.Function) {
	done := l.newBlock()
	fail := l.newBlock()
	skip := l.newBlock()
	expt := l.newBlock()

	sc := newScope(ScopeDefault)
	sc.BreakTarget = done
	for _, lb := range stmt.Labels {
		sc.Labels[lb] = true
	}
	l.scopes.push(sc)

	prevAction := l.exceptionAction()

	if stmt.HasFinally() {
		// Any break/continue/return crossing this statement re-lowers
		// the finally body at the exit site; a fault inside that copy
		// unwinds past the finished try.
		finallyBody := stmt.FinallyBlock
		sc.Epilogue = func(b *ir.Block) {
			l.pushExceptionAction(prevAction)
			l.parseStmt(finallyBody, fn)
			l.popExceptionAction()
		}
	}

	// failed tracks whether the protected region completed: it stays
	// true across the catch/finally blocks when an exception is still
	// pending, and its lifetime spans them.
	failed := fn.LastBlock().PushMemAlloc(ir.Boolean())
	failed.MakePersistent()
	fn.LastBlock().PushMemStore(failed, ir.NewBooleanConstant(true))

	l.pushExceptionAction(jumpAction(fail))
	l.parseStmt(stmt.TryBlock, fn)
	fn.LastBlock().PushMemStore(failed, ir.NewBooleanConstant(false))
	if stmt.HasCatch() {
		fn.LastBlock().PushJump(skip)
	} else {
		fn.LastBlock().PushJump(fail)
	}
	l.popExceptionAction()

	fn.PushBlock(fail)

	if stmt.HasCatch() {
		fn.LastBlock().PushExSaveState()
		fn.LastBlock().PushCtxEnterCatch(l.keyFor(stmt.CatchIdent))
		fn.LastBlock().PushExClear()

		catchScope := newScope(ScopeDefault)
		catchScope.CatchName = stmt.CatchIdent
		catchScope.Epilogue = leaveContextAction
		l.scopes.push(catchScope)

		// A fault in the catch body leaves the catch scope, then joins
		// the shared exit with the exception still pending.
		l.pushExceptionAction(multiAction(leaveContextAction, jumpAction(skip)))
		l.parseStmt(stmt.CatchBlock, fn)
		l.popExceptionAction()

		l.scopes.pop()

		fn.LastBlock().PushCtxLeave()
		fn.LastBlock().PushMemStore(failed, ir.NewBooleanConstant(false))
		fn.LastBlock().PushJump(skip)
	} else {
		fn.LastBlock().PushJump(skip)
	}

	fn.PushBlock(skip)

	if stmt.HasFinally() {
		tok := fn.LastBlock().PushExSaveState()
		tok.MakePersistent()
		l.parseStmt(stmt.FinallyBlock, fn)
		fn.LastBlock().PushExLoadState(tok)
	}

	// With the exception still pending, resume the enclosing handler.
	fn.LastBlock().PushBranch(failed, expt, done)

	l.scopes.pop()

	fn.PushBlock(expt)
	prevAction(expt)

	fn.PushBlock(done)
}
