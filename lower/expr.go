package lower

import (
	"fmt"

	"github.com/RobertoMalatesta/descripten/ast"
	"github.com/RobertoMalatesta/descripten/ir"
)

// parseExpr lowers one expression, returning the value holding its
// result. The result may be a constant, an SSA-valued instruction, a
// storage slot, or an unexpanded reference (MetaCtxLoad/MetaPrpLoad)
// that the consumer routes through expandRefGet/expandRefPut.
func (l *Lowerer) parseExpr(e ast.Expression, fn *ir.Function) ir.Value {
	switch ex := e.(type) {
	case *ast.ThisExpr:
		return fn.LastBlock().PushCtxThis()
	case *ast.Identifier:
		return l.parseIdent(ex.Name, fn)
	case *ast.VariableLit:
		return l.parseIdent(ex.Name, fn)
	case *ast.NullLit:
		return ir.NewValueConstant(ir.Null)
	case *ast.BoolLit:
		return fn.LastBlock().PushValFromBoolean(ir.NewBooleanConstant(ex.Val))
	case *ast.NumberLit:
		return fn.LastBlock().PushValFromDouble(ir.NewStringifiedDoubleConstant(ex.Text))
	case *ast.StringLit:
		l.module.InternString(ex.Val)
		return fn.LastBlock().PushValFromString(ir.NewStringConstant(ex.Val))
	case *ast.NothingLit:
		return ir.NewValueConstant(ir.Nothing)
	case *ast.RegexLit:
		return fn.LastBlock().PushEsNewRex(ex.Pattern, ex.Flags)
	case *ast.FunctionExpr:
		return l.parseFunValue(ex.Fun, fn)
	case *ast.ArrayLit:
		return l.parseArrayLit(ex, fn)
	case *ast.ObjectLit:
		return l.parseObjectLit(ex, fn)
	case *ast.BinaryExpr:
		return l.parseBinaryExpr(ex, fn)
	case *ast.UnaryExpr:
		return l.parseUnaryExpr(ex, fn)
	case *ast.AssignExpr:
		return l.parseAssignExpr(ex, fn)
	case *ast.ConditionalExpr:
		return l.parseCondExpr(ex, fn)
	case *ast.PropertyExpr:
		return l.parsePropExpr(ex, fn)
	case *ast.CallExpr:
		return l.parseCallExpr(ex, fn)
	case *ast.NewExpr:
		return l.parseNewExpr(ex, fn)
	default:
		panic(fmt.Sprintf("lower: unknown expression %T", e))
	}
}

// parseIdent resolves an identifier use: a compile-time slot when
// analysis allocated one, an unexpanded environment reference otherwise.
func (l *Lowerer) parseIdent(name string, fn *ir.Function) ir.Value {
	if v := l.getLocal(name); v != nil {
		return v
	}
	return fn.LastBlock().PushMetaCtxLoad(l.keyFor(name), name)
}

// ---- Reference expansion ------------------------------------------------------

// expandPrpGet emits the property read behind an unexpanded property
// reference into dst, choosing the interned-key fast path when the key
// is a literal string.
func (l *Lowerer) expandPrpGet(dst ir.Value, fn *ir.Function, prp *ir.MetaPrpLoad) ir.Value {
	if str, ok := prp.Key.(*ir.StringConstant); ok {
		return fn.LastBlock().PushPrpGet(prp.Obj, l.keyFor(str.Val), dst)
	}
	return fn.LastBlock().PushPrpGetSlow(prp.Obj, prp.Key, dst)
}

// expandPrpPut is the write counterpart of expandPrpGet.
func (l *Lowerer) expandPrpPut(val ir.Value, fn *ir.Function, prp *ir.MetaPrpLoad) ir.Value {
	if str, ok := prp.Key.(*ir.StringConstant); ok {
		return fn.LastBlock().PushPrpPut(prp.Obj, l.keyFor(str.Val), val)
	}
	return fn.LastBlock().PushPrpPutSlow(prp.Obj, prp.Key, val)
}

// expandRefGet performs GetValue on ref: a plain value passes through; a
// property or context reference is loaded into a fresh slot with the
// fault edge routed to expt. The builder cursor continues in a new block
// on the success path.
func (l *Lowerer) expandRefGet(ref ir.Value, fn *ir.Function, expt *ir.Block) ir.Value {
	if ref.Type().Kind() != ir.KindReference {
		return ref
	}

	done := l.newBlock()
	r := fn.LastBlock().PushMemAlloc(ir.ValueType())

	switch m := ref.(type) {
	case *ir.MetaPrpLoad:
		t := l.expandPrpGet(r, fn, m)
		fn.LastBlock().PushBranch(t, done, expt)
	case *ir.MetaCtxLoad:
		t := fn.LastBlock().PushCtxGet(m.Key, r, l.ctxCacheID(m.Key))
		fn.LastBlock().PushBranch(t, done, expt)
	default:
		panic(fmt.Sprintf("lower: unknown reference value %T", ref))
	}

	fn.PushBlock(done)
	return r
}

// expandRefGetInto is expandRefGet writing into a caller-owned slot and
// terminating the current block toward done on success — used where the
// consumer already has its own join block.
func (l *Lowerer) expandRefGetInto(ref, dst ir.Value, fn *ir.Function, done, expt *ir.Block) ir.Value {
	if ref.Type().Kind() != ir.KindReference {
		fn.LastBlock().PushMemStore(dst, ref)
		fn.LastBlock().PushJump(done)
		return dst
	}

	switch m := ref.(type) {
	case *ir.MetaPrpLoad:
		t := l.expandPrpGet(dst, fn, m)
		fn.LastBlock().PushBranch(t, done, expt)
	case *ir.MetaCtxLoad:
		t := fn.LastBlock().PushCtxGet(m.Key, dst, l.ctxCacheID(m.Key))
		fn.LastBlock().PushBranch(t, done, expt)
	default:
		panic(fmt.Sprintf("lower: unknown reference value %T", ref))
	}
	return dst
}

// expandRefPut performs PutValue on ref: store to a slot, or a property
// or context write with the fault edge routed to expt. The cursor
// continues in a new block on the success path.
func (l *Lowerer) expandRefPut(ref, val ir.Value, fn *ir.Function, expt *ir.Block) {
	switch m := ref.(type) {
	case *ir.MetaPrpLoad:
		done := l.newBlock()
		t := l.expandPrpPut(val, fn, m)
		fn.LastBlock().PushBranch(t, done, expt)
		fn.PushBlock(done)
	case *ir.MetaCtxLoad:
		done := l.newBlock()
		t := fn.LastBlock().PushCtxPut(m.Key, val, l.ctxCacheID(m.Key))
		fn.LastBlock().PushBranch(t, done, expt)
		fn.PushBlock(done)
	default:
		fn.LastBlock().PushMemStore(ref, val)
	}
}

// expandRefPutTo is expandRefPut terminating toward a caller-owned join
// block.
func (l *Lowerer) expandRefPutTo(ref, val ir.Value, fn *ir.Function, done, expt *ir.Block) {
	switch m := ref.(type) {
	case *ir.MetaPrpLoad:
		t := l.expandPrpPut(val, fn, m)
		fn.LastBlock().PushBranch(t, done, expt)
	case *ir.MetaCtxLoad:
		t := fn.LastBlock().PushCtxPut(m.Key, val, l.ctxCacheID(m.Key))
		fn.LastBlock().PushBranch(t, done, expt)
	default:
		fn.LastBlock().PushMemStore(ref, val)
		fn.LastBlock().PushJump(done)
	}
}

// ---- Operators ----------------------------------------------------------------

var esBinOps = map[ast.BinaryOp]ir.EsBinOp{
	ast.OpMul:        ir.EsMul,
	ast.OpDiv:        ir.EsDiv,
	ast.OpMod:        ir.EsMod,
	ast.OpAdd:        ir.EsAdd,
	ast.OpSub:        ir.EsSub,
	ast.OpLs:         ir.EsLs,
	ast.OpRss:        ir.EsRss,
	ast.OpRus:        ir.EsRus,
	ast.OpLt:         ir.EsLt,
	ast.OpGt:         ir.EsGt,
	ast.OpLte:        ir.EsLte,
	ast.OpGte:        ir.EsGte,
	ast.OpIn:         ir.EsIn,
	ast.OpInstanceof: ir.EsInstanceof,
	ast.OpEq:         ir.EsEq,
	ast.OpNeq:        ir.EsNeq,
	ast.OpStrictEq:   ir.EsStrictEq,
	ast.OpStrictNeq:  ir.EsStrictNeq,
	ast.OpBitAnd:     ir.EsBitAnd,
	ast.OpBitXor:     ir.EsBitXor,
	ast.OpBitOr:      ir.EsBitOr,
}

func (l *Lowerer) parseBinaryExpr(expr *ast.BinaryExpr, fn *ir.Function) ir.Value {
	done := l.newBlock()
	expt := l.newBlock()

	lhs := l.expandRefGet(l.parseExpr(expr.Left, fn), fn, expt)
	r := fn.LastBlock().PushMemAlloc(ir.ValueType())

	switch expr.Op {
	case ast.OpLogAnd:
		// Short-circuit: the join slot carries whichever operand decided
		// the result across the branch, so its lifetime spans blocks.
		r.MakePersistent()
		trueBlock := l.newBlock()
		falseBlock := l.newBlock()

		b := fn.LastBlock().PushValToBoolean(lhs)
		fn.LastBlock().PushBranch(b, trueBlock, falseBlock)

		fn.PushBlock(trueBlock)
		l.expandRefGetInto(l.parseExpr(expr.Right, fn), r, fn, done, expt)

		fn.PushBlock(falseBlock)
		fn.LastBlock().PushMemStore(r, lhs)
		fn.LastBlock().PushJump(done)

	case ast.OpLogOr:
		r.MakePersistent()
		trueBlock := l.newBlock()
		falseBlock := l.newBlock()

		b := fn.LastBlock().PushValToBoolean(lhs)
		fn.LastBlock().PushBranch(b, trueBlock, falseBlock)

		fn.PushBlock(trueBlock)
		fn.LastBlock().PushMemStore(r, lhs)
		fn.LastBlock().PushJump(done)

		fn.PushBlock(falseBlock)
		l.expandRefGetInto(l.parseExpr(expr.Right, fn), r, fn, done, expt)

	case ast.OpComma:
		// GetValue on both sides is all the comma operator requires.
		rhs := l.expandRefGet(l.parseExpr(expr.Right, fn), fn, expt)
		fn.LastBlock().PushMemStore(r, rhs)
		fn.LastBlock().PushJump(done)

	default:
		op, ok := esBinOps[expr.Op]
		if !ok {
			panic(fmt.Sprintf("lower: unknown binary operator %s", expr.Op))
		}
		rhs := l.expandRefGet(l.parseExpr(expr.Right, fn), fn, expt)
		t := fn.LastBlock().PushEsBinary(op, lhs, rhs, r)
		fn.LastBlock().PushBranch(t, done, expt)
	}

	l.inflatePad(fn, expt)
	fn.PushBlock(done)
	return r
}

func (l *Lowerer) parseUnaryExpr(expr *ast.UnaryExpr, fn *ir.Function) ir.Value {
	if expr.Op == ast.OpDelete {
		return l.parseDeleteExpr(expr, fn)
	}

	e := l.parseExpr(expr.Expr, fn)

	switch expr.Op {
	case ast.OpVoid:
		done := l.newBlock()
		expt := l.newBlock()

		// The operand is evaluated for effect only.
		t := fn.LastBlock().PushMemAlloc(ir.ValueType())
		l.expandRefGetInto(e, t, fn, done, expt)

		l.inflatePad(fn, expt)
		fn.PushBlock(done)
		return ir.NewValueConstant(ir.Undefined)

	case ast.OpPlus, ast.OpPreInc, ast.OpPreDec, ast.OpPostInc, ast.OpPostDec:
		return l.parseIncDecExpr(expr, e, fn)

	case ast.OpTypeof:
		r := fn.LastBlock().PushMemAlloc(ir.ValueType())

		v := e
		if e.Type().Kind() == ir.KindReference {
			// typeof tolerates an unresolvable reference: a failed
			// lookup yields undefined rather than a ReferenceError.
			done := l.newBlock()
			fail := l.newBlock()

			slot := fn.LastBlock().PushMemAlloc(ir.ValueType())
			slot.MakePersistent()
			l.expandRefGetInto(e, slot, fn, done, fail)

			fn.PushBlock(fail)
			fn.LastBlock().PushExClear()
			fn.LastBlock().PushMemStore(slot, ir.NewValueConstant(ir.Undefined))
			fn.LastBlock().PushJump(done)

			fn.PushBlock(done)
			v = slot
		}

		done := l.newBlock()
		expt := l.newBlock()
		t := fn.LastBlock().PushEsUnary(ir.EsTypeof, v, r)
		fn.LastBlock().PushBranch(t, done, expt)

		l.inflatePad(fn, expt)
		fn.PushBlock(done)
		return r

	case ast.OpMinus, ast.OpBitNot, ast.OpLogNot:
		done := l.newBlock()
		expt := l.newBlock()

		r := fn.LastBlock().PushMemAlloc(ir.ValueType())
		v := l.expandRefGet(e, fn, expt)

		var op ir.EsUnaryOp
		switch expr.Op {
		case ast.OpMinus:
			op = ir.EsNeg
		case ast.OpBitNot:
			op = ir.EsBitNot
		default:
			op = ir.EsLogNot
		}
		t := fn.LastBlock().PushEsUnary(op, v, r)
		fn.LastBlock().PushBranch(t, done, expt)

		l.inflatePad(fn, expt)
		fn.PushBlock(done)
		return r

	default:
		panic(fmt.Sprintf("lower: unknown unary operator %s", expr.Op))
	}
}

// parseIncDecExpr lowers unary plus and the four increment/decrement
// forms, which share the ToNumber front half.
func (l *Lowerer) parseIncDecExpr(expr *ast.UnaryExpr, e ir.Value, fn *ir.Function) ir.Value {
	next := l.newBlock()
	done := l.newBlock()
	expt := l.newBlock()

	v := l.expandRefGet(e, fn, expt)

	d := fn.LastBlock().PushMemAlloc(ir.Double())
	t := fn.LastBlock().PushValToDouble(v, d)
	fn.LastBlock().PushBranch(t, next, expt)

	fn.PushBlock(next)

	var r, stored ir.Value
	switch expr.Op {
	case ast.OpPlus:
		r = fn.LastBlock().PushValFromDouble(d)
		fn.LastBlock().PushJump(done)

		l.inflatePad(fn, expt)
		fn.PushBlock(done)
		return r
	case ast.OpPreInc:
		n := fn.LastBlock().PushBin(ir.BinAdd, d, ir.NewDoubleConstant(1))
		stored = fn.LastBlock().PushValFromDouble(n)
		r = stored
	case ast.OpPreDec:
		n := fn.LastBlock().PushBin(ir.BinSub, d, ir.NewDoubleConstant(1))
		stored = fn.LastBlock().PushValFromDouble(n)
		r = stored
	case ast.OpPostInc:
		r = fn.LastBlock().PushValFromDouble(d)
		n := fn.LastBlock().PushBin(ir.BinAdd, d, ir.NewDoubleConstant(1))
		stored = fn.LastBlock().PushValFromDouble(n)
	case ast.OpPostDec:
		r = fn.LastBlock().PushValFromDouble(d)
		n := fn.LastBlock().PushBin(ir.BinSub, d, ir.NewDoubleConstant(1))
		stored = fn.LastBlock().PushValFromDouble(n)
	}

	l.expandRefPutTo(e, stored, fn, done, expt)

	l.inflatePad(fn, expt)
	fn.PushBlock(done)
	return r
}

func (l *Lowerer) parseDeleteExpr(expr *ast.UnaryExpr, fn *ir.Function) ir.Value {
	switch target := expr.Expr.(type) {
	case *ast.PropertyExpr:
		done := l.newBlock()
		expt := l.newBlock()

		if key, ok := immediatePropertyKey(target); ok {
			obj := l.expandRefGet(l.parseExpr(target.Obj, fn), fn, expt)

			r := fn.LastBlock().PushMemAlloc(ir.ValueType())
			t := fn.LastBlock().PushPrpDel(obj, l.keyFor(key), r)
			fn.LastBlock().PushBranch(t, done, expt)

			l.inflatePad(fn, expt)
			fn.PushBlock(done)
			return r
		}

		key := l.expandRefGet(l.parseExpr(target.Key, fn), fn, expt)
		obj := l.expandRefGet(l.parseExpr(target.Obj, fn), fn, expt)

		r := fn.LastBlock().PushMemAlloc(ir.ValueType())
		t := fn.LastBlock().PushPrpDelSlow(obj, key, r)
		fn.LastBlock().PushBranch(t, done, expt)

		l.inflatePad(fn, expt)
		fn.PushBlock(done)
		return r

	case *ast.Identifier:
		if l.strict() {
			l.fail(expr.Span(), "delete of an unqualified identifier %q in strict mode", target.Name)
		}

		if sc := l.currentFunScope(); sc != nil {
			if _, ok := sc.Locals[target.Name]; ok {
				// A compile-time slot is a non-configurable binding in a
				// declarative environment; deleting it always fails.
				return ir.NewValueConstant(ir.False)
			}
		}

		done := l.newBlock()
		expt := l.newBlock()

		r := fn.LastBlock().PushMemAlloc(ir.ValueType())
		t := fn.LastBlock().PushCtxDel(l.keyFor(target.Name), r)
		fn.LastBlock().PushBranch(t, done, expt)

		l.inflatePad(fn, expt)
		fn.PushBlock(done)
		return r

	default:
		// delete of anything but a reference is a no-op yielding true.
		return ir.NewValueConstant(ir.True)
	}
}

func (l *Lowerer) parseAssignExpr(expr *ast.AssignExpr, fn *ir.Function) ir.Value {
	if !expr.Lhs.IsLeftHandExpr() {
		l.fail(expr.Span(), "invalid assignment target")
	}

	lhs := l.parseExpr(expr.Lhs, fn)
	rhs := l.parseExpr(expr.Rhs, fn)

	done := l.newBlock()
	expt := l.newBlock()

	var v ir.Value
	if op, compound := expr.Op.BinaryOp(); compound {
		esOp, ok := esBinOps[op]
		if !ok {
			panic(fmt.Sprintf("lower: compound assignment folding %s", op))
		}
		next := l.newBlock()
		slot := fn.LastBlock().PushMemAlloc(ir.ValueType())
		left := l.expandRefGet(lhs, fn, expt)
		right := l.expandRefGet(rhs, fn, expt)
		t := fn.LastBlock().PushEsBinary(esOp, left, right, slot)
		fn.LastBlock().PushBranch(t, next, expt)
		fn.PushBlock(next)
		v = slot
	} else {
		v = l.expandRefGet(rhs, fn, expt)
	}

	l.expandRefPutTo(lhs, v, fn, done, expt)

	l.inflatePad(fn, expt)
	fn.PushBlock(done)
	return v
}

func (l *Lowerer) parseCondExpr(expr *ast.ConditionalExpr, fn *ir.Function) ir.Value {
	trueBlock := l.newBlock()
	falseBlock := l.newBlock()
	done := l.newBlock()
	expt := l.newBlock()

	r := fn.LastBlock().PushMemAlloc(ir.ValueType())
	r.MakePersistent()

	t := l.expandRefGet(l.parseExpr(expr.Cond, fn), fn, expt)
	b := fn.LastBlock().PushValToBoolean(t)
	fn.LastBlock().PushBranch(b, trueBlock, falseBlock)

	fn.PushBlock(trueBlock)
	l.expandRefGetInto(l.parseExpr(expr.Left, fn), r, fn, done, expt)

	fn.PushBlock(falseBlock)
	l.expandRefGetInto(l.parseExpr(expr.Right, fn), r, fn, done, expt)

	l.inflatePad(fn, expt)
	fn.PushBlock(done)
	return r
}

// immediatePropertyKey reports the compile-time property name of a
// property access, when it has one: a dot access, or a subscript whose
// key is a string or number literal.
func immediatePropertyKey(expr *ast.PropertyExpr) (string, bool) {
	if !expr.Computed {
		id, ok := expr.Key.(*ast.Identifier)
		if !ok {
			return "", false
		}
		return id.Name, true
	}
	switch k := expr.Key.(type) {
	case *ast.StringLit:
		return k.Val, true
	case *ast.NumberLit:
		return k.Text, true
	}
	return "", false
}

func (l *Lowerer) parsePropExpr(expr *ast.PropertyExpr, fn *ir.Function) ir.Value {
	if key, ok := immediatePropertyKey(expr); ok {
		done := l.newBlock()
		expt := l.newBlock()

		slot := fn.LastBlock().PushMemAlloc(ir.ValueType())
		obj := l.expandRefGetInto(l.parseExpr(expr.Obj, fn), slot, fn, done, expt)

		l.inflatePad(fn, expt)
		fn.PushBlock(done)

		l.module.InternString(key)
		base := fn.LastBlock().PushValTestCoercibility(obj)
		l.guard(fn, base)
		return fn.LastBlock().PushMetaPrpLoad(obj, ir.NewStringConstant(key))
	}

	done := l.newBlock()
	expt := l.newBlock()

	key := l.expandRefGet(l.parseExpr(expr.Key, fn), fn, expt)
	obj := l.expandRefGet(l.parseExpr(expr.Obj, fn), fn, expt)
	fn.LastBlock().PushJump(done)

	l.inflatePad(fn, expt)
	fn.PushBlock(done)

	base := fn.LastBlock().PushValTestCoercibility(obj)
	l.guard(fn, base)
	return fn.LastBlock().PushMetaPrpLoad(obj, key)
}

// guard branches on a completed-normally flag: the success path
// continues in a fresh block, the fault path runs the innermost
// exception action.
func (l *Lowerer) guard(fn *ir.Function, ok ir.Value) {
	next := l.newBlock()
	expt := l.newBlock()
	fn.LastBlock().PushBranch(ok, next, expt)
	l.inflatePad(fn, expt)
	fn.PushBlock(next)
}

func (l *Lowerer) parseCallExpr(expr *ast.CallExpr, fn *ir.Function) ir.Value {
	done := l.newBlock()
	expt := l.newBlock()

	argc := len(expr.Args)
	argv := fn.LastBlock().PushMemAlloc(l.module.Types.Array(ir.ValueType(), argc))

	for i, arg := range expr.Args {
		v := l.expandRefGet(l.parseExpr(arg, fn), fn, expt)
		fn.LastBlock().PushArrPut(argv, i, v)
	}

	var r ir.Value
	switch callee := expr.Fun.(type) {
	case *ast.PropertyExpr:
		if key, ok := immediatePropertyKey(callee); ok {
			obj := l.expandRefGet(l.parseExpr(callee.Obj, fn), fn, expt)

			r = fn.LastBlock().PushMemAlloc(ir.ValueType())
			t := fn.LastBlock().PushCallKeyed(obj, l.keyFor(key), argc, argv, r)
			fn.LastBlock().PushBranch(t, done, expt)
		} else {
			key := l.expandRefGet(l.parseExpr(callee.Key, fn), fn, expt)
			obj := l.expandRefGet(l.parseExpr(callee.Obj, fn), fn, expt)

			r = fn.LastBlock().PushMemAlloc(ir.ValueType())
			t := fn.LastBlock().PushCallKeyedSlow(obj, key, argc, argv, r)
			fn.LastBlock().PushBranch(t, done, expt)
		}

	case *ast.Identifier:
		r = fn.LastBlock().PushMemAlloc(ir.ValueType())
		if local := l.getLocal(callee.Name); local != nil {
			t := fn.LastBlock().PushCall(local, argc, argv, r)
			fn.LastBlock().PushBranch(t, done, expt)
		} else {
			// The runtime resolves the callee and applies the implicit
			// this rule for unqualified calls.
			t := fn.LastBlock().PushCallNamed(l.keyFor(callee.Name), argc, argv, r)
			fn.LastBlock().PushBranch(t, done, expt)
		}

	default:
		f := l.expandRefGet(l.parseExpr(expr.Fun, fn), fn, expt)
		r = fn.LastBlock().PushMemAlloc(ir.ValueType())
		t := fn.LastBlock().PushCall(f, argc, argv, r)
		fn.LastBlock().PushBranch(t, done, expt)
	}

	l.inflatePad(fn, expt)
	fn.PushBlock(done)
	return r
}

func (l *Lowerer) parseNewExpr(expr *ast.NewExpr, fn *ir.Function) ir.Value {
	done := l.newBlock()
	expt := l.newBlock()

	f := l.expandRefGet(l.parseExpr(expr.Fun, fn), fn, expt)

	argc := len(expr.Args)
	argv := fn.LastBlock().PushMemAlloc(l.module.Types.Array(ir.ValueType(), argc))

	for i, arg := range expr.Args {
		v := l.expandRefGet(l.parseExpr(arg, fn), fn, expt)
		fn.LastBlock().PushArrPut(argv, i, v)
	}

	r := fn.LastBlock().PushMemAlloc(ir.ValueType())
	t := fn.LastBlock().PushCallNew(f, argc, argv, r)
	fn.LastBlock().PushBranch(t, done, expt)

	l.inflatePad(fn, expt)
	fn.PushBlock(done)
	return r
}

func (l *Lowerer) parseArrayLit(lit *ast.ArrayLit, fn *ir.Function) ir.Value {
	done := l.newBlock()
	expt := l.newBlock()

	arr := fn.LastBlock().PushMemAlloc(l.module.Types.Array(ir.ValueType(), len(lit.Values)))

	for i, el := range lit.Values {
		// Elisions lower to the nothing sentinel, which es_new_arr turns
		// into a hole rather than an element.
		v := l.expandRefGet(l.parseExpr(el, fn), fn, expt)
		fn.LastBlock().PushArrPut(arr, i, v)
	}

	r := fn.LastBlock().PushEsNewArr(len(lit.Values), arr)
	fn.LastBlock().PushJump(done)

	l.inflatePad(fn, expt)
	fn.PushBlock(done)
	return r
}

func (l *Lowerer) parseObjectLit(lit *ast.ObjectLit, fn *ir.Function) ir.Value {
	done := l.newBlock()
	expt := l.newBlock()

	r := fn.LastBlock().PushEsNewObj()

	for _, prop := range lit.Properties {
		next := l.newBlock()

		if prop.Kind == ast.PropertyData {
			k := l.expandRefGet(l.parseExpr(prop.Key, fn), fn, expt)
			v := l.expandRefGet(l.parseExpr(prop.Val, fn), fn, expt)

			t := fn.LastBlock().PushPrpDefData(r, k, v)
			fn.LastBlock().PushBranch(t, next, expt)
		} else {
			v := l.expandRefGet(l.parseExpr(prop.Val, fn), fn, expt)

			t := fn.LastBlock().PushPrpDefAccessor(r, l.keyFor(prop.AccessorName), v,
				prop.Kind == ast.PropertySetter)
			fn.LastBlock().PushBranch(t, next, expt)
		}

		fn.PushBlock(next)
	}

	fn.LastBlock().PushJump(done)

	l.inflatePad(fn, expt)
	fn.PushBlock(done)
	return r
}
