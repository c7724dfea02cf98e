package lower

import (
	"strings"
	"testing"

	"github.com/RobertoMalatesta/descripten/ast"
	"github.com/RobertoMalatesta/descripten/ir"
)

func mustLower(t *testing.T, program []ast.Statement) *ir.Module {
	t.Helper()
	m, diags := New().Lower(program)
	if m == nil {
		t.Fatalf("lowering failed: %v", diags)
	}
	validateModule(t, m)
	return m
}

// validateModule checks the structural invariants every emitted module
// must satisfy: block termination, referrer closure, and cache-id
// consistency.
func validateModule(t *testing.T, m *ir.Module) {
	t.Helper()

	for _, fn := range m.Functions {
		for _, b := range fn.Blocks {
			if !b.Empty() && !b.Terminated() {
				t.Errorf("%s/%s: non-empty block without terminator", fn.Name, b.Label)
			}
			for i, in := range b.Instructions {
				if in.IsTerminating() && i != len(b.Instructions)-1 {
					t.Errorf("%s/%s: terminator at position %d of %d", fn.Name, b.Label, i, len(b.Instructions))
				}
			}

			if term := b.LastInstr(); term != nil {
				var targets []*ir.Block
				switch ti := term.(type) {
				case *ir.Branch:
					targets = []*ir.Block{ti.TrueBlock, ti.FalseBlock}
				case *ir.Jump:
					targets = []*ir.Block{ti.Target}
				}
				for _, tgt := range targets {
					found := false
					for _, r := range tgt.Referrers {
						if r == b {
							found = true
						}
					}
					if !found {
						t.Errorf("%s: block %s not in referrer set of its target %s", fn.Name, b.Label, tgt.Label)
					}
				}
			}
		}
	}

	// A cache id names one lookup site: it must never serve two
	// distinct keys.
	idKeys := make(map[uint16]ir.Key)
	eachInstruction(m, func(fn *ir.Function, in ir.Instruction) {
		var key ir.Key
		var cid uint16
		switch i := in.(type) {
		case *ir.CtxGet:
			key, cid = i.Key, i.CacheID
		case *ir.CtxPut:
			key, cid = i.Key, i.CacheID
		default:
			return
		}
		if prev, ok := idKeys[cid]; ok && prev != key {
			t.Errorf("cache id %d serves two keys: %x and %x", cid, prev, key)
		}
		idKeys[cid] = key
	})
}

func eachInstruction(m *ir.Module, f func(*ir.Function, ir.Instruction)) {
	for _, fn := range m.Functions {
		for _, b := range fn.Blocks {
			for _, in := range b.Instructions {
				f(fn, in)
			}
		}
	}
}

func findFunction(t *testing.T, m *ir.Module, nameSubstr string) *ir.Function {
	t.Helper()
	for _, fn := range m.Functions {
		if strings.Contains(fn.Name, nameSubstr) {
			return fn
		}
	}
	t.Fatalf("no function matching %q in %v", nameSubstr, names(m))
	return nil
}

func names(m *ir.Module) []string {
	var out []string
	for _, fn := range m.Functions {
		out = append(out, fn.Name)
	}
	return out
}

func ident(name string) *ast.Identifier     { return &ast.Identifier{Name: name} }
func num(text string) *ast.NumberLit        { return &ast.NumberLit{Text: text} }
func exprStmt(e ast.Expression) *ast.ExprStmt { return &ast.ExprStmt{Expr: e} }

func funcDecl(name string, params []string, body ...ast.Statement) *ast.FunctionLit {
	return &ast.FunctionLit{Name: name, Params: params, Body: body, IsDeclaration: true}
}

func TestLowerEmptyProgram(t *testing.T) {
	m := mustLower(t, nil)

	if len(m.Functions) != 1 {
		t.Fatalf("functions = %d, want 1", len(m.Functions))
	}
	g := m.Functions[0]
	if g.Name != ir.GlobalFunctionName {
		t.Errorf("global function name = %q, want %q", g.Name, ir.GlobalFunctionName)
	}
	if !g.IsGlobal {
		t.Error("global function not marked global")
	}

	entry := g.EntryBlock()
	if set, ok := entry.Instructions[0].(*ir.CtxSetStrict); !ok || set.Strict {
		t.Errorf("entry does not open with ctx_set_strict(false): %T", entry.Instructions[0])
	}

	// Falling off the end returns undefined with the true flag.
	last := g.Blocks[len(g.Blocks)-1]
	ret, ok := last.LastInstr().(*ir.Return)
	if !ok {
		t.Fatalf("last block ends in %T, want return", last.LastInstr())
	}
	if b, ok := ret.Val.(*ir.BooleanConstant); !ok || !b.Val {
		t.Errorf("fall-through return flag = %v, want true", ret.Val)
	}
}

// S1: the body of function f(){ return 1+2; } lowers to boxed constants,
// es_bin_add into a slot, and a return through the return-value slot.
func TestScenarioReturnAdd(t *testing.T) {
	m := mustLower(t, []ast.Statement{
		funcDecl("f", nil, &ast.ReturnStmt{Expr: &ast.BinaryExpr{Op: ast.OpAdd, Left: num("1"), Right: num("2")}}),
		exprStmt(&ast.CallExpr{Fun: ident("f")}),
	})

	f := findFunction(t, m, "_f_")
	if f.IsGlobal {
		t.Error("inner function marked global")
	}
	if set, ok := f.EntryBlock().Instructions[0].(*ir.CtxSetStrict); !ok || set.Strict {
		t.Error("function does not open with ctx_set_strict(false)")
	}

	var add *ir.EsBinary
	var boxes int
	for _, b := range f.Blocks {
		for _, in := range b.Instructions {
			switch i := in.(type) {
			case *ir.EsBinary:
				if i.Op == ir.EsAdd {
					add = i
				}
			case *ir.ValInst:
				if i.Op == ir.ValFromDouble {
					boxes++
				}
			}
		}
	}
	if add == nil {
		t.Fatal("no es_bin_add emitted")
	}
	if boxes < 2 {
		t.Errorf("boxed doubles = %d, want >= 2", boxes)
	}
	if _, ok := add.Left.(*ir.ValInst); !ok {
		t.Errorf("es_bin_add left operand = %T, want boxed double", add.Left)
	}
}

// S2: function f(o){ return o.x; } binds o through the parameter array
// and reads x through the coercibility-tested fast path.
func TestScenarioPropertyRead(t *testing.T) {
	m := mustLower(t, []ast.Statement{
		funcDecl("f", []string{"o"},
			&ast.ReturnStmt{Expr: &ast.PropertyExpr{Obj: ident("o"), Key: ident("x")}}),
		exprStmt(&ast.CallExpr{Fun: ident("f")}),
	})

	f := findFunction(t, m, "_f_")

	var initArgs *ir.InitArgs
	var tst *ir.ValInst
	var get *ir.PrpGet
	for _, b := range f.Blocks {
		for _, in := range b.Instructions {
			switch i := in.(type) {
			case *ir.InitArgs:
				initArgs = i
			case *ir.ValInst:
				if i.Op == ir.ValTestCoercibility {
					tst = i
				}
			case *ir.PrpGet:
				get = i
			}
		}
	}

	if initArgs == nil || initArgs.Prmc != 1 {
		t.Fatalf("init_args = %+v, want prmc 1", initArgs)
	}
	if tst == nil {
		t.Fatal("no val_tst_coerc before the property read")
	}
	if get == nil {
		t.Fatal("no prp_get emitted")
	}
	if get.Key != m.Keys.KeyFor("x") {
		t.Errorf("prp_get key = %x, want key of x", get.Key)
	}
	if _, ok := get.Res.(*ir.ReturnConstant); !ok {
		t.Errorf("prp_get result slot = %T, want the return-value slot", get.Res)
	}
}

// S3: try { throw 1; } catch (e) { x = e; } routes the throw through the
// landing pad into the save/enter/clear catch entry sequence.
func TestScenarioTryCatch(t *testing.T) {
	m := mustLower(t, []ast.Statement{
		&ast.TryStmt{
			TryBlock:   &ast.BlockStmt{Body: []ast.Statement{&ast.ThrowStmt{Expr: num("1")}}},
			CatchIdent: "e",
			CatchBlock: &ast.BlockStmt{Body: []ast.Statement{
				exprStmt(&ast.AssignExpr{Lhs: ident("x"), Rhs: ident("e")}),
			}},
		},
	})

	g := m.Functions[0]

	var exSet *ir.ExSet
	var catchBlock *ir.Block
	for _, b := range g.Blocks {
		for i, in := range b.Instructions {
			if s, ok := in.(*ir.ExSet); ok {
				exSet = s
			}
			if enter, ok := in.(*ir.CtxEnterCatch); ok {
				catchBlock = b
				if enter.Key != m.Keys.KeyFor("e") {
					t.Errorf("ctx_enter_catch key = %x, want key of e", enter.Key)
				}
				if i == 0 {
					t.Error("ctx_enter_catch not preceded by ex_save_state")
				} else if _, ok := b.Instructions[i-1].(*ir.ExSaveState); !ok {
					t.Errorf("instruction before ctx_enter_catch = %T, want ex_save_state", b.Instructions[i-1])
				}
				if i+1 >= len(b.Instructions) {
					t.Error("ctx_enter_catch not followed by ex_clear")
				} else if _, ok := b.Instructions[i+1].(*ir.ExClear); !ok {
					t.Errorf("instruction after ctx_enter_catch = %T, want ex_clear", b.Instructions[i+1])
				}
			}
		}
	}

	if exSet == nil {
		t.Fatal("no ex_set emitted for throw")
	}
	if catchBlock == nil {
		t.Fatal("no ctx_enter_catch emitted")
	}
	if len(catchBlock.Referrers) == 0 {
		t.Error("catch entry block has no referrers; throw does not reach it")
	}

	// The caught exception reaches the catch body through the scope
	// chain, and the assignment leaves through ctx_put.
	var getE *ir.CtxGet
	var leave *ir.CtxLeave
	eachInstruction(m, func(_ *ir.Function, in ir.Instruction) {
		if i, ok := in.(*ir.CtxGet); ok && i.Key == m.Keys.KeyFor("e") {
			getE = i
		}
		if i, ok := in.(*ir.CtxLeave); ok {
			leave = i
		}
	})
	if getE == nil {
		t.Error("catch body does not read e through ctx_get")
	}
	if leave == nil {
		t.Error("no ctx_leave closing the catch scope")
	}
}

// S4: for (var k in obj) {} lowers to the iterator protocol with the
// bound name written through the context.
func TestScenarioForIn(t *testing.T) {
	m := mustLower(t, []ast.Statement{
		&ast.ForInStmt{
			Decl: &ast.VariableLit{Name: "k"},
			Enum: ident("obj"),
			Body: &ast.BlockStmt{},
		},
	})

	var itNew *ir.PrpItNew
	var itNext *ir.PrpItNext
	var putK *ir.CtxPut
	eachInstruction(m, func(_ *ir.Function, in ir.Instruction) {
		switch i := in.(type) {
		case *ir.PrpItNew:
			itNew = i
		case *ir.PrpItNext:
			itNext = i
		case *ir.CtxPut:
			if i.Key == m.Keys.KeyFor("k") {
				putK = i
			}
		}
	})

	if itNew == nil {
		t.Fatal("no prp_it_new emitted")
	}
	if itNext == nil {
		t.Fatal("no prp_it_next emitted")
	}
	if itNext.It != itNew {
		t.Error("prp_it_next does not consume the prp_it_new iterator")
	}
	if !itNew.Persistent() {
		t.Error("iterator spanning the loop not marked persistent")
	}
	if putK == nil {
		t.Fatal("loop variable k not bound through ctx_put")
	}
	if putK.Val != itNext.Val {
		t.Error("ctx_put does not store the iteration slot")
	}
}

// S5: the same identifier in two functions interns to one key.
func TestScenarioSharedKeys(t *testing.T) {
	m := mustLower(t, []ast.Statement{
		funcDecl("a", nil, exprStmt(&ast.AssignExpr{Lhs: ident("foo"), Rhs: num("1")})),
		funcDecl("b", nil, exprStmt(&ast.AssignExpr{Lhs: ident("foo"), Rhs: num("2")})),
		exprStmt(&ast.CallExpr{Fun: ident("a")}),
		exprStmt(&ast.CallExpr{Fun: ident("b")}),
	})

	var keys []ir.Key
	for _, fname := range []string{"_a_", "_b_"} {
		fn := findFunction(t, m, fname)
		for _, b := range fn.Blocks {
			for _, in := range b.Instructions {
				if p, ok := in.(*ir.CtxPut); ok {
					keys = append(keys, p.Key)
				}
			}
		}
	}
	if len(keys) != 2 {
		t.Fatalf("ctx_put count = %d, want 2", len(keys))
	}
	if keys[0] != keys[1] {
		t.Errorf("keys for foo differ across functions: %x, %x", keys[0], keys[1])
	}
}

// S6: a nested function referencing the outer's x forces the slot into
// the extra-bindings record, reached through one hop.
func TestScenarioClosureCapture(t *testing.T) {
	m := mustLower(t, []ast.Statement{
		funcDecl("outer", nil,
			&ast.VarStmt{Names: []string{"x"}},
			funcDecl("inner", nil,
				exprStmt(&ast.AssignExpr{Lhs: ident("x"), Rhs: num("1")})),
			&ast.ReturnStmt{Expr: ident("inner")},
		),
		exprStmt(&ast.CallExpr{Fun: ident("outer")}),
	})

	outer := findFunction(t, m, "_outer_")
	inner := findFunction(t, m, "_inner_")

	var init *ir.BndExtraInit
	for _, b := range outer.Blocks {
		for _, in := range b.Instructions {
			if i, ok := in.(*ir.BndExtraInit); ok {
				init = i
			}
		}
	}
	if init == nil {
		t.Fatal("outer function does not allocate an extra-bindings record")
	}
	if init.NumExtra < 1 {
		t.Errorf("bnd_extra_init size = %d, want >= 1", init.NumExtra)
	}
	if !init.Persistent() {
		t.Error("extra-bindings record not marked persistent")
	}

	var ptr *ir.BndExtraPtr
	for _, b := range inner.Blocks {
		for _, in := range b.Instructions {
			if i, ok := in.(*ir.BndExtraPtr); ok {
				ptr = i
			}
		}
	}
	if ptr == nil {
		t.Fatal("inner function does not obtain the outer bindings pointer")
	}
	if ptr.Hops != 1 {
		t.Errorf("bnd_extra_ptr hops = %d, want 1", ptr.Hops)
	}

	// The write site stores through the rebased slot, not through the
	// context.
	var store *ir.MemStore
	for _, b := range inner.Blocks {
		for _, in := range b.Instructions {
			if s, ok := in.(*ir.MemStore); ok {
				if elem, ok := s.Dst.(*ir.ArrayElementConstant); ok && elem.Array == ptr {
					store = s
				}
			}
		}
	}
	if store == nil {
		t.Error("captured x not written through the extra-bindings pointer")
	}
}

func TestLoweringIdempotence(t *testing.T) {
	program := []ast.Statement{
		funcDecl("f", []string{"a", "b"},
			&ast.ReturnStmt{Expr: &ast.BinaryExpr{Op: ast.OpAdd, Left: ident("a"), Right: ident("b")}}),
		exprStmt(&ast.CallExpr{Fun: ident("f"), Args: []ast.Expression{num("1"), num("2")}}),
	}

	m1 := mustLower(t, program)
	m2 := mustLower(t, program)
	if m1.Dump() != m2.Dump() {
		t.Error("lowering the same AST twice produced structurally different modules")
	}
}

func TestGlobalAssignmentUsesContext(t *testing.T) {
	m := mustLower(t, []ast.Statement{
		exprStmt(&ast.AssignExpr{Lhs: ident("x"), Rhs: num("1")}),
		exprStmt(ident("x")),
	})

	var puts []*ir.CtxPut
	var gets []*ir.CtxGet
	eachInstruction(m, func(_ *ir.Function, in ir.Instruction) {
		switch i := in.(type) {
		case *ir.CtxPut:
			puts = append(puts, i)
		case *ir.CtxGet:
			gets = append(gets, i)
		}
	})
	if len(puts) != 1 || len(gets) != 1 {
		t.Fatalf("ctx_put = %d, ctx_get = %d, want 1 and 1", len(puts), len(gets))
	}
	if puts[0].Key != gets[0].Key {
		t.Error("read and write of x use different keys")
	}
	// Same key, same enclosing scope: the inline-cache site is shared.
	if puts[0].CacheID != gets[0].CacheID {
		t.Errorf("cache ids differ for one site: %d, %d", puts[0].CacheID, gets[0].CacheID)
	}
}

func TestCacheIDsDifferAcrossFunctions(t *testing.T) {
	m := mustLower(t, []ast.Statement{
		funcDecl("a", nil, exprStmt(&ast.AssignExpr{Lhs: ident("foo"), Rhs: num("1")})),
		funcDecl("b", nil, exprStmt(&ast.AssignExpr{Lhs: ident("foo"), Rhs: num("2")})),
		exprStmt(&ast.CallExpr{Fun: ident("a")}),
		exprStmt(&ast.CallExpr{Fun: ident("b")}),
	})

	ids := make(map[uint16]int)
	eachInstruction(m, func(_ *ir.Function, in ir.Instruction) {
		if p, ok := in.(*ir.CtxPut); ok {
			ids[p.CacheID]++
		}
	})
	if len(ids) != 2 {
		t.Errorf("distinct cache ids = %d, want 2 (one per function scope)", len(ids))
	}
}

func TestWithStatementScopeBalance(t *testing.T) {
	m := mustLower(t, []ast.Statement{
		&ast.WithStmt{
			Expr: ident("o"),
			Body: &ast.BlockStmt{Body: []ast.Statement{
				exprStmt(&ast.AssignExpr{Lhs: ident("x"), Rhs: num("1")}),
			}},
		},
	})

	var enters, leaves int
	eachInstruction(m, func(_ *ir.Function, in ir.Instruction) {
		switch in.(type) {
		case *ir.CtxEnterWith:
			enters++
		case *ir.CtxLeave:
			leaves++
		}
	})
	if enters != 1 {
		t.Fatalf("ctx_enter_with = %d, want 1", enters)
	}
	if leaves < 1 {
		t.Fatal("no ctx_leave on the with exit path")
	}
}

func TestBreakOutOfWithEmitsLeave(t *testing.T) {
	// break crossing a with scope must run its epilogue on the way out.
	m := mustLower(t, []ast.Statement{
		&ast.WhileStmt{
			Cond: ident("c"),
			Body: &ast.WithStmt{
				Expr: ident("o"),
				Body: &ast.BlockStmt{Body: []ast.Statement{&ast.BreakStmt{}}},
			},
		},
	})

	// Normal exit leave + break-path leave.
	var leaves int
	eachInstruction(m, func(_ *ir.Function, in ir.Instruction) {
		if _, ok := in.(*ir.CtxLeave); ok {
			leaves++
		}
	})
	if leaves < 2 {
		t.Errorf("ctx_leave count = %d, want >= 2 (normal path and break unwind)", leaves)
	}
}

func TestSwitchFallThrough(t *testing.T) {
	m := mustLower(t, []ast.Statement{
		&ast.SwitchStmt{
			Expr: ident("v"),
			Clauses: []*ast.CaseClause{
				{Label: num("1"), Body: []ast.Statement{exprStmt(&ast.AssignExpr{Lhs: ident("a"), Rhs: num("1")})}},
				{Label: nil, Body: []ast.Statement{exprStmt(&ast.AssignExpr{Lhs: ident("b"), Rhs: num("2")})}},
				{Label: num("3"), Body: []ast.Statement{&ast.BreakStmt{}}},
			},
		},
	})

	var eqs int
	eachInstruction(m, func(_ *ir.Function, in ir.Instruction) {
		if b, ok := in.(*ir.EsBinary); ok && b.Op == ir.EsStrictEq {
			eqs++
		}
	})
	// Two labelled cases compare; the default does not.
	if eqs != 2 {
		t.Errorf("strict_eq comparisons = %d, want 2", eqs)
	}
}

func TestDiagnostics(t *testing.T) {
	cases := []struct {
		name    string
		program []ast.Statement
		want    string
	}{
		{
			name: "duplicate strict params",
			program: []ast.Statement{
				&ast.FunctionLit{Name: "f", Params: []string{"a", "a"}, IsDeclaration: true, IsStrict: true},
				exprStmt(&ast.CallExpr{Fun: ident("f")}),
			},
			want: "duplicate parameter",
		},
		{
			name: "with in strict mode",
			program: []ast.Statement{
				&ast.FunctionLit{Name: "f", IsDeclaration: true, IsStrict: true, Body: []ast.Statement{
					&ast.WithStmt{Expr: ident("o"), Body: &ast.BlockStmt{}},
				}},
				exprStmt(&ast.CallExpr{Fun: ident("f")}),
			},
			want: "with statement",
		},
		{
			name: "strict delete of identifier",
			program: []ast.Statement{
				&ast.FunctionLit{Name: "f", IsDeclaration: true, IsStrict: true, Body: []ast.Statement{
					exprStmt(&ast.UnaryExpr{Op: ast.OpDelete, Expr: ident("x")}),
				}},
				exprStmt(&ast.CallExpr{Fun: ident("f")}),
			},
			want: "delete",
		},
		{
			name:    "return outside function",
			program: []ast.Statement{&ast.ReturnStmt{}},
			want:    "return statement outside",
		},
		{
			name:    "break outside loop",
			program: []ast.Statement{&ast.BreakStmt{}},
			want:    "break statement outside",
		},
		{
			name:    "continue with unknown label",
			program: []ast.Statement{&ast.WhileStmt{Cond: ident("c"), Body: &ast.ContinueStmt{Label: "missing"}}},
			want:    "unknown label",
		},
		{
			name:    "assignment to non-lvalue",
			program: []ast.Statement{exprStmt(&ast.AssignExpr{Lhs: num("1"), Rhs: num("2")})},
			want:    "assignment target",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, diags := New().Lower(tc.program)
			if m != nil {
				t.Fatal("lowering succeeded, want diagnostic")
			}
			if len(diags) == 0 {
				t.Fatal("no diagnostics returned")
			}
			if !strings.Contains(diags[0].Error(), tc.want) {
				t.Errorf("diagnostic %q does not mention %q", diags[0].Error(), tc.want)
			}
		})
	}
}

func TestStrictModeInheritance(t *testing.T) {
	m := mustLower(t, []ast.Statement{
		&ast.FunctionLit{Name: "f", IsDeclaration: true, IsStrict: true, Body: []ast.Statement{
			funcDecl("g", nil),
			&ast.ReturnStmt{Expr: ident("g")},
		}},
		exprStmt(&ast.CallExpr{Fun: ident("f")}),
	})

	g := findFunction(t, m, "_g_")
	if !g.IsStrict {
		t.Error("nested function did not inherit strict mode")
	}
	if set, ok := g.EntryBlock().Instructions[0].(*ir.CtxSetStrict); !ok || !set.Strict {
		t.Error("nested function does not open with ctx_set_strict(true)")
	}
}

func TestArgumentsObjectPrologue(t *testing.T) {
	m := mustLower(t, []ast.Statement{
		funcDecl("f", []string{"a"},
			&ast.ReturnStmt{Expr: ident("arguments")}),
		exprStmt(&ast.CallExpr{Fun: ident("f")}),
	})

	f := findFunction(t, m, "_f_")

	var objInit *ir.ArgsObjInit
	var link *ir.ArgsObjLink
	var initArgs *ir.InitArgs
	for _, b := range f.Blocks {
		for _, in := range b.Instructions {
			switch i := in.(type) {
			case *ir.ArgsObjInit:
				objInit = i
			case *ir.ArgsObjLink:
				link = i
			case *ir.InitArgs:
				initArgs = i
			}
		}
	}
	if objInit == nil {
		t.Fatal("no args_obj_init for a function referencing arguments")
	}
	if link == nil {
		t.Fatal("parameter not linked into the arguments object")
	}
	if initArgs == nil {
		t.Fatal("actual arguments not copied into the parameter array")
	}
	if link.Args != objInit {
		t.Error("args_obj_link does not target the args_obj_init object")
	}
}
