package lower

import (
	"sort"

	"github.com/RobertoMalatesta/descripten/ast"
)

// varStorage classifies where a binding's storage lives after analysis.
type varStorage int

const (
	// storageUnallocated means the binding is never referenced; no
	// storage is reserved and the declaration-instantiation prologue
	// skips it.
	storageUnallocated varStorage = iota
	// storageLocal is a slot in the function's stack-allocated locals
	// array.
	storageLocal
	// storageLocalExtra is a slot in the function's heap-allocated
	// extra-bindings record, used for bindings captured by inner
	// functions (and for parameters aliased by the arguments object).
	storageLocalExtra
	// storageContext resolves through the runtime scope chain: global
	// bindings, bindings visible to a with scope, and bindings in
	// eval-tainted functions.
	storageContext
)

// analyzedVar is one hoisted binding of a function: a formal parameter,
// the self-binding of a named function expression, a var declaration, a
// function declaration, or any combination sharing one name.
type analyzedVar struct {
	name       string
	paramIndex int
	isParam    bool
	isCallee   bool
	isVar      bool
	funDecl    *ast.FunctionLit
	storage    varStorage
}

func (v *analyzedVar) allocated() bool { return v.storage != storageUnallocated }

// analyzedFunction is the analysis result for one function literal: its
// hoisted binding set with storage assignments, whether eval may observe
// its bindings, whether an arguments object is required, and which
// enclosing frames its nested functions reach into.
type analyzedFunction struct {
	lit    *ast.FunctionLit
	vars   []*analyzedVar
	byName map[string]*analyzedVar

	taintedByEval bool
	needsArgsObj  bool

	refScopes map[int]bool
}

func (f *analyzedFunction) variable(name string) *analyzedVar { return f.byName[name] }

func (f *analyzedFunction) add(name string) *analyzedVar {
	if v, ok := f.byName[name]; ok {
		return v
	}
	v := &analyzedVar{name: name, paramIndex: -1}
	f.byName[name] = v
	f.vars = append(f.vars, v)
	return v
}

// numLocals counts bindings assigned to the stack locals array, not
// counting parameter slots (which occupy the front of the same array).
func (f *analyzedFunction) numLocals() int {
	n := 0
	for _, v := range f.vars {
		if v.storage == storageLocal && !v.isParam {
			n++
		}
	}
	return n
}

func (f *analyzedFunction) numExtra() int {
	n := 0
	for _, v := range f.vars {
		if v.storage == storageLocalExtra {
			n++
		}
	}
	return n
}

// referencedScopes returns the hop distances of enclosing frames this
// function reads captured bindings from, in increasing order.
func (f *analyzedFunction) referencedScopes() []int {
	hops := make([]int, 0, len(f.refScopes))
	for h := range f.refScopes {
		hops = append(hops, h)
	}
	sort.Ints(hops)
	return hops
}

// lexEnv is one frame of the analyzer's lexical environment stack. An
// object environment (the global scope, a with body) makes every lookup
// through it dynamic.
type lexEnv struct {
	isObj bool
	fn    *ast.FunctionLit
}

// analyzer computes, before any IR is emitted, where every binding
// lives: stack locals array, heap extra-bindings record, or the runtime
// scope chain. It walks the whole function tree once, resolving each
// identifier against the lexical environments in scope at its use site.
type analyzer struct {
	functions map[*ast.FunctionLit]*analyzedFunction
	envs      []*lexEnv
}

func newAnalyzer() *analyzer {
	return &analyzer{functions: make(map[*ast.FunctionLit]*analyzedFunction)}
}

func (a *analyzer) lookup(lit *ast.FunctionLit) *analyzedFunction { return a.functions[lit] }

// analyze runs the analysis rooted at the synthetic global function.
// The root environment is an object environment: global bindings are
// properties of the global object, never stack slots.
func (a *analyzer) analyze(root *ast.FunctionLit) {
	a.envs = append(a.envs, &lexEnv{isObj: true, fn: root})
	a.visitFun(root)
	a.envs = a.envs[:len(a.envs)-1]

	// Bindings of the global scope, and of any function whose bindings
	// eval may dynamically observe, must resolve through the context
	// even when nothing in the source references them.
	for _, fn := range a.functions {
		if fn.lit != root && !fn.taintedByEval {
			continue
		}
		for _, v := range fn.vars {
			if !v.allocated() {
				v.storage = storageContext
			}
		}
	}

	// An arguments object aliases its parameters by pointer, so every
	// parameter of a function that needs one must live on the heap.
	for _, fn := range a.functions {
		if !fn.needsArgsObj {
			continue
		}
		for _, v := range fn.vars {
			if v.isParam && (v.storage == storageUnallocated || v.storage == storageLocal) {
				v.storage = storageLocalExtra
			}
		}
	}
}

// visitFun hoists the function's declarations into its binding set, then
// walks its body.
func (a *analyzer) visitFun(lit *ast.FunctionLit) {
	fn, ok := a.functions[lit]
	if !ok {
		fn = &analyzedFunction{
			lit:       lit,
			byName:    make(map[string]*analyzedVar),
			refScopes: make(map[int]bool),
		}
		a.functions[lit] = fn
	}
	if lit.NeedsArgsObj {
		fn.needsArgsObj = true
	}

	// The last declared parameter wins when formals share a name.
	for i, p := range lit.Params {
		v := fn.add(p)
		v.isParam = true
		v.paramIndex = i
	}

	if !lit.IsDeclaration && lit.Name != "" {
		fn.add(lit.Name).isCallee = true
	}

	var funDecls []*ast.FunctionLit
	hoist(lit.Body, func(name string) {
		fn.add(name).isVar = true
	}, func(inner *ast.FunctionLit) {
		fn.add(inner.Name).funDecl = inner
		funDecls = append(funDecls, inner)
	})

	for _, inner := range funDecls {
		a.visitFunLit(inner)
	}
	for _, s := range lit.Body {
		a.visitStmt(s)
	}
}

func (a *analyzer) visitFunLit(lit *ast.FunctionLit) {
	a.envs = append(a.envs, &lexEnv{fn: lit})
	a.visitFun(lit)
	a.envs = a.envs[:len(a.envs)-1]
}

// hoist enumerates the var and function declarations of a statement
// list without descending into nested function literals — exactly the
// set of names declaration instantiation binds at function entry.
func hoist(body []ast.Statement, onVar func(string), onFun func(*ast.FunctionLit)) {
	for _, s := range body {
		hoistStmt(s, onVar, onFun)
	}
}

func hoistStmt(s ast.Statement, onVar func(string), onFun func(*ast.FunctionLit)) {
	switch st := s.(type) {
	case *ast.FunctionLit:
		if st.IsDeclaration {
			onFun(st)
		}
	case *ast.VarStmt:
		for _, n := range st.Names {
			onVar(n)
		}
	case *ast.BlockStmt:
		hoist(st.Body, onVar, onFun)
	case *ast.IfStmt:
		hoistStmt(st.Then, onVar, onFun)
		if st.Else != nil {
			hoistStmt(st.Else, onVar, onFun)
		}
	case *ast.DoWhileStmt:
		hoistStmt(st.Body, onVar, onFun)
	case *ast.WhileStmt:
		hoistStmt(st.Body, onVar, onFun)
	case *ast.ForInStmt:
		if d, ok := st.Decl.(*ast.VariableLit); ok {
			onVar(d.Name)
		}
		hoistStmt(st.Body, onVar, onFun)
	case *ast.ForStmt:
		if st.Init != nil {
			hoistStmt(st.Init, onVar, onFun)
		}
		hoistStmt(st.Body, onVar, onFun)
	case *ast.WithStmt:
		hoistStmt(st.Body, onVar, onFun)
	case *ast.SwitchStmt:
		for _, c := range st.Clauses {
			hoist(c.Body, onVar, onFun)
		}
	case *ast.TryStmt:
		hoistStmt(st.TryBlock, onVar, onFun)
		if st.CatchBlock != nil {
			hoistStmt(st.CatchBlock, onVar, onFun)
		}
		if st.FinallyBlock != nil {
			hoistStmt(st.FinallyBlock, onVar, onFun)
		}
	}
}

// visitIdent resolves one identifier use against the environment stack,
// upgrading the found binding's storage as its visibility demands.
func (a *analyzer) visitIdent(name string) {
	cur := a.envs[len(a.envs)-1]

	if name == "eval" {
		// eval may observe any binding in scope; taint the whole chain.
		for _, env := range a.envs {
			a.functions[env.fn].taintedByEval = true
		}
	}

	curFn := a.functions[cur.fn]
	if name == "arguments" {
		if _, declared := curFn.byName[name]; !declared {
			curFn.needsArgsObj = true
		}
	}

	foundObjEnv := false
	hops := 0
	for i := len(a.envs) - 1; i >= 0; i-- {
		env := a.envs[i]
		if env.isObj {
			foundObjEnv = true
		}

		if v := a.functions[env.fn].variable(name); v != nil {
			switch {
			case foundObjEnv:
				// An object environment between the use and the
				// binding makes the lookup dynamic.
				v.storage = storageContext
			case i == len(a.envs)-1:
				if !v.allocated() {
					v.storage = storageLocal
				}
			default:
				// Captured by a nested function: force the slot onto
				// the heap and record the hop distance at the use
				// site.
				if v.storage != storageContext {
					v.storage = storageLocalExtra
					curFn.refScopes[hops] = true
				}
			}
			return
		}
		hops++
	}
}

func (a *analyzer) visitStmt(s ast.Statement) {
	switch st := s.(type) {
	case *ast.EmptyStmt, *ast.DebuggerStmt, *ast.ContinueStmt, *ast.BreakStmt:
	case *ast.FunctionLit:
		// Visited from the hoisting pass of the enclosing function.
	case *ast.ExprStmt:
		a.visitExpr(st.Expr)
	case *ast.VarStmt:
		for i, n := range st.Names {
			a.visitIdent(n)
			if i < len(st.Inits) && st.Inits[i] != nil {
				a.visitExpr(st.Inits[i])
			}
		}
	case *ast.BlockStmt:
		for _, inner := range st.Body {
			a.visitStmt(inner)
		}
	case *ast.IfStmt:
		a.visitExpr(st.Cond)
		a.visitStmt(st.Then)
		if st.Else != nil {
			a.visitStmt(st.Else)
		}
	case *ast.DoWhileStmt:
		a.visitStmt(st.Body)
		a.visitExpr(st.Cond)
	case *ast.WhileStmt:
		a.visitExpr(st.Cond)
		a.visitStmt(st.Body)
	case *ast.ForInStmt:
		a.visitExpr(st.Enum)
		a.visitExpr(st.Decl)
		a.visitStmt(st.Body)
	case *ast.ForStmt:
		if st.Init != nil {
			a.visitStmt(st.Init)
		}
		if st.Cond != nil {
			a.visitExpr(st.Cond)
		}
		a.visitStmt(st.Body)
		if st.Next != nil {
			a.visitExpr(st.Next)
		}
	case *ast.ReturnStmt:
		if st.Expr != nil {
			a.visitExpr(st.Expr)
		}
	case *ast.WithStmt:
		a.visitExpr(st.Expr)
		cur := a.envs[len(a.envs)-1]
		a.envs = append(a.envs, &lexEnv{isObj: true, fn: cur.fn})
		a.visitStmt(st.Body)
		a.envs = a.envs[:len(a.envs)-1]
	case *ast.SwitchStmt:
		a.visitExpr(st.Expr)
		for _, c := range st.Clauses {
			if c.Label != nil {
				a.visitExpr(c.Label)
			}
			for _, inner := range c.Body {
				a.visitStmt(inner)
			}
		}
	case *ast.ThrowStmt:
		a.visitExpr(st.Expr)
	case *ast.TryStmt:
		a.visitStmt(st.TryBlock)
		if st.CatchBlock != nil {
			a.visitStmt(st.CatchBlock)
		}
		if st.FinallyBlock != nil {
			a.visitStmt(st.FinallyBlock)
		}
	}
}

func (a *analyzer) visitExpr(e ast.Expression) {
	switch ex := e.(type) {
	case *ast.ThisExpr, *ast.NullLit, *ast.BoolLit, *ast.NumberLit,
		*ast.StringLit, *ast.NothingLit, *ast.RegexLit:
	case *ast.Identifier:
		a.visitIdent(ex.Name)
	case *ast.VariableLit:
		a.visitIdent(ex.Name)
	case *ast.FunctionExpr:
		a.visitFunLit(ex.Fun)
	case *ast.ArrayLit:
		for _, v := range ex.Values {
			a.visitExpr(v)
		}
	case *ast.ObjectLit:
		for _, p := range ex.Properties {
			if p.Kind == ast.PropertyData {
				a.visitExpr(p.Key)
			}
			a.visitExpr(p.Val)
		}
	case *ast.BinaryExpr:
		a.visitExpr(ex.Left)
		a.visitExpr(ex.Right)
	case *ast.UnaryExpr:
		a.visitExpr(ex.Expr)
	case *ast.AssignExpr:
		a.visitExpr(ex.Lhs)
		a.visitExpr(ex.Rhs)
	case *ast.ConditionalExpr:
		a.visitExpr(ex.Cond)
		a.visitExpr(ex.Left)
		a.visitExpr(ex.Right)
	case *ast.PropertyExpr:
		if ex.Computed {
			a.visitExpr(ex.Key)
		}
		a.visitExpr(ex.Obj)
	case *ast.CallExpr:
		for _, arg := range ex.Args {
			a.visitExpr(arg)
		}
		a.visitExpr(ex.Fun)
	case *ast.NewExpr:
		for _, arg := range ex.Args {
			a.visitExpr(arg)
		}
		a.visitExpr(ex.Fun)
	}
}
