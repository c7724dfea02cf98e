package ast

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func decodeTestProgram(t *testing.T, src string) []Statement {
	t.Helper()
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Content) != 1 {
		t.Fatalf("documents = %d, want 1", len(doc.Content))
	}
	program, err := DecodeProgram(doc.Content[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return program
}

func TestDecodeFunctionDeclaration(t *testing.T) {
	program := decodeTestProgram(t, `
- kind: function_decl
  function:
    name: f
    params: [a, b]
    strict: true
    body:
      - kind: return
        expr:
          kind: binary
          op: add
          left: {kind: identifier, name: a}
          right: {kind: identifier, name: b}
`)

	if len(program) != 1 {
		t.Fatalf("statements = %d, want 1", len(program))
	}
	fn, ok := program[0].(*FunctionLit)
	if !ok {
		t.Fatalf("statement = %T, want *FunctionLit", program[0])
	}
	if fn.Name != "f" || !fn.IsDeclaration || !fn.IsStrict {
		t.Errorf("function = %+v", fn)
	}
	if len(fn.Params) != 2 || fn.Params[0] != "a" {
		t.Errorf("params = %v", fn.Params)
	}

	ret, ok := fn.Body[0].(*ReturnStmt)
	if !ok {
		t.Fatalf("body[0] = %T, want *ReturnStmt", fn.Body[0])
	}
	bin, ok := ret.Expr.(*BinaryExpr)
	if !ok || bin.Op != OpAdd {
		t.Fatalf("return expr = %T (%v)", ret.Expr, ret.Expr)
	}
	if id, ok := bin.Left.(*Identifier); !ok || id.Name != "a" {
		t.Errorf("left operand = %v", bin.Left)
	}
}

func TestDecodeStatementShapes(t *testing.T) {
	program := decodeTestProgram(t, `
- kind: var
  names: [x, y]
  inits:
    - {kind: number, text: "1"}
    - null
- kind: if
  cond: {kind: identifier, name: x}
  then: {kind: block, body: []}
- kind: for_in
  decl: {kind: var_lit, name: k}
  enum: {kind: identifier, name: o}
  body: {kind: block, body: []}
- kind: try
  try_block: {kind: block, body: []}
  catch_ident: e
  catch_block: {kind: block, body: []}
  finally_block: {kind: block, body: []}
- kind: switch
  expr: {kind: identifier, name: v}
  cases:
    - label: {kind: number, text: "1"}
      body: [{kind: break}]
    - body: [{kind: debugger}]
`)

	if len(program) != 5 {
		t.Fatalf("statements = %d, want 5", len(program))
	}

	vs := program[0].(*VarStmt)
	if len(vs.Names) != 2 || vs.Inits[0] == nil || vs.Inits[1] != nil {
		t.Errorf("var statement = %+v", vs)
	}

	ifs := program[1].(*IfStmt)
	if ifs.Else != nil {
		t.Error("absent else decoded non-nil")
	}

	fi := program[2].(*ForInStmt)
	if v, ok := fi.Decl.(*VariableLit); !ok || v.Name != "k" {
		t.Errorf("for-in decl = %v", fi.Decl)
	}

	try := program[3].(*TryStmt)
	if !try.HasCatch() || !try.HasFinally() || try.CatchIdent != "e" {
		t.Errorf("try statement = %+v", try)
	}

	sw := program[4].(*SwitchStmt)
	if len(sw.Clauses) != 2 {
		t.Fatalf("clauses = %d, want 2", len(sw.Clauses))
	}
	if sw.Clauses[0].IsDefault() || !sw.Clauses[1].IsDefault() {
		t.Error("default clause detection wrong")
	}
}

func TestDecodeObjectAccessors(t *testing.T) {
	program := decodeTestProgram(t, `
- kind: expr
  expr:
    kind: object
    properties:
      - kind: data
        key: {kind: string, value: a}
        val: {kind: number, text: "1"}
      - kind: setter
        accessor_name: b
        val:
          kind: function_expr
          function:
            params: [v]
            body: []
`)

	obj := program[0].(*ExprStmt).Expr.(*ObjectLit)
	if len(obj.Properties) != 2 {
		t.Fatalf("properties = %d, want 2", len(obj.Properties))
	}
	if obj.Properties[0].Kind != PropertyData {
		t.Error("first property is not data")
	}
	set := obj.Properties[1]
	if set.Kind != PropertySetter || set.AccessorName != "b" {
		t.Errorf("setter property = %+v", set)
	}
	if fe, ok := set.Val.(*FunctionExpr); !ok || len(fe.Fun.Params) != 1 {
		t.Errorf("setter value = %v", set.Val)
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(`[{kind: nonsense}]`), &doc); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeProgram(doc.Content[0]); err == nil {
		t.Fatal("unknown kind decoded without error")
	}
}

func TestAssignOpFolding(t *testing.T) {
	if op, ok := OpAssignAdd.BinaryOp(); !ok || op != OpAdd {
		t.Errorf("assign_add folds to %v, %v", op, ok)
	}
	if _, ok := OpAssign.BinaryOp(); ok {
		t.Error("plain assign reported a folded operator")
	}
}
