package ast

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeProgram decodes the top-level statement list of a fixture: a
// YAML sequence node of statement nodes, the format cmd/escmidc reads
// and lower/golden_test.go bundles via txtar.
func DecodeProgram(n *yaml.Node) ([]Statement, error) {
	return decodeStatementSlice(n)
}

// fields returns the key/value pairs of a YAML mapping node as a
// lookup table, the low-level traversal decode.go relies on instead of
// decoding into a fixed Go struct per kind — the node shape varies by
// the "kind" discriminator, so there is no single struct to decode into.
func fields(n *yaml.Node) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("ast: expected mapping node, got %v at line %d", n.Kind, n.Line)
	}
	m := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		m[n.Content[i].Value] = n.Content[i+1]
	}
	return m, nil
}

func kindOf(n *yaml.Node) (string, map[string]*yaml.Node, error) {
	m, err := fields(n)
	if err != nil {
		return "", nil, err
	}
	k, ok := m["kind"]
	if !ok {
		return "", nil, fmt.Errorf("ast: node missing \"kind\" field at line %d", n.Line)
	}
	var kind string
	if err := k.Decode(&kind); err != nil {
		return "", nil, err
	}
	return kind, m, nil
}

func decodeMeta(m map[string]*yaml.Node) (Meta, error) {
	mn, ok := m["meta"]
	if !ok {
		return Meta{}, nil
	}
	var meta Meta
	if err := mn.Decode(&meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

func decodeString(m map[string]*yaml.Node, key string) (string, error) {
	n, ok := m[key]
	if !ok {
		return "", nil
	}
	var s string
	if err := n.Decode(&s); err != nil {
		return "", fmt.Errorf("ast: field %q: %w", key, err)
	}
	return s, nil
}

func decodeStringSlice(m map[string]*yaml.Node, key string) ([]string, error) {
	n, ok := m[key]
	if !ok {
		return nil, nil
	}
	var s []string
	if err := n.Decode(&s); err != nil {
		return nil, fmt.Errorf("ast: field %q: %w", key, err)
	}
	return s, nil
}

func decodeBool(m map[string]*yaml.Node, key string) (bool, error) {
	n, ok := m[key]
	if !ok {
		return false, nil
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		return false, fmt.Errorf("ast: field %q: %w", key, err)
	}
	return b, nil
}

// decodeExpr decodes a required expression field; decodeExprOpt decodes
// an optional one, returning nil when the key is absent or explicitly
// null — the YAML stand-in for the original's NULL child pointers
// (an elided `for(;;)` clause, an `if` with no `else`).
func decodeExpr(m map[string]*yaml.Node, key string) (Expression, error) {
	n, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("ast: missing required expression field %q", key)
	}
	return DecodeExpression(n)
}

func decodeExprOpt(m map[string]*yaml.Node, key string) (Expression, error) {
	n, ok := m[key]
	if !ok || n.Tag == "!!null" {
		return nil, nil
	}
	return DecodeExpression(n)
}

func decodeStmt(m map[string]*yaml.Node, key string) (Statement, error) {
	n, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("ast: missing required statement field %q", key)
	}
	return DecodeStatement(n)
}

func decodeStmtOpt(m map[string]*yaml.Node, key string) (Statement, error) {
	n, ok := m[key]
	if !ok || n.Tag == "!!null" {
		return nil, nil
	}
	return DecodeStatement(n)
}

func decodeExprSlice(m map[string]*yaml.Node, key string) ([]Expression, error) {
	n, ok := m[key]
	if !ok {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("ast: field %q: expected sequence, got %v", key, n.Kind)
	}
	out := make([]Expression, len(n.Content))
	for i, c := range n.Content {
		e, err := DecodeExpression(c)
		if err != nil {
			return nil, fmt.Errorf("ast: field %q[%d]: %w", key, i, err)
		}
		out[i] = e
	}
	return out, nil
}

func decodeStatementSlice(n *yaml.Node) ([]Statement, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("ast: expected sequence of statements, got %v at line %d", n.Kind, n.Line)
	}
	out := make([]Statement, len(n.Content))
	for i, c := range n.Content {
		s, err := DecodeStatement(c)
		if err != nil {
			return nil, fmt.Errorf("ast: statement[%d]: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

func decodeBodyField(m map[string]*yaml.Node, key string) ([]Statement, error) {
	return decodeStatementSlice(m[key])
}

// DecodeExpression decodes one expression node by its "kind" field.
func DecodeExpression(n *yaml.Node) (Expression, error) {
	kind, m, err := kindOf(n)
	if err != nil {
		return nil, err
	}
	meta, err := decodeMeta(m)
	if err != nil {
		return nil, err
	}
	eb := exprBase{nodeBase{meta}}
	lb := lhsExprBase{nodeBase{meta}}

	switch kind {
	case "this":
		return &ThisExpr{eb}, nil
	case "identifier":
		name, err := decodeString(m, "name")
		if err != nil {
			return nil, err
		}
		return &Identifier{lb, name}, nil
	case "null":
		return &NullLit{eb}, nil
	case "bool":
		v, err := decodeBool(m, "value")
		if err != nil {
			return nil, err
		}
		return &BoolLit{eb, v}, nil
	case "number":
		text, err := decodeString(m, "text")
		if err != nil {
			return nil, err
		}
		return &NumberLit{eb, text}, nil
	case "string":
		v, err := decodeString(m, "value")
		if err != nil {
			return nil, err
		}
		return &StringLit{eb, v}, nil
	case "nothing":
		return &NothingLit{eb}, nil
	case "regex":
		pattern, err := decodeString(m, "pattern")
		if err != nil {
			return nil, err
		}
		flags, err := decodeString(m, "flags")
		if err != nil {
			return nil, err
		}
		return &RegexLit{eb, pattern, flags}, nil
	case "function_expr":
		fn, err := decodeFunctionLit(m, false)
		if err != nil {
			return nil, err
		}
		return &FunctionExpr{eb, fn}, nil
	case "array":
		vals, err := decodeExprSlice(m, "values")
		if err != nil {
			return nil, err
		}
		return &ArrayLit{eb, vals}, nil
	case "object":
		props, err := decodeProperties(m)
		if err != nil {
			return nil, err
		}
		return &ObjectLit{eb, props}, nil
	case "binary":
		op, err := decodeString(m, "op")
		if err != nil {
			return nil, err
		}
		left, err := decodeExpr(m, "left")
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(m, "right")
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{eb, binaryOpFromString(op), left, right}, nil
	case "unary":
		op, err := decodeString(m, "op")
		if err != nil {
			return nil, err
		}
		expr, err := decodeExpr(m, "expr")
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{eb, unaryOpFromString(op), expr}, nil
	case "assign":
		op, err := decodeString(m, "op")
		if err != nil {
			return nil, err
		}
		lhs, err := decodeExpr(m, "lhs")
		if err != nil {
			return nil, err
		}
		rhs, err := decodeExpr(m, "rhs")
		if err != nil {
			return nil, err
		}
		return &AssignExpr{eb, assignOpFromString(op), lhs, rhs}, nil
	case "conditional":
		cond, err := decodeExpr(m, "cond")
		if err != nil {
			return nil, err
		}
		left, err := decodeExpr(m, "left")
		if err != nil {
			return nil, err
		}
		right, err := decodeExpr(m, "right")
		if err != nil {
			return nil, err
		}
		return &ConditionalExpr{eb, cond, left, right}, nil
	case "property":
		obj, err := decodeExpr(m, "obj")
		if err != nil {
			return nil, err
		}
		key, err := decodeExpr(m, "key")
		if err != nil {
			return nil, err
		}
		computed, err := decodeBool(m, "computed")
		if err != nil {
			return nil, err
		}
		return &PropertyExpr{lb, obj, key, computed}, nil
	case "call":
		fun, err := decodeExpr(m, "fun")
		if err != nil {
			return nil, err
		}
		args, err := decodeExprSlice(m, "args")
		if err != nil {
			return nil, err
		}
		return &CallExpr{eb, fun, args}, nil
	case "new":
		fun, err := decodeExpr(m, "fun")
		if err != nil {
			return nil, err
		}
		args, err := decodeExprSlice(m, "args")
		if err != nil {
			return nil, err
		}
		return &NewExpr{eb, fun, args}, nil
	case "var_lit":
		name, err := decodeString(m, "name")
		if err != nil {
			return nil, err
		}
		return &VariableLit{lb, name}, nil
	default:
		return nil, fmt.Errorf("ast: unknown expression kind %q at line %d", kind, n.Line)
	}
}

func decodeProperties(m map[string]*yaml.Node) ([]*Property, error) {
	n, ok := m["properties"]
	if !ok {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("ast: field \"properties\": expected sequence, got %v", n.Kind)
	}
	out := make([]*Property, len(n.Content))
	for i, c := range n.Content {
		pm, err := fields(c)
		if err != nil {
			return nil, fmt.Errorf("ast: properties[%d]: %w", i, err)
		}
		kindStr, err := decodeString(pm, "kind")
		if err != nil {
			return nil, err
		}
		val, err := decodeExpr(pm, "val")
		if err != nil {
			return nil, err
		}
		switch kindStr {
		case "getter", "setter":
			name, err := decodeString(pm, "accessor_name")
			if err != nil {
				return nil, err
			}
			k := PropertyGetter
			if kindStr == "setter" {
				k = PropertySetter
			}
			out[i] = &Property{Kind: k, Val: val, AccessorName: name}
		default:
			key, err := decodeExpr(pm, "key")
			if err != nil {
				return nil, err
			}
			out[i] = &Property{Kind: PropertyData, Key: key, Val: val}
		}
	}
	return out, nil
}

func decodeFunctionLit(m map[string]*yaml.Node, isDeclaration bool) (*FunctionLit, error) {
	fn, ok := m["function"]
	if !ok {
		fn = nil
	}
	fm := m
	if fn != nil {
		var err error
		fm, err = fields(fn)
		if err != nil {
			return nil, err
		}
	}
	meta, err := decodeMeta(fm)
	if err != nil {
		return nil, err
	}
	name, err := decodeString(fm, "name")
	if err != nil {
		return nil, err
	}
	params, err := decodeStringSlice(fm, "params")
	if err != nil {
		return nil, err
	}
	body, err := decodeBodyField(fm, "body")
	if err != nil {
		return nil, err
	}
	strict, err := decodeBool(fm, "strict")
	if err != nil {
		return nil, err
	}
	needsArgs, err := decodeBool(fm, "needs_args_obj")
	if err != nil {
		return nil, err
	}
	return &FunctionLit{
		nodeBase:      nodeBase{meta},
		Name:          name,
		Params:        params,
		Body:          body,
		IsDeclaration: isDeclaration,
		IsStrict:      strict,
		NeedsArgsObj:  needsArgs,
	}, nil
}

// DecodeStatement decodes one statement node by its "kind" field.
func DecodeStatement(n *yaml.Node) (Statement, error) {
	kind, m, err := kindOf(n)
	if err != nil {
		return nil, err
	}
	meta, err := decodeMeta(m)
	if err != nil {
		return nil, err
	}
	sb := stmtBase{nodeBase{meta}}

	labels, err := decodeStringSlice(m, "labels")
	if err != nil {
		return nil, err
	}
	lb := labeledBase{sb, labels}

	switch kind {
	case "function_decl":
		return decodeFunctionLit(m, true)
	case "empty":
		return &EmptyStmt{sb}, nil
	case "expr":
		e, err := decodeExpr(m, "expr")
		if err != nil {
			return nil, err
		}
		return &ExprStmt{sb, e}, nil
	case "var":
		names, err := decodeStringSlice(m, "names")
		if err != nil {
			return nil, err
		}
		initsNode, ok := m["inits"]
		var inits []Expression
		if ok {
			if initsNode.Kind != yaml.SequenceNode {
				return nil, fmt.Errorf("ast: field \"inits\": expected sequence, got %v", initsNode.Kind)
			}
			inits = make([]Expression, len(initsNode.Content))
			for i, c := range initsNode.Content {
				if c.Tag == "!!null" {
					continue
				}
				e, err := DecodeExpression(c)
				if err != nil {
					return nil, fmt.Errorf("ast: inits[%d]: %w", i, err)
				}
				inits[i] = e
			}
		}
		return &VarStmt{sb, names, inits}, nil
	case "block":
		body, err := decodeBodyField(m, "body")
		if err != nil {
			return nil, err
		}
		hidden, err := decodeBool(m, "hidden")
		if err != nil {
			return nil, err
		}
		return &BlockStmt{lb, body, hidden}, nil
	case "if":
		cond, err := decodeExpr(m, "cond")
		if err != nil {
			return nil, err
		}
		then, err := decodeStmt(m, "then")
		if err != nil {
			return nil, err
		}
		els, err := decodeStmtOpt(m, "else")
		if err != nil {
			return nil, err
		}
		return &IfStmt{sb, cond, then, els}, nil
	case "do_while":
		cond, err := decodeExpr(m, "cond")
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(m, "body")
		if err != nil {
			return nil, err
		}
		return &DoWhileStmt{lb, cond, body}, nil
	case "while":
		cond, err := decodeExpr(m, "cond")
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(m, "body")
		if err != nil {
			return nil, err
		}
		return &WhileStmt{lb, cond, body}, nil
	case "for_in":
		decl, err := decodeExpr(m, "decl")
		if err != nil {
			return nil, err
		}
		enum, err := decodeExpr(m, "enum")
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(m, "body")
		if err != nil {
			return nil, err
		}
		return &ForInStmt{lb, decl, enum, body}, nil
	case "for":
		init, err := decodeStmtOpt(m, "init")
		if err != nil {
			return nil, err
		}
		cond, err := decodeExprOpt(m, "cond")
		if err != nil {
			return nil, err
		}
		next, err := decodeExprOpt(m, "next")
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(m, "body")
		if err != nil {
			return nil, err
		}
		return &ForStmt{lb, init, cond, next, body}, nil
	case "continue":
		label, err := decodeString(m, "label")
		if err != nil {
			return nil, err
		}
		return &ContinueStmt{sb, label}, nil
	case "break":
		label, err := decodeString(m, "label")
		if err != nil {
			return nil, err
		}
		return &BreakStmt{sb, label}, nil
	case "return":
		expr, err := decodeExprOpt(m, "expr")
		if err != nil {
			return nil, err
		}
		return &ReturnStmt{sb, expr}, nil
	case "with":
		expr, err := decodeExpr(m, "expr")
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(m, "body")
		if err != nil {
			return nil, err
		}
		return &WithStmt{sb, expr, body}, nil
	case "switch":
		expr, err := decodeExpr(m, "expr")
		if err != nil {
			return nil, err
		}
		clauses, err := decodeCaseClauses(m)
		if err != nil {
			return nil, err
		}
		return &SwitchStmt{lb, expr, clauses}, nil
	case "throw":
		expr, err := decodeExpr(m, "expr")
		if err != nil {
			return nil, err
		}
		return &ThrowStmt{sb, expr}, nil
	case "try":
		tryBlock, err := decodeStmt(m, "try_block")
		if err != nil {
			return nil, err
		}
		catchIdent, err := decodeString(m, "catch_ident")
		if err != nil {
			return nil, err
		}
		catchBlock, err := decodeStmtOpt(m, "catch_block")
		if err != nil {
			return nil, err
		}
		finallyBlock, err := decodeStmtOpt(m, "finally_block")
		if err != nil {
			return nil, err
		}
		return &TryStmt{lb, tryBlock, catchIdent, catchBlock, finallyBlock}, nil
	case "debugger":
		return &DebuggerStmt{sb}, nil
	default:
		return nil, fmt.Errorf("ast: unknown statement kind %q at line %d", kind, n.Line)
	}
}

func decodeCaseClauses(m map[string]*yaml.Node) ([]*CaseClause, error) {
	n, ok := m["cases"]
	if !ok {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("ast: field \"cases\": expected sequence, got %v", n.Kind)
	}
	out := make([]*CaseClause, len(n.Content))
	for i, c := range n.Content {
		cm, err := fields(c)
		if err != nil {
			return nil, fmt.Errorf("ast: cases[%d]: %w", i, err)
		}
		label, err := decodeExprOpt(cm, "label")
		if err != nil {
			return nil, err
		}
		body, err := decodeBodyField(cm, "body")
		if err != nil {
			return nil, err
		}
		out[i] = &CaseClause{Label: label, Body: body}
	}
	return out, nil
}

func binaryOpFromString(s string) BinaryOp {
	for op := OpComma; op <= OpLogOr; op++ {
		if op.String() == s {
			return op
		}
	}
	panic(fmt.Sprintf("ast: unknown binary op %q", s))
}

func unaryOpFromString(s string) UnaryOp {
	for op := OpDelete; op <= OpLogNot; op++ {
		if op.String() == s {
			return op
		}
	}
	panic(fmt.Sprintf("ast: unknown unary op %q", s))
}

func assignOpFromString(s string) AssignOp {
	for op := OpAssign; op <= OpAssignDiv; op++ {
		if op.String() == s {
			return op
		}
	}
	panic(fmt.Sprintf("ast: unknown assign op %q", s))
}
