// Package lower implements the AST-to-IR lowering pass: one Lowerer per
// compilation, producing an *ir.Module from a slice of top-level
// ast.Statement nodes.
package lower

import (
	"fmt"

	"github.com/RobertoMalatesta/descripten/ast"
)

// Diagnostic is a user-facing compile-time error with the source span it
// was raised against — a bad `break`/`continue` target, a duplicate
// `default` clause, an assignment to a non-left-hand-side expression.
// Internal invariant violations (a builder misuse, a nil AST field
// where the grammar guarantees non-nil) panic instead; see
// Lowerer.Lower's doc comment.
type Diagnostic struct {
	Span ast.Meta
	Msg  string
}

func (d Diagnostic) Error() string {
	if d.Span.File == "" {
		return d.Msg
	}
	return fmt.Sprintf("%s:%d: %s", d.Span.File, d.Span.Begin, d.Msg)
}

func diag(span ast.Meta, format string, args ...any) Diagnostic {
	return Diagnostic{Span: span, Msg: fmt.Sprintf(format, args...)}
}
