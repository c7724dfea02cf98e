package lower

import (
	"github.com/RobertoMalatesta/descripten/ir"
)

// currentFunScope returns the innermost function scope, or nil when a
// with scope intervenes — bindings behind a with scope are only
// reachable through the runtime scope chain.
func (l *Lowerer) currentFunScope() *scope {
	for i := len(l.scopes.frames) - 1; i >= 0; i-- {
		sc := l.scopes.frames[i]
		switch sc.Kind {
		case ScopeFunction:
			return sc
		case ScopeWith:
			return nil
		}
	}
	return nil
}

// getLocal resolves name to its compile-time storage: a slot in the
// current frame, or a slot in an enclosing frame reached through the
// bnd_extra_ptr the prologue materialized for that hop distance. It
// returns nil when the binding can only be resolved at runtime — behind
// a with scope, the arguments object of an outer frame, or a name never
// allocated to a slot.
func (l *Lowerer) getLocal(name string) ir.Value {
	hops := 0

	curFunScope := l.currentFunScope()

	for i := len(l.scopes.frames) - 1; i >= 0; i-- {
		sc := l.scopes.frames[i]

		// A with scope makes every lookup through it depend on the
		// runtime properties of the bound object; a catch scope does
		// the same for the name it binds.
		if sc.Kind == ScopeWith {
			return nil
		}
		if sc.CatchName == name {
			return nil
		}

		if v, ok := sc.Locals[name]; ok {
			if hops == 0 {
				return v
			}

			// The arguments object may be shadowed per-frame at
			// runtime, so an outer frame's binding cannot be trusted at
			// compile time.
			if name == "arguments" {
				return nil
			}

			// The slot lives in an enclosing frame's extra-bindings
			// record; rebase its index onto the pointer the prologue
			// obtained for that frame.
			elem, ok := v.(*ir.ArrayElementConstant)
			if !ok || curFunScope == nil {
				return nil
			}
			stack, ok := curFunScope.ScopeStacks[hops]
			if !ok {
				return nil
			}
			return ir.NewArrayElementConstant(stack, elem.Index)
		}

		if sc.Kind == ScopeFunction {
			hops++
		}
	}

	return nil
}
