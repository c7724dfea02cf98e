package lower

import (
	"github.com/RobertoMalatesta/descripten/ir"
)

// padAction fills in a landing pad: the code to run when an instruction
// reports a pending exception. Actions are Go closures where the
// original design used deferred code templates — a pad's contents depend
// on the scopes in force at the faulting site, which are only known
// while lowering is positioned there, not when the pad block is finally
// reached in block order.
//
// The action is invoked with the block the unwind has reached and must
// leave it terminated (directly, or through further statement lowering
// that terminates it).
type padAction func(b *ir.Block)

// exceptionAction returns the innermost pending-exception handler.
func (l *Lowerer) exceptionAction() padAction {
	return l.exceptionActions[len(l.exceptionActions)-1]
}

func (l *Lowerer) pushExceptionAction(a padAction) {
	l.exceptionActions = append(l.exceptionActions, a)
}

func (l *Lowerer) popExceptionAction() {
	l.exceptionActions = l.exceptionActions[:len(l.exceptionActions)-1]
}

// inflatePad appends b to fn and fills it with the innermost exception
// action. Every parse function that created a local landing-pad block
// calls this exactly once for it, whether or not anything branched there;
// an unreferenced pad is simply dead code.
func (l *Lowerer) inflatePad(fn *ir.Function, b *ir.Block) {
	fn.PushBlock(b)
	l.exceptionAction()(b)
}

// returnFalseAction is the function-level handler: propagate the pending
// exception to the caller through the completed-normally flag.
func returnFalseAction(b *ir.Block) {
	b.PushReturn(ir.NewBooleanConstant(false))
}

// jumpAction transfers the unwind to target (the fail block of an
// enclosing try statement).
func jumpAction(target *ir.Block) padAction {
	return func(b *ir.Block) { b.PushJump(target) }
}

// leaveContextAction pops the innermost with/catch scope. It does not
// terminate the block: as a pad action it is combined with a terminating
// action through multiAction, and as a scope epilogue it is followed by
// the exit jump that unroll's caller emits.
func leaveContextAction(b *ir.Block) {
	b.PushCtxLeave()
}

// multiAction runs each action in order into the same pad.
func multiAction(actions ...padAction) padAction {
	return func(b *ir.Block) {
		for _, a := range actions {
			a(b)
		}
	}
}
