package ir

import "fmt"

// Block is a straight-line sequence of Instructions, ending in a
// terminator (Branch, Jump or Return) once lowering for it is complete.
// Referrers records every Block whose terminator names this Block as a
// target, the closure tested by testable property 2 (referrer closure):
// for every Jump/Branch target B, B.Referrers contains the jumping block.
type Block struct {
	Label        string
	Instructions []Instruction
	Referrers    []*Block
}

// NewBlock creates an empty Block with the given debug label. Labels need
// not be unique; they exist only for readable IR dumps.
func NewBlock(label string) *Block {
	return &Block{Label: label}
}

// Empty reports whether the block has no instructions yet.
func (b *Block) Empty() bool { return len(b.Instructions) == 0 }

// LastInstr returns the block's final instruction, or nil if empty.
func (b *Block) LastInstr() Instruction {
	if b.Empty() {
		return nil
	}
	return b.Instructions[len(b.Instructions)-1]
}

// Terminated reports whether the block already ends in a terminator,
// i.e. whether it may still accept non-terminating instructions.
func (b *Block) Terminated() bool {
	last := b.LastInstr()
	return last != nil && last.IsTerminating()
}

// append adds a non-terminating instruction to the block. It panics if
// the block is already terminated — the builder's push_* methods are the
// only sanctioned way to grow a Block, and every one of them routes
// through here or appendTerminator.
func (b *Block) append(inst Instruction) {
	if b.Terminated() {
		panic(fmt.Sprintf("ir: push onto terminated block %q", b.Label))
	}
	b.Instructions = append(b.Instructions, inst)
}

// appendTerminator adds a terminating instruction and wires its target
// blocks' Referrers back to b, maintaining the referrer-closure
// invariant at the point of construction rather than as a separate pass.
func (b *Block) appendTerminator(inst Instruction, targets ...*Block) {
	if b.Terminated() {
		panic(fmt.Sprintf("ir: push terminator onto already-terminated block %q", b.Label))
	}
	b.Instructions = append(b.Instructions, inst)
	for _, t := range targets {
		if t == nil {
			continue
		}
		t.Referrers = append(t.Referrers, b)
	}
}

// addReferrer records from as a predecessor of b. It is unexported and
// has no caller; terminators register their referrers themselves.
func (b *Block) addReferrer(from *Block) {
	b.Referrers = append(b.Referrers, from)
}

// removeReferrer drops from the first matching entry of b.Referrers.
// Nothing in the repository calls it; lowering never retargets a jump.
func (b *Block) removeReferrer(from *Block) {
	for i, r := range b.Referrers {
		if r == from {
			b.Referrers = append(b.Referrers[:i], b.Referrers[i+1:]...)
			return
		}
	}
}
