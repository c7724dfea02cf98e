package ir

// GlobalFunctionName is the fixed name lowering gives the implicit
// top-level function synthesized for a program's global code, mirroring
// a script's top-level statements as an ordinary Function so that the
// rest of the pipeline never special-cases "global vs. function" code.
const GlobalFunctionName = "_global_main"

// Function is a sequence of Blocks sharing one parameter list, one
// extra-bindings layout, and one strict-mode flag. The entry block is
// always Blocks[0]; Blocks[1:] may appear in any order lowering found
// convenient, since control flow between them is expressed purely
// through Branch/Jump targets and Block.Referrers, not position.
type Function struct {
	Name       string
	IsGlobal   bool
	IsStrict   bool
	ParamCount int
	Blocks     []*Block
}

// NewFunction creates a Function with a fresh, empty entry block.
func NewFunction(name string) *Function {
	f := &Function{Name: name}
	f.PushBlock(NewBlock("entry"))
	return f
}

// PushBlock appends b to the function's block list.
func (f *Function) PushBlock(b *Block) *Block {
	f.Blocks = append(f.Blocks, b)
	return b
}

// EntryBlock returns the function's entry block.
func (f *Function) EntryBlock() *Block { return f.Blocks[0] }

// LastBlock returns the most recently pushed block, the one lowering
// uses as its current insertion point.
func (f *Function) LastBlock() *Block { return f.Blocks[len(f.Blocks)-1] }
