package ir

// This file is the IR builder: one Push* method per instruction variant,
// each appending the constructed instruction to the Block and returning
// it so callers can reference its result type or wire it into a later
// operand. Terminator methods (PushBranch, PushJump, PushReturn) are the
// only ones allowed to end a Block; every other Push* panics if called
// after a terminator has already been pushed, via Block.append.

func (b *Block) PushArgsObjInit(argc int) *ArgsObjInit {
	i := &ArgsObjInit{Argc: argc}
	b.append(i)
	return i
}

func (b *Block) PushArgsObjLink(args Value, index int, val Value) *ArgsObjLink {
	i := &ArgsObjLink{Args: args, Index: index, Val: val}
	b.append(i)
	return i
}

func (b *Block) PushArrGet(arr Value, index int) *ArrGet {
	i := &ArrGet{Arr: arr, Index: index}
	b.append(i)
	return i
}

func (b *Block) PushArrPut(arr Value, index int, val Value) *ArrPut {
	i := &ArrPut{Arr: arr, Index: index, Val: val}
	b.append(i)
	return i
}

func (b *Block) PushBin(op BinOp, left, right Value) *BinInst {
	i := &BinInst{Op: op, Left: left, Right: right}
	b.append(i)
	return i
}

func (b *Block) PushBndExtraInit(numExtra int) *BndExtraInit {
	i := &BndExtraInit{NumExtra: numExtra}
	b.append(i)
	return i
}

func (b *Block) PushBndExtraPtr(hops int) *BndExtraPtr {
	i := &BndExtraPtr{Hops: hops}
	b.append(i)
	return i
}

func (b *Block) PushCall(fun Value, argc int, argv, res Value) *Call {
	i := &Call{Fun: fun, Argc: argc, Argv: argv, Res: res}
	b.append(i)
	return i
}

func (b *Block) PushCallKeyed(obj Value, key Key, argc int, argv, res Value) *CallKeyed {
	i := &CallKeyed{Obj: obj, Key: key, Argc: argc, Argv: argv, Res: res}
	b.append(i)
	return i
}

func (b *Block) PushCallKeyedSlow(obj, key Value, argc int, argv, res Value) *CallKeyedSlow {
	i := &CallKeyedSlow{Obj: obj, Key: key, Argc: argc, Argv: argv, Res: res}
	b.append(i)
	return i
}

func (b *Block) PushCallNamed(key Key, argc int, argv, res Value) *CallNamed {
	i := &CallNamed{Key: key, Argc: argc, Argv: argv, Res: res}
	b.append(i)
	return i
}

func (b *Block) PushCallNew(fun Value, argc int, argv, res Value) *CallNew {
	i := &CallNew{Fun: fun, Argc: argc, Argv: argv, Res: res}
	b.append(i)
	return i
}

func (b *Block) PushMemAlloc(t *Type) *MemAlloc {
	i := &MemAlloc{T: t}
	b.append(i)
	return i
}

func (b *Block) PushMemStore(dst, src Value) *MemStore {
	i := &MemStore{Dst: dst, Src: src}
	b.append(i)
	return i
}

func (b *Block) PushMemElmPtr(val Value, index int) *MemElmPtr {
	i := &MemElmPtr{Val: val, Index: index}
	b.append(i)
	return i
}

func (b *Block) pushVal(op ValOp, val, res Value) *ValInst {
	i := &ValInst{Op: op, Val: val, Res: res}
	b.append(i)
	return i
}

func (b *Block) PushValToBoolean(val Value) *ValInst { return b.pushVal(ValToBoolean, val, nil) }

// PushValToDouble and PushValToString may fault during ToPrimitive, so
// they take the result slot as an operand and produce the
// completed-normally flag.
func (b *Block) PushValToDouble(val, res Value) *ValInst { return b.pushVal(ValToDouble, val, res) }
func (b *Block) PushValToString(val, res Value) *ValInst { return b.pushVal(ValToString, val, res) }

func (b *Block) PushValFromBoolean(val Value) *ValInst { return b.pushVal(ValFromBoolean, val, nil) }
func (b *Block) PushValFromDouble(val Value) *ValInst  { return b.pushVal(ValFromDouble, val, nil) }
func (b *Block) PushValFromString(val Value) *ValInst  { return b.pushVal(ValFromString, val, nil) }

func (b *Block) PushValIsNull(val Value) *ValInst      { return b.pushVal(ValIsNull, val, nil) }
func (b *Block) PushValIsUndefined(val Value) *ValInst { return b.pushVal(ValIsUndefined, val, nil) }

func (b *Block) PushValTestCoercibility(val Value) *ValInst {
	return b.pushVal(ValTestCoercibility, val, nil)
}

func (b *Block) PushMetaCtxLoad(key Key, name string) *MetaCtxLoad {
	i := &MetaCtxLoad{Key: key, Name: name}
	b.append(i)
	return i
}

func (b *Block) PushMetaPrpLoad(obj, key Value) *MetaPrpLoad {
	i := &MetaPrpLoad{Obj: obj, Key: key}
	b.append(i)
	return i
}

// PushBranch terminates b, transferring to trueBlock when cond is true
// and falseBlock otherwise.
func (b *Block) PushBranch(cond Value, trueBlock, falseBlock *Block) *Branch {
	i := &Branch{Cond: cond, TrueBlock: trueBlock, FalseBlock: falseBlock}
	b.appendTerminator(i, trueBlock, falseBlock)
	return i
}

// PushJump terminates b, transferring unconditionally to target.
func (b *Block) PushJump(target *Block) *Jump {
	i := &Jump{Target: target}
	b.appendTerminator(i, target)
	return i
}

// PushReturn terminates b, exiting the enclosing Function with val.
func (b *Block) PushReturn(val Value) *Return {
	i := &Return{Val: val}
	b.appendTerminator(i)
	return i
}

func (b *Block) PushCtxSetStrict(strict bool) *CtxSetStrict {
	i := &CtxSetStrict{Strict: strict}
	b.append(i)
	return i
}

func (b *Block) PushCtxEnterCatch(key Key) *CtxEnterCatch {
	i := &CtxEnterCatch{Key: key}
	b.append(i)
	return i
}

func (b *Block) PushCtxEnterWith(val Value) *CtxEnterWith {
	i := &CtxEnterWith{Val: val}
	b.append(i)
	return i
}

func (b *Block) PushCtxLeave() *CtxLeave {
	i := &CtxLeave{}
	b.append(i)
	return i
}

func (b *Block) PushCtxThis() *CtxThis {
	i := &CtxThis{}
	b.append(i)
	return i
}

func (b *Block) PushCtxGet(key Key, res Value, cacheID uint16) *CtxGet {
	i := &CtxGet{Key: key, Res: res, CacheID: cacheID}
	b.append(i)
	return i
}

func (b *Block) PushCtxPut(key Key, val Value, cacheID uint16) *CtxPut {
	i := &CtxPut{Key: key, Val: val, CacheID: cacheID}
	b.append(i)
	return i
}

func (b *Block) PushCtxDel(key Key, res Value) *CtxDel {
	i := &CtxDel{Key: key, Res: res}
	b.append(i)
	return i
}

func (b *Block) PushExSaveState() *ExSaveState {
	i := &ExSaveState{}
	b.append(i)
	return i
}

func (b *Block) PushExLoadState(state Value) *ExLoadState {
	i := &ExLoadState{State: state}
	b.append(i)
	return i
}

func (b *Block) PushExSet(val Value) *ExSet {
	i := &ExSet{Val: val}
	b.append(i)
	return i
}

func (b *Block) PushExClear() *ExClear {
	i := &ExClear{}
	b.append(i)
	return i
}

func (b *Block) PushInitArgs(dst Value, prmc int) *InitArgs {
	i := &InitArgs{Dst: dst, Prmc: prmc}
	b.append(i)
	return i
}

func (b *Block) PushInitArgsObj(prmc int, prmv Value) *InitArgsObj {
	i := &InitArgsObj{Prmc: prmc, Prmv: prmv}
	b.append(i)
	return i
}

func (b *Block) PushDeclVar(key Key, strict bool) *Decl {
	i := &Decl{Kind: DeclVariable, Key: key, IsStrict: strict}
	b.append(i)
	return i
}

func (b *Block) PushDeclFun(key Key, strict bool, val Value) *Decl {
	i := &Decl{Kind: DeclFunction, Key: key, IsStrict: strict, Val: val}
	b.append(i)
	return i
}

func (b *Block) PushDeclPrm(key Key, strict bool, paramIndex int, paramArray Value) *Decl {
	i := &Decl{Kind: DeclParameter, Key: key, IsStrict: strict, ParamIndex: paramIndex, ParamArray: paramArray}
	b.append(i)
	return i
}

func (b *Block) PushLinkVar(key Key, strict bool, val Value) *Link {
	i := &Link{Kind: DeclVariable, Key: key, IsStrict: strict, Val: val}
	b.append(i)
	return i
}

func (b *Block) PushLinkFun(key Key, strict bool, val Value) *Link {
	i := &Link{Kind: DeclFunction, Key: key, IsStrict: strict, Val: val}
	b.append(i)
	return i
}

func (b *Block) PushLinkPrm(key Key, strict bool, val Value) *Link {
	i := &Link{Kind: DeclParameter, Key: key, IsStrict: strict, Val: val}
	b.append(i)
	return i
}

func (b *Block) PushPrpDefData(obj, key, val Value) *PrpDefData {
	i := &PrpDefData{Obj: obj, Key: key, Val: val}
	b.append(i)
	return i
}

func (b *Block) PushPrpDefAccessor(obj Value, key Key, fun Value, isSetter bool) *PrpDefAccessor {
	i := &PrpDefAccessor{Obj: obj, Key: key, Fun: fun, IsSetter: isSetter}
	b.append(i)
	return i
}

func (b *Block) PushPrpItNew(obj Value) *PrpItNew {
	i := &PrpItNew{Obj: obj}
	b.append(i)
	return i
}

func (b *Block) PushPrpItNext(it, val Value) *PrpItNext {
	i := &PrpItNext{It: it, Val: val}
	b.append(i)
	return i
}

func (b *Block) PushPrpGet(obj Value, key Key, res Value) *PrpGet {
	i := &PrpGet{Obj: obj, Key: key, Res: res}
	b.append(i)
	return i
}

func (b *Block) PushPrpGetSlow(obj, key, res Value) *PrpGetSlow {
	i := &PrpGetSlow{Obj: obj, Key: key, Res: res}
	b.append(i)
	return i
}

func (b *Block) PushPrpPut(obj Value, key Key, val Value) *PrpPut {
	i := &PrpPut{Obj: obj, Key: key, Val: val}
	b.append(i)
	return i
}

func (b *Block) PushPrpPutSlow(obj, key, val Value) *PrpPutSlow {
	i := &PrpPutSlow{Obj: obj, Key: key, Val: val}
	b.append(i)
	return i
}

func (b *Block) PushPrpDel(obj Value, key Key, res Value) *PrpDel {
	i := &PrpDel{Obj: obj, Key: key, Res: res}
	b.append(i)
	return i
}

func (b *Block) PushPrpDelSlow(obj, key, res Value) *PrpDelSlow {
	i := &PrpDelSlow{Obj: obj, Key: key, Res: res}
	b.append(i)
	return i
}

func (b *Block) PushEsNewArr(length int, vals Value) *EsNewArr {
	i := &EsNewArr{Length: length, Vals: vals}
	b.append(i)
	return i
}

func (b *Block) PushEsNewFunDecl(fun *Function, paramCount int, strict bool) *EsNewFunDecl {
	i := &EsNewFunDecl{Fun: fun, ParamCount: paramCount, IsStrict: strict}
	b.append(i)
	return i
}

func (b *Block) PushEsNewFunExpr(fun *Function, paramCount int, strict bool) *EsNewFunExpr {
	i := &EsNewFunExpr{Fun: fun, ParamCount: paramCount, IsStrict: strict}
	b.append(i)
	return i
}

func (b *Block) PushEsNewObj() *EsNewObj {
	i := &EsNewObj{}
	b.append(i)
	return i
}

func (b *Block) PushEsNewRex(pattern, flags string) *EsNewRex {
	i := &EsNewRex{Pattern: pattern, Flags: flags}
	b.append(i)
	return i
}

func (b *Block) PushEsBinary(op EsBinOp, left, right, res Value) *EsBinary {
	i := &EsBinary{Op: op, Left: left, Right: right, Res: res}
	b.append(i)
	return i
}

func (b *Block) PushEsUnary(op EsUnaryOp, val, res Value) *EsUnary {
	i := &EsUnary{Op: op, Val: val, Res: res}
	b.append(i)
	return i
}
