// Package runtimeabi names the contract between the generated IR and
// the runtime library linked into every compiled program. The code
// emitter lowers each faulting IR instruction 1:1 to one of these entry
// points; every entry point that can fault uses the pending-exception
// convention: it returns false after setting the pending exception on
// the topmost execution context, never transferring control non-locally.
package runtimeabi

// Entry points assumed by the IR. The slow-path (runtime-keyed) property
// and call variants and init_args_obj have no constant here.
// The cacheId operand of OpCtxGet/OpCtxPut names a per-site inline-cache
// slot in read-write data.
const (
	OpArgsObjInit = "op_args_obj_init"
	OpArgsObjLink = "op_args_obj_link"

	OpBndExtraInit = "op_bnd_extra_init"
	OpBndExtraPtr  = "op_bnd_extra_ptr"

	OpCall      = "op_call"
	OpCallKeyed = "op_call_keyed"
	OpCallNamed = "op_call_named"
	OpCallNew   = "op_call_new"

	OpCtxSetStrict  = "op_ctx_set_strict"
	OpCtxEnterCatch = "op_ctx_enter_catch"
	OpCtxEnterWith  = "op_ctx_enter_with"
	OpCtxLeave      = "op_ctx_leave"
	OpCtxThis       = "op_ctx_this"
	OpCtxGet        = "op_ctx_get"
	OpCtxPut        = "op_ctx_put"
	OpCtxDel        = "op_ctx_del"

	OpCtxDeclVar = "op_ctx_decl_var"
	OpCtxDeclFun = "op_ctx_decl_fun"
	OpCtxDeclPrm = "op_ctx_decl_prm"
	OpCtxLinkVar = "op_ctx_link_var"
	OpCtxLinkFun = "op_ctx_link_fun"
	OpCtxLinkPrm = "op_ctx_link_prm"

	OpExSaveState = "op_ex_save_state"
	OpExLoadState = "op_ex_load_state"
	OpExSet       = "op_ex_set"
	OpExClear     = "op_ex_clear"

	OpInitArgs = "op_init_args"

	OpPrpDefData     = "op_prp_def_data"
	OpPrpDefAccessor = "op_prp_def_accessor"
	OpPrpItNew       = "op_prp_it_new"
	OpPrpItNext      = "op_prp_it_next"
	OpPrpGet         = "op_prp_get"
	OpPrpPut         = "op_prp_put"
	OpPrpDel         = "op_prp_del"

	OpNewArr     = "op_new_arr"
	OpNewFunDecl = "op_new_fun_decl"
	OpNewFunExpr = "op_new_fun_expr"
	OpNewObj     = "op_new_obj"
	OpNewRegExp  = "op_new_reg_exp"
)

// Script arithmetic entry points: b_* take two values, u_* one, c_*
// compare. Each writes its result through an out parameter and reports
// completion through the pending-exception convention (ToPrimitive and
// valueOf may run arbitrary script).
const (
	OpBinAdd = "op_b_add"
	OpBinSub = "op_b_sub"
	OpBinMul = "op_b_mul"
	OpBinDiv = "op_b_div"
	OpBinMod = "op_b_mod"
	OpBinShl = "op_b_shl"
	OpBinSar = "op_b_sar"
	OpBinShr = "op_b_shr"
	OpBinAnd = "op_b_and"
	OpBinXor = "op_b_xor"
	OpBinOr  = "op_b_or"

	OpCmpEq         = "op_c_eq"
	OpCmpNeq        = "op_c_neq"
	OpCmpStrictEq   = "op_c_strict_eq"
	OpCmpStrictNeq  = "op_c_strict_neq"
	OpCmpLt         = "op_c_lt"
	OpCmpGt         = "op_c_gt"
	OpCmpLte        = "op_c_lte"
	OpCmpGte        = "op_c_gte"
	OpCmpIn         = "op_c_in"
	OpCmpInstanceOf = "op_c_instance_of"

	OpUnaryAdd    = "op_u_add"
	OpUnarySub    = "op_u_sub"
	OpUnaryBitNot = "op_u_bit_not"
	OpUnaryNot    = "op_u_not"
	OpUnaryTypeof = "op_u_typeof"
)

// The runtime's prototype-based error hierarchy: the generic Error
// constructor plus the six native refinements, each constructible from a
// message value. ValTestCoercibility faults construct a TypeError;
// failed strict-mode context writes construct a ReferenceError.
const (
	ErrError     = "Error"
	ErrEval      = "EvalError"
	ErrRange     = "RangeError"
	ErrReference = "ReferenceError"
	ErrSyntax    = "SyntaxError"
	ErrType      = "TypeError"
	ErrURI       = "URIError"
)

// ErrorConstructors lists the built-in error constructors in the order
// the runtime registers them on the global object.
var ErrorConstructors = []string{
	ErrError, ErrEval, ErrRange, ErrReference, ErrSyntax, ErrType, ErrURI,
}
