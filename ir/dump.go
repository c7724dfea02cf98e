package ir

import (
	"fmt"
	"strings"
)

// Dump renders the module as text: resources first, then each function
// with its blocks and instructions in order. The format is stable and is
// what cmd/escmidc prints and the lowering golden tests compare against.
func (m *Module) Dump() string {
	d := &dumper{keys: m.Keys, names: make(map[Value]string)}
	var sb strings.Builder
	for _, r := range m.Resources {
		fmt.Fprintf(&sb, "%s\n", r)
	}
	for _, fn := range m.Functions {
		d.function(&sb, fn)
	}
	return sb.String()
}

type dumper struct {
	keys  *KeyInterner
	names map[Value]string
	next  int
}

func (d *dumper) function(sb *strings.Builder, fn *Function) {
	// Value names are function-local, like the blocks that define them.
	d.names = make(map[Value]string)
	d.next = 0

	attrs := ""
	if fn.IsGlobal {
		attrs += " global"
	}
	if fn.IsStrict {
		attrs += " strict"
	}
	fmt.Fprintf(sb, "function %s(%d)%s\n", fn.Name, fn.ParamCount, attrs)
	for _, b := range fn.Blocks {
		fmt.Fprintf(sb, "%s:\n", b.Label)
		for _, in := range b.Instructions {
			sb.WriteString("  ")
			if in.Type().Kind() != KindVoid {
				fmt.Fprintf(sb, "%s = ", d.name(in))
			}
			sb.WriteString(d.inst(in))
			sb.WriteByte('\n')
		}
	}
}

// name assigns dense %N names to instruction results on first use.
func (d *dumper) name(v Value) string {
	if n, ok := d.names[v]; ok {
		return n
	}
	n := fmt.Sprintf("%%%d", d.next)
	d.next++
	d.names[v] = n
	return n
}

// operand renders a value in operand position: constants inline,
// instructions by their assigned name.
func (d *dumper) operand(v Value) string {
	switch c := v.(type) {
	case *ArrayElementConstant:
		return fmt.Sprintf("elem(%s, %d)", d.operand(c.Array), c.Index)
	case *CalleeConstant:
		return "callee"
	case *ReturnConstant:
		return "retval"
	case *NullConstant:
		return fmt.Sprintf("null<%s>", c.T)
	case *BooleanConstant:
		return fmt.Sprintf("%v", c.Val)
	case *DoubleConstant:
		return fmt.Sprintf("%v", c.Val)
	case *StringifiedDoubleConstant:
		return c.Val
	case *StringConstant:
		return fmt.Sprintf("%q", c.Val)
	case *ValueConstant:
		return "$" + c.Val.String()
	default:
		return d.name(v)
	}
}

func (d *dumper) key(k Key) string {
	if name, ok := d.keys.NameOf(k); ok {
		return fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("key#%x", uint64(k))
}

func (d *dumper) inst(in Instruction) string {
	op := d.operand
	switch i := in.(type) {
	case *ArgsObjInit:
		return fmt.Sprintf("args_obj_init %d", i.Argc)
	case *ArgsObjLink:
		return fmt.Sprintf("args_obj_link %s, %d, %s", op(i.Args), i.Index, op(i.Val))
	case *ArrGet:
		return fmt.Sprintf("arr_get %d, %s", i.Index, op(i.Arr))
	case *ArrPut:
		return fmt.Sprintf("arr_put %d, %s, %s", i.Index, op(i.Arr), op(i.Val))
	case *BinInst:
		return fmt.Sprintf("bin_%s %s, %s", i.Op, op(i.Left), op(i.Right))
	case *BndExtraInit:
		return fmt.Sprintf("bnd_extra_init %d", i.NumExtra)
	case *BndExtraPtr:
		return fmt.Sprintf("bnd_extra_ptr %d", i.Hops)
	case *Call:
		return fmt.Sprintf("call %s, %d, %s, %s", op(i.Fun), i.Argc, op(i.Argv), op(i.Res))
	case *CallKeyed:
		return fmt.Sprintf("call_keyed %s, %s, %d, %s, %s", op(i.Obj), d.key(i.Key), i.Argc, op(i.Argv), op(i.Res))
	case *CallKeyedSlow:
		return fmt.Sprintf("call_keyed_slow %s, %s, %d, %s, %s", op(i.Obj), op(i.Key), i.Argc, op(i.Argv), op(i.Res))
	case *CallNamed:
		return fmt.Sprintf("call_named %s, %d, %s, %s", d.key(i.Key), i.Argc, op(i.Argv), op(i.Res))
	case *CallNew:
		return fmt.Sprintf("call_new %s, %d, %s, %s", op(i.Fun), i.Argc, op(i.Argv), op(i.Res))
	case *MemAlloc:
		return fmt.Sprintf("mem_alloc %s", i.T)
	case *MemStore:
		return fmt.Sprintf("mem_store %s, %s", op(i.Dst), op(i.Src))
	case *MemElmPtr:
		return fmt.Sprintf("mem_elm_ptr %s, %d", op(i.Val), i.Index)
	case *ValInst:
		name := [...]string{
			ValToBoolean:        "val_to_bool",
			ValToDouble:         "val_to_double",
			ValToString:         "val_to_str",
			ValFromBoolean:      "val_from_bool",
			ValFromDouble:       "val_from_double",
			ValFromString:       "val_from_str",
			ValIsNull:           "val_is_null",
			ValIsUndefined:      "val_is_undefined",
			ValTestCoercibility: "val_tst_coerc",
		}[i.Op]
		if i.Res != nil {
			return fmt.Sprintf("%s %s, %s", name, op(i.Val), op(i.Res))
		}
		return fmt.Sprintf("%s %s", name, op(i.Val))
	case *MetaCtxLoad:
		return fmt.Sprintf("meta_ctx_load %q", i.Name)
	case *MetaPrpLoad:
		return fmt.Sprintf("meta_prp_load %s, %s", op(i.Obj), op(i.Key))
	case *Branch:
		return fmt.Sprintf("br %s, %s, %s", op(i.Cond), i.TrueBlock.Label, i.FalseBlock.Label)
	case *Jump:
		return fmt.Sprintf("jmp %s", i.Target.Label)
	case *Return:
		if i.Val == nil {
			return "ret"
		}
		return fmt.Sprintf("ret %s", op(i.Val))
	case *CtxSetStrict:
		return fmt.Sprintf("ctx_set_strict %v", i.Strict)
	case *CtxEnterCatch:
		return fmt.Sprintf("ctx_enter_catch %s", d.key(i.Key))
	case *CtxEnterWith:
		return fmt.Sprintf("ctx_enter_with %s", op(i.Val))
	case *CtxLeave:
		return "ctx_leave"
	case *CtxThis:
		return "ctx_this"
	case *CtxGet:
		return fmt.Sprintf("ctx_get %s, %s, %d", d.key(i.Key), op(i.Res), i.CacheID)
	case *CtxPut:
		return fmt.Sprintf("ctx_put %s, %s, %d", d.key(i.Key), op(i.Val), i.CacheID)
	case *CtxDel:
		return fmt.Sprintf("ctx_del %s, %s", d.key(i.Key), op(i.Res))
	case *ExSaveState:
		return "ex_save_state"
	case *ExLoadState:
		return fmt.Sprintf("ex_load_state %s", op(i.State))
	case *ExSet:
		return fmt.Sprintf("ex_set %s", op(i.Val))
	case *ExClear:
		return "ex_clear"
	case *InitArgs:
		return fmt.Sprintf("init_args %s, %d", op(i.Dst), i.Prmc)
	case *InitArgsObj:
		return fmt.Sprintf("init_args_obj %d, %s", i.Prmc, op(i.Prmv))
	case *Decl:
		switch i.Kind {
		case DeclFunction:
			return fmt.Sprintf("decl_fun %s, %v, %s", d.key(i.Key), i.IsStrict, op(i.Val))
		case DeclParameter:
			return fmt.Sprintf("decl_prm %s, %v, %d, %s", d.key(i.Key), i.IsStrict, i.ParamIndex, op(i.ParamArray))
		default:
			return fmt.Sprintf("decl_var %s, %v", d.key(i.Key), i.IsStrict)
		}
	case *Link:
		kind := map[DeclKind]string{DeclFunction: "fun", DeclVariable: "var", DeclParameter: "prm"}[i.Kind]
		return fmt.Sprintf("link_%s %s, %v, %s", kind, d.key(i.Key), i.IsStrict, op(i.Val))
	case *PrpDefData:
		return fmt.Sprintf("prp_def_data %s, %s, %s", op(i.Obj), op(i.Key), op(i.Val))
	case *PrpDefAccessor:
		return fmt.Sprintf("prp_def_accessor %s, %s, %s, %v", op(i.Obj), d.key(i.Key), op(i.Fun), i.IsSetter)
	case *PrpItNew:
		return fmt.Sprintf("prp_it_new %s", op(i.Obj))
	case *PrpItNext:
		return fmt.Sprintf("prp_it_next %s, %s", op(i.It), op(i.Val))
	case *PrpGet:
		return fmt.Sprintf("prp_get %s, %s, %s", op(i.Obj), d.key(i.Key), op(i.Res))
	case *PrpGetSlow:
		return fmt.Sprintf("prp_get_slow %s, %s, %s", op(i.Obj), op(i.Key), op(i.Res))
	case *PrpPut:
		return fmt.Sprintf("prp_put %s, %s, %s", op(i.Obj), d.key(i.Key), op(i.Val))
	case *PrpPutSlow:
		return fmt.Sprintf("prp_put_slow %s, %s, %s", op(i.Obj), op(i.Key), op(i.Val))
	case *PrpDel:
		return fmt.Sprintf("prp_del %s, %s, %s", op(i.Obj), d.key(i.Key), op(i.Res))
	case *PrpDelSlow:
		return fmt.Sprintf("prp_del_slow %s, %s, %s", op(i.Obj), op(i.Key), op(i.Res))
	case *EsNewArr:
		return fmt.Sprintf("es_new_arr %d, %s", i.Length, op(i.Vals))
	case *EsNewFunDecl:
		return fmt.Sprintf("es_new_fun %s, %d, %v", i.Fun.Name, i.ParamCount, i.IsStrict)
	case *EsNewFunExpr:
		return fmt.Sprintf("es_new_fun_expr %s, %d, %v", i.Fun.Name, i.ParamCount, i.IsStrict)
	case *EsNewObj:
		return "es_new_obj"
	case *EsNewRex:
		return fmt.Sprintf("es_new_rex %q, %q", i.Pattern, i.Flags)
	case *EsBinary:
		return fmt.Sprintf("es_bin_%s %s, %s, %s", i.Op, op(i.Left), op(i.Right), op(i.Res))
	case *EsUnary:
		return fmt.Sprintf("es_unary_%s %s, %s", i.Op, op(i.Val), op(i.Res))
	default:
		return fmt.Sprintf("<unknown instruction %T>", in)
	}
}
