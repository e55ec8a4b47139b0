package translate

import "github.com/movevm/mvb2wasm/errors"

// Handler transforms a single MVB instruction: it emits WASM into
// ctx.Emit and updates ctx.Stack to match. Stateless; all mutable state
// travels through Context, mirroring the teacher's asyncify Handler
// contract.
type Handler interface {
	Handle(ctx *Context, in Instr) error
}

// Func adapts an ordinary function to Handler.
type Func func(ctx *Context, in Instr) error

func (f Func) Handle(ctx *Context, in Instr) error { return f(ctx, in) }

// Registry maps each Op to its Handler, giving O(1) dispatch and a single
// place that enumerates every opcode family the translator supports.
type Registry struct {
	handlers [256]Handler
}

// NewRegistry builds the Registry with every handler in this package
// registered. Opcodes left unregistered fall through to
// UnsupportedOperation at Dispatch time, satisfying §4.6's "do not
// silently pass" rule.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(OpLoadConst, Func(handleLoadConst))

	r.Register(OpLocalLoad, Func(handleLocalLoad))
	r.Register(OpLocalStore, Func(handleLocalStore))
	r.Register(OpLocalMove, Func(handleLocalMove))
	r.Register(OpLocalCopy, Func(handleLocalCopy))

	r.Register(OpAdd, Func(handleBinaryArith))
	r.Register(OpSub, Func(handleBinaryArith))
	r.Register(OpMul, Func(handleBinaryArith))
	r.Register(OpDiv, Func(handleBinaryArith))
	r.Register(OpMod, Func(handleBinaryArith))
	r.Register(OpBitAnd, Func(handleBinaryArith))
	r.Register(OpBitOr, Func(handleBinaryArith))
	r.Register(OpBitXor, Func(handleBinaryArith))
	r.Register(OpShl, Func(handleBinaryArith))
	r.Register(OpShr, Func(handleBinaryArith))
	r.Register(OpLt, Func(handleComparison))
	r.Register(OpLe, Func(handleComparison))
	r.Register(OpGt, Func(handleComparison))
	r.Register(OpGe, Func(handleComparison))
	r.Register(OpEq, Func(handleEquality))
	r.Register(OpNeq, Func(handleEquality))
	r.Register(OpNot, Func(handleNot))

	r.Register(OpBranch, Func(handleBranch))
	r.Register(OpBranchIf, Func(handleBranchIf))
	r.Register(OpLoopStart, Func(handleLoopStart))
	r.Register(OpLoopEnd, Func(handleLoopEnd))
	r.Register(OpReturn, Func(handleReturn))
	r.Register(OpAbort, Func(handleAbort))

	r.Register(OpPack, Func(handlePack))
	r.Register(OpUnpack, Func(handleUnpack))
	r.Register(OpPackVariant, Func(handlePackVariant))
	r.Register(OpUnpackVariant, Func(handleUnpackVariant))
	r.Register(OpVariantSwitch, Func(handleVariantSwitch))

	r.Register(OpCall, Func(handleCall))
	r.Register(OpCallGeneric, Func(handleCallGeneric))

	r.Register(OpVecPack, Func(handleVecPack))
	r.Register(OpVecLen, Func(handleVecLen))
	r.Register(OpVecImmBorrow, Func(handleVecImmBorrow))
	r.Register(OpVecMutBorrow, Func(handleVecMutBorrow))
	r.Register(OpVecPushBack, Func(handleVecPushBack))
	r.Register(OpVecPopBack, Func(handleVecPopBack))
	r.Register(OpVecUnpack, Func(handleVecUnpack))
	r.Register(OpVecSwap, Func(handleVecSwap))

	r.Register(OpReadRef, Func(handleReadRef))
	r.Register(OpWriteRef, Func(handleWriteRef))
	r.Register(OpFreezeRef, Func(handleFreezeRef))
	r.Register(OpMutBorrowField, Func(handleMutBorrowField))
	r.Register(OpImmBorrowField, Func(handleImmBorrowField))
	return r
}

// Register installs h for op, replacing any existing handler.
func (r *Registry) Register(op Op, h Handler) {
	r.handlers[op] = h
}

// Dispatch runs the handler registered for in.Op, or returns
// UnsupportedOperation if none is registered.
func (r *Registry) Dispatch(ctx *Context, in Instr) error {
	h := r.handlers[in.Op]
	if h == nil {
		return errors.UnsupportedOperation(opName(in.Op), ctx.Path...)
	}
	return h.Handle(ctx, in)
}

var opNames = map[Op]string{
	OpNop: "nop", OpLoadConst: "load_const",
	OpLocalLoad: "local_load", OpLocalStore: "local_store", OpLocalMove: "local_move", OpLocalCopy: "local_copy",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpMod: "mod",
	OpBitAnd: "bit_and", OpBitOr: "bit_or", OpBitXor: "bit_xor", OpShl: "shl", OpShr: "shr",
	OpLt: "lt", OpLe: "le", OpGt: "gt", OpGe: "ge", OpEq: "eq", OpNeq: "neq", OpNot: "not",
	OpBranch: "branch", OpBranchIf: "branch_if", OpLoopStart: "loop_start", OpLoopEnd: "loop_end",
	OpReturn: "return", OpAbort: "abort",
	OpPack: "pack", OpUnpack: "unpack", OpPackVariant: "pack_variant", OpUnpackVariant: "unpack_variant",
	OpVariantSwitch: "variant_switch",
	OpCall:          "call", OpCallGeneric: "call_generic",
	OpVecPack: "vec_pack", OpVecLen: "vec_len", OpVecImmBorrow: "vec_imm_borrow", OpVecMutBorrow: "vec_mut_borrow",
	OpVecPushBack: "vec_push_back", OpVecPopBack: "vec_pop_back", OpVecUnpack: "vec_unpack", OpVecSwap: "vec_swap",
	OpReadRef: "read_ref", OpWriteRef: "write_ref", OpFreezeRef: "freeze_ref",
	OpMutBorrowField: "mut_borrow_field", OpImmBorrowField: "imm_borrow_field",
}

func opName(op Op) string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return "unknown"
}
