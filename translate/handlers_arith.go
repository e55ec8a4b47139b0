package translate

import (
	"github.com/movevm/mvb2wasm/errors"
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/wasm"
)

// i32Ops/i64Ops map an arithmetic/bitwise Op to its native WASM opcode for
// 32- and 64-bit operands respectively.
var i32Ops = map[Op]byte{
	OpAdd: wasm.OpI32Add, OpSub: wasm.OpI32Sub, OpMul: wasm.OpI32Mul,
	OpDiv: wasm.OpI32DivU, OpMod: wasm.OpI32RemU,
	OpBitAnd: wasm.OpI32And, OpBitOr: wasm.OpI32Or, OpBitXor: wasm.OpI32Xor,
	OpShl: wasm.OpI32Shl, OpShr: wasm.OpI32ShrU,
}

var i64Ops = map[Op]byte{
	OpAdd: wasm.OpI64Add, OpSub: wasm.OpI64Sub, OpMul: wasm.OpI64Mul,
	OpDiv: wasm.OpI64DivU, OpMod: wasm.OpI64RemU,
	OpBitAnd: wasm.OpI64And, OpBitOr: wasm.OpI64Or, OpBitXor: wasm.OpI64Xor,
	OpShl: wasm.OpI64Shl, OpShr: wasm.OpI64ShrU,
}

var i32Cmp = map[Op]byte{
	OpLt: wasm.OpI32LtU, OpLe: wasm.OpI32LeU, OpGt: wasm.OpI32GtU, OpGe: wasm.OpI32GeU,
}

var i64Cmp = map[Op]byte{
	OpLt: wasm.OpI64LtU, OpLe: wasm.OpI64LeU, OpGt: wasm.OpI64GtU, OpGe: wasm.OpI64GeU,
}

// handleBinaryArith lowers a binary arithmetic/bitwise op when both
// operands share a native WASM width (§4.6: 32-bit or 64-bit scalars).
// u128/u256 operands (heap-allocated) have no native WASM op and are
// rejected here rather than silently mishandled; big-integer arithmetic
// runtime routines are a known gap (see DESIGN.md).
func handleBinaryArith(ctx *Context, in Instr) error {
	rhs, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	lhs, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	if !lhs.Equal(rhs) {
		return errors.InvalidBinaryOperation(opName(in.Op), lhs.String(), rhs.String(), ctx.Path...)
	}
	switch lhs.Kind() {
	case intermediate.KindBool, intermediate.KindU8, intermediate.KindU16, intermediate.KindU32:
		op, ok := i32Ops[in.Op]
		if !ok {
			return errors.OperationTypeMismatch(opName(in.Op), lhs.String(), ctx.Path...)
		}
		ctx.Emit.EmitRawOpcode(op)
		ctx.Stack.Push(lhs)
		return nil
	case intermediate.KindU64:
		op, ok := i64Ops[in.Op]
		if !ok {
			return errors.OperationTypeMismatch(opName(in.Op), lhs.String(), ctx.Path...)
		}
		ctx.Emit.EmitRawOpcode(op)
		ctx.Stack.Push(lhs)
		return nil
	default:
		return errors.UnsupportedOperation(opName(in.Op)+" on "+lhs.String(), ctx.Path...)
	}
}

func handleComparison(ctx *Context, in Instr) error {
	rhs, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	lhs, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	if !lhs.Equal(rhs) {
		return errors.InvalidBinaryOperation(opName(in.Op), lhs.String(), rhs.String(), ctx.Path...)
	}
	switch lhs.Kind() {
	case intermediate.KindU8, intermediate.KindU16, intermediate.KindU32:
		ctx.Emit.EmitRawOpcode(i32Cmp[in.Op])
	case intermediate.KindU64:
		ctx.Emit.EmitRawOpcode(i64Cmp[in.Op])
	default:
		return errors.UnsupportedOperation(opName(in.Op)+" on "+lhs.String(), ctx.Path...)
	}
	ctx.Stack.Push(intermediate.Bool{})
	return nil
}

func handleNot(ctx *Context, _ Instr) error {
	t, err := ctx.Stack.PopExpecting(intermediate.KindBool)
	if err != nil {
		return err
	}
	ctx.Emit.I32Const(0).EmitRawOpcode(wasm.OpI32Eq)
	ctx.Stack.Push(t)
	return nil
}

// handleEquality lowers Eq/Neq per §4.6: native comparison for 32/64-bit
// scalars, heap_type_equality dispatch (keyed by static size) otherwise.
func handleEquality(ctx *Context, in Instr) error {
	rhs, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	lhs, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	if !lhs.Equal(rhs) {
		return errors.InvalidBinaryOperation(opName(in.Op), lhs.String(), rhs.String(), ctx.Path...)
	}

	strategy, size, err := intermediate.Equality(lhs, ctx.Graph)
	if err != nil {
		return err
	}
	switch strategy {
	case intermediate.EqualityI32:
		ctx.Emit.EmitRawOpcode(wasm.OpI32Eq)
	case intermediate.EqualityI64:
		ctx.Emit.EmitRawOpcode(wasm.OpI64Eq)
	case intermediate.EqualityHeapBytes:
		// Stack currently holds (ptrA, ptrB); heap_type_equality wants
		// (a, b, size).
		ctx.Emit.I32Const(int32(size)).CallName(ctx.Helpers.HeapEqualitySymbol())
	}
	if in.Op == OpNeq {
		ctx.Emit.I32Const(0).EmitRawOpcode(wasm.OpI32Eq)
	}
	ctx.Stack.Push(intermediate.Bool{})
	return nil
}
