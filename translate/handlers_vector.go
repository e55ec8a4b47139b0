package translate

import (
	"github.com/movevm/mvb2wasm/codegen"
	"github.com/movevm/mvb2wasm/errors"
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/runtimehelpers"
	"github.com/movevm/mvb2wasm/wasm"
)

// vecHeaderSize is the [len:u32, cap:u32] header every heap vector carries
// at offset 0, matching abi.Codec's wire-vector layout (§4.5/§4.6).
const vecHeaderSize = 8

// vectorElemFromRef extracts the element type of a vector<T> sitting
// behind a Ref or MutRef — the shape every vector opcode except VecPack and
// VecUnpack operates through, since vector mutation requires indirecting
// through the storage slot that holds the vector's own heap pointer (a
// local, a struct field, a containing vector's element slot) rather than
// the pointer value itself; growth on push_back must be able to re-seat
// that slot.
func vectorElemFromRef(t intermediate.Type) (intermediate.Type, error) {
	switch v := t.(type) {
	case intermediate.Ref:
		if vec, ok := v.Inner.(intermediate.Vector); ok {
			return vec.Elem, nil
		}
	case intermediate.MutRef:
		if vec, ok := v.Inner.(intermediate.Vector); ok {
			return vec.Elem, nil
		}
	}
	return nil, errors.OperationTypeMismatch("vector op", t.String())
}

func handleVecPack(ctx *Context, in Instr) error {
	if in.FieldType == nil {
		return errors.InvalidOperation("vec_pack requires an element type", ctx.Path...)
	}
	got, err := ctx.Stack.PopN(in.FieldCount)
	if err != nil {
		return err
	}
	for _, t := range got {
		if !t.Equal(in.FieldType) {
			return errors.TypeMismatch(in.FieldType.String(), t.String(), ctx.Path...)
		}
	}
	elemSize := in.FieldType.StackSize()
	fields := make([]intermediate.Type, in.FieldCount)
	for i := range fields {
		fields[i] = in.FieldType
	}
	scratch := stashFields(ctx, fields)

	ptr := ctx.Locals.Local(wasm.ValI32)
	size := vecHeaderSize + uint32(in.FieldCount)*elemSize
	ctx.Emit.I32Const(int32(size)).CallName(ctx.Helpers.AllocSymbol()).LocalSet(ptr)
	ctx.Emit.LocalGet(ptr).I32Const(int32(in.FieldCount)).I32Store(0)
	ctx.Emit.LocalGet(ptr).I32Const(int32(in.FieldCount)).I32Store(4)
	storeFields(ctx, ptr, fields, scratch, vecHeaderSize)

	ctx.Stack.Push(intermediate.Vector{Elem: in.FieldType})
	ctx.Emit.LocalGet(ptr)
	return nil
}

func handleVecLen(ctx *Context, in Instr) error {
	ref, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	if _, err := vectorElemFromRef(ref); err != nil {
		return err
	}
	addr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalSet(addr)
	vecPtr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalGet(addr).I32Load(0).LocalSet(vecPtr)
	ctx.Emit.LocalGet(vecPtr).I32Load(0)
	ctx.Stack.Push(intermediate.U32{})
	return nil
}

// handleVecBorrow lowers both VecImmBorrow and VecMutBorrow: the
// difference (whether the resulting reference allows a later write) is a
// compile-time borrow-checker concern, out of scope (§1) — both compute
// the same element address and tag it Ref vs. MutRef for the type stack.
func handleVecBorrow(ctx *Context, in Instr, mut bool) error {
	if _, err := ctx.Stack.PopExpecting(intermediate.KindU32); err != nil {
		return err
	}
	ref, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	elem, err := vectorElemFromRef(ref)
	if err != nil {
		return err
	}

	idx := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalSet(idx)
	addr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalSet(addr)
	vecPtr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalGet(addr).I32Load(0).LocalSet(vecPtr)

	ctx.Emit.LocalGet(vecPtr).I32Const(vecHeaderSize).EmitRawOpcode(wasm.OpI32Add).
		LocalGet(idx).I32Const(int32(elem.StackSize())).EmitRawOpcode(wasm.OpI32Mul).
		EmitRawOpcode(wasm.OpI32Add)

	if mut {
		ctx.Stack.Push(intermediate.MutRef{Inner: elem})
	} else {
		ctx.Stack.Push(intermediate.Ref{Inner: elem})
	}
	return nil
}

func handleVecImmBorrow(ctx *Context, in Instr) error { return handleVecBorrow(ctx, in, false) }
func handleVecMutBorrow(ctx *Context, in Instr) error { return handleVecBorrow(ctx, in, true) }

// handleVecPushBack grows the vector in place when full, re-seating the
// caller's storage slot (addr) to the new heap block — allocations never
// free (§4.2), so the old block is simply abandoned.
func handleVecPushBack(ctx *Context, in Instr) error {
	valType, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	ref, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	elem, err := vectorElemFromRef(ref)
	if err != nil {
		return err
	}
	if !valType.Equal(elem) {
		return errors.TypeMismatch(elem.String(), valType.String(), ctx.Path...)
	}
	elemSize := elem.StackSize()

	val := ctx.Locals.Local(ValTypeFor(elem))
	ctx.Emit.LocalSet(val)
	addr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalSet(addr)

	vecPtr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalGet(addr).I32Load(0).LocalSet(vecPtr)
	length := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalGet(vecPtr).I32Load(0).LocalSet(length)
	capacity := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalGet(vecPtr).I32Load(4).LocalSet(capacity)

	ctx.Emit.LocalGet(length).LocalGet(capacity).EmitRawOpcode(wasm.OpI32GeU).If(wasm.BlockTypeVoid)
	{
		newCap := ctx.Locals.Local(wasm.ValI32)
		ctx.Emit.LocalGet(capacity).I32Const(1).EmitRawOpcode(wasm.OpI32Shl).I32Const(1).
			EmitRawOpcode(wasm.OpI32Add).LocalSet(newCap)
		newPtr := ctx.Locals.Local(wasm.ValI32)
		ctx.Emit.I32Const(vecHeaderSize).LocalGet(newCap).I32Const(int32(elemSize)).
			EmitRawOpcode(wasm.OpI32Mul).EmitRawOpcode(wasm.OpI32Add).
			CallName(ctx.Helpers.AllocSymbol()).LocalSet(newPtr)
		ctx.Emit.LocalGet(newPtr).LocalGet(length).I32Store(0)
		ctx.Emit.LocalGet(newPtr).LocalGet(newCap).I32Store(4)

		dst := codegen.NewEmitter().LocalGet(newPtr).I32Const(vecHeaderSize).EmitRawOpcode(wasm.OpI32Add)
		src := codegen.NewEmitter().LocalGet(vecPtr).I32Const(vecHeaderSize).EmitRawOpcode(wasm.OpI32Add)
		size := codegen.NewEmitter().LocalGet(length).I32Const(int32(elemSize)).EmitRawOpcode(wasm.OpI32Mul)
		runtimehelpers.EmitMemCopy(ctx.Emit, dst, src, size)

		ctx.Emit.LocalGet(addr).LocalGet(newPtr).I32Store(0)
		ctx.Emit.LocalGet(newPtr).LocalSet(vecPtr)
	}
	ctx.Emit.End()

	ctx.Emit.LocalGet(vecPtr).I32Const(vecHeaderSize).EmitRawOpcode(wasm.OpI32Add).
		LocalGet(length).I32Const(int32(elemSize)).EmitRawOpcode(wasm.OpI32Mul).
		EmitRawOpcode(wasm.OpI32Add)
	ctx.Emit.LocalGet(val)
	if elem.StackSize() == 8 {
		ctx.Emit.I64Store(0)
	} else {
		ctx.Emit.I32Store(0)
	}

	ctx.Emit.LocalGet(vecPtr).LocalGet(length).I32Const(1).EmitRawOpcode(wasm.OpI32Add).I32Store(0)
	return nil
}

func handleVecPopBack(ctx *Context, in Instr) error {
	ref, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	elem, err := vectorElemFromRef(ref)
	if err != nil {
		return err
	}

	addr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalSet(addr)
	vecPtr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalGet(addr).I32Load(0).LocalSet(vecPtr)
	length := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalGet(vecPtr).I32Load(0).LocalSet(length)

	ctx.Emit.LocalGet(length).I32Const(0).EmitRawOpcode(wasm.OpI32Eq).If(wasm.BlockTypeVoid)
	ctx.Emit.Unreachable()
	ctx.Emit.End()

	newLen := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalGet(length).I32Const(1).EmitRawOpcode(wasm.OpI32Sub).LocalSet(newLen)
	ctx.Emit.LocalGet(vecPtr).LocalGet(newLen).I32Store(0)

	ctx.Emit.LocalGet(vecPtr).I32Const(vecHeaderSize).EmitRawOpcode(wasm.OpI32Add).
		LocalGet(newLen).I32Const(int32(elem.StackSize())).EmitRawOpcode(wasm.OpI32Mul).
		EmitRawOpcode(wasm.OpI32Add)
	if elem.StackSize() == 8 {
		ctx.Emit.I64Load(0)
	} else {
		ctx.Emit.I32Load(0)
	}
	ctx.Stack.Push(elem)
	return nil
}

// handleVecUnpack consumes a vector by value (its heap pointer, not a
// reference — Move's vec_unpack destructures the vector itself) into
// in.FieldCount elements, per the compile-time-known length the
// translating front-end already checked against the runtime length.
func handleVecUnpack(ctx *Context, in Instr) error {
	top, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	vec, ok := top.(intermediate.Vector)
	if !ok {
		return errors.OperationTypeMismatch(opName(in.Op), top.String(), ctx.Path...)
	}
	vecPtr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalSet(vecPtr)
	elemSize := vec.Elem.StackSize()
	for i := 0; i < in.FieldCount; i++ {
		ctx.Emit.LocalGet(vecPtr).I32Const(vecHeaderSize + int32(i)*int32(elemSize)).
			EmitRawOpcode(wasm.OpI32Add)
		if elemSize == 8 {
			ctx.Emit.I64Load(0)
		} else {
			ctx.Emit.I32Load(0)
		}
		ctx.Stack.Push(vec.Elem)
	}
	return nil
}

func handleVecSwap(ctx *Context, in Instr) error {
	if _, err := ctx.Stack.PopExpecting(intermediate.KindU32); err != nil {
		return err
	}
	if _, err := ctx.Stack.PopExpecting(intermediate.KindU32); err != nil {
		return err
	}
	ref, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	elem, err := vectorElemFromRef(ref)
	if err != nil {
		return err
	}
	elemSize := elem.StackSize()

	i2 := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalSet(i2)
	i1 := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalSet(i1)
	addr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalSet(addr)
	vecPtr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalGet(addr).I32Load(0).LocalSet(vecPtr)

	addr1 := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalGet(vecPtr).I32Const(vecHeaderSize).EmitRawOpcode(wasm.OpI32Add).
		LocalGet(i1).I32Const(int32(elemSize)).EmitRawOpcode(wasm.OpI32Mul).
		EmitRawOpcode(wasm.OpI32Add).LocalSet(addr1)
	addr2 := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalGet(vecPtr).I32Const(vecHeaderSize).EmitRawOpcode(wasm.OpI32Add).
		LocalGet(i2).I32Const(int32(elemSize)).EmitRawOpcode(wasm.OpI32Mul).
		EmitRawOpcode(wasm.OpI32Add).LocalSet(addr2)

	tmp := ctx.Locals.Local(ValTypeFor(elem))
	if elemSize == 8 {
		ctx.Emit.LocalGet(addr1).I64Load(0).LocalSet(tmp)
		ctx.Emit.LocalGet(addr1).LocalGet(addr2).I64Load(0).I64Store(0)
		ctx.Emit.LocalGet(addr2).LocalGet(tmp).I64Store(0)
	} else {
		ctx.Emit.LocalGet(addr1).I32Load(0).LocalSet(tmp)
		ctx.Emit.LocalGet(addr1).LocalGet(addr2).I32Load(0).I32Store(0)
		ctx.Emit.LocalGet(addr2).LocalGet(tmp).I32Store(0)
	}
	return nil
}
