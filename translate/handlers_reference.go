package translate

import (
	"github.com/movevm/mvb2wasm/errors"
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/wasm"
)

// references are compile-time only: a Ref/MutRef is just an i32 address,
// never distinguished from a plain heap pointer at runtime. These handlers
// exist purely to keep the type stack accurate; the only real work is the
// memory load/store read_ref and write_ref perform.

func handleReadRef(ctx *Context, in Instr) error {
	top, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	inner, err := refInner(top)
	if err != nil {
		return err
	}
	addr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalSet(addr)
	ctx.Emit.LocalGet(addr)
	if inner.StackSize() == 8 {
		ctx.Emit.I64Load(0)
	} else {
		ctx.Emit.I32Load(0)
	}
	ctx.Stack.Push(inner)
	return nil
}

func handleWriteRef(ctx *Context, in Instr) error {
	valType, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	refType, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	inner, err := refInner(refType)
	if err != nil {
		return err
	}
	if _, ok := refType.(intermediate.MutRef); !ok {
		return errors.OperationTypeMismatch(opName(in.Op), refType.String(), ctx.Path...)
	}
	if !valType.Equal(inner) {
		return errors.TypeMismatch(inner.String(), valType.String(), ctx.Path...)
	}

	val := ctx.Locals.Local(ValTypeFor(inner))
	ctx.Emit.LocalSet(val)
	addr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalSet(addr)
	ctx.Emit.LocalGet(addr).LocalGet(val)
	if inner.StackSize() == 8 {
		ctx.Emit.I64Store(0)
	} else {
		ctx.Emit.I32Store(0)
	}
	return nil
}

// handleFreezeRef downgrades a MutRef to a Ref. No code is emitted: the
// address is identical either way, this is purely a type-stack relabeling.
func handleFreezeRef(ctx *Context, in Instr) error {
	top, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	mr, ok := top.(intermediate.MutRef)
	if !ok {
		return errors.OperationTypeMismatch(opName(in.Op), top.String(), ctx.Path...)
	}
	ctx.Stack.Push(intermediate.Ref{Inner: mr.Inner})
	return nil
}

func refInner(t intermediate.Type) (intermediate.Type, error) {
	switch v := t.(type) {
	case intermediate.Ref:
		return v.Inner, nil
	case intermediate.MutRef:
		return v.Inner, nil
	default:
		return nil, errors.OperationTypeMismatch("reference op", t.String())
	}
}

// handleMutBorrowField and handleImmBorrowField both compute the same
// field address from a struct reference — a struct value IS its heap
// pointer, so borrowing field i is pointer arithmetic, no indirection
// needed (unlike vector mutation, which indirects through the slot
// holding the vector's own pointer). They differ only in whether the
// resulting reference permits a later write, a borrow-checker concern
// out of scope (§1).
func handleMutBorrowField(ctx *Context, in Instr) error {
	return handleBorrowField(ctx, in, true)
}

func handleImmBorrowField(ctx *Context, in Instr) error {
	return handleBorrowField(ctx, in, false)
}

func handleBorrowField(ctx *Context, in Instr, mut bool) error {
	top, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	inner := top
	if r, ok := top.(intermediate.Ref); ok {
		inner = r.Inner
	} else if r, ok := top.(intermediate.MutRef); ok {
		inner = r.Inner
	}
	def, err := ctx.Graph.StructByIntermediateType(inner)
	if err != nil {
		return err
	}
	if int(in.Local) >= len(def.Fields) {
		return errors.InvalidOperation("borrow_field index out of range", ctx.Path...)
	}
	field := def.Fields[in.Local]
	offset := def.FieldOffset(int(in.Local))

	ptr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalSet(ptr)
	ctx.Emit.LocalGet(ptr).I32Const(int32(offset)).EmitRawOpcode(wasm.OpI32Add)

	if mut {
		ctx.Stack.Push(intermediate.MutRef{Inner: field})
	} else {
		ctx.Stack.Push(intermediate.Ref{Inner: field})
	}
	return nil
}
