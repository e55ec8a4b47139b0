package translate

import (
	"github.com/movevm/mvb2wasm/errors"
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/wasm"
)

// resolveStruct resolves the StructDef in.Struct names, instantiating it
// against in.TypeArgs when the declaration is generic, and returns the
// intermediate.Type a packed/unpacked value of this struct carries on the
// type stack.
func resolveStruct(ctx *Context, ref StructRef, typeArgs []intermediate.Type) (*intermediate.StructDef, intermediate.Type, error) {
	def, err := ctx.Graph.StructByIndex(ref.Module, ref.Index)
	if err != nil {
		return nil, nil, err
	}
	if def.TypeParameters == 0 {
		return def, intermediate.Struct{Module: ref.Module, Index: ref.Index}, nil
	}
	inst, err := def.Instantiate(typeArgs)
	if err != nil {
		return nil, nil, err
	}
	return inst, intermediate.GenericStructInstance{Module: ref.Module, Index: ref.Index, TypeArgs: typeArgs}, nil
}

// stashFields pops the n values currently sitting on top of the runtime
// stack (in declaration order, last field pushed last) into fresh scratch
// locals, returning their indices in declaration order. WASM has no
// stack-dup/reorder instruction, so locals are the only way to un-reverse
// LIFO field values before laying them out in declaration order, and
// scratch locals must be populated before the destination pointer is even
// allocated (alloc's own call clobbers the stack).
func stashFields(ctx *Context, fields []intermediate.Type) []uint32 {
	scratch := make([]uint32, len(fields))
	for i := len(fields) - 1; i >= 0; i-- {
		scratch[i] = ctx.Locals.Local(ValTypeFor(fields[i]))
		ctx.Emit.LocalSet(scratch[i])
	}
	return scratch
}

// storeFields emits the memory stores moving each stashed scratch local
// into ptr's heap layout at its field's offset, starting at baseOffset.
func storeFields(ctx *Context, ptr uint32, fields []intermediate.Type, scratch []uint32, baseOffset uint32) {
	offset := baseOffset
	for i, f := range fields {
		ctx.Emit.LocalGet(ptr).LocalGet(scratch[i])
		if f.StackSize() == 8 {
			ctx.Emit.I64Store(uint64(offset))
		} else {
			ctx.Emit.I32Store(uint64(offset))
		}
		offset += f.StackSize()
	}
}

// emitFieldLoad reads each field of fields (in declaration order) out of
// ptr's heap layout back onto the stack.
func emitFieldLoad(ctx *Context, ptr uint32, fields []intermediate.Type, baseOffset uint32) {
	offset := baseOffset
	for _, f := range fields {
		ctx.Emit.LocalGet(ptr)
		if f.StackSize() == 8 {
			ctx.Emit.I64Load(uint64(offset))
		} else {
			ctx.Emit.I32Load(uint64(offset))
		}
		offset += f.StackSize()
	}
}

func handlePack(ctx *Context, in Instr) error {
	def, structType, err := resolveStruct(ctx, in.Struct, in.TypeArgs)
	if err != nil {
		return err
	}
	if in.FieldCount != len(def.Fields) {
		return errors.InvalidOperation("pack field count does not match struct definition", ctx.Path...)
	}
	got, err := ctx.Stack.PopN(len(def.Fields))
	if err != nil {
		return err
	}
	for i, f := range def.Fields {
		if !got[i].Equal(f) {
			return errors.TypeMismatch(f.String(), got[i].String(), ctx.Path...)
		}
		if _, isRef := f.(intermediate.Ref); isRef {
			return errors.FoundReferenceInsideStruct(ctx.Path...)
		}
		if _, isMutRef := f.(intermediate.MutRef); isMutRef {
			return errors.FoundReferenceInsideStruct(ctx.Path...)
		}
	}

	size, err := def.HeapSize(ctx.Graph)
	if err != nil {
		return err
	}
	scratch := stashFields(ctx, def.Fields)
	ptr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.I32Const(int32(size)).CallName(ctx.Helpers.AllocSymbol()).LocalSet(ptr)
	storeFields(ctx, ptr, def.Fields, scratch, 0)

	ctx.Stack.Push(structType)
	ctx.Emit.LocalGet(ptr)
	return nil
}

func handleUnpack(ctx *Context, in Instr) error {
	top, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	def, err := ctx.Graph.StructByIntermediateType(top)
	if err != nil {
		return err
	}
	if in.FieldCount != len(def.Fields) {
		return errors.InvalidOperation("unpack field count does not match struct definition", ctx.Path...)
	}
	ptr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalSet(ptr)
	emitFieldLoad(ctx, ptr, def.Fields, 0)
	for _, f := range def.Fields {
		ctx.Stack.Push(f)
	}
	return nil
}

func handlePackVariant(ctx *Context, in Instr) error {
	if len(in.TypeArgs) > 0 {
		return errors.PackingGenericEnumVariant(ctx.Path...)
	}
	def, err := ctx.Graph.EnumByIndex(in.Enum.Module, in.Enum.Index)
	if err != nil {
		return err
	}
	if int(in.Variant) >= len(def.Variants) {
		return errors.InvalidOperation("variant index out of range", ctx.Path...)
	}
	variant := def.Variants[in.Variant]
	if in.FieldCount != len(variant.Fields) {
		return errors.InvalidOperation("pack_variant field count does not match variant definition", ctx.Path...)
	}
	got, err := ctx.Stack.PopN(len(variant.Fields))
	if err != nil {
		return err
	}
	for i, f := range variant.Fields {
		if !got[i].Equal(f) {
			return errors.TypeMismatch(f.String(), got[i].String(), ctx.Path...)
		}
	}

	size, ok, err := def.HeapSize(ctx.Graph)
	if err != nil {
		return err
	}
	if !ok {
		return errors.FoundTypeParameterInsideStruct(ctx.Path...)
	}
	scratch := stashFields(ctx, variant.Fields)
	ptr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.I32Const(int32(size)).CallName(ctx.Helpers.AllocSymbol()).LocalSet(ptr)
	ctx.Emit.LocalGet(ptr).I32Const(int32(in.Variant)).I32Store(0)
	storeFields(ctx, ptr, variant.Fields, scratch, 4)

	ctx.Stack.Push(intermediate.Enum{Module: in.Enum.Module, Index: in.Enum.Index})
	ctx.Emit.LocalGet(ptr)
	return nil
}

// handleUnpackVariant reads a variant's fields out of an enum pointer
// already known (by a prior VariantSwitch) to carry this discriminant;
// it does not re-check the discriminant.
func handleUnpackVariant(ctx *Context, in Instr) error {
	top, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	if top.Kind() != intermediate.KindEnum {
		return errors.OperationTypeMismatch(opName(in.Op), top.String(), ctx.Path...)
	}
	def, err := ctx.Graph.EnumByIntermediateType(top)
	if err != nil {
		return err
	}
	if int(in.Variant) >= len(def.Variants) {
		return errors.InvalidOperation("variant index out of range", ctx.Path...)
	}
	variant := def.Variants[in.Variant]
	if in.FieldCount != len(variant.Fields) {
		return errors.InvalidOperation("unpack_variant field count does not match variant definition", ctx.Path...)
	}
	ptr := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalSet(ptr)
	emitFieldLoad(ctx, ptr, variant.Fields, 4)
	for _, f := range variant.Fields {
		ctx.Stack.Push(f)
	}
	return nil
}

// handleVariantSwitch reads the discriminant at an enum pointer's offset 0
// and br_tables to the variant-specific branch named by in.Targets, with
// the last entry as the default (the match is exhaustive by construction,
// but br_table still requires one). A discriminant not below the variant
// count (len(in.Targets)-1) traps before the br_table is reached, so the
// default branch is never taken. It never pops the enum pointer off the
// stack — local.tee keeps it live for whichever branch is taken, where a
// subsequent UnpackVariant expects to find it.
func handleVariantSwitch(ctx *Context, in Instr) error {
	top, err := ctx.Stack.Peek()
	if err != nil {
		return err
	}
	if top.Kind() != intermediate.KindEnum {
		return errors.OperationTypeMismatch(opName(in.Op), top.String(), ctx.Path...)
	}
	if len(in.Targets) < 2 {
		return errors.InvalidOperation("variant_switch requires a branch target per variant plus a default", ctx.Path...)
	}
	tmp := ctx.Locals.Local(wasm.ValI32)
	ctx.Emit.LocalTee(tmp)
	variants := int32(len(in.Targets) - 1)
	ctx.Emit.LocalGet(tmp).I32Load(0).I32Const(variants).EmitRawOpcode(wasm.OpI32GeU).If(wasm.BlockTypeVoid)
	ctx.Emit.Unreachable()
	ctx.Emit.End()
	ctx.Emit.LocalGet(tmp).I32Load(0)
	ctx.Emit.BrTable(in.Targets[:len(in.Targets)-1], in.Targets[len(in.Targets)-1])
	return nil
}
