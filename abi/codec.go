package abi

import (
	"github.com/movevm/mvb2wasm/codegen"
	"github.com/movevm/mvb2wasm/errors"
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/runtimehelpers"
	"github.com/movevm/mvb2wasm/wasm"
)

// LocalAllocator hands out fresh scratch WASM locals of a given type. The
// codec needs an unbounded number of i32 scratch locals for loop counters,
// cursors, and decoded lengths; it never knows the caller's local table
// layout, so it asks for what it needs.
type LocalAllocator interface {
	Local(valType wasm.ValType) uint32
}

// slotSize is the width of one head slot in the host's 32-byte-word ABI.
const slotSize = 32

// Codec emits pack/unpack instruction sequences for the wire types
// (everything WireName accepts): booleans, unsigned integers up to 256
// bits, addresses, and vectors thereof.
type Codec struct {
	helpers *runtimehelpers.Builder
	locals  LocalAllocator
}

// NewCodec returns a Codec that calls into helpers' allocator and
// byte-swap routines and requests scratch locals from locals.
func NewCodec(helpers *runtimehelpers.Builder, locals LocalAllocator) *Codec {
	return &Codec{helpers: helpers, locals: locals}
}

// Unpack emits code decoding the value at head slot `headAddr` (an i32
// local holding a pointer to the start of its 32-byte head slot) into a
// value of type t. `base` is an i32 local holding the start of the
// enclosing head region, against which offset-encoded dynamic fields are
// resolved. The emitted code leaves the decoded value on the stack: a
// scalar for stack types, a heap pointer for heap types.
func (c *Codec) Unpack(e *codegen.Emitter, t intermediate.Type, headAddr, base uint32) error {
	switch v := t.(type) {
	case intermediate.Bool:
		c.unpackRawU32(e, headAddr)
		e.I32Const(0).EmitRawOpcode(wasm.OpI32Ne)
		return nil
	case intermediate.U8, intermediate.U16, intermediate.U32:
		c.unpackRawU32(e, headAddr)
		return nil
	case intermediate.U64:
		c.unpackRawU64(e, headAddr)
		return nil
	case intermediate.U128:
		return c.unpackHeapInt(e, headAddr, 16)
	case intermediate.U256:
		return c.unpackHeapInt(e, headAddr, 32)
	case intermediate.Address:
		return c.unpackAddress(e, headAddr)
	case intermediate.Vector:
		return c.unpackVector(e, v, headAddr, base)
	default:
		return errors.New(errors.PhaseABI, errors.KindUnsupportedOperation).
			Detail("cannot unpack wire type %s", t).Build()
	}
}

// Pack emits code encoding a value of type t, already on the stack, into
// the head slot at `headAddr`. Dynamic values (vectors) are instead
// appended to the tail region starting at the i32 local `tail`, which Pack
// advances past the bytes it wrote; the offset word (tail - base) is
// written into the head slot.
func (c *Codec) Pack(e *codegen.Emitter, t intermediate.Type, headAddr, base, tail uint32) error {
	switch v := t.(type) {
	case intermediate.Bool, intermediate.U8, intermediate.U16, intermediate.U32:
		return c.packRawU32(e, headAddr)
	case intermediate.U64:
		return c.packRawU64(e, headAddr)
	case intermediate.U128:
		return c.packHeapInt(e, headAddr, 16)
	case intermediate.U256:
		return c.packHeapInt(e, headAddr, 32)
	case intermediate.Address:
		return c.packAddress(e, headAddr)
	case intermediate.Vector:
		return c.packVector(e, v, headAddr, base, tail)
	default:
		return errors.New(errors.PhaseABI, errors.KindUnsupportedOperation).
			Detail("cannot pack wire type %s", t).Build()
	}
}

// --- 32/64-bit stack scalars: right-aligned in the slot, big-endian on the
// wire, little-endian in memory. ---

func (c *Codec) unpackRawU32(e *codegen.Emitter, headAddr uint32) {
	e.LocalGet(headAddr).I32Load(28).CallName(c.helpers.Swap32Symbol())
}

func (c *Codec) unpackRawU64(e *codegen.Emitter, headAddr uint32) {
	e.LocalGet(headAddr).I64Load(24).CallName(c.helpers.Swap64Symbol())
}

// packRawU32 consumes a value already on the stack, wraps its swap32, and
// stores it right-aligned at headAddr. The unswapped top 28 bytes of the
// slot are left as whatever the fresh output buffer was zeroed to.
func (c *Codec) packRawU32(e *codegen.Emitter, headAddr uint32) error {
	val := c.locals.Local(wasm.ValI32)
	e.LocalSet(val)
	e.LocalGet(headAddr)
	e.LocalGet(val).CallName(c.helpers.Swap32Symbol())
	e.I32Store(28)
	return nil
}

func (c *Codec) packRawU64(e *codegen.Emitter, headAddr uint32) error {
	val := c.locals.Local(wasm.ValI64)
	e.LocalSet(val)
	e.LocalGet(headAddr)
	e.LocalGet(val).CallName(c.helpers.Swap64Symbol())
	e.I64Store(24)
	return nil
}

// --- Heap-allocated unsigned integers: byte-for-byte reversed between the
// big-endian wire and little-endian heap representations, 8 bytes at a
// time via swap64 (§4.1's 8-byte-chunk loader uses the same granularity). ---

func (c *Codec) unpackHeapInt(e *codegen.Emitter, headAddr uint32, size uint32) error {
	ptr := c.locals.Local(wasm.ValI32)
	wireOff := slotSize - size // heap ints occupy the trailing `size` bytes of the slot
	e.I32Const(int32(size)).CallName(c.helpers.AllocSymbol()).LocalSet(ptr)
	for i := uint32(0); i < size; i += 8 {
		heapOff := uint64(i)
		srcOff := uint64(wireOff) + uint64(size) - 8 - uint64(i)
		e.LocalGet(ptr)
		e.LocalGet(headAddr).I64Load(srcOff).CallName(c.helpers.Swap64Symbol())
		e.I64Store(heapOff)
	}
	e.LocalGet(ptr)
	return nil
}

func (c *Codec) packHeapInt(e *codegen.Emitter, headAddr uint32, size uint32) error {
	ptr := c.locals.Local(wasm.ValI32)
	e.LocalSet(ptr)
	wireOff := slotSize - size
	for i := uint32(0); i < size; i += 8 {
		dstOff := uint64(wireOff) + uint64(size) - 8 - uint64(i)
		e.LocalGet(headAddr)
		e.LocalGet(ptr).I64Load(uint64(i)).CallName(c.helpers.Swap64Symbol())
		e.I64Store(dstOff)
	}
	return nil
}

// --- Address: an opaque 32-byte blob, identical byte order on the wire and
// on the heap (leading 12 bytes zero, trailing 20 significant) — a straight
// copy, no endian conversion, since it is not a numeric value. ---

func (c *Codec) unpackAddress(e *codegen.Emitter, headAddr uint32) error {
	ptr := c.locals.Local(wasm.ValI32)
	e.I32Const(32).CallName(c.helpers.AllocSymbol()).LocalSet(ptr)
	dst := codegen.NewEmitter().LocalGet(ptr)
	src := codegen.NewEmitter().LocalGet(headAddr)
	size := codegen.NewEmitter().I32Const(32)
	runtimehelpers.EmitMemCopy(e, dst, src, size)
	e.LocalGet(ptr)
	return nil
}

func (c *Codec) packAddress(e *codegen.Emitter, headAddr uint32) error {
	ptr := c.locals.Local(wasm.ValI32)
	e.LocalSet(ptr)
	dst := codegen.NewEmitter().LocalGet(headAddr)
	src := codegen.NewEmitter().LocalGet(ptr)
	size := codegen.NewEmitter().I32Const(32)
	runtimehelpers.EmitMemCopy(e, dst, src, size)
	return nil
}

// --- Vectors: dynamic. Head slot carries a byte offset (relative to
// `base`) to a data region: a length word followed by elements, each a
// full head slot whose own dynamic fields (nested vectors) resolve offsets
// against the start of this region (§4.5/§4.6's vector header convention,
// [len:u32, cap:u32] at heap offset 0, generalized to the wire). ---

func (c *Codec) unpackVector(e *codegen.Emitter, v intermediate.Vector, headAddr, base uint32) error {
	elemsBase := c.locals.Local(wasm.ValI32)
	length := c.locals.Local(wasm.ValI32)
	ptr := c.locals.Local(wasm.ValI32)
	i := c.locals.Local(wasm.ValI32)
	elemHeadAddr := c.locals.Local(wasm.ValI32)

	offsetWord := c.locals.Local(wasm.ValI32)
	e.LocalGet(headAddr).I32Load(28).CallName(c.helpers.Swap32Symbol()).LocalSet(offsetWord)
	e.LocalGet(base).LocalGet(offsetWord).EmitRawOpcode(wasm.OpI32Add).LocalSet(elemsBase)
	e.LocalGet(elemsBase).I32Load(28).CallName(c.helpers.Swap32Symbol()).LocalSet(length)

	elemSize := v.Elem.StackSize()
	e.I32Const(8).LocalGet(length).I32Const(int32(elemSize)).EmitRawOpcode(wasm.OpI32Mul).
		EmitRawOpcode(wasm.OpI32Add).CallName(c.helpers.AllocSymbol()).LocalSet(ptr)
	e.LocalGet(ptr).LocalGet(length).I32Store(0)
	e.LocalGet(ptr).LocalGet(length).I32Store(4)

	e.I32Const(0).LocalSet(i)
	elemsDataBase := c.locals.Local(wasm.ValI32)
	e.LocalGet(elemsBase).I32Const(slotSize).EmitRawOpcode(wasm.OpI32Add).LocalSet(elemsDataBase)

	e.Loop(wasm.BlockTypeVoid)
	{
		e.LocalGet(i).LocalGet(length).EmitRawOpcode(wasm.OpI32GeU).If(wasm.BlockTypeVoid)
		e.Br(2)
		e.End()

		e.LocalGet(elemsDataBase).LocalGet(i).I32Const(slotSize).EmitRawOpcode(wasm.OpI32Mul).
			EmitRawOpcode(wasm.OpI32Add).LocalSet(elemHeadAddr)
		if err := c.Unpack(e, v.Elem, elemHeadAddr, elemsDataBase); err != nil {
			return err
		}
		c.storeVectorElement(e, v.Elem, ptr, i)

		e.LocalGet(i).I32Const(1).EmitRawOpcode(wasm.OpI32Add).LocalSet(i)
		e.Br(0)
	}
	e.End()

	e.LocalGet(ptr)
	return nil
}

// storeVectorElement consumes a decoded element value (top of stack) and
// the loop index i, storing it at ptr's element area (offset 8, §4.6).
func (c *Codec) storeVectorElement(e *codegen.Emitter, elem intermediate.Type, ptr, i uint32) {
	val := c.locals.Local(valTypeOf(elem))
	e.LocalSet(val)
	e.LocalGet(ptr).I32Const(8).EmitRawOpcode(wasm.OpI32Add).
		LocalGet(i).I32Const(int32(elem.StackSize())).EmitRawOpcode(wasm.OpI32Mul).
		EmitRawOpcode(wasm.OpI32Add)
	e.LocalGet(val)
	if elem.StackSize() == 8 {
		e.I64Store(0)
	} else {
		e.I32Store(0)
	}
}

func (c *Codec) packVector(e *codegen.Emitter, v intermediate.Vector, headAddr, base, tail uint32) error {
	ptr := c.locals.Local(wasm.ValI32)
	e.LocalSet(ptr)

	length := c.locals.Local(wasm.ValI32)
	e.LocalGet(ptr).I32Load(0).LocalSet(length)

	elemsBase := c.locals.Local(wasm.ValI32)
	e.LocalGet(tail).LocalSet(elemsBase)

	// Head offset word: elemsBase - base.
	e.LocalGet(headAddr)
	e.LocalGet(elemsBase).LocalGet(base).EmitRawOpcode(wasm.OpI32Sub).CallName(c.helpers.Swap32Symbol())
	e.I32Store(28)

	// Length word at elemsBase.
	e.LocalGet(elemsBase)
	e.LocalGet(length).CallName(c.helpers.Swap32Symbol())
	e.I32Store(28)

	elemsDataBase := c.locals.Local(wasm.ValI32)
	e.LocalGet(elemsBase).I32Const(slotSize).EmitRawOpcode(wasm.OpI32Add).LocalSet(elemsDataBase)
	e.LocalGet(elemsDataBase).LocalSet(tail)

	i := c.locals.Local(wasm.ValI32)
	elemHeadAddr := c.locals.Local(wasm.ValI32)
	e.I32Const(0).LocalSet(i)

	e.Loop(wasm.BlockTypeVoid)
	{
		e.LocalGet(i).LocalGet(length).EmitRawOpcode(wasm.OpI32GeU).If(wasm.BlockTypeVoid)
		e.Br(2)
		e.End()

		e.LocalGet(tail).LocalSet(elemHeadAddr)
		e.LocalGet(tail).I32Const(slotSize).EmitRawOpcode(wasm.OpI32Add).LocalSet(tail)

		c.loadVectorElement(e, v.Elem, ptr, i)
		if err := c.Pack(e, v.Elem, elemHeadAddr, elemsDataBase, tail); err != nil {
			return err
		}

		e.LocalGet(i).I32Const(1).EmitRawOpcode(wasm.OpI32Add).LocalSet(i)
		e.Br(0)
	}
	e.End()
	return nil
}

func (c *Codec) loadVectorElement(e *codegen.Emitter, elem intermediate.Type, ptr, i uint32) {
	e.LocalGet(ptr).I32Const(8).EmitRawOpcode(wasm.OpI32Add).
		LocalGet(i).I32Const(int32(elem.StackSize())).EmitRawOpcode(wasm.OpI32Mul).
		EmitRawOpcode(wasm.OpI32Add)
	if elem.StackSize() == 8 {
		e.I64Load(0)
	} else {
		e.I32Load(0)
	}
}

func valTypeOf(t intermediate.Type) wasm.ValType {
	if t.StackSize() == 8 {
		return wasm.ValI64
	}
	return wasm.ValI32
}
