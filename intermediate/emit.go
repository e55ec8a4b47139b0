package intermediate

import (
	"encoding/binary"

	"github.com/movevm/mvb2wasm/codegen"
)

// EmitScalarConst pushes a 32- or 64-bit scalar constant, per the value's
// Type (§4.1).
func EmitScalarConst(e *codegen.Emitter, c ScalarConst) {
	if c.Type.StackSize() == 8 {
		e.I64Const(int64(c.Value))
		return
	}
	e.I32Const(int32(uint32(c.Value)))
}

// EmitHeapConst materializes a heap constant: allocate its byte length,
// write the bytes in 8-byte little-endian chunks, and leave the pointer on
// the stack (§4.1). The allocated pointer is left in scratch local
// tmpLocal, which the caller owns and must have already declared as an i32
// local.
func EmitHeapConst(e *codegen.Emitter, c HeapConst, alloc Allocator, tmpLocal uint32) error {
	if err := c.Validate(); err != nil {
		return err
	}
	e.I32Const(int32(len(c.Bytes))).CallName(alloc.AllocSymbol()).LocalSet(tmpLocal)

	for off := 0; off < len(c.Bytes); off += 8 {
		chunk := make([]byte, 8)
		n := copy(chunk, c.Bytes[off:])
		_ = n
		v := binary.LittleEndian.Uint64(chunk)
		e.LocalGet(tmpLocal).I64Const(int64(v)).I64Store(uint64(off))
	}
	e.LocalGet(tmpLocal)
	return nil
}
