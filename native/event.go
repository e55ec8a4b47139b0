package native

import (
	"github.com/movevm/mvb2wasm/abi"
	"github.com/movevm/mvb2wasm/codegen"
	"github.com/movevm/mvb2wasm/hostabi"
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/wasm"
)

// structPtr is the index of emit<T>'s sole parameter: a pointer to the
// struct's VM-runtime heap layout (fields concatenated from offset 0, the
// same layout handlers_struct.go's handlePack produces).
const structPtr = 0

// buildEmit lowers emit<t>: reads every field out of the struct's runtime
// heap layout, ABI-packs each into a fresh head-slot buffer the same way
// dispatch packs a call's results, then hands the packed bytes to
// emit_log. Grounded on add_emit_log_fn, generalized from a single
// allocate-and-pack-in-place call to per-field head/tail packing so
// dynamic fields (vectors) get an offset-encoded tail region instead of
// assuming a fixed size.
func (r *Registry) buildEmit(t intermediate.Type) (*codegen.Emitter, error) {
	def, err := r.graph.StructByIntermediateType(t)
	if err != nil {
		return nil, err
	}

	locals := newLocalAlloc(1)
	codec := abi.NewCodec(r.helpers, locals)
	e := codegen.NewEmitter()

	outSize := int32(len(def.Fields) * 32)
	outPtr := locals.Local(wasm.ValI32)
	e.I32Const(outSize).CallName(r.helpers.AllocSymbol()).LocalSet(outPtr)

	tail := locals.Local(wasm.ValI32)
	e.LocalGet(outPtr).I32Const(outSize).EmitRawOpcode(wasm.OpI32Add).LocalSet(tail)

	offset := uint32(0)
	for i, f := range def.Fields {
		headAddr := locals.Local(wasm.ValI32)
		e.LocalGet(outPtr).I32Const(int32(i*32)).EmitRawOpcode(wasm.OpI32Add).LocalSet(headAddr)

		e.LocalGet(structPtr)
		if f.StackSize() == 8 {
			e.I64Load(uint64(offset))
		} else {
			e.I32Load(uint64(offset))
		}
		offset += f.StackSize()

		if err := codec.Pack(e, f, headAddr, outPtr, tail); err != nil {
			return nil, err
		}
	}

	size := locals.Local(wasm.ValI32)
	e.LocalGet(tail).LocalGet(outPtr).EmitRawOpcode(wasm.OpI32Sub).LocalSet(size)

	emitLog, err := r.host.Symbol(hostabi.EmitLog)
	if err != nil {
		return nil, err
	}
	e.LocalGet(outPtr).LocalGet(size).I32Const(0).CallName(emitLog)

	return e, nil
}
