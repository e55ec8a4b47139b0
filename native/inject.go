package native

import (
	"github.com/movevm/mvb2wasm/codegen"
	"github.com/movevm/mvb2wasm/hostabi"
	"github.com/movevm/mvb2wasm/runtimehelpers"
	"github.com/movevm/mvb2wasm/wasm"
)

// LocalAllocator hands out fresh scratch WASM locals. Same shape as
// abi.LocalAllocator; native keeps its own copy of the interface so it
// never needs to import abi just for this one method set.
type LocalAllocator interface {
	Local(valType wasm.ValType) uint32
}

// signerHeapSize is Signer's heap footprint: a 32-byte slot with the
// 20-byte address right-aligned, matching intermediate.Signer.HeapSize and
// Address's own wire layout.
const signerHeapSize = 32

// txContextHeapSize: TxContext is an empty struct — nothing is stored, the
// pointer exists only so call sites have a value to pass.
const txContextHeapSize = 4

// InjectSigner emits code allocating 32 bytes and filling the trailing 20
// with tx_origin, leaving the pointer on the stack. Signer is never decoded
// off the wire: §4.5 rejects it at selector computation, so no public
// function takes a Signer parameter and the dispatcher never calls this.
func InjectSigner(e *codegen.Emitter, helpers *runtimehelpers.Builder, host *hostabi.Registry, locals LocalAllocator) error {
	txOrigin, err := host.Symbol(hostabi.TxOrigin)
	if err != nil {
		return err
	}
	ptr := locals.Local(wasm.ValI32)
	e.I32Const(signerHeapSize).CallName(helpers.AllocSymbol()).LocalTee(ptr)
	e.I32Const(12).EmitRawOpcode(wasm.OpI32Add).CallName(txOrigin)
	e.LocalGet(ptr)
	return nil
}

// InjectTxContext emits code allocating the 4 reserved, unused bytes and
// leaving the pointer on the stack.
func InjectTxContext(e *codegen.Emitter, helpers *runtimehelpers.Builder) {
	e.I32Const(txContextHeapSize).CallName(helpers.AllocSymbol())
}

// UID is never injected: every UID value originates from a dedicated
// native function the user's own code calls explicitly (§4.8), so there is
// no InjectUID here — unlike Signer and TxContext, nothing needs to
// synthesize a value at a call site that merely takes one as a parameter.
