package native

import (
	"github.com/movevm/mvb2wasm/codegen"
	"github.com/movevm/mvb2wasm/hostabi"
	"github.com/movevm/mvb2wasm/wasm"
)

// hostWrapper describes a fixed native function that is nothing but a
// thin wrapper allocating a buffer and handing it to a single host import:
// alloc(size) -> ptr, call host(ptr), return ptr. native_msg_value,
// native_block_basefee, and native_gas_price are all this same shape; only
// native_sender differs, because msg_sender writes a 20-byte address that
// must land right-aligned in a 32-byte slot (§4.8), twelve bytes in from
// the pointer the allocator handed back.
type hostWrapper struct {
	symbol   string
	hostName string
	allocSize int32
}

var fixedWrappers = map[string]hostWrapper{
	SymMsgValue:     {symbol: SymMsgValue, hostName: hostabi.MsgValue, allocSize: 32},
	SymBlockBasefee: {symbol: SymBlockBasefee, hostName: hostabi.BlockBasefee, allocSize: 32},
	SymGasPrice:     {symbol: SymGasPrice, hostName: hostabi.TxGasPrice, allocSize: 32},
}

func (r *Registry) buildHostWrapper(w hostWrapper) (*codegen.Emitter, error) {
	hostSym, err := r.host.Symbol(w.hostName)
	if err != nil {
		return nil, err
	}
	const ptr = 0
	e := codegen.NewEmitter()
	e.I32Const(w.allocSize).CallName(r.helpers.AllocSymbol()).LocalTee(ptr)
	e.CallName(hostSym)
	e.LocalGet(ptr)
	return e, nil
}

// buildSender emits native_sender: allocate 32 bytes, write msg_sender's
// 20-byte address right-aligned (offset 12), return the pointer — the one
// fixed wrapper host wrapper can't express because msg_sender's pointer
// argument is offset from the allocation, not the allocation itself.
func (r *Registry) buildSender() (*codegen.Emitter, error) {
	hostSym, err := r.host.Symbol(hostabi.MsgSender)
	if err != nil {
		return nil, err
	}
	const ptr = 0
	e := codegen.NewEmitter()
	e.I32Const(32).CallName(r.helpers.AllocSymbol()).LocalTee(ptr)
	e.I32Const(12).EmitRawOpcode(wasm.OpI32Add).CallName(hostSym)
	e.LocalGet(ptr)
	return e, nil
}
