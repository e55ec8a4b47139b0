package hostabi

import "github.com/movevm/mvb2wasm/wasm"

// ModuleName is the import module every vm_hooks function lives under.
const ModuleName = "vm_hooks"

// Signature is a host import's WASM function type.
type Signature struct {
	Params  []wasm.ValType
	Results []wasm.ValType
}

// Names of every recognized host import (§4.3's table). Registry.Finalize
// appends the used ones to the output module in first-use order, not in
// the order listed here.
const (
	PayForMemoryGrow = "pay_for_memory_grow"
	ReadArgs         = "read_args"
	WriteResult      = "write_result"
	EmitLog          = "emit_log"
	MsgSender        = "msg_sender"
	TxOrigin         = "tx_origin"
	MsgValue         = "msg_value"
	BlockBasefee     = "block_basefee"
	TxGasPrice       = "tx_gas_price"
	StorageLoadBytes32  = "storage_load_bytes32"
	StorageStoreBytes32 = "storage_store_bytes32"
)

var signatures = map[string]Signature{
	PayForMemoryGrow: {Params: []wasm.ValType{wasm.ValI32}},
	ReadArgs:         {Params: []wasm.ValType{wasm.ValI32}},
	WriteResult:      {Params: []wasm.ValType{wasm.ValI32, wasm.ValI32}},
	EmitLog:          {Params: []wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI32}},
	MsgSender:        {Params: []wasm.ValType{wasm.ValI32}},
	TxOrigin:         {Params: []wasm.ValType{wasm.ValI32}},
	MsgValue:         {Params: []wasm.ValType{wasm.ValI32}},
	BlockBasefee:     {Params: []wasm.ValType{wasm.ValI32}},
	TxGasPrice:       {Params: []wasm.ValType{wasm.ValI32}},
	// Storage slots are 32 bytes; load writes into a destination pointer,
	// store reads from a source pointer, both keyed by a pointer to a
	// 32-byte slot number.
	StorageLoadBytes32:  {Params: []wasm.ValType{wasm.ValI32, wasm.ValI32}},
	StorageStoreBytes32: {Params: []wasm.ValType{wasm.ValI32, wasm.ValI32}},
}
