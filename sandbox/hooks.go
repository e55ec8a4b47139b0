package sandbox

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/movevm/mvb2wasm/hostabi"
)

// registerHooks exports every recognized vm_hooks import against builder,
// each one a Go closure over host. Grounded on linker/instance.go's
// NewHostModuleBuilder(...).NewFunctionBuilder().WithGoModuleFunction(...).
// Export(...) chain, with the component-instance indirection stripped out:
// this package only ever hosts one module, so there is no shared-memory
// resolution to do — mod.Memory() in each handler already is the calling
// instance's memory.
func registerHooks(builder wazero.HostModuleBuilder, host *Host) {
	export := func(name string, params, results []api.ValueType, fn api.GoModuleFunc) {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(fn, params, results).
			Export(name)
	}

	i32 := []api.ValueType{api.ValueTypeI32}
	i32i32 := []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
	i32i32i32 := []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32}
	none := []api.ValueType(nil)

	export(hostabi.PayForMemoryGrow, i32, none, payForMemoryGrow())
	export(hostabi.ReadArgs, i32, none, readArgs(host))
	export(hostabi.WriteResult, i32i32, none, writeResult(host))
	export(hostabi.EmitLog, i32i32i32, none, emitLog(host))
	export(hostabi.MsgSender, i32, none, writeAddress(func() [20]byte { return host.Sender }))
	export(hostabi.TxOrigin, i32, none, writeAddress(func() [20]byte { return host.Origin }))
	export(hostabi.MsgValue, i32, none, write32(func() [32]byte { return host.Value }))
	export(hostabi.BlockBasefee, i32, none, write32(func() [32]byte { return host.BlockBasefee }))
	export(hostabi.TxGasPrice, i32, none, write32(func() [32]byte { return host.GasPrice }))
	export(hostabi.StorageLoadBytes32, i32i32, none, storageLoad(host))
	export(hostabi.StorageStoreBytes32, i32i32, none, storageStore(host))
}

// payForMemoryGrow is a metering hook with nothing to meter in tests: the
// guest calls it before growing its own memory, and the sandbox always
// allows it.
func payForMemoryGrow() api.GoModuleFunc {
	return func(_ context.Context, _ api.Module, _ []uint64) {}
}

// readArgs copies host.Calldata into guest memory at the pointer the guest
// passed, matching dispatch.Build's read_args(ptr) call.
func readArgs(host *Host) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		ptr := uint32(stack[0])
		if !mod.Memory().Write(ptr, host.Calldata) {
			panic(errOutOfRange(hostabi.ReadArgs, ptr, uint32(len(host.Calldata))))
		}
	}
}

// writeResult reads size bytes from guest memory at ptr and records them
// as the run's result.
func writeResult(host *Host) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		ptr, size := uint32(stack[0]), uint32(stack[1])
		data, ok := mod.Memory().Read(ptr, size)
		if !ok {
			panic(errOutOfRange(hostabi.WriteResult, ptr, size))
		}
		host.setResult(data)
	}
}

// emitLog reads size bytes at ptr as the event payload and topic as the
// flat topic word buildEmit always passes as 0 today; kept as a parameter
// since vm_hooks declares it, not because any caller varies it yet.
func emitLog(host *Host) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		ptr, size, topic := uint32(stack[0]), uint32(stack[1]), uint32(stack[2])
		data, ok := mod.Memory().Read(ptr, size)
		if !ok {
			panic(errOutOfRange(hostabi.EmitLog, ptr, size))
		}
		host.appendLog(topic, data)
	}
}

// writeAddress writes a 20-byte address at the destination pointer.
// Callers filling a 32-byte slot pass a pointer 12 bytes into it
// (native.buildSender's offset-by-12 convention), which right-aligns it.
func writeAddress(value func() [20]byte) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		ptr := uint32(stack[0])
		v := value()
		if !mod.Memory().Write(ptr, v[:]) {
			panic(errOutOfRange("address hook", ptr, 20))
		}
	}
}

// write32 writes a 32-byte scalar (msg_value, block_basefee, gas_price)
// directly at the destination pointer.
func write32(value func() [32]byte) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		ptr := uint32(stack[0])
		v := value()
		if !mod.Memory().Write(ptr, v[:]) {
			panic(errOutOfRange("32-byte hook", ptr, 32))
		}
	}
}

func storageLoad(host *Host) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		slotPtr, destPtr := uint32(stack[0]), uint32(stack[1])
		slotBytes, ok := mod.Memory().Read(slotPtr, 32)
		if !ok {
			panic(errOutOfRange(hostabi.StorageLoadBytes32, slotPtr, 32))
		}
		var slot [32]byte
		copy(slot[:], slotBytes)
		val, _ := host.loadStorage(slot)
		if !mod.Memory().Write(destPtr, val[:]) {
			panic(errOutOfRange(hostabi.StorageLoadBytes32, destPtr, 32))
		}
	}
}

func storageStore(host *Host) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		slotPtr, srcPtr := uint32(stack[0]), uint32(stack[1])
		slotBytes, ok := mod.Memory().Read(slotPtr, 32)
		if !ok {
			panic(errOutOfRange(hostabi.StorageStoreBytes32, slotPtr, 32))
		}
		srcBytes, ok := mod.Memory().Read(srcPtr, 32)
		if !ok {
			panic(errOutOfRange(hostabi.StorageStoreBytes32, srcPtr, 32))
		}
		var slot, val [32]byte
		copy(slot[:], slotBytes)
		copy(val[:], srcBytes)
		host.storeStorage(slot, val)
	}
}
