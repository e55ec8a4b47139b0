// Package dispatch builds the contract's single exported entry point:
// user_entrypoint reads the raw calldata the host staged, matches its
// leading 4-byte selector against every public function's computed
// selector, unpacks arguments, makes the call, packs results, and writes
// them back out (§4.7). It is the last stage before whole-module assembly:
// every instruction it emits is either concrete or a symbolic call the
// compiler driver resolves alongside every other function body.
package dispatch

import (
	"github.com/movevm/mvb2wasm/abi"
	"github.com/movevm/mvb2wasm/codegen"
	"github.com/movevm/mvb2wasm/hostabi"
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/runtimehelpers"
	"github.com/movevm/mvb2wasm/translate"
	"github.com/movevm/mvb2wasm/wasm"
)

// FunctionEntry describes one publicly callable function as the dispatcher
// needs to see it: its wire name and signature (to compute its selector,
// §4.5) and the symbolic call target the translator assigned its body.
type FunctionEntry struct {
	Name    string
	Symbol  string
	Params  []intermediate.Type
	Results []intermediate.Type
	IsInit  bool
}

// Options configures the dispatcher body.
type Options struct {
	// InitStorageSlot is the number of the storage slot guarding repeat
	// init calls. Byte 31 of that slot's value is the flag: 0 means "not
	// yet run", 1 means "already run".
	InitStorageSlot uint32
}

// argParamIdx is the WASM local index of user_entrypoint's sole declared
// parameter: the calldata length in bytes.
const argParamIdx = 0

// Build emits user_entrypoint's body: allocate and read the calldata,
// compare its selector against every entry's, dispatch to the first match,
// and return 1 if none match. The returned locals are every scratch local
// Build allocated past argParamIdx; the caller declares them on the
// function.
func Build(entries []FunctionEntry, helpers *runtimehelpers.Builder, host *hostabi.Registry, opts Options) (*codegen.Emitter, []wasm.LocalEntry, error) {
	locals := newLocalAlloc(1)
	codec := abi.NewCodec(helpers, locals)
	e := codegen.NewEmitter()

	readArgs, err := host.Symbol(hostabi.ReadArgs)
	if err != nil {
		return nil, nil, err
	}
	writeResult, err := host.Symbol(hostabi.WriteResult)
	if err != nil {
		return nil, nil, err
	}

	argsPtr := locals.Local(wasm.ValI32)
	e.LocalGet(argParamIdx).CallName(helpers.AllocSymbol()).LocalSet(argsPtr)
	e.LocalGet(argsPtr).CallName(readArgs)

	selector := locals.Local(wasm.ValI32)
	e.LocalGet(argsPtr).I32Load(0).CallName(helpers.Swap32Symbol()).LocalSet(selector)

	calldata := locals.Local(wasm.ValI32)
	e.LocalGet(argsPtr).I32Const(4).EmitRawOpcode(wasm.OpI32Add).LocalSet(calldata)

	depth := 0
	for _, fn := range entries {
		sel, err := abi.Selector(fn.Name, fn.Params)
		if err != nil {
			return nil, nil, err
		}
		e.LocalGet(selector).I32Const(selectorConst(sel)).EmitRawOpcode(wasm.OpI32Eq).If(wasm.BlockTypeI32)
		if fn.IsInit {
			if err := emitInitDispatch(e, fn, codec, locals, helpers, host, calldata, opts, writeResult); err != nil {
				return nil, nil, err
			}
		} else {
			if err := emitCall(e, fn, codec, locals, calldata, helpers, writeResult); err != nil {
				return nil, nil, err
			}
		}
		e.Else()
		depth++
	}
	e.I32Const(1)
	for i := 0; i < depth; i++ {
		e.End()
	}

	return e, locals.Declared(), nil
}

// selectorConst reassembles a 4-byte selector into the numeric value
// Swap32Symbol produces when it converts the same bytes loaded raw off the
// wire, so a direct i32.eq against the loaded-and-swapped selector local is
// correct.
func selectorConst(sel [4]byte) int32 {
	return int32(uint32(sel[0])<<24 | uint32(sel[1])<<16 | uint32(sel[2])<<8 | uint32(sel[3]))
}

// emitCall unpacks fn's arguments out of calldata, calls it, packs its
// results into a fresh output buffer, writes them out, and leaves
// I32Const(0) on the stack: a complete, stack-neutral dispatch of one
// function, reusable standalone or nested inside emitInitDispatch.
func emitCall(e *codegen.Emitter, fn FunctionEntry, codec *abi.Codec, locals *localAlloc, calldata uint32, helpers *runtimehelpers.Builder, writeResult string) error {
	for i, param := range fn.Params {
		headAddr := locals.Local(wasm.ValI32)
		e.LocalGet(calldata).I32Const(int32(i*32)).EmitRawOpcode(wasm.OpI32Add).LocalSet(headAddr)
		if err := codec.Unpack(e, param, headAddr, calldata); err != nil {
			return err
		}
	}

	e.CallName(fn.Symbol)

	outSize := len(fn.Results) * 32
	outPtr := locals.Local(wasm.ValI32)
	e.I32Const(int32(outSize)).CallName(helpers.AllocSymbol()).LocalSet(outPtr)

	scratch := make([]uint32, len(fn.Results))
	for i := len(fn.Results) - 1; i >= 0; i-- {
		scratch[i] = locals.Local(translate.ValTypeFor(fn.Results[i]))
		e.LocalSet(scratch[i])
	}

	tail := locals.Local(wasm.ValI32)
	e.LocalGet(outPtr).I32Const(int32(outSize)).EmitRawOpcode(wasm.OpI32Add).LocalSet(tail)

	for i, result := range fn.Results {
		headAddr := locals.Local(wasm.ValI32)
		e.LocalGet(outPtr).I32Const(int32(i*32)).EmitRawOpcode(wasm.OpI32Add).LocalSet(headAddr)
		e.LocalGet(scratch[i])
		if err := codec.Pack(e, result, headAddr, outPtr, tail); err != nil {
			return err
		}
	}

	size := locals.Local(wasm.ValI32)
	e.LocalGet(tail).LocalGet(outPtr).EmitRawOpcode(wasm.OpI32Sub).LocalSet(size)
	e.LocalGet(outPtr).LocalGet(size).CallName(writeResult)

	e.I32Const(0)
	return nil
}

// emitInitDispatch guards fn (the init function) behind a one-time storage
// flag: a zero flag runs emitCall then sets the flag, a set flag reports a
// dispatch miss. Re-entry is treated the same as no function matching the
// selector rather than a distinct failure code, since the dispatcher
// otherwise has no need for a third return value.
func emitInitDispatch(e *codegen.Emitter, fn FunctionEntry, codec *abi.Codec, locals *localAlloc, helpers *runtimehelpers.Builder, host *hostabi.Registry, calldata uint32, opts Options, writeResult string) error {
	load, err := host.Symbol(hostabi.StorageLoadBytes32)
	if err != nil {
		return err
	}
	store, err := host.Symbol(hostabi.StorageStoreBytes32)
	if err != nil {
		return err
	}

	slotBuf := locals.Local(wasm.ValI32)
	e.I32Const(32).CallName(helpers.AllocSymbol()).LocalSet(slotBuf)
	e.LocalGet(slotBuf)
	e.I32Const(int32(opts.InitStorageSlot)).CallName(helpers.Swap32Symbol())
	e.I32Store(28)

	destBuf := locals.Local(wasm.ValI32)
	e.I32Const(32).CallName(helpers.AllocSymbol()).LocalSet(destBuf)
	e.LocalGet(slotBuf).LocalGet(destBuf).CallName(load)

	flag := locals.Local(wasm.ValI32)
	e.LocalGet(destBuf).I32Load8U(31).LocalSet(flag)

	e.LocalGet(flag).I32Const(0).EmitRawOpcode(wasm.OpI32Eq).If(wasm.BlockTypeI32)
	if err := emitCall(e, fn, codec, locals, calldata, helpers, writeResult); err != nil {
		return err
	}
	srcBuf := locals.Local(wasm.ValI32)
	e.I32Const(32).CallName(helpers.AllocSymbol()).LocalSet(srcBuf)
	e.LocalGet(srcBuf).I32Const(1).I32Store8(31)
	e.LocalGet(slotBuf).LocalGet(srcBuf).CallName(store)
	e.Else()
	e.I32Const(1)
	e.End()

	return nil
}
