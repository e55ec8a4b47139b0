package compiler

import (
	"go.uber.org/zap"

	"github.com/movevm/mvb2wasm/codegen"
	"github.com/movevm/mvb2wasm/dispatch"
	"github.com/movevm/mvb2wasm/hostabi"
	"github.com/movevm/mvb2wasm/native"
	"github.com/movevm/mvb2wasm/runtimehelpers"
	"github.com/movevm/mvb2wasm/wasm"
)

const entrypointExport = "user_entrypoint"
const entrypointSymbol = "dispatch:user_entrypoint"

// pendingBody is one function awaiting a final index and symbol
// resolution before it can be appended to the output module.
type pendingBody struct {
	symbol string
	typ    wasm.FuncType
	locals []wasm.LocalEntry
	emit   *codegen.Emitter
}

// Compile lowers pkg to a complete WASM module and returns its encoded
// bytes. It wires C1-C8 together in one straight-line pipeline: build the
// module graph, translate every concrete and monomorphized function body,
// build the dispatcher, finalize every lazily-declared host import /
// runtime helper / native function, then assemble and encode the final
// wasm.Module.
func Compile(pkg Package, opts Options) ([]byte, error) {
	graph, err := buildGraph(pkg, opts)
	if err != nil {
		return nil, err
	}

	host := hostabi.NewRegistry()
	helpers := runtimehelpers.NewBuilder(host)
	nativeReg := native.NewRegistry(host, helpers, graph)

	var pending []pendingBody
	var entries []dispatch.FunctionEntry

	for _, md := range pkg.Modules {
		for i, fn := range md.Functions {
			if fn.TypeParameters > 0 {
				// Generic declarations are never translated directly;
				// only their monomorphized instantiations are (below).
				continue
			}
			sym := symbolFor(md.ID, uint32(i))
			tf, err := translateFunction(graph, host, helpers, fn, sym, nil, md.ID.String(), fn.Identifier)
			if err != nil {
				return nil, err
			}
			pending = append(pending, pendingBody{symbol: sym, typ: tf.typ, locals: tf.locals, emit: tf.emit})
			Logger().Info("translated function",
				zap.String("module", md.ID.String()),
				zap.String("function", fn.Identifier),
				zap.Int("instructions", tf.emit.Len()))

			if fn.IsPublic {
				entries = append(entries, dispatch.FunctionEntry{
					Name: fn.Identifier, Symbol: sym,
					Params: fn.Params, Results: fn.Results, IsInit: fn.IsInit,
				})
			}
		}
	}

	for _, inst := range collectInstantiations(pkg) {
		fn, ok := findFunction(pkg, inst.module, inst.index)
		if !ok {
			continue
		}
		sym := genericSymbolFor(inst.module, inst.index, inst.typeArgs)
		tf, err := translateFunction(graph, host, helpers, fn, sym, inst.typeArgs, inst.module.String(), fn.Identifier)
		if err != nil {
			return nil, err
		}
		pending = append(pending, pendingBody{symbol: sym, typ: tf.typ, locals: tf.locals, emit: tf.emit})
	}

	dispatchBody, dispatchLocals, err := dispatch.Build(entries, helpers, host, dispatch.Options{InitStorageSlot: opts.InitStorageSlot})
	if err != nil {
		return nil, err
	}
	pending = append(pending, pendingBody{
		symbol: entrypointSymbol,
		typ:    wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
		locals: dispatchLocals,
		emit:   dispatchBody,
	})

	m := &wasm.Module{}
	m.Memories = append(m.Memories, wasm.MemoryType{Limits: wasm.Limits{Min: 1}})
	m.Data = reservedDataSegments()
	helpers.DeclareGlobal(m)

	// Helper and native bodies declare the host imports they call while
	// being built, so they are built first. Imports are then finalized,
	// and so occupy the lowest function indices, before any local
	// function's index is fixed (§4.2/§4.3).
	helperPending, err := helpers.Finalize()
	if err != nil {
		return nil, err
	}
	nativePending, err := nativeReg.Finalize()
	if err != nil {
		return nil, err
	}

	symToIdx := host.Finalize(m)

	var order []pendingBody
	for _, h := range helperPending {
		order = append(order, pendingBody{symbol: h.Name, typ: h.Type, emit: h.Body})
	}
	for _, n := range nativePending {
		order = append(order, pendingBody{symbol: n.Name, typ: n.Type, emit: n.Body})
	}
	order = append(order, pending...)

	nextIdx := uint32(m.NumImportedFuncs())
	for _, p := range order {
		symToIdx[p.symbol] = nextIdx
		nextIdx++
	}

	resolve := func(name string) (uint32, bool) {
		idx, ok := symToIdx[name]
		return idx, ok
	}
	for _, p := range order {
		if err := p.emit.Resolve(resolve); err != nil {
			return nil, err
		}
	}

	for _, p := range order {
		typeIdx := m.AddType(p.typ)
		m.Funcs = append(m.Funcs, typeIdx)
		m.Code = append(m.Code, wasm.FuncBody{Locals: p.locals, Code: p.emit.Code()})
	}

	m.Exports = append(m.Exports, wasm.Export{Name: "memory", Kind: wasm.KindMemory, Idx: 0})
	m.Exports = append(m.Exports, wasm.Export{Name: entrypointExport, Kind: wasm.KindFunc, Idx: symToIdx[entrypointSymbol]})

	return m.Encode(), nil
}
