package compiler

import (
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/modulegraph"
	"github.com/movevm/mvb2wasm/native"
)

// buildGraph registers every module's declarations before any body is
// translated, the two-phase collect-then-resolve shape modulegraph.Context
// is built for (§4.4). When opts.ValidateInvariants is set, every struct is
// checked against native.ValidateVMHandledType as it is collected, so a
// TxContext/UID collision aborts before a single instruction is emitted
// rather than surfacing later as a confusing translation-time lookup
// mismatch.
func buildGraph(pkg Package, opts Options) (*modulegraph.Context, error) {
	graph := modulegraph.NewContext()
	for _, md := range pkg.Modules {
		m := &modulegraph.Module{
			ID:      md.ID,
			Structs: md.Structs,
			Enums:   md.Enums,
		}
		for i, fn := range md.Functions {
			m.Functions = append(m.Functions, &modulegraph.FunctionDef{
				Module:         md.ID,
				Index:          uint32(i),
				Identifier:     fn.Identifier,
				TypeParameters: fn.TypeParameters,
				Params:         fn.Params,
				Results:        fn.Results,
			})
		}
		graph.AddModule(m)

		if opts.ValidateInvariants {
			for _, s := range md.Structs {
				if err := native.ValidateVMHandledType(md.ID, s.Identifier); err != nil {
					return nil, err
				}
			}
		}
	}
	return graph, nil
}

// symbolFor is the stable call-symbol assigned to a declared function's
// body. Must match translate/handlers_call.go's own funcSymbol exactly
// (module#fnN): that unexported function is what handleCall emits as the
// CallName target for every cross-function call in a translated body, so
// the compiler driver has to reproduce its naming rather than invent a
// different one, or every non-generic call would resolve to a missing
// symbol.
func symbolFor(module intermediate.ModuleID, index uint32) string {
	return module.String() + "#fn" + itoa(index)
}

// genericSymbolFor is the call symbol for one monomorphized instantiation
// of a generic function, matching handleCallGeneric's
// intermediate.MangledName(funcSymbol(...), typeArgs) target.
func genericSymbolFor(module intermediate.ModuleID, index uint32, typeArgs []intermediate.Type) string {
	return intermediate.MangledName(symbolFor(module, index), typeArgs)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
