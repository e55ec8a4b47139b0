package compiler

import (
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/translate"
)

// instantiation is one concrete-type-argument request for a generic
// function, discovered by scanning a caller's already-concrete body for
// OpCallGeneric. Nested generic-calling-generic instantiation (a generic
// body itself calling another generic function) is out of scope: every
// FunctionSource this compiler accepts is expected to originate from
// monomorphization-ready bytecode the same way handleCallGeneric's own doc
// comment assumes ("a caller passing an unresolved TypeParameter through is
// itself generic and must itself be monomorphized first").
type instantiation struct {
	module   intermediate.ModuleID
	index    uint32
	typeArgs []intermediate.Type
}

// collectInstantiations scans every non-generic function body in pkg for
// OpCallGeneric instructions, returning one instantiation per distinct
// (callee, type args) pair it finds, deduplicated by mangled symbol.
func collectInstantiations(pkg Package) []instantiation {
	seen := make(map[string]bool)
	var out []instantiation
	for _, md := range pkg.Modules {
		for _, fn := range md.Functions {
			if fn.TypeParameters > 0 {
				continue
			}
			for _, in := range fn.Body {
				if in.Op != translate.OpCallGeneric {
					continue
				}
				key := genericSymbolFor(in.Func.Module, in.Func.Index, in.TypeArgs)
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, instantiation{module: in.Func.Module, index: in.Func.Index, typeArgs: in.TypeArgs})
			}
		}
	}
	return out
}

// findFunction looks up a FunctionSource by module and declaration index.
func findFunction(pkg Package, module intermediate.ModuleID, index uint32) (FunctionSource, bool) {
	for _, md := range pkg.Modules {
		if !md.ID.Equal(module) {
			continue
		}
		if int(index) >= len(md.Functions) {
			return FunctionSource{}, false
		}
		return md.Functions[index], true
	}
	return FunctionSource{}, false
}
