package native

import (
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/modulegraph"
)

// IsOneTimeWitness folds is_one_time_witness<t> to a compile-time boolean:
// the upstream package-discovery collaborator already decides whether a
// struct satisfies the one-time-witness rules (upper-cased module name, no
// fields beyond a single bool, no type parameters, drop-only abilities) and
// records it on IStruct.is_one_time_witness, so this never needs to
// re-derive the rule — it only needs to look the struct up. Unlike emit<T>,
// the call site folds the result straight into an I32Const and never emits
// a call at all (§4.8): there is no symbol, no Registry entry, and no
// Finalize participation for this native.
func IsOneTimeWitness(t intermediate.Type, graph *modulegraph.Context) (int32, error) {
	def, err := graph.StructByIntermediateType(t)
	if err != nil {
		return 0, err
	}
	if def.IsOneTimeWitness {
		return 1, nil
	}
	return 0, nil
}
