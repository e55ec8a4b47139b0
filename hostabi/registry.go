package hostabi

import (
	"fmt"

	"github.com/movevm/mvb2wasm/wasm"
)

// Registry tracks which vm_hooks imports a compilation has actually used.
// It is the declared-lazily-on-first-use bookkeeping from §4.3: a package
// that never logs never gets an emit_log import in its output.
type Registry struct {
	declared map[string]bool
	order    []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{declared: make(map[string]bool)}
}

// Symbol returns the codegen call-symbol for a host import, declaring it on
// first use. The returned symbol is stable and is what translate/C6 passes
// to codegen.Emitter.CallName; it only becomes a concrete function index
// after Finalize runs.
func (r *Registry) Symbol(name string) (string, error) {
	if _, ok := signatures[name]; !ok {
		return "", fmt.Errorf("hostabi: unrecognized import %q", name)
	}
	if !r.declared[name] {
		r.declared[name] = true
		r.order = append(r.order, name)
	}
	return symbolFor(name), nil
}

func symbolFor(name string) string {
	return ModuleName + ":" + name
}

// Finalize appends every declared import to m, in declaration order, and
// returns a symbol->function-index map suitable for codegen.Emitter.Resolve.
// It must run before any local function is added to m, since appending
// imports shifts every subsequent local function's absolute index.
func (r *Registry) Finalize(m *wasm.Module) map[string]uint32 {
	resolved := make(map[string]uint32, len(r.order))
	for _, name := range r.order {
		sig := signatures[name]
		typeIdx := m.AddType(wasm.FuncType{Params: sig.Params, Results: sig.Results})
		idx := uint32(m.NumImportedFuncs())
		m.Imports = append(m.Imports, wasm.Import{
			Module: ModuleName,
			Name:   name,
			Desc:   wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: typeIdx},
		})
		resolved[symbolFor(name)] = idx
	}
	return resolved
}

// Used reports whether a given import name has been declared.
func (r *Registry) Used(name string) bool {
	return r.declared[name]
}
