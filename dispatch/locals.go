package dispatch

import "github.com/movevm/mvb2wasm/wasm"

// localAlloc hands out scratch WASM locals for the entry-point function body,
// starting past its declared parameters. Same shape as translate.Locals'
// scratch-allocation half, but the entry point has no MVB source locals of
// its own to track, so a bare counter is enough.
type localAlloc struct {
	next  uint32
	types []wasm.ValType
}

func newLocalAlloc(paramCount int) *localAlloc {
	return &localAlloc{next: uint32(paramCount)}
}

// Local allocates a fresh scratch local of valType and returns its index.
// Implements abi.LocalAllocator.
func (l *localAlloc) Local(valType wasm.ValType) uint32 {
	idx := l.next
	l.next++
	l.types = append(l.types, valType)
	return idx
}

// Declared returns the WASM local entries to declare past the function's
// parameters.
func (l *localAlloc) Declared() []wasm.LocalEntry {
	out := make([]wasm.LocalEntry, len(l.types))
	for i, t := range l.types {
		out[i] = wasm.LocalEntry{Count: 1, ValType: t}
	}
	return out
}
