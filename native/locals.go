package native

import "github.com/movevm/mvb2wasm/wasm"

// localAlloc hands out scratch WASM locals for a native function body, past
// its declared parameters. A third, independent abi.LocalAllocator
// implementation, parallel to translate.Locals and dispatch's localAlloc:
// each component's function bodies have their own notion of what is
// "already declared" versus "scratch", so none share an allocator.
type localAlloc struct {
	next  uint32
	types []wasm.ValType
}

func newLocalAlloc(paramCount int) *localAlloc {
	return &localAlloc{next: uint32(paramCount)}
}

func (l *localAlloc) Local(valType wasm.ValType) uint32 {
	idx := l.next
	l.next++
	l.types = append(l.types, valType)
	return idx
}

func (l *localAlloc) Declared() []wasm.LocalEntry {
	out := make([]wasm.LocalEntry, len(l.types))
	for i, t := range l.types {
		out[i] = wasm.LocalEntry{Count: 1, ValType: t}
	}
	return out
}
