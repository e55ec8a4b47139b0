package translate

import (
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/wasm"
)

// Locals tracks a function's WASM local table: source locals (params plus
// declared locals, one WASM local per slot, §4.6) occupy the low indices
// and carry their declared intermediate.Type; scratch locals requested
// during translation are appended past them with no source type. Same
// two-region shape as the teacher's asyncify Locals (pre-declared vs.
// allocated-on-demand), generalized from stack-flattening scratch to MVB
// source locals plus ABI codec scratch.
type Locals struct {
	wasmTypes   []wasm.ValType
	sourceTypes []intermediate.Type // nil entries past len(sourceTypes) are scratch
	nextIdx     uint32
}

// ValTypeFor returns the WASM value type a given intermediate.Type is
// represented as: i64 for IU64, i32 for everything else (32-bit scalars
// and heap pointers alike, §3's stack_data_size rule).
func ValTypeFor(t intermediate.Type) wasm.ValType {
	if t.StackSize() == 8 {
		return wasm.ValI64
	}
	return wasm.ValI32
}

// NewLocals seeds a Locals table with the function's source locals (params
// followed by declared locals, in WASM local index order starting at 0).
func NewLocals(sourceTypes []intermediate.Type) *Locals {
	l := &Locals{
		wasmTypes:   make([]wasm.ValType, len(sourceTypes)),
		sourceTypes: make([]intermediate.Type, len(sourceTypes)),
		nextIdx:     uint32(len(sourceTypes)),
	}
	for i, t := range sourceTypes {
		l.wasmTypes[i] = ValTypeFor(t)
		l.sourceTypes[i] = t
	}
	return l
}

// Local allocates a fresh scratch local of the given WASM type and returns
// its index. Implements abi.LocalAllocator.
func (l *Locals) Local(valType wasm.ValType) uint32 {
	idx := l.nextIdx
	l.nextIdx++
	l.wasmTypes = append(l.wasmTypes, valType)
	l.sourceTypes = append(l.sourceTypes, nil)
	return idx
}

// SourceType returns the declared intermediate.Type of source local idx,
// or nil if idx is a scratch local or out of range.
func (l *Locals) SourceType(idx uint32) intermediate.Type {
	if int(idx) >= len(l.sourceTypes) {
		return nil
	}
	return l.sourceTypes[idx]
}

// Declared returns the WASM local entries to declare on the function body
// past the first paramCount slots (WASM function params are not
// re-declared as locals).
func (l *Locals) Declared(paramCount int) []wasm.LocalEntry {
	var out []wasm.LocalEntry
	for _, t := range l.wasmTypes[paramCount:] {
		out = append(out, wasm.LocalEntry{Count: 1, ValType: t})
	}
	return out
}
