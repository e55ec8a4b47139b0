package runtimehelpers

import (
	"github.com/movevm/mvb2wasm/codegen"
	"github.com/movevm/mvb2wasm/hostabi"
	"github.com/movevm/mvb2wasm/wasm"
)

// Call-symbol names for the four runtime helpers. Translation code never
// references a function index directly; it asks Builder for a symbol and
// passes it to codegen.Emitter.CallName, same as hostabi imports.
const (
	SymAlloc          = "runtime:alloc"
	SymSwap32         = "runtime:swap_i32_bytes"
	SymSwap64         = "runtime:swap_i64_bytes"
	SymHeapEquality   = "runtime:heap_type_equality"
)

// allocatorBase is the initial value of the allocator pointer global: the
// first byte past the reserved block (§6).
const allocatorBase int32 = 256

// Builder lazily builds the runtime helper functions a module needs and
// reserves the bump-allocator global. Every helper is memoized by name: a
// module that never compares two heap values never gets a
// heap_type_equality function.
type Builder struct {
	host   *hostabi.Registry
	used   map[string]bool
	global uint32 // index of the allocator pointer global, fixed at construction
}

// NewBuilder creates a Builder bound to host, used to request
// pay_for_memory_grow when the allocator grows memory.
func NewBuilder(host *hostabi.Registry) *Builder {
	return &Builder{host: host, used: make(map[string]bool)}
}

// AllocSymbol returns the call symbol for the bump allocator, `(size: i32)
// -> i32`, declaring it for emission.
func (b *Builder) AllocSymbol() string {
	b.used[SymAlloc] = true
	return SymAlloc
}

// Swap32Symbol returns the call symbol for `swap_i32_bytes(v: i32) -> i32`.
func (b *Builder) Swap32Symbol() string {
	b.used[SymSwap32] = true
	return SymSwap32
}

// Swap64Symbol returns the call symbol for `swap_i64_bytes(v: i64) -> i64`.
func (b *Builder) Swap64Symbol() string {
	b.used[SymSwap64] = true
	return SymSwap64
}

// HeapEqualitySymbol returns the call symbol for
// `heap_type_equality(a: i32, b: i32, size: i32) -> i32`, which returns 1
// iff the size-byte ranges at a and b match.
func (b *Builder) HeapEqualitySymbol() string {
	b.used[SymHeapEquality] = true
	return SymHeapEquality
}

// GlobalIdx returns the allocator pointer global's index. SetGlobalIdx must
// be called once by the compiler before this is read, after the global has
// been appended to the output module (globals don't shift function index
// spaces, so this alone doesn't need the two-phase symbol dance).
func (b *Builder) GlobalIdx() uint32 { return b.global }

// SetGlobalIdx records the final index assigned to the allocator global.
func (b *Builder) SetGlobalIdx(idx uint32) { b.global = idx }

// DeclareGlobal appends the allocator global to m and records its index.
// Must run before Finalize.
func (b *Builder) DeclareGlobal(m *wasm.Module) {
	idx := uint32(len(m.Globals))
	m.Globals = append(m.Globals, wasm.Global{
		Type: wasm.GlobalType{ValType: wasm.ValI32, Mutable: true},
		Init: wasm.EncodeInstructions([]wasm.Instruction{
			{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: allocatorBase}},
			{Opcode: wasm.OpEnd},
		}),
	})
	b.SetGlobalIdx(idx)
}

// pending describes one helper function awaiting appending to the module:
// its signature and an Emitter for its body, still containing unresolved
// symbolic calls where it calls into hostabi.
type pending struct {
	Name string
	Type wasm.FuncType
	Body *codegen.Emitter
}

// Finalize builds the body of every helper actually used and returns them
// in a stable order, ready for the compiler to append to the module's
// Funcs/Code sections and fold into the global symbol table. It must run
// before hostabi's imports are finalized (building alloc declares
// pay_for_memory_grow) and before any user-defined local function is
// appended.
func (b *Builder) Finalize() ([]pending, error) {
	var out []pending
	if b.used[SymAlloc] {
		body, err := b.buildAlloc()
		if err != nil {
			return nil, err
		}
		out = append(out, pending{
			Name: SymAlloc,
			Type: wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
			Body: body,
		})
	}
	if b.used[SymSwap32] {
		out = append(out, pending{
			Name: SymSwap32,
			Type: wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}},
			Body: buildSwap32(),
		})
	}
	if b.used[SymSwap64] {
		out = append(out, pending{
			Name: SymSwap64,
			Type: wasm.FuncType{Params: []wasm.ValType{wasm.ValI64}, Results: []wasm.ValType{wasm.ValI64}},
			Body: buildSwap64(),
		})
	}
	if b.used[SymHeapEquality] {
		out = append(out, pending{
			Name: SymHeapEquality,
			Type: wasm.FuncType{
				Params:  []wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI32},
				Results: []wasm.ValType{wasm.ValI32},
			},
			Body: buildHeapEquality(),
		})
	}
	return out, nil
}

// Pending is the exported view of a helper awaiting module assembly; the
// compiler package consumes these.
type Pending = pending

// EmitMemCopy copies size bytes from src to dst using the bulk-memory
// memory.copy instruction — the mem-copy helper from §4.2. Unlike the
// other three helpers this needs no wrapper function: memory.copy is a
// single WASM instruction, so "adding it once per module" is free.
func EmitMemCopy(e *codegen.Emitter, dst, src, size *codegen.Emitter) {
	e.Append(dst).Append(src).Append(size).MemoryCopy()
}

// buildAlloc emits the bump allocator: reads the global pointer, computes
// the new pointer, grows memory if the new pointer crosses a page
// boundary, pays for the grow via the host hook, stores the new pointer,
// and returns the old one. Allocations never free (§4.2); consecutive
// calls return strictly increasing, non-overlapping regions (property 6,
// §8).
func (b *Builder) buildAlloc() (*codegen.Emitter, error) {
	const (
		paramSize = 0
		localOld  = 1
		localNew  = 2
	)
	growSymbol, err := b.host.Symbol(hostabi.PayForMemoryGrow)
	if err != nil {
		return nil, err
	}
	e := codegen.NewEmitter()
	e.GlobalGet(b.global).LocalSet(localOld)
	e.LocalGet(localOld).LocalGet(paramSize).EmitRawOpcode(wasm.OpI32Add).LocalSet(localNew)

	// Grow memory one page at a time while the new pointer would exceed
	// the current byte capacity (current_pages << 16), paying gas for
	// each page grown via pay_for_memory_grow.
	e.Loop(wasm.BlockTypeVoid)
	e.LocalGet(localNew)
	e.MemorySize().I32Const(16).EmitRawOpcode(wasm.OpI32Shl)
	e.EmitRawOpcode(wasm.OpI32GtU)
	e.If(wasm.BlockTypeVoid)
	e.I32Const(1).MemoryGrow().Drop()
	e.I32Const(1).CallName(growSymbol)
	e.Br(1)
	e.End()
	e.End()

	e.LocalGet(localNew).GlobalSet(b.global)
	e.LocalGet(localOld)
	return e, nil
}

func buildSwap32() *codegen.Emitter {
	const param = 0
	e := codegen.NewEmitter()
	// ((v >> 24) & 0xFF) | ((v >> 8) & 0xFF00) | ((v << 8) & 0xFF0000) | ((v << 24) & 0xFF000000)
	e.LocalGet(param).I32Const(24).EmitRawOpcode(wasm.OpI32ShrU).I32Const(0xFF).EmitRawOpcode(wasm.OpI32And)
	e.LocalGet(param).I32Const(8).EmitRawOpcode(wasm.OpI32ShrU).I32Const(0xFF00).EmitRawOpcode(wasm.OpI32And)
	e.EmitRawOpcode(wasm.OpI32Or)
	e.LocalGet(param).I32Const(8).EmitRawOpcode(wasm.OpI32Shl).I32Const(0xFF0000).EmitRawOpcode(wasm.OpI32And)
	e.EmitRawOpcode(wasm.OpI32Or)
	e.LocalGet(param).I32Const(24).EmitRawOpcode(wasm.OpI32Shl).I32Const(^0x00FFFFFF).EmitRawOpcode(wasm.OpI32And)
	e.EmitRawOpcode(wasm.OpI32Or)
	return e
}

// buildSwap64 swaps the high and low 32-bit halves independently with
// swap32's bit trick, staging each half through a scratch local (WASM has
// no stack-dup instruction), then recombines them in opposite word order.
func buildSwap64() *codegen.Emitter {
	const (
		param          = 0 // i64
		localLo        = 1 // i32
		localHi        = 2 // i32
		localSwappedLo = 3 // i32
		localSwappedHi = 4 // i32
	)
	e := codegen.NewEmitter()
	e.LocalGet(param).EmitRawOpcode(wasm.OpI32WrapI64).LocalSet(localLo)
	e.LocalGet(param).I64Const(32).EmitRawOpcode(wasm.OpI64ShrU).EmitRawOpcode(wasm.OpI32WrapI64).LocalSet(localHi)
	emitSwap32Local(e, localLo, localSwappedLo)
	emitSwap32Local(e, localHi, localSwappedHi)
	e.LocalGet(localSwappedLo).EmitRawOpcode(wasm.OpI64ExtendI32U).I64Const(32).EmitRawOpcode(wasm.OpI64Shl)
	e.LocalGet(localSwappedHi).EmitRawOpcode(wasm.OpI64ExtendI32U)
	e.EmitRawOpcode(wasm.OpI64Or)
	return e
}

// emitSwap32Local reverses the 4 bytes of the i32 in local src and stores
// the result in local dst.
func emitSwap32Local(e *codegen.Emitter, src, dst uint32) {
	e.LocalGet(src).I32Const(24).EmitRawOpcode(wasm.OpI32ShrU).I32Const(0xFF).EmitRawOpcode(wasm.OpI32And)
	e.LocalGet(src).I32Const(8).EmitRawOpcode(wasm.OpI32ShrU).I32Const(0xFF00).EmitRawOpcode(wasm.OpI32And)
	e.EmitRawOpcode(wasm.OpI32Or)
	e.LocalGet(src).I32Const(8).EmitRawOpcode(wasm.OpI32Shl).I32Const(0xFF0000).EmitRawOpcode(wasm.OpI32And)
	e.EmitRawOpcode(wasm.OpI32Or)
	e.LocalGet(src).I32Const(24).EmitRawOpcode(wasm.OpI32Shl).I32Const(^0x00FFFFFF).EmitRawOpcode(wasm.OpI32And)
	e.EmitRawOpcode(wasm.OpI32Or)
	e.LocalSet(dst)
}

func buildHeapEquality() *codegen.Emitter {
	const (
		paramA    = 0
		paramB    = 1
		paramSize = 2
		localI    = 3
	)
	e := codegen.NewEmitter()
	e.I32Const(0).LocalSet(localI)
	e.Loop(wasm.BlockTypeVoid)
	{
		e.LocalGet(paramA).LocalGet(localI).EmitRawOpcode(wasm.OpI32Add)
		e.I32Load8U(0)
		e.LocalGet(paramB).LocalGet(localI).EmitRawOpcode(wasm.OpI32Add)
		e.I32Load8U(0)
		e.EmitRawOpcode(wasm.OpI32Ne)
		e.If(wasm.BlockTypeVoid)
		{
			e.I32Const(0).Return()
		}
		e.End()
		e.LocalGet(localI).I32Const(1).EmitRawOpcode(wasm.OpI32Add).LocalTee(localI)
		e.LocalGet(paramSize).EmitRawOpcode(wasm.OpI32LtU)
		e.BrIf(0)
	}
	e.End()
	e.I32Const(1)
	return e
}
