// Package codegen provides a small fluent builder for WASM instruction
// sequences, shared by every component that lowers something into WASM
// bytecode (runtime helpers, the ABI codec, the bytecode translator, the
// dispatcher).
//
// Function indices for host imports, runtime helpers, and other emitted
// functions are not known while a function body is being built: imports
// must all be declared before any local function's absolute index is
// fixed, and many bodies are built concurrently with the helpers they call
// into. Rather than thread a fully-populated name->index table through
// every emitter call, a call site names its target and the Emitter defers
// resolution: Call sites use CallName, and Resolve replaces every
// symbolic call with a concrete wasm.CallImm once the whole module's
// function index space is final.
package codegen

import "github.com/movevm/mvb2wasm/wasm"

// Emitter accumulates a sequence of instructions. Every method returns the
// receiver so calls chain: e.LocalGet(0).LocalGet(1).EmitRawOpcode(wasm.OpI32Add).LocalSet(2).
type Emitter struct {
	instrs []instr
}

// instr is either a concrete WASM instruction or a symbolic call awaiting
// resolution.
type instr struct {
	wasm   *wasm.Instruction
	symbol string
}

// NewEmitter returns an empty Emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Len reports how many instructions have been emitted so far.
func (e *Emitter) Len() int {
	return len(e.instrs)
}

// Append adds another emitter's instructions to this one and returns the
// receiver.
func (e *Emitter) Append(other *Emitter) *Emitter {
	e.instrs = append(e.instrs, other.instrs...)
	return e
}

// Raw appends a fully formed instruction.
func (e *Emitter) Raw(in wasm.Instruction) *Emitter {
	e.instrs = append(e.instrs, instr{wasm: &in})
	return e
}

// EmitRawOpcode appends a no-immediate instruction by opcode byte. Used for
// arithmetic, comparison, and bitwise ops that carry no immediate.
func (e *Emitter) EmitRawOpcode(op byte) *Emitter {
	return e.Raw(wasm.Instruction{Opcode: op})
}

// CallName appends a call to a function identified by name rather than
// index. Resolve must be called (by the top-level compiler, once every
// function's final index is known) before the module is encoded.
func (e *Emitter) CallName(name string) *Emitter {
	e.instrs = append(e.instrs, instr{symbol: name})
	return e
}

// Resolve replaces every symbolic call with a concrete call instruction,
// looking each name up via resolve. It is an error for a name to be
// unresolvable; that indicates a helper or host import was referenced but
// never declared.
func (e *Emitter) Resolve(resolve func(name string) (uint32, bool)) error {
	for i, in := range e.instrs {
		if in.symbol == "" {
			continue
		}
		idx, ok := resolve(in.symbol)
		if !ok {
			return errUnresolvedSymbol(in.symbol)
		}
		concrete := wasm.Instruction{Opcode: wasm.OpCall, Imm: wasm.CallImm{FuncIdx: idx}}
		e.instrs[i] = instr{wasm: &concrete}
	}
	return nil
}

// Instructions returns the accumulated instruction sequence. Panics if any
// symbolic call has not yet been resolved; callers must call Resolve first.
func (e *Emitter) Instructions() []wasm.Instruction {
	out := make([]wasm.Instruction, len(e.instrs))
	for i, in := range e.instrs {
		if in.wasm == nil {
			panic("codegen: unresolved symbolic call " + in.symbol)
		}
		out[i] = *in.wasm
	}
	return out
}

// Code encodes the accumulated instructions and appends a trailing `end`,
// matching wasm.FuncBody.Code's documented "raw code bytes including end
// opcode" contract.
func (e *Emitter) Code() []byte {
	withEnd := append(e.Instructions(), wasm.Instruction{Opcode: wasm.OpEnd})
	return wasm.EncodeInstructions(withEnd)
}

// Control flow.

func (e *Emitter) Unreachable() *Emitter { return e.EmitRawOpcode(wasm.OpUnreachable) }
func (e *Emitter) Nop() *Emitter         { return e.EmitRawOpcode(wasm.OpNop) }
func (e *Emitter) Drop() *Emitter        { return e.EmitRawOpcode(wasm.OpDrop) }
func (e *Emitter) Return() *Emitter      { return e.EmitRawOpcode(wasm.OpReturn) }

func (e *Emitter) Block(blockType int32) *Emitter {
	return e.Raw(wasm.Instruction{Opcode: wasm.OpBlock, Imm: wasm.BlockImm{Type: blockType}})
}

func (e *Emitter) Loop(blockType int32) *Emitter {
	return e.Raw(wasm.Instruction{Opcode: wasm.OpLoop, Imm: wasm.BlockImm{Type: blockType}})
}

func (e *Emitter) If(blockType int32) *Emitter {
	return e.Raw(wasm.Instruction{Opcode: wasm.OpIf, Imm: wasm.BlockImm{Type: blockType}})
}

func (e *Emitter) Else() *Emitter { return e.EmitRawOpcode(wasm.OpElse) }
func (e *Emitter) End() *Emitter  { return e.EmitRawOpcode(wasm.OpEnd) }

func (e *Emitter) Br(labelIdx uint32) *Emitter {
	return e.Raw(wasm.Instruction{Opcode: wasm.OpBr, Imm: wasm.BranchImm{LabelIdx: labelIdx}})
}

func (e *Emitter) BrIf(labelIdx uint32) *Emitter {
	return e.Raw(wasm.Instruction{Opcode: wasm.OpBrIf, Imm: wasm.BranchImm{LabelIdx: labelIdx}})
}

func (e *Emitter) BrTable(labels []uint32, def uint32) *Emitter {
	return e.Raw(wasm.Instruction{Opcode: wasm.OpBrTable, Imm: wasm.BrTableImm{Labels: labels, Default: def}})
}

// Locals and globals.

func (e *Emitter) LocalGet(idx uint32) *Emitter {
	return e.Raw(wasm.Instruction{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: idx}})
}

func (e *Emitter) LocalSet(idx uint32) *Emitter {
	return e.Raw(wasm.Instruction{Opcode: wasm.OpLocalSet, Imm: wasm.LocalImm{LocalIdx: idx}})
}

func (e *Emitter) LocalTee(idx uint32) *Emitter {
	return e.Raw(wasm.Instruction{Opcode: wasm.OpLocalTee, Imm: wasm.LocalImm{LocalIdx: idx}})
}

func (e *Emitter) GlobalGet(idx uint32) *Emitter {
	return e.Raw(wasm.Instruction{Opcode: wasm.OpGlobalGet, Imm: wasm.GlobalImm{GlobalIdx: idx}})
}

func (e *Emitter) GlobalSet(idx uint32) *Emitter {
	return e.Raw(wasm.Instruction{Opcode: wasm.OpGlobalSet, Imm: wasm.GlobalImm{GlobalIdx: idx}})
}

// Constants.

func (e *Emitter) I32Const(v int32) *Emitter {
	return e.Raw(wasm.Instruction{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: v}})
}

func (e *Emitter) I64Const(v int64) *Emitter {
	return e.Raw(wasm.Instruction{Opcode: wasm.OpI64Const, Imm: wasm.I64Imm{Value: v}})
}

// Memory.

func (e *Emitter) load(op byte, align uint32, offset uint64) *Emitter {
	return e.Raw(wasm.Instruction{Opcode: op, Imm: wasm.MemoryImm{Align: align, Offset: offset}})
}

func (e *Emitter) I32Load(offset uint64) *Emitter    { return e.load(wasm.OpI32Load, 2, offset) }
func (e *Emitter) I64Load(offset uint64) *Emitter    { return e.load(wasm.OpI64Load, 3, offset) }
func (e *Emitter) I32Load8U(offset uint64) *Emitter  { return e.load(wasm.OpI32Load8U, 0, offset) }
func (e *Emitter) I32Load8S(offset uint64) *Emitter  { return e.load(wasm.OpI32Load8S, 0, offset) }
func (e *Emitter) I32Load16U(offset uint64) *Emitter { return e.load(wasm.OpI32Load16U, 1, offset) }

func (e *Emitter) I32Store(offset uint64) *Emitter   { return e.load(wasm.OpI32Store, 2, offset) }
func (e *Emitter) I64Store(offset uint64) *Emitter   { return e.load(wasm.OpI64Store, 3, offset) }
func (e *Emitter) I32Store8(offset uint64) *Emitter  { return e.load(wasm.OpI32Store8, 0, offset) }
func (e *Emitter) I32Store16(offset uint64) *Emitter { return e.load(wasm.OpI32Store16, 1, offset) }

func (e *Emitter) MemoryGrow() *Emitter {
	return e.Raw(wasm.Instruction{Opcode: wasm.OpMemoryGrow, Imm: wasm.MemoryIdxImm{}})
}

func (e *Emitter) MemorySize() *Emitter {
	return e.Raw(wasm.Instruction{Opcode: wasm.OpMemorySize, Imm: wasm.MemoryIdxImm{}})
}

// MemoryCopy emits the bulk-memory `memory.copy` instruction: pops
// (dst, src, size) and copies size bytes from src to dst.
func (e *Emitter) MemoryCopy() *Emitter {
	return e.Raw(wasm.Instruction{
		Opcode: wasm.OpPrefixMisc,
		Imm:    wasm.MiscImm{SubOpcode: wasm.MiscMemoryCopy, Operands: []uint32{0, 0}},
	})
}

// MemoryFill emits the bulk-memory `memory.fill` instruction: pops
// (dst, value, size).
func (e *Emitter) MemoryFill() *Emitter {
	return e.Raw(wasm.Instruction{
		Opcode: wasm.OpPrefixMisc,
		Imm:    wasm.MiscImm{SubOpcode: wasm.MiscMemoryFill, Operands: []uint32{0}},
	})
}

func errUnresolvedSymbol(name string) error {
	return &unresolvedSymbolError{name: name}
}

type unresolvedSymbolError struct{ name string }

func (e *unresolvedSymbolError) Error() string {
	return "codegen: unresolved call symbol " + e.name
}
