package translate

import "github.com/movevm/mvb2wasm/intermediate"

// Op identifies one MVB opcode family member. The concrete values are this
// compiler's own numbering — the upstream bytecode format is out of scope
// (§1); whatever parser produces Instr values only needs to agree with
// this numbering.
type Op uint8

const (
	OpNop Op = iota

	// Constants.
	OpLoadConst

	// Locals.
	OpLocalLoad
	OpLocalStore
	OpLocalMove
	OpLocalCopy

	// Integer arithmetic / comparison / bitwise.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNeq
	OpNot

	// Control flow.
	OpBranch
	OpBranchIf
	OpLoopStart
	OpLoopEnd
	OpReturn
	OpAbort

	// Struct / enum.
	OpPack
	OpUnpack
	OpPackVariant
	OpUnpackVariant
	OpVariantSwitch

	// Calls.
	OpCall
	OpCallGeneric

	// Vectors.
	OpVecPack
	OpVecLen
	OpVecImmBorrow
	OpVecMutBorrow
	OpVecPushBack
	OpVecPopBack
	OpVecUnpack
	OpVecSwap

	// References.
	OpReadRef
	OpWriteRef
	OpFreezeRef
	OpMutBorrowField
	OpImmBorrowField
)

// StructRef identifies a declared struct by module and declaration index.
type StructRef struct {
	Module intermediate.ModuleID
	Index  uint32
}

// EnumRef identifies a declared enum by module and declaration index.
type EnumRef struct {
	Module intermediate.ModuleID
	Index  uint32
}

// FuncRef identifies a declared function by module and declaration index.
type FuncRef struct {
	Module intermediate.ModuleID
	Index  uint32
}

// Instr is one MVB instruction. Only the fields relevant to Op are
// populated; the rest are zero. This is a flat struct rather than a tagged
// union because every field is small and the format has no nesting beyond
// TypeArgs.
type Instr struct {
	Op Op

	Local uint32 // OpLocalLoad/Store/Move/Copy, OpMutBorrowField/ImmBorrowField (field index)

	Scalar    *intermediate.ScalarConst // OpLoadConst, scalar case
	Heap      *intermediate.HeapConst   // OpLoadConst, heap case
	FieldType intermediate.Type         // OpVecPack: element type

	Targets []uint32 // OpBranch (1), OpBranchIf (1), OpVariantSwitch (N)

	Struct  StructRef
	Enum    EnumRef
	Variant uint32 // OpPackVariant/UnpackVariant: variant index

	Func     FuncRef
	TypeArgs []intermediate.Type // OpCallGeneric

	FieldCount int // OpPack/Unpack: number of fields (redundant with struct def, checked against it)
}
