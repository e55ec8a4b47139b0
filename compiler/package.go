package compiler

import (
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/translate"
)

// Instr is a single MVB instruction, re-exported so package.go's callers
// never need to import translate just to build a FunctionSource.
type Instr = translate.Instr

// FunctionSource is one declared function as handed to the compiler: its
// signature (shared with modulegraph.FunctionDef) plus its MVB body and
// declared local slots. The package-discovery collaborator that produces
// this is out of scope (§1); Compile only requires that its output
// satisfy §3's invariants.
type FunctionSource struct {
	Identifier     string
	TypeParameters uint8
	Params         []intermediate.Type
	Results        []intermediate.Type

	// Locals lists every source local's declared type, params first, in
	// the same order the bytecode's local-slot indices expect.
	Locals []intermediate.Type

	// Body is the function's translated-one-instruction-at-a-time MVB
	// bytecode.
	Body []Instr

	// IsPublic marks a function reachable from user_entrypoint (has a
	// computable selector, §4.5). IsInit marks the one public function,
	// if any, run exactly once and guarded by the storage flag (§4.7).
	IsPublic bool
	IsInit   bool
}

// ModuleData is one compiled unit's full source: its structs, enums, and
// function bodies, keyed by declaration order the same way modulegraph.Module
// is.
type ModuleData struct {
	ID        intermediate.ModuleID
	Structs   []*intermediate.StructDef
	Enums     []*intermediate.EnumDef
	Functions []FunctionSource
}

// Package is the whole compilation unit: a root module plus every module
// it depends on, matching spec.md §6's input contract.
type Package struct {
	Modules []ModuleData
}
