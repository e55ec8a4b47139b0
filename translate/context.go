package translate

import (
	"github.com/movevm/mvb2wasm/abi"
	"github.com/movevm/mvb2wasm/codegen"
	"github.com/movevm/mvb2wasm/hostabi"
	"github.com/movevm/mvb2wasm/modulegraph"
	"github.com/movevm/mvb2wasm/runtimehelpers"
)

// Context carries the state every opcode handler needs: where to emit,
// the compile-time type stack, the local table, and the whole-program
// module graph for cross-module lookups. Grounded on asyncify's handler
// Context (Emit/Stack/Locals), generalized with the extra lookups this
// domain's Call/Pack/Unpack opcodes need.
type Context struct {
	Emit    *codegen.Emitter
	Stack   *TypesStack
	Locals  *Locals
	Graph   *modulegraph.Context
	Host    *hostabi.Registry
	Helpers *runtimehelpers.Builder
	Codec   *abi.Codec

	// Path names the function currently being translated, for error
	// context (module::function).
	Path []string
}

// NewContext wires up a Context for translating one function body.
func NewContext(graph *modulegraph.Context, host *hostabi.Registry, helpers *runtimehelpers.Builder, locals *Locals, path ...string) *Context {
	emit := codegen.NewEmitter()
	return &Context{
		Emit:    emit,
		Stack:   NewTypesStack(),
		Locals:  locals,
		Graph:   graph,
		Host:    host,
		Helpers: helpers,
		Codec:   abi.NewCodec(helpers, locals),
		Path:    path,
	}
}
