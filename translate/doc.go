// Package translate lowers one MVB function body into a WASM function
// body: a straight walk over the function's opcodes, each one appended to
// a codegen.Emitter while a compile-time TypesStack mirrors what the
// runtime stack would hold at that point.
//
// The dispatch shape is grounded on the teacher's asyncify opcode-handler
// registry (asyncify/internal/handler/registry.go): a [256]Handler table
// keyed by opcode, a Context carrying the emitter/stack/locals, and
// Func-as-Handler adapters for simple cases.
package translate
