// Package compiler is the top-level orchestrator: it wires the module
// graph (C4), the bytecode translator (C6), the dispatcher (C7), and the
// native/VM-handled-type layer (C8) together, then assembles and encodes
// the final wasm.Module. Compile is the single entry point; everything
// else in this package exists to support it.
package compiler
