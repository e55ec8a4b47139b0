// Package abi generates WASM instruction sequences that translate between
// the host's 32-byte-word wire encoding and this compiler's in-memory heap
// representation, and computes Keccak-256 function selectors.
//
// Unlike a typical encoding library, Pack/Unpack here don't move bytes
// themselves — they *emit code* that will move the bytes when the compiled
// module runs. Every entry point takes a codegen.Emitter and appends to it.
package abi
