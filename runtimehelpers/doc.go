// Package runtimehelpers implements the small set of WASM functions every
// emitted module needs regardless of what it computes: a bump allocator,
// 32/64-bit endianness byte-swap routines, and a generic byte-range
// equality check. Each helper is added to the output module lazily, on
// first use, and memoized by name so a module that never needs
// swap_i64_bytes never pays for it.
package runtimehelpers
