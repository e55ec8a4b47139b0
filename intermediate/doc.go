// Package intermediate implements the canonical type language used
// throughout translation: the tagged variant that bridges the source
// stack machine's type system with WASM's four value types and a single
// byte-addressed linear memory.
//
// Every variant reports a stack_data_size (how many bytes it occupies on
// the compile-time/runtime stack: 4 for everything except IU64, which is
// 8) and, for heap-allocated variants, a heap_data_size (how many bytes it
// occupies once materialized in linear memory). Compile-time-only
// constructs (references, type parameters) report neither a heap size nor
// runtime materialization and must never reach a public-function boundary.
package intermediate
