// Package modulegraph resolves cross-module type references during
// compilation. It is built in two phases: collect every module's structs,
// enums, and function signatures first, then resolve bodies against the
// completed graph — a cyclic import between two modules is fine as long as
// neither module's body translation needs the other's body.
//
// Context implements intermediate.Resolver so the intermediate package's
// heap-size and equality helpers can look up struct/enum definitions without
// importing modulegraph.
package modulegraph
