// Package hostabi declares the closed set of host functions imported from
// the `vm_hooks` module (§4.3): gas accounting, calldata read/write,
// logging, and the fixed tx/block accessors. Each import is declared the
// first time it is requested and reused by name thereafter; a package that
// never emits a log never pays for the emit_log import.
package hostabi
