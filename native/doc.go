// Package native builds the small set of functions every compiled module
// gets for free: wrappers around host transaction-context imports
// (native_sender, native_msg_value, native_block_basefee, native_gas_price),
// one emit<T> per concrete struct type actually logged, and the
// compile-time fold for is_one_time_witness<T> (§4.8). It also owns
// recognizing and injecting the VM-handled types — Signer, TxContext, UID —
// that the framework provides rather than user code constructing them.
package native
