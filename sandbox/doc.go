// Package sandbox hosts a compiled module against an in-memory vm_hooks
// fixture for this repo's own end-to-end tests. It is not part of the
// compiler pipeline and never runs in production: the real host is always
// out of scope here, named only as the thing §4.3's imports assume exists.
package sandbox
