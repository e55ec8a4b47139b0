package native

import (
	"github.com/movevm/mvb2wasm/errors"
	"github.com/movevm/mvb2wasm/intermediate"
)

// Reserved identifiers for the struct-shaped VM-handled types. Signer has
// no originating module to validate — it is a primitive intermediate.Type
// tag, never a user-declared struct — so only these two need the check.
// TxContext's reserved home is intermediate.TxContextModule (the zero
// address, §3); UID's is intermediate.FrameworkAddress under the "object"
// module name.
const (
	TxContextIdentifier = "TxContext"
	UIDIdentifier       = "UID"
	uidModuleName       = "object"
)

// ValidateVMHandledType enforces that any struct named TxContext or UID,
// anywhere in the compiled package, originates from its one reserved
// module. A same-named struct from any other module is a fatal design
// violation (§7): the collision is never treated as shadowing or silently
// ignored, it aborts compilation outright, the same way the teacher's
// compiler rejects invalid WIT rather than guessing intent. Called once per
// declared struct during module-graph collection, before any function body
// is translated.
func ValidateVMHandledType(id intermediate.ModuleID, identifier string) error {
	switch identifier {
	case TxContextIdentifier:
		if !id.Equal(intermediate.TxContextModule) {
			return errors.InvalidVMHandledType(identifier, id.String())
		}
	case UIDIdentifier:
		if !id.IsFrameworkAddress() || id.Name != uidModuleName {
			return errors.InvalidVMHandledType(identifier, id.String())
		}
	}
	return nil
}
