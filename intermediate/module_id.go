package intermediate

import "fmt"

// ModuleID names a compiled module: a 32-byte framework/package address
// plus its declared name. It is comparable and usable directly as a map
// key since arrays (unlike slices) support ==.
type ModuleID struct {
	Address [32]byte
	Name    string
}

// FrameworkAddress is the reserved address hosting Signer, TxContext, and
// UID. Any struct with one of those identifiers declared at a different
// address is a fatal compile-time error (§4.8).
var FrameworkAddress = [32]byte{31: 0x01}

// TxContextModule is the reserved zero-based module hosting tx_context.
var TxContextModule = ModuleID{Address: [32]byte{}, Name: "tx_context"}

func (m ModuleID) String() string {
	return fmt.Sprintf("%x::%s", m.Address[:], m.Name)
}

// Equal reports structural equality, matching the tagged-value-equality
// contract that every intermediate.Type variant also carries.
func (m ModuleID) Equal(other ModuleID) bool {
	return m.Address == other.Address && m.Name == other.Name
}

// IsFrameworkAddress reports whether this module lives at the reserved
// framework address that may declare Signer, TxContext, and UID.
func (m ModuleID) IsFrameworkAddress() bool {
	return m.Address == FrameworkAddress
}
