package intermediate

// Allocator is the minimal contract C1's constant loaders need from C2: the
// call-symbol name of the bump allocator function, `(size: i32) -> i32`.
// runtimehelpers.Builder implements this.
type Allocator interface {
	AllocSymbol() string
}

// ScalarConst and HeapConst describe a constant value to be loaded. Exactly
// one of the two shapes applies depending on the target type's Kind.
type ScalarConst struct {
	Type  Type
	Value uint64 // widened to 64 bits; truncated/treated per Type on use
}

// HeapConst is a constant heap value: raw bytes in the value's natural
// big-endian-on-wire-but-native-in-memory representation, already sized to
// the type's heap_data_size. IAddress constants must have their first 12
// bytes zero (§4.1); callers must validate this before constructing one.
type HeapConst struct {
	Type  Type
	Bytes []byte
}

// Validate enforces the IAddress zero-padding invariant from §4.1.
func (h HeapConst) Validate() error {
	if _, ok := h.Type.(Address); ok {
		if len(h.Bytes) != 32 {
			return errAddressConstLength(len(h.Bytes))
		}
		for i := 0; i < 12; i++ {
			if h.Bytes[i] != 0 {
				return errAddressConstPadding()
			}
		}
	}
	return nil
}

func errAddressConstLength(n int) error {
	return errf("intermediate: address constant must be 32 bytes, got %d", n)
}

func errAddressConstPadding() error {
	return errf("intermediate: address constant's leading 12 bytes must be zero")
}
