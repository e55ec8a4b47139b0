package intermediate

// EqualityStrategy tags how two values of a given Type should be compared.
type EqualityStrategy uint8

const (
	// EqualityI32 compares two i32 stack values with i32.eq.
	EqualityI32 EqualityStrategy = iota
	// EqualityI64 compares two i64 stack values with i64.eq.
	EqualityI64
	// EqualityHeapBytes compares two heap pointers byte-for-byte over a
	// statically known size, via C2's heap_type_equality(size) routine.
	EqualityHeapBytes
)

// Equality reports which comparison strategy applies to t and, for the
// EqualityHeapBytes case, the static byte size to compare. Heap-allocated
// types with a runtime-variable size (Vector) are never compared this way
// at the type-stack level — vector equality, if ever needed, is a
// native/library concern, not a C1 primitive.
func Equality(t Type, r Resolver) (EqualityStrategy, uint32, error) {
	switch t.(type) {
	case Bool, U8, U16, U32:
		return EqualityI32, 0, nil
	case U64:
		return EqualityI64, 0, nil
	default:
		size, ok, err := HeapSize(t, r)
		if err != nil {
			return 0, 0, err
		}
		if !ok {
			return 0, 0, errf("intermediate: %s has no statically known equality size", t)
		}
		return EqualityHeapBytes, size, nil
	}
}
