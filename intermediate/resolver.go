package intermediate

// Resolver looks up the struct and enum definitions referenced by a Struct,
// Enum, or GenericStructInstance type tag. modulegraph.Context implements
// this interface; intermediate never imports modulegraph to avoid a cycle.
type Resolver interface {
	StructDef(module ModuleID, index uint32) (*StructDef, error)
	EnumDef(module ModuleID, index uint32) (*EnumDef, error)
}

// HeapSize computes the heap-allocated size of a Type, resolving struct and
// enum field layouts through r. Scalar stack-only kinds (Bool..U32, U64)
// have no heap representation and return ok=false. Types whose heap size is
// deferred until generic instantiation (an enum with a type-parameter field)
// also return ok=false with a nil error; this is not a failure, it is the
// heap_size=None case from §3.
func HeapSize(t Type, r Resolver) (size uint32, ok bool, err error) {
	switch v := t.(type) {
	case Bool, U8, U16, U32, U64:
		return 0, false, nil
	case U128:
		return v.HeapDataSize(), true, nil
	case U256:
		return v.HeapDataSize(), true, nil
	case Address:
		return v.HeapDataSize(), true, nil
	case Signer:
		return v.HeapDataSize(), true, nil
	case Vector:
		// A vector's own heap footprint is its header plus occupied
		// elements, which is a runtime quantity, not a static layout
		// fact; the static type carries no fixed heap size.
		return 0, false, nil
	case Struct:
		def, err := r.StructDef(v.Module, v.Index)
		if err != nil {
			return 0, false, err
		}
		size, err := def.HeapSize(r)
		if err != nil {
			return 0, false, err
		}
		return size, true, nil
	case Enum:
		def, err := r.EnumDef(v.Module, v.Index)
		if err != nil {
			return 0, false, err
		}
		return def.HeapSize(r)
	case GenericStructInstance:
		def, err := r.StructDef(v.Module, v.Index)
		if err != nil {
			return 0, false, err
		}
		inst, err := def.Instantiate(v.TypeArgs)
		if err != nil {
			return 0, false, err
		}
		size, err := inst.HeapSize(r)
		if err != nil {
			return 0, false, err
		}
		return size, true, nil
	case Ref, MutRef, TypeParameter:
		return 0, false, nil
	default:
		return 0, false, nil
	}
}
