package intermediate

import "fmt"

// EnumVariant is one tagged alternative of an EnumDef: an identifier plus
// its fields, laid out the same way a struct's fields are.
type EnumVariant struct {
	Identifier string
	Fields     []Type
}

// FieldOffset returns the byte offset of field index i within this
// variant's payload, which itself starts at byte 4 of the enum's heap
// layout (after the discriminant).
func (v EnumVariant) FieldOffset(i int) uint32 {
	var off uint32
	for j := 0; j < i; j++ {
		off += v.Fields[j].StackSize()
	}
	return off
}

func (v EnumVariant) payloadSize() uint32 {
	var total uint32
	for _, f := range v.Fields {
		total += f.StackSize()
	}
	return total
}

// hasTypeParameter reports whether any field transitively mentions a
// TypeParameter, which defers this variant's (and thus the whole enum's)
// heap size to instantiation time (§3).
func (v EnumVariant) hasTypeParameter() bool {
	for _, f := range v.Fields {
		if mentionsTypeParameter(f) {
			return true
		}
	}
	return false
}

func mentionsTypeParameter(t Type) bool {
	switch v := t.(type) {
	case TypeParameter:
		return true
	case Vector:
		return mentionsTypeParameter(v.Elem)
	case GenericStructInstance:
		for _, a := range v.TypeArgs {
			if mentionsTypeParameter(a) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// EnumDef is a declared enum: a closed set of variants, each identified by
// its index in Variants, which doubles as the runtime discriminant.
type EnumDef struct {
	Module     ModuleID
	Index      uint32
	Identifier string
	Variants   []EnumVariant
	IsSimple   bool
}

// HeapSize returns 4 (the discriminant) plus the maximum over all variants
// of that variant's field footprint (§3's enum layout invariant). ok is
// false iff any variant field mentions a TypeParameter, in which case
// sizing is deferred to instantiation (§3, §9 open question: storing such
// an enum inside a vector element slot before instantiation is rejected by
// the translator, see errors.KindFoundTypeParameterInsideStruct).
func (e *EnumDef) HeapSize(r Resolver) (uint32, bool, error) {
	var max uint32
	for _, v := range e.Variants {
		for _, f := range v.Fields {
			if _, isRef := f.(Ref); isRef {
				return 0, false, fmt.Errorf("intermediate: enum %s variant %s carries a reference field", e.Identifier, v.Identifier)
			}
			if _, isMutRef := f.(MutRef); isMutRef {
				return 0, false, fmt.Errorf("intermediate: enum %s variant %s carries a reference field", e.Identifier, v.Identifier)
			}
		}
		if v.hasTypeParameter() {
			return 0, false, nil
		}
		if size := v.payloadSize(); size > max {
			max = size
		}
	}
	return 4 + max, true, nil
}

// Instantiate substitutes type parameters across every variant's fields,
// mirroring StructDef.Instantiate.
func (e *EnumDef) Instantiate(typeArgs []Type) *EnumDef {
	out := *e
	out.Variants = make([]EnumVariant, len(e.Variants))
	for i, v := range e.Variants {
		fields := make([]Type, len(v.Fields))
		for j, f := range v.Fields {
			fields[j] = substitute(f, typeArgs)
		}
		out.Variants[i] = EnumVariant{Identifier: v.Identifier, Fields: fields}
	}
	return &out
}
