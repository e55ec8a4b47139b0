package intermediate

// StructDef is a declared struct: its fields in declaration order, plus the
// metadata native evaluation needs (identifier, type-parameter count, and
// whether it satisfies the one-time-witness predicate).
type StructDef struct {
	Module           ModuleID
	Index            uint32
	Identifier       string
	Fields           []Type
	IsOneTimeWitness bool
	TypeParameters   uint8
}

// HeapSize sums the stack-sized footprint of every field in declaration
// order: scalar fields occupy their natural stack size, heap-ref fields
// occupy 4 bytes (a pointer), matching §3's "fields concatenated in
// declaration order" layout rule.
func (s *StructDef) HeapSize(r Resolver) (uint32, error) {
	var total uint32
	for _, f := range s.Fields {
		total += f.StackSize()
	}
	return total, nil
}

// FieldOffset returns the byte offset of field index i within the struct's
// heap layout.
func (s *StructDef) FieldOffset(i int) uint32 {
	var off uint32
	for j := 0; j < i; j++ {
		off += s.Fields[j].StackSize()
	}
	return off
}

// Instantiate substitutes every TypeParameter(k) field with typeArgs[k],
// recursively, returning a fresh non-generic StructDef. Per invariant 3
// (§3), len(typeArgs) must equal s.TypeParameters and every argument must
// be concrete.
func (s *StructDef) Instantiate(typeArgs []Type) (*StructDef, error) {
	if int(s.TypeParameters) != len(typeArgs) {
		return nil, errWrongArgCount(s.Identifier, int(s.TypeParameters), len(typeArgs))
	}
	for _, a := range typeArgs {
		if !a.Kind().IsConcrete() {
			return nil, errNonConcreteTypeArg(s.Identifier, a)
		}
	}
	fields := make([]Type, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = substitute(f, typeArgs)
	}
	out := *s
	out.Fields = fields
	return &out, nil
}

// Substitute resolves t against typeArgs the same way a generic struct's
// field types are resolved during instantiation — exported so callers
// monomorphizing a generic function's declared parameter/result types can
// reuse the identical substitution rule.
func Substitute(t Type, typeArgs []Type) Type {
	return substitute(t, typeArgs)
}

func substitute(t Type, typeArgs []Type) Type {
	switch v := t.(type) {
	case TypeParameter:
		if int(v.Index) < len(typeArgs) {
			return typeArgs[v.Index]
		}
		return v
	case Vector:
		return Vector{Elem: substitute(v.Elem, typeArgs)}
	case Ref:
		return Ref{Inner: substitute(v.Inner, typeArgs)}
	case MutRef:
		return MutRef{Inner: substitute(v.Inner, typeArgs)}
	case GenericStructInstance:
		args := make([]Type, len(v.TypeArgs))
		for i, a := range v.TypeArgs {
			args[i] = substitute(a, typeArgs)
		}
		return GenericStructInstance{Module: v.Module, Index: v.Index, TypeArgs: args}
	default:
		return t
	}
}

// MangledName returns the instantiation key used to dedupe emitted
// monomorphized functions, keyed by name + type-argument mangling (§9).
func MangledName(base string, typeArgs []Type) string {
	name := base
	for _, a := range typeArgs {
		name += "$" + a.String()
	}
	return name
}
