package intermediate

// Type is the canonical type language used throughout translation. Every
// concrete value category the translator ever pushes onto its compile-time
// type stack implements it.
type Type interface {
	Kind() Kind

	// StackSize is how many bytes this value occupies on the compile-time
	// and runtime stack: 4 for every 32-bit scalar and every heap pointer,
	// 8 for IU64.
	StackSize() uint32

	// Equal reports structural equality against another Type.
	Equal(other Type) bool

	String() string
}

// --- 32-bit stack scalars ---

type Bool struct{}

func (Bool) Kind() Kind          { return KindBool }
func (Bool) StackSize() uint32   { return 4 }
func (Bool) String() string      { return "bool" }
func (Bool) Equal(o Type) bool   { _, ok := o.(Bool); return ok }

type U8 struct{}

func (U8) Kind() Kind        { return KindU8 }
func (U8) StackSize() uint32 { return 4 }
func (U8) String() string    { return "u8" }
func (U8) Equal(o Type) bool { _, ok := o.(U8); return ok }

type U16 struct{}

func (U16) Kind() Kind        { return KindU16 }
func (U16) StackSize() uint32 { return 4 }
func (U16) String() string    { return "u16" }
func (U16) Equal(o Type) bool { _, ok := o.(U16); return ok }

type U32 struct{}

func (U32) Kind() Kind        { return KindU32 }
func (U32) StackSize() uint32 { return 4 }
func (U32) String() string    { return "u32" }
func (U32) Equal(o Type) bool { _, ok := o.(U32); return ok }

// --- 64-bit stack scalar ---

type U64 struct{}

func (U64) Kind() Kind        { return KindU64 }
func (U64) StackSize() uint32 { return 8 }
func (U64) String() string    { return "u64" }
func (U64) Equal(o Type) bool { _, ok := o.(U64); return ok }

// --- heap-allocated fixed-size scalars, referenced by i32 pointer ---

type U128 struct{}

func (U128) Kind() Kind          { return KindU128 }
func (U128) StackSize() uint32   { return 4 }
func (U128) HeapDataSize() uint32 { return 16 }
func (U128) String() string      { return "u128" }
func (U128) Equal(o Type) bool   { _, ok := o.(U128); return ok }

type U256 struct{}

func (U256) Kind() Kind          { return KindU256 }
func (U256) StackSize() uint32   { return 4 }
func (U256) HeapDataSize() uint32 { return 32 }
func (U256) String() string      { return "u256" }
func (U256) Equal(o Type) bool   { _, ok := o.(U256); return ok }

// Address is a 32-byte heap value; only the trailing 20 bytes are
// significant, the leading 12 bytes must be zero.
type Address struct{}

func (Address) Kind() Kind          { return KindAddress }
func (Address) StackSize() uint32   { return 4 }
func (Address) HeapDataSize() uint32 { return 32 }
func (Address) String() string      { return "address" }
func (Address) Equal(o Type) bool   { _, ok := o.(Address); return ok }

// Signer is a VM-handled type: it is never constructed by source code, only
// injected (§4.8).
type Signer struct{}

func (Signer) Kind() Kind          { return KindSigner }
func (Signer) StackSize() uint32   { return 4 }
func (Signer) HeapDataSize() uint32 { return 32 }
func (Signer) String() string      { return "signer" }
func (Signer) Equal(o Type) bool   { _, ok := o.(Signer); return ok }

// --- heap-allocated variable-layout types ---

// Vector holds a dynamically sized, dynamically grown element array behind
// an `[len:u32, cap:u32]` header at offset 0 (§4.6).
type Vector struct {
	Elem Type
}

func (Vector) Kind() Kind        { return KindVector }
func (Vector) StackSize() uint32 { return 4 }
func (v Vector) String() string  { return "vector<" + v.Elem.String() + ">" }
func (v Vector) Equal(o Type) bool {
	ov, ok := o.(Vector)
	return ok && v.Elem.Equal(ov.Elem)
}

// Struct references a declared struct by module and index. Its heap layout
// depends on the referenced StructDef's fields and must be resolved through
// a Resolver (see resolver.go); the variant itself only carries identity.
type Struct struct {
	Module ModuleID
	Index  uint32
}

func (Struct) Kind() Kind        { return KindStruct }
func (Struct) StackSize() uint32 { return 4 }
func (s Struct) String() string  { return s.Module.String() + "#" + itoa(s.Index) }
func (s Struct) Equal(o Type) bool {
	os, ok := o.(Struct)
	return ok && s.Module.Equal(os.Module) && s.Index == os.Index
}

// Enum references a declared enum by module and index, same identity-only
// shape as Struct.
type Enum struct {
	Module ModuleID
	Index  uint32
}

func (Enum) Kind() Kind        { return KindEnum }
func (Enum) StackSize() uint32 { return 4 }
func (e Enum) String() string  { return e.Module.String() + "#" + itoa(e.Index) }
func (e Enum) Equal(o Type) bool {
	oe, ok := o.(Enum)
	return ok && e.Module.Equal(oe.Module) && e.Index == oe.Index
}

// GenericStructInstance names a struct parameterized by concrete type
// arguments. Every type_arg must itself be concrete (invariant 3, §3).
type GenericStructInstance struct {
	Module   ModuleID
	Index    uint32
	TypeArgs []Type
}

func (GenericStructInstance) Kind() Kind        { return KindGenericStructInstance }
func (GenericStructInstance) StackSize() uint32 { return 4 }
func (g GenericStructInstance) String() string {
	s := g.Module.String() + "#" + itoa(g.Index) + "<"
	for i, t := range g.TypeArgs {
		if i > 0 {
			s += ","
		}
		s += t.String()
	}
	return s + ">"
}
func (g GenericStructInstance) Equal(o Type) bool {
	og, ok := o.(GenericStructInstance)
	if !ok || !g.Module.Equal(og.Module) || g.Index != og.Index || len(g.TypeArgs) != len(og.TypeArgs) {
		return false
	}
	for i := range g.TypeArgs {
		if !g.TypeArgs[i].Equal(og.TypeArgs[i]) {
			return false
		}
	}
	return true
}

// --- compile-time-only constructs: never materialized at runtime ---

type Ref struct{ Inner Type }

func (Ref) Kind() Kind        { return KindRef }
func (Ref) StackSize() uint32 { return 4 }
func (r Ref) String() string  { return "&" + r.Inner.String() }
func (r Ref) Equal(o Type) bool {
	or, ok := o.(Ref)
	return ok && r.Inner.Equal(or.Inner)
}

type MutRef struct{ Inner Type }

func (MutRef) Kind() Kind        { return KindMutRef }
func (MutRef) StackSize() uint32 { return 4 }
func (r MutRef) String() string  { return "&mut " + r.Inner.String() }
func (r MutRef) Equal(o Type) bool {
	or, ok := o.(MutRef)
	return ok && r.Inner.Equal(or.Inner)
}

// TypeParameter is an unresolved generic slot, identified by its declared
// index. It must never reach a public-function boundary or a struct/enum
// layout computation (invariant 1, §3).
type TypeParameter struct{ Index uint16 }

func (TypeParameter) Kind() Kind        { return KindTypeParameter }
func (TypeParameter) StackSize() uint32 { return 4 }
func (t TypeParameter) String() string  { return "T" + itoa(uint32(t.Index)) }
func (t TypeParameter) Equal(o Type) bool {
	ot, ok := o.(TypeParameter)
	return ok && t.Index == ot.Index
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
