package modulegraph

import (
	"github.com/movevm/mvb2wasm/errors"
	"github.com/movevm/mvb2wasm/intermediate"
)

// FunctionDef is a declared function's signature, visible cross-module so
// call sites can type-check and select the right entry point without
// re-reading the callee's body.
type FunctionDef struct {
	Module         intermediate.ModuleID
	Index          uint32
	Identifier     string
	TypeParameters uint8
	Params         []intermediate.Type
	Results        []intermediate.Type
}

// Module is one compiled unit's full declaration surface: every struct,
// enum, and function signature it exports, indexed by its declaration
// order (matching how the bytecode references them, by index).
type Module struct {
	ID        intermediate.ModuleID
	Structs   []*intermediate.StructDef
	Enums     []*intermediate.EnumDef
	Functions []*FunctionDef
}

// Context is the whole-program module graph, built by collecting every
// module's declarations before any body is translated (phase one), then
// consulted during translation for cross-module lookups (phase two). It
// implements intermediate.Resolver.
type Context struct {
	modules        map[intermediate.ModuleID]*Module
	instantiations map[string]uint32
}

// NewContext returns an empty Context ready for modules to be added.
func NewContext() *Context {
	return &Context{
		modules:        make(map[intermediate.ModuleID]*Module),
		instantiations: make(map[string]uint32),
	}
}

// AddModule registers m's declarations. Call this for every module in the
// package graph before translating any function body.
func (c *Context) AddModule(m *Module) {
	c.modules[m.ID] = m
}

// ModuleByID looks up a module by its address+name identity. A missing
// dependency is fatal: there is no silent fallback (§7).
func (c *Context) ModuleByID(id intermediate.ModuleID) (*Module, error) {
	m, ok := c.modules[id]
	if !ok {
		return nil, errors.ModuleNotFound(id.String())
	}
	return m, nil
}

// StructDef satisfies intermediate.Resolver.
func (c *Context) StructDef(module intermediate.ModuleID, index uint32) (*intermediate.StructDef, error) {
	return c.StructByIndex(module, index)
}

// EnumDef satisfies intermediate.Resolver.
func (c *Context) EnumDef(module intermediate.ModuleID, index uint32) (*intermediate.EnumDef, error) {
	return c.EnumByIndex(module, index)
}

// StructByIndex resolves a struct declared in module at the given
// declaration index.
func (c *Context) StructByIndex(module intermediate.ModuleID, index uint32) (*intermediate.StructDef, error) {
	m, err := c.ModuleByID(module)
	if err != nil {
		return nil, err
	}
	if int(index) >= len(m.Structs) {
		return nil, errors.StructNotFound(module.String(), itoa(index))
	}
	return m.Structs[index], nil
}

// EnumByIndex resolves an enum declared in module at the given declaration
// index.
func (c *Context) EnumByIndex(module intermediate.ModuleID, index uint32) (*intermediate.EnumDef, error) {
	m, err := c.ModuleByID(module)
	if err != nil {
		return nil, err
	}
	if int(index) >= len(m.Enums) {
		return nil, errors.EnumNotFound(module.String(), itoa(index))
	}
	return m.Enums[index], nil
}

// StructByIntermediateType resolves the StructDef a Struct or
// GenericStructInstance type tag refers to, instantiating it against the
// tag's type arguments when present.
func (c *Context) StructByIntermediateType(t intermediate.Type) (*intermediate.StructDef, error) {
	switch v := t.(type) {
	case intermediate.Struct:
		return c.StructByIndex(v.Module, v.Index)
	case intermediate.GenericStructInstance:
		def, err := c.StructByIndex(v.Module, v.Index)
		if err != nil {
			return nil, err
		}
		return def.Instantiate(v.TypeArgs)
	default:
		return nil, errors.ExpectedStruct(t.String())
	}
}

// EnumByIntermediateType resolves the EnumDef an Enum type tag refers to.
// Enums, unlike structs, never carry type arguments directly on the tag
// (generic enum instantiation is always mediated through a GenericStructInstance
// wrapper type per §3); callers needing an instantiated enum go through
// FunctionSignature/StructByIntermediateType first.
func (c *Context) EnumByIntermediateType(t intermediate.Type) (*intermediate.EnumDef, error) {
	v, ok := t.(intermediate.Enum)
	if !ok {
		return nil, errors.New(errors.PhaseContext, errors.KindEnumNotFound).
			Path(t.String()).Detail("not an enum type").Build()
	}
	return c.EnumByIndex(v.Module, v.Index)
}

// FunctionSignature resolves a function's declared signature by module and
// declaration index, used when translating a cross-module Call opcode.
func (c *Context) FunctionSignature(module intermediate.ModuleID, index uint32) (*FunctionDef, error) {
	m, err := c.ModuleByID(module)
	if err != nil {
		return nil, err
	}
	if int(index) >= len(m.Functions) {
		return nil, errors.SignatureNotFound(module.String(), itoa(index))
	}
	return m.Functions[index], nil
}

// FuncIndexForInstantiation returns the final WASM function index already
// emitted for a monomorphized instantiation, keyed by
// intermediate.MangledName, if one has been emitted already. Mirrors the
// dedup-by-key pattern the teacher uses for AddType (wasm/types.go): the
// first caller to need a given instantiation emits it, every later caller
// reuses the same function.
func (c *Context) FuncIndexForInstantiation(mangled string) (uint32, bool) {
	idx, ok := c.instantiations[mangled]
	return idx, ok
}

// RecordInstantiation records the function index emitted for a given
// monomorphized instantiation key, so later callers can reuse it.
func (c *Context) RecordInstantiation(mangled string, idx uint32) {
	c.instantiations[mangled] = idx
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
