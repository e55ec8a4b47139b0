package compiler

import (
	"encoding/gob"

	"github.com/movevm/mvb2wasm/intermediate"
)

// gob needs every concrete type that can occupy an intermediate.Type
// interface field registered up front, since Package/ModuleData/
// FunctionSource all carry such fields and cmd/mvb2wasm's -pkg fixture
// format is plain gob (§6).
func init() {
	gob.Register(intermediate.Bool{})
	gob.Register(intermediate.U8{})
	gob.Register(intermediate.U16{})
	gob.Register(intermediate.U32{})
	gob.Register(intermediate.U64{})
	gob.Register(intermediate.U128{})
	gob.Register(intermediate.U256{})
	gob.Register(intermediate.Address{})
	gob.Register(intermediate.Signer{})
	gob.Register(intermediate.Vector{})
	gob.Register(intermediate.Struct{})
	gob.Register(intermediate.Enum{})
	gob.Register(intermediate.GenericStructInstance{})
	gob.Register(intermediate.Ref{})
	gob.Register(intermediate.MutRef{})
	gob.Register(intermediate.TypeParameter{})
}
