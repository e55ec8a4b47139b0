package compiler

// Options configures one Compile call. A plain struct, no config-file
// parser — the teacher itself configures engine/linker behavior through
// plain Go structs (engine.Config, engine.CompileConfig), never an
// external format.
type Options struct {
	// InitStorageSlot is the storage slot number guarding repeat init
	// calls, passed straight through to dispatch.Options.
	InitStorageSlot uint32

	// ValidateInvariants checks every struct against
	// native.ValidateVMHandledType (VM-handled-type module collisions)
	// while the module graph is built, before translating any function
	// body. Struct/enum layout invariants are not checked by this option.
	ValidateInvariants bool
}
