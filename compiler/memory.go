package compiler

import "github.com/movevm/mvb2wasm/wasm"

// Reserved linear memory layout (§6): offsets below 256 are reserved.
// Only the slots with nonzero initial bytes get an active data segment
// (see reservedDataSegments); the rest start zeroed. The allocator's bump
// pointer (runtimehelpers.Builder's global) starts at 256, past all of it.
const (
	offsetU256One           = 0
	offsetScratchSlotPtr    = 32
	offsetStorageSlot0      = 64
	offsetSlotNumberScratch = 96
	offsetSharedObjectsKey  = 128
	offsetFrozenObjectsKey  = 160
	offsetOwnerScratch      = 192
	offsetReservedTail      = 224
	reservedSize            = 256
)

// reservedDataSegments builds the active data segments that initialize the
// reserved memory block. Only the two constant keys (§6: u256(1) and
// u256(2), big-endian) and the leading u256(1) scratch constant carry
// nonzero initial bytes; every other reserved slot starts zeroed, which a
// fresh wasm linear memory already is, so no segment is emitted for them.
func reservedDataSegments() []wasm.DataSegment {
	u256One := make([]byte, 32)
	u256One[31] = 1

	sharedKey := make([]byte, 32)
	sharedKey[31] = 1

	frozenKey := make([]byte, 32)
	frozenKey[31] = 2

	return []wasm.DataSegment{
		segmentAt(offsetU256One, u256One),
		segmentAt(offsetSharedObjectsKey, sharedKey),
		segmentAt(offsetFrozenObjectsKey, frozenKey),
	}
}

func segmentAt(offset int32, data []byte) wasm.DataSegment {
	return wasm.DataSegment{
		Offset: wasm.EncodeInstructions([]wasm.Instruction{
			{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: offset}},
			{Opcode: wasm.OpEnd},
		}),
		Init: data,
	}
}
