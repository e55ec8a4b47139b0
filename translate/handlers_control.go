package translate

import (
	"github.com/movevm/mvb2wasm/errors"
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/wasm"
)

// handleBranch/handleBranchIf/handleLoopStart/handleLoopEnd assume the
// caller (the function-level translator, not these per-instruction
// handlers) has already resolved MVB's label-indexed control flow into
// WASM's block-nesting depth — in.Targets carries WASM relative label
// depths, not MVB labels, by the time a handler sees it. The invariant
// that the type-stack snapshot at a branch source matches the one at its
// join is checked by the caller via TypesStack.Snapshot/EqualSnapshot,
// since it spans multiple instructions, not one.
func handleBranch(ctx *Context, in Instr) error {
	if len(in.Targets) != 1 {
		return errors.InvalidOperation("branch requires exactly one target", ctx.Path...)
	}
	ctx.Emit.Br(in.Targets[0])
	return nil
}

func handleBranchIf(ctx *Context, in Instr) error {
	if len(in.Targets) != 1 {
		return errors.InvalidOperation("branch_if requires exactly one target", ctx.Path...)
	}
	if _, err := ctx.Stack.PopExpecting(intermediate.KindBool); err != nil {
		return err
	}
	ctx.Emit.BrIf(in.Targets[0])
	return nil
}

func handleLoopStart(ctx *Context, _ Instr) error {
	ctx.Emit.Loop(wasm.BlockTypeVoid)
	return nil
}

func handleLoopEnd(ctx *Context, _ Instr) error {
	ctx.Emit.End()
	return nil
}

func handleReturn(ctx *Context, _ Instr) error {
	ctx.Emit.Return()
	return nil
}

// handleAbort lowers a runtime abort (Move's `abort` instruction) to an
// unreachable trap — the host maps any WASM trap to a revert (§5).
func handleAbort(ctx *Context, _ Instr) error {
	if _, err := ctx.Stack.Pop(); err != nil {
		return err
	}
	ctx.Emit.Unreachable()
	return nil
}
