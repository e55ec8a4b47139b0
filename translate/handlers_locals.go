package translate

import "github.com/movevm/mvb2wasm/errors"

// handleLocalLoad and handleLocalCopy both read a local's current value
// without consuming it; the difference between a Move and a Copy
// (whether the source binding may still be read afterward) is an upstream
// verifier concern (out of scope, §1) — both lower to local.get.
func handleLocalLoad(ctx *Context, in Instr) error {
	return emitLocalRead(ctx, in.Local)
}

func handleLocalCopy(ctx *Context, in Instr) error {
	return emitLocalRead(ctx, in.Local)
}

func handleLocalMove(ctx *Context, in Instr) error {
	return emitLocalRead(ctx, in.Local)
}

func emitLocalRead(ctx *Context, idx uint32) error {
	t := ctx.Locals.SourceType(idx)
	if t == nil {
		return errors.InvalidOperation("local index has no declared source type", ctx.Path...)
	}
	ctx.Emit.LocalGet(idx)
	ctx.Stack.Push(t)
	return nil
}

func handleLocalStore(ctx *Context, in Instr) error {
	declared := ctx.Locals.SourceType(in.Local)
	if declared == nil {
		return errors.InvalidOperation("local index has no declared source type", ctx.Path...)
	}
	got, err := ctx.Stack.Pop()
	if err != nil {
		return err
	}
	if !got.Equal(declared) {
		return errors.TypeMismatch(declared.String(), got.String(), ctx.Path...)
	}
	ctx.Emit.LocalSet(in.Local)
	return nil
}
