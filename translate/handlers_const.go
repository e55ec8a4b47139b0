package translate

import (
	"github.com/movevm/mvb2wasm/errors"
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/wasm"
)

func handleLoadConst(ctx *Context, in Instr) error {
	switch {
	case in.Scalar != nil:
		intermediate.EmitScalarConst(ctx.Emit, *in.Scalar)
		ctx.Stack.Push(in.Scalar.Type)
		return nil
	case in.Heap != nil:
		tmp := ctx.Locals.Local(wasm.ValI32)
		if err := intermediate.EmitHeapConst(ctx.Emit, *in.Heap, ctx.Helpers, tmp); err != nil {
			return err
		}
		ctx.Stack.Push(in.Heap.Type)
		return nil
	default:
		return errors.InvalidOperation("load_const carries neither a scalar nor a heap constant", ctx.Path...)
	}
}
