package translate

import (
	"github.com/movevm/mvb2wasm/errors"
	"github.com/movevm/mvb2wasm/intermediate"
)

// funcSymbol names the call symbol for a non-generic function declaration,
// in the same "module#index" shape Struct/Enum use for their own String().
func funcSymbol(module intermediate.ModuleID, index uint32) string {
	return module.String() + "#fn" + itoaLocal(index)
}

func itoaLocal(v uint32) string {
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

// handleCall lowers a direct (non-generic) call: pop its arguments, check
// them against the declared signature, emit a symbolic call by the callee's
// stable funcSymbol (resolved to a concrete function index once the whole
// package's function index space is final), push its results.
func handleCall(ctx *Context, in Instr) error {
	sig, err := ctx.Graph.FunctionSignature(in.Func.Module, in.Func.Index)
	if err != nil {
		return err
	}
	args, err := ctx.Stack.PopN(len(sig.Params))
	if err != nil {
		return err
	}
	for i, p := range sig.Params {
		if !args[i].Equal(p) {
			return errors.TypeMismatch(p.String(), args[i].String(), ctx.Path...)
		}
	}
	ctx.Emit.CallName(funcSymbol(in.Func.Module, in.Func.Index))
	for _, r := range sig.Results {
		ctx.Stack.Push(r)
	}
	return nil
}

// handleCallGeneric lowers a call to a generic function instantiated with
// in.TypeArgs, per invariant 3 (§3): every type argument must already be
// concrete at this point (a caller passing an unresolved TypeParameter
// through is itself generic and must itself be monomorphized first, which
// is the compiler driver's job, not this handler's). The callee's own body
// is emitted once per distinct MangledName by the compiler driver, keyed
// through ctx.Graph's FuncIndexForInstantiation/RecordInstantiation
// dedup — this handler only ever emits the symbolic call.
func handleCallGeneric(ctx *Context, in Instr) error {
	for _, a := range in.TypeArgs {
		if !a.Kind().IsConcrete() {
			return errors.InvalidOperation("call_generic type argument is not concrete", ctx.Path...)
		}
	}
	sig, err := ctx.Graph.FunctionSignature(in.Func.Module, in.Func.Index)
	if err != nil {
		return err
	}
	args, err := ctx.Stack.PopN(len(sig.Params))
	if err != nil {
		return err
	}
	for i, p := range sig.Params {
		want := intermediate.Substitute(p, in.TypeArgs)
		if !args[i].Equal(want) {
			return errors.TypeMismatch(want.String(), args[i].String(), ctx.Path...)
		}
	}
	base := funcSymbol(in.Func.Module, in.Func.Index)
	ctx.Emit.CallName(intermediate.MangledName(base, in.TypeArgs))
	for _, r := range sig.Results {
		ctx.Stack.Push(intermediate.Substitute(r, in.TypeArgs))
	}
	return nil
}
