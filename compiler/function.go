package compiler

import (
	"github.com/movevm/mvb2wasm/codegen"
	"github.com/movevm/mvb2wasm/errors"
	"github.com/movevm/mvb2wasm/hostabi"
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/modulegraph"
	"github.com/movevm/mvb2wasm/runtimehelpers"
	"github.com/movevm/mvb2wasm/translate"
	"github.com/movevm/mvb2wasm/wasm"
)

// translatedFunc is one function body ready to append to the output
// module: its WASM signature, declared locals, and emitted (not yet
// symbol-resolved) instructions.
type translatedFunc struct {
	symbol string
	typ    wasm.FuncType
	locals []wasm.LocalEntry
	emit   *codegen.Emitter
}

// translateFunction lowers one FunctionSource's body to WASM, substituting
// typeArgs into every declared type first when non-empty (a monomorphized
// instantiation of a generic function): params/results/locals are all
// substituted before a translate.Locals table is built, so every opcode
// handler downstream sees only concrete types, matching invariant 3 (§3)
// that a generic body is never translated directly.
func translateFunction(graph *modulegraph.Context, host *hostabi.Registry, helpers *runtimehelpers.Builder, fn FunctionSource, symbol string, typeArgs []intermediate.Type, path ...string) (*translatedFunc, error) {
	params := substituteAll(fn.Params, typeArgs)
	results := substituteAll(fn.Results, typeArgs)
	sourceLocals := substituteAll(fn.Locals, typeArgs)

	locals := translate.NewLocals(sourceLocals)
	ctx := translate.NewContext(graph, host, helpers, locals, path...)

	registry := translate.NewRegistry()
	for _, in := range fn.Body {
		if err := substituteInstr(&in, typeArgs); err != nil {
			return nil, err
		}
		if err := registry.Dispatch(ctx, in); err != nil {
			return nil, err
		}
	}

	if err := checkFinalStack(ctx, results, path...); err != nil {
		return nil, err
	}

	paramTypes := make([]wasm.ValType, len(params))
	for i, p := range params {
		paramTypes[i] = translate.ValTypeFor(p)
	}
	resultTypes := make([]wasm.ValType, len(results))
	for i, r := range results {
		resultTypes[i] = translate.ValTypeFor(r)
	}

	return &translatedFunc{
		symbol: symbol,
		typ:    wasm.FuncType{Params: paramTypes, Results: resultTypes},
		locals: locals.Declared(len(params)),
		emit:   ctx.Emit,
	}, nil
}

func substituteAll(ts []intermediate.Type, typeArgs []intermediate.Type) []intermediate.Type {
	if len(typeArgs) == 0 {
		return ts
	}
	out := make([]intermediate.Type, len(ts))
	for i, t := range ts {
		out[i] = intermediate.Substitute(t, typeArgs)
	}
	return out
}

// substituteInstr substitutes typeArgs into the type-carrying fields of a
// single instruction in place. Only OpCallGeneric's own TypeArgs and the
// vector/field opcodes' FieldType ever mention a TypeParameter inside a
// generic body; everything else (branch targets, local indices, struct/enum
// refs) is untouched by instantiation.
func substituteInstr(in *translate.Instr, typeArgs []intermediate.Type) error {
	if len(typeArgs) == 0 {
		return nil
	}
	if in.FieldType != nil {
		in.FieldType = intermediate.Substitute(in.FieldType, typeArgs)
	}
	if len(in.TypeArgs) > 0 {
		in.TypeArgs = substituteAll(in.TypeArgs, typeArgs)
	}
	return nil
}

// checkFinalStack verifies property 3 (§8): after translating a
// well-formed function, the final type-stack equals the declared return
// signature.
func checkFinalStack(ctx *translate.Context, results []intermediate.Type, path ...string) error {
	got, err := ctx.Stack.PopN(len(results))
	if err != nil {
		return err
	}
	for i, r := range results {
		if !got[i].Equal(r) {
			return errors.TypeMismatch(r.String(), got[i].String(), path...)
		}
	}
	if ctx.Stack.Len() != 0 {
		return errors.New(errors.PhaseTypeStack, errors.KindExpectedNElements).
			Path(path...).Detail("function body left extra values on the type stack").Build()
	}
	return nil
}
