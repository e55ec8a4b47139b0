package native

import (
	"github.com/movevm/mvb2wasm/abi"
	"github.com/movevm/mvb2wasm/codegen"
	"github.com/movevm/mvb2wasm/errors"
	"github.com/movevm/mvb2wasm/hostabi"
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/modulegraph"
	"github.com/movevm/mvb2wasm/runtimehelpers"
	"github.com/movevm/mvb2wasm/wasm"
)

// Call symbols for the fixed (non-generic) native functions.
const (
	SymSender       = "native:sender"
	SymMsgValue     = "native:msg_value"
	SymBlockBasefee = "native:block_basefee"
	SymGasPrice     = "native:gas_price"
)

const emitBase = "native_emit"

// Registry lazily builds every native function a module actually calls:
// the four fixed transaction-context wrappers, memoized the same
// used-on-first-request way as hostabi.Registry and runtimehelpers.Builder,
// plus one emit<T> per concrete struct type ever logged.
// is_one_time_witness<T> is deliberately not here — §4.8 folds it to a
// constant at the call site, it never becomes a callable function.
type Registry struct {
	host    *hostabi.Registry
	helpers *runtimehelpers.Builder
	graph   *modulegraph.Context
	fixed   map[string]bool
	emit    map[string]intermediate.Type
}

// NewRegistry returns a Registry that declares host imports through host,
// calls into helpers for allocation, and resolves struct layouts through
// graph.
func NewRegistry(host *hostabi.Registry, helpers *runtimehelpers.Builder, graph *modulegraph.Context) *Registry {
	return &Registry{
		host: host, helpers: helpers, graph: graph,
		fixed: make(map[string]bool),
		emit:  make(map[string]intermediate.Type),
	}
}

func (r *Registry) SenderSymbol() string {
	r.fixed[SymSender] = true
	return SymSender
}

func (r *Registry) MsgValueSymbol() string {
	r.fixed[SymMsgValue] = true
	return SymMsgValue
}

func (r *Registry) BlockBasefeeSymbol() string {
	r.fixed[SymBlockBasefee] = true
	return SymBlockBasefee
}

func (r *Registry) GasPriceSymbol() string {
	r.fixed[SymGasPrice] = true
	return SymGasPrice
}

// EmitSymbol returns the call symbol for emit<t>, validating t's fields are
// all wire-representable and declaring the function for emission on first
// use. Every later call for the same t reuses the same symbol, the same
// dedup-by-mangled-name discipline translate/handlers_call.go uses for
// generic function instantiations.
func (r *Registry) EmitSymbol(t intermediate.Type) (string, error) {
	sym := "native:" + intermediate.MangledName(emitBase, []intermediate.Type{t})
	if _, ok := r.emit[sym]; ok {
		return sym, nil
	}
	def, err := r.graph.StructByIntermediateType(t)
	if err != nil {
		return "", err
	}
	for _, f := range def.Fields {
		if _, err := abi.WireName(f); err != nil {
			return "", errors.New(errors.PhaseNative, errors.KindUnsupportedOperation).
				Detail("emit<%s>: field type %s cannot be logged", t, f).Build()
		}
	}
	r.emit[sym] = t
	return sym, nil
}

// Pending describes one native function awaiting appending to the module.
type Pending struct {
	Name string
	Type wasm.FuncType
	Body *codegen.Emitter
}

// Finalize builds the body of every native function actually used, in a
// stable order (fixed wrappers first, then emit<T> by symbol), ready for
// the compiler to fold into the output module's Funcs/Code sections. Must
// run before hostabi's imports are finalized (the bodies declare the host
// imports they call), same ordering constraint as
// runtimehelpers.Builder.Finalize.
func (r *Registry) Finalize() ([]Pending, error) {
	var out []Pending

	if r.fixed[SymSender] {
		body, err := r.buildSender()
		if err != nil {
			return nil, err
		}
		out = append(out, Pending{
			Name: SymSender,
			Type: wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}},
			Body: body,
		})
	}
	for _, sym := range []string{SymMsgValue, SymBlockBasefee, SymGasPrice} {
		if !r.fixed[sym] {
			continue
		}
		body, err := r.buildHostWrapper(fixedWrappers[sym])
		if err != nil {
			return nil, err
		}
		out = append(out, Pending{
			Name: sym,
			Type: wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}},
			Body: body,
		})
	}

	emitSyms := make([]string, 0, len(r.emit))
	for sym := range r.emit {
		emitSyms = append(emitSyms, sym)
	}
	sortStrings(emitSyms)
	for _, sym := range emitSyms {
		body, err := r.buildEmit(r.emit[sym])
		if err != nil {
			return nil, err
		}
		out = append(out, Pending{
			Name: sym,
			Type: wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}},
			Body: body,
		})
	}

	return out, nil
}

// sortStrings is a tiny insertion sort: Finalize's dedup maps are small
// (one entry per distinct emitted struct type) and stable module output
// only needs deterministic ordering, not algorithmic speed.
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
