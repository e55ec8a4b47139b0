package translate

import (
	"testing"

	"github.com/movevm/mvb2wasm/codegen"
	"github.com/movevm/mvb2wasm/errors"
	"github.com/movevm/mvb2wasm/hostabi"
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/modulegraph"
	"github.com/movevm/mvb2wasm/runtimehelpers"
)

func testModule(name string) intermediate.ModuleID {
	return intermediate.ModuleID{Address: [32]byte{9}, Name: name}
}

// testContext builds a Context over a fresh, empty module graph with n
// scratch-only source locals, ready for a single handler call.
func testContext(graph *modulegraph.Context, sourceTypes ...intermediate.Type) *Context {
	host := hostabi.NewRegistry()
	helpers := runtimehelpers.NewBuilder(host)
	if graph == nil {
		graph = modulegraph.NewContext()
	}
	return NewContext(graph, host, helpers, NewLocals(sourceTypes), "test::fn")
}

func asTranslateErr(t *testing.T, err error) *errors.Error {
	t.Helper()
	e, ok := err.(*errors.Error)
	if !ok {
		t.Fatalf("expected *errors.Error, got %T (%v)", err, err)
	}
	return e
}

func requireEmitted(t *testing.T, e *codegen.Emitter) {
	t.Helper()
	if e.Len() == 0 {
		t.Error("expected instructions to be emitted, got none")
	}
}
