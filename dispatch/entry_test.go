package dispatch

import (
	"testing"

	"github.com/movevm/mvb2wasm/hostabi"
	"github.com/movevm/mvb2wasm/intermediate"
	"github.com/movevm/mvb2wasm/runtimehelpers"
)

func newHelpers() (*runtimehelpers.Builder, *hostabi.Registry) {
	host := hostabi.NewRegistry()
	return runtimehelpers.NewBuilder(host), host
}

func TestBuild_SingleFunction(t *testing.T) {
	helpers, host := newHelpers()
	entries := []FunctionEntry{
		{Name: "mint", Symbol: "coin#0",
			Params:  []intermediate.Type{intermediate.U64{}},
			Results: []intermediate.Type{intermediate.Bool{}}},
	}

	e, declared, err := Build(entries, helpers, host, Options{InitStorageSlot: 0})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if e.Len() == 0 {
		t.Error("expected instructions to be emitted")
	}
	if len(declared) == 0 {
		t.Error("expected scratch locals to be declared")
	}
	if !host.Used(hostabi.ReadArgs) || !host.Used(hostabi.WriteResult) {
		t.Error("expected read_args and write_result to be used")
	}
}

func TestBuild_NoMatchFallsThrough(t *testing.T) {
	helpers, host := newHelpers()
	entries := []FunctionEntry{
		{Name: "mint", Symbol: "coin#0",
			Params:  []intermediate.Type{intermediate.U64{}},
			Results: []intermediate.Type{intermediate.Bool{}}},
		{Name: "burn", Symbol: "coin#1",
			Params:  []intermediate.Type{intermediate.U64{}},
			Results: nil},
	}

	_, _, err := Build(entries, helpers, host, Options{InitStorageSlot: 0})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
}

func TestBuild_InitFunctionGuardedByStorageFlag(t *testing.T) {
	helpers, host := newHelpers()
	entries := []FunctionEntry{
		{Name: "init", Symbol: "coin#init", IsInit: true},
	}

	_, _, err := Build(entries, helpers, host, Options{InitStorageSlot: 0})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !host.Used(hostabi.StorageLoadBytes32) || !host.Used(hostabi.StorageStoreBytes32) {
		t.Error("expected storage load/store to be used for init guard")
	}
}

func TestBuild_RejectsUnencodableParam(t *testing.T) {
	helpers, host := newHelpers()
	entries := []FunctionEntry{
		{Name: "bad", Symbol: "coin#2",
			Params: []intermediate.Type{intermediate.Signer{}}},
	}

	_, _, err := Build(entries, helpers, host, Options{})
	if err == nil {
		t.Fatal("expected an error selecting a function with a Signer parameter")
	}
}

func TestSelectorConst_MatchesByteOrder(t *testing.T) {
	sel := [4]byte{0x12, 0x34, 0x56, 0x78}
	got := selectorConst(sel)
	want := int32(0x12345678)
	if got != want {
		t.Errorf("selectorConst(%v) = %#x, want %#x", sel, got, want)
	}
}

func TestLocalAlloc_AssignsDistinctIndicesPastParams(t *testing.T) {
	l := newLocalAlloc(2)
	a := l.Local(3) // wasm.ValI32 numeric value, avoids importing wasm just for the type here
	b := l.Local(3)
	if a != 2 || b != 3 {
		t.Errorf("expected indices 2, 3 past 2 params, got %d, %d", a, b)
	}
	if len(l.Declared()) != 2 {
		t.Errorf("expected 2 declared locals, got %d", len(l.Declared()))
	}
}
