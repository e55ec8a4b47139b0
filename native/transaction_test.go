package native

import (
	"testing"

	"github.com/movevm/mvb2wasm/hostabi"
	"github.com/movevm/mvb2wasm/runtimehelpers"
)

func TestBuildSender(t *testing.T) {
	host := hostabi.NewRegistry()
	helpers := runtimehelpers.NewBuilder(host)
	r := NewRegistry(host, helpers, nil)

	e, err := r.buildSender()
	if err != nil {
		t.Fatalf("buildSender: %v", err)
	}
	if e.Len() == 0 {
		t.Error("expected instructions to be emitted")
	}
	if !host.Used(hostabi.MsgSender) {
		t.Error("expected msg_sender to be used")
	}
}

func TestBuildHostWrapper(t *testing.T) {
	host := hostabi.NewRegistry()
	helpers := runtimehelpers.NewBuilder(host)
	r := NewRegistry(host, helpers, nil)

	e, err := r.buildHostWrapper(fixedWrappers[SymMsgValue])
	if err != nil {
		t.Fatalf("buildHostWrapper: %v", err)
	}
	if e.Len() == 0 {
		t.Error("expected instructions to be emitted")
	}
	if !host.Used(hostabi.MsgValue) {
		t.Error("expected msg_value to be used")
	}
}
