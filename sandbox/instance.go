package sandbox

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/movevm/mvb2wasm/hostabi"
)

// Instance is one compiled module instantiated against a Host fixture.
// Grounded on engine/wazero.go's wazero.NewRuntimeWithConfig setup, reduced
// to the one runtime/one module this repo's output ever needs — no
// component linking, no WASI.
type Instance struct {
	runtime wazero.Runtime
	mod     api.Module
	host    *Host
}

// Instantiate compiles wasmBytes, registers every vm_hooks import as a Go
// closure bound to host, and instantiates the module. The caller owns
// Close()ing the returned Instance's runtime when done.
func Instantiate(ctx context.Context, wasmBytes []byte, host *Host) (*Instance, error) {
	runtime := wazero.NewRuntime(ctx)

	builder := runtime.NewHostModuleBuilder(hostabi.ModuleName)
	registerHooks(builder, host)
	if _, err := builder.Instantiate(ctx); err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("sandbox: instantiate vm_hooks: %w", err)
	}

	mod, err := runtime.Instantiate(ctx, wasmBytes)
	if err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("sandbox: instantiate module: %w", err)
	}

	return &Instance{runtime: runtime, mod: mod, host: host}, nil
}

// Close releases the underlying wazero runtime.
func (inst *Instance) Close(ctx context.Context) error {
	return inst.runtime.Close(ctx)
}

// Run calls the module's single exported entry point, user_entrypoint,
// passing the host's calldata length exactly as dispatch.Build's emitted
// body expects (§4.7), and returns its i32 result: 0 on a dispatched call,
// 1 if no entry matched the leading selector.
func (inst *Instance) Run(ctx context.Context) (uint32, error) {
	fn := inst.mod.ExportedFunction(entrypointExportName)
	if fn == nil {
		return 0, fmt.Errorf("sandbox: module does not export %q", entrypointExportName)
	}
	results, err := fn.Call(ctx, uint64(len(inst.host.Calldata)))
	if err != nil {
		return 0, fmt.Errorf("sandbox: call %s: %w", entrypointExportName, err)
	}
	if len(results) != 1 {
		return 0, fmt.Errorf("sandbox: %s returned %d values, want 1", entrypointExportName, len(results))
	}
	return uint32(results[0]), nil
}

// entrypointExportName matches compiler.Compile's fixed export name for
// the dispatcher.
const entrypointExportName = "user_entrypoint"
