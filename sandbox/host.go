// Package sandbox is a test-only host environment for compiled modules: it
// instantiates the module's one exported function, user_entrypoint, and
// backs every vm_hooks import with an in-memory calldata/storage/log
// fixture instead of a real chain. It exists purely to give this repo's own
// _test.go files an end-to-end harness (the real host is out of scope).
package sandbox

import "fmt"

// LogEntry is one emit_log call captured during a run.
type LogEntry struct {
	Topic uint32
	Data  []byte
}

// Host is the in-memory stand-in for vm_hooks' real backing environment:
// a fixed sender/origin/value/basefee/gas-price, a byte-addressable
// storage map keyed by 32-byte slot, and the calldata a run is given.
type Host struct {
	Calldata []byte

	Sender       [20]byte
	Origin       [20]byte
	Value        [32]byte
	BlockBasefee [32]byte
	GasPrice     [32]byte

	storage map[[32]byte][32]byte
	logs    []LogEntry
	result  []byte
}

// NewHost returns a Host that will serve calldata to the first read_args
// call a run makes. Every other field defaults to zero; set them directly
// before calling Instantiate's Run to exercise msg_sender, msg_value, etc.
func NewHost(calldata []byte) *Host {
	return &Host{
		Calldata: calldata,
		storage:  make(map[[32]byte][32]byte),
	}
}

// SetStorage seeds slot with val, as if a prior transaction had already
// stored it.
func (h *Host) SetStorage(slot, val [32]byte) {
	h.storage[slot] = val
}

// Storage returns the current value of slot, the zero value if never
// written.
func (h *Host) Storage(slot [32]byte) [32]byte {
	return h.storage[slot]
}

// Logs returns every emit_log call a run made, in call order.
func (h *Host) Logs() []LogEntry {
	return h.logs
}

// Result returns the bytes the module's last write_result call wrote, or
// nil if it never called write_result.
func (h *Host) Result() []byte {
	return h.result
}

func (h *Host) loadStorage(slot [32]byte) ([32]byte, bool) {
	v, ok := h.storage[slot]
	return v, ok
}

func (h *Host) storeStorage(slot, val [32]byte) {
	if h.storage == nil {
		h.storage = make(map[[32]byte][32]byte)
	}
	h.storage[slot] = val
}

func (h *Host) appendLog(topic uint32, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	h.logs = append(h.logs, LogEntry{Topic: topic, Data: cp})
}

func (h *Host) setResult(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	h.result = cp
}

// errOutOfRange is returned when a guest pointer/length pair falls outside
// the instance's linear memory.
func errOutOfRange(name string, offset, size uint32) error {
	return fmt.Errorf("sandbox: %s: out of range read/write at offset %d size %d", name, offset, size)
}
