package translate

import (
	"github.com/movevm/mvb2wasm/errors"
	"github.com/movevm/mvb2wasm/intermediate"
)

// TypesStack mirrors the runtime operand stack at compile time: invariant
// 2 (§3) requires it to have exactly the layout the runtime stack would
// have at any program point, so every push/pop here must match the
// instruction sequence emitted alongside it.
type TypesStack struct {
	entries []intermediate.Type
}

// NewTypesStack returns an empty TypesStack.
func NewTypesStack() *TypesStack {
	return &TypesStack{}
}

// Push records that a value of type t now sits on top of the stack.
func (s *TypesStack) Push(t intermediate.Type) {
	s.entries = append(s.entries, t)
}

// Pop removes and returns the top type, or EmptyStack if the stack is
// empty — a compile-time bug (malformed input), never a runtime condition.
func (s *TypesStack) Pop() (intermediate.Type, error) {
	if len(s.entries) == 0 {
		return nil, errors.EmptyStack()
	}
	t := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return t, nil
}

// PopExpecting pops and asserts the popped type's Kind equals kind.
func (s *TypesStack) PopExpecting(kind intermediate.Kind) (intermediate.Type, error) {
	if len(s.entries) == 0 {
		return nil, errors.EmptyStackExpecting(kind.String())
	}
	t, err := s.Pop()
	if err != nil {
		return nil, err
	}
	if t.Kind() != kind {
		return nil, errors.TypeMismatch(kind.String(), t.String())
	}
	return t, nil
}

// PopN pops n values in push order (oldest popped last is index 0).
func (s *TypesStack) PopN(n int) ([]intermediate.Type, error) {
	if len(s.entries) < n {
		return nil, errors.ExpectedNElements(n)
	}
	out := make([]intermediate.Type, n)
	for i := n - 1; i >= 0; i-- {
		t, err := s.Pop()
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// Peek returns the top type without removing it.
func (s *TypesStack) Peek() (intermediate.Type, error) {
	if len(s.entries) == 0 {
		return nil, errors.EmptyStack()
	}
	return s.entries[len(s.entries)-1], nil
}

// Len reports the current stack depth.
func (s *TypesStack) Len() int { return len(s.entries) }

// Snapshot returns a copy of the current stack layout, for comparing branch
// source and join-point layouts (§4.6: "type-stack snapshot at the branch
// source must equal the snapshot at the join").
func (s *TypesStack) Snapshot() []intermediate.Type {
	out := make([]intermediate.Type, len(s.entries))
	copy(out, s.entries)
	return out
}

// EqualSnapshot reports whether two snapshots describe the same stack
// layout.
func EqualSnapshot(a, b []intermediate.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
