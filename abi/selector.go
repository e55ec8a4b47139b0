package abi

import (
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/movevm/mvb2wasm/errors"
	"github.com/movevm/mvb2wasm/intermediate"
)

// WireName returns a type's name in the canonical signature string used for
// selector computation. Signer, type parameters, structs/enums, and
// references have no wire representation and are rejected at the public
// function boundary.
func WireName(t intermediate.Type) (string, error) {
	switch v := t.(type) {
	case intermediate.Bool:
		return "bool", nil
	case intermediate.U8:
		return "uint8", nil
	case intermediate.U16:
		return "uint16", nil
	case intermediate.U32:
		return "uint32", nil
	case intermediate.U64:
		return "uint64", nil
	case intermediate.U128:
		return "uint128", nil
	case intermediate.U256:
		return "uint256", nil
	case intermediate.Address:
		return "address", nil
	case intermediate.Vector:
		inner, err := WireName(v.Elem)
		if err != nil {
			return "", err
		}
		return inner + "[]", nil
	default:
		return "", errors.New(errors.PhaseABI, errors.KindUnsupportedOperation).
			Detail("type %s has no wire representation", t).Build()
	}
}

// IsDynamic reports whether t is offset-encoded on the wire. Vectors always
// are; every scalar wire type is static.
func IsDynamic(t intermediate.Type) bool {
	_, ok := t.(intermediate.Vector)
	return ok
}

// Selector computes the 4-byte selector for a public function: the first 4
// bytes of Keccak-256 of "name(wire1,wire2,...)" with no spaces.
func Selector(name string, params []intermediate.Type) ([4]byte, error) {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteByte(',')
		}
		wn, err := WireName(p)
		if err != nil {
			return [4]byte{}, err
		}
		b.WriteString(wn)
	}
	b.WriteByte(')')

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(b.String()))
	sum := h.Sum(nil)

	var sel [4]byte
	copy(sel[:], sum[:4])
	return sel, nil
}
