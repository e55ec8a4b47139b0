package wat

import (
	"github.com/movevm/mvb2wasm/wat/internal/encoder"
	"github.com/movevm/mvb2wasm/wat/internal/parser"
	"github.com/movevm/mvb2wasm/wat/internal/token"
)

func Compile(source string) ([]byte, error) {
	tokens := token.Tokenize(source)
	p := parser.New(tokens)
	mod, err := p.Parse()
	if err != nil {
		return nil, err
	}
	return encoder.Encode(mod), nil
}
