package main

import (
	"encoding/gob"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/movevm/mvb2wasm/compiler"
)

func main() {
	var (
		pkgFile     = flag.String("pkg", "", "Path to a gob-encoded compiler.Package fixture")
		outFile     = flag.String("out", "", "Output .wasm path")
		verbose     = flag.Bool("v", false, "Verbose structured logging")
		interactive = flag.Bool("i", false, "Interactive mode: browse the dispatcher's selector table")
	)
	flag.Parse()

	if *pkgFile == "" || *outFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: mvb2wasm -pkg <path> -out <file.wasm> [-v] [-i]")
		os.Exit(1)
	}

	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		compiler.SetLogger(l)
	}

	pkg, err := loadPackage(*pkgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	out, err := compiler.Compile(pkg, compiler.Options{ValidateInvariants: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*outFile, out, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(pkg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

// loadPackage decodes a compiler.Package fixture from disk. gob is this
// CLI's own on-disk format for local testing (§6) — the external
// package-discovery collaborator's real production format is out of
// scope.
func loadPackage(path string) (compiler.Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return compiler.Package{}, fmt.Errorf("open package fixture: %w", err)
	}
	defer f.Close()

	var pkg compiler.Package
	if err := gob.NewDecoder(f).Decode(&pkg); err != nil {
		return compiler.Package{}, fmt.Errorf("decode package fixture: %w", err)
	}
	return pkg, nil
}
