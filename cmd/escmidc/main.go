// escmidc lowers a YAML-encoded ECMAScript AST to the typed IR and dumps
// it as text.
//
// Usage:
//
//	escmidc [-o output.ir] program.yaml
package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/RobertoMalatesta/descripten/ast"
	"github.com/RobertoMalatesta/descripten/lower"
)

func main() {
	output := flag.String("o", "", "output file (default: stdout)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: escmidc [-o output.ir] program.yaml\n")
		os.Exit(1)
	}

	src, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "escmidc: %v\n", err)
		os.Exit(1)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		fmt.Fprintf(os.Stderr, "escmidc: %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}
	if len(doc.Content) != 1 {
		fmt.Fprintf(os.Stderr, "escmidc: %s: expected one YAML document\n", flag.Arg(0))
		os.Exit(1)
	}

	program, err := ast.DecodeProgram(doc.Content[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "escmidc: %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	module, diags := lower.New().Lower(program)
	if module == nil {
		for _, d := range diags {
			fmt.Fprintf(os.Stderr, "escmidc: %v\n", d)
		}
		os.Exit(1)
	}

	dump := module.Dump()
	if *output == "" {
		fmt.Print(dump)
		return
	}
	if err := os.WriteFile(*output, []byte(dump), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "escmidc: %v\n", err)
		os.Exit(1)
	}
}
