// Command ccomp compiles a single translation unit in the supported C
// subset down to x86-64 AT&T-syntax assembly text.
package main

import (
	"fmt"
	"os"

	"github.com/nullstream/ccx/internal/ast"
	"github.com/nullstream/ccx/internal/codegen/x86_64"
	"github.com/nullstream/ccx/internal/diag"
	"github.com/nullstream/ccx/internal/lexer"
	"github.com/nullstream/ccx/internal/looplabel"
	"github.com/nullstream/ccx/internal/parser"
	"github.com/nullstream/ccx/internal/resolve"
	"github.com/nullstream/ccx/internal/tac"
)

type stage int

const (
	stageFull stage = iota
	stageLex
	stageParse
	stageValidate
	stageTacky
	stageCodegen
)

func usage(reason string) {
	diag.Report(os.Stderr, diag.Usage, fmt.Errorf("%s\nusage: ccomp [--lex|--parse|--validate|--tacky|--codegen] [-o out.asm] <source-file>", reason))
	os.Exit(2)
}

func main() {
	st := stageFull
	outPath := "out.asm"
	srcPath := ""

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch a := args[i]; a {
		case "--lex":
			st = stageLex
		case "--parse":
			st = stageParse
		case "--validate":
			st = stageValidate
		case "--tacky":
			st = stageTacky
		case "--codegen":
			st = stageCodegen
		case "-o":
			if i+1 >= len(args) {
				usage("-o requires a path")
			}
			i++
			outPath = args[i]
		default:
			if len(a) > 0 && a[0] == '-' {
				usage("unknown flag " + a)
			}
			if srcPath != "" {
				usage("unexpected argument " + a)
			}
			srcPath = a
		}
	}
	if srcPath == "" {
		usage("missing source file")
	}

	src, err := os.ReadFile(srcPath)
	if err != nil {
		diag.Report(os.Stderr, diag.Usage, err)
		os.Exit(2)
	}

	if st == stageLex {
		toks, err := lexer.Tokenize(string(src))
		if err != nil {
			diag.Report(os.Stderr, diag.Lex, err)
			os.Exit(1)
		}
		for _, t := range toks {
			fmt.Printf("%d:%s %q\n", t.Line, t.Type, t.Lex)
		}
		return
	}

	prog, err := parser.ParseProgram(string(src))
	if err != nil {
		diag.Report(os.Stderr, diag.Parse, err)
		os.Exit(1)
	}
	if st == stageParse {
		dumpProgram(prog)
		return
	}

	if err := resolve.Program(prog); err != nil {
		diag.Report(os.Stderr, diag.Resolve, err)
		os.Exit(1)
	}
	if err := looplabel.Program(prog); err != nil {
		diag.Report(os.Stderr, diag.Label, err)
		os.Exit(1)
	}
	if st == stageValidate {
		dumpProgram(prog)
		return
	}

	tacProg := tac.Generate(prog)
	if st == stageTacky {
		dumpTac(tacProg)
		return
	}

	asmProg := x86_64.Select(tacProg)
	for _, fn := range asmProg.Functions {
		x86_64.AssignStackSlots(fn)
		x86_64.Legalize(fn)
	}
	if st == stageCodegen {
		dumpAsm(asmProg)
		return
	}

	text := x86_64.Emit(asmProg)
	if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
		diag.Report(os.Stderr, diag.Emission, err)
		os.Exit(1)
	}
}

func dumpProgram(prog *ast.Program) {
	for _, fn := range prog.Functions {
		fmt.Printf("function %s\n", fn.Name)
		for _, item := range fn.Body.Items {
			fmt.Printf("  %+v\n", item)
		}
	}
}

func dumpTac(prog *tac.Program) {
	for _, fn := range prog.Functions {
		fmt.Printf("function %s\n", fn.Name)
		for _, in := range fn.Instrs {
			fmt.Printf("  %+v\n", in)
		}
	}
}

func dumpAsm(prog *x86_64.Program) {
	for _, fn := range prog.Functions {
		fmt.Printf("function %s\n", fn.Name)
		for _, in := range fn.Instrs {
			fmt.Printf("  %+v\n", in)
		}
	}
}
