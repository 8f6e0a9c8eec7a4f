// Command goldentest drives the compiler's full pipeline over a
// directory of fixture sources and diffs the emitted assembly against a
// checked-in golden file per fixture, the way the pack's own
// compile-then-diff test runner does, minus the part that shells out to
// an external assembler, which is outside this compiler's scope.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/nullstream/ccx/internal/codegen/x86_64"
	"github.com/nullstream/ccx/internal/looplabel"
	"github.com/nullstream/ccx/internal/parser"
	"github.com/nullstream/ccx/internal/resolve"
	"github.com/nullstream/ccx/internal/tac"
)

var (
	dir    = flag.String("dir", "testdata", "Directory of fixture .c files paired with .s golden files.")
	update = flag.Bool("update", false, "Regenerate golden .s files instead of comparing against them.")
)

func compile(src string) (string, error) {
	prog, err := parser.ParseProgram(src)
	if err != nil {
		return "", fmt.Errorf("parse: %w", err)
	}
	if err := resolve.Program(prog); err != nil {
		return "", fmt.Errorf("resolve: %w", err)
	}
	if err := looplabel.Program(prog); err != nil {
		return "", fmt.Errorf("loop label: %w", err)
	}
	tacProg := tac.Generate(prog)
	asmProg := x86_64.Select(tacProg)
	for _, fn := range asmProg.Functions {
		x86_64.AssignStackSlots(fn)
		x86_64.Legalize(fn)
	}
	return x86_64.Emit(asmProg), nil
}

func main() {
	flag.Parse()

	fixtures, err := filepath.Glob(filepath.Join(*dir, "*.c"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "goldentest: glob: %v\n", err)
		os.Exit(1)
	}
	sort.Strings(fixtures)

	failed := 0
	seenHashes := map[uint64]string{}

	for _, fixture := range fixtures {
		name := strings.TrimSuffix(filepath.Base(fixture), ".c")
		src, err := os.ReadFile(fixture)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", name, err)
			failed++
			continue
		}

		h := xxhash.Sum64(src)
		if prior, ok := seenHashes[h]; ok {
			fmt.Fprintf(os.Stderr, "WARN %s: byte-identical to %s fixture\n", name, prior)
		}
		seenHashes[h] = name

		got, err := compile(string(src))
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", name, err)
			failed++
			continue
		}

		goldenPath := filepath.Join(*dir, name+".s")
		if *update {
			if err := os.WriteFile(goldenPath, []byte(got), 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "FAIL %s: write golden: %v\n", name, err)
				failed++
				continue
			}
			fmt.Printf("WROTE %s\n", name)
			continue
		}

		want, err := os.ReadFile(goldenPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: read golden: %v\n", name, err)
			failed++
			continue
		}
		if diff := cmp.Diff(string(want), got); diff != "" {
			fmt.Fprintf(os.Stderr, "FAIL %s: assembly mismatch:\n%s\n", name, diff)
			failed++
			continue
		}
		fmt.Printf("PASS %s\n", name)
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d/%d fixtures failed\n", failed, len(fixtures))
		os.Exit(1)
	}
}
