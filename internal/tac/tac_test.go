package tac

import (
	"testing"

	"github.com/nullstream/ccx/internal/looplabel"
	"github.com/nullstream/ccx/internal/parser"
	"github.com/nullstream/ccx/internal/resolve"
)

func compile(t *testing.T, src string) *Function {
	t.Helper()
	prog, err := parser.ParseProgram(src)
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	if err := resolve.Program(prog); err != nil {
		t.Fatalf("resolve.Program: %v", err)
	}
	if err := looplabel.Program(prog); err != nil {
		t.Fatalf("looplabel.Program: %v", err)
	}
	return Generate(prog).Functions[0]
}

func TestReturnConstant(t *testing.T) {
	fn := compile(t, "int main(void) { return 2; }")
	if len(fn.Instrs) != 1 {
		t.Fatalf("got %d instructions, want 1: %#v", len(fn.Instrs), fn.Instrs)
	}
	ret, ok := fn.Instrs[0].(Return)
	if !ok || ret.Val != (Constant{Value: 2}) {
		t.Errorf("instr = %#v, want Return{Constant{2}}", fn.Instrs[0])
	}
}

func TestMissingReturnSynthesizesZero(t *testing.T) {
	fn := compile(t, "int main(void) { int x = 1; }")
	last := fn.Instrs[len(fn.Instrs)-1]
	ret, ok := last.(Return)
	if !ok || ret.Val != (Constant{Value: 0}) {
		t.Errorf("last instr = %#v, want a synthesized Return{Constant{0}}", last)
	}
}

func TestBinaryProducesFreshTemp(t *testing.T) {
	fn := compile(t, "int main(void) { return 1 + 2; }")
	var sawBinary bool
	for _, in := range fn.Instrs {
		if b, ok := in.(Binary); ok {
			sawBinary = true
			if b.Dst.Symbol == "" {
				t.Errorf("Binary destination has empty symbol")
			}
		}
	}
	if !sawBinary {
		t.Fatalf("no Binary instruction emitted: %#v", fn.Instrs)
	}
}

func TestShortCircuitAndDesugarsToJumps(t *testing.T) {
	fn := compile(t, "int main(void) { return 1 && 2; }")
	var zeroJumps int
	for _, in := range fn.Instrs {
		if _, ok := in.(JumpIfZero); ok {
			zeroJumps++
		}
		if _, ok := in.(JumpIfNotZero); ok {
			t.Errorf("&& lowered a JumpIfNotZero; want only JumpIfZero per side")
		}
	}
	if zeroJumps != 2 {
		t.Errorf("got %d JumpIfZero instructions, want 2 (one per operand)", zeroJumps)
	}
}

func TestShortCircuitOrDesugarsToJumps(t *testing.T) {
	fn := compile(t, "int main(void) { return 1 || 2; }")
	var notZeroJumps int
	for _, in := range fn.Instrs {
		if _, ok := in.(JumpIfNotZero); ok {
			notZeroJumps++
		}
		if _, ok := in.(JumpIfZero); ok {
			t.Errorf("|| lowered a JumpIfZero; want only JumpIfNotZero per side")
		}
	}
	if notZeroJumps != 2 {
		t.Errorf("got %d JumpIfNotZero instructions, want 2 (one per operand)", notZeroJumps)
	}
}

func TestWhileLoopUsesLoopDerivedLabels(t *testing.T) {
	fn := compile(t, "int main(void) { while (1) { break; } return 0; }")
	var sawContinueLabel, sawBreakLabel, sawBreakJump bool
	for _, in := range fn.Instrs {
		switch in := in.(type) {
		case Label:
			if len(in.Name) > 8 && in.Name[len(in.Name)-9:] == "_continue" {
				sawContinueLabel = true
			}
			if len(in.Name) > 5 && in.Name[len(in.Name)-6:] == "_break" {
				sawBreakLabel = true
			}
		case Jump:
			if len(in.Target) > 5 && in.Target[len(in.Target)-6:] == "_break" {
				sawBreakJump = true
			}
		}
	}
	if !sawContinueLabel || !sawBreakLabel || !sawBreakJump {
		t.Errorf("missing loop-derived labels/jumps: %#v", fn.Instrs)
	}
}

func TestForStatementOmitsCondGuardWhenAbsent(t *testing.T) {
	fn := compile(t, "int main(void) { for (;;) { break; } return 0; }")
	for _, in := range fn.Instrs {
		if _, ok := in.(JumpIfZero); ok {
			t.Errorf("for-without-cond emitted a JumpIfZero guard: %#v", fn.Instrs)
		}
	}
}

func TestConditionalExpressionProducesSingleResult(t *testing.T) {
	fn := compile(t, "int main(void) { return 1 ? 2 : 3; }")
	var copies int
	for _, in := range fn.Instrs {
		if _, ok := in.(Copy); ok {
			copies++
		}
	}
	if copies != 2 {
		t.Errorf("got %d Copy instructions, want 2 (one per ternary arm)", copies)
	}
}
