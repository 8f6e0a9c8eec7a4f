package x86_64

import (
	"strings"
	"testing"

	"github.com/nullstream/ccx/internal/looplabel"
	"github.com/nullstream/ccx/internal/parser"
	"github.com/nullstream/ccx/internal/resolve"
	"github.com/nullstream/ccx/internal/tac"
)

func compileFunc(t *testing.T, src string) *Function {
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
	asmProg := Select(tac.Generate(prog))
	fn := asmProg.Functions[0]
	AssignStackSlots(fn)
	Legalize(fn)
	return fn
}

func noPseudoRemains(t *testing.T, fn *Function) {
	t.Helper()
	walkOperands(fn, func(op Operand) {
		if _, ok := op.(Pseudo); ok {
			t.Errorf("Pseudo operand survived pass B/C: %#v", op)
		}
	})
}

func walkOperands(fn *Function, visit func(Operand)) {
	for _, in := range fn.Instrs {
		switch in := in.(type) {
		case Mov:
			visit(in.Src)
			visit(in.Dst)
		case UnaryInstr:
			visit(in.Dst)
		case BinaryInstr:
			visit(in.Src)
			visit(in.Dst)
		case Cmp:
			visit(in.A)
			visit(in.B)
		case Idiv:
			visit(in.Src)
		case SetCC:
			visit(in.Dst)
		}
	}
}

func TestReturnConstantSelectsMovAndRet(t *testing.T) {
	fn := compileFunc(t, "int main(void) { return 2; }")
	if len(fn.Instrs) != 2 {
		t.Fatalf("got %d instructions, want 2: %#v", len(fn.Instrs), fn.Instrs)
	}
	mov, ok := fn.Instrs[0].(Mov)
	if !ok || mov.Dst != AX {
		t.Errorf("first instr = %#v, want Mov{_, AX}", fn.Instrs[0])
	}
	if _, ok := fn.Instrs[1].(Ret); !ok {
		t.Errorf("second instr = %#v, want Ret", fn.Instrs[1])
	}
}

func TestStackSlotsAssignedFirstFitAtMultiplesOfFour(t *testing.T) {
	fn := compileFunc(t, "int main(void) { int x = 1; int y = 2; return x + y; }")
	noPseudoRemains(t, fn)
	seen := map[int]bool{}
	walkOperands(fn, func(op Operand) {
		if s, ok := op.(Stack); ok {
			if s.Offset%4 != 0 {
				t.Errorf("Stack offset %d is not 4-byte aligned", s.Offset)
			}
			if s.Offset >= 0 {
				t.Errorf("Stack offset %d is not negative", s.Offset)
			}
			seen[s.Offset] = true
		}
	})
	if len(seen) == 0 {
		t.Fatal("no Stack operands found")
	}
	// x, y and the x+y temporary take one slot each, in first-use order.
	if len(seen) != 3 || !seen[-4] || !seen[-8] || !seen[-12] {
		t.Errorf("Stack offsets = %v, want exactly -4, -8, -12", seen)
	}
	if mov, ok := fn.Instrs[1].(Mov); !ok || mov.Dst != (Stack{Offset: -4}) {
		t.Errorf("instr 1 = %#v, want the first-declared local stored at -4", fn.Instrs[1])
	}
	if _, ok := fn.Instrs[0].(AllocateStack); !ok {
		t.Errorf("first instruction = %#v, want AllocateStack", fn.Instrs[0])
	}
}

func TestNoAllocateStackWhenNoLocals(t *testing.T) {
	fn := compileFunc(t, "int main(void) { return 2; }")
	for _, in := range fn.Instrs {
		if _, ok := in.(AllocateStack); ok {
			t.Errorf("AllocateStack emitted despite no declared locals: %#v", fn.Instrs)
		}
	}
}

func TestLegalizationRemovesStackToStackMov(t *testing.T) {
	fn := compileFunc(t, "int main(void) { int x = 1; int y = 2; y = x; return y; }")
	for i, in := range fn.Instrs {
		if mov, ok := in.(Mov); ok {
			_, srcStack := mov.Src.(Stack)
			_, dstStack := mov.Dst.(Stack)
			if srcStack && dstStack {
				t.Errorf("instr %d: Mov{Stack,Stack} survived legalization: %#v", i, in)
			}
		}
	}
}

func TestLegalizationRoutesMultiplyThroughR11(t *testing.T) {
	fn := compileFunc(t, "int main(void) { int x = 2; int y = 3; return x * y; }")
	for i, in := range fn.Instrs {
		if b, ok := in.(BinaryInstr); ok && b.Op == Mul {
			if _, ok := b.Dst.(Stack); ok {
				t.Errorf("instr %d: BinaryInstr{Mul} still writes to a Stack destination: %#v", i, in)
			}
		}
	}
}

func TestEmitProducesGlobalAndPrologue(t *testing.T) {
	fn := compileFunc(t, "int main(void) { return 2; }")
	text := Emit(&Program{Functions: []*Function{fn}})
	for _, want := range []string{".globl main", "main:", "pushq %rbp", "movq %rsp, %rbp", "ret"} {
		if !strings.Contains(text, want) {
			t.Errorf("emitted text missing %q:\n%s", want, text)
		}
	}
}

func TestRelationalSelectsReversedCmpOperands(t *testing.T) {
	fn := compileFunc(t, "int main(void) { return 1 < 2; }")
	var found bool
	for _, in := range fn.Instrs {
		if c, ok := in.(Cmp); ok {
			// 1 < 2 selects Cmp{s2, s1} = Cmp{Imm(2), Imm(1)}.
			if a, ok := c.A.(Imm); ok && a.Value == 2 {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("did not find the expected reversed-operand Cmp: %#v", fn.Instrs)
	}
}
