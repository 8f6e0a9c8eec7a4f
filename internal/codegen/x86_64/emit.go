package x86_64

import (
	"fmt"
	"strings"
)

// Emit serializes prog to AT&T-syntax assembly text. It is mechanical:
// by the time a Program reaches here, Pass A through C have already
// reduced every instruction to an encodable form.
func Emit(prog *Program) string {
	var b strings.Builder
	for _, fn := range prog.Functions {
		emitFunction(&b, fn)
	}
	return b.String()
}

func emitFunction(b *strings.Builder, fn *Function) {
	fmt.Fprintf(b, "  .globl %s\n", fn.Name)
	fmt.Fprintf(b, "%s:\n", fn.Name)
	b.WriteString("  pushq %rbp\n")
	b.WriteString("  movq %rsp, %rbp\n")
	for _, in := range fn.Instrs {
		emitInstr(b, in)
	}
}

func emitInstr(b *strings.Builder, in Instr) {
	switch in := in.(type) {
	case AllocateStack:
		fmt.Fprintf(b, "  subq $%d, %%rsp\n", in.Size)
	case Mov:
		fmt.Fprintf(b, "  movl %s, %s\n", operandText(in.Src), operandText(in.Dst))
	case UnaryInstr:
		fmt.Fprintf(b, "  %s %s\n", unaryMnemonic(in.Op), operandText(in.Dst))
	case BinaryInstr:
		fmt.Fprintf(b, "  %s %s, %s\n", binaryMnemonic(in.Op), operandText(in.Src), operandText(in.Dst))
	case Cmp:
		fmt.Fprintf(b, "  cmpl %s, %s\n", operandText(in.A), operandText(in.B))
	case Idiv:
		fmt.Fprintf(b, "  idivl %s\n", operandText(in.Src))
	case Cdq:
		b.WriteString("  cltd\n")
	case Jmp:
		fmt.Fprintf(b, "  jmp .L%s\n", in.Target)
	case JmpCC:
		fmt.Fprintf(b, "  j%s .L%s\n", in.Cond, in.Target)
	case SetCC:
		fmt.Fprintf(b, "  set%s %s\n", in.Cond, operandText8(in.Dst))
	case Label:
		fmt.Fprintf(b, ".L%s:\n", in.Name)
	case Ret:
		b.WriteString("  movq %rbp, %rsp\n")
		b.WriteString("  popq %rbp\n")
		b.WriteString("  ret\n")
	default:
		panic(fmt.Sprintf("x86_64: unhandled instruction %T", in))
	}
}

func unaryMnemonic(op UnaryOperator) string {
	switch op {
	case Not:
		return "notl"
	case Neg:
		return "negl"
	default:
		panic("x86_64: unknown unary operator")
	}
}

func binaryMnemonic(op BinaryOperator) string {
	switch op {
	case Add:
		return "addl"
	case Sub:
		return "subl"
	case Mul:
		return "imull"
	default:
		panic("x86_64: unknown binary operator")
	}
}

func operandText(op Operand) string {
	switch op := op.(type) {
	case Imm:
		return fmt.Sprintf("$%d", op.Value)
	case Reg:
		return regText32(op)
	case Stack:
		return fmt.Sprintf("%d(%%rbp)", op.Offset)
	case Pseudo:
		panic("x86_64: Pseudo operand survived to emission: " + op.Name)
	default:
		panic(fmt.Sprintf("x86_64: unhandled operand %T", op))
	}
}

// operandText8 renders a SetCC destination as its 1-byte sub-register:
// setCC only ever writes the low byte.
func operandText8(op Operand) string {
	switch op := op.(type) {
	case Reg:
		return regText8(op)
	case Stack:
		return fmt.Sprintf("%d(%%rbp)", op.Offset)
	case Pseudo:
		panic("x86_64: Pseudo operand survived to emission: " + op.Name)
	default:
		panic(fmt.Sprintf("x86_64: unhandled SetCC destination %T", op))
	}
}

func regText32(r Reg) string {
	switch r {
	case AX:
		return "%eax"
	case DX:
		return "%edx"
	case R10:
		return "%r10d"
	case R11:
		return "%r11d"
	default:
		panic("x86_64: unknown register")
	}
}

func regText8(r Reg) string {
	switch r {
	case AX:
		return "%al"
	case DX:
		return "%dl"
	case R10:
		return "%r10b"
	case R11:
		return "%r11b"
	default:
		panic("x86_64: unknown register")
	}
}
