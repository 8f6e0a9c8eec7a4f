package x86_64

import (
	"fmt"

	"github.com/nullstream/ccx/internal/ast"
	"github.com/nullstream/ccx/internal/tac"
)

// Select lowers TAC to an asm tree with Pseudo operands standing 1:1 for
// TAC Variables and Imm for constants.
func Select(prog *tac.Program) *Program {
	out := &Program{}
	for _, fn := range prog.Functions {
		out.Functions = append(out.Functions, selectFunction(fn))
	}
	return out
}

func selectFunction(fn *tac.Function) *Function {
	s := &selector{}
	for _, in := range fn.Instrs {
		s.instr(in)
	}
	return &Function{Name: fn.Name, Instrs: s.out}
}

type selector struct{ out []Instr }

func (s *selector) emit(i Instr) { s.out = append(s.out, i) }

func operand(v tac.Value) Operand {
	switch v := v.(type) {
	case tac.Constant:
		return Imm{Value: v.Value}
	case tac.Variable:
		return Pseudo{Name: v.Symbol}
	default:
		panic(fmt.Sprintf("x86_64: unhandled tac value %T", v))
	}
}

func pseudoOf(v tac.Variable) Operand { return Pseudo{Name: v.Symbol} }

func relCond(op ast.BinOp) CondCode {
	switch op {
	case ast.OpEq:
		return E
	case ast.OpNe:
		return NE
	case ast.OpLt:
		return L
	case ast.OpLe:
		return LE
	case ast.OpGt:
		return G
	case ast.OpGe:
		return GE
	default:
		panic(fmt.Sprintf("x86_64: %v is not a relational operator", op))
	}
}

func (s *selector) instr(in tac.Instr) {
	switch in := in.(type) {
	case tac.Return:
		s.emit(Mov{Src: operand(in.Val), Dst: AX})
		s.emit(Ret{})
	case tac.Unary:
		s.unary(in)
	case tac.Binary:
		s.binary(in)
	case tac.Copy:
		s.emit(Mov{Src: operand(in.Src), Dst: pseudoOf(in.Dst)})
	case tac.Jump:
		s.emit(Jmp{Target: in.Target})
	case tac.JumpIfZero:
		s.emit(Cmp{A: Imm{Value: 0}, B: operand(in.Cond)})
		s.emit(JmpCC{Cond: E, Target: in.Target})
	case tac.JumpIfNotZero:
		s.emit(Cmp{A: Imm{Value: 0}, B: operand(in.Cond)})
		s.emit(JmpCC{Cond: NE, Target: in.Target})
	case tac.Label:
		s.emit(Label{Name: in.Name})
	default:
		panic(fmt.Sprintf("x86_64: unhandled tac instruction %T", in))
	}
}

func (s *selector) unary(in tac.Unary) {
	dst := pseudoOf(in.Dst)
	switch in.Op {
	case ast.OpComplement:
		s.emit(Mov{Src: operand(in.Src), Dst: dst})
		s.emit(UnaryInstr{Op: Not, Dst: dst})
	case ast.OpNegate:
		s.emit(Mov{Src: operand(in.Src), Dst: dst})
		s.emit(UnaryInstr{Op: Neg, Dst: dst})
	case ast.OpNot:
		s.emit(Cmp{A: Imm{Value: 0}, B: operand(in.Src)})
		s.emit(Mov{Src: Imm{Value: 0}, Dst: dst})
		s.emit(SetCC{Cond: E, Dst: dst})
	default:
		panic(fmt.Sprintf("x86_64: unhandled unary operator %v", in.Op))
	}
}

func (s *selector) binary(in tac.Binary) {
	dst := pseudoOf(in.Dst)
	switch in.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul:
		s.emit(Mov{Src: operand(in.Src1), Dst: dst})
		op := map[ast.BinOp]BinaryOperator{ast.OpAdd: Add, ast.OpSub: Sub, ast.OpMul: Mul}[in.Op]
		s.emit(BinaryInstr{Op: op, Src: operand(in.Src2), Dst: dst})
	case ast.OpDiv:
		s.emit(Mov{Src: operand(in.Src1), Dst: AX})
		s.emit(Cdq{})
		s.emit(Idiv{Src: operand(in.Src2)})
		s.emit(Mov{Src: AX, Dst: dst})
	case ast.OpMod:
		s.emit(Mov{Src: operand(in.Src1), Dst: AX})
		s.emit(Cdq{})
		s.emit(Idiv{Src: operand(in.Src2)})
		s.emit(Mov{Src: DX, Dst: dst})
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		// Operand order to Cmp is reversed so the condition code reads
		// naturally with respect to "Src1 op Src2".
		s.emit(Cmp{A: operand(in.Src2), B: operand(in.Src1)})
		s.emit(Mov{Src: Imm{Value: 0}, Dst: dst})
		s.emit(SetCC{Cond: relCond(in.Op), Dst: dst})
	default:
		panic(fmt.Sprintf("x86_64: unhandled binary operator %v", in.Op))
	}
}
