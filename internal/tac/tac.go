// Package tac defines the three-address intermediate representation
// produced by the TAC generator: a flat instruction list per function,
// with short-circuit and control-flow desugared into explicit labels
// and jumps.
package tac

import "github.com/nullstream/ccx/internal/ast"

// Value is either a Constant or a Variable.
type Value interface{ isValue() }

type Constant struct{ Value int32 }

func (Constant) isValue() {}

// Variable names a TAC value by symbol: either a renamed source variable
// ("var.<name>.renamed.<n>") or a compiler-generated temporary
// ("temp.v<n>"). Both forms contain ".", which no source identifier can.
type Variable struct{ Symbol string }

func (Variable) isValue() {}

// Instr is the sum of all TAC instruction forms. Every form with a
// destination stores it as a Variable, never a Value, so "dst is always
// a Variable" is enforced by the type system rather than checked at
// runtime.
type Instr interface{ isInstr() }

type Return struct{ Val Value }

func (Return) isInstr() {}

type Unary struct {
	Op  ast.UnaryOp
	Src Value
	Dst Variable
}

func (Unary) isInstr() {}

type Binary struct {
	Op   ast.BinOp
	Src1 Value
	Src2 Value
	Dst  Variable
}

func (Binary) isInstr() {}

type Copy struct {
	Src Value
	Dst Variable
}

func (Copy) isInstr() {}

type Jump struct{ Target string }

func (Jump) isInstr() {}

type JumpIfZero struct {
	Cond   Value
	Target string
}

func (JumpIfZero) isInstr() {}

type JumpIfNotZero struct {
	Cond   Value
	Target string
}

func (JumpIfNotZero) isInstr() {}

type Label struct{ Name string }

func (Label) isInstr() {}

type Function struct {
	Name   string
	Instrs []Instr
}

type Program struct {
	Functions []*Function
}
