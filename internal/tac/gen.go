package tac

import (
	"fmt"

	"github.com/nullstream/ccx/internal/ast"
	"github.com/nullstream/ccx/internal/symtab"
)

// generator lowers one function's AST to a flat TAC instruction list.
// Its counters are per-function: a fresh generator is built for every
// ast.Function.
type generator struct {
	instrs     []Instr
	tempCount  int
	labelCount int
	names      *symtab.Table
}

// Generate lowers an entire (already resolved and labeled) program to TAC.
func Generate(prog *ast.Program) *Program {
	out := &Program{}
	for _, fn := range prog.Functions {
		out.Functions = append(out.Functions, function(fn))
	}
	return out
}

func function(fn *ast.Function) *Function {
	g := &generator{names: symtab.New()}
	g.block(fn.Body)
	if !g.endsInReturn() {
		g.emit(Return{Val: Constant{Value: 0}})
	}
	return &Function{Name: fn.Name, Instrs: g.instrs}
}

func (g *generator) endsInReturn() bool {
	if len(g.instrs) == 0 {
		return false
	}
	_, ok := g.instrs[len(g.instrs)-1].(Return)
	return ok
}

func (g *generator) emit(i Instr) { g.instrs = append(g.instrs, i) }

func (g *generator) newTemp() Variable {
	name := fmt.Sprintf("temp.v%d", g.tempCount)
	g.tempCount++
	g.names.MustInsert(name)
	return Variable{Symbol: name}
}

func (g *generator) newLabel(prefix string) string {
	name := fmt.Sprintf("%s_%d", prefix, g.labelCount)
	g.labelCount++
	g.names.MustInsert(name)
	return name
}

func (g *generator) block(b *ast.Block) {
	for _, item := range b.Items {
		switch it := item.(type) {
		case *ast.Declaration:
			g.declaration(it)
		case ast.Statement:
			g.statement(it)
		}
	}
}

func (g *generator) declaration(d *ast.Declaration) {
	if d.Init == nil {
		return
	}
	v := g.expr(d.Init)
	g.emit(Copy{Src: v, Dst: Variable{Symbol: d.Symbol}})
}

func (g *generator) statement(st ast.Statement) {
	switch st := st.(type) {
	case *ast.ReturnStmt:
		v := g.expr(st.Expr)
		g.emit(Return{Val: v})
	case *ast.ExpressionStmt:
		g.expr(st.Expr)
	case *ast.NullStmt:
		// nothing
	case *ast.IfStmt:
		g.ifStmt(st)
	case *ast.CompoundStmt:
		g.block(st.Body)
	case *ast.WhileStmt:
		g.whileStmt(st)
	case *ast.DoWhileStmt:
		g.doWhileStmt(st)
	case *ast.ForStmt:
		g.forStmt(st)
	case *ast.BreakStmt:
		g.emit(Jump{Target: st.Label + "_break"})
	case *ast.ContinueStmt:
		g.emit(Jump{Target: st.Label + "_continue"})
	default:
		panic(fmt.Sprintf("tac: unhandled statement %T", st))
	}
}

func (g *generator) ifStmt(st *ast.IfStmt) {
	cond := g.expr(st.Cond)
	if st.Else == nil {
		end := g.newLabel("end")
		g.emit(JumpIfZero{Cond: cond, Target: end})
		g.statement(st.Then)
		g.emit(Label{Name: end})
		return
	}
	elseLabel := g.newLabel("else")
	end := g.newLabel("end")
	g.emit(JumpIfZero{Cond: cond, Target: elseLabel})
	g.statement(st.Then)
	g.emit(Jump{Target: end})
	g.emit(Label{Name: elseLabel})
	g.statement(st.Else)
	g.emit(Label{Name: end})
}

func (g *generator) whileStmt(st *ast.WhileStmt) {
	contLabel := st.Label + "_continue"
	breakLabel := st.Label + "_break"
	g.emit(Label{Name: contLabel})
	cond := g.expr(st.Cond)
	g.emit(JumpIfZero{Cond: cond, Target: breakLabel})
	g.statement(st.Body)
	g.emit(Jump{Target: contLabel})
	g.emit(Label{Name: breakLabel})
}

func (g *generator) doWhileStmt(st *ast.DoWhileStmt) {
	startLabel := st.Label + "_start"
	contLabel := st.Label + "_continue"
	breakLabel := st.Label + "_break"
	g.emit(Label{Name: startLabel})
	g.statement(st.Body)
	g.emit(Label{Name: contLabel})
	cond := g.expr(st.Cond)
	g.emit(JumpIfNotZero{Cond: cond, Target: startLabel})
	g.emit(Label{Name: breakLabel})
}

func (g *generator) forStmt(st *ast.ForStmt) {
	switch init := st.Init.(type) {
	case *ast.Declaration:
		g.declaration(init)
	case *ast.ForInitExpr:
		g.expr(init.Expr)
	}
	startLabel := st.Label + "_start"
	contLabel := st.Label + "_continue"
	breakLabel := st.Label + "_break"
	g.emit(Label{Name: startLabel})
	if st.Cond != nil {
		cond := g.expr(st.Cond)
		g.emit(JumpIfZero{Cond: cond, Target: breakLabel})
	}
	g.statement(st.Body)
	g.emit(Label{Name: contLabel})
	if st.Post != nil {
		g.expr(st.Post)
	}
	g.emit(Jump{Target: startLabel})
	g.emit(Label{Name: breakLabel})
}

// expr lowers an expression, appending the instructions needed to
// compute it, and returns the Value holding its result.
func (g *generator) expr(e ast.Expr) Value {
	switch e := e.(type) {
	case *ast.NumLiteral:
		return Constant{Value: e.Value}
	case *ast.Variable:
		return Variable{Symbol: e.Symbol}
	case *ast.Unary:
		src := g.expr(e.Operand)
		dst := g.newTemp()
		g.emit(Unary{Op: e.Op, Src: src, Dst: dst})
		return dst
	case *ast.Binary:
		switch e.Op {
		case ast.OpAnd:
			return g.andExpr(e)
		case ast.OpOr:
			return g.orExpr(e)
		default:
			s1 := g.expr(e.Left)
			s2 := g.expr(e.Right)
			dst := g.newTemp()
			g.emit(Binary{Op: e.Op, Src1: s1, Src2: s2, Dst: dst})
			return dst
		}
	case *ast.Assignment:
		v := g.expr(e.Rvalue)
		lv := e.Lvalue.(*ast.Variable)
		g.emit(Copy{Src: v, Dst: Variable{Symbol: lv.Symbol}})
		return Variable{Symbol: lv.Symbol}
	case *ast.Conditional:
		return g.conditional(e)
	default:
		panic(fmt.Sprintf("tac: unhandled expression %T", e))
	}
}

// andExpr desugars left && right: evaluate left, jump-if-zero to false;
// evaluate right, jump-if-zero to false; result = 1, jump to end;
// false: result = 0; end.
func (g *generator) andExpr(e *ast.Binary) Value {
	falseLabel := g.newLabel("false")
	end := g.newLabel("end")
	result := g.newTemp()
	l := g.expr(e.Left)
	g.emit(JumpIfZero{Cond: l, Target: falseLabel})
	r := g.expr(e.Right)
	g.emit(JumpIfZero{Cond: r, Target: falseLabel})
	g.emit(Copy{Src: Constant{Value: 1}, Dst: result})
	g.emit(Jump{Target: end})
	g.emit(Label{Name: falseLabel})
	g.emit(Copy{Src: Constant{Value: 0}, Dst: result})
	g.emit(Label{Name: end})
	return result
}

// orExpr desugars left || right: the mirror shape of andExpr, using
// jump-if-not-zero and swapped roles, result 1 on early exit, 0 on
// fallthrough.
func (g *generator) orExpr(e *ast.Binary) Value {
	trueLabel := g.newLabel("true")
	end := g.newLabel("end")
	result := g.newTemp()
	l := g.expr(e.Left)
	g.emit(JumpIfNotZero{Cond: l, Target: trueLabel})
	r := g.expr(e.Right)
	g.emit(JumpIfNotZero{Cond: r, Target: trueLabel})
	g.emit(Copy{Src: Constant{Value: 0}, Dst: result})
	g.emit(Jump{Target: end})
	g.emit(Label{Name: trueLabel})
	g.emit(Copy{Src: Constant{Value: 1}, Dst: result})
	g.emit(Label{Name: end})
	return result
}

func (g *generator) conditional(e *ast.Conditional) Value {
	cond := g.expr(e.Cond)
	elseLabel := g.newLabel("else")
	end := g.newLabel("end")
	result := g.newTemp()
	g.emit(JumpIfZero{Cond: cond, Target: elseLabel})
	a := g.expr(e.IfTrue)
	g.emit(Copy{Src: a, Dst: result})
	g.emit(Jump{Target: end})
	g.emit(Label{Name: elseLabel})
	b := g.expr(e.IfFalse)
	g.emit(Copy{Src: b, Dst: result})
	g.emit(Label{Name: end})
	return result
}
