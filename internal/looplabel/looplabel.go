// Package looplabel implements the loop labeling pass: an in-place AST
// rewrite that attaches a unique label to every loop and binds
// break/continue to the label of the innermost enclosing loop, rejecting
// break/continue that occur outside any loop.
package looplabel

import (
	"fmt"

	"github.com/nullstream/ccx/internal/ast"
	"github.com/nullstream/ccx/internal/symtab"
)

// Error is a LoopLabeling error: break/continue outside any loop,
// carrying the line.
type Error struct {
	Line int
	Kind string // "break" | "continue"
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s outside of any loop", e.Line, e.Kind)
}

type Labeler struct {
	counter int
	names   *symtab.Table
}

// Program labels every loop in prog in place.
func Program(prog *ast.Program) error {
	l := &Labeler{names: symtab.New()}
	for _, fn := range prog.Functions {
		if err := l.block(fn.Body, ""); err != nil {
			return err
		}
	}
	return nil
}

func (l *Labeler) fresh() string {
	l.counter++
	lbl := fmt.Sprintf("loop_%d", l.counter)
	l.names.MustInsert(lbl)
	return lbl
}

func (l *Labeler) block(b *ast.Block, active string) error {
	for _, item := range b.Items {
		if st, ok := item.(ast.Statement); ok {
			if err := l.statement(st, active); err != nil {
				return err
			}
		}
	}
	return nil
}

// statement propagates active (the label of the innermost enclosing
// loop, or "" if none) down through If/Compound unchanged, and rebinds
// it to a fresh label when descending into a loop body.
func (l *Labeler) statement(st ast.Statement, active string) error {
	switch st := st.(type) {
	case *ast.IfStmt:
		if err := l.statement(st.Then, active); err != nil {
			return err
		}
		if st.Else != nil {
			return l.statement(st.Else, active)
		}
		return nil
	case *ast.CompoundStmt:
		return l.block(st.Body, active)
	case *ast.WhileStmt:
		st.Label = l.fresh()
		return l.statement(st.Body, st.Label)
	case *ast.DoWhileStmt:
		st.Label = l.fresh()
		return l.statement(st.Body, st.Label)
	case *ast.ForStmt:
		st.Label = l.fresh()
		return l.statement(st.Body, st.Label)
	case *ast.BreakStmt:
		if active == "" {
			return &Error{Line: st.Line, Kind: "break"}
		}
		st.Label = active
		return nil
	case *ast.ContinueStmt:
		if active == "" {
			return &Error{Line: st.Line, Kind: "continue"}
		}
		st.Label = active
		return nil
	case *ast.ReturnStmt, *ast.ExpressionStmt, *ast.NullStmt:
		return nil
	default:
		return fmt.Errorf("looplabel: unhandled statement %T", st)
	}
}
