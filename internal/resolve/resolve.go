// Package resolve implements the variable resolution pass: an in-place
// AST rewrite that assigns a globally unique symbol to every declared
// variable and rewrites every reference to it, rejecting duplicate
// declarations within a block and references to undeclared names.
package resolve

import (
	"fmt"

	"github.com/nullstream/ccx/internal/ast"
	"github.com/nullstream/ccx/internal/symtab"
)

// Error is a VariableResolution error: a duplicate declaration, an
// undeclared use, or an invalid lvalue, carrying the offending name and
// line.
type Error struct {
	Line int
	Name string
	Kind string // "duplicate declaration" | "undeclared variable" | "invalid lvalue"
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%d: %s", e.Line, e.Kind)
	}
	return fmt.Sprintf("%d: %s: %s", e.Line, e.Kind, e.Name)
}

// binding pairs a declared name's unique symbol with whether it was
// declared in the current (innermost) block.
type binding struct {
	unique      string
	currentBlock bool
}

// scope is a lexical scope: source name -> binding. Entering a nested
// block clones the map and clears every entry's currentBlock flag.
type scope map[string]binding

func (s scope) clone() scope {
	ns := make(scope, len(s))
	for k, v := range s {
		ns[k] = binding{unique: v.unique, currentBlock: false}
	}
	return ns
}

// Resolver owns the single counter that mints unique names across the
// whole program, and the symtab used to assert the uniqueness invariant
// holds.
type Resolver struct {
	counter int
	names   *symtab.Table
}

// Program resolves every function in prog in place.
func Program(prog *ast.Program) error {
	r := &Resolver{names: symtab.New()}
	for _, fn := range prog.Functions {
		if err := r.function(fn); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) function(fn *ast.Function) error {
	_, err := r.block(fn.Body, scope{})
	return err
}

// block resolves every item of b under the given scope, returning the
// (possibly-extended) scope. Both callers (a function body and a
// Compound statement) discard the returned scope; the For-statement
// builds its shared scope through declare directly, not through block.
func (r *Resolver) block(b *ast.Block, s scope) (scope, error) {
	for _, item := range b.Items {
		switch it := item.(type) {
		case *ast.Declaration:
			var err error
			s, err = r.declare(it, s)
			if err != nil {
				return s, err
			}
		case ast.Statement:
			if err := r.statement(it, s); err != nil {
				return s, err
			}
		}
	}
	return s, nil
}

func (r *Resolver) declare(d *ast.Declaration, s scope) (scope, error) {
	if b, ok := s[d.Name]; ok && b.currentBlock {
		return s, &Error{Line: d.Line, Name: d.Name, Kind: "duplicate declaration"}
	}
	r.counter++
	unique := fmt.Sprintf("var.%s.renamed.%d", d.Name, r.counter)
	r.names.MustInsert(unique)
	d.Symbol = unique
	// Record the binding before resolving the initializer, so a
	// self-referencing initializer (int x = x + 1;) is accepted as
	// undefined behavior rather than rejected as a compile error.
	ns := make(scope, len(s)+1)
	for k, v := range s {
		ns[k] = v
	}
	ns[d.Name] = binding{unique: unique, currentBlock: true}
	if d.Init != nil {
		if err := r.expr(d.Init, ns); err != nil {
			return s, err
		}
	}
	return ns, nil
}

func (r *Resolver) statement(st ast.Statement, s scope) error {
	switch st := st.(type) {
	case *ast.ReturnStmt:
		return r.expr(st.Expr, s)
	case *ast.ExpressionStmt:
		return r.expr(st.Expr, s)
	case *ast.NullStmt:
		return nil
	case *ast.IfStmt:
		if err := r.expr(st.Cond, s); err != nil {
			return err
		}
		if err := r.statement(st.Then, s); err != nil {
			return err
		}
		if st.Else != nil {
			return r.statement(st.Else, s)
		}
		return nil
	case *ast.CompoundStmt:
		_, err := r.block(st.Body, s.clone())
		return err
	case *ast.WhileStmt:
		if err := r.expr(st.Cond, s); err != nil {
			return err
		}
		return r.statement(st.Body, s)
	case *ast.DoWhileStmt:
		if err := r.statement(st.Body, s); err != nil {
			return err
		}
		return r.expr(st.Cond, s)
	case *ast.ForStmt:
		return r.forStmt(st, s)
	case *ast.BreakStmt, *ast.ContinueStmt:
		return nil
	default:
		return fmt.Errorf("resolve: unhandled statement %T", st)
	}
}

// forStmt: the init declaration/expression, the condition, the post
// expression, and the body all share one new nested scope, so a
// declaration in the init is visible to cond/post/body and may shadow an
// outer name.
func (r *Resolver) forStmt(st *ast.ForStmt, outer scope) error {
	inner := outer.clone()
	switch init := st.Init.(type) {
	case *ast.Declaration:
		var err error
		inner, err = r.declare(init, inner)
		if err != nil {
			return err
		}
	case *ast.ForInitExpr:
		if err := r.expr(init.Expr, inner); err != nil {
			return err
		}
	case nil:
	}
	if st.Cond != nil {
		if err := r.expr(st.Cond, inner); err != nil {
			return err
		}
	}
	if st.Post != nil {
		if err := r.expr(st.Post, inner); err != nil {
			return err
		}
	}
	return r.statement(st.Body, inner)
}

func (r *Resolver) expr(e ast.Expr, s scope) error {
	switch e := e.(type) {
	case *ast.NumLiteral:
		return nil
	case *ast.Variable:
		b, ok := s[e.Name]
		if !ok {
			return &Error{Line: e.Line, Name: e.Name, Kind: "undeclared variable"}
		}
		e.Symbol = b.unique
		return nil
	case *ast.Unary:
		return r.expr(e.Operand, s)
	case *ast.Binary:
		if err := r.expr(e.Left, s); err != nil {
			return err
		}
		return r.expr(e.Right, s)
	case *ast.Assignment:
		if _, ok := e.Lvalue.(*ast.Variable); !ok {
			return &Error{Line: e.Line, Kind: "invalid lvalue"}
		}
		if err := r.expr(e.Lvalue, s); err != nil {
			return err
		}
		return r.expr(e.Rvalue, s)
	case *ast.Conditional:
		if err := r.expr(e.Cond, s); err != nil {
			return err
		}
		if err := r.expr(e.IfTrue, s); err != nil {
			return err
		}
		return r.expr(e.IfFalse, s)
	default:
		return fmt.Errorf("resolve: unhandled expression %T", e)
	}
}
