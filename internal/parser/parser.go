// Package parser implements a recursive-descent parser with a Pratt-style
// precedence-climbing expression parser.
package parser

import (
	"fmt"
	"strconv"

	"github.com/nullstream/ccx/internal/ast"
	"github.com/nullstream/ccx/internal/lexer"
)

// Error is a ParseError: an unexpected token kind, carrying expected vs.
// actual and the offending token's line.
type Error struct {
	Line     int
	Expected string
	Got      string
}

func (e *Error) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("%d: unexpected %s", e.Line, e.Got)
	}
	return fmt.Sprintf("%d: expected %s, got %s", e.Line, e.Expected, e.Got)
}

type Parser struct {
	lx  *lexer.Lexer
	tok lexer.Token
}

// ParseProgram parses an entire translation unit.
func ParseProgram(src string) (*ast.Program, error) {
	p := &Parser{lx: lexer.New(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	prog := &ast.Program{}
	for !p.tok.Is(lexer.EOF) {
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, fn)
	}
	return prog, nil
}

func (p *Parser) advance() error {
	t, err := p.lx.Next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if !p.tok.Is(tt) {
		return lexer.Token{}, &Error{Line: p.tok.Line, Expected: tt.String(), Got: tokDesc(p.tok)}
	}
	t := p.tok
	if err := p.advance(); err != nil {
		return lexer.Token{}, err
	}
	return t, nil
}

func tokDesc(t lexer.Token) string {
	if t.Is(lexer.IDENT) || t.Is(lexer.INT) {
		return fmt.Sprintf("%s %q", t.Type.String(), t.Lex)
	}
	return t.Type.String()
}

// parseFunction: int IDENT ( void ) { block }
func (p *Parser) parseFunction() (*ast.Function, error) {
	if _, err := p.expect(lexer.KW_INT); err != nil {
		return nil, err
	}
	line := p.tok.Line
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KW_VOID); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Function{Name: name.Lex, Body: body, Line: line}, nil
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	blk := &ast.Block{}
	for !p.tok.Is(lexer.RBRACE) && !p.tok.Is(lexer.EOF) {
		item, err := p.parseBlockItem()
		if err != nil {
			return nil, err
		}
		blk.Items = append(blk.Items, item)
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return blk, nil
}

func (p *Parser) parseBlockItem() (ast.BlockItem, error) {
	if p.tok.Is(lexer.KW_INT) {
		return p.parseDeclaration()
	}
	return p.parseStatement()
}

func (p *Parser) parseDeclaration() (*ast.Declaration, error) {
	line := p.tok.Line
	if _, err := p.expect(lexer.KW_INT); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	decl := &ast.Declaration{Name: name.Lex, Line: line}
	if p.tok.Is(lexer.ASSIGN) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		init, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		decl.Init = init
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	line := p.tok.Line
	switch p.tok.Type {
	case lexer.KW_RETURN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{Expr: e, Line: line}, nil
	case lexer.SEMI:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.NullStmt{Line: line}, nil
	case lexer.KW_IF:
		return p.parseIf()
	case lexer.LBRACE:
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.CompoundStmt{Body: body, Line: line}, nil
	case lexer.KW_WHILE:
		return p.parseWhile()
	case lexer.KW_DO:
		return p.parseDoWhile()
	case lexer.KW_FOR:
		return p.parseFor()
	case lexer.KW_BREAK:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		return &ast.BreakStmt{Line: line}, nil
	case lexer.KW_CONTINUE:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		return &ast.ContinueStmt{Line: line}, nil
	default:
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		return &ast.ExpressionStmt{Expr: e, Line: line}, nil
	}
}

func (p *Parser) parseIf() (ast.Statement, error) {
	line := p.tok.Line
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{Cond: cond, Then: then, Line: line}
	if p.tok.Is(lexer.KW_ELSE) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		elseStmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmt.Else = elseStmt
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (ast.Statement, error) {
	line := p.tok.Line
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Cond: cond, Body: body, Line: line}, nil
}

func (p *Parser) parseDoWhile() (ast.Statement, error) {
	line := p.tok.Line
	if err := p.advance(); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KW_WHILE); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return &ast.DoWhileStmt{Body: body, Cond: cond, Line: line}, nil
}

func (p *Parser) parseFor() (ast.Statement, error) {
	line := p.tok.Line
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	init, err := p.parseForInit()
	if err != nil {
		return nil, err
	}
	var cond ast.Expr
	if !p.tok.Is(lexer.SEMI) {
		cond, err = p.parseExpr(0)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	var post ast.Expr
	if !p.tok.Is(lexer.RPAREN) {
		post, err = p.parseExpr(0)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Init: init, Cond: cond, Post: post, Body: body, Line: line}, nil
}

// parseForInit: a Declaration, an Expr, or empty, all terminated by ';'
// (the Declaration form consumes its own terminator).
func (p *Parser) parseForInit() (ast.ForInit, error) {
	if p.tok.Is(lexer.KW_INT) {
		return p.parseDeclaration()
	}
	if p.tok.Is(lexer.SEMI) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	e, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return &ast.ForInitExpr{Expr: e}, nil
}

// Precedence table; higher binds tighter.
func precedence(tt lexer.TokenType) (int, bool) {
	switch tt {
	case lexer.ASSIGN:
		return 1, true
	case lexer.QUESTION:
		return 3, true
	case lexer.OROR:
		return 5, true
	case lexer.ANDAND:
		return 10, true
	case lexer.EQEQ, lexer.NEQ:
		return 30, true
	case lexer.LT, lexer.LE, lexer.GT, lexer.GE:
		return 35, true
	case lexer.PLUS, lexer.MINUS:
		return 45, true
	case lexer.STAR, lexer.SLASH, lexer.PERCENT:
		return 50, true
	default:
		return 0, false
	}
}

func binOpFor(tt lexer.TokenType) ast.BinOp {
	switch tt {
	case lexer.PLUS:
		return ast.OpAdd
	case lexer.MINUS:
		return ast.OpSub
	case lexer.STAR:
		return ast.OpMul
	case lexer.SLASH:
		return ast.OpDiv
	case lexer.PERCENT:
		return ast.OpMod
	case lexer.ANDAND:
		return ast.OpAnd
	case lexer.OROR:
		return ast.OpOr
	case lexer.EQEQ:
		return ast.OpEq
	case lexer.NEQ:
		return ast.OpNe
	case lexer.LT:
		return ast.OpLt
	case lexer.LE:
		return ast.OpLe
	case lexer.GT:
		return ast.OpGt
	case lexer.GE:
		return ast.OpGe
	}
	panic("unreachable binOpFor")
}

// parseExpr implements the precedence-climbing loop: parse a factor; while
// the lookahead is a binary operator with precedence >= minPrec, consume it
// and recurse. '=' and '?:' are right-associative and handled specially.
func (p *Parser) parseExpr(minPrec int) (ast.Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		prec, ok := precedence(p.tok.Type)
		if !ok || prec < minPrec {
			return left, nil
		}
		switch p.tok.Type {
		case lexer.ASSIGN:
			line := p.tok.Line
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.parseExpr(prec)
			if err != nil {
				return nil, err
			}
			left = &ast.Assignment{Lvalue: left, Rvalue: right, Line: line}
		case lexer.QUESTION:
			line := p.tok.Line
			if err := p.advance(); err != nil {
				return nil, err
			}
			mid, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.COLON); err != nil {
				return nil, err
			}
			right, err := p.parseExpr(prec)
			if err != nil {
				return nil, err
			}
			left = &ast.Conditional{Cond: left, IfTrue: mid, IfFalse: right, Line: line}
		default:
			op := p.tok.Type
			line := p.tok.Line
			if err := p.advance(); err != nil {
				return nil, err
			}
			right, err := p.parseExpr(prec + 1)
			if err != nil {
				return nil, err
			}
			left = &ast.Binary{Op: binOpFor(op), Left: left, Right: right, Line: line}
		}
	}
}

// parseFactor: a constant, a parenthesized expression, a prefix unary
// operator applied to a factor, or an identifier.
func (p *Parser) parseFactor() (ast.Expr, error) {
	line := p.tok.Line
	switch p.tok.Type {
	case lexer.INT:
		v, err := strconv.ParseInt(p.tok.Lex, 10, 64)
		if err != nil || v > int64(^uint32(0)>>1) {
			return nil, &Error{Line: line, Got: fmt.Sprintf("integer literal %q out of range", p.tok.Lex)}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.NumLiteral{Value: int32(v), Line: line}, nil
	case lexer.IDENT:
		name := p.tok.Lex
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.Variable{Name: name, Line: line}, nil
	case lexer.LPAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case lexer.MINUS, lexer.TILDE, lexer.BANG:
		op := unaryOpFor(p.tok.Type)
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: op, Operand: operand, Line: line}, nil
	default:
		return nil, &Error{Line: line, Got: tokDesc(p.tok)}
	}
}

func unaryOpFor(tt lexer.TokenType) ast.UnaryOp {
	switch tt {
	case lexer.MINUS:
		return ast.OpNegate
	case lexer.TILDE:
		return ast.OpComplement
	case lexer.BANG:
		return ast.OpNot
	}
	panic("unreachable unaryOpFor")
}
