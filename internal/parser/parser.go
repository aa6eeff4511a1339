// Package parser implements a recursive-descent parser that turns a
// vanta token stream into an []ast.Expr program.
package parser

import (
	"fmt"

	"vanta/internal/ast"
	"vanta/internal/lexer"
	"vanta/internal/value"
	"vanta/internal/verrors"
)

// precedence documents the climbing order implemented by the methods
// below; it isn't consulted at runtime, but mirrors how the grammar is
// laid out (lowest to highest binding).
var precedence = map[lexer.TokenType]int{
	lexer.TokenOr:    1,
	lexer.TokenAnd:   2,
	lexer.TokenEqEq:  3,
	lexer.TokenNotEq: 3,
	lexer.TokenLT:    3,
	lexer.TokenGT:    3,
	lexer.TokenLE:    3,
	lexer.TokenGE:    3,
	lexer.TokenPlus:  4,
	lexer.TokenMinus: 4,
	lexer.TokenStar:  5,
	lexer.TokenSlash: 5,
	lexer.TokenPercent: 5,
	lexer.TokenCaret: 5,
}

type Parser struct {
	tokens  []lexer.Token
	current int
	Errors  []error
	file    string
}

func NewParser(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

func NewParserWithFile(tokens []lexer.Token, file string) *Parser {
	return &Parser{tokens: tokens, file: file}
}

// Parse consumes the whole token stream and returns the top-level
// program as a slice of statements.
func (p *Parser) Parse() []ast.Expr {
	var stmts []ast.Expr
	for !p.isAtEnd() {
		stmts = append(stmts, p.statement())
	}
	return stmts
}

func (p *Parser) statement() ast.Expr {
	switch {
	case p.match(lexer.TokenLet):
		name := p.consume(lexer.TokenIdent, "expect variable name after 'let'")
		p.consume(lexer.TokenEqual, "expect '=' after variable name")
		expr := p.expression()
		p.matchSemi()
		return ast.NewAssign(name.Lexeme, expr, false)

	case p.match(lexer.TokenFunction):
		return p.functionDef()

	case p.match(lexer.TokenIf):
		return p.ifStatement()

	case p.match(lexer.TokenWhile):
		return p.whileStatement()

	case p.match(lexer.TokenReturn):
		return p.returnStatement()

	case p.check(lexer.TokenIdent):
		if e, ok := p.tryAssignOrModify(); ok {
			return e
		}
		fallthrough

	default:
		e := p.expression()
		p.matchSemi()
		return e
	}
}

// tryAssignOrModify looks ahead past an identifier to see whether it
// begins a reassignment (`x = ...`) or a list-modify (`x[i]...[j] =
// ...`); if neither, it rewinds and reports ok=false so the caller
// falls back to parsing an ordinary expression statement.
//
// A list-modify always lowers to a reassignment of the whole name: the
// nested ListModify chain built by buildListModifyChain becomes the
// right-hand side of an Assign with Reassign=true. Without that
// wrapper the name is never rebound and `arr[1] = 99; print(arr);`
// would observe the old value.
func (p *Parser) tryAssignOrModify() (ast.Expr, bool) {
	save := p.current
	name := p.advance().Lexeme

	if p.check(lexer.TokenLBracket) {
		var idxExprs []ast.Expr
		for p.match(lexer.TokenLBracket) {
			idx := p.expression()
			p.consume(lexer.TokenRBracket, "expect ']' after index")
			idxExprs = append(idxExprs, idx)
		}
		if !p.match(lexer.TokenEqual) {
			p.current = save
			return nil, false
		}
		val := p.expression()
		p.matchSemi()
		return ast.NewAssign(name, buildListModifyChain(name, idxExprs, val), true), true
	}

	if p.match(lexer.TokenEqual) {
		val := p.expression()
		p.matchSemi()
		return ast.NewAssign(name, val, true), true
	}

	p.current = save
	return nil, false
}

// buildListModifyChain lowers `name[i0][i1]...[in-1] = val` into nested
// ListModify nodes, innermost index first: `arr[0][0] = v` becomes
// ListModify(arr, 0, ListModify(arr[0], 0, v))-shaped.
func buildListModifyChain(name string, idxExprs []ast.Expr, val ast.Expr) ast.Expr {
	n := len(idxExprs)
	chain := make([]ast.Expr, n)
	chain[0] = ast.NewVar(name)
	for i := 0; i < n-1; i++ {
		chain[i+1] = ast.NewListAccess(chain[i].Clone(), idxExprs[i])
	}

	curr := ast.NewListModify(chain[n-1], idxExprs[n-1], val)
	for i := n - 2; i >= 0; i-- {
		curr = ast.NewListModify(chain[i], idxExprs[i].Clone(), curr)
	}
	return curr
}

func (p *Parser) functionDef() ast.Expr {
	name := p.consume(lexer.TokenIdent, "expect function name").Lexeme
	p.consume(lexer.TokenLParen, "expect '(' after function name")
	var params []string
	if !p.check(lexer.TokenRParen) {
		for {
			params = append(params, p.consume(lexer.TokenIdent, "expect parameter name").Lexeme)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRParen, "expect ')' after parameters")
	p.consume(lexer.TokenLBrace, "expect '{' before function body")
	body := p.block()
	p.consume(lexer.TokenRBrace, "expect '}' after function body")
	return ast.NewFuncDef(name, params, body)
}

func (p *Parser) ifStatement() ast.Expr {
	p.consume(lexer.TokenLParen, "expect '(' after 'if'")
	cond := p.expression()
	p.consume(lexer.TokenRParen, "expect ')' after if condition")
	p.consume(lexer.TokenLBrace, "expect '{' before if body")
	thenBranch := p.block()
	p.consume(lexer.TokenRBrace, "expect '}' after if body")

	var elseBranch []ast.Expr
	if p.match(lexer.TokenElse) {
		if p.check(lexer.TokenIf) {
			p.advance()
			elseBranch = []ast.Expr{p.ifStatement()}
		} else {
			p.consume(lexer.TokenLBrace, "expect '{' before else body")
			elseBranch = p.block()
			p.consume(lexer.TokenRBrace, "expect '}' after else body")
		}
	}
	return ast.NewIf(cond, thenBranch, elseBranch)
}

func (p *Parser) whileStatement() ast.Expr {
	p.consume(lexer.TokenLParen, "expect '(' after 'while'")
	cond := p.expression()
	p.consume(lexer.TokenRParen, "expect ')' after while condition")
	p.consume(lexer.TokenLBrace, "expect '{' before while body")
	body := p.block()
	p.consume(lexer.TokenRBrace, "expect '}' after while body")
	return ast.NewWhile(cond, body)
}

func (p *Parser) returnStatement() ast.Expr {
	// `return;` (or `return` right before the closing brace) produces an
	// Empty node that still carries the returnable flag, matching the
	// boundary behavior of an empty return.
	if p.check(lexer.TokenSemi) || p.check(lexer.TokenRBrace) {
		p.matchSemi()
		e := ast.NewEmpty()
		e.SetReturnable(true)
		return e
	}
	expr := p.expression()
	p.matchSemi()
	expr.SetReturnable(true)
	return expr
}

func (p *Parser) block() []ast.Expr {
	var stmts []ast.Expr
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		stmts = append(stmts, p.statement())
	}
	return stmts
}

func (p *Parser) expression() ast.Expr { return p.orExpr() }

func (p *Parser) orExpr() ast.Expr {
	left := p.andExpr()
	for p.match(lexer.TokenOr) {
		right := p.andExpr()
		left = ast.NewBinary(ast.Or, left, right)
	}
	return left
}

func (p *Parser) andExpr() ast.Expr {
	left := p.comparison()
	for p.match(lexer.TokenAnd) {
		right := p.comparison()
		left = ast.NewBinary(ast.And, left, right)
	}
	return left
}

func (p *Parser) comparison() ast.Expr {
	left := p.term()
	for p.matchAny(lexer.TokenGT, lexer.TokenGE, lexer.TokenLT, lexer.TokenLE, lexer.TokenNotEq, lexer.TokenEqEq) {
		op := p.previous().Type
		right := p.term()
		switch op {
		case lexer.TokenGT:
			left = ast.NewBinary(ast.Gt, left, right)
		case lexer.TokenGE:
			left = ast.NewBinary(ast.Gte, left, right)
		case lexer.TokenLT:
			left = ast.NewBinary(ast.Lt, left, right)
		case lexer.TokenLE:
			// <= maps to Lte, not Gte.
			left = ast.NewBinary(ast.Lte, left, right)
		case lexer.TokenNotEq:
			left = ast.NewBinary(ast.Neq, left, right)
		case lexer.TokenEqEq:
			left = ast.NewBinary(ast.Eq, left, right)
		}
	}
	return left
}

func (p *Parser) term() ast.Expr {
	left := p.factor()
	for p.matchAny(lexer.TokenPlus, lexer.TokenMinus) {
		op := p.previous().Type
		right := p.factor()
		if op == lexer.TokenPlus {
			left = ast.NewBinary(ast.Add, left, right)
		} else {
			left = ast.NewBinary(ast.Sub, left, right)
		}
	}
	return left
}

func (p *Parser) factor() ast.Expr {
	left := p.unary()
	for p.matchAny(lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent, lexer.TokenCaret) {
		op := p.previous().Type
		right := p.unary()
		switch op {
		case lexer.TokenStar:
			left = ast.NewBinary(ast.Mul, left, right)
		case lexer.TokenSlash:
			left = ast.NewBinary(ast.Div, left, right)
		case lexer.TokenPercent:
			left = ast.NewBinary(ast.Mod, left, right)
		case lexer.TokenCaret:
			left = ast.NewBinary(ast.Pow, left, right)
		}
	}
	return left
}

func (p *Parser) unary() ast.Expr {
	switch {
	case p.match(lexer.TokenPrint):
		return ast.NewMonadic(ast.Print, p.unary())
	case p.match(lexer.TokenSize):
		return ast.NewMonadic(ast.Size, p.unary())
	case p.match(lexer.TokenMinus):
		return ast.NewMonadic(ast.Neg, p.unary())
	case p.match(lexer.TokenNot):
		return ast.NewMonadic(ast.Not, p.unary())
	}
	return p.atomic()
}

func (p *Parser) atomic() ast.Expr {
	switch {
	case p.match(lexer.TokenFalse):
		return ast.NewConst(value.Bool(false))
	case p.match(lexer.TokenTrue):
		return ast.NewConst(value.Bool(true))
	case p.match(lexer.TokenInt):
		lit := p.previous().Lexeme
		var n int
		fmt.Sscanf(lit, "%d", &n)
		return ast.NewConst(value.Int(n))
	case p.match(lexer.TokenString):
		return ast.NewConst(value.String(p.previous().Lexeme))
	case p.match(lexer.TokenIdent):
		name := p.previous().Lexeme

		if p.check(lexer.TokenLParen) {
			p.advance()
			var args []ast.Expr
			if !p.check(lexer.TokenRParen) {
				for {
					args = append(args, p.expression())
					if !p.match(lexer.TokenComma) {
						break
					}
				}
			}
			p.consume(lexer.TokenRParen, "expect ')' after call arguments")
			return ast.NewFuncCall(name, args)
		}

		var curr ast.Expr = ast.NewVar(name)
		for p.match(lexer.TokenLBracket) {
			idx := p.expression()
			p.consume(lexer.TokenRBracket, "expect ']' after index")
			curr = ast.NewListAccess(curr, idx)
		}
		return curr

	case p.match(lexer.TokenLBracket):
		var elements []ast.Expr
		if !p.check(lexer.TokenRBracket) {
			for {
				elements = append(elements, p.expression())
				if !p.match(lexer.TokenComma) {
					break
				}
			}
		}
		p.consume(lexer.TokenRBracket, "expect ']' after list elements")
		return ast.NewList(elements)

	case p.match(lexer.TokenLParen):
		inner := p.expression()
		p.consume(lexer.TokenRParen, "expect ')' after expression")
		return inner
	}

	p.errorf("expect expression, got %s", p.peek().String())
	// Consume the offending token so the statement loop makes progress.
	if !p.isAtEnd() {
		p.advance()
	}
	return ast.NewEmpty()
}

// --- cursor helpers ---

func (p *Parser) isAtEnd() bool { return p.peek().Type == lexer.TokenEOF }

func (p *Parser) peek() lexer.Token { return p.tokens[p.current] }

func (p *Parser) previous() lexer.Token { return p.tokens[p.current-1] }

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(t lexer.TokenType) bool {
	if p.isAtEnd() {
		return t == lexer.TokenEOF
	}
	return p.peek().Type == t
}

func (p *Parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchAny(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// matchSemi consumes an optional trailing ';'; vanta statements don't
// require one.
func (p *Parser) matchSemi() { p.match(lexer.TokenSemi) }

func (p *Parser) consume(t lexer.TokenType, message string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	p.errorf("%s (got %s)", message, p.peek().String())
	return p.peek()
}

func (p *Parser) errorf(format string, args ...interface{}) {
	err := verrors.Newf(verrors.Syntax, format, args...)
	if p.file != "" {
		tok := p.peek()
		err.WithLocation(p.file, tok.Line, tok.Col)
	}
	p.Errors = append(p.Errors, err)
}
