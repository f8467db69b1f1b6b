// Package hdl implements a small lexer and recursive-descent parser for a
// Verilog-subset HDL sufficient to exercise pkg/unroll end to end: module
// declarations, genvar, generate-for, always/while, assignment, and
// arithmetic/comparison expressions over integer constants and identifiers.
package hdl

import (
	"fmt"
	"strconv"

	"github.com/vrtl-hdl/vrtlc/pkg/ast"
	"github.com/vrtl-hdl/vrtlc/pkg/numeric"
)

// Parser builds pkg/ast trees from HDL source text, accumulating errors
// rather than stopping at the first one.
type Parser struct {
	l         *Lexer
	tree      *ast.Tree
	file      string
	curToken  Token
	peekToken Token
	errors    []string

	genvars      map[string]bool
	scope        int
	scopeCounter int

	genNames map[ast.Handle]string
}

// NewParser creates a Parser that appends nodes to tree as it reads from l.
func NewParser(tree *ast.Tree, l *Lexer, file string) *Parser {
	p := &Parser{
		l:        l,
		tree:     tree,
		file:     file,
		genvars:  make(map[string]bool),
		genNames: make(map[ast.Handle]string),
	}
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns every error accumulated while parsing.
func (p *Parser) Errors() []string {
	return p.errors
}

// GenerateNames maps each parsed generate-for loop handle to the name it
// was declared under (the identifier following "begin :"), which
// unroll.UnrollGenerate needs as its beginName argument.
func (p *Parser) GenerateNames() map[ast.Handle]string {
	return p.genNames
}

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, fmt.Sprintf("%s:%d:%d: %s", p.file, p.curToken.Line, p.curToken.Column, msg))
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) pos() ast.Pos {
	return ast.Pos{File: p.file, Line: p.curToken.Line, Column: p.curToken.Column}
}

func (p *Parser) curTokenIs(t TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expect(t TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("expected %s, got %s", t, p.curToken.Type))
	return false
}

// ParseModule parses a single module declaration and returns a container
// block holding its statements: generate-for loops emitted for elaboration
// and while loops (plus any bare assignments) emitted for optimization,
// in source order. Genvar declarations contribute no node; they only widen
// the set of names resolved at generate scope.
func (p *Parser) ParseModule() ast.Handle {
	pos := p.pos()
	if !p.expect(TokenModule) {
		return ast.Nil
	}
	name := ""
	if p.curTokenIs(TokenIdent) {
		name = p.curToken.Literal
		p.nextToken()
	} else {
		p.addError(fmt.Sprintf("expected module name, got %s", p.curToken.Type))
	}
	if !p.expect(TokenLParen) || !p.expect(TokenRParen) || !p.expect(TokenSemicolon) {
		return ast.Nil
	}

	var stmts []ast.Handle
	for !p.curTokenIs(TokenEndmodule) && !p.curTokenIs(TokenEOF) {
		stmts = append(stmts, p.parseModuleItem()...)
	}
	p.expect(TokenEndmodule)

	container := p.tree.NewBlock(pos, name, false, ast.Nil)
	p.tree.SetChain(container, ast.ChildBody, stmts)
	return container
}

func (p *Parser) parseModuleItem() []ast.Handle {
	switch p.curToken.Type {
	case TokenGenvar:
		p.parseGenvarDecl()
		return nil
	case TokenGenerate:
		if h := p.parseGenerateBlock(); h != ast.Nil {
			return []ast.Handle{h}
		}
		return nil
	case TokenAlways:
		return p.parseAlwaysBlock()
	default:
		p.addError(fmt.Sprintf("unexpected token in module body: %s", p.curToken.Type))
		p.nextToken()
		return nil
	}
}

func (p *Parser) parseGenvarDecl() {
	p.nextToken() // consume 'genvar'
	if !p.curTokenIs(TokenIdent) {
		p.addError(fmt.Sprintf("expected genvar name, got %s", p.curToken.Type))
		return
	}
	p.genvars[p.curToken.Literal] = true
	p.nextToken()
	p.expect(TokenSemicolon)
}

func (p *Parser) parseGenerateBlock() ast.Handle {
	p.nextToken() // consume 'generate'
	if !p.curTokenIs(TokenFor) {
		p.addError(fmt.Sprintf("expected for, got %s", p.curToken.Type))
		return ast.Nil
	}
	h := p.parseGenFor()
	p.expect(TokenEndgenerate)
	return h
}

func (p *Parser) parseGenFor() ast.Handle {
	pos := p.pos()
	p.nextToken() // consume 'for'
	if !p.expect(TokenLParen) {
		return ast.Nil
	}
	init := p.parseAssignExpr()
	if !p.expect(TokenSemicolon) {
		return ast.Nil
	}
	cond := p.parseExpr()
	if !p.expect(TokenSemicolon) {
		return ast.Nil
	}
	incr := p.parseAssignExpr()
	if !p.expect(TokenRParen) {
		return ast.Nil
	}
	if !p.expect(TokenBegin) || !p.expect(TokenColon) {
		return ast.Nil
	}
	blockName := ""
	if p.curTokenIs(TokenIdent) {
		blockName = p.curToken.Literal
		p.nextToken()
	} else {
		p.addError(fmt.Sprintf("expected generate block label, got %s", p.curToken.Type))
	}
	body := p.parseProcStmtList(TokenEnd)
	p.expect(TokenEnd)

	loop := p.tree.NewGenFor(pos, init, cond, incr, ast.Nil)
	p.tree.SetChain(loop, ast.ChildBody, body)
	if blockName != "" {
		p.genNames[loop] = blockName
	}
	return loop
}

func (p *Parser) parseAlwaysBlock() []ast.Handle {
	p.nextToken() // consume 'always'
	if !p.expect(TokenAt) || !p.expect(TokenLParen) {
		return nil
	}
	if p.curTokenIs(TokenStar) {
		p.nextToken()
	} else {
		p.addError(fmt.Sprintf("expected *, got %s", p.curToken.Type))
	}
	if !p.expect(TokenRParen) || !p.expect(TokenBegin) {
		return nil
	}

	p.scopeCounter++
	prevScope := p.scope
	p.scope = p.scopeCounter

	var stmts []ast.Handle
	for !p.curTokenIs(TokenEnd) && !p.curTokenIs(TokenEOF) {
		if s := p.parseProcStmt(); s != ast.Nil {
			stmts = append(stmts, s)
		}
	}
	p.expect(TokenEnd)
	p.scope = prevScope
	return stmts
}

// parseProcStmtList parses procedural statements until endTok without
// consuming it, returning them as a plain slice for the caller to attach
// via SetChain.
func (p *Parser) parseProcStmtList(endTok TokenType) []ast.Handle {
	var stmts []ast.Handle
	for !p.curTokenIs(endTok) && !p.curTokenIs(TokenEOF) {
		if s := p.parseProcStmt(); s != ast.Nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func (p *Parser) parseProcStmt() ast.Handle {
	switch p.curToken.Type {
	case TokenWhile:
		return p.parseWhileStmt()
	case TokenIdent:
		stmt := p.parseAssignExpr()
		p.expect(TokenSemicolon)
		return stmt
	default:
		p.addError(fmt.Sprintf("unexpected token in statement: %s", p.curToken.Type))
		p.nextToken()
		return ast.Nil
	}
}

func (p *Parser) parseWhileStmt() ast.Handle {
	pos := p.pos()
	p.nextToken() // consume 'while'
	if !p.expect(TokenLParen) {
		return ast.Nil
	}
	cond := p.parseExpr()
	if !p.expect(TokenRParen) || !p.expect(TokenBegin) {
		return ast.Nil
	}
	body := p.parseProcStmtList(TokenEnd)
	p.expect(TokenEnd)

	loop := p.tree.NewWhile(pos, cond, ast.Nil)
	p.tree.SetChain(loop, ast.ChildBody, body)
	return loop
}

// parseAssignExpr parses "ident = expr" and returns the assignment node.
func (p *Parser) parseAssignExpr() ast.Handle {
	pos := p.pos()
	if !p.curTokenIs(TokenIdent) {
		p.addError(fmt.Sprintf("expected identifier, got %s", p.curToken.Type))
		return ast.Nil
	}
	name := p.curToken.Literal
	p.nextToken()
	if !p.expect(TokenAssign) {
		return ast.Nil
	}
	rhs := p.parseExpr()
	lhs := p.tree.NewVarRef(pos, p.varIdentity(name), true)
	return p.tree.NewAssign(pos, lhs, rhs)
}

func (p *Parser) varIdentity(name string) ast.VarIdentity {
	if p.genvars[name] {
		return ast.VarIdentity{Name: name}
	}
	return ast.VarIdentity{Name: name, ScopeID: p.scope}
}

// Expression grammar, weakest to strongest binding:
//
//	expr       := comparison
//	comparison := additive (("<"|"<="|">"|">="|"=="|"!=") additive)?
//	additive   := term (("+"|"-") term)*
//	term       := unary (("*"|"/"|"%") unary)*
//	unary      := ("-"|"!") unary | primary
//	primary    := INT | IDENT | "(" expr ")"
func (p *Parser) parseExpr() ast.Handle {
	return p.parseComparison()
}

var comparisonOps = map[TokenType]ast.BinOp{
	TokenLt: ast.OpLt,
	TokenLe: ast.OpLe,
	TokenGt: ast.OpGt,
	TokenGe: ast.OpGe,
	TokenEq: ast.OpEq,
	TokenNe: ast.OpNe,
}

func (p *Parser) parseComparison() ast.Handle {
	left := p.parseAdditive()
	if op, ok := comparisonOps[p.curToken.Type]; ok {
		pos := p.pos()
		p.nextToken()
		right := p.parseAdditive()
		return p.tree.NewBinary(pos, op, left, right)
	}
	return left
}

func (p *Parser) parseAdditive() ast.Handle {
	left := p.parseTerm()
	for p.curTokenIs(TokenPlus) || p.curTokenIs(TokenMinus) {
		pos := p.pos()
		op := ast.OpAdd
		if p.curTokenIs(TokenMinus) {
			op = ast.OpSub
		}
		p.nextToken()
		right := p.parseTerm()
		left = p.tree.NewBinary(pos, op, left, right)
	}
	return left
}

func (p *Parser) parseTerm() ast.Handle {
	left := p.parseUnary()
	for p.curTokenIs(TokenStar) || p.curTokenIs(TokenSlash) || p.curTokenIs(TokenPercent) {
		pos := p.pos()
		var op ast.BinOp
		switch p.curToken.Type {
		case TokenStar:
			op = ast.OpMul
		case TokenSlash:
			op = ast.OpDiv
		default:
			op = ast.OpMod
		}
		p.nextToken()
		right := p.parseUnary()
		left = p.tree.NewBinary(pos, op, left, right)
	}
	return left
}

func (p *Parser) parseUnary() ast.Handle {
	if p.curTokenIs(TokenMinus) || p.curTokenIs(TokenNot) {
		pos := p.pos()
		op := ast.OpNeg
		if p.curTokenIs(TokenNot) {
			op = ast.OpNot
		}
		p.nextToken()
		return p.tree.NewUnary(pos, op, p.parseUnary())
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Handle {
	pos := p.pos()
	switch p.curToken.Type {
	case TokenInt:
		lit := p.curToken.Literal
		p.nextToken()
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			p.addError(fmt.Sprintf("invalid integer literal %q", lit))
			n = 0
		}
		return p.tree.NewConst(pos, numeric.FromInt64(n, numeric.Type{Width: 32, Sign: numeric.Signed}))
	case TokenIdent:
		name := p.curToken.Literal
		p.nextToken()
		return p.tree.NewVarRef(pos, p.varIdentity(name), false)
	case TokenLParen:
		p.nextToken()
		inner := p.parseExpr()
		p.expect(TokenRParen)
		return inner
	default:
		p.addError(fmt.Sprintf("expected expression, got %s", p.curToken.Type))
		p.nextToken()
		return ast.Nil
	}
}
