// Package parser implements the recursive-descent parser that turns a
// token stream into the statement list described by spec.md §4.2.
package parser

import (
	"fmt"

	"github.com/mna/rill/diag"
	"github.com/mna/rill/lang/ast"
	"github.com/mna/rill/lang/token"
	"golang.org/x/exp/slices"
)

// maxArgs is the arity cap for both call arguments and function parameters
// (spec.md §4.2): reported as an error, but parsing proceeds regardless.
const maxArgs = 255

// parseError is raised internally to trigger synchronization; it is always
// recovered by declaration and never escapes Parse.
type parseError struct{ msg string }

func (e *parseError) Error() string { return e.msg }

// parser holds the mutable state of a single parse.
type parser struct {
	toks []token.Token
	cur  int
	bag  *diag.Bag

	// loopDepth tracks nesting inside while/for bodies, to validate that
	// break only appears inside a loop (spec.md §4.2, "Break legality").
	loopDepth int
}

// Parse parses the full token stream into a program (a list of
// statements). Parse errors are reported to bag and the parser
// synchronizes past them; the returned slice may be shorter than a
// fully-valid program but is always a prefix/interleaving of valid
// statements. It is nil when no statement was parsed (an empty or
// comment-only source, or one where every declaration failed).
func Parse(toks []token.Token, bag *diag.Bag) []ast.Stmt {
	p := &parser{toks: toks, bag: bag}
	var stmts []ast.Stmt
	for !p.isAtEnd() {
		if s := p.declaration(); s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// ---- token stream helpers ----

func (p *parser) isAtEnd() bool   { return p.peek().Kind == token.EOF }
func (p *parser) peek() token.Token { return p.toks[p.cur] }
func (p *parser) previous() token.Token { return p.toks[p.cur-1] }

func (p *parser) advance() token.Token {
	if !p.isAtEnd() {
		p.cur++
	}
	return p.previous()
}

func (p *parser) check(k token.Kind) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Kind == k
}

func (p *parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *parser) consume(k token.Kind, message string) (token.Token, error) {
	if p.check(k) {
		return p.advance(), nil
	}
	return token.Token{}, p.errorAt(p.peek(), message)
}

// errorAt reports a parse error at tok's position, using spec.md §6's
// "at end"/"at '<lexeme>'" disambiguation, and returns a parseError for the
// caller to propagate up to the nearest recovery point.
func (p *parser) errorAt(tok token.Token, message string) error {
	where := fmt.Sprintf(" at '%s'", tok.Lexeme)
	if tok.Kind == token.EOF {
		where = " at end"
	}
	p.bag.Report(tok.Line, where, message)
	return &parseError{msg: message}
}

// synchronize discards tokens until it passes a ';' or lands on the start
// of a statement, so that a later declaration can resume parsing cleanly.
var stmtStartKinds = []token.Kind{
	token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE,
	token.PRINT, token.RETURN,
}

func (p *parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.previous().Kind == token.SEMI {
			return
		}
		if slices.Contains(stmtStartKinds, p.peek().Kind) {
			return
		}
		p.advance()
	}
}

// ---- declarations ----

func (p *parser) declaration() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*parseError); ok {
				p.synchronize()
				stmt = nil
				return
			}
			panic(r)
		}
	}()

	switch {
	case p.match(token.VAR):
		return p.varDecl()
	case p.match(token.FUN):
		return p.function("function")
	case p.match(token.CLASS):
		return p.classDecl()
	default:
		return p.statement()
	}
}

// must panics with the error so that declaration's deferred recover can
// synchronize; every recursive-descent production below calls into must
// for productions that cannot locally decide how to recover.
func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func (p *parser) varDecl() ast.Stmt {
	name := must(p.consume(token.IDENT, "Expect variable name."))

	var init ast.Expr
	if p.match(token.EQ) {
		init = p.expression()
	}
	must(p.consume(token.SEMI, "Expect ';' after variable declaration."))
	return ast.NewVarStmt(name, init)
}

func (p *parser) function(kind string) *ast.FunctionStmt {
	name := must(p.consume(token.IDENT, "Expect "+kind+" name."))
	must(p.consume(token.LPAREN, "Expect '(' after "+kind+" name."))

	var params []token.Token
	if !p.check(token.RPAREN) {
		for {
			if len(params) >= maxArgs {
				p.errorAt(p.peek(), fmt.Sprintf("Can't have more than %d parameters.", maxArgs))
			}
			params = append(params, must(p.consume(token.IDENT, "Expect parameter name.")))
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	must(p.consume(token.RPAREN, "Expect ')' after parameters."))
	must(p.consume(token.LBRACE, "Expect '{' before "+kind+" body."))
	body := p.block()
	return ast.NewFunctionStmt(name, params, body)
}

func (p *parser) classDecl() ast.Stmt {
	name := must(p.consume(token.IDENT, "Expect class name."))

	var superclass *ast.VariableExpr
	if p.match(token.LT) {
		superName := must(p.consume(token.IDENT, "Expect superclass name."))
		superclass = ast.NewVariableExpr(superName)
	}

	must(p.consume(token.LBRACE, "Expect '{' before class body."))
	var methods []*ast.FunctionStmt
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		methods = append(methods, p.function("method"))
	}
	must(p.consume(token.RBRACE, "Expect '}' after class body."))
	return ast.NewClassStmt(name, superclass, methods)
}

// ---- statements ----

func (p *parser) statement() ast.Stmt {
	switch {
	case p.match(token.PRINT):
		return p.printStmt()
	case p.match(token.LBRACE):
		line := p.previous().Line
		return ast.NewBlockStmt(line, p.block())
	case p.match(token.IF):
		return p.ifStmt()
	case p.match(token.WHILE):
		return p.whileStmt()
	case p.match(token.FOR):
		return p.forStmt()
	case p.match(token.BREAK):
		return p.breakStmt()
	case p.match(token.RETURN):
		return p.returnStmt()
	default:
		return p.exprStmt()
	}
}

func (p *parser) printStmt() ast.Stmt {
	keyword := p.previous()
	value := p.expression()
	must(p.consume(token.SEMI, "Expect ';' after value."))
	return ast.NewPrintStmt(keyword.Line, value)
}

func (p *parser) exprStmt() ast.Stmt {
	expr := p.expression()
	must(p.consume(token.SEMI, "Expect ';' after expression."))
	return ast.NewExpressionStmt(expr.Line(), expr)
}

func (p *parser) block() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if s := p.declaration(); s != nil {
			stmts = append(stmts, s)
		}
	}
	must(p.consume(token.RBRACE, "Expect '}' after block."))
	return stmts
}

func (p *parser) ifStmt() ast.Stmt {
	line := p.previous().Line
	must(p.consume(token.LPAREN, "Expect '(' after 'if'."))
	cond := p.expression()
	must(p.consume(token.RPAREN, "Expect ')' after if condition."))

	then := p.statement()
	var else_ ast.Stmt
	if p.match(token.ELSE) {
		else_ = p.statement()
	}
	return ast.NewIfStmt(line, cond, then, else_)
}

func (p *parser) whileStmt() ast.Stmt {
	line := p.previous().Line
	must(p.consume(token.LPAREN, "Expect '(' after 'while'."))
	cond := p.expression()
	must(p.consume(token.RPAREN, "Expect ')' after condition."))

	p.loopDepth++
	body := p.statement()
	p.loopDepth--
	return ast.NewWhileStmt(line, cond, body)
}

// forStmt desugars `for (init; cond; incr) body` into
// Block{[init, While(cond ?? true, Block{[body, incr]})]}, per spec.md
// §4.2's "For-loop desugaring". The outer Block is omitted when there is no
// initializer, and the inner Block when there is no increment.
func (p *parser) forStmt() ast.Stmt {
	line := p.previous().Line
	must(p.consume(token.LPAREN, "Expect '(' after 'for'."))

	var init ast.Stmt
	switch {
	case p.match(token.SEMI):
		// no initializer
	case p.match(token.VAR):
		init = p.varDecl()
	default:
		init = p.exprStmt()
	}

	var cond ast.Expr
	if !p.check(token.SEMI) {
		cond = p.expression()
	}
	must(p.consume(token.SEMI, "Expect ';' after loop condition."))

	var incr ast.Expr
	if !p.check(token.RPAREN) {
		incr = p.expression()
	}
	must(p.consume(token.RPAREN, "Expect ')' after for clauses."))

	p.loopDepth++
	body := p.statement()
	p.loopDepth--

	if incr != nil {
		body = ast.NewBlockStmt(line, []ast.Stmt{body, ast.NewExpressionStmt(incr.Line(), incr)})
	}
	if cond == nil {
		cond = ast.NewLiteralExpr(line, true)
	}
	body = ast.NewWhileStmt(line, cond, body)
	if init != nil {
		body = ast.NewBlockStmt(line, []ast.Stmt{init, body})
	}
	return body
}

func (p *parser) breakStmt() ast.Stmt {
	keyword := p.previous()
	if p.loopDepth == 0 {
		panic(p.errorAt(keyword, "Expect 'break' to appear inside a loop."))
	}
	must(p.consume(token.SEMI, "Expect ';' after 'break'."))
	return ast.NewBreakStmt(keyword)
}

func (p *parser) returnStmt() ast.Stmt {
	keyword := p.previous()
	var value ast.Expr
	if !p.check(token.SEMI) {
		value = p.expression()
	}
	must(p.consume(token.SEMI, "Expect ';' after return value."))
	return ast.NewReturnStmt(keyword, value)
}

// ---- expressions ----

func (p *parser) expression() ast.Expr {
	return p.assignment()
}

// assignment is right-associative: target "=" assignment, otherwise
// logic_or. The left-hand side is parsed as a full expression first and
// then validated, per spec.md §4.2's "Assignment target rules".
func (p *parser) assignment() ast.Expr {
	expr := p.or()

	if p.match(token.EQ) {
		eq := p.previous()
		value := p.assignment()

		switch e := expr.(type) {
		case *ast.VariableExpr:
			return ast.NewAssignExpr(e.Name, value)
		case *ast.GetExpr:
			return ast.NewSetExpr(e.Object, e.Name, value)
		default:
			p.errorAt(eq, "Invalid assignment target.")
			return expr
		}
	}
	return expr
}

func (p *parser) or() ast.Expr {
	expr := p.and()
	for p.match(token.OR) {
		op := p.previous()
		right := p.and()
		expr = ast.NewLogicalExpr(expr, op, right)
	}
	return expr
}

func (p *parser) and() ast.Expr {
	expr := p.equality()
	for p.match(token.AND) {
		op := p.previous()
		right := p.equality()
		expr = ast.NewLogicalExpr(expr, op, right)
	}
	return expr
}

// leadingBinaryOps are the binary operators that can never legally begin an
// expression (unary '-' and '!' are excluded, they are valid prefixes).
// Encountering one here means the left-hand operand is missing; spec.md
// §4.2's "Illegal leading binary operators".
var leadingBinaryOps = []token.Kind{
	token.BANG_EQ, token.EQ_EQ, token.LT, token.LT_EQ, token.GT, token.GT_EQ,
	token.PLUS, token.SLASH, token.STAR,
}

func (p *parser) equality() ast.Expr {
	p.detectIllegalLeadingBinary()
	expr := p.comparison()
	for p.match(token.BANG_EQ, token.EQ_EQ) {
		op := p.previous()
		right := p.comparison()
		expr = ast.NewBinaryExpr(expr, op, right)
	}
	return expr
}

func (p *parser) detectIllegalLeadingBinary() {
	if !slices.Contains(leadingBinaryOps, p.peek().Kind) {
		return
	}
	op := p.advance()
	// discard the right-hand operand; any parse error while doing so is
	// swallowed, the illegal-operator error below is the one that matters.
	func() {
		defer func() { _ = recover() }()
		p.expression()
	}()
	panic(p.errorAt(op, "Expected expression left of binary operator"))
}

func (p *parser) comparison() ast.Expr {
	expr := p.term()
	for p.match(token.GT, token.GT_EQ, token.LT, token.LT_EQ) {
		op := p.previous()
		right := p.term()
		expr = ast.NewBinaryExpr(expr, op, right)
	}
	return expr
}

func (p *parser) term() ast.Expr {
	expr := p.factor()
	for p.match(token.MINUS, token.PLUS) {
		op := p.previous()
		right := p.factor()
		expr = ast.NewBinaryExpr(expr, op, right)
	}
	return expr
}

func (p *parser) factor() ast.Expr {
	expr := p.unary()
	for p.match(token.SLASH, token.STAR) {
		op := p.previous()
		right := p.unary()
		expr = ast.NewBinaryExpr(expr, op, right)
	}
	return expr
}

func (p *parser) unary() ast.Expr {
	if p.match(token.BANG, token.MINUS) {
		op := p.previous()
		operand := p.unary()
		return ast.NewUnaryExpr(op, operand)
	}
	return p.call()
}

func (p *parser) call() ast.Expr {
	expr := p.primary()
	for {
		switch {
		case p.match(token.LPAREN):
			expr = p.finishCall(expr)
		case p.match(token.DOT):
			name := must(p.consume(token.IDENT, "Expect property name after '.'."))
			expr = ast.NewGetExpr(expr, name)
		default:
			return expr
		}
	}
}

func (p *parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(token.RPAREN) {
		for {
			if len(args) >= maxArgs {
				p.errorAt(p.peek(), fmt.Sprintf("Can't have more than %d arguments.", maxArgs))
			}
			args = append(args, p.expression())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	paren := must(p.consume(token.RPAREN, "Expect ')' after arguments."))
	return ast.NewCallExpr(callee, paren, args)
}

func (p *parser) primary() ast.Expr {
	switch {
	case p.match(token.FALSE):
		return ast.NewLiteralExpr(p.previous().Line, false)
	case p.match(token.TRUE):
		return ast.NewLiteralExpr(p.previous().Line, true)
	case p.match(token.NIL):
		return ast.NewLiteralExpr(p.previous().Line, nil)
	case p.match(token.NUMBER):
		return ast.NewLiteralExpr(p.previous().Line, p.previous().Value.Num)
	case p.match(token.STRING):
		return ast.NewLiteralExpr(p.previous().Line, p.previous().Value.Str)
	case p.match(token.THIS):
		return ast.NewThisExpr(p.previous())
	case p.match(token.SUPER):
		keyword := p.previous()
		must(p.consume(token.DOT, "Expect '.' after 'super'."))
		method := must(p.consume(token.IDENT, "Expect superclass method name."))
		return ast.NewSuperExpr(keyword, method)
	case p.match(token.IDENT):
		return ast.NewVariableExpr(p.previous())
	case p.match(token.LPAREN):
		line := p.previous().Line
		expr := p.expression()
		must(p.consume(token.RPAREN, "Expect ')' after expression."))
		return ast.NewGroupingExpr(line, expr)
	}

	panic(p.errorAt(p.peek(), "Expect expression."))
}
