package parser_test

import (
	"testing"

	"github.com/mna/rill/diag"
	"github.com/mna/rill/lang/ast"
	"github.com/mna/rill/lang/parser"
	"github.com/mna/rill/lang/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) ([]ast.Stmt, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag("test")
	toks := scanner.New([]byte(src), bag).ScanAll()
	stmts := parser.Parse(toks, bag)
	return stmts, bag
}

func TestParseExpressionStmt(t *testing.T) {
	stmts, bag := parse(t, "1 + 2 * 3;")
	require.False(t, bag.HadError())
	require.Len(t, stmts, 1)
	es, ok := stmts[0].(*ast.ExpressionStmt)
	require.True(t, ok)
	assert.Equal(t, "(+ 1 (* 2 3))", ast.Print(es.Expr))
}

func TestParsePrecedenceAndAssociativity(t *testing.T) {
	stmts, bag := parse(t, "1 - 2 - 3;")
	require.False(t, bag.HadError())
	es := stmts[0].(*ast.ExpressionStmt)
	assert.Equal(t, "(- (- 1 2) 3)", ast.Print(es.Expr))
}

func TestParseComparisonAndEquality(t *testing.T) {
	stmts, bag := parse(t, "1 < 2 == true;")
	require.False(t, bag.HadError())
	es := stmts[0].(*ast.ExpressionStmt)
	assert.Equal(t, "(== (< 1 2) true)", ast.Print(es.Expr))
}

func TestParseLogicalOperators(t *testing.T) {
	stmts, bag := parse(t, "true or false and true;")
	require.False(t, bag.HadError())
	es := stmts[0].(*ast.ExpressionStmt)
	// 'and' binds tighter than 'or'
	assert.Equal(t, "(or true (and false true))", ast.Print(es.Expr))
}

func TestParseUnaryAndGrouping(t *testing.T) {
	stmts, bag := parse(t, "-(1 + 2);")
	require.False(t, bag.HadError())
	es := stmts[0].(*ast.ExpressionStmt)
	assert.Equal(t, "(- (group (+ 1 2)))", ast.Print(es.Expr))
}

func TestParseVarDeclNoInitializer(t *testing.T) {
	stmts, bag := parse(t, "var x;")
	require.False(t, bag.HadError())
	vs, ok := stmts[0].(*ast.VarStmt)
	require.True(t, ok)
	assert.Equal(t, "x", vs.Name.Lexeme)
	assert.Nil(t, vs.Initializer)
}

func TestParseAssignment(t *testing.T) {
	stmts, bag := parse(t, "x = 1;")
	require.False(t, bag.HadError())
	es := stmts[0].(*ast.ExpressionStmt)
	_, ok := es.Expr.(*ast.AssignExpr)
	require.True(t, ok)
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	_, bag := parse(t, "1 + 2 = 3;")
	require.True(t, bag.HadError())
	assert.Contains(t, bag.Errors().Error(), "Invalid assignment target.")
}

func TestParseIfElse(t *testing.T) {
	stmts, bag := parse(t, "if (true) print 1; else print 2;")
	require.False(t, bag.HadError())
	ifs, ok := stmts[0].(*ast.IfStmt)
	require.True(t, ok)
	assert.NotNil(t, ifs.Then)
	assert.NotNil(t, ifs.Else)
}

func TestParseWhile(t *testing.T) {
	stmts, bag := parse(t, "while (true) print 1;")
	require.False(t, bag.HadError())
	_, ok := stmts[0].(*ast.WhileStmt)
	require.True(t, ok)
}

func TestParseForDesugarsToWhile(t *testing.T) {
	stmts, bag := parse(t, "for (var i = 0; i < 10; i = i + 1) print i;")
	require.False(t, bag.HadError())
	// desugared: Block{[var i, While(...){Block{[print, i=i+1]}}]}
	block, ok := stmts[0].(*ast.BlockStmt)
	require.True(t, ok)
	require.Len(t, block.Stmts, 2)
	_, ok = block.Stmts[0].(*ast.VarStmt)
	require.True(t, ok)
	ws, ok := block.Stmts[1].(*ast.WhileStmt)
	require.True(t, ok)
	body, ok := ws.Body.(*ast.BlockStmt)
	require.True(t, ok)
	assert.Len(t, body.Stmts, 2)
}

func TestParseForWithoutClausesUsesTrueCondition(t *testing.T) {
	stmts, bag := parse(t, "for (;;) print 1;")
	require.False(t, bag.HadError())
	ws, ok := stmts[0].(*ast.WhileStmt)
	require.True(t, ok)
	lit, ok := ws.Cond.(*ast.LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, true, lit.Value)
}

func TestParseBreakOutsideLoopIsError(t *testing.T) {
	_, bag := parse(t, "break;")
	require.True(t, bag.HadError())
	assert.Contains(t, bag.Errors().Error(), "Expect 'break' to appear inside a loop.")
}

func TestParseBreakInsideLoopIsOk(t *testing.T) {
	stmts, bag := parse(t, "while (true) break;")
	require.False(t, bag.HadError())
	ws := stmts[0].(*ast.WhileStmt)
	_, ok := ws.Body.(*ast.BreakStmt)
	require.True(t, ok)
}

func TestParseFunctionDecl(t *testing.T) {
	stmts, bag := parse(t, "fun add(a, b) { return a + b; }")
	require.False(t, bag.HadError())
	fn, ok := stmts[0].(*ast.FunctionStmt)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name.Lexeme)
	require.Len(t, fn.Params, 2)
	require.Len(t, fn.Body, 1)
	_, ok = fn.Body[0].(*ast.ReturnStmt)
	require.True(t, ok)
}

func TestParseClassDeclWithSuperclassAndMethods(t *testing.T) {
	stmts, bag := parse(t, "class Dog < Animal { speak() { print \"woof\"; } }")
	require.False(t, bag.HadError())
	cs, ok := stmts[0].(*ast.ClassStmt)
	require.True(t, ok)
	assert.Equal(t, "Dog", cs.Name.Lexeme)
	require.NotNil(t, cs.Superclass)
	assert.Equal(t, "Animal", cs.Superclass.Name.Lexeme)
	require.Len(t, cs.Methods, 1)
	assert.Equal(t, "speak", cs.Methods[0].Name.Lexeme)
}

func TestParseCallAndGetChain(t *testing.T) {
	stmts, bag := parse(t, "a.b().c;")
	require.False(t, bag.HadError())
	es := stmts[0].(*ast.ExpressionStmt)
	get, ok := es.Expr.(*ast.GetExpr)
	require.True(t, ok)
	assert.Equal(t, "c", get.Name.Lexeme)
	_, ok = get.Object.(*ast.CallExpr)
	require.True(t, ok)
}

func TestParseSetExpr(t *testing.T) {
	stmts, bag := parse(t, "a.b = 1;")
	require.False(t, bag.HadError())
	es := stmts[0].(*ast.ExpressionStmt)
	_, ok := es.Expr.(*ast.SetExpr)
	require.True(t, ok)
}

func TestParseThisAndSuper(t *testing.T) {
	stmts, bag := parse(t, "class A { m() { return this; } } class B < A { m() { return super.m(); } }")
	require.False(t, bag.HadError())
	require.Len(t, stmts, 2)
}

func TestParseTooManyArguments(t *testing.T) {
	src := "fun f() {}\nf("
	for i := 0; i < 256; i++ {
		if i > 0 {
			src += ", "
		}
		src += "1"
	}
	src += ");"
	_, bag := parse(t, src)
	require.True(t, bag.HadError())
	assert.Contains(t, bag.Errors().Error(), "Can't have more than 255 arguments.")
}

func TestParseMissingSemicolonIsError(t *testing.T) {
	_, bag := parse(t, "print 1")
	require.True(t, bag.HadError())
	assert.Contains(t, bag.Errors().Error(), "Expect ';' after value.")
}

func TestParseMissingExpressionAtEnd(t *testing.T) {
	_, bag := parse(t, "1 +")
	require.True(t, bag.HadError())
	assert.Contains(t, bag.Errors().Error(), "at end")
}

func TestParseIllegalLeadingBinaryOperator(t *testing.T) {
	_, bag := parse(t, "* 1;")
	require.True(t, bag.HadError())
	assert.Contains(t, bag.Errors().Error(), "Expected expression left of binary operator")
}

func TestParseSynchronizesAfterError(t *testing.T) {
	stmts, bag := parse(t, "var = ;\nvar x = 1;")
	require.True(t, bag.HadError())
	// synchronization should let the second, valid declaration still parse
	var foundX bool
	for _, s := range stmts {
		if vs, ok := s.(*ast.VarStmt); ok && vs.Name.Lexeme == "x" {
			foundX = true
		}
	}
	assert.True(t, foundX)
}
