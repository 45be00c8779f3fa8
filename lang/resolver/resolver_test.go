package resolver_test

import (
	"testing"

	"github.com/mna/rill/diag"
	"github.com/mna/rill/lang/ast"
	"github.com/mna/rill/lang/parser"
	"github.com/mna/rill/lang/resolver"
	"github.com/mna/rill/lang/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, src string) ([]ast.Stmt, resolver.Depths, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag("test")
	toks := scanner.New([]byte(src), bag).ScanAll()
	stmts := parser.Parse(toks, bag)
	depths := resolver.Resolve(stmts, bag)
	return stmts, depths, bag
}

func exprStmtExpr(t *testing.T, s ast.Stmt) ast.Expr {
	t.Helper()
	es, ok := s.(*ast.ExpressionStmt)
	require.True(t, ok)
	return es.Expr
}

func TestResolveLocalVariable(t *testing.T) {
	stmts, depths, bag := resolve(t, "{ var x = 1; x; }")
	require.False(t, bag.HadError())
	block := stmts[0].(*ast.BlockStmt)
	ref := exprStmtExpr(t, block.Stmts[1]).(*ast.VariableExpr)
	assert.Equal(t, 0, depths[ref.ID()])
}

func TestResolveEnclosingScope(t *testing.T) {
	stmts, depths, bag := resolve(t, "{ var x = 1; { var y = 2; x; } }")
	require.False(t, bag.HadError())
	outer := stmts[0].(*ast.BlockStmt)
	inner := outer.Stmts[1].(*ast.BlockStmt)
	ref := exprStmtExpr(t, inner.Stmts[1]).(*ast.VariableExpr)
	assert.Equal(t, 1, depths[ref.ID()])
}

func TestResolveGlobalIsUnrecorded(t *testing.T) {
	stmts, depths, bag := resolve(t, "var x = 1; x;")
	require.False(t, bag.HadError())
	ref := exprStmtExpr(t, stmts[1]).(*ast.VariableExpr)
	_, ok := depths[ref.ID()]
	assert.False(t, ok)
}

func TestResolveSelfReferenceInInitializerIsError(t *testing.T) {
	_, _, bag := resolve(t, "{ var a = a; }")
	require.True(t, bag.HadError())
	assert.Contains(t, bag.Errors().Error(), "Can't read local variable in its own initializer.")
}

func TestResolveRedeclarationInSameScopeIsError(t *testing.T) {
	_, _, bag := resolve(t, "{ var a = 1; var a = 2; }")
	require.True(t, bag.HadError())
	assert.Contains(t, bag.Errors().Error(), "A variable with that name already exists in this scope.")
}

func TestResolveShadowingInNestedScopeIsOk(t *testing.T) {
	_, _, bag := resolve(t, "{ var a = 1; { var a = 2; } }")
	require.False(t, bag.HadError())
}

func TestResolveReturnOutsideFunctionIsError(t *testing.T) {
	_, _, bag := resolve(t, "return 1;")
	require.True(t, bag.HadError())
	assert.Contains(t, bag.Errors().Error(), "Can't return from top-level code.")
}

func TestResolveReturnValueFromInitializerIsError(t *testing.T) {
	_, _, bag := resolve(t, "class A { init() { return 1; } }")
	require.True(t, bag.HadError())
	assert.Contains(t, bag.Errors().Error(), "Can't return a value from an initializer.")
}

func TestResolveBareReturnFromInitializerIsOk(t *testing.T) {
	_, _, bag := resolve(t, "class A { init() { return; } }")
	require.False(t, bag.HadError())
}

func TestResolveThisOutsideClassIsError(t *testing.T) {
	_, _, bag := resolve(t, "fun f() { return this; }")
	require.True(t, bag.HadError())
	assert.Contains(t, bag.Errors().Error(), "Can't use 'this' outside of a class.")
}

func TestResolveSuperOutsideClassIsError(t *testing.T) {
	_, _, bag := resolve(t, "fun f() { return super.m(); }")
	require.True(t, bag.HadError())
	assert.Contains(t, bag.Errors().Error(), "Can't use 'super' outside of a class.")
}

func TestResolveSuperWithoutSuperclassIsError(t *testing.T) {
	_, _, bag := resolve(t, "class A { m() { return super.m(); } }")
	require.True(t, bag.HadError())
	assert.Contains(t, bag.Errors().Error(), "Can't use 'super' in a class with no superclass.")
}

func TestResolveClassInheritingFromItselfIsError(t *testing.T) {
	_, _, bag := resolve(t, "class A < A {}")
	require.True(t, bag.HadError())
	assert.Contains(t, bag.Errors().Error(), "A class can't inherit from itself.")
}

func TestResolveValidSubclassWithSuper(t *testing.T) {
	_, _, bag := resolve(t, "class A { m() {} } class B < A { m() { return super.m(); } }")
	require.False(t, bag.HadError())
}

func TestResolveFunctionParamsAreLocal(t *testing.T) {
	stmts, depths, bag := resolve(t, "fun f(a) { a; }")
	require.False(t, bag.HadError())
	fn := stmts[0].(*ast.FunctionStmt)
	ref := exprStmtExpr(t, fn.Body[0]).(*ast.VariableExpr)
	assert.Equal(t, 0, depths[ref.ID()])
}

func TestResolveClosureCapturesEnclosingLocal(t *testing.T) {
	stmts, depths, bag := resolve(t, "fun outer() { var x = 1; fun inner() { return x; } return inner; }")
	require.False(t, bag.HadError())
	outer := stmts[0].(*ast.FunctionStmt)
	inner := outer.Body[1].(*ast.FunctionStmt)
	ret := inner.Body[0].(*ast.ReturnStmt)
	ref := ret.Value.(*ast.VariableExpr)
	assert.Equal(t, 1, depths[ref.ID()])
}
