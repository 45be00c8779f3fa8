// Package resolver implements the static scope-resolution pass: a single
// walk over the parsed statement list that computes, for every variable,
// `this` and `super` reference, how many enclosing scopes to skip to find
// its binding at runtime. See spec.md §4.3.
package resolver

import (
	"github.com/mna/rill/diag"
	"github.com/mna/rill/lang/ast"
)

// functionType tracks what kind of function body the resolver is currently
// inside, so that `return` and `this` can be validated contextually.
type functionType int

const (
	fnNone functionType = iota
	fnFunction
	fnMethod
	fnInitializer
)

// classType tracks whether the resolver is currently inside a class body,
// and whether that class has a superclass, so that `this`/`super` can be
// validated contextually.
type classType int

const (
	clsNone classType = iota
	clsClass
	clsSubclass
)

// Depths maps an expression node's identity (ast.Expr.ID()) to the number
// of enclosing environment frames to walk at evaluation time. An entry
// missing from this table means the reference resolves globally, by name.
type Depths map[uint32]int

// Resolve walks stmts and returns the depth table described above. Errors
// are reported to bag; resolution continues past an error so that later
// errors in the same program are still found, mirroring the scanner and
// parser's error-recovery discipline.
func Resolve(stmts []ast.Stmt, bag *diag.Bag) Depths {
	r := &resolver{bag: bag, depths: make(Depths)}
	r.resolveStmts(stmts)
	return r.depths
}

type resolver struct {
	bag *diag.Bag

	// scopes is a stack of block scopes; scopes[0] would be the outermost
	// local scope if one existed. Globals are never pushed here: an empty
	// stack means "resolve globally".
	scopes []map[string]bool

	depths Depths

	currentFunction functionType
	currentClass    classType
}

func (r *resolver) beginScope() { r.scopes = append(r.scopes, map[string]bool{}) }
func (r *resolver) endScope()   { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *resolver) peekScope() map[string]bool {
	if len(r.scopes) == 0 {
		return nil
	}
	return r.scopes[len(r.scopes)-1]
}

// declare inserts name into the current scope as "declared but not yet
// defined". Redeclaring a name already present in the current (non-global)
// scope is an error, per spec.md §4.3.
func (r *resolver) declare(name ast.Node, lexeme string) {
	scope := r.peekScope()
	if scope == nil {
		return
	}
	if _, ok := scope[lexeme]; ok {
		r.bag.Report(name.Line(), "", "A variable with that name already exists in this scope.")
	}
	scope[lexeme] = false
}

func (r *resolver) define(lexeme string) {
	scope := r.peekScope()
	if scope == nil {
		return
	}
	scope[lexeme] = true
}

// resolveLocal walks the scope stack from innermost outward, recording the
// hop count the first time it finds lexeme declared.
func (r *resolver) resolveLocal(expr ast.Expr, lexeme string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][lexeme]; ok {
			r.depths[expr.ID()] = len(r.scopes) - 1 - i
			return
		}
	}
	// not found in any local scope: resolves globally at runtime.
}

func (r *resolver) resolveStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		r.resolveStmt(s)
	}
}

func (r *resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		r.resolveExpr(s.Expr)

	case *ast.PrintStmt:
		r.resolveExpr(s.Expr)

	case *ast.VarStmt:
		r.declare(varNameNode{s.Name.Line}, s.Name.Lexeme)
		if s.Initializer != nil {
			r.resolveExpr(s.Initializer)
		}
		r.define(s.Name.Lexeme)

	case *ast.BlockStmt:
		r.beginScope()
		r.resolveStmts(s.Stmts)
		r.endScope()

	case *ast.IfStmt:
		r.resolveExpr(s.Cond)
		r.resolveStmt(s.Then)
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}

	case *ast.WhileStmt:
		r.resolveExpr(s.Cond)
		r.resolveStmt(s.Body)

	case *ast.BreakStmt:
		// no scope, no expression to resolve; legality was already checked
		// by the parser.

	case *ast.FunctionStmt:
		r.declare(varNameNode{s.Name.Line}, s.Name.Lexeme)
		r.define(s.Name.Lexeme)
		r.resolveFunction(s, fnFunction)

	case *ast.ReturnStmt:
		if r.currentFunction == fnNone {
			r.bag.Report(s.Line(), "", "Can't return from top-level code.")
		}
		if s.Value != nil {
			if r.currentFunction == fnInitializer {
				r.bag.Report(s.Line(), "", "Can't return a value from an initializer.")
			}
			r.resolveExpr(s.Value)
		}

	case *ast.ClassStmt:
		r.resolveClass(s)

	default:
		panic("resolver: unhandled statement type")
	}
}

// varNameNode is a minimal ast.Node used to report a declaration error at a
// token's line, without needing the token's own (non-existent) Node-ness.
type varNameNode struct{ line int }

func (v varNameNode) Line() int { return v.line }

func (r *resolver) resolveFunction(fn *ast.FunctionStmt, kind functionType) {
	enclosingFunction := r.currentFunction
	r.currentFunction = kind

	r.beginScope()
	for _, p := range fn.Params {
		r.declare(varNameNode{p.Line}, p.Lexeme)
		r.define(p.Lexeme)
	}
	r.resolveStmts(fn.Body)
	r.endScope()

	r.currentFunction = enclosingFunction
}

func (r *resolver) resolveClass(cls *ast.ClassStmt) {
	enclosingClass := r.currentClass
	r.currentClass = clsClass

	r.declare(varNameNode{cls.Name.Line}, cls.Name.Lexeme)
	r.define(cls.Name.Lexeme)

	if cls.Superclass != nil {
		if cls.Superclass.Name.Lexeme == cls.Name.Lexeme {
			r.bag.Report(cls.Superclass.Name.Line, "", "A class can't inherit from itself.")
		}
		r.currentClass = clsSubclass
		r.resolveExpr(cls.Superclass)

		r.beginScope()
		r.peekScope()["super"] = true
	}

	r.beginScope()
	r.peekScope()["this"] = true

	for _, m := range cls.Methods {
		kind := fnMethod
		if m.Name.Lexeme == "init" {
			kind = fnInitializer
		}
		r.resolveFunction(m, kind)
	}

	r.endScope()
	if cls.Superclass != nil {
		r.endScope()
	}

	r.currentClass = enclosingClass
}

func (r *resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.BinaryExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.LogicalExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.UnaryExpr:
		r.resolveExpr(e.Operand)

	case *ast.GroupingExpr:
		r.resolveExpr(e.Inner)

	case *ast.LiteralExpr:
		// nothing to resolve

	case *ast.VariableExpr:
		if scope := r.peekScope(); scope != nil {
			if defined, ok := scope[e.Name.Lexeme]; ok && !defined {
				r.bag.Report(e.Line(), "", "Can't read local variable in its own initializer.")
			}
		}
		r.resolveLocal(e, e.Name.Lexeme)

	case *ast.AssignExpr:
		r.resolveExpr(e.Value)
		r.resolveLocal(e, e.Name.Lexeme)

	case *ast.CallExpr:
		r.resolveExpr(e.Callee)
		for _, a := range e.Args {
			r.resolveExpr(a)
		}

	case *ast.GetExpr:
		r.resolveExpr(e.Object)

	case *ast.SetExpr:
		r.resolveExpr(e.Value)
		r.resolveExpr(e.Object)

	case *ast.ThisExpr:
		if r.currentClass == clsNone {
			r.bag.Report(e.Line(), "", "Can't use 'this' outside of a class.")
			return
		}
		r.resolveLocal(e, "this")

	case *ast.SuperExpr:
		switch r.currentClass {
		case clsNone:
			r.bag.Report(e.Line(), "", "Can't use 'super' outside of a class.")
			return
		case clsClass:
			r.bag.Report(e.Line(), "", "Can't use 'super' in a class with no superclass.")
			return
		}
		r.resolveLocal(e, "super")

	default:
		panic("resolver: unhandled expression type")
	}
}
