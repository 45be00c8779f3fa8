package ast

import "github.com/mna/rill/lang/token"

// The ten statement variants of spec.md §3. Each embeds stmtBase for its
// line bookkeeping.
type (
	// ExpressionStmt represents an expression used as a statement.
	ExpressionStmt struct {
		stmtBase
		Expr Expr
	}

	// PrintStmt represents `print expr;`.
	PrintStmt struct {
		stmtBase
		Expr Expr
	}

	// VarStmt represents `var name = initializer;` (initializer may be nil).
	VarStmt struct {
		stmtBase
		Name        token.Token
		Initializer Expr
	}

	// BlockStmt represents a `{ ... }` block.
	BlockStmt struct {
		stmtBase
		Stmts []Stmt
	}

	// IfStmt represents `if (cond) then [else else_]`.
	IfStmt struct {
		stmtBase
		Cond Expr
		Then Stmt
		Else Stmt // nil if no else branch
	}

	// WhileStmt represents `while (cond) body`.
	WhileStmt struct {
		stmtBase
		Cond Expr
		Body Stmt
	}

	// BreakStmt represents a `break;` statement.
	BreakStmt struct {
		stmtBase
		Keyword token.Token
	}

	// FunctionStmt represents a function declaration, `fun name(params) body`.
	// It also doubles as the node describing a class method.
	FunctionStmt struct {
		stmtBase
		Name   token.Token
		Params []token.Token
		Body   []Stmt
	}

	// ReturnStmt represents `return [value];`.
	ReturnStmt struct {
		stmtBase
		Keyword token.Token
		Value   Expr // nil if no value
	}

	// ClassStmt represents `class Name [< Superclass] { methods... }`.
	ClassStmt struct {
		stmtBase
		Name       token.Token
		Superclass *VariableExpr // nil if no superclass
		Methods    []*FunctionStmt
	}
)

func NewExpressionStmt(line int, expr Expr) *ExpressionStmt {
	return &ExpressionStmt{stmtBase: stmtBase{line: line}, Expr: expr}
}

func NewPrintStmt(line int, expr Expr) *PrintStmt {
	return &PrintStmt{stmtBase: stmtBase{line: line}, Expr: expr}
}

func NewVarStmt(name token.Token, initializer Expr) *VarStmt {
	return &VarStmt{stmtBase: stmtBase{line: name.Line}, Name: name, Initializer: initializer}
}

func NewBlockStmt(line int, stmts []Stmt) *BlockStmt {
	return &BlockStmt{stmtBase: stmtBase{line: line}, Stmts: stmts}
}

func NewIfStmt(line int, cond Expr, then, else_ Stmt) *IfStmt {
	return &IfStmt{stmtBase: stmtBase{line: line}, Cond: cond, Then: then, Else: else_}
}

func NewWhileStmt(line int, cond Expr, body Stmt) *WhileStmt {
	return &WhileStmt{stmtBase: stmtBase{line: line}, Cond: cond, Body: body}
}

func NewBreakStmt(keyword token.Token) *BreakStmt {
	return &BreakStmt{stmtBase: stmtBase{line: keyword.Line}, Keyword: keyword}
}

func NewFunctionStmt(name token.Token, params []token.Token, body []Stmt) *FunctionStmt {
	return &FunctionStmt{stmtBase: stmtBase{line: name.Line}, Name: name, Params: params, Body: body}
}

func NewReturnStmt(keyword token.Token, value Expr) *ReturnStmt {
	return &ReturnStmt{stmtBase: stmtBase{line: keyword.Line}, Keyword: keyword, Value: value}
}

func NewClassStmt(name token.Token, superclass *VariableExpr, methods []*FunctionStmt) *ClassStmt {
	return &ClassStmt{stmtBase: stmtBase{line: name.Line}, Name: name, Superclass: superclass, Methods: methods}
}
