package ast

import "github.com/mna/rill/lang/token"

// The twelve expression variants of spec.md §3. Each embeds exprBase for
// its id/line bookkeeping.
type (
	// BinaryExpr represents left op right, e.g. 1 + 2.
	BinaryExpr struct {
		exprBase
		Left  Expr
		Op    token.Token
		Right Expr
	}

	// LogicalExpr represents left (and|or) right. Kept distinct from
	// BinaryExpr because its short-circuit semantics differ (spec.md §3).
	LogicalExpr struct {
		exprBase
		Left  Expr
		Op    token.Token
		Right Expr
	}

	// UnaryExpr represents op operand, e.g. -4 or !done.
	UnaryExpr struct {
		exprBase
		Op      token.Token
		Operand Expr
	}

	// GroupingExpr represents a parenthesized expression.
	GroupingExpr struct {
		exprBase
		Inner Expr
	}

	// LiteralExpr represents a literal nil/bool/number/string value.
	LiteralExpr struct {
		exprBase
		// Value is nil, bool, float64 or string.
		Value any
	}

	// VariableExpr represents a bare identifier used as an expression.
	VariableExpr struct {
		exprBase
		Name token.Token
	}

	// AssignExpr represents name = value.
	AssignExpr struct {
		exprBase
		Name  token.Token
		Value Expr
	}

	// CallExpr represents callee(args...).
	CallExpr struct {
		exprBase
		Callee Expr
		Paren  token.Token // closing ')', used for error line reporting
		Args   []Expr
	}

	// GetExpr represents object.name, a property read.
	GetExpr struct {
		exprBase
		Object Expr
		Name   token.Token
	}

	// SetExpr represents object.name = value, a property write.
	SetExpr struct {
		exprBase
		Object Expr
		Name   token.Token
		Value  Expr
	}

	// ThisExpr represents the `this` keyword used as an expression.
	ThisExpr struct {
		exprBase
		Keyword token.Token
	}

	// SuperExpr represents `super.method`.
	SuperExpr struct {
		exprBase
		Keyword token.Token
		Method  token.Token
	}
)

func NewBinaryExpr(left Expr, op token.Token, right Expr) *BinaryExpr {
	return &BinaryExpr{exprBase: newExprBase(op.Line), Left: left, Op: op, Right: right}
}

func NewLogicalExpr(left Expr, op token.Token, right Expr) *LogicalExpr {
	return &LogicalExpr{exprBase: newExprBase(op.Line), Left: left, Op: op, Right: right}
}

func NewUnaryExpr(op token.Token, operand Expr) *UnaryExpr {
	return &UnaryExpr{exprBase: newExprBase(op.Line), Op: op, Operand: operand}
}

func NewGroupingExpr(line int, inner Expr) *GroupingExpr {
	return &GroupingExpr{exprBase: newExprBase(line), Inner: inner}
}

func NewLiteralExpr(line int, value any) *LiteralExpr {
	return &LiteralExpr{exprBase: newExprBase(line), Value: value}
}

func NewVariableExpr(name token.Token) *VariableExpr {
	return &VariableExpr{exprBase: newExprBase(name.Line), Name: name}
}

func NewAssignExpr(name token.Token, value Expr) *AssignExpr {
	return &AssignExpr{exprBase: newExprBase(name.Line), Name: name, Value: value}
}

func NewCallExpr(callee Expr, paren token.Token, args []Expr) *CallExpr {
	return &CallExpr{exprBase: newExprBase(paren.Line), Callee: callee, Paren: paren, Args: args}
}

func NewGetExpr(object Expr, name token.Token) *GetExpr {
	return &GetExpr{exprBase: newExprBase(name.Line), Object: object, Name: name}
}

func NewSetExpr(object Expr, name token.Token, value Expr) *SetExpr {
	return &SetExpr{exprBase: newExprBase(name.Line), Object: object, Name: name, Value: value}
}

func NewThisExpr(keyword token.Token) *ThisExpr {
	return &ThisExpr{exprBase: newExprBase(keyword.Line), Keyword: keyword}
}

func NewSuperExpr(keyword, method token.Token) *SuperExpr {
	return &SuperExpr{exprBase: newExprBase(keyword.Line), Keyword: keyword, Method: method}
}
