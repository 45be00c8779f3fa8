package ast

import (
	"fmt"
	"strings"
)

// Print renders e as a fully-parenthesized Lisp-style s-expression, the
// classic debugging aid for a hand-written recursive-descent parser: it
// makes precedence and associativity visible at a glance in test failures
// and REPL introspection, without needing a full unparser.
func Print(e Expr) string {
	switch e := e.(type) {
	case *BinaryExpr:
		return parenthesize(e.Op.Lexeme, e.Left, e.Right)
	case *LogicalExpr:
		return parenthesize(e.Op.Lexeme, e.Left, e.Right)
	case *UnaryExpr:
		return parenthesize(e.Op.Lexeme, e.Operand)
	case *GroupingExpr:
		return parenthesize("group", e.Inner)
	case *LiteralExpr:
		if e.Value == nil {
			return "nil"
		}
		return fmt.Sprintf("%v", e.Value)
	case *VariableExpr:
		return e.Name.Lexeme
	case *AssignExpr:
		return parenthesize("= "+e.Name.Lexeme, e.Value)
	case *CallExpr:
		return parenthesize("call "+Print(e.Callee), e.Args...)
	case *GetExpr:
		return parenthesize(". "+e.Name.Lexeme, e.Object)
	case *SetExpr:
		return parenthesize("=. "+e.Name.Lexeme, e.Object, e.Value)
	case *ThisExpr:
		return "this"
	case *SuperExpr:
		return "super." + e.Method.Lexeme
	default:
		return fmt.Sprintf("<unknown expr %T>", e)
	}
}

func parenthesize(name string, exprs ...Expr) string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(name)
	for _, e := range exprs {
		sb.WriteByte(' ')
		sb.WriteString(Print(e))
	}
	sb.WriteByte(')')
	return sb.String()
}
