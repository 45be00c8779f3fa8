// Package interp implements the tree-walking evaluator: it executes a
// resolved statement list directly against an environment chain, per
// spec.md §4.5.
package interp

import (
	"fmt"
	"io"
	"time"

	"github.com/dolthub/swiss"
	"github.com/mna/rill/diag"
	"github.com/mna/rill/lang/ast"
	"github.com/mna/rill/lang/environment"
	"github.com/mna/rill/lang/resolver"
	"github.com/mna/rill/lang/token"
	"github.com/mna/rill/lang/value"
)

// signalKind distinguishes the two non-local control-flow signals the
// evaluator propagates up from nested statements.
type signalKind int

const (
	sigReturn signalKind = iota
	sigBreak
)

// controlSignal is returned alongside a nil error from execStmt to unwind
// to the nearest enclosing call (sigReturn) or loop (sigBreak), per
// spec.md §9's "sum-typed result" option. It is never a panic: a stray
// break that somehow reached the top of Interpret would be a bug in this
// package, not something any other component could observe or recover.
type controlSignal struct {
	kind  signalKind
	value value.Value
}

// Interpreter holds the mutable state of a single evaluation run: the
// global frame, the currently active frame, the resolver's depth table,
// and the writer `print` statements write to.
type Interpreter struct {
	globals *environment.Environment
	env     *environment.Environment
	depths  resolver.Depths
	out     io.Writer
}

// New returns an Interpreter with `clock` already defined in globals, per
// spec.md §4.5's initialization rule.
func New(out io.Writer, depths resolver.Depths) *Interpreter {
	globals := environment.New()
	globals.Define("clock", &value.NativeFunction{
		NameStr: "clock",
		Ar:      0,
		Fn: func(args []value.Value) (value.Value, error) {
			return value.Number(float64(time.Now().UnixNano()) / 1e9), nil
		},
	})
	return &Interpreter{globals: globals, env: globals, depths: depths, out: out}
}

// MergeDepths adds d's entries into the interpreter's depth table. Expression
// ids are assigned from a single process-wide counter (ast.NewID), so two
// depth tables built from separate parses never collide on a key; this lets
// a REPL resolve and merge one line at a time while keeping a single
// Interpreter (and its globals) alive across the whole session.
func (it *Interpreter) MergeDepths(d resolver.Depths) {
	for id, depth := range d {
		it.depths[id] = depth
	}
}

// Interpret executes stmts in order and returns the first runtime error
// encountered, or nil on a clean run. Evaluation stops at the first error,
// per spec.md §7.
func (it *Interpreter) Interpret(stmts []ast.Stmt) *diag.RuntimeError {
	for _, s := range stmts {
		if _, err := it.execStmt(s); err != nil {
			return asRuntimeError(err)
		}
	}
	return nil
}

func asRuntimeError(err error) *diag.RuntimeError {
	if err == nil {
		return nil
	}
	rt, ok := err.(*diag.RuntimeError)
	if !ok {
		panic(fmt.Sprintf("interp: non-runtime error escaped evaluation: %v", err))
	}
	return rt
}

func toValue(v any) value.Value { return v.(value.Value) }

// ---- statements ----

func (it *Interpreter) execStmt(stmt ast.Stmt) (*controlSignal, error) {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		_, err := it.evalExpr(s.Expr)
		return nil, err

	case *ast.PrintStmt:
		v, err := it.evalExpr(s.Expr)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(it.out, stringify(v))
		return nil, nil

	case *ast.VarStmt:
		v := value.Value(value.NilValue)
		if s.Initializer != nil {
			var err error
			v, err = it.evalExpr(s.Initializer)
			if err != nil {
				return nil, err
			}
		}
		it.env.Define(s.Name.Lexeme, v)
		return nil, nil

	case *ast.BlockStmt:
		return it.execBlock(s.Stmts, it.env.Child())

	case *ast.IfStmt:
		cond, err := it.evalExpr(s.Cond)
		if err != nil {
			return nil, err
		}
		if value.Truthy(cond) {
			return it.execStmt(s.Then)
		} else if s.Else != nil {
			return it.execStmt(s.Else)
		}
		return nil, nil

	case *ast.WhileStmt:
		for {
			cond, err := it.evalExpr(s.Cond)
			if err != nil {
				return nil, err
			}
			if !value.Truthy(cond) {
				return nil, nil
			}
			ctrl, err := it.execStmt(s.Body)
			if err != nil {
				return nil, err
			}
			if ctrl != nil {
				if ctrl.kind == sigBreak {
					return nil, nil
				}
				return ctrl, nil
			}
		}

	case *ast.BreakStmt:
		return &controlSignal{kind: sigBreak}, nil

	case *ast.FunctionStmt:
		fn := &value.Function{Declaration: s, Closure: it.env}
		it.env.Define(s.Name.Lexeme, fn)
		return nil, nil

	case *ast.ReturnStmt:
		v := value.Value(value.NilValue)
		if s.Value != nil {
			var err error
			v, err = it.evalExpr(s.Value)
			if err != nil {
				return nil, err
			}
		}
		return &controlSignal{kind: sigReturn, value: v}, nil

	case *ast.ClassStmt:
		return it.execClass(s)

	default:
		panic(fmt.Sprintf("interp: unhandled statement type %T", stmt))
	}
}

// execBlock runs stmts against env, always restoring the previously active
// environment on every exit path (normal, signal, or error), per spec.md
// §4.5's "Block" rule.
func (it *Interpreter) execBlock(stmts []ast.Stmt, env *environment.Environment) (*controlSignal, error) {
	previous := it.env
	it.env = env
	defer func() { it.env = previous }()

	for _, s := range stmts {
		ctrl, err := it.execStmt(s)
		if err != nil {
			return nil, err
		}
		if ctrl != nil {
			return ctrl, nil
		}
	}
	return nil, nil
}

func (it *Interpreter) execClass(s *ast.ClassStmt) (*controlSignal, error) {
	it.env.Define(s.Name.Lexeme, value.NilValue)

	var superclass *value.Class
	if s.Superclass != nil {
		superVal, err := it.evalExpr(s.Superclass)
		if err != nil {
			return nil, err
		}
		sc, ok := superVal.(*value.Class)
		if !ok {
			return nil, diag.NewRuntimeError(s.Superclass.Line(), "Superclass must be a class.")
		}
		superclass = sc
	}

	methodEnv := it.env
	if s.Superclass != nil {
		methodEnv = it.env.Child()
		methodEnv.Define("super", superclass)
	}

	methods := swiss.NewMap[string, *value.Function](len(s.Methods))
	for _, m := range s.Methods {
		fn := &value.Function{
			Declaration:   m,
			Closure:       methodEnv,
			IsInitializer: m.Name.Lexeme == "init",
		}
		methods.Put(m.Name.Lexeme, fn)
	}

	cls := &value.Class{Name: s.Name.Lexeme, Superclass: superclass, Methods: methods}
	return nil, it.env.Assign(s.Name, cls)
}

// ---- expressions ----

func (it *Interpreter) evalExpr(expr ast.Expr) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return literalValue(e.Value), nil

	case *ast.GroupingExpr:
		return it.evalExpr(e.Inner)

	case *ast.UnaryExpr:
		return it.evalUnary(e)

	case *ast.LogicalExpr:
		return it.evalLogical(e)

	case *ast.BinaryExpr:
		return it.evalBinary(e)

	case *ast.VariableExpr:
		return it.lookupVariable(e, e.Name)

	case *ast.AssignExpr:
		v, err := it.evalExpr(e.Value)
		if err != nil {
			return nil, err
		}
		if d, ok := it.depths[e.ID()]; ok {
			it.env.AssignAt(d, e.Name.Lexeme, v)
		} else if err := it.globals.Assign(e.Name, v); err != nil {
			return nil, err
		}
		return v, nil

	case *ast.CallExpr:
		return it.evalCall(e)

	case *ast.GetExpr:
		return it.evalGet(e)

	case *ast.SetExpr:
		return it.evalSet(e)

	case *ast.ThisExpr:
		return it.lookupVariable(e, e.Keyword)

	case *ast.SuperExpr:
		return it.evalSuper(e)

	default:
		panic(fmt.Sprintf("interp: unhandled expression type %T", expr))
	}
}

func literalValue(v any) value.Value {
	switch v := v.(type) {
	case nil:
		return value.NilValue
	case bool:
		return value.Boolean(v)
	case float64:
		return value.Number(v)
	case string:
		return value.String(v)
	default:
		panic(fmt.Sprintf("interp: unhandled literal type %T", v))
	}
}

// lookupVariable implements the Variable/This resolution rule: depth-tabled
// references walk the environment chain directly, everything else falls
// back to a global lookup by name.
func (it *Interpreter) lookupVariable(expr ast.Expr, name token.Token) (value.Value, error) {
	if d, ok := it.depths[expr.ID()]; ok {
		return toValue(it.env.GetAt(d, name.Lexeme)), nil
	}
	v, err := it.globals.Get(name)
	if err != nil {
		return nil, err
	}
	return toValue(v), nil
}

func (it *Interpreter) evalUnary(e *ast.UnaryExpr) (value.Value, error) {
	operand, err := it.evalExpr(e.Operand)
	if err != nil {
		return nil, err
	}
	switch e.Op.Kind {
	case token.MINUS:
		n, ok := operand.(value.Number)
		if !ok {
			return nil, diag.NewRuntimeError(e.Op.Line, "Operand must be a number.")
		}
		return -n, nil
	case token.BANG:
		return value.Boolean(!value.Truthy(operand)), nil
	default:
		panic("interp: unhandled unary operator")
	}
}

func (it *Interpreter) evalLogical(e *ast.LogicalExpr) (value.Value, error) {
	left, err := it.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Op.Kind == token.OR {
		if value.Truthy(left) {
			return left, nil
		}
	} else {
		if !value.Truthy(left) {
			return left, nil
		}
	}
	return it.evalExpr(e.Right)
}

func (it *Interpreter) evalBinary(e *ast.BinaryExpr) (value.Value, error) {
	left, err := it.evalExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := it.evalExpr(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op.Kind {
	case token.MINUS, token.SLASH, token.STAR:
		ln, lok := left.(value.Number)
		rn, rok := right.(value.Number)
		if !lok || !rok {
			return nil, diag.NewRuntimeError(e.Op.Line, "Operands must be numbers.")
		}
		switch e.Op.Kind {
		case token.MINUS:
			return ln - rn, nil
		case token.STAR:
			return ln * rn, nil
		case token.SLASH:
			if rn == 0 {
				return nil, diag.NewRuntimeError(e.Op.Line, "float division by zero")
			}
			return ln / rn, nil
		}

	case token.PLUS:
		if ln, ok := left.(value.Number); ok {
			if rn, ok := right.(value.Number); ok {
				return ln + rn, nil
			}
		}
		if ls, ok := left.(value.String); ok {
			if rs, ok := right.(value.String); ok {
				return ls + rs, nil
			}
		}
		return nil, diag.NewRuntimeError(e.Op.Line, "Operands must be two numbers or two strings.")

	case token.GT, token.GT_EQ, token.LT, token.LT_EQ:
		ln, lok := left.(value.Number)
		rn, rok := right.(value.Number)
		if !lok || !rok {
			return nil, diag.NewRuntimeError(e.Op.Line, "Operands must be numbers.")
		}
		switch e.Op.Kind {
		case token.GT:
			return value.Boolean(ln > rn), nil
		case token.GT_EQ:
			return value.Boolean(ln >= rn), nil
		case token.LT:
			return value.Boolean(ln < rn), nil
		case token.LT_EQ:
			return value.Boolean(ln <= rn), nil
		}

	case token.EQ_EQ:
		return value.Boolean(value.Equals(left, right)), nil
	case token.BANG_EQ:
		return value.Boolean(!value.Equals(left, right)), nil
	}
	panic("interp: unhandled binary operator")
}

func (it *Interpreter) evalCall(e *ast.CallExpr) (value.Value, error) {
	callee, err := it.evalExpr(e.Callee)
	if err != nil {
		return nil, err
	}
	args := make([]value.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := it.evalExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch callee := callee.(type) {
	case *value.Function:
		return it.callFunction(callee, args, e.Paren)
	case *value.Class:
		return it.callClass(callee, args, e.Paren)
	case *value.NativeFunction:
		if len(args) != callee.Ar {
			return nil, diag.NewRuntimeError(e.Paren.Line, "Expected %d arguments but got %d.", callee.Ar, len(args))
		}
		v, err := callee.Fn(args)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, diag.NewRuntimeError(e.Paren.Line, "Can only call functions and classes.")
	}
}

func (it *Interpreter) callFunction(fn *value.Function, args []value.Value, paren token.Token) (value.Value, error) {
	if len(args) != fn.Arity() {
		return nil, diag.NewRuntimeError(paren.Line, "Expected %d arguments but got %d.", fn.Arity(), len(args))
	}

	callEnv := fn.Closure.Child()
	for i, p := range fn.Declaration.Params {
		callEnv.Define(p.Lexeme, args[i])
	}

	ctrl, err := it.execBlock(fn.Declaration.Body, callEnv)
	if err != nil {
		return nil, err
	}

	if fn.IsInitializer {
		return toValue(fn.Closure.GetAt(0, "this")), nil
	}
	if ctrl != nil && ctrl.kind == sigReturn {
		return ctrl.value, nil
	}
	return value.NilValue, nil
}

func (it *Interpreter) callClass(cls *value.Class, args []value.Value, paren token.Token) (value.Value, error) {
	if len(args) != cls.Arity() {
		return nil, diag.NewRuntimeError(paren.Line, "Expected %d arguments but got %d.", cls.Arity(), len(args))
	}

	inst := value.NewInstance(cls)
	if init, ok := cls.FindMethod("init"); ok {
		if _, err := it.callFunction(init.Bind(inst), args, paren); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

func (it *Interpreter) evalGet(e *ast.GetExpr) (value.Value, error) {
	obj, err := it.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}
	inst, ok := obj.(*value.Instance)
	if !ok {
		return nil, diag.NewRuntimeError(e.Name.Line, "Only instances have properties.")
	}
	v, ok := inst.Get(e.Name.Lexeme)
	if !ok {
		return nil, diag.NewRuntimeError(e.Name.Line, "Undefined property '%s'.", e.Name.Lexeme)
	}
	return v, nil
}

func (it *Interpreter) evalSet(e *ast.SetExpr) (value.Value, error) {
	obj, err := it.evalExpr(e.Object)
	if err != nil {
		return nil, err
	}
	inst, ok := obj.(*value.Instance)
	if !ok {
		return nil, diag.NewRuntimeError(e.Name.Line, "Only instances have fields.")
	}
	v, err := it.evalExpr(e.Value)
	if err != nil {
		return nil, err
	}
	inst.Set(e.Name.Lexeme, v)
	return v, nil
}

// evalSuper looks up e.Method on the superclass bound at the resolver's
// recorded depth, and binds it to `this` found one frame inward, per
// spec.md §4.5's "Super" rule.
func (it *Interpreter) evalSuper(e *ast.SuperExpr) (value.Value, error) {
	d := it.depths[e.ID()]
	superclass := toValue(it.env.GetAt(d, "super")).(*value.Class)
	inst := toValue(it.env.GetAt(d-1, "this")).(*value.Instance)

	method, ok := superclass.FindMethod(e.Method.Lexeme)
	if !ok {
		return nil, diag.NewRuntimeError(e.Method.Line, "Undefined property '%s'.", e.Method.Lexeme)
	}
	return method.Bind(inst), nil
}

// stringify implements spec.md §4.5's print/stringification rule. Every
// Value already stringifies itself in the right form; Number.String formats
// via strconv, which drops the trailing ".0" of an integral value.
func stringify(v value.Value) string {
	return v.String()
}
