// Package value defines the runtime value representation produced and
// consumed by the interpreter, per spec.md §3 and §4.5.
package value

import (
	"strconv"

	"github.com/dolthub/swiss"
	"github.com/mna/rill/lang/ast"
	"github.com/mna/rill/lang/environment"
)

// Value is implemented by every runtime value a rill program can hold.
type Value interface {
	// String returns the value's print/stringification form.
	String() string
	// Type returns a short type name, used in error messages.
	Type() string
}

// Callable is implemented by any value that may be the callee of a call
// expression: user-defined functions, classes (as constructors), bound
// methods, and native functions.
type Callable interface {
	Value
	Arity() int
}

// Nil is the value of the `nil` literal. There is exactly one Nil value;
// callers compare against value.NilValue, never construct their own.
type Nil struct{}

func (Nil) String() string { return "nil" }
func (Nil) Type() string   { return "nil" }

// NilValue is the sole instance of Nil.
var NilValue = Nil{}

// Boolean wraps a Go bool.
type Boolean bool

func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Boolean) Type() string { return "boolean" }

// Number wraps a Go float64, the only numeric type in the language.
type Number float64

func (n Number) String() string {
	s := strconv.FormatFloat(float64(n), 'f', -1, 64)
	return s
}
func (Number) Type() string { return "number" }

// String wraps a Go string.
type String string

func (s String) String() string { return string(s) }
func (String) Type() string     { return "string" }

// Truthy implements the language's truthiness rule: nil and false are
// falsey, everything else (including 0 and "") is truthy, per spec.md §4.5.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Nil:
		return false
	case Boolean:
		return bool(v)
	default:
		return true
	}
}

// Equals implements the language's equality rule: values of different
// dynamic types are never equal; nil equals only nil; numbers and strings
// compare by value; everything else (functions, classes, instances)
// compares by identity.
func Equals(a, b Value) bool {
	switch av := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Boolean:
		bv, ok := b.(Boolean)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	default:
		return a == b
	}
}

// Function is a user-defined function or method: the declaring AST node
// paired with the environment it closes over, per spec.md §4.5.
type Function struct {
	Declaration   *ast.FunctionStmt
	Closure       *environment.Environment
	IsInitializer bool
}

func (f *Function) String() string { return "<fn '" + f.Declaration.Name.Lexeme + "'>" }
func (f *Function) Type() string   { return "function" }
func (f *Function) Arity() int     { return len(f.Declaration.Params) }

// Bind returns a copy of f whose closure is a new environment, nested in
// f's own closure, with `this` bound to inst — the mechanism by which a
// method looked up on an instance knows which instance it is acting on,
// per spec.md §4.5.
func (f *Function) Bind(inst *Instance) *Function {
	env := f.Closure.Child()
	env.Define("this", inst)
	return &Function{Declaration: f.Declaration, Closure: env, IsInitializer: f.IsInitializer}
}

// Class is a runtime class object: a name, an optional superclass, and a
// method table shared by every instance.
type Class struct {
	Name       string
	Superclass *Class
	Methods    *swiss.Map[string, *Function]
}

func (c *Class) String() string { return c.Name }
func (c *Class) Type() string   { return "class" }

// Arity is the arity of the class's `init` method, or 0 if it has none,
// since calling a class constructs an instance by invoking `init`.
func (c *Class) Arity() int {
	if init, ok := c.FindMethod("init"); ok {
		return init.Arity()
	}
	return 0
}

// FindMethod looks up name on c, then walks the superclass chain, per
// spec.md §4.5's "full method lookup" rule.
func (c *Class) FindMethod(name string) (*Function, bool) {
	for cls := c; cls != nil; cls = cls.Superclass {
		if m, ok := cls.Methods.Get(name); ok {
			return m, true
		}
	}
	return nil, false
}

// Instance is a runtime instance of a Class, with its own field table.
type Instance struct {
	Class  *Class
	Fields *swiss.Map[string, Value]
}

// NewInstance returns an instance of cls with an empty field table.
func NewInstance(cls *Class) *Instance {
	return &Instance{Class: cls, Fields: swiss.NewMap[string, Value](4)}
}

func (i *Instance) String() string { return i.Class.Name + " instance" }
func (i *Instance) Type() string   { return "instance" }

// Get reads a field, falling back to a bound method, per spec.md §4.5's
// "property read" rule: fields shadow methods.
func (i *Instance) Get(name string) (Value, bool) {
	if v, ok := i.Fields.Get(name); ok {
		return v, true
	}
	if m, ok := i.Class.FindMethod(name); ok {
		return m.Bind(i), true
	}
	return nil, false
}

// Set writes a field unconditionally, creating it if absent.
func (i *Instance) Set(name string, v Value) {
	i.Fields.Put(name, v)
}

// NativeFunction is a built-in function implemented in Go, e.g. `clock`.
type NativeFunction struct {
	NameStr string
	Ar      int
	Fn      func(args []Value) (Value, error)
}

func (n *NativeFunction) String() string { return "<fn '" + n.NameStr + "'>" }
func (n *NativeFunction) Type() string   { return "function" }
func (n *NativeFunction) Arity() int     { return n.Ar }
