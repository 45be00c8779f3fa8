// Package environment implements the lexical-scope frames the evaluator
// chains together at runtime, per spec.md §4.4.
package environment

import (
	"github.com/dolthub/swiss"
	"github.com/mna/rill/diag"
	"github.com/mna/rill/lang/token"
)

// Environment is a single frame: a flat name→value map plus an optional
// link to the enclosing frame. It deliberately stores values as `any`
// rather than a concrete Value type, so that this package has no
// dependency on lang/value — lang/value's Function in turn holds a
// *Environment as its closure, and a dependency the other way around
// would create an import cycle.
type Environment struct {
	values    *swiss.Map[string, any]
	enclosing *Environment
}

// New returns a fresh top-level (global) environment.
func New() *Environment {
	return &Environment{values: swiss.NewMap[string, any](8)}
}

// Child returns a new environment nested directly inside e, the shape
// every block, function call and loop body pushes on entry.
func (e *Environment) Child() *Environment {
	return &Environment{values: swiss.NewMap[string, any](8), enclosing: e}
}

// Define sets name in this frame unconditionally, per spec.md §4.4: used
// for `var`, parameters, function/class declarations, and builtins.
func (e *Environment) Define(name string, v any) {
	e.values.Put(name, v)
}

// Get reads name, walking outward through enclosing frames, per spec.md
// §4.4. tok supplies the line and lexeme for the runtime error.
func (e *Environment) Get(tok token.Token) (any, error) {
	for env := e; env != nil; env = env.enclosing {
		if v, ok := env.values.Get(tok.Lexeme); ok {
			return v, nil
		}
	}
	return nil, diag.NewRuntimeError(tok.Line, "Undefined variable '%s'.", tok.Lexeme)
}

// Assign updates name's value in the nearest frame that defines it,
// walking outward, per spec.md §4.4.
func (e *Environment) Assign(tok token.Token, v any) error {
	for env := e; env != nil; env = env.enclosing {
		if _, ok := env.values.Get(tok.Lexeme); ok {
			env.values.Put(tok.Lexeme, v)
			return nil
		}
	}
	return diag.NewRuntimeError(tok.Line, "Undefined variable '%s'.", tok.Lexeme)
}

// GetAt walks exactly distance enclosing links and reads name from that
// frame. The resolver guarantees the frame contains name, per spec.md §4.4.
func (e *Environment) GetAt(distance int, name string) any {
	env := e.ancestor(distance)
	v, _ := env.values.Get(name)
	return v
}

// AssignAt is the write-side counterpart of GetAt.
func (e *Environment) AssignAt(distance int, name string, v any) {
	env := e.ancestor(distance)
	env.values.Put(name, v)
}

func (e *Environment) ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance; i++ {
		env = env.enclosing
	}
	return env
}
