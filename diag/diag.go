// Package diag collects and formats the diagnostics produced while
// scanning, parsing, resolving and evaluating a rill program.
//
// Scan, parse and resolve errors are accumulated in a Bag and reported all
// at once; a runtime error aborts evaluation and is reported on its own, per
// the propagation rules in spec.md §7. Bag carries no package-level mutable
// state ("had error" flags are a method on the value, not a global), so a
// fresh Bag can be created per CLI invocation (one file, one "--" stdin
// program, or one REPL line) without any cross-run leakage.
package diag

import (
	"fmt"
	gotoken "go/token"
	"go/scanner"

	"github.com/google/uuid"
)

// Error and ErrorList are the static-diagnostic types, reused from the
// standard library's go/scanner package: they already provide stable
// position-ordered sorting and error-list rendering, so there is no reason
// to hand-roll either.
type (
	Error     = scanner.Error
	ErrorList = scanner.ErrorList
)

// Bag accumulates the static errors (scan, parse, resolve) for a single run
// and separately tracks the one runtime error, if any, that aborted
// evaluation.
type Bag struct {
	Filename string

	errs ErrorList
	rt   *RuntimeError

	// runID correlates an internal (recovered panic) failure across the
	// phases of a single run; it is never persisted or read back, only
	// embedded in the text of an internal-error diagnostic.
	runID uuid.UUID
}

// NewBag returns a Bag for a single run against the named source (may be
// "" for stdin/REPL input).
func NewBag(filename string) *Bag {
	return &Bag{Filename: filename, runID: uuid.New()}
}

// RunID returns the correlation id for this run, suitable for inclusion in
// an internal-error diagnostic.
func (b *Bag) RunID() uuid.UUID { return b.runID }

// Report records a static error at the given source line. where is one of
// "" (scan errors), " at end" or " at '<lexeme>'" (parse errors), per
// spec.md §6.
func (b *Bag) Report(line int, where, message string) {
	b.errs.Add(gotoken.Position{Filename: b.Filename, Line: line}, where+": "+message)
}

// HadError reports whether any static error was recorded.
func (b *Bag) HadError() bool { return len(b.errs) > 0 }

// Errors returns the accumulated static errors, sorted by position.
func (b *Bag) Errors() ErrorList {
	b.errs.Sort()
	return b.errs
}

// PrintTo formats every accumulated static error as
// "[line <n>] Error<where>: <message>" and writes it, one per line, to w.
func (b *Bag) PrintTo(w Writer) {
	for _, e := range b.Errors() {
		fmt.Fprintf(w, "[line %d] Error%s\n", e.Pos.Line, e.Msg)
	}
}

// Writer is the minimal io.Writer-shaped interface PrintTo needs, declared
// locally to avoid importing io for a single method.
type Writer interface {
	Write(p []byte) (n int, err error)
}

// RuntimeError is the single runtime diagnostic that aborts evaluation. It
// is never collected alongside static errors: the evaluator stops at the
// first one, per spec.md §7.
type RuntimeError struct {
	Line    int
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Message)
}

// NewRuntimeError builds a RuntimeError with the given line and formatted
// message.
func NewRuntimeError(line int, format string, args ...any) *RuntimeError {
	return &RuntimeError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// SetRuntime records the runtime error that aborted evaluation in this bag,
// for callers that want to keep both static and runtime diagnostics on the
// same Bag value (e.g. a REPL line that both parses and evaluates).
func (b *Bag) SetRuntime(err *RuntimeError) { b.rt = err }

// Runtime returns the runtime error recorded by SetRuntime, or nil.
func (b *Bag) Runtime() *RuntimeError { return b.rt }

// InternalError formats a recovered internal panic, tagging it with this
// run's correlation id so that multiple reports from the same run (e.g.
// panics in nested calls) can be tied together in logs.
func (b *Bag) InternalError(recovered any) string {
	return fmt.Sprintf("internal error [run %s]: %v", b.runID, recovered)
}
