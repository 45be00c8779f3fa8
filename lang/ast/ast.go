// Package ast defines the expression and statement node types produced by
// the parser, walked by the resolver, and evaluated by the interpreter.
package ast

// Node is implemented by every expression and statement node.
type Node interface {
	// Line returns the source line the node starts on.
	Line() int
}

// Expr is an expression node. Every Expr has a stable identity (ID) assigned
// once at parse time: the resolver uses it as the key into the scope-depth
// table it produces, and that table must still be valid after the AST has
// been walked and re-walked by later passes. Two textually identical
// expressions at different source positions always get distinct ids.
type Expr interface {
	Node
	exprNode()
	// ID returns this expression node's unique identity.
	ID() uint32
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// nextID hands out monotonically increasing expression node identities. It
// is package-level because the parser is the only writer (single-threaded,
// one parse at a time), mirroring the way the teacher's resolver hands out
// monotonic Binding.Index values as it walks the tree.
var nextID uint32

// NewID returns a fresh, never-before-used expression node id. Called by
// the parser's expression constructors only.
func NewID() uint32 {
	nextID++
	return nextID
}

// exprBase factors out the Line/ID bookkeeping shared by every Expr variant.
type exprBase struct {
	id   uint32
	line int
}

func newExprBase(line int) exprBase { return exprBase{id: NewID(), line: line} }

func (b exprBase) Line() int   { return b.line }
func (b exprBase) ID() uint32  { return b.id }
func (exprBase) exprNode()     {}

// stmtBase factors out the Line bookkeeping shared by every Stmt variant.
type stmtBase struct{ line int }

func (b stmtBase) Line() int { return b.line }
func (stmtBase) stmtNode()   {}
