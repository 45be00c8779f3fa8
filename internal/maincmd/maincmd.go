// Package maincmd implements the rill CLI's three invocation modes (REPL,
// run file, run stdin), per spec.md §6.
package maincmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/rill/diag"
	"github.com/mna/rill/lang/ast"
	"github.com/mna/rill/lang/interp"
	"github.com/mna/rill/lang/parser"
	"github.com/mna/rill/lang/resolver"
	"github.com/mna/rill/lang/scanner"
)

const binName = "rill"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [script]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [script]
       %[1]s --
       %[1]s -h|--help
       %[1]s -v|--version

With no arguments, starts an interactive prompt. With a single path
argument, runs that file. With a single "--" argument, reads a program
from standard input.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
`, binName)
)

// Cmd is the rill command, parsed and invoked by cmd/rill's main.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args []string
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

// Validate enforces spec.md §6's "more than one argument" CLI-misuse rule;
// everything else about argument shape is resolved in Main, since which
// single argument means "run file" vs. "read stdin" depends on its value,
// not just its count.
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return errors.New("at most one argument expected")
	}
	return nil
}

// Main parses args and dispatches to the appropriate mode, returning the
// process exit code described in spec.md §6.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.ExitCode(64)
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.ExitCode(0)
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.ExitCode(0)
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	switch len(c.args) {
	case 0:
		return c.runREPL(ctx, stdio)
	case 1:
		if c.args[0] == "--" {
			return c.runStdin(stdio)
		}
		return c.runFile(stdio, c.args[0])
	default:
		// unreachable: Validate already rejected more than one argument.
		fmt.Fprintf(stdio.Stderr, "%s", shortUsage)
		return mainer.ExitCode(64)
	}
}

func (c *Cmd) runFile(stdio mainer.Stdio, path string) mainer.ExitCode {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", binName, err)
		return mainer.ExitCode(64)
	}
	return runSource(stdio, string(src), path)
}

func (c *Cmd) runStdin(stdio mainer.Stdio) mainer.ExitCode {
	src, err := io.ReadAll(stdio.Stdin)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", binName, err)
		return mainer.ExitCode(64)
	}
	return runSource(stdio, string(src), "<stdin>")
}

// runREPL implements spec.md §6's interactive mode: one line at a time,
// each line's "had error" state is independent of the others, and the
// session ends cleanly at end-of-stream.
func (c *Cmd) runREPL(ctx context.Context, stdio mainer.Stdio) mainer.ExitCode {
	it := interp.New(stdio.Stdout, resolver.Depths{})
	scan := bufio.NewScanner(stdio.Stdin)

	for {
		select {
		case <-ctx.Done():
			return mainer.ExitCode(0)
		default:
		}

		fmt.Fprint(stdio.Stdout, "> ")
		if !scan.Scan() {
			return mainer.ExitCode(0)
		}
		line := scan.Text()

		bag := diag.NewBag("<stdin>")
		toks := scanner.New([]byte(line), bag).ScanAll()
		stmts := parser.Parse(toks, bag)
		stmts = rewriteTopLevelExprStmts(stmts)

		depths := resolver.Resolve(stmts, bag)
		if bag.HadError() {
			bag.PrintTo(stdio.Stderr)
			continue
		}

		it.MergeDepths(depths)
		if rtErr := it.Interpret(stmts); rtErr != nil {
			fmt.Fprintln(stdio.Stderr, rtErr.Error())
		}
	}
}

// rewriteTopLevelExprStmts rewrites every top-level ExpressionStmt into a
// PrintStmt over the same expression, so that a bare expression typed at
// the prompt shows its value. Nested statements (inside blocks, functions,
// etc.) are left untouched. See spec.md §9's design note #4.
func rewriteTopLevelExprStmts(stmts []ast.Stmt) []ast.Stmt {
	out := make([]ast.Stmt, len(stmts))
	for i, s := range stmts {
		if es, ok := s.(*ast.ExpressionStmt); ok {
			out[i] = ast.NewPrintStmt(es.Line(), es.Expr)
		} else {
			out[i] = s
		}
	}
	return out
}

// runSource runs a complete program (a file or the whole of stdin) in one
// shot: scan, parse, resolve, and only evaluate if no static error was
// reported, per spec.md §6/§7. A panic escaping evaluation — a bug in this
// implementation, never a user error — is reported as an internal error
// tagged with the run's correlation id rather than crashing the process.
func runSource(stdio mainer.Stdio, src, filename string) (code mainer.ExitCode) {
	bag := diag.NewBag(filename)
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(stdio.Stderr, bag.InternalError(r))
			code = mainer.ExitCode(70)
		}
	}()

	toks := scanner.New([]byte(src), bag).ScanAll()
	stmts := parser.Parse(toks, bag)
	depths := resolver.Resolve(stmts, bag)

	if bag.HadError() {
		bag.PrintTo(stdio.Stderr)
		return mainer.ExitCode(65)
	}

	rtErr := interp.New(stdio.Stdout, depths).Interpret(stmts)
	if rtErr != nil {
		fmt.Fprintln(stdio.Stderr, rtErr.Error())
		return mainer.ExitCode(70)
	}
	return mainer.ExitCode(0)
}
