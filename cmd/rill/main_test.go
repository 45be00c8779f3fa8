package main_test

import (
	"bytes"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/mna/rill/internal/filetest"
	"github.com/mna/rill/internal/maincmd"
)

var testUpdateCLITests = flag.Bool("test.update-cli-tests", false, "If set, replace expected CLI test results with actual results.")

// TestRunFiles drives the full CLI (scan, parse, resolve, interpret) over
// every fixture in testdata/in and diffs stdout/stderr against the
// checked-in golden files in testdata/out.
func TestRunFiles(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".rill") {
		t.Run(fi.Name(), func(t *testing.T) {
			var out, errOut bytes.Buffer
			stdio := mainer.Stdio{Stdin: strings.NewReader(""), Stdout: &out, Stderr: &errOut}

			c := maincmd.Cmd{}
			c.Main([]string{"rill", filepath.Join(srcDir, fi.Name())}, stdio)

			filetest.DiffOutput(t, fi, out.String(), resultDir, testUpdateCLITests)
			filetest.DiffErrors(t, fi, errOut.String(), resultDir, testUpdateCLITests)
		})
	}
}
