package maincmd_test

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/mna/rill/internal/maincmd"
	"github.com/stretchr/testify/assert"
)

func run(t *testing.T, args []string, stdin string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	c := maincmd.Cmd{}
	stdio := mainer.Stdio{Stdin: strings.NewReader(stdin), Stdout: &out, Stderr: &errOut}
	ec := c.Main(args, stdio)
	return int(ec), out.String(), errOut.String()
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/prog.rill"
	assert.NoError(t, os.WriteFile(path, []byte(`print 1 + 2;`), 0600))

	code, stdout, stderr := run(t, []string{"rill", path}, "")
	assert.Equal(t, 0, code)
	assert.Equal(t, "3\n", stdout)
	assert.Empty(t, stderr)
}

func TestRunFileWithStaticErrorExitsSixtyFive(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/bad.rill"
	assert.NoError(t, os.WriteFile(path, []byte(`print ;`), 0600))

	code, _, stderr := run(t, []string{"rill", path}, "")
	assert.Equal(t, 65, code)
	assert.Contains(t, stderr, "Error")
}

func TestRunFileWithRuntimeErrorExitsSeventy(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/rt.rill"
	assert.NoError(t, os.WriteFile(path, []byte(`print 1 / 0;`), 0600))

	code, _, stderr := run(t, []string{"rill", path}, "")
	assert.Equal(t, 70, code)
	assert.Contains(t, stderr, "float division by zero")
}

func TestRunStdin(t *testing.T) {
	code, stdout, _ := run(t, []string{"rill", "--"}, `print "hi";`)
	assert.Equal(t, 0, code)
	assert.Equal(t, "hi\n", stdout)
}

func TestTooManyArgumentsExitsSixtyFour(t *testing.T) {
	code, _, stderr := run(t, []string{"rill", "a", "b"}, "")
	assert.Equal(t, 64, code)
	assert.Contains(t, stderr, "usage")
}

func TestMissingFileExitsSixtyFour(t *testing.T) {
	code, _, _ := run(t, []string{"rill", "/no/such/path.rill"}, "")
	assert.Equal(t, 64, code)
}

func TestRepl(t *testing.T) {
	code, stdout, _ := run(t, []string{"rill"}, "var a = 1;\nprint a + 1;\n")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "2\n")
}

func TestReplRewritesBareExpressionAsPrint(t *testing.T) {
	code, stdout, _ := run(t, []string{"rill"}, "1 + 1;\n")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "2\n")
}
