package main

import (
	"os"

	"github.com/mna/mainer"
	"github.com/mna/rill/internal/maincmd"
)

var (
	version   = "{v}"
	buildDate = "{d}"
)

func main() {
	c := maincmd.Cmd{BuildVersion: version, BuildDate: buildDate}
	os.Exit(int(c.Main(os.Args, mainer.CurrentStdio())))
}
