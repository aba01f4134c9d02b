package main

import (
	"os"

	"github.com/hoard-dev/hoard/internal/cli"
)

var version = "0.1.0-dev"

func main() {
	os.Exit(cli.Execute(version))
}
