// Package main is the entry point for the factuboard CLI binary.
package main

import (
	"os"

	cli "factuboard/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
