// Package main is the entry point for the modrun CLI.
package main

import (
	"os"

	"github.com/AndreyAkinshin/modrun/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
