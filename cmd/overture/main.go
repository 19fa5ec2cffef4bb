// Package main is the entry point for the overture CLI.
package main

import (
	"os"

	"github.com/jander99/overture-sub000/cmd/overture/commands"
)

func main() {
	os.Exit(commands.Execute())
}
