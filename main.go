// Package main is the entry point for the MovieSwipe CLI application.
package main

import (
	"movieswipe/cli/cmd"
)

// main is the entry point for the MovieSwipe CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
