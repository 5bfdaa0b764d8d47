// ABOUTME: Operator CLI for coven-session files
// ABOUTME: Opens, migrates, inspects and deletes <workdir>/<name>.session files

package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	app := App()

	if err := app.Run(os.Args); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
