package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := rootCommand.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
