package main

import (
	"os"

	"github.com/wonny/leapscope/cmd/leapscope/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
