package main

import (
	"os"

	"github.com/tmhire/pourplan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
