package main

import (
	"os"

	"github.com/aetharaai/lotus/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
