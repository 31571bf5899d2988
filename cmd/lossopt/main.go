package main

import (
	"os"

	"github.com/uyouii/lossopt/cmd/lossopt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
