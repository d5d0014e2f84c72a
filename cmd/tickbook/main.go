package main

import (
	"os"

	"github.com/tickbook/tickbook/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
