package main

import (
	"os"

	"github.com/qwed-ai/responseguard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
