package main

import (
	"os"

	"github.com/horockey/kvstore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
