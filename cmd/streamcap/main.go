package main

import (
	"os"

	"github.com/seongjae6751/stream-module/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
