package main

import (
	"os"

	"github.com/moyoez/shareit-go/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
