package main

import (
	"os"

	"github.com/webbmaffian/go-chan/internal/cli"
)

func main() {
	if err := cli.NewRoot().Execute(); err != nil {
		os.Exit(1)
	}
}
