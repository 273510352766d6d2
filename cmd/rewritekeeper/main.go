package main

import (
	"os"

	"github.com/solatis/rewritekeeper/cmd/rewritekeeper/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
