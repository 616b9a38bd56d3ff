package main

import (
	"os"

	"github.com/corpsite/corpsite-api/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
