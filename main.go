package main

import (
	"os"

	"github.com/keelson-db/keelson/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
