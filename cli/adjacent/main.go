package main

import (
	"os"

	adjacentcmder "github.com/papercomputeco/adjacent/cmd/adjacent"
)

func main() {
	cmd := adjacentcmder.NewAdjacentCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
