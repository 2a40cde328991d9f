package main

import (
	"os"

	memoriescmder "github.com/papercomputeco/memories/cmd/memories"
)

func main() {
	cmd := memoriescmder.NewMemoriesCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
