package main

import (
	"os"

	"racecal.simsportsarena.com/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
