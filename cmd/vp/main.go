package main

import (
	"os"

	"github.com/bnema/voicepool/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
