package main

import (
	"os"

	"github.com/omar-florez/reinforcement-learning/cmd"
)

func main() {
	if err := cmd.RootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
