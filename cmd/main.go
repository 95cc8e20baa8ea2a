package main

import (
	"os"

	"github.com/emilhornlund/quiz-game-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
