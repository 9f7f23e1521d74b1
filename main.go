package main

import (
	"os"

	"github.com/marceleta/crypto-monitor/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
