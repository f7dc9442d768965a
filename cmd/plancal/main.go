package main

import (
	"os"

	"plancal/internal/commands"
	appLog "plancal/internal/log"
)

func main() {
	if err := commands.New().Execute(); err != nil {
		appLog.Error("plancal failed", err)
		os.Exit(1)
	}
}
