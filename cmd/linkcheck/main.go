package main

import (
	"os"

	"linkcheck/internal/logging"
)

// Exit codes: 0 = no linkage problems, 1 = problems found, 2 = input or
// resolution error.
const (
	exitOK       = 0
	exitProblems = 1
	exitError    = 2
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger := logging.NewLogger(logging.Config{
			Format: logging.HumanFormat,
			Level:  logging.InfoLevel,
		})
		logger.Error("Command execution failed", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(exitError)
	}
}
