package main

import (
	"fmt"
	"os"

	"notebook-ai/internal/app"
	"notebook-ai/internal/config"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	// Logs go to stderr so stdout stays valid JSON.
	app.SetupLogging(cfg, os.Stderr)

	if err := newCLIApp(cfg, os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
