package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/accelnorm/docindex/internal/cli"
)

func main() {
	// Optional .env for API keys; a missing file is fine.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
