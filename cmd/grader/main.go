// Package main provides the entry point for the rubric grader CLI and
// HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "grader",
	Short: "AI-assisted assignment grader",
	Long:  "Grader scores batches of PDF submissions against a free-text rubric using the Gemini API and produces CSV and text report artifacts.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
