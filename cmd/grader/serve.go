package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/rubric-grader/internal/config"
	"github.com/jonathan/rubric-grader/internal/grading"
	"github.com/jonathan/rubric-grader/internal/llm"
	"github.com/jonathan/rubric-grader/internal/server"
	"github.com/jonathan/rubric-grader/internal/storage"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the grading HTTP server",
	Long:  `Start an HTTP server exposing the batch grading endpoint and report downloads.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides GRADER_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if servePort > 0 {
		cfg.Port = servePort
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	ctx := context.Background()
	client, err := llm.NewClient(ctx, llm.DefaultConfig().WithModel(cfg.Model), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}

	scorer := grading.NewScoringClient(client, grading.ScoringConfig{
		MaxRetries:     cfg.MaxRetries,
		BaseDelay:      cfg.RetryBaseDelay,
		AttemptTimeout: cfg.AttemptTimeout,
	}, logger.With().Str("component", "scoring").Logger())

	grader := grading.NewGrader(scorer, cfg.MaxFileBytes, logger.With().Str("component", "grader").Logger())
	scheduler := grading.NewScheduler(grader, cfg.Workers, logger.With().Str("component", "scheduler").Logger())

	store, err := storage.New(cfg.ResultsDir, cfg.ResultsTTL, logger.With().Str("component", "storage").Logger())
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Config:      cfg,
		Engine:      scheduler,
		Store:       store,
		Logger:      logger.With().Str("component", "server").Logger(),
		CloseEngine: client.Close,
	})

	return srv.Start()
}
