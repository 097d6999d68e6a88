package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/rubric-grader/internal/archive"
	"github.com/jonathan/rubric-grader/internal/config"
	"github.com/jonathan/rubric-grader/internal/grading"
	"github.com/jonathan/rubric-grader/internal/llm"
	"github.com/jonathan/rubric-grader/internal/report"
)

var (
	gradeRubricPath      string
	gradeSubmissionsPath string
	gradeOutDir          string
	gradeVerbose         bool
)

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Grade a batch of submissions from the filesystem",
	Long: `Grade a single PDF or a zip of PDFs against a rubric file and write the
CSV and text report artifacts to the output directory.`,
	RunE: runGrade,
}

func init() {
	gradeCmd.Flags().StringVar(&gradeRubricPath, "rubric", "", "Path to the rubric text file (required)")
	gradeCmd.Flags().StringVar(&gradeSubmissionsPath, "submissions", "", "Path to a PDF or zip of PDFs (required)")
	gradeCmd.Flags().StringVar(&gradeOutDir, "out", "results", "Directory to write report artifacts into")
	gradeCmd.Flags().BoolVar(&gradeVerbose, "verbose", false, "Print per-submission progress")
	_ = gradeCmd.MarkFlagRequired("rubric")
	_ = gradeCmd.MarkFlagRequired("submissions")
	rootCmd.AddCommand(gradeCmd)
}

func runGrade(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	level := zerolog.WarnLevel
	if gradeVerbose {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	rubricBytes, err := os.ReadFile(gradeRubricPath)
	if err != nil {
		return fmt.Errorf("failed to read rubric: %w", err)
	}
	rubric := string(rubricBytes)
	if len(rubric) < cfg.MinRubricLen {
		return &grading.InputError{Message: "rubric is too short, provide a detailed rubric"}
	}
	if len(rubric) > cfg.MaxRubricLen {
		return &grading.InputError{Message: fmt.Sprintf("rubric is too long (max %d characters)", cfg.MaxRubricLen)}
	}

	uploadBytes, err := os.ReadFile(gradeSubmissionsPath)
	if err != nil {
		return fmt.Errorf("failed to read submissions: %w", err)
	}

	limits := archive.Limits{MaxFileBytes: cfg.MaxFileBytes, MaxEntries: cfg.MaxZipEntries}
	subs, err := archive.FromUpload(filepath.Base(gradeSubmissionsPath), uploadBytes, limits, logger)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return &grading.InputError{Message: "no PDF files found in the submissions"}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := llm.NewClient(ctx, llm.DefaultConfig().WithModel(cfg.Model), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer func() { _ = client.Close() }()

	scorer := grading.NewScoringClient(client, grading.ScoringConfig{
		MaxRetries:     cfg.MaxRetries,
		BaseDelay:      cfg.RetryBaseDelay,
		AttemptTimeout: cfg.AttemptTimeout,
	}, logger)
	grader := grading.NewGrader(scorer, cfg.MaxFileBytes, logger)
	scheduler := grading.NewScheduler(grader, cfg.Workers, logger)

	fmt.Printf("Grading %d submission(s)...\n", len(subs))
	batch := scheduler.Run(ctx, subs, rubric)

	if err := os.MkdirAll(gradeOutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	csvPath, textPath, err := report.WriteReports(gradeOutDir, batch)
	if err != nil {
		return err
	}

	graded, failed := grading.CountResults(batch)
	fmt.Printf("Done: %d graded, %d failed\n", graded, failed)
	fmt.Printf("CSV report:  %s\n", csvPath)
	fmt.Printf("Text report: %s\n", textPath)
	return nil
}
