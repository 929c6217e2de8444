package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"reviewguard/internal/batch"
	"reviewguard/internal/config"
	"reviewguard/internal/detector"
)

const (
	flagText         = "text"
	flagRating       = "rating"
	flagTotalReviews = "total-reviews"
	flagAccountAge   = "account-age"
	flagFile         = "file"
)

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Score a single review",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagText, Usage: "Review text", Required: true},
			&cli.IntFlag{Name: flagRating, Usage: "Star rating, 1-5", Required: true},
			&cli.IntFlag{Name: flagTotalReviews, Usage: "Number of reviews the reviewer has posted (optional)"},
			&cli.IntFlag{Name: flagAccountAge, Usage: "Age of the reviewer account in days (optional)"},
		},
		Action: runAnalyze,
	}
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Score up to 100 reviews from a file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagFile,
				Aliases:  []string{"f"},
				Usage:    `JSON file holding an array of reviews or a {"reviews": [...]} object`,
				Required: true,
			},
			&cli.IntFlag{
				Name:    flagWorkers,
				Usage:   "Concurrent analyses",
				Value:   config.Default().BatchWorkers,
				Sources: cli.EnvVars("REVIEW_BATCH_WORKERS"),
			},
		},
		Action: runBatch,
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:   "info",
		Usage:  "Print the model weights, tiers and limits",
		Action: runInfo,
	}
}

func runAnalyze(_ context.Context, cmd *cli.Command) error {
	det, err := loadDetector(cmd)
	if err != nil {
		return err
	}

	review := detector.ReviewInput{
		Text:   cmd.String(flagText),
		Rating: int(cmd.Int(flagRating)),
	}
	if cmd.IsSet(flagTotalReviews) {
		v := int(cmd.Int(flagTotalReviews))
		review.ReviewerTotalReviews = &v
	}
	if cmd.IsSet(flagAccountAge) {
		v := int(cmd.Int(flagAccountAge))
		review.ReviewerAccountAgeDays = &v
	}

	result, err := det.Analyze(review)
	if err != nil {
		return err
	}
	if !cmd.Bool(flagDetails) {
		result = result.WithoutDetails()
	}
	return printResult(cmd, result)
}

func runBatch(ctx context.Context, cmd *cli.Command) error {
	det, err := loadDetector(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	path := cmd.String(flagFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read reviews file %s: %w", path, err)
	}
	raws, err := splitReviews(data)
	if err != nil {
		return fmt.Errorf("parse reviews file %s: %w", path, err)
	}

	runner := batch.NewRunner(det, int(cmd.Int(flagWorkers)), logger.Named("batch"))
	res, err := runner.RunRaw(ctx, raws)
	if err != nil {
		return err
	}
	if !cmd.Bool(flagDetails) {
		res = res.WithoutDetails()
	}
	return printResult(cmd, res)
}

// splitReviews accepts either a bare JSON array or the HTTP batch envelope.
func splitReviews(data []byte) ([]json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, err
		}
		return raws, nil
	}
	var envelope struct {
		Reviews []json.RawMessage `json:"reviews"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	return envelope.Reviews, nil
}

func runInfo(_ context.Context, cmd *cli.Command) error {
	det, err := loadDetector(cmd)
	if err != nil {
		return err
	}
	return printResult(cmd, det.Info())
}
