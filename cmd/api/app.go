package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"reviewguard/internal/detector"
	"reviewguard/internal/logging"
)

var version = "v1.0.0-dev"

const (
	formatJSON = "json"
	formatYAML = "yaml"

	flagRules    = "rules"
	flagLogLevel = "log-level"
	flagFormat   = "format"
	flagDetails  = "details"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "reviewguard",
		Usage:   "Score product reviews for authenticity",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagRules,
				Usage:   "Path to a YAML rules file overriding the built-in weights and thresholds",
				Sources: cli.EnvVars("REVIEW_RULES_FILE"),
			},
			&cli.StringFlag{
				Name:    flagLogLevel,
				Usage:   "Log level [debug, info, warn, error]",
				Value:   "info",
				Sources: cli.EnvVars("REVIEW_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:  flagFormat,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
			&cli.BoolFlag{
				Name:  flagDetails,
				Usage: "Include per-signal contributions in results",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			analyzeCommand(),
			batchCommand(),
			infoCommand(),
		},
		Action: runServe,
	}
}

func normalizeFormat(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case formatJSON:
		return formatJSON
	case formatYAML, "yml":
		return formatYAML
	}
	return ""
}

func loadDetector(cmd *cli.Command) (*detector.Detector, error) {
	rules, err := detector.LoadRules(cmd.String(flagRules))
	if err != nil {
		return nil, err
	}
	return detector.New(rules), nil
}

func newLogger(cmd *cli.Command) (*zap.Logger, error) {
	return logging.New(cmd.String(flagLogLevel))
}

func writeOutput(w io.Writer, format string, v any) error {
	switch normalizeFormat(format) {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func printResult(cmd *cli.Command, v any) error {
	return writeOutput(cmd.Root().Writer, cmd.String(flagFormat), v)
}
