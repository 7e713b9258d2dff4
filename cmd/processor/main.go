// Command processor builds an experiment from tracker CSV exports,
// reports its summary and sanity findings, and writes the cleaned
// parameter tables as CSV files.
//
// Usage:
//
//	processor -in <file-or-directory> [-out <dir>] [-config <file>]
//	          [-subfolders] [-keep-raw] [-two-choice] [-split]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fimkit/internal/config"
	"fimkit/internal/experiment"
	"fimkit/internal/exporter"
	"fimkit/internal/infrastructure"
)

func main() {
	if err := run(); err != nil {
		slog.Error("processing failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	in := flag.String("in", "", "input file or directory of tracker exports")
	out := flag.String("out", "", "output directory for cleaned parameter CSV files (skip export when empty)")
	configFile := flag.String("config", "", "optional YAML configuration file")
	subfolders := flag.Bool("subfolders", false, "recurse into subdirectories of the input directory")
	keepRaw := flag.Bool("keep-raw", false, "retain the merged raw table in memory")
	twoChoice := flag.Bool("two-choice", false, "treat the input as a two-choice assay")
	split := flag.Bool("split", false, "split a two-choice assay into experiment and control groups (implies -two-choice)")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		return fmt.Errorf("missing required -in flag")
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := infrastructure.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	opts := experiment.Options{
		KeepRaw:           *keepRaw,
		IncludeSubfolders: *subfolders,
		Logger:            logger,
	}

	if *twoChoice || *split {
		return runTwoChoice(*in, *out, cfg, opts, *split, logger)
	}

	exp, err := experiment.New(*in, cfg, opts)
	if err != nil {
		return err
	}

	fmt.Println(exp)
	exp.SanityCheck()

	if *out != "" {
		return exporter.NewExperimentExporter(nil, logger).Export(*out, exp)
	}
	return nil
}

func runTwoChoice(in, out string, cfg *config.Config, opts experiment.Options, split bool, logger *slog.Logger) error {
	exp, err := experiment.NewTwoChoice(in, cfg, experiment.TwoChoiceOptions{Options: opts})
	if err != nil {
		return err
	}

	fmt.Println(exp)
	exp.SanityCheck()

	if !split {
		if out != "" {
			return exporter.NewExperimentExporter(nil, logger).Export(out, exp)
		}
		return nil
	}

	col, err := exp.Split()
	if err != nil {
		return err
	}

	fmt.Println(col)

	if out == "" {
		return nil
	}
	for _, label := range col.Labels() {
		member, _ := col.Experiment(label)
		if err := exporter.NewExperimentExporter(nil, logger).Export(filepath.Join(out, label), member); err != nil {
			return err
		}
	}
	return nil
}
