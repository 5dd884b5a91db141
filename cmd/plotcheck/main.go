package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/destinpq/eudr-plots/pkg/plots"
)

type Options struct {
	Input   string `short:"i" long:"in" description:"Input GeoJSON file path. Reads from stdin if empty"`
	Config  string `short:"c" long:"config" description:"Optional YAML config file (area tolerance, country table, geometry whitelist)"`
	JSON    bool   `short:"j" long:"json" description:"Emit the full validation report as JSON on stdout"`
	Serial  bool   `long:"serial" description:"Disable parallel per-plot validation"`
	Workers int    `short:"w" long:"workers" description:"Validation worker count (0 = number of CPUs)"`
	Quiet   bool   `short:"q" long:"quiet" description:"Suppress per-plot log output"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if opts.Quiet {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	cfg := plots.DefaultConfig()
	if opts.Config != "" {
		loaded, err := plots.LoadConfig(opts.Config)
		if err != nil {
			log.Fatal().Err(err).Str("path", opts.Config).Msg("Failed to load config")
		}
		cfg = loaded
	}

	data, err := readInput(opts.Input)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read input")
	}

	session, err := plots.ParseWithConfig(data, cfg)
	if err != nil {
		// A structural error means the file is not a FeatureCollection at
		// all; there are no per-plot diagnostics to print.
		log.Error().Err(err).Msg("Input cannot be decomposed into plots")
		os.Exit(2)
	}

	report := session.ValidateWithOptions(plots.ValidateOptions{
		Parallel: !opts.Serial,
		Workers:  opts.Workers,
	})

	for _, result := range report.Results {
		event := log.Info()
		if !result.IsValid {
			event = log.Warn()
		}
		event.
			Str("plot", result.PlotID).
			Bool("valid", result.IsValid).
			Strs("errors", result.Errors).
			Msg("Plot validated")
	}
	for _, msg := range report.Summary.CollectionErrors {
		log.Warn().Msg(msg)
	}
	for _, msg := range report.Summary.Warnings {
		log.Info().Str("kind", "warning").Msg(msg)
	}

	if opts.JSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to marshal report")
		}
		fmt.Println(string(out))
	}

	if report.Valid() {
		log.Info().
			Int("plots", report.Summary.TotalCount).
			Msg("All plots valid, collection may be submitted")
		return
	}

	log.Warn().
		Int("valid", report.Summary.ValidCount).
		Int("total", report.Summary.TotalCount).
		Strs("top_errors", report.Summary.TopErrors).
		Msg("Collection has invalid plots, fix and re-validate")
	os.Exit(1)
}

func readInput(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(os.Stdin)
}
