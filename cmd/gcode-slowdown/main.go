// gcode-slowdown post-processes sliced G-code so that the printer slows down
// before each filament retraction, which reduces stringing.
//
// Every program found in the working directory (or named on the command line)
// is split into retraction-delimited blocks; a "G1 F900" feedrate command is
// inserted so that the last 10mm of XY travel before each retraction run
// slowly. Results are written next to the input as <name>_unstring.gcode.
//
// Usage:
//
//	gcode-slowdown [options] [files...]
//
// Options:
//
//	-config string    Configuration file with [slowdown] and [files] sections
//	-dir string       Directory to scan when no files are given (default ".")
//	-distance float   Slowdown distance in mm before a retraction (default 10)
//	-feedrate float   Feedrate of the inserted command (default 900)
//	-suffix string    Output name suffix (default "_unstring")
//	-ext string       Input file extension (default ".gcode")
//	-dry-run          Analyse files without writing outputs
//	-report string    Write a YAML run report to this file
//	-metrics string   Write Prometheus text metrics to this file
//	-logfile string   Also log to this file, rotated and gzip-compressed
//	-loglevel string  debug, info, warn or error (default "info")
//
// Examples:
//
//	# Process every .gcode file in the current directory
//	gcode-slowdown
//
//	# Slow the last 15mm down to 600mm/min, with per-block tracing
//	gcode-slowdown -distance 15 -feedrate 600 -loglevel debug part.gcode
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gcode-slowdown/pkg/config"
	"gcode-slowdown/pkg/gcode"
	"gcode-slowdown/pkg/log"
	"gcode-slowdown/pkg/metrics"
	"gcode-slowdown/pkg/report"
	"gcode-slowdown/pkg/scan"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	// Cancel between files on Ctrl+C; a file in progress is never half written.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

type flags struct {
	configFile  string
	dir         string
	distance    float64
	feedrate    float64
	suffix      string
	ext         string
	dryRun      bool
	reportFile  string
	metricsFile string
	logFile     string
	logLevel    string
	files       []string
	set         map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	f := &flags{set: make(map[string]bool)}
	defaults := config.DefaultSlowdownConfig()

	fs := flag.NewFlagSet("gcode-slowdown", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configFile, "config", "", "Configuration file with [slowdown] and [files] sections")
	fs.StringVar(&f.dir, "dir", ".", "Directory to scan when no files are given")
	fs.Float64Var(&f.distance, "distance", defaults.Distance, "Slowdown distance in mm before a retraction")
	fs.Float64Var(&f.feedrate, "feedrate", defaults.Feedrate, "Feedrate of the inserted command")
	fs.StringVar(&f.suffix, "suffix", defaults.Suffix, "Output name suffix")
	fs.StringVar(&f.ext, "ext", defaults.Extension, "Input file extension")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Analyse files without writing outputs")
	fs.StringVar(&f.reportFile, "report", "", "Write a YAML run report to this file")
	fs.StringVar(&f.metricsFile, "metrics", "", "Write Prometheus text metrics to this file")
	fs.StringVar(&f.logFile, "logfile", "", "Also log to this file, rotated and gzip-compressed")
	fs.StringVar(&f.logLevel, "loglevel", "", "debug, info, warn or error (default info)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: gcode-slowdown [options] [files...]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	f.files = fs.Args()
	return f, nil
}

// settings merges the config file with the flags given explicitly.
func (f *flags) settings() (*config.SlowdownConfig, error) {
	cfg := config.DefaultSlowdownConfig()
	if f.configFile != "" {
		var err error
		if cfg, err = config.ParseSlowdownConfig(f.configFile); err != nil {
			return nil, err
		}
	}
	if f.set["distance"] {
		cfg.Distance = f.distance
	}
	if f.set["feedrate"] {
		cfg.Feedrate = f.feedrate
	}
	if f.set["suffix"] {
		cfg.Suffix = f.suffix
	}
	if f.set["ext"] {
		cfg.Extension = f.ext
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogger(f *flags, stderr io.Writer) (*log.Logger, io.Closer, error) {
	var (
		logger *log.Logger
		closer io.Closer
	)
	if f.logFile != "" {
		l, w, err := log.NewConsoleAndFileLogger("slowdown", stderr, log.RotationConfig{
			Filename: f.logFile,
			Compress: true,
		})
		if err != nil {
			return nil, nil, err
		}
		logger, closer = l, w
	} else {
		logger = log.New("slowdown")
		logger.SetWriter(stderr)
	}

	log.ConfigureFromEnv(logger)
	if f.logLevel != "" {
		logger.SetLevel(log.ParseLevel(f.logLevel))
	}
	log.SetDefaultLogger(logger)
	return logger, closer, nil
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}

	logger, closer, err := setupLogger(f, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening log file: %v\n", err)
		return exitFailed
	}
	if closer != nil {
		defer closer.Close()
	}

	cfg, err := f.settings()
	if err != nil {
		logger.WithError(err).Error("invalid configuration")
		return exitFailed
	}

	inputs := f.files
	if len(inputs) == 0 {
		if inputs, err = scan.Find(f.dir, cfg.Extension, cfg.Suffix); err != nil {
			logger.WithError(err).Error("cannot scan for programs")
			return exitFailed
		}
		if len(inputs) == 0 {
			logger.Info("no %s files to process in %s", cfg.Extension, f.dir)
			return exitOK
		}
	}

	logger.WithFields(log.Fields{
		"distance": cfg.Distance,
		"feedrate": cfg.Feedrate,
		"files":    len(inputs),
	}).Debug("settings")

	tr := gcode.NewTransformer(cfg.Options(), logger.WithPrefix("gcode"))
	runMetrics := metrics.NewSlowdownMetrics()
	tr.SetRecorder(runMetrics)
	rep := report.New(time.Now(), cfg.Options(), f.dryRun)

	code := exitOK
	for i, in := range inputs {
		if ctx.Err() != nil {
			logger.Warn("interrupted, %d files not processed", len(inputs)-i)
			code = exitFailed
			break
		}
		if len(f.files) > 0 && scan.IsOutput(in, cfg.Suffix) {
			logger.WithField("file", in).Warn("skipping, already post-processed")
			continue
		}

		out := scan.OutputPath(in, cfg.Suffix)
		target := out
		if f.dryRun {
			target = ""
		}

		start := time.Now()
		stats, err := tr.TransformFile(ctx, in, target)
		elapsed := time.Since(start)
		runMetrics.RecordFile(err, stats.BytesIn, stats.BytesOut, elapsed)
		rep.Add(in, target, stats, elapsed, err)

		if err != nil {
			logger.WithField("file", in).WithError(err).Error("file not processed")
			code = exitFailed
			continue
		}
		entry := logger.WithFields(log.Fields{
			"blocks":    stats.Blocks,
			"slowdowns": stats.Slowdowns,
			"elapsed":   elapsed.Round(time.Millisecond),
		})
		if f.dryRun {
			entry.Info("checked %s", in)
		} else {
			entry.Info("wrote %s", out)
		}
	}

	runMetrics.Finish(time.Now())
	if f.metricsFile != "" {
		if err := runMetrics.WriteFile(f.metricsFile); err != nil {
			logger.WithError(err).Error("cannot write metrics")
			code = exitFailed
		}
	}
	if f.reportFile != "" {
		if err := rep.Write(f.reportFile); err != nil {
			logger.WithError(err).Error("cannot write report")
			code = exitFailed
		}
	}
	logger.Info(rep.Summary())
	return code
}
