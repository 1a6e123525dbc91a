// Command imagereport writes a text report of the camera settings and
// Lightroom edits of each image given on the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bep/imagereport"
	"go.uber.org/zap"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <file-or-dir>...\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Write a metadata report for each image.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	var (
		outDir   = flag.String("out", "output", "Output directory for the reports")
		workers  = flag.Int("workers", 0, "Number of files to read at once (default number of CPUs)")
		logLevel = flag.String("log-level", "info", "Log level: debug, info, warn or error")
		toStdout = flag.Bool("stdout", false, "Print the reports to stdout instead of writing files")
	)
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := newLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := config{
		outDir:   *outDir,
		workers:  *workers,
		toStdout: *toStdout,
		stdout:   os.Stdout,
	}

	failed, err := run(ctx, logger, cfg, flag.Args())
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
	if failed > 0 {
		logger.Error("some files could not be read", zap.Int("failed", failed))
		os.Exit(1)
	}
}

type config struct {
	outDir   string
	workers  int
	toStdout bool
	stdout   io.Writer
}

// run decodes the images in args and writes their reports.
// It returns the number of files that failed.
func run(ctx context.Context, logger *zap.Logger, cfg config, args []string) (int, error) {
	filenames, err := collectFiles(args)
	if err != nil {
		return 0, err
	}
	logger.Info("found images", zap.Int("count", len(filenames)))

	if !cfg.toStdout {
		if err := os.MkdirAll(cfg.outDir, 0o755); err != nil {
			return 0, fmt.Errorf("create output directory: %w", err)
		}
	}

	results, err := imagereport.DecodeFiles(ctx, filenames, imagereport.BatchOptions{
		Workers: cfg.workers,
		Warnf:   logger.Sugar().Warnf,
	})
	if err != nil {
		return 0, err
	}

	var failed int
	for _, result := range results {
		if result.Err != nil {
			failed++
			logger.Error("failed to read image", zap.String("file", result.Filename), zap.Error(result.Err))
			continue
		}

		report := result.Report()

		if cfg.toStdout {
			fmt.Fprintf(cfg.stdout, "==> %s <==\n%s\n\n", result.Filename, report)
			continue
		}

		outPath := filepath.Join(cfg.outDir, filepath.Base(result.Filename)+".txt")
		if err := os.WriteFile(outPath, []byte(report+"\n"), 0o644); err != nil {
			failed++
			logger.Error("failed to write report", zap.String("file", outPath), zap.Error(err))
			continue
		}
		logger.Debug("wrote report", zap.String("image", result.Filename), zap.String("report", outPath))
	}

	return failed, nil
}

// collectFiles expands directories in args to the supported images they contain.
// Files given explicitly are always included.
func collectFiles(args []string) ([]string, error) {
	var filenames []string
	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			filenames = append(filenames, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if _, ok := imagereport.ImageFormatFromExt(filepath.Ext(entry.Name())); !ok {
				continue
			}
			filenames = append(filenames, filepath.Join(arg, entry.Name()))
		}
	}
	return filenames, nil
}
