package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/tilezen/go-tileimport/internal/logging"
	"github.com/tilezen/go-tileimport/tilepack"
)

func checkSourceDir(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("tile directory %s does not exist", path)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("tile directory %s is not a directory", path)
	}
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func newLogger(stderr io.Writer, verbose bool) *slog.Logger {
	if stderr == io.Writer(os.Stderr) {
		return logging.New(verbose)
	}
	return logging.NewWithWriter(stderr, verbose, true)
}

// run imports tiles as described by args and returns the process exit code.
func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("import", flag.ContinueOnError)
	flags.SetOutput(stderr)
	dbPath := flags.String("db", "", "Path of the database to create. Any existing file is replaced.")
	tileDir := flags.String("dir", "", "Directory of tiles to import, laid out as {z}/{x}/{y}.png or L{z}/R{row}/C{col}.png. If empty an empty database is created.")
	ext := flags.String("ext", tilepack.DefaultExtension, "Extension of the tile image files.")
	showProgress := flags.Bool("progress", false, "Show a progress bar on stderr.")
	showStats := flags.Bool("stats", true, "Log a summary of the database after importing.")
	upload := flags.String("upload", "", "Optional s3://bucket/key URL to upload the finished database to.")
	verbose := flags.Bool("verbose", false, "Log every imported tile.")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	logger := newLogger(stderr, *verbose)
	slog.SetDefault(logger)

	if *dbPath == "" {
		fmt.Fprintln(stderr, "Usage: import -db <path> [-dir <tiles>]")
		flags.PrintDefaults()
		return 1
	}

	if *tileDir != "" {
		if err := checkSourceDir(*tileDir); err != nil {
			logger.Error("Invalid -dir", "error", err)
			return 1
		}
	}

	out, err := tilepack.NewMbtilesOutputter(*dbPath)
	if err != nil {
		logger.Error("Couldn't create database", "path", *dbPath, "error", err)
		return 1
	}

	if err := out.CreateTiles(); err != nil {
		out.Close()
		logger.Error("Couldn't create schema", "path", *dbPath, "error", err)
		return 1
	}

	logger.Info("Created database", "path", *dbPath)

	if *tileDir != "" {
		opts := &tilepack.ImportOptions{
			Extension: *ext,
			Logger:    logger,
		}
		if *showProgress {
			opts.Progress = stderr
		}

		start := time.Now()
		result, err := tilepack.Import(out, *tileDir, opts)
		if err != nil {
			out.Close()
			logger.Error("Import failed", "dir", *tileDir, "error", err)
			return 1
		}
		logger.Info("Finished import", "dir", *tileDir, "imported", result.Imported, "skipped", result.Skipped, "elapsed", time.Since(start).Round(time.Millisecond))
	} else {
		logger.Info("No -dir given, database left empty")
	}

	if err := out.Close(); err != nil {
		logger.Error("Couldn't close database", "path", *dbPath, "error", err)
		return 1
	}

	if *showStats {
		if err := reportStats(*dbPath, stderr); err != nil {
			logger.Warn("Couldn't compute stats", "error", err)
		}
	}

	if *upload != "" {
		if err := tilepack.PublishToS3(*dbPath, *upload); err != nil {
			logger.Error("Upload failed", "error", err)
			return 1
		}
		logger.Info("Uploaded database", "dest", *upload)
	}

	return 0
}

func reportStats(dbPath string, w io.Writer) error {
	reader, err := tilepack.NewMbtilesReader(dbPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	stats, err := reader.Stats()
	if err != nil {
		return err
	}
	return stats.Report(w)
}
