package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"

	"github.com/tilezen/go-tileimport/internal/logging"
	"github.com/tilezen/go-tileimport/tilepack"
)

func main() {
	input := flag.String("input", "", "The database to export tiles from.")
	output := flag.String("output", "", "Directory (disk) or file (pmtiles) to write.")
	format := flag.String("format", "disk", "Valid formats are: disk, pmtiles.")
	ext := flag.String("ext", tilepack.DefaultExtension, "Extension of the stored tile images.")
	showProgress := flag.Bool("progress", false, "Show a progress bar on stderr.")
	flag.Parse()

	logger := logging.New(false)

	if *input == "" || *output == "" {
		logging.Fatal(logger, "Both -input and -output are required")
	}

	if _, err := os.Stat(*input); err != nil {
		logging.Fatal(logger, "Couldn't open input", "path", *input, "error", err)
	}

	reader, err := tilepack.NewMbtilesReader(*input)
	if err != nil {
		logging.Fatal(logger, "Couldn't read input database", "path", *input, "error", err)
	}
	defer reader.Close()

	var outputter tilepack.TileOutputter

	switch *format {
	case "disk":
		outputter, err = tilepack.NewDiskOutputter(*output, *ext)
	case "pmtiles":
		metadata, merr := reader.Metadata()
		if merr != nil {
			logging.Fatal(logger, "Couldn't read metadata", "path", *input, "error", merr)
		}
		outputter, err = tilepack.NewPmtilesOutputter(filepath.Clean(*output), metadata, tilepack.PmtilesTileType(*ext), logger)
	default:
		logging.Fatal(logger, "Unknown output format", "format", *format)
	}

	if err != nil {
		logging.Fatal(logger, "Couldn't create output", "format", *format, "error", err)
	}

	var progress io.Writer
	if *showProgress {
		progress = os.Stderr
	}

	n, err := tilepack.Export(reader, outputter, progress)
	if err != nil {
		logging.Fatal(logger, "Export failed", "error", err)
	}

	logger.Info("Exported tiles", "count", n, "format", *format, "output", *output)
}
