package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tilezen/go-tileimport/internal/logging"
	"github.com/tilezen/go-tileimport/tilepack"
)

func main() {
	flag.Parse()

	logger := logging.New(false)

	if flag.NArg() == 0 {
		logging.Fatal(logger, "Must specify at least one database path")
	}

	for _, path := range flag.Args() {

		if _, err := os.Stat(path); err != nil {
			logging.Fatal(logger, "Couldn't open database", "path", path, "error", err)
		}

		reader, err := tilepack.NewMbtilesReader(path)

		if err != nil {
			logging.Fatal(logger, "Couldn't open database", "path", path, "error", err)
		}

		stats, err := reader.Stats()

		if err != nil {
			reader.Close()
			logging.Fatal(logger, "Couldn't compute stats", "path", path, "error", err)
		}

		reader.Close()

		fmt.Fprintf(os.Stderr, "%s\n", path)

		if err := stats.Report(os.Stderr); err != nil {
			logging.Fatal(logger, "Couldn't write report", "error", err)
		}
	}
}
