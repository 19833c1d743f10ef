package main

import (
	"flag"
	"log/slog"
	gohttp "net/http"
	"os"
	"time"

	"github.com/tilezen/go-tileimport/http"
	"github.com/tilezen/go-tileimport/internal/logging"
	"github.com/tilezen/go-tileimport/tilepack"
)

func loggingMiddleware(logger *slog.Logger) func(gohttp.Handler) gohttp.Handler {
	return func(next gohttp.Handler) gohttp.Handler {
		return gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
			start := time.Now()
			defer func() {
				logger.Info("Request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr, "user_agent", r.UserAgent(), "elapsed", time.Since(start))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func newRouter(reader tilepack.MbtilesReader) *gohttp.ServeMux {
	router := gohttp.NewServeMux()
	router.Handle("/tiles/", http.TilesHandler(reader))
	router.HandleFunc("/", defaultHandler)
	return router
}

func main() {
	dbFile := flag.String("input", "", "The database file to serve tiles from.")
	addr := flag.String("listen", ":8080", "The address and port to listen on")
	verbose := flag.Bool("verbose", false, "Enable debug logging.")
	flag.Parse()

	logger := logging.New(*verbose)
	slog.SetDefault(logger)

	if *dbFile == "" {
		logging.Fatal(logger, "Need to provide -input parameter")
	}

	if _, err := os.Stat(*dbFile); err != nil {
		logging.Fatal(logger, "Couldn't open database", "path", *dbFile, "error", err)
	}

	reader, err := tilepack.NewMbtilesReader(*dbFile)
	if err != nil {
		logging.Fatal(logger, "Couldn't create reader", "path", *dbFile, "error", err)
	}
	defer reader.Close()

	server := &gohttp.Server{
		Addr:         *addr,
		Handler:      loggingMiddleware(logger)(newRouter(reader)),
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	logger.Info("Serving tiles", "path", *dbFile, "listen", *addr)

	if err := server.ListenAndServe(); err != nil && err != gohttp.ErrServerClosed {
		logging.Fatal(logger, "Could not listen", "addr", *addr, "error", err)
	}
}

func defaultHandler(w gohttp.ResponseWriter, r *gohttp.Request) {
	gohttp.NotFound(w, r)
}
