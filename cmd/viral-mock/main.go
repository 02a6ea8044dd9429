// Command viral-mock serves the pipeline HTTP contract from built-in
// fixtures so the viral client can run without the real backend.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/viral/internal/logging"
	"github.com/abelbrown/viral/internal/mockpipe"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	delay := flag.Duration("delay", 2*time.Second, "simulated pipeline latency")
	seed := flag.Uint64("seed", 0, "post selection seed (0 = random)")
	fixtures := flag.String("fixtures", "", "YAML fixture file (default: built-in corpus)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := log.InfoLevel
	if *verbose {
		level = log.DebugLevel
	}
	logging.SetOutput(os.Stderr, level)

	corpus := mockpipe.DefaultFixtures()
	if *fixtures != "" {
		data, err := os.ReadFile(*fixtures)
		if err != nil {
			logging.Error("read fixtures", "path", *fixtures, "err", err)
			os.Exit(1)
		}
		if corpus, err = mockpipe.LoadFixtures(data); err != nil {
			logging.Error("load fixtures", "path", *fixtures, "err", err)
			os.Exit(1)
		}
	}

	server := &http.Server{
		Addr:              *addr,
		Handler:           mockpipe.NewServer(corpus, mockpipe.Options{Delay: *delay, Seed: *seed}).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logging.Info("mock pipeline listening", "addr", *addr, "posts", len(corpus.Posts), "delay", *delay)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("listen", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("shutdown", "err", err)
	}
}
