package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/abelbrown/viral/internal/pipeline"
)

func runPing() {
	fs := flag.NewFlagSet("ping", flag.ExitOnError)
	base := fs.String("api", "", "Pipeline base URL (default from config)")
	timeout := fs.Duration("timeout", 5*time.Second, "Request timeout")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	if *base != "" {
		cfg.APIBase = *base
	}

	client := pipeline.NewClient(cfg.APIBase, *timeout, 0)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	if err := client.Health(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: unreachable: %v\n", client.BaseURL(), err)
		os.Exit(1)
	}
	fmt.Printf("%s: ok (%dms)\n", client.BaseURL(), time.Since(start).Milliseconds())
}
