package main

import (
	"log"
	"os"

	"github.com/abelbrown/viral/internal/config"
	"github.com/abelbrown/viral/internal/store"
)

// loadConfig reads the client config or fatals.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// openDB opens the history store or fatals. A missing database is not
// created: there is nothing to inspect yet.
func openDB(cfg *config.Config) *store.Store {
	if _, err := os.Stat(cfg.DBPath()); err != nil {
		log.Fatalf("no history database at %s (run viral first)", cfg.DBPath())
	}
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	return st
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
