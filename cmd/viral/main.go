package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/viral/internal/config"
	"github.com/abelbrown/viral/internal/logging"
	"github.com/abelbrown/viral/internal/otel"
	"github.com/abelbrown/viral/internal/pipeline"
	"github.com/abelbrown/viral/internal/run"
	"github.com/abelbrown/viral/internal/store"
	"github.com/abelbrown/viral/internal/ui"
)

func main() {
	apiBase := flag.String("api", "", "pipeline base URL (overrides config)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("viral", logging.Version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *apiBase != "" {
		cfg.APIBase = *apiBase
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	if err := logging.Init(cfg.DataDir, logging.ParseLevel(cfg.LogLevel)); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	eventsFile, err := os.OpenFile(cfg.EventsPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Fatalf("Failed to open event log: %v", err)
	}
	defer eventsFile.Close()
	events := otel.NewLogger(eventsFile)
	ring := otel.NewRingBuffer(256)
	events.SetRingBuffer(ring)
	events.Info(otel.KindStartup, "main", "viral "+logging.Version)

	ctx, cancel := context.WithCancel(context.Background())

	// History is optional: the client still runs without an archive.
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		logging.Error("Failed to open history database", "path", cfg.DBPath(), "error", err)
		events.Error(otel.KindHistoryError, "store", err)
		st = nil
	} else {
		defer st.Close()
		logging.Info("Store initialized", "path", cfg.DBPath())
	}

	client := pipeline.NewClient(cfg.APIBase, cfg.Timeout(), cfg.MinRunInterval())
	ctrl := run.NewController(client, events)
	logging.Info("Pipeline client ready", "api", client.BaseURL(), "timeout", cfg.Timeout())

	appCfg := ui.AppConfig{
		Controller: ctrl,
		Context:    ctx,
		Defaults: ui.Defaults{
			NumPosts: cfg.RunDefaults.NumPosts,
			UseMock:  cfg.RunDefaults.UseMock,
		},
		Features: ui.Features{
			History:   st != nil,
			Clipboard: !clipboard.Unsupported,
		},
		Obs: ui.ObsConfig{Ring: ring, Logger: events, Trace: cfg.Trace},
	}

	if st != nil {
		appCfg.SaveRun = func(req pipeline.RunRequest, result pipeline.RunResult) tea.Cmd {
			return func() tea.Msg {
				id, err := st.SaveRun(req, result)
				return ui.RunSaved{ID: id, Err: err}
			}
		}
		appCfg.LoadHistory = func() tea.Cmd {
			return func() tea.Msg {
				runs, err := st.ListRuns(cfg.HistoryLimit)
				return ui.HistoryLoaded{Runs: runs, Err: err}
			}
		}
		appCfg.LoadRun = func(id int64) tea.Cmd {
			return func() tea.Msg {
				r, err := st.LoadRun(id)
				return ui.RunLoaded{Run: r, Err: err}
			}
		}
		appCfg.ClearHistory = func() tea.Cmd {
			return func() tea.Msg {
				return ui.HistoryCleared{Err: st.ClearHistory()}
			}
		}
	}
	if !clipboard.Unsupported {
		appCfg.Copy = func(text string) tea.Cmd {
			return func() tea.Msg {
				return ui.PostCopied{Err: clipboard.WriteAll(text)}
			}
		}
	}

	program := tea.NewProgram(ui.NewAppWithConfig(appCfg), tea.WithAltScreen())

	logging.Info("Starting UI", "data_dir", filepath.Clean(cfg.DataDir))
	if _, err := program.Run(); err != nil {
		logging.Error("Application error", "error", err)
		events.Error(otel.KindError, "main", err)
	}

	// Abandon any in-flight request.
	cancel()
	events.Info(otel.KindShutdown, "main", "")
	events.Close()
	logging.Info("viral exiting normally")
}
