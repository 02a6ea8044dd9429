package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/abelbrown/viral/internal/store"
)

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("n", 20, "Number of runs to list")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	st := openDB(cfg)
	defer st.Close()

	runs, err := st.ListRuns(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return
	}

	fmt.Printf("%5s  %-16s  %-30s  %5s  %5s  %4s\n", "ID", "CREATED", "NICHE", "POSTS", "GEN", "TOP")
	for _, r := range runs {
		niche := truncate(r.Niche, 30)
		if r.UseMock {
			niche = truncate(r.Niche, 23) + " (mock)"
		}
		fmt.Printf("%5d  %-16s  %-30s  %5d  %5d  %4d\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), niche, r.Analyses, r.Posts, r.TopViralScore)
	}
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print the full run as JSON")
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: obs export [-json] <run-id>")
		os.Exit(2)
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid run id %q\n", fs.Arg(0))
		os.Exit(2)
	}

	cfg := loadConfig()
	st := openDB(cfg)
	defer st.Close()

	r, err := st.LoadRun(id)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "error: no run with id %d\n", id)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Request any `json:"request"`
			Result  any `json:"result"`
		}{r.Request, r.Result}); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	for i, p := range r.Result.GeneratedPosts {
		if i > 0 {
			fmt.Println(strings.Repeat("-", 60))
		}
		fmt.Printf("[%s · %d/10]\n\n", p.Tone, p.ViralScore)
		fmt.Println(p.PlainText())
	}
}
