package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/abelbrown/viral/internal/aggregate"
	"github.com/abelbrown/viral/internal/pipeline"
)

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	limit := fs.Int("n", 1000, "Number of recent runs to include")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	st := openDB(cfg)
	defer st.Close()

	runs, err := st.ListRuns(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Runs archived:         %d\n", len(runs))
	if len(runs) == 0 {
		return
	}

	var analyses []pipeline.PostAnalysis
	tones := map[pipeline.Tone]int{}
	viral := map[aggregate.Bucket]int{}
	niches := map[string]int{}
	mockRuns := 0
	totalPosts := 0

	for _, r := range runs {
		niches[r.Niche]++
		if r.UseMock {
			mockRuns++
		}
		full, err := st.LoadRun(r.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: run %d: %v\n", r.ID, err)
			continue
		}
		analyses = append(analyses, full.Result.Analyses...)
		for _, tc := range aggregate.Summarize(full.Result).Tones {
			tones[tc.Tone] += tc.Count
		}
		for _, p := range full.Result.GeneratedPosts {
			viral[aggregate.ViralBucket(p.ViralScore)]++
			totalPosts++
		}
	}

	fmt.Printf("Mock runs:             %d\n", mockRuns)
	fmt.Printf("Posts analysed:        %d\n", len(analyses))
	fmt.Printf("Posts generated:       %d\n", totalPosts)
	fmt.Printf("Newest run:            %s\n", runs[0].CreatedAt.Local().Format(time.RFC3339))
	fmt.Printf("Oldest run:            %s\n", runs[len(runs)-1].CreatedAt.Local().Format(time.RFC3339))

	if avg, ok := aggregate.ComputeAverages(analyses); ok {
		fmt.Printf("\nAvg sentiment:         %.1f (%s)\n", avg.Sentiment, aggregate.SentimentBucket(avg.Sentiment))
		fmt.Printf("Avg usefulness:        %.1f (%s)\n", avg.Usefulness, aggregate.SentimentBucket(avg.Usefulness))
	}

	fmt.Println("\nViral scores:")
	for _, b := range []aggregate.Bucket{aggregate.BucketTier1, aggregate.BucketTier2, aggregate.BucketTier3} {
		fmt.Printf("  %-8s %d\n", b, viral[b])
	}

	fmt.Println("\nTones:")
	for _, t := range pipeline.Tones {
		fmt.Printf("  %-14s %d\n", t, tones[t])
	}
	for t, n := range tones {
		if !t.Known() {
			fmt.Printf("  %-14s %d (unrecognised)\n", t, n)
		}
	}

	type nicheCount struct {
		name  string
		count int
	}
	var top []nicheCount
	for name, count := range niches {
		top = append(top, nicheCount{name, count})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].count != top[j].count {
			return top[i].count > top[j].count
		}
		return top[i].name < top[j].name
	})
	if len(top) > 10 {
		top = top[:10]
	}
	fmt.Printf("\nNiches (%d):\n", len(niches))
	for _, n := range top {
		fmt.Printf("  %-35s %d\n", truncate(n.name, 35), n.count)
	}
}
