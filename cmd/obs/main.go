// Command obs is the debug and maintenance CLI for the viral client.
//
// Usage:
//
//	obs                     Show help
//	obs events              JSONL event log viewer
//	obs stats               Run history statistics
//	obs history             List archived runs
//	obs export <id>         Print the generated posts of one run
//	obs ping                Check the pipeline API is reachable
package main

import (
	"fmt"
	"os"
)

const usage = `obs - viral debug & maintenance CLI

Usage:
  obs <command> [flags]

Commands:
  events      JSONL event log viewer
  stats       Run history statistics (tones, viral scores, niches)
  history     List archived runs
  export      Print the generated posts of an archived run
  ping        Check the pipeline API is reachable

Environment:
  VIRAL_DATA_DIR     Data directory (default: ~/.viral)
  VIRAL_API_BASE     Pipeline base URL (default: http://localhost:8000)

Run 'obs <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "events":
		runEvents()
	case "stats":
		runStats()
	case "history":
		runHistory()
	case "export":
		runExport()
	case "ping":
		runPing()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "obs: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
