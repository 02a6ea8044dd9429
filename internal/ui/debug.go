package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/viral/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

const recentEvents = 20

// debugOverlay renders the debug panel showing run stats and recent events.
// Pure function with no side effects. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	tally := ring.Tally()
	gen := ring.CurrentGen()

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Run Stats"))
	lines = append(lines, fmt.Sprintf("  Runs:       %d submitted, %d complete, %d errors",
		tally.Submitted, tally.Completed, tally.Failed))
	lines = append(lines, fmt.Sprintf("  Dropped:    %d stale, %d rejected, %d reset",
		tally.Stale, tally.Rejected, tally.Reset))
	lines = append(lines, fmt.Sprintf("  History:    %d saved, %d restored, %d errors",
		tally.Saved, tally.Restored, tally.HistoryErrors))
	if tally.Completed > 0 {
		lines = append(lines, fmt.Sprintf("  Latency:    %s avg", formatAge(tally.AvgLatency)))
	}
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	if gen != 0 {
		lines = append(lines, DebugHeaderStyle.Render(fmt.Sprintf("Current Run (gen %d)", gen)))
		for _, e := range ring.ForGen(gen) {
			lines = append(lines, eventLine(e))
		}
		lines = append(lines, "")
	}

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range ring.Last(recentEvents) {
		lines = append(lines, eventLine(e))
	}

	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

func eventLine(e otel.Event) string {
	line := fmt.Sprintf("  %6s  %-18s", formatAge(time.Since(e.Time)), string(e.Kind))
	if e.Gen != 0 {
		line += fmt.Sprintf("  gen:%d", e.Gen)
	}
	if e.Niche != "" {
		line += "  " + truncateRunes(e.Niche, 24)
	}
	if e.Msg != "" {
		line += "  " + truncateRunes(e.Msg, 40)
	}
	if e.Err != "" {
		line += "  ERR:" + truncateRunes(e.Err, 30)
	}
	return line
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	return StatusBar.Width(width).Render("  [DEBUG]  " + hint(keys.Debug))
}
