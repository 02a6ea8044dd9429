package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/viral/internal/store"
)

// historyView lists archived runs.
type historyView struct {
	visible bool
	loading bool
	runs    []store.RunSummary
	cursor  int
}

func (h *historyView) setRuns(runs []store.RunSummary) {
	h.loading = false
	h.runs = runs
	if h.cursor >= len(runs) {
		h.cursor = max(len(runs)-1, 0)
	}
}

func (h *historyView) move(delta int) {
	h.cursor += delta
	if h.cursor >= len(h.runs) {
		h.cursor = len(h.runs) - 1
	}
	if h.cursor < 0 {
		h.cursor = 0
	}
}

func (h historyView) current() (store.RunSummary, bool) {
	if h.cursor < 0 || h.cursor >= len(h.runs) {
		return store.RunSummary{}, false
	}
	return h.runs[h.cursor], true
}

func (h historyView) view(width, height int) string {
	lines := []string{Header.Render("Run history"), ""}

	switch {
	case h.loading && len(h.runs) == 0:
		lines = append(lines, MetaItem.Render("  Loading…"))
	case len(h.runs) == 0:
		lines = append(lines, MetaItem.Render("  No archived runs yet."))
	}

	for i, r := range h.runs {
		when := r.CreatedAt.Local().Format("Jan 02 15:04")
		title := fmt.Sprintf("%s  %s", when, truncateRunes(r.Niche, max(width-60, 16)))
		meta := fmt.Sprintf("%d analysed · %d generated", r.Analyses, r.Posts)
		if r.TopViralScore > 0 {
			meta += fmt.Sprintf(" · top %d/10", r.TopViralScore)
		}
		if r.UseMock {
			meta += " · mock"
		}
		if i == h.cursor {
			lines = append(lines, SelectedItem.Render("▸ "+title)+" "+MetaItem.Render(meta))
		} else {
			lines = append(lines, NormalItem.Render("  "+title)+" "+MetaItem.Render(meta))
		}
	}

	// Keep the cursor row on screen.
	if height > 2 && len(lines) > height {
		start := min(max(h.cursor+2-height/2, 0), len(lines)-height)
		lines = append(lines[:2:2], lines[2+start:2+start+height-2]...)
	}
	return strings.Join(lines, "\n")
}

// openHistory shows the history view and requests the run list.
func (a App) openHistory() (tea.Model, tea.Cmd) {
	a.history.visible = true
	a.notice = ""
	if a.cfg.LoadHistory == nil {
		return a, nil
	}
	a.history.loading = true
	return a, a.cfg.LoadHistory()
}

func (a App) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.Back):
		a.history.visible = false
	case key.Matches(msg, keys.Up):
		a.history.move(-1)
	case key.Matches(msg, keys.Down):
		a.history.move(1)
	case key.Matches(msg, keys.Restore):
		r, ok := a.history.current()
		if !ok || a.cfg.LoadRun == nil {
			return a, nil
		}
		if a.ctrl.Running() {
			a.notice = "Finish or cancel the current run first"
			return a, nil
		}
		a.history.loading = true
		return a, a.cfg.LoadRun(r.ID)
	case key.Matches(msg, keys.ClearHistory):
		if a.cfg.ClearHistory == nil {
			return a, nil
		}
		return a, a.cfg.ClearHistory()
	}
	return a, nil
}
