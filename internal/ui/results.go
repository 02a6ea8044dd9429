package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/viral/internal/aggregate"
	"github.com/abelbrown/viral/internal/pipeline"
	"github.com/abelbrown/viral/internal/selection"
)

// Tab selects which result list is shown.
type Tab int

const (
	TabGenerated Tab = iota
	TabAnalysis
)

func (t Tab) String() string {
	if t == TabAnalysis {
		return "analysis"
	}
	return "generated"
}

const meterWidth = 10

// rendered is a result list as lines plus the line the cursor entry
// starts on, so the viewport can keep it visible.
type rendered struct {
	content    string
	cursorLine int
}

// scoreBadge renders a 1–5 score. Missing scores show the midpoint like
// the averages do.
func scoreBadge(label string, s pipeline.Score) string {
	v := s.Value()
	return BucketStyle(aggregate.SentimentBucket(float64(v))).Render(fmt.Sprintf("%s %d/5", label, v))
}

func viralBadge(score int) string {
	return BucketStyle(aggregate.ViralBucket(score)).Render(fmt.Sprintf("🔥 %d/10", score))
}

// meter draws a bar filled to value/max.
func meter(value, max float64) string {
	full := int(aggregate.Fraction(value, max)*meterWidth + 0.5)
	return MeterFull.Render(strings.Repeat("█", full)) + MeterEmpty.Render(strings.Repeat("░", meterWidth-full))
}

func wrap(text string, width int) string {
	if width < 20 {
		width = 20
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

func entryTitle(selected bool, expanded bool, text string) string {
	marker := "▸ "
	if expanded {
		marker = "▾ "
	}
	if selected {
		return SelectedItem.Render(marker + text)
	}
	return NormalItem.Render(marker + text)
}

// renderGenerated renders the generated-post list.
func renderGenerated(posts selection.List[pipeline.GeneratedPost], width int) rendered {
	if posts.Len() == 0 {
		return rendered{content: MetaItem.Render("  No posts were generated for this run.")}
	}

	var lines []string
	cursorLine := 0
	bodyWidth := width - 8
	for i, p := range posts.Items() {
		if i == posts.Cursor() {
			cursorLine = len(lines)
		}
		expanded := posts.IsExpanded(i)
		title := truncateRunes(p.HookLine(), max(width-30, 20))
		lines = append(lines, entryTitle(i == posts.Cursor(), expanded, title)+" "+viralBadge(p.ViralScore)+" "+ToneStyle(p.Tone).Render(string(p.Tone)))

		if expanded {
			var b strings.Builder
			b.WriteString(SectionLabel.Render("Hook") + "\n" + wrap(p.Hook, bodyWidth) + "\n\n")
			b.WriteString(SectionLabel.Render("Body") + "\n" + wrap(p.Body, bodyWidth) + "\n\n")
			b.WriteString(SectionLabel.Render("CTA") + "\n" + wrap(p.CTA, bodyWidth))
			if len(p.Hashtags) > 0 {
				tags := make([]string, len(p.Hashtags))
				for j, h := range p.Hashtags {
					tags[j] = "#" + h
				}
				b.WriteString("\n\n" + MetaItem.Render(strings.Join(tags, " ")))
			}
			lines = append(lines, ExpandedBody.Render(b.String()), "")
		}
	}
	return rendered{content: strings.Join(lines, "\n"), cursorLine: cursorLine}
}

// renderAnalyses renders the source-post analysis list.
func renderAnalyses(analyses selection.List[pipeline.PostAnalysis], width int) rendered {
	if analyses.Len() == 0 {
		return rendered{content: MetaItem.Render("  No posts were analysed for this run.")}
	}

	var lines []string
	cursorLine := 0
	bodyWidth := width - 8
	for i, a := range analyses.Items() {
		if i == analyses.Cursor() {
			cursorLine = len(lines)
		}
		expanded := analyses.IsExpanded(i)
		author := a.Author
		if author == "" {
			author = "Unknown author"
		}
		title := entryTitle(i == analyses.Cursor(), expanded, truncateRunes(author, 32))
		lines = append(lines, title+" "+scoreBadge("sentiment", a.OverallSentiment)+" "+scoreBadge("useful", a.ToolUsefulness))

		if expanded {
			var b strings.Builder
			meta := fmt.Sprintf("👍 %d  💬 %d  ↗ %d", a.Likes, a.Comments, a.Shares)
			if a.IsMock() {
				meta += "  · mock"
			}
			b.WriteString(MetaItem.Render(meta))
			if a.Text != "" {
				b.WriteString("\n\n" + wrap(a.Text, bodyWidth))
			}
			if a.KeyInsights != "" {
				b.WriteString("\n\n" + SectionLabel.Render("Key insights") + "\n" + wrap(a.KeyInsights, bodyWidth))
			}
			if len(a.CommonQuestions) > 0 {
				b.WriteString("\n\n" + SectionLabel.Render("Common questions"))
				for _, q := range a.CommonQuestions {
					b.WriteString("\n" + wrap("• "+q, bodyWidth))
				}
			}
			if a.URL != "" {
				b.WriteString("\n\n" + MetaItem.Render(a.URL))
			}
			lines = append(lines, ExpandedBody.Render(b.String()), "")
		}
	}
	return rendered{content: strings.Join(lines, "\n"), cursorLine: cursorLine}
}

// averagesLine renders the analysis tab's average scores, or a no-data note.
func averagesLine(analyses []pipeline.PostAnalysis) string {
	avg, ok := aggregate.ComputeAverages(analyses)
	if !ok {
		return StatBar.Render("Averages: no data")
	}
	part := func(label string, v float64) string {
		b := aggregate.SentimentBucket(v)
		return fmt.Sprintf("%s %s %s", label, meter(v, 5), BucketStyle(b).Render(fmt.Sprintf("%.1f", v)))
	}
	return StatBar.Render(part("avg sentiment", avg.Sentiment) + "    " + part("avg usefulness", avg.Usefulness))
}

// statLine renders the summary numbers shown above both tabs.
func statLine(result pipeline.RunResult) string {
	s := aggregate.Summarize(result)
	stat := func(n int, label string) string {
		return StatValue.Render(fmt.Sprint(n)) + " " + label
	}
	parts := []string{
		stat(s.PostsAnalysed, "analysed"),
		stat(s.PostsGenerated, "generated"),
		StatValue.Render(pipeline.PlatformLinkedIn),
	}
	if s.MockAnalyses > 0 {
		parts = append(parts, stat(s.MockAnalyses, "mock"))
	}
	if s.TopViralScore > 0 {
		parts = append(parts, "top "+StatValue.Render(fmt.Sprintf("%d/10", s.TopViralScore)))
	}
	if len(s.Tones) > 0 {
		tones := make([]string, len(s.Tones))
		for i, tc := range s.Tones {
			tones[i] = ToneStyle(tc.Tone).Render(string(tc.Tone)) + fmt.Sprintf("×%d", tc.Count)
		}
		parts = append(parts, strings.Join(tones, " "))
	}
	return StatBar.Render(strings.Join(parts, "  ·  "))
}

func tabBar(active Tab, result pipeline.RunResult) string {
	gen := fmt.Sprintf("Generated (%d)", len(result.GeneratedPosts))
	ana := fmt.Sprintf("Analysis (%d)", len(result.Analyses))
	if active == TabAnalysis {
		return TabInactive.Render(gen) + TabActive.Render(ana)
	}
	return TabActive.Render(gen) + TabInactive.Render(ana)
}

// truncateRunes shortens s to n runes, adding an ellipsis.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
