package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/viral/internal/pipeline"
)

type formField int

const (
	fieldNiche formField = iota
	fieldKeywords
	fieldPosts
	fieldMock
	numFields
)

// nicheSuggestions are shown under the form as examples.
var nicheSuggestions = []string{"AI tools", "B2B SaaS", "Personal branding", "Remote work", "Creator economy"}

// runForm collects the inputs of a RunRequest.
type runForm struct {
	niche    textinput.Model
	keywords textinput.Model
	countIdx int
	useMock  bool
	focus    formField
}

func newRunForm(numPosts int, useMock bool) runForm {
	niche := textinput.New()
	niche.Placeholder = "e.g. AI tools for marketers"
	niche.CharLimit = 120
	niche.Width = 48
	niche.Focus()

	kw := textinput.New()
	kw.Placeholder = "comma, separated, keywords"
	kw.CharLimit = 200
	kw.Width = 48

	f := runForm{niche: niche, keywords: kw, useMock: useMock}
	f.countIdx = indexOf(pipeline.PostCounts, numPosts)
	if f.countIdx < 0 {
		f.countIdx = indexOf(pipeline.PostCounts, pipeline.DefaultPostCount)
	}
	return f
}

func indexOf(xs []int, v int) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

// numPosts returns the selected post count.
func (f runForm) numPosts() int {
	return pipeline.PostCounts[f.countIdx]
}

// request builds a RunRequest from the current inputs.
func (f runForm) request() pipeline.RunRequest {
	return pipeline.NewRunRequest(f.niche.Value(), f.keywords.Value(), f.numPosts(), f.useMock)
}

// fill restores the inputs of an earlier request.
func (f *runForm) fill(req pipeline.RunRequest) {
	f.niche.SetValue(req.Niche)
	f.keywords.SetValue(strings.Join(req.Keywords, ", "))
	if i := indexOf(pipeline.PostCounts, req.NumPosts); i >= 0 {
		f.countIdx = i
	}
	f.useMock = req.UseMock
}

// typing reports whether a text field has focus.
func (f runForm) typing() bool {
	return f.focus == fieldNiche || f.focus == fieldKeywords
}

func (f *runForm) setFocus(field formField) {
	f.focus = (field + numFields) % numFields
	f.niche.Blur()
	f.keywords.Blur()
	switch f.focus {
	case fieldNiche:
		f.niche.Focus()
	case fieldKeywords:
		f.keywords.Focus()
	}
}

// update handles a key for the form. Submit is handled by the caller.
func (f runForm) update(msg tea.KeyMsg) (runForm, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.NextField):
		f.setFocus(f.focus + 1)
		return f, textinput.Blink
	case key.Matches(msg, keys.PrevField):
		f.setFocus(f.focus - 1)
		return f, textinput.Blink
	}

	switch f.focus {
	case fieldPosts:
		switch {
		case key.Matches(msg, keys.Left):
			if f.countIdx > 0 {
				f.countIdx--
			}
		case key.Matches(msg, keys.Right), key.Matches(msg, keys.Toggle):
			if f.countIdx < len(pipeline.PostCounts)-1 {
				f.countIdx++
			} else if key.Matches(msg, keys.Toggle) {
				f.countIdx = 0
			}
		}
		return f, nil
	case fieldMock:
		if key.Matches(msg, keys.Left, keys.Right, keys.Toggle) {
			f.useMock = !f.useMock
		}
		return f, nil
	}

	var cmd tea.Cmd
	if f.focus == fieldNiche {
		f.niche, cmd = f.niche.Update(msg)
	} else {
		f.keywords, cmd = f.keywords.Update(msg)
	}
	return f, cmd
}

func (f runForm) label(field formField, text string) string {
	if f.focus == field {
		return FormLabelFocused.Render(text)
	}
	return FormLabel.Render(text)
}

func (f runForm) view(width int) string {
	var b strings.Builder

	b.WriteString(f.label(fieldNiche, "Niche") + f.niche.View() + "\n\n")
	b.WriteString(f.label(fieldKeywords, "Keywords") + f.keywords.View() + "\n\n")

	counts := make([]string, len(pipeline.PostCounts))
	for i, n := range pipeline.PostCounts {
		if i == f.countIdx {
			counts[i] = ChoiceActive.Render(fmt.Sprint(n))
		} else {
			counts[i] = ChoiceInactive.Render(fmt.Sprint(n))
		}
	}
	b.WriteString(f.label(fieldPosts, "Posts") + strings.Join(counts, " ") + "\n\n")

	live, mock := ChoiceInactive.Render("Live"), ChoiceActive.Render("Mock data")
	if !f.useMock {
		live, mock = ChoiceActive.Render("Live"), ChoiceInactive.Render("Mock data")
	}
	b.WriteString(f.label(fieldMock, "Source") + mock + " " + live + "\n\n")

	b.WriteString(MetaItem.Render("Platform: " + pipeline.PlatformLinkedIn + "    Try: " + strings.Join(nicheSuggestions, " · ")))

	panelWidth := min(max(width-4, 40), 90)
	return FormPanel.Width(panelWidth).Render(b.String())
}
