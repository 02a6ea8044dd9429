package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding the app reacts to. Text fields in the run
// form swallow printable keys, so only non-printable bindings work there.
type keyMap struct {
	Quit      key.Binding
	ForceQuit key.Binding
	Debug     key.Binding

	// Form
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding
	Left      key.Binding
	Right     key.Binding
	Toggle    key.Binding

	// Results
	Up        key.Binding
	Down      key.Binding
	Expand    key.Binding
	SwitchTab key.Binding
	Generated key.Binding
	Analysis  key.Binding
	Copy      key.Binding
	Rerun     key.Binding
	NewRun    key.Binding
	PageUp    key.Binding
	PageDown  key.Binding

	// Running
	Cancel key.Binding

	// History
	History      key.Binding
	Restore      key.Binding
	ClearHistory key.Binding
	Back         key.Binding
}

var keys = keyMap{
	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Debug:     key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "debug")),

	NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
	Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
	Left:      key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "less")),
	Right:     key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "more")),
	Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),

	Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
	Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
	Expand:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "expand")),
	SwitchTab: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch view")),
	Generated: key.NewBinding(key.WithKeys("1", "g"), key.WithHelp("1", "generated")),
	Analysis:  key.NewBinding(key.WithKeys("2", "a"), key.WithHelp("2", "analysis")),
	Copy:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
	Rerun:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rerun")),
	NewRun:    key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "new run")),
	PageUp:    key.NewBinding(key.WithKeys("pgup", "ctrl+u")),
	PageDown:  key.NewBinding(key.WithKeys("pgdown", "ctrl+d")),

	Cancel: key.NewBinding(key.WithKeys("esc", "n"), key.WithHelp("esc", "cancel")),

	History:      key.NewBinding(key.WithKeys("h", "ctrl+o"), key.WithHelp("h", "history")),
	Restore:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "restore")),
	ClearHistory: key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "clear")),
	Back:         key.NewBinding(key.WithKeys("esc", "h"), key.WithHelp("esc", "back")),
}

// hint renders bindings as "key:desc" pairs for the status bar.
func hint(bindings ...key.Binding) string {
	var out string
	for i, b := range bindings {
		if i > 0 {
			out += StatusBarText.Render("  ")
		}
		h := b.Help()
		out += StatusBarKey.Render(h.Key) + StatusBarText.Render(":"+h.Desc)
	}
	return out
}
