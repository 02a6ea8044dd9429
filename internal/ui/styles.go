package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/viral/internal/aggregate"
	"github.com/abelbrown/viral/internal/pipeline"
)

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorWarning   = lipgloss.Color("214") // Amber
	colorDanger    = lipgloss.Color("196") // Red
	colorText      = lipgloss.Color("255")
)

// Header is the top title line.
var Header = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorText).
	Background(colorPrimary).
	Padding(0, 1)

// CopiedBadge flashes after a post is copied.
var CopiedBadge = lipgloss.NewStyle().
	Foreground(lipgloss.Color("0")).
	Background(colorSuccess).
	Bold(true).
	Padding(0, 1)

// SelectedItem style for the currently highlighted item.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorText).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for unselected items.
var NormalItem = lipgloss.NewStyle().
	Foreground(colorText).
	Padding(0, 1)

// MetaItem style for secondary lines (author, counts).
var MetaItem = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ExpandedBody indents the details of the expanded entry.
var ExpandedBody = lipgloss.NewStyle().
	Foreground(colorText).
	PaddingLeft(4)

// SectionLabel style for labels inside an expanded entry.
var SectionLabel = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// TabActive and TabInactive render the result tab selector.
var TabActive = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorText).
	Background(colorPrimary).
	Padding(0, 2)

var TabInactive = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 2)

// StatBar style for the summary numbers under the tabs.
var StatBar = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// StatValue style for the numbers in the stat bar.
var StatValue = lipgloss.NewStyle().
	Foreground(colorText).
	Bold(true)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(colorText).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorDanger).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// FormPanel frames the run form.
var FormPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// FormLabel and FormLabelFocused render field labels.
var FormLabel = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Width(12)

var FormLabelFocused = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true).
	Width(12)

// ChoiceActive marks the selected option of a cycling field.
var ChoiceActive = lipgloss.NewStyle().
	Foreground(colorText).
	Background(colorPrimary).
	Padding(0, 1)

var ChoiceInactive = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// RunningTitle style for the in-flight screen.
var RunningTitle = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	BorderForeground(colorWarning).
	Padding(1, 2)

// DebugHeaderStyle for section headers inside the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Foreground(colorWarning).
	Bold(true)

// MeterFull and MeterEmpty draw average score bars.
var MeterFull = lipgloss.NewStyle().Foreground(colorSuccess)
var MeterEmpty = lipgloss.NewStyle().Foreground(colorMuted)

var badgeBase = lipgloss.NewStyle().Bold(true).Padding(0, 1)

// bucketStyles maps every aggregate bucket to a badge style.
var bucketStyles = map[aggregate.Bucket]lipgloss.Style{
	aggregate.BucketPositive: badgeBase.Foreground(lipgloss.Color("0")).Background(colorSuccess),
	aggregate.BucketNeutral:  badgeBase.Foreground(lipgloss.Color("0")).Background(colorWarning),
	aggregate.BucketNegative: badgeBase.Foreground(colorText).Background(colorDanger),
	aggregate.BucketTier1:    badgeBase.Foreground(lipgloss.Color("0")).Background(colorSuccess),
	aggregate.BucketTier2:    badgeBase.Foreground(lipgloss.Color("0")).Background(colorWarning),
	aggregate.BucketTier3:    badgeBase.Foreground(colorText).Background(colorMuted),
}

// BucketStyle returns the badge style for a bucket.
func BucketStyle(b aggregate.Bucket) lipgloss.Style {
	if s, ok := bucketStyles[b]; ok {
		return s
	}
	return badgeBase
}

var toneColors = map[pipeline.Tone]lipgloss.Color{
	pipeline.ToneBold:         lipgloss.Color("203"),
	pipeline.ToneVulnerable:   lipgloss.Color("141"),
	pipeline.ToneDataDriven:   lipgloss.Color("39"),
	pipeline.ToneContrarian:   lipgloss.Color("214"),
	pipeline.ToneStorytelling: lipgloss.Color("78"),
}

// ToneStyle colors a tone label. Unknown tones use the secondary color.
func ToneStyle(t pipeline.Tone) lipgloss.Style {
	c, ok := toneColors[t]
	if !ok {
		c = colorSecondary
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}
