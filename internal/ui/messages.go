// Package ui provides the Bubble Tea TUI for the viral client.
package ui

import (
	"time"

	"github.com/abelbrown/viral/internal/store"
)

// RunSaved is sent when a completed run has been archived.
type RunSaved struct {
	ID  int64
	Err error
}

// HistoryLoaded is sent when the archived run list is read.
type HistoryLoaded struct {
	Runs []store.RunSummary
	Err  error
}

// RunLoaded is sent when one archived run has been read for restoring.
type RunLoaded struct {
	Run store.Run
	Err error
}

// HistoryCleared is sent after the archive is wiped.
type HistoryCleared struct {
	Err error
}

// PostCopied is sent after a post was written to the clipboard.
type PostCopied struct {
	Err error
}

// copiedExpired hides the "Copied" badge. At identifies which copy it
// belongs to so an older timer cannot hide a newer badge.
type copiedExpired struct {
	At time.Time
}
