// Package otel records what the client did during a session.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// them asynchronously through a buffered channel and a drain goroutine.
// An optional RingBuffer keeps the recent tail in memory for the debug
// overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Run lifecycle
	KindRunSubmit   EventKind = "run.submit"
	KindRunReject   EventKind = "run.reject"
	KindRunComplete EventKind = "run.complete"
	KindRunError    EventKind = "run.error"
	KindRunStale    EventKind = "run.stale"
	KindRunReset    EventKind = "run.reset"
	KindRunRestore  EventKind = "run.restore"

	// History archive
	KindHistorySave  EventKind = "history.save"
	KindHistoryLoad  EventKind = "history.load"
	KindHistoryClear EventKind = "history.clear"
	KindHistoryError EventKind = "history.error"

	// UI
	KindCopy     EventKind = "ui.copy"
	KindTab      EventKind = "ui.tab"
	KindKeyPress EventKind = "ui.key"

	// System
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Only emitted when tracing is enabled in config.
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is the universal record. Every field except Kind and Time is
// optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // "run", "ui", "store", "main"
	SessionID string         `json:"session_id,omitempty"` // random hex, same for entire app run
	Gen       uint64         `json:"gen,omitempty"`        // run generation the event belongs to
	RunID     int64          `json:"run_id,omitempty"`     // history row id
	Niche     string         `json:"niche,omitempty"`
	Status    int            `json:"status,omitempty"` // HTTP status of a failed run
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
