package stream

import (
	"encoding/json"
	"time"

	"github.com/sansoyunu/sansoyunu/pkg/types"
)

// Event is one typed state transition decoded from the room stream. The
// set is closed; consumers switch over it and handle every variant.
type Event interface{ isEvent() }

// Opened fires once when the transport reaches the open state.
type Opened struct{}

// Closed fires when the transport closes. Clean is true for a normal or
// locally initiated closure.
type Closed struct {
	Code   int
	Reason string
	Clean  bool
}

// TransportError reports a transport-level failure. It does not by itself
// end the stream; a Closed event always follows.
type TransportError struct{ Err error }

// SnapshotReplaced carries a full room snapshot that replaces any
// previously held one.
type SnapshotReplaced struct{ Snapshot types.RoomSnapshot }

type InfoReceived struct{ Payload json.RawMessage }

// ErrorReceived carries a server-pushed ERROR frame. Detail is the
// user-visible message.
type ErrorReceived struct {
	Detail  string
	Payload json.RawMessage
}

type GameEvent struct{ Payload json.RawMessage }

// UnknownFrame preserves frames with an unrecognized type tag so they stay
// visible for inspection instead of being dropped silently.
type UnknownFrame struct{ Frame types.Frame }

func (Opened) isEvent()           {}
func (Closed) isEvent()           {}
func (TransportError) isEvent()   {}
func (SnapshotReplaced) isEvent() {}
func (InfoReceived) isEvent()     {}
func (ErrorReceived) isEvent()    {}
func (GameEvent) isEvent()        {}
func (UnknownFrame) isEvent()     {}

type LogKind string

const (
	LogInfo      LogKind = "INFO"
	LogError     LogKind = "ERROR"
	LogGameEvent LogKind = "GAME_EVENT"
	LogWSClosed  LogKind = "WS_CLOSED"
	LogWSError   LogKind = "WS_ERROR"
	LogRaw       LogKind = "RAW"
)

// LogEntry is one append-only event log record, capped for display and
// never persisted past the room screen's lifetime.
type LogEntry struct {
	Kind    LogKind
	Payload json.RawMessage
	At      time.Time
}
