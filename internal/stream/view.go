package stream

import (
	"encoding/json"
	"time"

	"github.com/sansoyunu/sansoyunu/pkg/types"
)

// maxLogEntries caps the event log; the most recent entries win.
const maxLogEntries = 50

type ConnState string

const (
	StateConnecting ConnState = "connecting"
	StateOpen       ConnState = "open"
	StateClosed     ConnState = "closed"
)

// View accumulates stream events into the state a room screen renders:
// connection state, the latest snapshot, a capped event log, and the
// current user-visible error. It is owned by exactly one room screen and
// discarded with it.
type View struct {
	ConnState ConnState
	Snapshot  *types.RoomSnapshot
	Log       []LogEntry
	Err       string
}

func NewView() *View {
	return &View{ConnState: StateConnecting}
}

func (v *View) Apply(ev Event) {
	switch e := ev.(type) {
	case Opened:
		v.ConnState = StateOpen

	case Closed:
		v.ConnState = StateClosed
		if !e.Clean {
			v.append(LogWSClosed, rawJSON(map[string]any{
				"code":   e.Code,
				"reason": e.Reason,
			}))
		}

	case TransportError:
		v.append(LogWSError, rawJSON(map[string]string{"error": e.Err.Error()}))

	case SnapshotReplaced:
		snap := e.Snapshot
		v.Snapshot = &snap

	case InfoReceived:
		v.append(LogInfo, e.Payload)

	case ErrorReceived:
		v.Err = e.Detail
		v.append(LogError, e.Payload)

	case GameEvent:
		v.append(LogGameEvent, e.Payload)

	case UnknownFrame:
		v.append(LogRaw, rawJSON(e.Frame))
	}
}

// MyTurn reports whether the guess action should be enabled for the given
// username. This is a UI affordance only; the server remains the sole
// authority on turn legality.
func (v *View) MyTurn(username string) bool {
	return v.Snapshot != nil &&
		v.Snapshot.Status == types.RoomFull &&
		v.Snapshot.Turn != "" &&
		v.Snapshot.Turn == username
}

func (v *View) append(kind LogKind, payload json.RawMessage) {
	v.Log = append(v.Log, LogEntry{Kind: kind, Payload: payload, At: time.Now()})
	if len(v.Log) > maxLogEntries {
		v.Log = v.Log[len(v.Log)-maxLogEntries:]
	}
}

func rawJSON(val any) json.RawMessage {
	data, err := json.Marshal(val)
	if err != nil {
		return nil
	}
	return data
}
