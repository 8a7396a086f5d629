package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/sansoyunu/sansoyunu/pkg/types"
)

func fullSnapshot(turn string) types.RoomSnapshot {
	return types.RoomSnapshot{
		Room:      7,
		Status:    types.RoomFull,
		BetAmount: 50,
		Players:   []string{"mel", "ayse"},
		Turn:      turn,
	}
}

func TestView_SnapshotReplacedWholesale(t *testing.T) {
	v := NewView()
	v.Apply(Opened{})
	v.Apply(SnapshotReplaced{Snapshot: fullSnapshot("mel")})

	if v.Snapshot == nil || v.Snapshot.Turn != "mel" {
		t.Fatalf("first snapshot not applied: %+v", v.Snapshot)
	}

	// a later snapshot replaces everything, including fields that went empty
	next := fullSnapshot("")
	next.Status = types.RoomFinished
	next.Winner = "ayse"
	v.Apply(SnapshotReplaced{Snapshot: next})

	if v.Snapshot.Turn != "" || v.Snapshot.Winner != "ayse" {
		t.Fatalf("snapshot not replaced wholesale: %+v", v.Snapshot)
	}
}

func TestView_MyTurn(t *testing.T) {
	finished := fullSnapshot("mel")
	finished.Status = types.RoomFinished
	open := fullSnapshot("mel")
	open.Status = types.RoomOpen

	cases := []struct {
		name string
		snap *types.RoomSnapshot
		user string
		want bool
	}{
		{name: "no snapshot yet", snap: nil, user: "mel", want: false},
		{name: "my turn", snap: ptr(fullSnapshot("mel")), user: "mel", want: true},
		{name: "opponent turn", snap: ptr(fullSnapshot("ayse")), user: "mel", want: false},
		{name: "empty turn", snap: ptr(fullSnapshot("")), user: "mel", want: false},
		{name: "finished room", snap: &finished, user: "mel", want: false},
		{name: "waiting for opponent", snap: &open, user: "mel", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := NewView()
			v.ConnState = StateOpen
			v.Snapshot = tc.snap
			if got := v.MyTurn(tc.user); got != tc.want {
				t.Fatalf("MyTurn(%q) = %v, want %v", tc.user, got, tc.want)
			}
		})
	}
}

func TestView_ErrorSetsErrAndLogs(t *testing.T) {
	v := NewView()
	v.Apply(ErrorReceived{Detail: "Not your turn", Payload: json.RawMessage(`{"detail":"Not your turn"}`)})

	if v.Err != "Not your turn" {
		t.Fatalf("Err = %q", v.Err)
	}
	if len(v.Log) != 1 || v.Log[0].Kind != LogError {
		t.Fatalf("expected one ERROR log entry, got %+v", v.Log)
	}
}

func TestView_UnknownFrameKeptAsRaw(t *testing.T) {
	v := NewView()
	v.Apply(UnknownFrame{Frame: types.Frame{
		Type:    "CHAT",
		Payload: json.RawMessage(`{"text":"hi"}`),
	}})

	if len(v.Log) != 1 || v.Log[0].Kind != LogRaw {
		t.Fatalf("expected one RAW log entry, got %+v", v.Log)
	}
}

func TestView_UncleanCloseLogged(t *testing.T) {
	v := NewView()
	v.Apply(Opened{})
	v.Apply(Closed{Code: 1006, Reason: "abnormal", Clean: false})

	if v.ConnState != StateClosed {
		t.Fatalf("ConnState = %v", v.ConnState)
	}
	if len(v.Log) != 1 || v.Log[0].Kind != LogWSClosed {
		t.Fatalf("expected WS_CLOSED entry, got %+v", v.Log)
	}

	// a clean close is silent
	v2 := NewView()
	v2.Apply(Closed{Clean: true})
	if len(v2.Log) != 0 {
		t.Fatalf("clean close should not log, got %+v", v2.Log)
	}
}

func TestView_LogCapped(t *testing.T) {
	v := NewView()
	for i := 0; i < maxLogEntries+10; i++ {
		payload := json.RawMessage(fmt.Sprintf(`{"n":%d}`, i))
		v.Apply(InfoReceived{Payload: payload})
	}

	if len(v.Log) != maxLogEntries {
		t.Fatalf("log length = %d, want %d", len(v.Log), maxLogEntries)
	}
	// oldest entries are dropped; the last entry is the newest
	last := v.Log[len(v.Log)-1]
	if string(last.Payload) != fmt.Sprintf(`{"n":%d}`, maxLogEntries+9) {
		t.Fatalf("unexpected newest entry %s", last.Payload)
	}
}

func TestView_TransportErrorLogged(t *testing.T) {
	v := NewView()
	v.Apply(TransportError{Err: errors.New("read tcp: connection reset")})

	if len(v.Log) != 1 || v.Log[0].Kind != LogWSError {
		t.Fatalf("expected WS_ERROR entry, got %+v", v.Log)
	}
}

func ptr(s types.RoomSnapshot) *types.RoomSnapshot { return &s }
