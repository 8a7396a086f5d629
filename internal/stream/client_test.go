package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/sansoyunu/sansoyunu/pkg/types"
)

// helper: receive one event with a timeout so tests never hang
func recvEvent(t *testing.T, ch <-chan Event, within time.Duration) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatalf("events channel closed unexpectedly")
		}
		return ev
	case <-time.After(within):
		t.Fatalf("timed out waiting for event")
		return nil // unreachable
	}
}

// wsServer runs handler for each incoming websocket and returns the ws://
// base URL to dial.
func wsServer(t *testing.T, handler func(ctx context.Context, conn *websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		handler(r.Context(), conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func writeFrame(ctx context.Context, conn *websocket.Conn, frame types.Frame) {
	data, _ := json.Marshal(frame)
	conn.Write(ctx, websocket.MessageText, data)
}

func TestURL_EscapesCredential(t *testing.T) {
	got := URL("ws://host:8000/", 7, "a b+c")
	want := "ws://host:8000/ws/rooms/7/?token=a+b%2Bc"
	if got != want {
		t.Fatalf("URL = %q, want %q", got, want)
	}
}

func TestDial_DeliversFramesInOrder(t *testing.T) {
	snap := types.RoomSnapshot{Room: 1, Status: types.RoomOpen, BetAmount: 50, Players: []string{"mel", ""}}
	snapPayload, _ := json.Marshal(snap)

	wsBase := wsServer(t, func(ctx context.Context, conn *websocket.Conn) {
		writeFrame(ctx, conn, types.Frame{Type: types.FrameSnapshot, Payload: snapPayload})
		writeFrame(ctx, conn, types.Frame{Type: types.FrameInfo, Payload: json.RawMessage(`{"detail":"Waiting for second player"}`)})
		// hold the connection open until the client hangs up
		conn.Read(ctx)
	})

	client, err := Dial(context.Background(), wsBase, 1, "tok", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		client.Close()
		for range client.Events() {
		}
	}()

	if _, ok := recvEvent(t, client.Events(), time.Second).(Opened); !ok {
		t.Fatal("first event is not Opened")
	}
	sr, ok := recvEvent(t, client.Events(), time.Second).(SnapshotReplaced)
	if !ok || sr.Snapshot.Room != 1 || sr.Snapshot.BetAmount != 50 {
		t.Fatalf("second event = %+v", sr)
	}
	if _, ok := recvEvent(t, client.Events(), time.Second).(InfoReceived); !ok {
		t.Fatal("third event is not InfoReceived")
	}
}

func TestDial_MalformedFrameSwallowed(t *testing.T) {
	wsBase := wsServer(t, func(ctx context.Context, conn *websocket.Conn) {
		conn.Write(ctx, websocket.MessageText, []byte("not json at all"))
		writeFrame(ctx, conn, types.Frame{Type: types.FrameInfo, Payload: json.RawMessage(`{"detail":"still alive"}`)})
		conn.Read(ctx)
	})

	client, err := Dial(context.Background(), wsBase, 1, "tok", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		client.Close()
		for range client.Events() {
		}
	}()

	recvEvent(t, client.Events(), time.Second) // Opened

	// the malformed frame is dropped, so the next event is the INFO
	if _, ok := recvEvent(t, client.Events(), time.Second).(InfoReceived); !ok {
		t.Fatal("expected InfoReceived after malformed frame")
	}
}

func TestSendGuess_Validation(t *testing.T) {
	wsBase := wsServer(t, func(ctx context.Context, conn *websocket.Conn) {
		conn.Read(ctx)
	})

	client, err := Dial(context.Background(), wsBase, 1, "tok", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	if err := client.SendGuess(context.Background(), 0); !errors.Is(err, ErrGuessOutOfRange) {
		t.Fatalf("SendGuess(0) = %v", err)
	}
	if err := client.SendGuess(context.Background(), 101); !errors.Is(err, ErrGuessOutOfRange) {
		t.Fatalf("SendGuess(101) = %v", err)
	}

	client.Close()
	for range client.Events() {
	}

	if err := client.SendGuess(context.Background(), 50); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("SendGuess after Close = %v", err)
	}
}

func TestClose_EmitsCleanClosedAndEndsStream(t *testing.T) {
	wsBase := wsServer(t, func(ctx context.Context, conn *websocket.Conn) {
		conn.Read(ctx)
	})

	client, err := Dial(context.Background(), wsBase, 1, "tok", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	recvEvent(t, client.Events(), time.Second) // Opened

	client.Close()
	client.Close() // idempotent

	var sawClean bool
	for ev := range client.Events() {
		if c, ok := ev.(Closed); ok && c.Clean {
			sawClean = true
		}
	}
	if !sawClean {
		t.Fatal("no clean Closed event after local Close")
	}
	if client.State() != StateClosed {
		t.Fatalf("state = %v", client.State())
	}
}

func TestRemoteClose_ReportsCodeAndReason(t *testing.T) {
	wsBase := wsServer(t, func(ctx context.Context, conn *websocket.Conn) {
		conn.Close(websocket.StatusPolicyViolation, "Not a participant of this room")
	})

	client, err := Dial(context.Background(), wsBase, 1, "tok", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	recvEvent(t, client.Events(), time.Second) // Opened

	var closed Closed
	for ev := range client.Events() {
		if c, ok := ev.(Closed); ok {
			closed = c
		}
	}
	if closed.Clean {
		t.Fatal("policy violation close reported as clean")
	}
	if closed.Code != int(websocket.StatusPolicyViolation) {
		t.Fatalf("code = %d", closed.Code)
	}
	if closed.Reason != "Not a participant of this room" {
		t.Fatalf("reason = %q", closed.Reason)
	}
}
