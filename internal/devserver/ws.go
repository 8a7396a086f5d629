package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sansoyunu/sansoyunu/pkg/types"
)

// handleRoomWS serves GET /ws/rooms/{roomID}/. The token query parameter
// is validated before the upgrade; no handshake message follows.
func (s *Server) handleRoomWS(w http.ResponseWriter, r *http.Request) {
	roomID, err := strconv.Atoi(chi.URLParam(r, "roomID"))
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	username, ok := s.Store.Authenticate(r.URL.Query().Get("token"))
	if !ok {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if err := s.Store.Participant(roomID, username); err != nil {
		var ae *apiError
		if errors.As(err, &ae) {
			http.Error(w, ae.detail, ae.status)
			return
		}
		http.Error(w, "room unavailable", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	// Only the hub sends to or closes out; this handler replies through
	// Unicast messages so the drop-slow-client path cannot race a local
	// send on a closed channel.
	out := make(chan types.Frame, 8)
	clientID := uuid.NewString()

	s.send(Join{RoomID: roomID, ClientID: clientID, Outbox: out})
	defer s.send(Leave{RoomID: roomID, ClientID: clientID})

	reply := func(frame types.Frame) {
		s.send(Unicast{RoomID: roomID, ClientID: clientID, Frame: frame})
	}

	s.logger.Debug("stream attached",
		zap.Int("room", roomID), zap.String("user", username))

	// Writer goroutine
	writeCtx, writeCancel := context.WithCancel(r.Context())
	defer writeCancel()
	go func() {
		for frame := range out {
			payload, _ := json.Marshal(frame)
			ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
			_ = conn.Write(ctx, websocket.MessageText, payload)
			cancel()
		}
	}()

	snap, started, err := s.Store.StartIfReady(roomID)
	if err != nil {
		reply(errorFrame(err.Error()))
		return
	}
	reply(snapshotFrame(snap))
	if snap.Status != types.RoomFull && snap.Status != types.RoomFinished {
		reply(infoFrame("Waiting for second player"))
	}
	if started {
		s.broadcastGameEvent(roomID, map[string]any{
			"event":      "GAME_STARTED",
			"turn":       snap.Turn,
			"turn_count": snap.TurnCount,
		})
	}

	// Reader loop
	for {
		_, data, err := conn.Read(r.Context())
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			return
		}

		var frame types.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			reply(errorFrame("Invalid message"))
			continue
		}
		if frame.Type != types.FrameGuess {
			reply(errorFrame("Unknown message type"))
			continue
		}

		var guess struct {
			Value *int `json:"value"`
		}
		if err := json.Unmarshal(frame.Payload, &guess); err != nil || guess.Value == nil {
			reply(errorFrame("Invalid guess value"))
			continue
		}

		outcome, err := s.Store.Guess(roomID, username, *guess.Value)
		if err != nil {
			reply(errorFrame(err.Error()))
			continue
		}

		s.send(Broadcast{RoomID: roomID, Frame: snapshotFrame(outcome.Snapshot)})
		s.broadcastGameEvent(roomID, outcome.Event)
	}
}

func (s *Server) broadcastGameEvent(roomID int, payload map[string]any) {
	data, _ := json.Marshal(payload)
	s.send(Broadcast{RoomID: roomID, Frame: types.Frame{
		Type:    types.FrameGameEvent,
		Payload: data,
	}})
}

func snapshotFrame(snap types.RoomSnapshot) types.Frame {
	payload, _ := json.Marshal(snap)
	return types.Frame{Type: types.FrameSnapshot, Payload: payload}
}

func infoFrame(detail string) types.Frame {
	payload, _ := json.Marshal(map[string]string{"detail": detail})
	return types.Frame{Type: types.FrameInfo, Payload: payload}
}

func errorFrame(detail string) types.Frame {
	payload, _ := json.Marshal(types.ErrorPayload{Detail: detail})
	return types.Frame{Type: types.FrameError, Payload: payload}
}
