package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sansoyunu/sansoyunu/pkg/types"
)

type contextKey string

const usernameKey contextKey = "username"

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := s.Store.Login(strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, errBadCredentials) {
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				"non_field_errors": {errBadCredentials.detail},
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req types.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	resp, err := s.Store.Signup(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	me, ok := s.Store.Me(usernameFrom(r.Context()))
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, me)
}

func (s *Server) handleRoomList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Store.Rooms())
}

func (s *Server) handleRoomCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BetAmount *float64 `json:"bet_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "bet_amount must be an integer")
		return
	}
	if req.BetAmount == nil {
		writeDetail(w, http.StatusBadRequest, "bet_amount is required")
		return
	}
	bet := *req.BetAmount
	if bet != math.Trunc(bet) {
		writeDetail(w, http.StatusBadRequest, "bet_amount must be an integer")
		return
	}

	room, err := s.Store.CreateRoom(usernameFrom(r.Context()), int(bet))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (s *Server) handleRoomJoin(w http.ResponseWriter, r *http.Request) {
	roomID, err := strconv.Atoi(chi.URLParam(r, "roomID"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid room id")
		return
	}
	if err := s.Store.JoinRoom(usernameFrom(r.Context()), roomID); err != nil {
		writeError(w, err)
		return
	}

	// The join starts the game, so streams already attached to the room
	// need the fresh state.
	if snap, ok := s.Store.Snapshot(roomID); ok {
		s.send(Broadcast{RoomID: roomID, Frame: snapshotFrame(snap)})
		s.broadcastGameEvent(roomID, map[string]any{
			"event":      "GAME_STARTED",
			"turn":       snap.Turn,
			"turn_count": snap.TurnCount,
		})
	}

	writeJSON(w, http.StatusOK, map[string]string{"detail": "Joined room successfully"})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Store.Leaderboard())
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Store.Transactions(usernameFrom(r.Context())))
}

func (s *Server) handleBetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Store.Settings())
}

// requireAuth resolves "Authorization: Token <key>" to a username and
// rejects everything else.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		username, ok := s.Store.Authenticate(token)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Invalid token.")
			return
		}
		ctx := context.WithValue(r.Context(), usernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "token") {
		return ""
	}
	return parts[1]
}

func usernameFrom(ctx context.Context) string {
	if v := ctx.Value(usernameKey); v != nil {
		return v.(string)
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeError(w http.ResponseWriter, err error) {
	var ae *apiError
	if errors.As(err, &ae) {
		writeDetail(w, ae.status, ae.detail)
		return
	}
	writeDetail(w, http.StatusInternalServerError, err.Error())
}
