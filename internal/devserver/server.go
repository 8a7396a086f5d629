package devserver

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Server bundles the store, the stream hub and the HTTP surface. Tests
// reach into Store directly to arrange state.
type Server struct {
	Store  *Store
	hub    *Hub
	logger *zap.Logger
}

func New(ctx context.Context, logger *zap.Logger) *Server {
	return &Server{
		Store:  NewStore(),
		hub:    NewHub(ctx),
		logger: logger.Named("devserver"),
	}
}

// send delivers a hub message unless the hub has already shut down. Every
// handler-side hub send goes through here so none can block against a
// stopped loop.
func (s *Server) send(msg HubMsg) {
	select {
	case s.hub.Inbox() <- msg:
	case <-s.hub.Done():
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Post("/api/auth/login/", s.handleLogin)
	r.Post("/api/auth/signup/", s.handleSignup)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/ws/rooms/{roomID}/", s.handleRoomWS)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/api/me/", s.handleMe)
		r.Get("/api/rooms/", s.handleRoomList)
		r.Post("/api/rooms/", s.handleRoomCreate)
		r.Post("/api/rooms/{roomID}/join/", s.handleRoomJoin)
		r.Get("/api/leaderboard/", s.handleLeaderboard)
		r.Get("/api/transactions/", s.handleTransactions)
		r.Get("/api/admin/bet-settings/", s.handleBetSettings)
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
