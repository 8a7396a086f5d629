package types

import "encoding/json"

// Room lifecycle states as reported by the game server.
const (
	RoomOpen     = "open"
	RoomFull     = "full"
	RoomFinished = "finished"
)

// Inbound frame tags.
const (
	FrameSnapshot  = "SNAPSHOT"
	FrameInfo      = "INFO"
	FrameError     = "ERROR"
	FrameGameEvent = "GAME_EVENT"
)

// Outbound frame tags.
const (
	FrameGuess = "GUESS"
)

// Frame is one structured WebSocket message, tagged by Type.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RoomSnapshot is the server-authoritative room state, replaced wholesale
// on every SNAPSHOT frame. Null JSON fields decode to zero values.
type RoomSnapshot struct {
	Room       int      `json:"room"`
	Status     string   `json:"status"`
	BetAmount  int      `json:"bet_amount"`
	Players    []string `json:"players"`
	Turn       string   `json:"turn"`
	Winner     string   `json:"winner"`
	FinishedAt string   `json:"finished_at"`
	TurnCount  int      `json:"turn_count"`
}

// GuessPayload is the payload of an outbound GUESS frame.
type GuessPayload struct {
	Value int `json:"value"`
}

// ErrorPayload is the payload of a server ERROR frame.
type ErrorPayload struct {
	Detail string `json:"detail"`
}

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Balance  int    `json:"balance"`
}

// UserRef is the short user shape returned by auth endpoints.
type UserRef struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	Age      int    `json:"age,omitempty"`
}

type AuthResponse struct {
	Token string  `json:"token"`
	User  UserRef `json:"user"`
}

type RoomListItem struct {
	ID          int    `json:"id"`
	BetAmount   int    `json:"bet_amount"`
	Status      string `json:"status"`
	Player1ID   int    `json:"player1_id"`
	Player2ID   *int   `json:"player2_id"`
	PlayerCount int    `json:"player_count"`
	CreatedAt   string `json:"created_at,omitempty"`
	FinishedAt  string `json:"finished_at,omitempty"`
}

type CreateRoomRequest struct {
	BetAmount int `json:"bet_amount"`
}

type LeaderboardRow struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Balance  int    `json:"balance"`
}

// Account transaction types.
const (
	TxBetLock = "BET_LOCK"
	TxPayout  = "PAYOUT"
)

type TransactionRow struct {
	ID            int    `json:"id"`
	Type          string `json:"type"`
	Amount        int    `json:"amount"`
	NetChange     int    `json:"net_change"`
	BalanceAfter  int    `json:"balance_after"`
	RoomID        *int   `json:"room_id"`
	RoomBetAmount int    `json:"room_bet_amount"`
	Note          string `json:"note,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type BetSettings struct {
	MinBet int `json:"min_bet"`
	MaxBet int `json:"max_bet"`
	Step   int `json:"step"`
}
