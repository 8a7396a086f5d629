// Package devserver is an in-memory implementation of the game server
// interface the client consumes, used for local development and end-to-end
// tests. It mirrors the documented REST and stream contracts but is not
// the production authority.
package devserver

import (
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sansoyunu/sansoyunu/pkg/types"
)

// apiError carries the HTTP status a failure maps to. The detail strings
// double as the wire-visible error messages.
type apiError struct {
	status int
	detail string
}

func (e *apiError) Error() string { return e.detail }

func badRequest(detail string) *apiError {
	return &apiError{status: http.StatusBadRequest, detail: detail}
}

func notFound(detail string) *apiError {
	return &apiError{status: http.StatusNotFound, detail: detail}
}

// errBadCredentials is special-cased by the login handler: it renders as
// a non_field_errors list, matching the auth backend's shape.
var errBadCredentials = &apiError{
	status: http.StatusBadRequest,
	detail: "Unable to log in with provided credentials.",
}

type user struct {
	id       int
	username string
	password string
	email    string
	role     string
	balance  int
}

type room struct {
	id         int
	bet        int
	status     string
	player1    string
	player2    string
	secret     int
	turn       string
	winner     string
	turnCount  int
	locked     bool
	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time
}

type transaction struct {
	id           int
	username     string
	txType       string
	amount       int
	balanceAfter int
	roomID       int
	roomBet      int
	note         string
	createdAt    time.Time
}

// Store holds all server state behind one lock. Game transitions run
// under the lock, which serializes them the same way the real backend's
// row locks do.
type Store struct {
	mu     sync.Mutex
	users  map[string]*user
	tokens map[string]string
	rooms  map[int]*room
	txs    []transaction
	bets   types.BetSettings

	nextUserID int
	nextRoomID int
	nextTxID   int

	rng *rand.Rand
}

func NewStore() *Store {
	return &Store{
		users:  make(map[string]*user),
		tokens: make(map[string]string),
		rooms:  make(map[int]*room),
		bets:   types.BetSettings{MinBet: 10, MaxBet: 500, Step: 10},
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const startingBalance = 1000

func (s *Store) Signup(req types.SignupRequest) (*types.AuthResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Username == "" || req.Password == "" {
		return nil, badRequest("username and password are required")
	}
	if req.Age != 0 && req.Age < 18 {
		return nil, badRequest("Must be 18+")
	}
	if _, exists := s.users[req.Username]; exists {
		return nil, badRequest("username already exists")
	}

	s.nextUserID++
	u := &user{
		id:       s.nextUserID,
		username: req.Username,
		password: req.Password,
		email:    req.Email,
		role:     "user",
		balance:  startingBalance,
	}
	s.users[u.username] = u

	token := uuid.NewString()
	s.tokens[token] = u.username

	return &types.AuthResponse{
		Token: token,
		User:  types.UserRef{ID: u.id, Username: u.username},
	}, nil
}

func (s *Store) Login(username, password string) (*types.AuthResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if username == "" || password == "" {
		return nil, badRequest("username and password are required")
	}
	u, ok := s.users[username]
	if !ok || u.password != password {
		return nil, errBadCredentials
	}

	token := uuid.NewString()
	s.tokens[token] = u.username

	return &types.AuthResponse{
		Token: token,
		User:  types.UserRef{ID: u.id, Username: u.username},
	}, nil
}

// Authenticate resolves a token to the owning username.
func (s *Store) Authenticate(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.tokens[token]
	return username, ok
}

func (s *Store) Me(username string) (*types.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return nil, false
	}
	return &types.User{
		ID:       u.id,
		Username: u.username,
		Email:    u.email,
		Role:     u.role,
		Balance:  u.balance,
	}, true
}

// PromoteAdmin marks a user as admin. Dev convenience only.
func (s *Store) PromoteAdmin(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[username]; ok {
		u.role = "admin"
	}
}

func (s *Store) Settings() types.BetSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bets
}

func (s *Store) Rooms() []types.RoomListItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]types.RoomListItem, 0, len(s.rooms))
	for _, r := range s.rooms {
		items = append(items, s.roomListItem(r))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return items
}

func (s *Store) CreateRoom(username string, bet int) (*types.RoomListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bet < s.bets.MinBet || bet > s.bets.MaxBet {
		return nil, badRequest("bet_amount out of allowed range")
	}
	if (bet-s.bets.MinBet)%s.bets.Step != 0 {
		return nil, badRequest("bet_amount must follow step")
	}
	u := s.users[username]
	if u == nil || u.balance < bet {
		return nil, badRequest("Insufficient balance to create room")
	}

	s.nextRoomID++
	r := &room{
		id:        s.nextRoomID,
		bet:       bet,
		status:    types.RoomOpen,
		player1:   username,
		createdAt: time.Now(),
	}
	s.rooms[r.id] = r

	item := s.roomListItem(r)
	return &item, nil
}

func (s *Store) JoinRoom(username string, roomID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return notFound("Room not found")
	}
	if r.status == types.RoomFinished {
		return badRequest("Room already finished")
	}
	if r.player1 == username {
		return badRequest("Cannot join your own room")
	}
	if r.player2 != "" {
		return badRequest("Room is full")
	}

	r.player2 = username
	r.status = types.RoomFull

	if err := s.startLocked(r); err != nil {
		r.player2 = ""
		r.status = types.RoomOpen
		return err
	}
	return nil
}

// StartIfReady runs the idempotent start transition for a full room and
// reports whether this call performed it. Safe to call on every stream
// connect.
func (s *Store) StartIfReady(roomID int) (types.RoomSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return types.RoomSnapshot{}, false, notFound("Room not found")
	}
	if r.player2 == "" || r.locked {
		return s.snapshotLocked(r), false, nil
	}
	if err := s.startLocked(r); err != nil {
		return s.snapshotLocked(r), false, err
	}
	return s.snapshotLocked(r), true, nil
}

// startLocked locks both bets and initializes the game. Caller holds the
// lock and has set player2. Idempotent via the locked flag.
func (s *Store) startLocked(r *room) error {
	if r.locked || r.player2 == "" {
		return nil
	}

	p1 := s.users[r.player1]
	p2 := s.users[r.player2]
	if p1.balance < r.bet || p2.balance < r.bet {
		return badRequest("Insufficient balance to lock bet")
	}

	p1.balance -= r.bet
	p2.balance -= r.bet
	s.recordTxLocked(p1, types.TxBetLock, -r.bet, r, fmt.Sprintf("Bet lock for room %d", r.id))
	s.recordTxLocked(p2, types.TxBetLock, -r.bet, r, fmt.Sprintf("Bet lock for room %d", r.id))

	r.secret = s.rng.Intn(100) + 1
	if s.rng.Intn(2) == 0 {
		r.turn = r.player1
	} else {
		r.turn = r.player2
	}
	r.turnCount = 0
	r.locked = true
	r.status = types.RoomFull
	r.startedAt = time.Now()
	return nil
}

// Participant reports whether username may attach to the room's stream.
// An open room only admits its creator.
func (s *Store) Participant(roomID int, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return notFound("Room not found")
	}
	if r.player1 != username && (r.player2 == "" || r.player2 != username) {
		return &apiError{status: http.StatusForbidden, detail: "Not a participant of this room"}
	}
	return nil
}

func (s *Store) Snapshot(roomID int) (types.RoomSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return types.RoomSnapshot{}, false
	}
	return s.snapshotLocked(r), true
}

// GuessOutcome is what one accepted guess produces: the fresh snapshot
// and the game event payload to broadcast.
type GuessOutcome struct {
	Snapshot types.RoomSnapshot
	Event    map[string]any
	Finished bool
}

func (s *Store) Guess(roomID int, username string, value int) (*GuessOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return nil, notFound("Room not found")
	}
	if r.status == types.RoomFinished {
		return nil, badRequest("Game already finished")
	}
	if r.player2 == "" || r.status != types.RoomFull {
		return nil, badRequest("Waiting for second player")
	}
	if err := s.startLocked(r); err != nil {
		return nil, err
	}
	if r.turn != username {
		return nil, badRequest("Not your turn")
	}

	if value == r.secret {
		payout := 2 * r.bet
		r.status = types.RoomFinished
		r.winner = username
		r.turn = ""
		r.finishedAt = time.Now()

		winner := s.users[username]
		winner.balance += payout
		s.recordTxLocked(winner, types.TxPayout, payout, r, fmt.Sprintf("Payout for room %d", r.id))

		return &GuessOutcome{
			Snapshot: s.snapshotLocked(r),
			Event: map[string]any{
				"event":       "GAME_OVER",
				"winner":      r.winner,
				"number":      value,
				"turn_count":  r.turnCount,
				"finished_at": r.finishedAt.Format(time.RFC3339),
			},
			Finished: true,
		}, nil
	}

	hint := "lower"
	if value < r.secret {
		hint = "higher"
	}
	r.turnCount++
	if r.turn == r.player1 {
		r.turn = r.player2
	} else {
		r.turn = r.player1
	}

	return &GuessOutcome{
		Snapshot: s.snapshotLocked(r),
		Event: map[string]any{
			"event":      "GUESS",
			"by":         username,
			"value":      value,
			"result":     hint,
			"next_turn":  r.turn,
			"turn_count": r.turnCount,
		},
	}, nil
}

func (s *Store) Leaderboard() []types.LeaderboardRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]types.LeaderboardRow, 0, len(s.users))
	for _, u := range s.users {
		rows = append(rows, types.LeaderboardRow{ID: u.id, Username: u.username, Balance: u.balance})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Balance != rows[j].Balance {
			return rows[i].Balance > rows[j].Balance
		}
		return rows[i].ID < rows[j].ID
	})
	if len(rows) > 50 {
		rows = rows[:50]
	}
	return rows
}

func (s *Store) Transactions(username string) []types.TransactionRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]types.TransactionRow, 0)
	for i := len(s.txs) - 1; i >= 0 && len(rows) < 200; i-- {
		t := s.txs[i]
		if t.username != username {
			continue
		}
		netChange := t.amount
		if t.txType == types.TxPayout && t.roomID != 0 {
			netChange = t.amount - t.roomBet
		}
		roomID := t.roomID
		rows = append(rows, types.TransactionRow{
			ID:            t.id,
			Type:          t.txType,
			Amount:        t.amount,
			NetChange:     netChange,
			BalanceAfter:  t.balanceAfter,
			RoomID:        &roomID,
			RoomBetAmount: t.roomBet,
			Note:          t.note,
			CreatedAt:     t.createdAt.Format(time.RFC3339),
		})
	}
	return rows
}

func (s *Store) recordTxLocked(u *user, txType string, amount int, r *room, note string) {
	s.nextTxID++
	s.txs = append(s.txs, transaction{
		id:           s.nextTxID,
		username:     u.username,
		txType:       txType,
		amount:       amount,
		balanceAfter: u.balance,
		roomID:       r.id,
		roomBet:      r.bet,
		note:         note,
		createdAt:    time.Now(),
	})
}

func (s *Store) snapshotLocked(r *room) types.RoomSnapshot {
	finishedAt := ""
	if !r.finishedAt.IsZero() {
		finishedAt = r.finishedAt.Format(time.RFC3339)
	}
	return types.RoomSnapshot{
		Room:       r.id,
		Status:     r.status,
		BetAmount:  r.bet,
		Players:    []string{r.player1, r.player2},
		Turn:       r.turn,
		Winner:     r.winner,
		FinishedAt: finishedAt,
		TurnCount:  r.turnCount,
	}
}

func (s *Store) roomListItem(r *room) types.RoomListItem {
	item := types.RoomListItem{
		ID:        r.id,
		BetAmount: r.bet,
		Status:    r.status,
		CreatedAt: r.createdAt.Format(time.RFC3339),
	}
	if u := s.users[r.player1]; u != nil {
		item.Player1ID = u.id
		item.PlayerCount = 1
	}
	if r.player2 != "" {
		if u := s.users[r.player2]; u != nil {
			id := u.id
			item.Player2ID = &id
			item.PlayerCount = 2
		}
	}
	if !r.finishedAt.IsZero() {
		item.FinishedAt = r.finishedAt.Format(time.RFC3339)
	}
	return item
}
