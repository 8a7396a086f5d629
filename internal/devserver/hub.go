package devserver

import (
	"context"

	"github.com/sansoyunu/sansoyunu/pkg/types"
)

type HubMsg interface{ isHubMsg() }

type Join struct {
	RoomID   int
	ClientID string
	Outbox   chan types.Frame // where this client wants to receive frames
}

type Leave struct {
	RoomID   int
	ClientID string
}

type Broadcast struct {
	RoomID int
	Frame  types.Frame
}

// Unicast delivers one frame to a single client. Per-client replies go
// through the hub too, so each outbox has exactly one sender and closer.
type Unicast struct {
	RoomID   int
	ClientID string
	Frame    types.Frame
}

type Stats struct {
	RoomID int
	Reply  chan int
}

type ShutdownHub struct{}

func (Join) isHubMsg()        {}
func (Leave) isHubMsg()       {}
func (Broadcast) isHubMsg()   {}
func (Unicast) isHubMsg()     {}
func (Stats) isHubMsg()       {}
func (ShutdownHub) isHubMsg() {}

// Hub fans frames out to the stream connections attached to each room.
// All state is owned by the loop goroutine; callers talk to it through
// the inbox.
type Hub struct {
	inbox  chan HubMsg
	rooms  map[int]map[string]chan types.Frame
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[int]map[string]chan types.Frame),
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub stops draining its inbox. Senders select on
// it so they cannot block against a dead loop.
func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Join:
				if h.rooms[msg.RoomID] == nil {
					h.rooms[msg.RoomID] = make(map[string]chan types.Frame)
				}
				h.rooms[msg.RoomID][msg.ClientID] = msg.Outbox

			case Leave:
				if clients := h.rooms[msg.RoomID]; clients != nil {
					if ch, ok := clients[msg.ClientID]; ok {
						delete(clients, msg.ClientID)
						close(ch)
					}
					if len(clients) == 0 {
						delete(h.rooms, msg.RoomID)
					}
				}

			case Broadcast:
				for id, ch := range h.rooms[msg.RoomID] {
					select {
					case ch <- msg.Frame:
						// ok
					default:
						// Client is slow/full - drop them.
						close(ch)
						delete(h.rooms[msg.RoomID], id)
					}
				}

			case Unicast:
				if ch, ok := h.rooms[msg.RoomID][msg.ClientID]; ok {
					select {
					case ch <- msg.Frame:
						// ok
					default:
						close(ch)
						delete(h.rooms[msg.RoomID], msg.ClientID)
					}
				}

			case Stats:
				msg.Reply <- len(h.rooms[msg.RoomID])

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for roomID, clients := range h.rooms {
		for id, ch := range clients {
			close(ch)
			delete(clients, id)
		}
		delete(h.rooms, roomID)
	}
	h.cancel()
}
