// Package stream maintains one live WebSocket connection per room view and
// translates inbound frames into typed events for the UI. There is no
// automatic reconnect: when the connection drops, the owning screen must
// be re-entered to retry.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/sansoyunu/sansoyunu/pkg/types"
)

var (
	ErrGuessOutOfRange = errors.New("guess must be an integer between 1 and 100")
	ErrNotOpen         = errors.New("connection is not open")
)

const writeTimeout = 3 * time.Second

type Client struct {
	roomID int
	logger *zap.Logger
	conn   *websocket.Conn
	events chan Event

	mu    sync.Mutex
	state ConnState

	closeOnce sync.Once
}

// URL builds the room stream endpoint. The credential travels as a query
// parameter and is validated by the server at connect time; no secondary
// handshake message is sent.
func URL(wsBase string, roomID int, credential string) string {
	return fmt.Sprintf("%s/ws/rooms/%d/?token=%s",
		strings.TrimRight(wsBase, "/"), roomID, url.QueryEscape(credential))
}

// Dial connects to the stream for one room id + credential pair. The
// returned client owns the connection until Close or a transport failure.
func Dial(ctx context.Context, wsBase string, roomID int, credential string, logger *zap.Logger) (*Client, error) {
	c := &Client{
		roomID: roomID,
		logger: logger.Named("stream"),
		events: make(chan Event, 16),
		state:  StateConnecting,
	}

	conn, _, err := websocket.Dial(ctx, URL(wsBase, roomID, credential), nil)
	if err != nil {
		c.setState(StateClosed)
		return nil, fmt.Errorf("dial room %d: %w", roomID, err)
	}
	c.conn = conn
	c.setState(StateOpen)
	c.events <- Opened{}

	go c.readLoop(ctx)
	return c, nil
}

// Events delivers decoded events strictly in arrival order. The channel
// closes when the connection ends; after calling Close, drain it to let
// the reader finish.
func (c *Client) Events() <-chan Event {
	return c.events
}

func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SendGuess validates the value locally and emits a GUESS frame. Values
// outside [1,100] never reach the wire, and sending on a connection that
// is not open fails without a network call.
func (c *Client) SendGuess(ctx context.Context, value int) error {
	if value < 1 || value > 100 {
		return ErrGuessOutOfRange
	}
	if c.State() != StateOpen {
		return ErrNotOpen
	}

	payload, err := json.Marshal(types.GuessPayload{Value: value})
	if err != nil {
		return fmt.Errorf("encode guess: %w", err)
	}
	frame, err := json.Marshal(types.Frame{Type: types.FrameGuess, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode guess frame: %w", err)
	}

	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := c.conn.Write(wctx, websocket.MessageText, frame); err != nil {
		return fmt.Errorf("send guess: %w", err)
	}
	return nil
}

// Close tears the connection down. Safe to call more than once and from
// any goroutine; the Events channel closes shortly after.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.setState(StateClosed)
		if c.conn != nil {
			_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
		}
	})
}

func (c *Client) readLoop(ctx context.Context) {
	defer close(c.events)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if c.State() == StateClosed {
				// Locally initiated teardown.
				c.events <- Closed{Code: int(websocket.StatusNormalClosure), Clean: true}
				return
			}
			c.setState(StateClosed)

			status := websocket.CloseStatus(err)
			switch status {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				c.events <- Closed{Code: int(status), Clean: true}
			case -1:
				// Not a close frame: network failure or cancelled context.
				c.events <- TransportError{Err: err}
				c.events <- Closed{Clean: errors.Is(err, context.Canceled)}
			default:
				var ce websocket.CloseError
				reason := ""
				if errors.As(err, &ce) {
					reason = ce.Reason
				}
				c.events <- Closed{Code: int(status), Reason: reason, Clean: false}
			}
			return
		}

		if ev, ok := c.decodeFrame(data); ok {
			c.events <- ev
		}
	}
}

// decodeFrame maps one inbound frame to an event. Malformed JSON is
// swallowed: one bad frame must not break the stream.
func (c *Client) decodeFrame(data []byte) (Event, bool) {
	var frame types.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.logger.Debug("discarding malformed frame", zap.Error(err))
		return nil, false
	}

	switch frame.Type {
	case types.FrameSnapshot:
		var snap types.RoomSnapshot
		if err := json.Unmarshal(frame.Payload, &snap); err != nil {
			c.logger.Debug("discarding malformed snapshot", zap.Error(err))
			return nil, false
		}
		return SnapshotReplaced{Snapshot: snap}, true

	case types.FrameInfo:
		return InfoReceived{Payload: frame.Payload}, true

	case types.FrameError:
		return ErrorReceived{Detail: frameDetail(frame.Payload), Payload: frame.Payload}, true

	case types.FrameGameEvent:
		return GameEvent{Payload: frame.Payload}, true

	default:
		return UnknownFrame{Frame: frame}, true
	}
}

func frameDetail(payload json.RawMessage) string {
	var shaped types.ErrorPayload
	if err := json.Unmarshal(payload, &shaped); err == nil && shaped.Detail != "" {
		return shaped.Detail
	}
	return "Unknown error"
}

func (c *Client) setState(s ConnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
