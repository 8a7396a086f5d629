package ui

import (
	"bufio"
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/sansoyunu/sansoyunu/internal/stream"
)

// Play is the interactive room screen. It owns exactly one stream
// connection for its lifetime and tears it down on exit. There is no
// automatic reconnect; rerun the command after a drop.
func (a *App) Play(ctx context.Context, roomID int) error {
	if err := a.requireCredential(); err != nil {
		return err
	}
	me, err := a.api.Me(ctx)
	if err != nil {
		return humanize(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client, err := stream.Dial(ctx, a.cfg.WSBase, roomID, a.session.Credential(), a.logger)
	if err != nil {
		return err
	}
	defer func() {
		client.Close()
		for range client.Events() {
		}
	}()

	view := stream.NewView()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(a.in)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	a.printf("Room %d: type a number from 1 to 100 to guess, q to quit.\n", roomID)

	for {
		select {
		case ev, ok := <-client.Events():
			if !ok {
				a.printf("Stream ended.\n")
				return nil
			}
			view.Apply(ev)
			a.renderStreamEvent(ev, me.Username)

		case line, ok := <-lines:
			if !ok || line == "q" || line == "quit" {
				return nil
			}
			if line == "" {
				continue
			}
			a.submitGuess(ctx, client, view, me.Username, line)
		}
	}
}

// submitGuess pre-filters obviously invalid input before anything hits
// the wire. The turn gate is a UI affordance; the server stays the sole
// authority on legality.
func (a *App) submitGuess(ctx context.Context, client *stream.Client, view *stream.View, username, line string) {
	value, err := strconv.Atoi(line)
	if err != nil {
		a.printf("! guess must be a whole number\n")
		return
	}
	if view.ConnState != stream.StateOpen {
		a.printf("! not connected\n")
		return
	}
	if !view.MyTurn(username) {
		a.printf("! not your turn\n")
		return
	}

	switch err := client.SendGuess(ctx, value); {
	case errors.Is(err, stream.ErrGuessOutOfRange):
		a.printf("! guess must be between 1 and 100\n")
	case errors.Is(err, stream.ErrNotOpen):
		a.printf("! not connected\n")
	case err != nil:
		a.printf("! %v\n", err)
	}
}

func (a *App) renderStreamEvent(ev stream.Event, username string) {
	switch e := ev.(type) {
	case stream.Opened:
		a.printf("* connected\n")

	case stream.Closed:
		if e.Clean {
			a.printf("* connection closed\n")
		} else {
			a.printf("* connection lost (code %d %s)\n", e.Code, e.Reason)
		}

	case stream.TransportError:
		a.printf("* transport error: %v\n", e.Err)

	case stream.SnapshotReplaced:
		snap := e.Snapshot
		a.printf("> room %d [%s] bet %d players %s\n",
			snap.Room, snap.Status, snap.BetAmount, joinPlayers(snap.Players))
		switch {
		case snap.Winner != "":
			a.printf("  winner: %s (after %d turns)\n", snap.Winner, snap.TurnCount)
		case snap.Turn == username:
			a.printf("  your turn, enter a guess\n")
		case snap.Turn != "":
			a.printf("  waiting for %s\n", snap.Turn)
		}

	case stream.InfoReceived:
		a.printf("  info: %s\n", compactJSON(e.Payload))

	case stream.ErrorReceived:
		a.printf("! %s\n", e.Detail)

	case stream.GameEvent:
		a.printf("  %s\n", compactJSON(e.Payload))

	case stream.UnknownFrame:
		a.printf("  raw [%s]: %s\n", e.Frame.Type, compactJSON(e.Frame.Payload))
	}
}

func joinPlayers(players []string) string {
	named := make([]string, 0, len(players))
	for _, p := range players {
		if p != "" {
			named = append(named, p)
		}
	}
	if len(named) == 0 {
		return "-"
	}
	return strings.Join(named, " vs ")
}

func compactJSON(raw []byte) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}
