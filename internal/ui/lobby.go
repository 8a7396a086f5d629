package ui

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/sansoyunu/sansoyunu/pkg/types"
)

// Lobby fetches profile, rooms, leaderboard and transactions in parallel
// and renders them together. Each fetch independently replaces its own
// slice of the screen, so resolution order does not matter.
func (a *App) Lobby(ctx context.Context, statusFilter string) error {
	if err := a.requireCredential(); err != nil {
		return err
	}

	var (
		me    *types.User
		rooms []types.RoomListItem
		board []types.LeaderboardRow
		txs   []types.TransactionRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { me, err = a.api.Me(gctx); return })
	g.Go(func() (err error) { rooms, err = a.api.Rooms(gctx); return })
	g.Go(func() (err error) { board, err = a.api.Leaderboard(gctx); return })
	g.Go(func() (err error) { txs, err = a.api.Transactions(gctx); return })
	if err := g.Wait(); err != nil {
		return humanize(err)
	}

	a.printf("Lobby: %s | balance %d\n\n", me.Username, me.Balance)
	a.renderRooms(FilterRooms(rooms, statusFilter))
	a.printf("\nLeaderboard\n")
	a.renderLeaderboard(board, 10)
	a.printf("\nRecent transactions\n")
	a.renderTransactions(txs, 10)
	return nil
}

func (a *App) Rooms(ctx context.Context, statusFilter string) error {
	if err := a.requireCredential(); err != nil {
		return err
	}
	rooms, err := a.api.Rooms(ctx)
	if err != nil {
		return humanize(err)
	}
	a.renderRooms(FilterRooms(rooms, statusFilter))
	return nil
}

// CreateRoom creates a room and refreshes the list afterwards.
func (a *App) CreateRoom(ctx context.Context, bet int) error {
	if err := a.requireCredential(); err != nil {
		return err
	}
	room, err := a.api.CreateRoom(ctx, bet)
	if err != nil {
		return humanize(err)
	}
	a.printf("Room %d created (bet %d). Waiting for an opponent; run `sansoyunu play %d`.\n\n",
		room.ID, room.BetAmount, room.ID)

	rooms, err := a.api.Rooms(ctx)
	if err != nil {
		return humanize(err)
	}
	a.renderRooms(rooms)
	return nil
}

// JoinRoom joins a room and refreshes the list afterwards.
func (a *App) JoinRoom(ctx context.Context, roomID int) error {
	if err := a.requireCredential(); err != nil {
		return err
	}
	if err := a.api.JoinRoom(ctx, roomID); err != nil {
		return humanize(err)
	}
	a.printf("Joined room %d. Run `sansoyunu play %d` to start guessing.\n\n", roomID, roomID)

	rooms, err := a.api.Rooms(ctx)
	if err != nil {
		return humanize(err)
	}
	a.renderRooms(rooms)
	return nil
}

func (a *App) Leaderboard(ctx context.Context) error {
	if err := a.requireCredential(); err != nil {
		return err
	}
	board, err := a.api.Leaderboard(ctx)
	if err != nil {
		return humanize(err)
	}
	a.renderLeaderboard(board, len(board))
	return nil
}

func (a *App) Transactions(ctx context.Context) error {
	if err := a.requireCredential(); err != nil {
		return err
	}
	txs, err := a.api.Transactions(ctx)
	if err != nil {
		return humanize(err)
	}
	a.renderTransactions(txs, len(txs))
	return nil
}

// FilterRooms keeps rooms whose status matches. Empty or "all" keeps
// everything.
func FilterRooms(rooms []types.RoomListItem, status string) []types.RoomListItem {
	if status == "" || strings.EqualFold(status, "all") {
		return rooms
	}
	filtered := make([]types.RoomListItem, 0, len(rooms))
	for _, r := range rooms {
		if strings.EqualFold(r.Status, status) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func (a *App) renderRooms(rooms []types.RoomListItem) {
	if len(rooms) == 0 {
		a.printf("No rooms.\n")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tBET\tPLAYERS")
	for _, r := range rooms {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d/2\n", r.ID, r.Status, r.BetAmount, r.PlayerCount)
	}
	tw.Flush()
}

func (a *App) renderLeaderboard(rows []types.LeaderboardRow, limit int) {
	if len(rows) == 0 {
		a.printf("No players yet.\n")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPLAYER\tBALANCE")
	for i, row := range rows {
		if i >= limit {
			break
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, row.Username, row.Balance)
	}
	tw.Flush()
}

func (a *App) renderTransactions(rows []types.TransactionRow, limit int) {
	if len(rows) == 0 {
		a.printf("No transactions.\n")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tAMOUNT\tNET\tBALANCE\tCREATED")
	for i, t := range rows {
		if i >= limit {
			break
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n",
			t.ID, t.Type, t.Amount, t.NetChange, t.BalanceAfter, t.CreatedAt)
	}
	tw.Flush()
}
