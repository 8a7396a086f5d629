package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sansoyunu/sansoyunu/internal/config"
	"github.com/sansoyunu/sansoyunu/internal/ui"
	"github.com/sansoyunu/sansoyunu/pkg/types"
)

const usage = `Usage: sansoyunu <command> [flags]

Commands:
  signup        create an account
  login         log in and store the token
  logout        forget the stored token
  me            show the current account
  lobby         rooms, leaderboard and recent transactions in one view
  rooms         list rooms (-status open|full|finished)
  create        create a room (-bet N)
  join          join a room (-room N)
  play          connect to a room and play (-room N)
  leaderboard   top balances
  transactions  your transaction history
  admin         bet limit settings
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := ui.NewApp(cfg, logger)
	if err := run(ctx, app, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, app *ui.App, command string, args []string) error {
	switch command {
	case "signup":
		fs := flag.NewFlagSet("signup", flag.ExitOnError)
		username := fs.String("username", "", "account name")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		age := fs.Int("age", 0, "age in years")
		fs.Parse(args)
		return app.Signup(ctx, types.SignupRequest{
			Username: *username,
			Email:    *email,
			Password: *password,
			Age:      *age,
		})

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		username := fs.String("username", "", "account name")
		password := fs.String("password", "", "password")
		fs.Parse(args)
		return app.Login(ctx, *username, *password)

	case "logout":
		return app.Logout()

	case "me":
		return app.Me(ctx)

	case "lobby":
		fs := flag.NewFlagSet("lobby", flag.ExitOnError)
		status := fs.String("status", "", "filter rooms by status")
		fs.Parse(args)
		return app.Lobby(ctx, *status)

	case "rooms":
		fs := flag.NewFlagSet("rooms", flag.ExitOnError)
		status := fs.String("status", "", "filter rooms by status")
		fs.Parse(args)
		return app.Rooms(ctx, *status)

	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		bet := fs.Int("bet", 0, "bet amount")
		fs.Parse(args)
		return app.CreateRoom(ctx, *bet)

	case "join":
		roomID, err := roomArg("join", args)
		if err != nil {
			return err
		}
		return app.JoinRoom(ctx, roomID)

	case "play":
		roomID, err := roomArg("play", args)
		if err != nil {
			return err
		}
		return app.Play(ctx, roomID)

	case "leaderboard":
		return app.Leaderboard(ctx)

	case "transactions":
		return app.Transactions(ctx)

	case "admin":
		return app.Admin(ctx)

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

// roomArg accepts either -room N or a bare positional room id.
func roomArg(name string, args []string) (int, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	room := fs.Int("room", 0, "room id")
	fs.Parse(args)
	if *room > 0 {
		return *room, nil
	}
	if rest := fs.Args(); len(rest) == 1 {
		if id, err := strconv.Atoi(rest[0]); err == nil && id > 0 {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%s: a room id is required (-room N)", name)
}
