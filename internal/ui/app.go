// Package ui holds the terminal screens. Every screen is a thin consumer
// of the REST and stream clients: it fetches or subscribes, renders, and
// holds no state beyond the latest data.
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/sansoyunu/sansoyunu/internal/apiclient"
	"github.com/sansoyunu/sansoyunu/internal/config"
	"github.com/sansoyunu/sansoyunu/internal/session"
)

type App struct {
	cfg     config.Config
	logger  *zap.Logger
	session *session.Store
	api     *apiclient.Client
	out     io.Writer
	in      io.Reader
}

func NewApp(cfg config.Config, logger *zap.Logger) *App {
	sess := session.NewStore(cfg.TokenFile)
	return &App{
		cfg:     cfg,
		logger:  logger,
		session: sess,
		api:     apiclient.New(cfg.APIBase, sess, logger),
		out:     os.Stdout,
		in:      os.Stdin,
	}
}

var errNotLoggedIn = errors.New("not logged in; run `sansoyunu login` first")

func (a *App) requireCredential() error {
	if a.session.Credential() == "" {
		return errNotLoggedIn
	}
	return nil
}

// humanize maps an authentication failure to a login hint. Staleness is
// only discovered here: the session store has no expiry logic.
func humanize(err error) error {
	var re *apiclient.RequestError
	if errors.As(err, &re) && re.Status == 401 {
		return fmt.Errorf("session rejected (%s); run `sansoyunu login` again", re.Detail)
	}
	return err
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) readLine(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	reader := bufio.NewReader(a.in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
