package ui

import (
	"context"
	"errors"
	"net/http"

	"github.com/sansoyunu/sansoyunu/internal/apiclient"
)

// Admin shows the bet limit configuration. Non-staff accounts get a 403
// from the server; older servers without the admin API return 404, which
// is reported rather than treated as a failure.
func (a *App) Admin(ctx context.Context) error {
	if err := a.requireCredential(); err != nil {
		return err
	}
	me, err := a.api.Me(ctx)
	if err != nil {
		return humanize(err)
	}
	a.printf("Admin panel (%s, role %s)\n", me.Username, me.Role)

	settings, err := a.api.BetSettings(ctx)
	if err != nil {
		var reqErr *apiclient.RequestError
		if errors.As(err, &reqErr) && reqErr.Status == http.StatusNotFound {
			a.printf("Bet settings API not available on this server.\n")
			return nil
		}
		return humanize(err)
	}

	a.printf("min bet: %d\nmax bet: %d\nstep:    %d\n",
		settings.MinBet, settings.MaxBet, settings.Step)
	return nil
}
