package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/yotoshare/internal/auth"
	"github.com/desertthunder/yotoshare/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin performs the browser login and stores the resulting tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("no-browser") {
		r.navigator = auth.NavigatorFunc(func(context.Context, string) error { return nil })
	}
	if err := r.requireSession(); err != nil {
		return err
	}

	if state := r.session.Load(ctx); state.Authenticated() {
		r.logger.Info("replacing existing session")
	}

	err := r.login(ctx, func(url string) {
		r.writePlain("Open this URL to sign in:\n%s\n", url)
		r.writePlain("Waiting for the callback on %s ...\n", r.config.Server.Addr())
	})
	if err != nil {
		return err
	}

	r.logger.Info("authentication successful")
	return r.writePlain("✓ Signed in to Yoto\n")
}

// AuthLogout clears stored tokens.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	r.session.Logout(ctx)
	return r.writePlain("✓ Signed out\n")
}

type authStatus struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
	User          string `json:"user,omitempty"`
}

// AuthStatus loads the stored session, refreshing it when expired, and reports the outcome.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	state := r.session.Load(ctx)
	status := authStatus{Status: state.Status.String(), Authenticated: state.Authenticated()}

	if state.Authenticated() && r.service != nil {
		if profile, err := r.service.UserProfile(ctx); err != nil {
			r.logger.Warn("failed to fetch profile", "error", err)
		} else {
			status.User = displayName(profile.Name, profile.Email, profile.UserID)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	if !status.Authenticated {
		return r.writePlain("✗ Not signed in. Run 'yotoshare auth login'\n")
	}
	if status.User != "" {
		return r.writePlain("✓ Signed in as %s\n", status.User)
	}
	return r.writePlain("✓ Signed in\n")
}

func displayName(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

// AuthToken prints a valid access token and its expiry.
func (r *Runner) AuthToken(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	token, err := r.session.TokenSource(ctx).Token()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	value := shared.Redact(token.AccessToken)
	if cmd.Bool("reveal") {
		value = token.AccessToken
	}

	r.writePlain("%s\n", value)
	if !token.Expiry.IsZero() {
		r.writePlain("expires in %s\n", time.Until(token.Expiry).Round(time.Second))
	}
	return nil
}
