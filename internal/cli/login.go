package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nova-cli/internal/auth"
)

func newLoginCmd(app *App) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Cache a backend access token for subsequent commands",
		Long: strings.TrimSpace(`
Cache a backend access token under the nova config directory.

The token is issued by the backend (password login or the Microsoft OAuth
flow); paste it with --token or pipe it on stdin:

  nova login --token eyJhbGciOi...
  pbpaste | nova login
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok := strings.TrimSpace(token)
			if tok == "" {
				sc := bufio.NewScanner(cmd.InOrStdin())
				sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
				if sc.Scan() {
					tok = strings.TrimSpace(sc.Text())
				}
				if err := sc.Err(); err != nil {
					return err
				}
			}
			if tok == "" {
				return errors.New("no token provided; pass --token or pipe it on stdin")
			}
			claims, err := auth.ParseClaims(tok)
			if err != nil {
				return fmt.Errorf("parse token: %w", err)
			}
			if claims.Expired(time.Now()) {
				return errors.New("token is already expired")
			}
			if err := app.tokens.Save(tok); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{
				"status":    "logged-in",
				"subject":   claims.Subject,
				"email":     claims.Email,
				"expiresAt": claims.ExpiresAt,
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token issued by the backend")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the cached access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.tokens.Clear(); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]string{"status": "logged-out"})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if local {
				tok, err := app.tokens.Token()
				if err != nil {
					return err
				}
				claims, err := auth.ParseClaims(tok)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, claims)
			}
			me, err := app.me(cmd.Context())
			if err != nil {
				return err
			}
			return writeOut(cmd, app, me)
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Decode the cached token instead of calling the backend")
	return cmd
}
