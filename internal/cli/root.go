package cli

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nova-cli/internal/api"
	"nova-cli/internal/auth"
	"nova-cli/internal/cache"
	"nova-cli/internal/config"
	"nova-cli/internal/format"
	"nova-cli/internal/model"
	"nova-cli/internal/store"
	"nova-cli/internal/tui"
)

type App struct {
	APIURL     string
	ClientID   string
	PrettyJSON bool

	cfg    config.Config
	tokens *auth.TokenCache
	client *api.Client
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "nova",
		Short:        "Nova CRM terminal client",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  nova

  # Scriptable commands
  nova tasks list
  nova files tree
  nova messages send <contact-id> --content "hi"

  # Direct task lookup (shortcut for: nova tasks show <task-id>)
  nova task-5f3a9c
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if app.APIURL != "" {
			cfg.APIURL = strings.TrimRight(strings.TrimSpace(app.APIURL), "/")
		}
		dir, err := store.ConfigDir()
		if err != nil {
			return err
		}
		app.cfg = cfg
		app.tokens = auth.NewTokenCache(dir)
		app.client = api.New(cfg, app.tokens)
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", envOr("NOVA_API_URL", ""), "Backend base URL (overrides NOVA_API_URL)")
	cmd.PersistentFlags().StringVar(&app.ClientID, "client", envOr("NOVA_CLIENT_ID", ""), "Client id whose workspace to operate on (admins; defaults to yourself)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newFilesCmd(app))
	cmd.AddCommand(newMessagesCmd(app))
	cmd.AddCommand(newClientsCmd(app))
	cmd.AddCommand(newTagsCmd(app))
	cmd.AddCommand(newOutlookCmd(app))

	return cmd
}

func runTUI(app *App) error {
	return tui.Run(tui.Deps{
		Config: app.cfg,
		API:    app.client,
		Tokens: app.tokens,
		Cache:  cache.New(),
	})
}

// me fetches the authenticated user's profile.
func (app *App) me(ctx context.Context) (model.User, error) {
	return app.client.Me(ctx)
}

// effectiveClientID resolves whose workspace a command targets: --client for
// admins, otherwise the caller themselves.
func (app *App) effectiveClientID(ctx context.Context) (string, model.User, error) {
	me, err := app.me(ctx)
	if err != nil {
		return "", model.User{}, err
	}
	id := strings.TrimSpace(app.ClientID)
	if id == "" {
		return me.ID, me, nil
	}
	if me.Role != model.RoleAdmin && id != me.ID {
		return "", model.User{}, errAdminOnly("--client")
	}
	return id, me, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.WriteJSON(cmd.OutOrStdout(), v, app.PrettyJSON)
}
