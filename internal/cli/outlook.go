package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// resubscribeMargin mirrors the inbox watcher: renew the Graph subscription
// once less than two minutes of its lifetime remain.
const resubscribeMargin = 2 * time.Minute

func newOutlookCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outlook",
		Short: "Microsoft account link and email-to-task integration",
	}

	cmd.AddCommand(newOutlookStatusCmd(app))
	cmd.AddCommand(newOutlookConnectCmd(app))
	cmd.AddCommand(newOutlookDisconnectCmd(app))
	cmd.AddCommand(newOutlookSubscribeCmd(app))
	cmd.AddCommand(newOutlookLatestEmailCmd(app))
	cmd.AddCommand(newOutlookCreateTaskCmd(app))

	return cmd
}

func newOutlookStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the inbox subscription state",
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := app.client.SubscribeStatus(cmd.Context())
			if err != nil {
				return err
			}
			if sub == nil {
				return writeOut(cmd, app, map[string]any{"connected": false})
			}
			return writeOut(cmd, app, map[string]any{
				"connected":    true,
				"live":         sub.Live(time.Now(), resubscribeMargin),
				"subscription": sub,
			})
		},
	}
}

func newOutlookConnectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Print the Microsoft OAuth URL to open in a browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.client.MicrosoftLoginURL(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}
}

func newOutlookDisconnectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Unlink the Microsoft account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.client.MicrosoftDisconnect(cmd.Context()); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]string{"status": "disconnected"})
		},
	}
}

func newOutlookSubscribeCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Ensure a live inbox subscription",
		Long: "Create or renew the Graph inbox subscription. Without --force the " +
			"existing subscription is kept while it has more than two minutes left.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !force {
				sub, err := app.client.SubscribeStatus(ctx)
				if err != nil {
					return err
				}
				if sub != nil && sub.Live(time.Now(), resubscribeMargin) {
					return writeOut(cmd, app, map[string]any{
						"status":       "already-live",
						"subscription": sub,
					})
				}
			}
			res, err := app.client.SubscribeInbox(ctx)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, res)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Resubscribe even if the current subscription is live")
	return cmd
}

func newOutlookLatestEmailCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "latest-email",
		Short: "Show the most recent inbox email",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := app.client.LatestEmail(cmd.Context())
			if err != nil {
				return err
			}
			if email == nil {
				return writeOut(cmd, app, map[string]any{"email": nil})
			}
			return writeOut(cmd, app, email)
		},
	}
}

func newOutlookCreateTaskCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create-task",
		Short: "Turn the latest email into a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := app.client.LatestEmailToTask(cmd.Context())
			if err != nil {
				return err
			}
			return writeOut(cmd, app, task)
		},
	}
}
