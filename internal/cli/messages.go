package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nova-cli/internal/model"
	"nova-cli/internal/ws"
)

func newMessagesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Direct messages between admins and clients",
	}

	cmd.AddCommand(newMessagesContactsCmd(app))
	cmd.AddCommand(newMessagesHistoryCmd(app))
	cmd.AddCommand(newMessagesSendCmd(app))
	cmd.AddCommand(newMessagesUnreadCmd(app))
	cmd.AddCommand(newMessagesMarkReadCmd(app))

	return cmd
}

// contactEntry pairs a user with their unread count for the caller.
type contactEntry struct {
	User   model.User `json:"user"`
	Unread int        `json:"unread"`
}

func newMessagesContactsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "contacts",
		Short: "List people you can message, with unread counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			me, err := app.me(ctx)
			if err != nil {
				return err
			}
			users, err := app.client.Users(ctx)
			if err != nil {
				return err
			}
			unread, err := app.client.UnreadCounts(ctx, me.ID)
			if err != nil {
				return err
			}
			var out []contactEntry
			for _, u := range users {
				if u.ID == me.ID {
					continue
				}
				out = append(out, contactEntry{User: u, Unread: unread[u.ID]})
			}
			sort.Slice(out, func(i, j int) bool {
				if out[i].Unread != out[j].Unread {
					return out[i].Unread > out[j].Unread
				}
				return out[i].User.Name < out[j].User.Name
			})
			return writeOut(cmd, app, out)
		},
	}
}

func newMessagesHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history <contact-id>",
		Short: "Show the conversation with a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			me, err := app.me(ctx)
			if err != nil {
				return err
			}
			msgs, err := app.client.History(ctx, me.ID, args[0])
			if err != nil {
				return err
			}
			return writeOut(cmd, app, msgs)
		},
	}
}

func newMessagesSendCmd(app *App) *cobra.Command {
	var content string
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "send <contact-id>",
		Short: "Send a message over the live channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if strings.TrimSpace(content) == "" {
				return fmt.Errorf("--content is required")
			}
			me, err := app.me(ctx)
			if err != nil {
				return err
			}
			token, err := app.tokens.Token()
			if err != nil {
				return err
			}
			conn, err := ws.Dial(ctx, app.cfg.SocketURL, token)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := conn.Send(ws.Outgoing{
				Sender:   me.ID,
				Receiver: args[0],
				Content:  content,
				Type:     "text",
			}); err != nil {
				return err
			}

			// The server echoes the persisted message back; wait for it so
			// the caller gets the canonical record (best effort).
			timer := time.NewTimer(wait)
			defer timer.Stop()
			for {
				select {
				case msg, ok := <-conn.Incoming():
					if !ok {
						return writeOut(cmd, app, map[string]string{"status": "sent"})
					}
					if msg.Sender == me.ID && msg.Receiver == args[0] && msg.Content == content {
						return writeOut(cmd, app, msg)
					}
				case <-timer.C:
					return writeOut(cmd, app, map[string]string{"status": "sent"})
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "Message body")
	cmd.Flags().DurationVar(&wait, "wait", 3*time.Second, "How long to wait for the server echo")
	return cmd
}

func newMessagesUnreadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unread",
		Short: "Show unread counts per contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			me, err := app.me(ctx)
			if err != nil {
				return err
			}
			counts, err := app.client.UnreadCounts(ctx, me.ID)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, counts)
		},
	}
}

func newMessagesMarkReadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mark-read <contact-id>",
		Short: "Mark a conversation as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			me, err := app.me(ctx)
			if err != nil {
				return err
			}
			if err := app.client.MarkConversationRead(ctx, args[0], me.ID); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]string{"status": "read", "contactId": args[0]})
		},
	}
}
