package cli

import (
	"github.com/spf13/cobra"

	"nova-cli/internal/model"
)

func newClientsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Administer users (admin only)",
	}

	cmd.AddCommand(newClientsListCmd(app))
	cmd.AddCommand(newClientsSetRoleCmd(app))
	cmd.AddCommand(newClientsSetTagsCmd(app))

	return cmd
}

func newClientsListCmd(app *App) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.client.Users(cmd.Context())
			if err != nil {
				return err
			}
			if role != "" {
				filtered := users[:0:0]
				for _, u := range users {
					if string(u.Role) == role {
						filtered = append(filtered, u)
					}
				}
				users = filtered
			}
			return writeOut(cmd, app, users)
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Filter by role (admin|client)")
	return cmd
}

func newClientsSetRoleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <user-id> <admin|client>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			me, err := app.me(ctx)
			if err != nil {
				return err
			}
			if me.Role != model.RoleAdmin {
				return errAdminOnly("role changes")
			}
			role := model.Role(args[1])
			if role != model.RoleAdmin && role != model.RoleClient {
				return errNotFound("role", args[1])
			}
			if err := app.client.SetUserRole(ctx, args[0], role); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]string{"status": "updated", "id": args[0], "role": args[1]})
		},
	}
}

func newClientsSetTagsCmd(app *App) *cobra.Command {
	var tags []string

	cmd := &cobra.Command{
		Use:   "set-tags <user-id>",
		Short: "Replace a user's tag set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			me, err := app.me(ctx)
			if err != nil {
				return err
			}
			if me.Role != model.RoleAdmin {
				return errAdminOnly("tag assignment")
			}
			if err := app.client.SetUserTags(ctx, args[0], tags); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"status": "updated", "id": args[0], "tags": tags})
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag ids (repeatable; empty clears)")
	return cmd
}
