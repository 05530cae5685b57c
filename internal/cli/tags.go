package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTagsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List and create client tags",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := app.client.Tags(cmd.Context())
			if err != nil {
				return err
			}
			return writeOut(cmd, app, tags)
		},
	})

	var name string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name is required")
			}
			tag, err := app.client.CreateTag(cmd.Context(), strings.TrimSpace(name))
			if err != nil {
				return err
			}
			return writeOut(cmd, app, tag)
		},
	}
	add.Flags().StringVar(&name, "name", "", "Tag name (required)")
	cmd.AddCommand(add)

	return cmd
}
