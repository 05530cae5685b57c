package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"nova-cli/internal/api"
	"nova-cli/internal/confirm"
	"nova-cli/internal/model"
	"nova-cli/internal/upload"
)

func newFilesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Browse folders, upload and download files",
	}

	cmd.AddCommand(newFilesTreeCmd(app))
	cmd.AddCommand(newFilesLsCmd(app))
	cmd.AddCommand(newFilesMkdirCmd(app))
	cmd.AddCommand(newFilesRmdirCmd(app))
	cmd.AddCommand(newFilesRmCmd(app))
	cmd.AddCommand(newFilesMoveCmd(app))
	cmd.AddCommand(newFilesUploadCmd(app))
	cmd.AddCommand(newFilesDownloadCmd(app))
	cmd.AddCommand(newFilesDownloadAllCmd(app))
	cmd.AddCommand(newFilesMarkReadCmd(app))

	return cmd
}

// folderNode is the tree shape emitted by `files tree`.
type folderNode struct {
	Folder   model.Folder `json:"folder"`
	Depth    int          `json:"depth"`
	Children []folderNode `json:"children,omitempty"`
}

func buildFolderTree(folders []model.Folder) []folderNode {
	byParent := make(map[string][]model.Folder)
	known := make(map[string]bool, len(folders))
	for _, f := range folders {
		known[f.ID] = true
	}
	for _, f := range folders {
		parent := f.Parent
		// Orphaned parents render at the root rather than vanishing.
		if parent != "" && !known[parent] {
			parent = ""
		}
		byParent[parent] = append(byParent[parent], f)
	}
	for _, kids := range byParent {
		sort.Slice(kids, func(i, j int) bool { return kids[i].Name < kids[j].Name })
	}

	var build func(parent string, depth int) []folderNode
	build = func(parent string, depth int) []folderNode {
		var nodes []folderNode
		for _, f := range byParent[parent] {
			nodes = append(nodes, folderNode{
				Folder:   f,
				Depth:    depth,
				Children: build(f.ID, depth+1),
			})
		}
		return nodes
	}
	return build("", 0)
}

func newFilesTreeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Show the folder hierarchy",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			clientID, _, err := app.effectiveClientID(ctx)
			if err != nil {
				return err
			}
			folders, err := app.client.Folders(ctx, clientID)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, buildFolderTree(folders))
		},
	}
}

func newFilesLsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <folder-id>",
		Short: "List a folder's files and subfolders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contents, err := app.client.FolderContents(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeOut(cmd, app, contents)
		},
	}
}

func newFilesMkdirCmd(app *App) *cobra.Command {
	var name, parent string

	cmd := &cobra.Command{
		Use:   "mkdir",
		Short: "Create a folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name is required")
			}
			clientID, _, err := app.effectiveClientID(ctx)
			if err != nil {
				return err
			}
			folder, err := app.client.CreateFolder(ctx, api.CreateFolderInput{
				Name:     strings.TrimSpace(name),
				ParentID: parent,
				ClientID: clientID,
			})
			if err != nil {
				return err
			}
			return writeOut(cmd, app, folder)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Folder name (required)")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent folder id (empty = root)")
	return cmd
}

func newFilesRmdirCmd(app *App) *cobra.Command {
	var typed string

	cmd := &cobra.Command{
		Use:   "rmdir <folder-id>",
		Short: "Delete a folder and everything under it",
		Long: strings.TrimSpace(`
Delete a folder recursively. Deletion is destructive and requires the typed
confirmation phrase:

  nova files rmdir 66a1... --confirm "delete folder"
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !confirm.Matches(confirm.FolderPhrase, typed) {
				return errConfirm(confirm.FolderPhrase)
			}
			clientID, me, err := app.effectiveClientID(ctx)
			if err != nil {
				return err
			}
			if me.Role != model.RoleAdmin {
				return errAdminOnly("folder deletion")
			}
			folders, err := app.client.Folders(ctx, clientID)
			if err != nil {
				return err
			}
			for _, f := range folders {
				if f.ID == args[0] && f.IsDefault {
					return fmt.Errorf("folder %s is a default folder and cannot be deleted", f.ID)
				}
			}
			if err := app.client.DeleteFolder(ctx, args[0]); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]string{"status": "deleted", "id": args[0]})
		},
	}

	cmd.Flags().StringVar(&typed, "confirm", "", `Type "delete folder" to confirm`)
	return cmd
}

func newFilesRmCmd(app *App) *cobra.Command {
	var typed string

	cmd := &cobra.Command{
		Use:   "rm <file-id>",
		Short: "Delete a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm.Matches(confirm.FilePhrase, typed) {
				return errConfirm(confirm.FilePhrase)
			}
			if err := app.client.DeleteFile(cmd.Context(), args[0]); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]string{"status": "deleted", "id": args[0]})
		},
	}

	cmd.Flags().StringVar(&typed, "confirm", "", `Type "delete file" to confirm`)
	return cmd
}

func newFilesMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <file-id> <folder-id>",
		Short: "Move a file into another folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.client.MoveFile(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]string{"status": "moved", "id": args[0], "folderId": args[1]})
		},
	}
}

func newFilesUploadCmd(app *App) *cobra.Command {
	var folderID, taskID, contentType string

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Upload a local file via a presigned URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if strings.TrimSpace(folderID) == "" {
				return fmt.Errorf("--folder is required")
			}
			clientID, _, err := app.effectiveClientID(ctx)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}

			ct := contentType
			if ct == "" {
				ct = mime.TypeByExtension(filepath.Ext(args[0]))
			}
			if ct == "" {
				ct = "application/octet-stream"
			}

			uploader := upload.New(app.client)
			rec, err := uploader.Upload(ctx, upload.Input{
				Name:        filepath.Base(args[0]),
				ContentType: ct,
				Size:        info.Size(),
				Body:        f,
				FolderID:    folderID,
				ClientID:    clientID,
				TaskID:      taskID,
			}, nil)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, rec)
		},
	}

	cmd.Flags().StringVar(&folderID, "folder", "", "Destination folder id (required)")
	cmd.Flags().StringVar(&taskID, "task", "", "Attach the file to a task")
	cmd.Flags().StringVar(&contentType, "content-type", "", "Override the detected content type")
	return cmd
}

func newFilesDownloadCmd(app *App) *cobra.Command {
	var urlOnly bool

	cmd := &cobra.Command{
		Use:   "download <file-id>",
		Short: "Resolve a file's short-lived download URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.client.FileDownloadURL(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if urlOnly {
				fmt.Fprintln(cmd.OutOrStdout(), u)
				return nil
			}
			return writeOut(cmd, app, map[string]string{"id": args[0], "downloadUrl": u})
		},
		Args: cobra.ExactArgs(1),
	}

	cmd.Flags().BoolVar(&urlOnly, "url-only", false, "Print just the URL (for piping to curl)")
	return cmd
}

func newFilesDownloadAllCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "download-all <folder-id>",
		Short: "Download a folder's contents as an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(out) == "" {
				out = "folder-" + args[0] + ".zip"
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := app.client.DownloadAll(cmd.Context(), args[0], f); err != nil {
				f.Close()
				os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]string{"status": "downloaded", "path": out})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Archive destination path")
	return cmd
}

func newFilesMarkReadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mark-read <file-id>",
		Short: "Record that you have seen a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			me, err := app.me(ctx)
			if err != nil {
				return err
			}
			if err := app.client.MarkFileRead(ctx, args[0], me.ID); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]string{"status": "read", "id": args[0]})
		},
	}
}
