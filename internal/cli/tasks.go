package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nova-cli/internal/api"
	"nova-cli/internal/model"
	"nova-cli/internal/perm"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List, inspect and mutate tasks",
	}

	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksUpdateCmd(app))
	cmd.AddCommand(newTasksCompleteCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	cmd.AddCommand(newTasksCommentsCmd(app))

	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var status string
	var source string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in the selected client's workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			clientID, _, err := app.effectiveClientID(ctx)
			if err != nil {
				return err
			}
			tasks, err := app.client.TasksForClient(ctx, clientID)
			if err != nil {
				return err
			}
			out := tasks[:0:0]
			for _, t := range tasks {
				if status != "" && string(t.Status) != status {
					continue
				}
				if source != "" && string(t.Source) != source {
					continue
				}
				out = append(out, t)
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending|in_progress|completed)")
	cmd.Flags().StringVar(&source, "source", "", "Filter by origin (manual|outlook)")
	return cmd
}

func newTasksShowCmd(app *App) *cobra.Command {
	var withComments bool
	var withFiles bool

	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a single task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			task, me, err := app.findTask(cmd, args[0])
			if err != nil {
				return err
			}
			out := map[string]any{
				"task":       task,
				"capability": perm.Resolve(me.ID, me.Role, task).String(),
			}
			if withComments {
				comments, err := app.client.TaskComments(ctx, task.ID)
				if err != nil {
					return err
				}
				out["comments"] = comments
			}
			if withFiles {
				files, err := app.client.FilesByTask(ctx, task.ID)
				if err != nil {
					return err
				}
				out["files"] = files
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().BoolVar(&withComments, "comments", false, "Include the comment thread")
	cmd.Flags().BoolVar(&withFiles, "files", false, "Include attached files")
	return cmd
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var title, description, status, priority, due string
	var assign []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if strings.TrimSpace(title) == "" {
				return fmt.Errorf("--title is required")
			}
			clientID, _, err := app.effectiveClientID(ctx)
			if err != nil {
				return err
			}
			st, err := parseStatus(status, model.StatusPending)
			if err != nil {
				return err
			}
			prio, err := parsePriority(priority, model.PriorityMedium)
			if err != nil {
				return err
			}
			if due != "" {
				if _, err := parseDueDate(due); err != nil {
					return err
				}
			}
			task, err := app.client.CreateTask(ctx, api.CreateTaskInput{
				Title:       strings.TrimSpace(title),
				Description: description,
				Status:      st,
				Priority:    prio,
				DueDate:     due,
				AssignedTo:  assign,
				ClientID:    clientID,
			})
			if err != nil {
				return err
			}
			return writeOut(cmd, app, task)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Task title (required)")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	cmd.Flags().StringVar(&status, "status", "", "Initial status (default pending)")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority low|medium|high (default medium)")
	cmd.Flags().StringVar(&due, "due", "", "Due date, YYYY-MM-DD")
	cmd.Flags().StringSliceVar(&assign, "assign", nil, "Assignee user ids (repeatable)")
	return cmd
}

func newTasksUpdateCmd(app *App) *cobra.Command {
	var title, description, status, priority, due string
	var assign []string

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Patch a task (only changed fields are sent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			task, me, err := app.findTask(cmd, args[0])
			if err != nil {
				return err
			}

			edits := perm.EditsFrom(task)
			if cmd.Flags().Changed("title") {
				edits.Title = title
			}
			if cmd.Flags().Changed("description") {
				edits.Description = description
			}
			if cmd.Flags().Changed("status") {
				st, err := parseStatus(status, task.Status)
				if err != nil {
					return err
				}
				edits.Status = st
			}
			if cmd.Flags().Changed("priority") {
				prio, err := parsePriority(priority, edits.Priority)
				if err != nil {
					return err
				}
				edits.Priority = prio
			}
			if cmd.Flags().Changed("due") {
				d, err := parseDueDate(due)
				if err != nil {
					return err
				}
				edits.DueDate = &d
			}
			if cmd.Flags().Changed("assign") {
				edits.AssignedTo = assign
			}

			patch := perm.DiffPatch(task, edits)
			if patch.IsEmpty() {
				return writeOut(cmd, app, map[string]string{"status": "unchanged", "id": task.ID})
			}

			capability := perm.Resolve(me.ID, me.Role, task)
			clamped := perm.ClampPatch(capability, patch)
			if dropped := firstDropped(patch, clamped); dropped != "" {
				return errCapability(task.ID, dropped)
			}
			if clamped.IsEmpty() {
				return errCapability(task.ID, "anything")
			}

			updated, err := app.client.UpdateTask(ctx, task.ID, clamped)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, updated)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&status, "status", "", "New status (pending|in_progress|completed)")
	cmd.Flags().StringVar(&priority, "priority", "", "New priority (low|medium|high)")
	cmd.Flags().StringVar(&due, "due", "", "New due date, YYYY-MM-DD")
	cmd.Flags().StringSliceVar(&assign, "assign", nil, "Replace the assignee set")
	return cmd
}

func newTasksCompleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			task, me, err := app.findTask(cmd, args[0])
			if err != nil {
				return err
			}
			if perm.Resolve(me.ID, me.Role, task) == perm.None {
				return errCapability(task.ID, "status")
			}
			updated, err := app.client.CompleteTask(ctx, task.ID)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, updated)
		},
	}
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			task, me, err := app.findTask(cmd, args[0])
			if err != nil {
				return err
			}
			if perm.Resolve(me.ID, me.Role, task) != perm.Full {
				return errCapability(task.ID, "deletion")
			}
			if err := app.client.DeleteTask(ctx, task.ID); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]string{"status": "deleted", "id": task.ID})
		},
	}
}

func newTasksCommentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Read and write task comments",
	}

	list := &cobra.Command{
		Use:   "list <task-id>",
		Short: "List a task's comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comments, err := app.client.TaskComments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeOut(cmd, app, comments)
		},
	}

	var content string
	add := &cobra.Command{
		Use:   "add <task-id>",
		Short: "Append a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(content) == "" {
				return fmt.Errorf("--content is required")
			}
			comment, err := app.client.AddTaskComment(cmd.Context(), args[0], content)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, comment)
		},
	}
	add.Flags().StringVar(&content, "content", "", "Comment body")

	del := &cobra.Command{
		Use:   "delete <task-id> <comment-id>",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.client.DeleteTaskComment(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]string{"status": "deleted", "id": args[1]})
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}

// findTask resolves a task id inside the selected workspace. The backend has
// no single-task endpoint, so this filters the workspace listing.
func (app *App) findTask(cmd *cobra.Command, id string) (model.Task, model.User, error) {
	ctx := cmd.Context()
	clientID, me, err := app.effectiveClientID(ctx)
	if err != nil {
		return model.Task{}, model.User{}, err
	}
	tasks, err := app.client.TasksForClient(ctx, clientID)
	if err != nil {
		return model.Task{}, model.User{}, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, me, nil
		}
	}
	return model.Task{}, model.User{}, errNotFound("task", id)
}

// firstDropped names the first field a clamped patch lost, for error text.
func firstDropped(want, got model.TaskPatch) string {
	switch {
	case want.Title != nil && got.Title == nil:
		return "title"
	case want.Description != nil && got.Description == nil:
		return "description"
	case want.Priority != nil && got.Priority == nil:
		return "priority"
	case want.DueDate != nil && got.DueDate == nil:
		return "due date"
	case want.AssignedTo != nil && got.AssignedTo == nil:
		return "assignees"
	}
	return ""
}

func parseStatus(s string, fallback model.TaskStatus) (model.TaskStatus, error) {
	switch strings.TrimSpace(s) {
	case "":
		return fallback, nil
	case string(model.StatusPending):
		return model.StatusPending, nil
	case string(model.StatusInProgress):
		return model.StatusInProgress, nil
	case string(model.StatusCompleted):
		return model.StatusCompleted, nil
	}
	return "", fmt.Errorf("invalid status %q (want pending|in_progress|completed)", s)
}

func parsePriority(s string, fallback model.TaskPriority) (model.TaskPriority, error) {
	switch strings.TrimSpace(s) {
	case "":
		return fallback, nil
	case string(model.PriorityLow):
		return model.PriorityLow, nil
	case string(model.PriorityMedium):
		return model.PriorityMedium, nil
	case string(model.PriorityHigh):
		return model.PriorityHigh, nil
	}
	return "", fmt.Errorf("invalid priority %q (want low|medium|high)", s)
}

func parseDueDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q (want YYYY-MM-DD)", s)
	}
	return d, nil
}
