package api

import (
	"context"
	"fmt"
	"net/url"

	"nova-cli/internal/model"
)

// TasksForClient lists the tasks visible in a client's workspace.
func (c *Client) TasksForClient(ctx context.Context, clientID string) ([]model.Task, error) {
	var out []model.Task
	if err := c.get(ctx, "/tasks/user/"+url.PathEscape(clientID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type CreateTaskInput struct {
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Status      model.TaskStatus   `json:"status,omitempty"`
	Priority    model.TaskPriority `json:"priority,omitempty"`
	DueDate     string             `json:"dueDate,omitempty"`
	AssignedTo  []string           `json:"assignedTo,omitempty"`
	ClientID    string             `json:"clientId,omitempty"`
}

func (c *Client) CreateTask(ctx context.Context, in CreateTaskInput) (model.Task, error) {
	var out model.Task
	if err := c.post(ctx, "/tasks", in, &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

// UpdateTask sends a partial patch. Callers are expected to have run the
// patch through perm.ClampPatch first.
func (c *Client) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	if patch.IsEmpty() {
		return model.Task{}, fmt.Errorf("update task %s: empty patch", id)
	}
	var out model.Task
	if err := c.patch(ctx, "/tasks/"+url.PathEscape(id), patch, &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

func (c *Client) CompleteTask(ctx context.Context, id string) (model.Task, error) {
	var out model.Task
	if err := c.patch(ctx, "/tasks/"+url.PathEscape(id)+"/complete", nil, &out); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.del(ctx, "/tasks/"+url.PathEscape(id), nil)
}

func (c *Client) TaskComments(ctx context.Context, taskID string) ([]model.Comment, error) {
	var out []model.Comment
	if err := c.get(ctx, "/tasks/"+url.PathEscape(taskID)+"/comments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddTaskComment(ctx context.Context, taskID, content string) (model.Comment, error) {
	var out model.Comment
	in := map[string]string{"content": content}
	if err := c.post(ctx, "/tasks/"+url.PathEscape(taskID)+"/comments", in, &out); err != nil {
		return model.Comment{}, err
	}
	return out, nil
}

func (c *Client) DeleteTaskComment(ctx context.Context, taskID, commentID string) error {
	return c.del(ctx, "/tasks/"+url.PathEscape(taskID)+"/comments/"+url.PathEscape(commentID), nil)
}
