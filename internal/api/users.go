package api

import (
	"context"

	"nova-cli/internal/model"
)

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var out model.User
	if err := c.get(ctx, "/users/me", nil, &out); err != nil {
		return model.User{}, err
	}
	return out, nil
}

// Users lists all users (admin view: the client roster plus team members).
func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := c.get(ctx, "/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SetUserRole(ctx context.Context, userID string, role model.Role) error {
	in := map[string]string{"userId": userID, "role": string(role)}
	return c.patch(ctx, "/users/role", in, nil)
}

func (c *Client) SetUserTags(ctx context.Context, userID string, tags []string) error {
	in := map[string]any{"userId": userID, "tags": tags}
	return c.patch(ctx, "/users/tags", in, nil)
}

func (c *Client) Tags(ctx context.Context) ([]model.Tag, error) {
	var out []model.Tag
	if err := c.get(ctx, "/tags", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTag(ctx context.Context, name string) (model.Tag, error) {
	var out model.Tag
	if err := c.post(ctx, "/tags", map[string]string{"name": name}, &out); err != nil {
		return model.Tag{}, err
	}
	return out, nil
}
