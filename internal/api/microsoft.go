package api

import (
	"context"

	"nova-cli/internal/model"
)

// MicrosoftLoginURL returns the browser URL that starts the Outlook connect
// flow. The flow itself completes in the user's browser.
func (c *Client) MicrosoftLoginURL(ctx context.Context) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.get(ctx, "/microsoft/login-url", nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *Client) MicrosoftDisconnect(ctx context.Context) error {
	return c.post(ctx, "/microsoft/disconnect", nil, nil)
}

// SubscribeStatus reports the current inbox webhook subscription, if any.
func (c *Client) SubscribeStatus(ctx context.Context) (*model.Subscription, error) {
	var out struct {
		Subscription *model.Subscription `json:"subscription"`
	}
	if err := c.get(ctx, "/microsoft/subscribe-status", nil, &out); err != nil {
		return nil, err
	}
	return out.Subscription, nil
}

type SubscribeResult struct {
	OK             bool   `json:"ok"`
	Reused         bool   `json:"reused,omitempty"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
	Expires        string `json:"expires,omitempty"`
}

func (c *Client) SubscribeInbox(ctx context.Context) (SubscribeResult, error) {
	var out SubscribeResult
	if err := c.post(ctx, "/microsoft/subscribe-inbox", nil, &out); err != nil {
		return SubscribeResult{}, err
	}
	return out, nil
}

func (c *Client) LatestEmail(ctx context.Context) (*model.LatestEmail, error) {
	var out *model.LatestEmail
	if err := c.get(ctx, "/microsoft/latest-email", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestEmailToTask asks the AI endpoint to convert the latest email into a
// task. The returned task carries Outlook provenance fields.
func (c *Client) LatestEmailToTask(ctx context.Context) (model.Task, error) {
	var out struct {
		Task model.Task `json:"task"`
	}
	if err := c.post(ctx, "/openai/latest-email-to-task", nil, &out); err != nil {
		return model.Task{}, err
	}
	return out.Task, nil
}
