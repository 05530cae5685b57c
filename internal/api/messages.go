package api

import (
	"context"
	"net/url"

	"nova-cli/internal/model"
)

// History fetches the conversation between two users, oldest first.
func (c *Client) History(ctx context.Context, senderID, receiverID string) ([]model.Message, error) {
	var out []model.Message
	path := "/messages/" + url.PathEscape(senderID) + "/" + url.PathEscape(receiverID)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnreadCounts maps contact id -> number of unread messages from them.
func (c *Client) UnreadCounts(ctx context.Context, userID string) (map[string]int, error) {
	out := map[string]int{}
	if err := c.get(ctx, "/messages/unreadcounts/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkConversationRead is fire-and-forget on contact selection; it is not
// tied to scroll position or per-message acknowledgment.
func (c *Client) MarkConversationRead(ctx context.Context, contactID, userID string) error {
	in := map[string]string{"userId": userID}
	return c.patch(ctx, "/messages/read/"+url.PathEscape(contactID), in, nil)
}
