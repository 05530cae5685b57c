// Package api is the REST client for the Nova backend. It owns no entities:
// every call returns server state or asks the server to change it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"nova-cli/internal/auth"
	"nova-cli/internal/config"
)

var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response. Call sites decide how to surface it; there is
// no richer taxonomy because the backend does not provide one.
type Error struct {
	Status int
	Path   string
	Body   string
}

func (e *Error) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("api: %s returned %d", e.Path, e.Status)
	}
	return fmt.Sprintf("api: %s returned %d: %s", e.Path, e.Status, body)
}

type Client struct {
	base   string
	http   *http.Client
	tokens *auth.TokenCache
	log    *logrus.Entry

	reloginHint bool
}

func New(cfg config.Config, tokens *auth.TokenCache) *Client {
	log := logrus.New()
	log.SetOutput(io.Discard)
	if cfg.Debug {
		log.SetOutput(logrus.StandardLogger().Out)
		log.SetLevel(logrus.DebugLevel)
	}
	return &Client{
		base:        strings.TrimRight(cfg.APIURL, "/"),
		http:        &http.Client{Timeout: cfg.HTTPTimeout},
		tokens:      tokens,
		log:         logrus.NewEntry(log).WithField("component", "api"),
		reloginHint: cfg.ReloginOn401,
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string { return c.base }

// do performs one JSON round trip. The cached bearer token, when present, is
// attached to every request; a missing token is not an error here because a
// handful of endpoints (e.g. health) work unauthenticated.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token, err := c.tokens.Token(); err == nil {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.log.WithFields(logrus.Fields{"method": method, "path": path}).Debug("request")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return c.handleUnauthorized(path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{Status: resp.StatusCode, Path: path, Body: string(b)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// handleUnauthorized clears the token cache for non-Microsoft endpoints, the
// same carve-out the web client has: a 401 from /microsoft/* means "Outlook
// not connected", not "session dead".
func (c *Client) handleUnauthorized(path string) error {
	if strings.Contains(path, "/microsoft/") {
		return &Error{Status: http.StatusUnauthorized, Path: path}
	}
	if err := c.tokens.Clear(); err != nil {
		c.log.WithError(err).Warn("clearing token cache")
	}
	if c.reloginHint {
		return fmt.Errorf("%w: token cleared, run `nova login` to re-authenticate", ErrUnauthorized)
	}
	return ErrUnauthorized
}

// get/post/patch/del keep endpoint wrappers one-liners.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, in, out)
}

func (c *Client) patch(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, in, out)
}

func (c *Client) del(ctx context.Context, path string, query url.Values) error {
	return c.do(ctx, http.MethodDelete, path, query, nil, nil)
}

// raw fetches a non-JSON response (archives) into w.
func (c *Client) raw(ctx context.Context, path string, w io.Writer) error {
	// Cache-buster mirrors the web client's download-all call.
	u := fmt.Sprintf("%s%s?nocache=%d", c.base, path, time.Now().UnixMilli())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if token, err := c.tokens.Token(); err == nil {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return c.handleUnauthorized(path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{Status: resp.StatusCode, Path: path, Body: string(b)}
	}
	_, err = io.Copy(w, resp.Body)
	return err
}
