// Package auth caches the bearer token issued by the identity provider and
// decodes its claims locally. Token acquisition itself is delegated: the user
// pastes a token obtained through the provider's device/browser flow.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenFileName = "token.json"

var ErrNoToken = errors.New("no cached access token; run `nova login`")

type cachedToken struct {
	AccessToken string    `json:"accessToken"`
	SavedAt     time.Time `json:"savedAt"`
}

// TokenCache is a file-backed store for the single access-token entry the
// client persists. Safe for concurrent use within one process; cross-process
// writers rely on atomic rename.
type TokenCache struct {
	dir string

	mu    sync.Mutex
	token string // in-memory copy after first load
	read  bool
}

func NewTokenCache(dir string) *TokenCache {
	return &TokenCache{dir: dir}
}

func (c *TokenCache) path() string {
	return filepath.Join(c.dir, tokenFileName)
}

// Token returns the cached access token, loading lazily from disk.
func (c *TokenCache) Token() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.read {
		if c.token == "" {
			return "", ErrNoToken
		}
		return c.token, nil
	}
	c.read = true
	b, err := os.ReadFile(c.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoToken
		}
		return "", err
	}
	var ct cachedToken
	if err := json.Unmarshal(b, &ct); err != nil {
		// Corrupt cache counts as absent.
		return "", ErrNoToken
	}
	c.token = strings.TrimSpace(ct.AccessToken)
	if c.token == "" {
		return "", ErrNoToken
	}
	return c.token, nil
}

func (c *TokenCache) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cachedToken{AccessToken: token, SavedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.path() + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.path()); err != nil {
		return err
	}
	c.token = token
	c.read = true
	return nil
}

// Clear removes the cached token (the 401 path and `nova logout`).
func (c *TokenCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.read = true
	if err := os.Remove(c.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Claims are the identity-relevant claims decoded from the bearer token.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

func (cl Claims) Expired(now time.Time) bool {
	return !cl.ExpiresAt.IsZero() && now.After(cl.ExpiresAt)
}

// ParseClaims decodes the token without verifying its signature: validation
// is the backend's job, the client only needs subject/expiry for display and
// for skipping obviously dead tokens.
func ParseClaims(token string) (Claims, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Claims{}, fmt.Errorf("decode token: %w", err)
	}
	out := Claims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	return out, nil
}
