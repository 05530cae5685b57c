package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTokenCacheMissingFile(t *testing.T) {
	t.Parallel()

	c := NewTokenCache(t.TempDir())
	if _, err := c.Token(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Token() error = %v, want ErrNoToken", err)
	}
}

func TestTokenCacheSaveThenLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := NewTokenCache(dir)
	if err := c.Save("  abc.def.ghi \n"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := c.Token()
	if err != nil {
		t.Fatalf("Token() error: %v", err)
	}
	if got != "abc.def.ghi" {
		t.Fatalf("Token() = %q, want trimmed token", got)
	}

	// A fresh cache over the same directory reads the same token from disk.
	fresh := NewTokenCache(dir)
	got, err = fresh.Token()
	if err != nil {
		t.Fatalf("fresh Token() error: %v", err)
	}
	if got != "abc.def.ghi" {
		t.Fatalf("fresh Token() = %q, want persisted token", got)
	}
}

func TestTokenCacheSaveEmptyRejected(t *testing.T) {
	t.Parallel()

	c := NewTokenCache(t.TempDir())
	if err := c.Save("   "); err == nil {
		t.Fatal("Save of blank token should fail")
	}
}

func TestTokenCacheClear(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := NewTokenCache(dir)
	if err := c.Save("tok"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, err := c.Token(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Token() after Clear = %v, want ErrNoToken", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "token.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("token file should be removed, stat err = %v", err)
	}

	// Clearing again is fine.
	if err := c.Clear(); err != nil {
		t.Fatalf("second Clear() error: %v", err)
	}
}

func TestTokenCacheCorruptFileCountsAsAbsent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "token.json"), []byte("garbage"), 0o600); err != nil {
		t.Fatalf("write corrupt cache: %v", err)
	}
	c := NewTokenCache(dir)
	if _, err := c.Token(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Token() over corrupt file = %v, want ErrNoToken", err)
	}
}

// makeUnsignedJWT builds a syntactically valid JWT with an empty signature so
// ParseUnverified accepts it.
func makeUnsignedJWT(t *testing.T, claims map[string]any) string {
	t.Helper()
	enc := func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return base64.RawURLEncoding.EncodeToString(b)
	}
	header := map[string]any{"alg": "none", "typ": "JWT"}
	return enc(header) + "." + enc(claims) + "."
}

func TestParseClaims(t *testing.T) {
	t.Parallel()

	now := time.Now().Truncate(time.Second)
	tok := makeUnsignedJWT(t, map[string]any{
		"sub":   "user-7",
		"email": "pat@example.com",
		"exp":   now.Add(time.Hour).Unix(),
		"iat":   now.Unix(),
	})

	cl, err := ParseClaims(tok)
	if err != nil {
		t.Fatalf("ParseClaims() error: %v", err)
	}
	if cl.Subject != "user-7" {
		t.Fatalf("Subject = %q", cl.Subject)
	}
	if cl.Email != "pat@example.com" {
		t.Fatalf("Email = %q", cl.Email)
	}
	if !cl.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("ExpiresAt = %v, want %v", cl.ExpiresAt, now.Add(time.Hour))
	}
	if !cl.IssuedAt.Equal(now) {
		t.Fatalf("IssuedAt = %v, want %v", cl.IssuedAt, now)
	}
	if cl.Expired(now) {
		t.Fatal("token with an hour left should not be expired")
	}
	if !cl.Expired(now.Add(2 * time.Hour)) {
		t.Fatal("token past its exp should be expired")
	}
}

func TestParseClaimsRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := ParseClaims("not-a-jwt"); err == nil {
		t.Fatal("ParseClaims should fail on malformed input")
	}
}

func TestClaimsWithoutExpiryNeverExpire(t *testing.T) {
	t.Parallel()

	cl := Claims{Subject: "user-1"}
	if cl.Expired(time.Now().Add(100 * 365 * 24 * time.Hour)) {
		t.Fatal("claims without exp must not report expired")
	}
}
