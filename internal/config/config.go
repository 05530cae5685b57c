// Package config resolves client configuration from the environment.
//
// A .env file in the working directory is honored when present so local
// setups mirror the web client's Vite env files.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// APIURL is the REST backend base, including the /api prefix.
	APIURL string `env:"NOVA_API_URL" envDefault:"http://localhost:5001/api"`

	// SocketURL is the live message channel endpoint.
	SocketURL string `env:"NOVA_SOCKET_URL" envDefault:"ws://localhost:5001/socket"`

	HTTPTimeout time.Duration `env:"NOVA_HTTP_TIMEOUT" envDefault:"30s"`

	// Debug enables request/response logging to stderr.
	Debug bool `env:"NOVA_DEBUG" envDefault:"false"`

	// ReloginOn401 controls whether a 401 (outside the Microsoft endpoints)
	// prints a re-login hint after clearing the cached token. The web client
	// has forced redirect-on-401 deliberately disabled; this stays opt-in.
	ReloginOn401 bool `env:"NOVA_RELOGIN_ON_401" envDefault:"false"`

	// ConfigDir overrides ~/.nova (used by tests).
	ConfigDir string `env:"NOVA_CONFIG_DIR"`
}

func Load() (Config, error) {
	// Best effort: absence of a .env file is the normal case.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	cfg.SocketURL = strings.TrimSpace(cfg.SocketURL)
	if cfg.APIURL == "" {
		return Config{}, fmt.Errorf("NOVA_API_URL is empty")
	}
	return cfg, nil
}
