package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"nova-cli/internal/api"
	"nova-cli/internal/auth"
	"nova-cli/internal/cache"
	"nova-cli/internal/config"
)

// Deps is everything the interactive UI needs from the host command.
type Deps struct {
	Config config.Config
	API    *api.Client
	Tokens *auth.TokenCache
	Cache  *cache.Cache
}

func Run(deps Deps) error {
	applyColorProfilePreference()
	applyThemePreference()
	m := newAppModel(deps)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
