package store

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

const uiStateFileName = "state.json"

// UIState stores small, user-facing UI state for restoring the last screen on
// relaunch. It is intentionally "best effort": callers should tolerate
// missing or invalid data.
type UIState struct {
	Version int `json:"version"`

	// TaskView is one of: kanban|calendar|timeline
	TaskView string `json:"taskView,omitempty"`

	// ClientID is the last client whose workspace was open (admins only;
	// clients always see their own).
	ClientID string `json:"clientId,omitempty"`

	// View is the last top-level view: tasks|files|messages|outlook
	View string `json:"view,omitempty"`
}

func uiStatePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, uiStateFileName), nil
}

func LoadUIState() (*UIState, error) {
	path, err := uiStatePath()
	if err != nil {
		return nil, err
	}
	b, ok, err := readFileIfExists(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &UIState{Version: 1}, nil
	}
	var st UIState
	if err := json.Unmarshal(b, &st); err != nil {
		// Best-effort; if corrupted, treat as missing.
		return &UIState{Version: 1}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	return &st, nil
}

func SaveUIState(st *UIState) error {
	if st == nil {
		return nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	st.TaskView = strings.TrimSpace(st.TaskView)
	path, err := uiStatePath()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, b, 0o644)
}
