package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigDirHonorsOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NOVA_CONFIG_DIR", dir)

	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error: %v", err)
	}
	if got != dir {
		t.Fatalf("ConfigDir() = %q, want %q", got, dir)
	}
}

func TestLoadUIStateMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("NOVA_CONFIG_DIR", t.TempDir())

	st, err := LoadUIState()
	if err != nil {
		t.Fatalf("LoadUIState() error: %v", err)
	}
	if st.Version != 1 {
		t.Fatalf("Version = %d, want 1", st.Version)
	}
	if st.TaskView != "" || st.ClientID != "" || st.View != "" {
		t.Fatalf("expected empty defaults, got %+v", st)
	}
}

func TestSaveThenLoadUIStateRoundTrip(t *testing.T) {
	t.Setenv("NOVA_CONFIG_DIR", t.TempDir())

	in := &UIState{
		TaskView: "calendar",
		ClientID: "user-42",
		View:     "files",
	}
	if err := SaveUIState(in); err != nil {
		t.Fatalf("SaveUIState() error: %v", err)
	}

	out, err := LoadUIState()
	if err != nil {
		t.Fatalf("LoadUIState() error: %v", err)
	}
	if out.Version != 1 {
		t.Fatalf("Version = %d, want 1", out.Version)
	}
	if out.TaskView != "calendar" || out.ClientID != "user-42" || out.View != "files" {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestSaveUIStateTrimsTaskView(t *testing.T) {
	t.Setenv("NOVA_CONFIG_DIR", t.TempDir())

	if err := SaveUIState(&UIState{TaskView: "  kanban \n"}); err != nil {
		t.Fatalf("SaveUIState() error: %v", err)
	}
	out, err := LoadUIState()
	if err != nil {
		t.Fatalf("LoadUIState() error: %v", err)
	}
	if out.TaskView != "kanban" {
		t.Fatalf("TaskView = %q, want %q", out.TaskView, "kanban")
	}
}

func TestLoadUIStateCorruptFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NOVA_CONFIG_DIR", dir)

	path := filepath.Join(dir, "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt state: %v", err)
	}

	st, err := LoadUIState()
	if err != nil {
		t.Fatalf("LoadUIState() error: %v", err)
	}
	if st.Version != 1 || st.View != "" {
		t.Fatalf("expected defaults for corrupt file, got %+v", st)
	}
}

func TestSaveUIStateNilIsNoop(t *testing.T) {
	t.Setenv("NOVA_CONFIG_DIR", t.TempDir())

	if err := SaveUIState(nil); err != nil {
		t.Fatalf("SaveUIState(nil) error: %v", err)
	}
	st, err := LoadUIState()
	if err != nil {
		t.Fatalf("LoadUIState() error: %v", err)
	}
	if st.TaskView != "" {
		t.Fatalf("nil save should not persist anything, got %+v", st)
	}
}
