package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"nova-cli/internal/api"
	"nova-cli/internal/model"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestFlattenFoldersDepthFirstSortedSiblings(t *testing.T) {
	t.Parallel()

	folders := []model.Folder{
		{ID: "f-docs", Name: "Documents"},
		{ID: "f-contracts", Name: "Contracts", Parent: "f-docs"},
		{ID: "f-archive", Name: "Archive", Parent: "f-docs"},
		{ID: "f-assets", Name: "Assets"},
	}

	rows := flattenFolders(folders)
	wantOrder := []string{"f-assets", "f-docs", "f-archive", "f-contracts"}
	wantDepth := []int{0, 0, 1, 1}
	if len(rows) != len(wantOrder) {
		t.Fatalf("rows = %d, want %d", len(rows), len(wantOrder))
	}
	for i, row := range rows {
		if row.folder.ID != wantOrder[i] {
			t.Fatalf("row %d = %q, want %q", i, row.folder.ID, wantOrder[i])
		}
		if row.depth != wantDepth[i] {
			t.Fatalf("row %d depth = %d, want %d", i, row.depth, wantDepth[i])
		}
	}
}

func TestFlattenFoldersOrphansSurfaceAtRoot(t *testing.T) {
	t.Parallel()

	folders := []model.Folder{
		{ID: "f-a", Name: "Alpha"},
		{ID: "f-orphan", Name: "Orphan", Parent: "f-gone"},
	}

	rows := flattenFolders(folders)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (orphan must not disappear)", len(rows))
	}
	for _, row := range rows {
		if row.depth != 0 {
			t.Fatalf("folder %q at depth %d, want all at root", row.folder.ID, row.depth)
		}
	}
}

func TestFlattenFoldersEmpty(t *testing.T) {
	t.Parallel()

	if rows := flattenFolders(nil); len(rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(rows))
	}
}

func TestFilesStateSelectionBounds(t *testing.T) {
	t.Parallel()

	var f filesState
	if _, ok := f.selectedFolder(); ok {
		t.Fatal("empty tree should have no selected folder")
	}
	f.rows = flattenFolders([]model.Folder{{ID: "f1", Name: "Root"}})
	f.sel = 0
	folder, ok := f.selectedFolder()
	if !ok || folder.ID != "f1" {
		t.Fatalf("selectedFolder = %+v ok=%v", folder, ok)
	}
	f.sel = 5
	if _, ok := f.selectedFolder(); ok {
		t.Fatal("out-of-range selection should report no folder")
	}
}

func moveTestModel() appModel {
	m := appModel{files: newFilesState()}
	m.files.folders = []model.Folder{
		{ID: "f-docs", Name: "Documents"},
		{ID: "f-media", Name: "Media"},
	}
	m.files.rows = flattenFolders(m.files.folders)
	m.files.pane = paneFiles
	m.files.sel = 0
	m.files.contentsFor = "f-docs"
	m.files.contents = api.FolderContents{Files: []model.File{
		{ID: "file-1", Name: "report.pdf", FolderID: "f-docs"},
	}}
	return m
}

func TestMoveFileModalOpensAnchoredToCurrentFolder(t *testing.T) {
	t.Parallel()

	m := moveTestModel()
	got, _ := m.updateFilesKey(keyMsg("m"))
	m = got.(appModel)

	if m.files.modal != modalMoveFile {
		t.Fatalf("modal = %d, want move modal", m.files.modal)
	}
	if m.files.modalFile.ID != "file-1" {
		t.Fatalf("modalFile = %+v, want the selected file", m.files.modalFile)
	}
	if m.files.moveSel != 0 {
		t.Fatalf("moveSel = %d, want anchored to the tree selection", m.files.moveSel)
	}
}

func TestMoveFileIntoOtherFolderEmitsMutation(t *testing.T) {
	t.Parallel()

	m := moveTestModel()
	got, _ := m.updateFilesKey(keyMsg("m"))
	m = got.(appModel)
	got, _ = m.updateFilesKey(keyMsg("j"))
	m = got.(appModel)
	if m.files.moveSel != 1 {
		t.Fatalf("moveSel = %d after j, want 1", m.files.moveSel)
	}

	got, cmd := m.updateFilesKey(keyMsg("enter"))
	m = got.(appModel)
	if m.files.modal != modalNone {
		t.Fatalf("modal = %d after confirm, want closed", m.files.modal)
	}
	if cmd == nil {
		t.Fatal("confirming a move into another folder must produce a command")
	}
}

func TestMoveFileIntoCurrentFolderIsNoop(t *testing.T) {
	t.Parallel()

	m := moveTestModel()
	got, _ := m.updateFilesKey(keyMsg("m"))
	m = got.(appModel)

	// moveSel starts on f-docs, the file's current folder.
	got, cmd := m.updateFilesKey(keyMsg("enter"))
	m = got.(appModel)
	if m.files.modal != modalNone {
		t.Fatalf("modal = %d, want closed", m.files.modal)
	}
	if cmd != nil {
		t.Fatal("moving a file into its own folder must not emit a mutation")
	}
}

func TestMoveFileModalEscCancels(t *testing.T) {
	t.Parallel()

	m := moveTestModel()
	got, _ := m.updateFilesKey(keyMsg("m"))
	m = got.(appModel)
	got, cmd := m.updateFilesKey(keyMsg("esc"))
	m = got.(appModel)
	if m.files.modal != modalNone {
		t.Fatalf("modal = %d after esc, want closed", m.files.modal)
	}
	if cmd != nil {
		t.Fatal("cancel must not emit a command")
	}
}

func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int64
		want string
	}{
		{0, "0B"},
		{512, "512B"},
		{1024, "1KB"},
		{1536, "1KB"},
		{1 << 20, "1MB"},
		{5 << 20, "5MB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.n); got != tt.want {
			t.Fatalf("formatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
