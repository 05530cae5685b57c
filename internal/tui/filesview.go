package tui

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"nova-cli/internal/api"
	"nova-cli/internal/cache"
	"nova-cli/internal/confirm"
	"nova-cli/internal/model"
	"nova-cli/internal/upload"
)

type filesPane int

const (
	paneTree filesPane = iota
	paneFiles
)

type filesModal int

const (
	modalNone filesModal = iota
	modalDeleteFile
	modalDeleteFolder
	modalNewFolder
	modalMoveFile
	modalUpload
)

type treeRow struct {
	folder model.Folder
	depth  int
}

// uploadTracker carries transfer progress from the upload goroutine to the
// render loop.
type uploadTracker struct {
	sent  atomic.Int64
	total int64
}

type filesState struct {
	folders []model.Folder
	rows    []treeRow
	sel     int

	pane        filesPane
	contents    api.FolderContents
	contentsFor string
	fileSel     int

	modal       filesModal
	modalFile   model.File
	modalFolder model.Folder
	moveSel     int
	phraseInput textinput.Model
	nameInput   textinput.Model
	pathInput   textinput.Model

	uploading  bool
	uploadName string
	tracker    *uploadTracker
	bar        progress.Model
}

func newFilesState() filesState {
	phrase := textinput.New()
	phrase.Placeholder = "type the confirmation phrase"
	phrase.CharLimit = 40

	name := textinput.New()
	name.Placeholder = "folder name"
	name.CharLimit = 120

	path := textinput.New()
	path.Placeholder = "/path/to/local/file"
	path.CharLimit = 500

	return filesState{
		phraseInput: phrase,
		nameInput:   name,
		pathInput:   path,
		bar:         progress.New(progress.WithDefaultGradient()),
	}
}

// flattenFolders orders the tree depth-first with siblings sorted by name.
// Folders whose parent is missing from the listing surface at the root.
func flattenFolders(folders []model.Folder) []treeRow {
	byParent := map[string][]model.Folder{}
	known := map[string]bool{}
	for _, f := range folders {
		known[f.ID] = true
	}
	for _, f := range folders {
		parent := f.Parent
		if parent != "" && !known[parent] {
			parent = ""
		}
		byParent[parent] = append(byParent[parent], f)
	}
	for p := range byParent {
		sibs := byParent[p]
		for i := 1; i < len(sibs); i++ {
			for j := i; j > 0 && sibs[j].Name < sibs[j-1].Name; j-- {
				sibs[j], sibs[j-1] = sibs[j-1], sibs[j]
			}
		}
		byParent[p] = sibs
	}

	var rows []treeRow
	var walk func(parent string, depth int)
	walk = func(parent string, depth int) {
		for _, f := range byParent[parent] {
			rows = append(rows, treeRow{folder: f, depth: depth})
			walk(f.ID, depth+1)
		}
	}
	walk("", 0)
	return rows
}

func (f filesState) selectedFolder() (model.Folder, bool) {
	if f.sel < 0 || f.sel >= len(f.rows) {
		return model.Folder{}, false
	}
	return f.rows[f.sel].folder, true
}

func (f filesState) selectedFile() (model.File, bool) {
	if f.fileSel < 0 || f.fileSel >= len(f.contents.Files) {
		return model.File{}, false
	}
	return f.contents.Files[f.fileSel], true
}

func (f filesState) capturesKeys() bool {
	return f.modal != modalNone
}

func (f filesState) updateInputs(msg tea.Msg) (filesState, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	switch f.modal {
	case modalDeleteFile, modalDeleteFolder:
		f.phraseInput, cmd = f.phraseInput.Update(msg)
		cmds = append(cmds, cmd)
	case modalNewFolder:
		f.nameInput, cmd = f.nameInput.Update(msg)
		cmds = append(cmds, cmd)
	case modalUpload:
		if !f.uploading {
			f.pathInput, cmd = f.pathInput.Update(msg)
			cmds = append(cmds, cmd)
		}
	}
	return f, tea.Batch(cmds...)
}

// Commands.

func (m appModel) loadFolders() tea.Cmd {
	deps := m.deps
	clientID := m.clientID
	return func() tea.Msg {
		folders, err := cache.Get(cmdCtx(), deps.Cache, cache.Key(cache.KeyFolders, clientID),
			func(ctx context.Context) ([]model.Folder, error) {
				return deps.API.Folders(ctx, clientID)
			})
		return foldersLoadedMsg{folders: folders, err: err}
	}
}

func (m appModel) loadFolderContents(folderID string) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		contents, err := cache.Get(cmdCtx(), deps.Cache, cache.Key(cache.KeyFolderContents, folderID),
			func(ctx context.Context) (api.FolderContents, error) {
				return deps.API.FolderContents(ctx, folderID)
			})
		return folderContentsMsg{folderID: folderID, contents: contents, err: err}
	}
}

func (m appModel) createFolder(name, parentID string) tea.Cmd {
	deps := m.deps
	clientID := m.clientID
	return func() tea.Msg {
		_, err := deps.API.CreateFolder(cmdCtx(), api.CreateFolderInput{
			Name:     name,
			ParentID: parentID,
			ClientID: clientID,
		})
		if err == nil {
			deps.Cache.Invalidate(cache.KeyFolders, cache.KeyFolderContents)
		}
		return filesMutatedMsg{note: "folder created", err: err}
	}
}

func (m appModel) deleteFolderCmd(id string) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		err := deps.API.DeleteFolder(cmdCtx(), id)
		if err == nil {
			deps.Cache.Invalidate(cache.KeyFolders, cache.KeyFolderContents)
		}
		return filesMutatedMsg{note: "folder deleted", err: err}
	}
}

func (m appModel) deleteFileCmd(id string) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		err := deps.API.DeleteFile(cmdCtx(), id)
		if err == nil {
			deps.Cache.Invalidate(cache.KeyFolders, cache.KeyFolderContents)
		}
		return filesMutatedMsg{note: "file deleted", err: err}
	}
}

func (m appModel) moveFileCmd(fileID, folderID string) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		err := deps.API.MoveFile(cmdCtx(), fileID, folderID)
		if err == nil {
			deps.Cache.Invalidate(cache.KeyFolders, cache.KeyFolderContents)
		}
		return filesMutatedMsg{note: "file moved", err: err}
	}
}

func (m appModel) markFileReadCmd(id string) tea.Cmd {
	deps := m.deps
	userID := m.me.ID
	return func() tea.Msg {
		err := deps.API.MarkFileRead(cmdCtx(), id, userID)
		if err == nil {
			deps.Cache.Invalidate(cache.KeyFolderContents)
		}
		return filesMutatedMsg{note: "marked read", err: err}
	}
}

func (m appModel) fetchDownloadURL(id string) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		u, err := deps.API.FileDownloadURL(cmdCtx(), id)
		return filesMutatedMsg{note: u, err: err}
	}
}

func (m appModel) startUpload(path, folderID string, tracker *uploadTracker) tea.Cmd {
	deps := m.deps
	clientID := m.clientID
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return uploadFinishedMsg{err: err}
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return uploadFinishedMsg{err: err}
		}
		ct := mime.TypeByExtension(filepath.Ext(path))
		if ct == "" {
			ct = "application/octet-stream"
		}
		tracker.total = info.Size()

		rec, err := upload.New(deps.API).Upload(cmdCtx(), upload.Input{
			Name:        filepath.Base(path),
			ContentType: ct,
			Size:        info.Size(),
			Body:        f,
			FolderID:    folderID,
			ClientID:    clientID,
		}, func(sent, total int64) {
			tracker.sent.Store(sent)
		})
		if err == nil {
			deps.Cache.Invalidate(cache.KeyFolders, cache.KeyFolderContents)
		}
		return uploadFinishedMsg{file: rec, err: err}
	}
}

func uploadTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return uploadTickMsg{}
	})
}

// Message handling.

func (m appModel) updateFiles(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case foldersLoadedMsg:
		if msg.err != nil {
			m = m.flashError(msg.err)
			return m, clearFlashLater()
		}
		m.files.folders = msg.folders
		m.files.rows = flattenFolders(msg.folders)
		if m.files.sel >= len(m.files.rows) {
			m.files.sel = len(m.files.rows) - 1
		}
		if m.files.sel < 0 {
			m.files.sel = 0
		}
		return m, nil

	case folderContentsMsg:
		if msg.err != nil {
			m = m.flashError(msg.err)
			return m, clearFlashLater()
		}
		m.files.contents = msg.contents
		m.files.contentsFor = msg.folderID
		if m.files.fileSel >= len(msg.contents.Files) {
			m.files.fileSel = 0
		}
		return m, nil

	case filesMutatedMsg:
		if msg.err != nil {
			m = m.flashError(msg.err)
			return m, clearFlashLater()
		}
		m = m.flashInfo(msg.note)
		cmds := []tea.Cmd{m.loadFolders(), clearFlashLater()}
		if m.files.contentsFor != "" {
			cmds = append(cmds, m.loadFolderContents(m.files.contentsFor))
		}
		return m, tea.Batch(cmds...)

	case uploadFinishedMsg:
		m.files.uploading = false
		m.files.modal = modalNone
		m.files.tracker = nil
		if msg.err != nil {
			m = m.flashError(msg.err)
			return m, clearFlashLater()
		}
		m = m.flashInfo("uploaded " + msg.file.Name)
		cmds := []tea.Cmd{m.loadFolders(), clearFlashLater()}
		if m.files.contentsFor != "" {
			cmds = append(cmds, m.loadFolderContents(m.files.contentsFor))
		}
		return m, tea.Batch(cmds...)

	case uploadTickMsg:
		if m.files.uploading {
			return m, uploadTick()
		}
		return m, nil
	}
	return m, nil
}

// Key handling.

func (m appModel) updateFilesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.files
	key := msg.String()

	if f.modal != modalNone {
		return m.updateFilesModalKey(msg)
	}

	switch key {
	case "j", "down":
		if f.pane == paneTree {
			if f.sel < len(f.rows)-1 {
				m.files.sel++
			}
		} else if f.fileSel < len(f.contents.Files)-1 {
			m.files.fileSel++
		}
		return m, nil
	case "k", "up":
		if f.pane == paneTree {
			if f.sel > 0 {
				m.files.sel--
			}
		} else if f.fileSel > 0 {
			m.files.fileSel--
		}
		return m, nil
	case "h", "esc", "left":
		m.files.pane = paneTree
		return m, nil
	case "enter", "l", "right":
		if f.pane == paneTree {
			if folder, ok := f.selectedFolder(); ok {
				m.files.pane = paneFiles
				m.files.fileSel = 0
				return m, m.loadFolderContents(folder.ID)
			}
			return m, nil
		}
		return m, nil
	case "n":
		m.files.modal = modalNewFolder
		m.files.nameInput.SetValue("")
		m.files.nameInput.Focus()
		return m, nil
	case "u":
		if _, ok := f.selectedFolder(); !ok {
			return m, nil
		}
		m.files.modal = modalUpload
		m.files.pathInput.SetValue("")
		m.files.pathInput.Focus()
		return m, nil
	case "x":
		if f.pane == paneFiles {
			if file, ok := f.selectedFile(); ok {
				m.files.modal = modalDeleteFile
				m.files.modalFile = file
				m.files.phraseInput.SetValue("")
				m.files.phraseInput.Focus()
			}
			return m, nil
		}
		folder, ok := f.selectedFolder()
		if !ok {
			return m, nil
		}
		if m.me.Role != model.RoleAdmin {
			m = m.flashError(errPermission{})
			return m, clearFlashLater()
		}
		if folder.IsDefault {
			m = m.flashError(errDefaultFolder{})
			return m, clearFlashLater()
		}
		m.files.modal = modalDeleteFolder
		m.files.modalFolder = folder
		m.files.phraseInput.SetValue("")
		m.files.phraseInput.Focus()
		return m, nil
	case "m":
		if f.pane == paneFiles {
			if file, ok := f.selectedFile(); ok && len(f.rows) > 0 {
				m.files.modal = modalMoveFile
				m.files.modalFile = file
				m.files.moveSel = f.sel
			}
		}
		return m, nil
	case "g":
		if f.pane == paneFiles {
			if file, ok := f.selectedFile(); ok {
				return m, m.markFileReadCmd(file.ID)
			}
		}
		return m, nil
	case "d":
		if f.pane == paneFiles {
			if file, ok := f.selectedFile(); ok {
				return m, m.fetchDownloadURL(file.ID)
			}
		}
		return m, nil
	}
	return m, nil
}

type errDefaultFolder struct{}

func (errDefaultFolder) Error() string { return "default folders cannot be deleted" }

func (m appModel) updateFilesModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.files
	key := msg.String()

	if key == "esc" && !f.uploading {
		m.files.modal = modalNone
		m.files.phraseInput.Blur()
		m.files.nameInput.Blur()
		m.files.pathInput.Blur()
		return m, nil
	}

	switch f.modal {
	case modalDeleteFile:
		if key == "enter" {
			if !confirm.Matches(confirm.FilePhrase, f.phraseInput.Value()) {
				m = m.flashError(errConfirmPhrase{phrase: confirm.FilePhrase})
				return m, clearFlashLater()
			}
			m.files.modal = modalNone
			return m, m.deleteFileCmd(f.modalFile.ID)
		}
	case modalDeleteFolder:
		if key == "enter" {
			if !confirm.Matches(confirm.FolderPhrase, f.phraseInput.Value()) {
				m = m.flashError(errConfirmPhrase{phrase: confirm.FolderPhrase})
				return m, clearFlashLater()
			}
			m.files.modal = modalNone
			return m, m.deleteFolderCmd(f.modalFolder.ID)
		}
	case modalMoveFile:
		switch key {
		case "j", "down":
			if f.moveSel < len(f.rows)-1 {
				m.files.moveSel++
			}
			return m, nil
		case "k", "up":
			if f.moveSel > 0 {
				m.files.moveSel--
			}
			return m, nil
		case "enter":
			if f.moveSel < 0 || f.moveSel >= len(f.rows) {
				return m, nil
			}
			target := f.rows[f.moveSel].folder
			if target.ID == f.modalFile.FolderID {
				m.files.modal = modalNone
				return m, nil
			}
			m.files.modal = modalNone
			return m, m.moveFileCmd(f.modalFile.ID, target.ID)
		}
		return m, nil
	case modalNewFolder:
		if key == "enter" {
			name := strings.TrimSpace(f.nameInput.Value())
			if name == "" {
				return m, nil
			}
			parent := ""
			if folder, ok := f.selectedFolder(); ok {
				parent = folder.ID
			}
			m.files.modal = modalNone
			return m, m.createFolder(name, parent)
		}
	case modalUpload:
		if f.uploading {
			return m, nil
		}
		if key == "enter" {
			path := strings.TrimSpace(f.pathInput.Value())
			if path == "" {
				return m, nil
			}
			folder, ok := f.selectedFolder()
			if !ok {
				return m, nil
			}
			tracker := &uploadTracker{}
			m.files.uploading = true
			m.files.uploadName = filepath.Base(path)
			m.files.tracker = tracker
			return m, tea.Batch(m.startUpload(path, folder.ID, tracker), uploadTick())
		}
	}

	var cmd tea.Cmd
	m.files, cmd = m.files.updateInputs(msg)
	return m, cmd
}

type errConfirmPhrase struct{ phrase string }

func (e errConfirmPhrase) Error() string {
	return "type exactly \"" + e.phrase + "\" to confirm"
}

// Rendering.

func (m appModel) renderFiles() string {
	width := m.width
	height := m.bodyHeight()
	f := m.files

	if f.modal != modalNone {
		return placeCentered(width, height, m.renderFilesModal())
	}

	treeW := width / 3
	if treeW < 24 {
		treeW = 24
	}
	if treeW > width-20 {
		treeW = width / 2
	}
	filesW := width - treeW - 2

	tree := m.renderFolderTree(treeW, height)
	files := m.renderFolderContents(filesW, height)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		normalizePane(tree, treeW, height),
		normalizePane("", 2, height),
		normalizePane(files, filesW, height),
	)
}

func (m appModel) renderFolderTree(width, height int) string {
	f := m.files
	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render(" Folders") + "\n\n")

	if len(f.rows) == 0 {
		sb.WriteString(styleMuted().Render("  none"))
	}
	for i, row := range f.rows {
		indent := strings.Repeat("  ", row.depth)
		name := row.folder.Name
		if row.folder.IsInternal {
			name += " (internal)"
		}
		line := truncate(indent+"▸ "+name, width-2)
		if i == f.sel && f.pane == paneTree {
			sb.WriteString(lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg).Render(" " + line))
		} else if i == f.sel {
			sb.WriteString(lipgloss.NewStyle().Bold(true).Render(" " + line))
		} else {
			sb.WriteString(" " + line)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(styleMuted().Render(" n:new  u:upload  x:delete"))
	return sb.String()
}

func (m appModel) renderFolderContents(width, height int) string {
	f := m.files
	var sb strings.Builder

	title := " Files"
	if folder, ok := f.selectedFolder(); ok && f.contentsFor == folder.ID {
		title = " " + folder.Name
	}
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render(title) + "\n\n")

	if f.contentsFor == "" {
		sb.WriteString(styleMuted().Render("  enter: open folder"))
		return sb.String()
	}
	if len(f.contents.Files) == 0 {
		sb.WriteString(styleMuted().Render("  empty"))
		return sb.String()
	}

	for i, file := range f.contents.Files {
		marker := "  "
		unread := ""
		if !file.IsReadBy(m.me.ID) {
			unread = "● "
		}
		line := unread + file.Name + "  " + formatSize(file.Size)
		line = truncate(line, width-4)
		if i == f.fileSel && f.pane == paneFiles {
			marker = "> "
			sb.WriteString(lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg).Render(marker + line))
		} else {
			sb.WriteString(marker + line)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(styleMuted().Render(" m:move  g:mark read  d:download url  x:delete"))
	return sb.String()
}

func (m appModel) renderFilesModal() string {
	f := m.files
	var title, body string

	switch f.modal {
	case modalDeleteFile:
		title = "Delete file"
		body = "Deleting \"" + truncate(f.modalFile.Name, 50) + "\".\n\n" +
			"Type \"" + confirm.FilePhrase + "\" to confirm:\n\n" +
			f.phraseInput.View() + "\n\n" +
			styleMuted().Render("enter:delete  esc:cancel")
	case modalDeleteFolder:
		title = "Delete folder"
		body = "Deleting \"" + truncate(f.modalFolder.Name, 50) + "\" and everything in it.\n\n" +
			"Type \"" + confirm.FolderPhrase + "\" to confirm:\n\n" +
			f.phraseInput.View() + "\n\n" +
			styleMuted().Render("enter:delete  esc:cancel")
	case modalMoveFile:
		title = "Move file"
		var sb strings.Builder
		sb.WriteString("Move \"" + truncate(f.modalFile.Name, 50) + "\" into:\n\n")
		for i, row := range f.rows {
			line := strings.Repeat("  ", row.depth) + row.folder.Name
			if row.folder.ID == f.modalFile.FolderID {
				line += " (current)"
			}
			line = truncate(line, 50)
			if i == f.moveSel {
				sb.WriteString(lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg).Render("> " + line))
			} else {
				sb.WriteString("  " + line)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n" + styleMuted().Render("enter:move  esc:cancel"))
		body = sb.String()
	case modalNewFolder:
		title = "New folder"
		parent := "root"
		if folder, ok := f.selectedFolder(); ok {
			parent = folder.Name
		}
		body = "Create under: " + parent + "\n\n" +
			f.nameInput.View() + "\n\n" +
			styleMuted().Render("enter:create  esc:cancel")
	case modalUpload:
		title = "Upload"
		if f.uploading {
			pct := 0.0
			if f.tracker != nil && f.tracker.total > 0 {
				pct = float64(f.tracker.sent.Load()) / float64(f.tracker.total)
			}
			body = "Uploading " + f.uploadName + "…\n\n" + f.bar.ViewAs(pct)
		} else {
			dest := ""
			if folder, ok := f.selectedFolder(); ok {
				dest = folder.Name
			}
			body = "Upload into: " + dest + "\n\n" +
				f.pathInput.View() + "\n\n" +
				styleMuted().Render("enter:upload  esc:cancel")
		}
	}

	return renderModalBox(m.width, title, body)
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return strconv.Itoa(int(n>>20)) + "MB"
	case n >= 1<<10:
		return strconv.Itoa(int(n>>10)) + "KB"
	default:
		return strconv.Itoa(int(n)) + "B"
	}
}
