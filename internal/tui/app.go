package tui

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"nova-cli/internal/api"
	"nova-cli/internal/cache"
	"nova-cli/internal/model"
	"nova-cli/internal/store"
	"nova-cli/internal/ws"
)

type view int

const (
	viewTasks view = iota
	viewFiles
	viewMessages
	viewOutlook
)

func (v view) String() string {
	switch v {
	case viewTasks:
		return "tasks"
	case viewFiles:
		return "files"
	case viewMessages:
		return "messages"
	case viewOutlook:
		return "outlook"
	}
	return "tasks"
}

func viewFromString(s string) view {
	switch s {
	case "files":
		return viewFiles
	case "messages":
		return viewMessages
	case "outlook":
		return viewOutlook
	}
	return viewTasks
}

type taskMode int

const (
	modeKanban taskMode = iota
	modeCalendar
	modeTimeline
)

func (m taskMode) String() string {
	switch m {
	case modeCalendar:
		return "calendar"
	case modeTimeline:
		return "timeline"
	}
	return "kanban"
}

func taskModeFromString(s string) taskMode {
	switch s {
	case "calendar":
		return modeCalendar
	case "timeline":
		return modeTimeline
	}
	return modeKanban
}

// Messages produced by async commands.

type sessionLoadedMsg struct {
	me    model.User
	users []model.User
	err   error
}

type tasksLoadedMsg struct {
	tasks []model.Task
	err   error
}

type taskSavedMsg struct {
	task model.Task
	err  error
}

type taskDeletedMsg struct {
	id  string
	err error
}

type taskExtrasMsg struct {
	taskID   string
	comments []model.Comment
	files    []model.File
	err      error
}

type commentSavedMsg struct {
	taskID string
	err    error
}

type foldersLoadedMsg struct {
	folders []model.Folder
	err     error
}

type folderContentsMsg struct {
	folderID string
	contents api.FolderContents
	err      error
}

type filesMutatedMsg struct {
	note string
	err  error
}

type uploadFinishedMsg struct {
	file model.File
	err  error
}

type uploadTickMsg struct{}

type chatHistoryMsg struct {
	contactID string
	history   []model.Message
	err       error
}

type unreadLoadedMsg struct {
	counts map[string]int
	err    error
}

type wsConnectedMsg struct {
	conn *ws.Conn
	err  error
}

type wsIncomingMsg struct {
	msg model.Message
}

type wsClosedMsg struct {
	err error
}

type outlookLoadedMsg struct {
	sub   *model.Subscription
	email *model.LatestEmail
	err   error
}

type outlookMutatedMsg struct {
	note string
	err  error
}

type flashClearMsg struct{ at time.Time }

type appModel struct {
	deps Deps

	width  int
	height int

	view view
	mode taskMode

	ready bool
	spin  spinner.Model
	me    model.User
	users []model.User

	// clientID selects whose workspace is shown (admins can switch).
	clientID string

	flash    string
	flashErr bool
	flashAt  time.Time

	tasks  []model.Task
	board  boardState
	cal    calendarState
	tl     timelineState
	detail detailState
	picker pickerState

	files   filesState
	chat    chatState
	outlook outlookState
}

func newAppModel(deps Deps) appModel {
	m := appModel{
		deps: deps,
		view: viewTasks,
		mode: modeKanban,
	}

	// Restore the persisted view preferences (best effort; corrupt or missing
	// state falls back to defaults).
	if st, err := store.LoadUIState(); err == nil && st != nil {
		m.mode = taskModeFromString(st.TaskView)
		m.view = viewFromString(st.View)
		m.clientID = st.ClientID
	}

	m.spin = spinner.New(spinner.WithSpinner(spinner.Dot))
	m.spin.Style = styleMuted()
	m.cal = newCalendarState(time.Now())
	m.detail = newDetailState()
	m.files = newFilesState()
	m.chat = newChatState()
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.loadSession(), m.spin.Tick)
}

func (m appModel) saveUIState() {
	_ = store.SaveUIState(&store.UIState{
		TaskView: m.mode.String(),
		View:     m.view.String(),
		ClientID: m.clientID,
	})
}

// ctx for one-shot command fetches. The UI has no cancellation story beyond
// process exit, so Background with the client's own timeout is enough.
func cmdCtx() context.Context { return context.Background() }

func (m appModel) loadSession() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx := cmdCtx()
		me, err := cache.Get(ctx, deps.Cache, cache.KeyUser, deps.API.Me)
		if err != nil {
			return sessionLoadedMsg{err: err}
		}
		users, err := cache.Get(ctx, deps.Cache, cache.KeyUsers, deps.API.Users)
		return sessionLoadedMsg{me: me, users: users, err: err}
	}
}

func (m appModel) loadTasks() tea.Cmd {
	deps := m.deps
	clientID := m.clientID
	return func() tea.Msg {
		ctx := cmdCtx()
		tasks, err := cache.Get(ctx, deps.Cache, cache.Key(cache.KeyTasks, clientID),
			func(ctx context.Context) ([]model.Task, error) {
				return deps.API.TasksForClient(ctx, clientID)
			})
		return tasksLoadedMsg{tasks: tasks, err: err}
	}
}

func (m appModel) saveTask(id string, patch model.TaskPatch) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		task, err := deps.API.UpdateTask(cmdCtx(), id, patch)
		if err == nil {
			deps.Cache.Invalidate(cache.KeyTasks, cache.KeyTasksOutlook)
		}
		return taskSavedMsg{task: task, err: err}
	}
}

func (m appModel) completeTask(id string) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		task, err := deps.API.CompleteTask(cmdCtx(), id)
		if err == nil {
			deps.Cache.Invalidate(cache.KeyTasks, cache.KeyTasksOutlook)
		}
		return taskSavedMsg{task: task, err: err}
	}
}

func (m appModel) createTask(in api.CreateTaskInput) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		task, err := deps.API.CreateTask(cmdCtx(), in)
		if err == nil {
			deps.Cache.Invalidate(cache.KeyTasks, cache.KeyTasksOutlook)
		}
		return taskSavedMsg{task: task, err: err}
	}
}

func (m appModel) deleteTask(id string) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		err := deps.API.DeleteTask(cmdCtx(), id)
		if err == nil {
			deps.Cache.Invalidate(cache.KeyTasks, cache.KeyTasksOutlook)
		}
		return taskDeletedMsg{id: id, err: err}
	}
}

func (m appModel) loadTaskExtras(taskID string) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx := cmdCtx()
		comments, err := deps.API.TaskComments(ctx, taskID)
		if err != nil {
			return taskExtrasMsg{taskID: taskID, err: err}
		}
		files, err := deps.API.FilesByTask(ctx, taskID)
		return taskExtrasMsg{taskID: taskID, comments: comments, files: files, err: err}
	}
}

func (m appModel) addComment(taskID, content string) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		_, err := deps.API.AddTaskComment(cmdCtx(), taskID, content)
		return commentSavedMsg{taskID: taskID, err: err}
	}
}

func (m appModel) flashError(err error) appModel {
	m.flash = err.Error()
	m.flashErr = true
	m.flashAt = time.Now()
	return m
}

func (m appModel) flashInfo(note string) appModel {
	m.flash = note
	m.flashErr = false
	m.flashAt = time.Now()
	return m
}

func clearFlashLater() tea.Cmd {
	return tea.Tick(4*time.Second, func(t time.Time) tea.Msg {
		return flashClearMsg{at: t}
	})
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m = m.resize()
		return m, nil

	case flashClearMsg:
		if !msg.at.Before(m.flashAt) {
			m.flash = ""
		}
		return m, nil

	case spinner.TickMsg:
		// No point spinning once the session is up: each view renders its own
		// cached data immediately after that.
		if m.ready {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case sessionLoadedMsg:
		if msg.err != nil {
			m = m.flashError(msg.err)
			return m, clearFlashLater()
		}
		m.me = msg.me
		m.users = msg.users
		if m.clientID == "" || m.me.Role != model.RoleAdmin {
			m.clientID = m.me.ID
		}
		m.ready = true
		cmds := []tea.Cmd{m.loadTasks(), m.loadFolders(), m.loadUnread(), m.connectWS()}
		if m.view == viewOutlook {
			cmds = append(cmds, m.loadOutlook())
		}
		return m, tea.Batch(cmds...)

	case tasksLoadedMsg:
		if msg.err != nil {
			m = m.flashError(msg.err)
			return m, clearFlashLater()
		}
		m.tasks = msg.tasks
		m.board = m.board.rebuild(m.tasks)
		m.tl = m.tl.rebuild(m.tasks)
		if m.detail.open {
			m.detail = m.detail.refreshTask(m.tasks)
		}
		return m, nil

	case taskSavedMsg:
		if msg.err != nil {
			m = m.flashError(msg.err)
			return m, clearFlashLater()
		}
		if m.detail.open && m.detail.task.ID == msg.task.ID {
			m.detail.task = msg.task
			m.detail.editing = false
		}
		return m, m.loadTasks()

	case taskDeletedMsg:
		if msg.err != nil {
			m = m.flashError(msg.err)
			return m, clearFlashLater()
		}
		if m.detail.open && m.detail.task.ID == msg.id {
			m.detail = newDetailState()
		}
		m = m.flashInfo("task deleted")
		return m, tea.Batch(m.loadTasks(), clearFlashLater())

	case taskExtrasMsg:
		m = m.updateDetailExtras(msg)
		return m, nil

	case commentSavedMsg:
		if msg.err != nil {
			m = m.flashError(msg.err)
			return m, clearFlashLater()
		}
		return m, m.loadTaskExtras(msg.taskID)

	case foldersLoadedMsg, folderContentsMsg, filesMutatedMsg, uploadFinishedMsg, uploadTickMsg:
		return m.updateFiles(msg)

	case chatHistoryMsg, unreadLoadedMsg, wsConnectedMsg, wsIncomingMsg, wsClosedMsg:
		return m.updateChat(msg)

	case outlookLoadedMsg, outlookMutatedMsg:
		return m.updateOutlook(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.routeToView(msg)
}

// routeToView forwards component messages (spinner ticks, blink cursors) to
// whichever view holds focused inputs.
func (m appModel) routeToView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.detail.open {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.updateInputs(msg)
		cmds = append(cmds, cmd)
	}
	if m.view == viewMessages {
		var cmd tea.Cmd
		m.chat, cmd = m.chat.updateInputs(msg)
		cmds = append(cmds, cmd)
	}
	if m.view == viewFiles {
		var cmd tea.Cmd
		m.files, cmd = m.files.updateInputs(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.saveUIState()
		m = m.teardown()
		return m, tea.Quit
	}

	// Modals and focused inputs capture the keyboard.
	if m.picker.open {
		return m.updatePicker(msg)
	}
	if m.detail.open {
		return m.updateDetailKey(msg)
	}
	if m.view == viewFiles && m.files.capturesKeys() {
		return m.updateFilesKey(msg)
	}
	if m.view == viewMessages && m.chat.capturesKeys() {
		return m.updateChatKey(msg)
	}

	switch key {
	case "q":
		m.saveUIState()
		m = m.teardown()
		return m, tea.Quit
	case "1":
		return m.switchView(viewTasks)
	case "2":
		return m.switchView(viewFiles)
	case "3":
		return m.switchView(viewMessages)
	case "4":
		return m.switchView(viewOutlook)
	case "tab":
		return m.switchView((m.view + 1) % 4)
	case "r":
		return m.refreshCurrent()
	case "C":
		if m.me.Role == model.RoleAdmin {
			m.picker = openClientPicker(m.users, m.clientID)
			return m, nil
		}
		return m, nil
	}

	switch m.view {
	case viewTasks:
		return m.updateTasksKey(msg)
	case viewFiles:
		return m.updateFilesKey(msg)
	case viewMessages:
		return m.updateChatKey(msg)
	case viewOutlook:
		return m.updateOutlookKey(msg)
	}
	return m, nil
}

func (m appModel) switchView(v view) (tea.Model, tea.Cmd) {
	m.view = v
	m.saveUIState()
	switch v {
	case viewTasks:
		return m, m.loadTasks()
	case viewFiles:
		return m, m.loadFolders()
	case viewMessages:
		return m, m.loadUnread()
	case viewOutlook:
		return m, m.loadOutlook()
	}
	return m, nil
}

// refreshCurrent drops the cached data behind the active view and refetches.
func (m appModel) refreshCurrent() (tea.Model, tea.Cmd) {
	switch m.view {
	case viewTasks:
		m.deps.Cache.Invalidate(cache.KeyTasks)
		return m, m.loadTasks()
	case viewFiles:
		m.deps.Cache.Invalidate(cache.KeyFolders, cache.KeyFolderContents)
		return m, m.loadFolders()
	case viewMessages:
		m.deps.Cache.Invalidate(cache.KeyMessages, cache.KeyUnreadCounts)
		cmds := []tea.Cmd{m.loadUnread()}
		if m.chat.thread != nil {
			cmds = append(cmds, m.loadChatHistory(m.chat.thread.ContactID))
		}
		return m, tea.Batch(cmds...)
	case viewOutlook:
		m.deps.Cache.Invalidate(cache.KeySubscription, cache.KeyLatestEmail)
		return m, m.loadOutlook()
	}
	return m, nil
}

func (m appModel) teardown() appModel {
	if m.chat.conn != nil {
		_ = m.chat.conn.Close()
		m.chat.conn = nil
	}
	return m
}

func (m appModel) resize() appModel {
	m.chat = m.chat.resize(m.width, m.bodyHeight())
	return m
}

func (m appModel) bodyHeight() int {
	h := m.height - 3 // tab bar + status line
	if h < 0 {
		h = 0
	}
	return h
}

func (m appModel) View() string {
	if m.width == 0 {
		return "loading…"
	}

	body := ""
	switch {
	case !m.ready:
		body = " " + m.spin.View() + styleMuted().Render(" connecting…")
	case m.picker.open:
		body = placeCentered(m.width, m.bodyHeight(), m.picker.render(m.width))
	case m.detail.open:
		body = m.renderDetail()
	default:
		switch m.view {
		case viewTasks:
			body = m.renderTasks()
		case viewFiles:
			body = m.renderFiles()
		case viewMessages:
			body = m.renderChat()
		case viewOutlook:
			body = m.renderOutlook()
		}
	}

	return strings.Join([]string{
		m.renderTabBar(),
		normalizePane(body, m.width, m.bodyHeight()),
		m.renderStatusLine(),
	}, "\n")
}

func (m appModel) renderTabBar() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg).Padding(0, 1)
	inactive := lipgloss.NewStyle().Foreground(colorChromeMutedFg).Padding(0, 1)

	labels := []string{"1:tasks", "2:files", "3:messages", "4:outlook"}
	if n := m.chat.totalUnread(); n > 0 {
		labels[2] = labels[2] + " (" + strconv.Itoa(n) + ")"
	}
	parts := make([]string, 0, len(labels)+1)
	for i, l := range labels {
		if view(i) == m.view {
			parts = append(parts, active.Render(l))
		} else {
			parts = append(parts, inactive.Render(l))
		}
	}
	if m.view == viewTasks {
		parts = append(parts, inactive.Render("· v:"+m.mode.String()))
	}
	if m.me.Role == model.RoleAdmin && m.clientID != m.me.ID {
		parts = append(parts, inactive.Render("· client:"+m.userName(m.clientID)))
	}
	return truncate(lipgloss.JoinHorizontal(lipgloss.Top, parts...), m.width)
}

func (m appModel) renderStatusLine() string {
	if m.flash != "" {
		st := lipgloss.NewStyle().Foreground(colorErrorFg)
		if !m.flashErr {
			st = lipgloss.NewStyle().Foreground(colorChromeMutedFg)
		}
		return truncate(st.Render(" "+m.flash), m.width)
	}
	help := " q:quit  tab:view  r:refresh"
	if m.me.Role == model.RoleAdmin {
		help += "  C:client"
	}
	return truncate(styleMuted().Render(help), m.width)
}

func (m appModel) userName(id string) string {
	for _, u := range m.users {
		if u.ID == id {
			if u.Name != "" {
				return u.Name
			}
			return u.Email
		}
	}
	return id
}
