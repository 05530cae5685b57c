package tui

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"nova-cli/internal/cache"
	"nova-cli/internal/chat"
	"nova-cli/internal/model"
	"nova-cli/internal/ws"
)

type chatState struct {
	unread map[string]int
	sel    int

	// thread is non-nil while a conversation is open.
	thread *chat.Thread

	conn      *ws.Conn
	connected bool

	vp    viewport.Model
	input textinput.Model

	width  int
	height int
}

func newChatState() chatState {
	input := textinput.New()
	input.Placeholder = "Message…"
	input.CharLimit = 1000

	return chatState{
		unread: map[string]int{},
		vp:     viewport.New(0, 0),
		input:  input,
	}
}

func (c chatState) resize(width, height int) chatState {
	c.width = width
	c.height = height
	convW := width - c.contactsWidth() - 2
	if convW < 10 {
		convW = 10
	}
	vpH := height - 5
	if vpH < 3 {
		vpH = 3
	}
	c.vp.Width = convW
	c.vp.Height = vpH
	c.input.Width = convW - 4
	return c
}

func (c chatState) contactsWidth() int {
	w := c.width / 3
	if w < 20 {
		w = 20
	}
	if w > 36 {
		w = 36
	}
	return w
}

func (c chatState) capturesKeys() bool {
	return c.thread != nil
}

func (c chatState) totalUnread() int {
	n := 0
	for _, v := range c.unread {
		n += v
	}
	return n
}

func (c chatState) updateInputs(msg tea.Msg) (chatState, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if c.thread != nil {
		c.input, cmd = c.input.Update(msg)
		cmds = append(cmds, cmd)
		c.vp, cmd = c.vp.Update(msg)
		cmds = append(cmds, cmd)
	}
	return c, tea.Batch(cmds...)
}

// contacts are all other users; admins see clients and clients see admins,
// which is the full user list minus self in both cases.
func (m appModel) chatContacts() []model.User {
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		if u.ID != m.me.ID {
			out = append(out, u)
		}
	}
	return out
}

// Commands.

func (m appModel) loadUnread() tea.Cmd {
	deps := m.deps
	userID := m.me.ID
	return func() tea.Msg {
		counts, err := cache.Get(cmdCtx(), deps.Cache, cache.Key(cache.KeyUnreadCounts, userID),
			func(ctx context.Context) (map[string]int, error) {
				return deps.API.UnreadCounts(ctx, userID)
			})
		return unreadLoadedMsg{counts: counts, err: err}
	}
}

func (m appModel) loadChatHistory(contactID string) tea.Cmd {
	deps := m.deps
	meID := m.me.ID
	return func() tea.Msg {
		history, err := cache.Get(cmdCtx(), deps.Cache, cache.Key(cache.KeyMessages, meID, contactID),
			func(ctx context.Context) ([]model.Message, error) {
				return deps.API.History(ctx, meID, contactID)
			})
		return chatHistoryMsg{contactID: contactID, history: history, err: err}
	}
}

func (m appModel) markConversationRead(contactID string) tea.Cmd {
	deps := m.deps
	meID := m.me.ID
	return func() tea.Msg {
		// Best effort; unread counts refresh regardless.
		err := deps.API.MarkConversationRead(cmdCtx(), contactID, meID)
		deps.Cache.Invalidate(cache.KeyUnreadCounts)
		counts, cErr := deps.API.UnreadCounts(cmdCtx(), meID)
		if err == nil {
			err = cErr
		}
		return unreadLoadedMsg{counts: counts, err: err}
	}
}

func (m appModel) connectWS() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		token, err := deps.Tokens.Token()
		if err != nil {
			return wsConnectedMsg{err: err}
		}
		conn, err := ws.Dial(cmdCtx(), deps.Config.SocketURL, token)
		return wsConnectedMsg{conn: conn, err: err}
	}
}

func waitForWS(conn *ws.Conn) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-conn.Incoming()
		if !ok {
			return wsClosedMsg{err: conn.Err()}
		}
		return wsIncomingMsg{msg: msg}
	}
}

func reconnectLater() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return wsClosedMsg{err: nil} // handled as a reconnect trigger
	})
}

// Message handling.

func (m appModel) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case unreadLoadedMsg:
		if msg.err != nil {
			m = m.flashError(msg.err)
			return m, clearFlashLater()
		}
		if msg.counts != nil {
			m.chat.unread = msg.counts
		}
		return m, nil

	case chatHistoryMsg:
		if msg.err != nil {
			m = m.flashError(msg.err)
			return m, clearFlashLater()
		}
		if m.chat.thread == nil || m.chat.thread.ContactID != msg.contactID {
			return m, nil
		}
		m.chat.thread.SeedHistory(msg.history)
		m.chat = m.refreshConversation(m.chat)
		return m, m.markConversationRead(msg.contactID)

	case wsConnectedMsg:
		if msg.err != nil {
			m.chat.connected = false
			m = m.flashError(msg.err)
			return m, tea.Batch(clearFlashLater(), reconnectLater())
		}
		m.chat.conn = msg.conn
		m.chat.connected = true
		return m, waitForWS(msg.conn)

	case wsIncomingMsg:
		cmds := []tea.Cmd{}
		if m.chat.conn != nil {
			cmds = append(cmds, waitForWS(m.chat.conn))
		}
		if m.chat.thread != nil && m.chat.thread.Receive(msg.msg) {
			m.chat = m.refreshConversation(m.chat)
			if msg.msg.Sender == m.chat.thread.ContactID {
				cmds = append(cmds, m.markConversationRead(m.chat.thread.ContactID))
			}
		} else if msg.msg.Receiver == m.me.ID {
			m.chat.unread[msg.msg.Sender]++
			m.deps.Cache.Invalidate(cache.KeyMessages, cache.KeyUnreadCounts)
		}
		return m, tea.Batch(cmds...)

	case wsClosedMsg:
		m.chat.connected = false
		m.chat.conn = nil
		return m, m.connectWS()
	}
	return m, nil
}

// Key handling.

func (m appModel) updateChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.chat
	key := msg.String()

	if c.thread == nil {
		contacts := m.chatContacts()
		switch key {
		case "j", "down":
			if c.sel < len(contacts)-1 {
				m.chat.sel++
			}
			return m, nil
		case "k", "up":
			if c.sel > 0 {
				m.chat.sel--
			}
			return m, nil
		case "enter":
			if len(contacts) == 0 {
				return m, nil
			}
			contact := contacts[c.sel]
			m.chat.thread = chat.NewThread(m.me.ID, contact.ID)
			m.chat.input.SetValue("")
			m.chat.input.Focus()
			m.chat = m.chat.resize(m.width, m.bodyHeight())
			return m, m.loadChatHistory(contact.ID)
		}
		return m, nil
	}

	switch key {
	case "esc":
		m.chat.thread = nil
		m.chat.input.Blur()
		return m, nil
	case "enter":
		content := strings.TrimSpace(c.input.Value())
		if content == "" {
			return m, nil
		}
		if c.conn == nil {
			m = m.flashError(errNotConnected{})
			return m, clearFlashLater()
		}
		if err := c.conn.Send(ws.Outgoing{
			Sender:   m.me.ID,
			Receiver: c.thread.ContactID,
			Content:  content,
			Type:     "text",
		}); err != nil {
			m = m.flashError(err)
			return m, clearFlashLater()
		}
		// Optimistic local echo; replaced when the server confirms.
		c.thread.Send(content, time.Now())
		m.chat.input.SetValue("")
		m.chat = m.refreshConversation(m.chat)
		m.deps.Cache.Invalidate(cache.KeyMessages)
		return m, nil
	}

	var cmd tea.Cmd
	m.chat, cmd = m.chat.updateInputs(msg)
	return m, cmd
}

type errNotConnected struct{}

func (errNotConnected) Error() string { return "live channel not connected" }

// refreshConversation re-renders the viewport from the thread entries.
func (m appModel) refreshConversation(c chatState) chatState {
	if c.thread == nil {
		return c
	}
	var sb strings.Builder
	width := c.vp.Width
	if width < 10 {
		width = 10
	}

	selfStyle := lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	otherStyle := lipgloss.NewStyle().Bold(true)

	for _, e := range c.thread.Entries() {
		who := m.userName(e.Message.Sender)
		st := otherStyle
		if e.Message.Sender == m.me.ID {
			who = "you"
			st = selfStyle
		}
		when := ""
		if !e.Message.CreatedAt.IsZero() {
			when = " " + e.Message.CreatedAt.Format("15:04")
		}
		suffix := ""
		if e.State == chat.Pending {
			suffix = styleMuted().Render(" (sending…)")
		}
		sb.WriteString(st.Render(who) + styleMuted().Render(when) + suffix + "\n")
		sb.WriteString(wrapText(e.Message.Content, width) + "\n\n")
	}

	c.vp.SetContent(sb.String())
	c.vp.GotoBottom()
	return c
}

func wrapText(s string, width int) string {
	if width < 4 {
		return s
	}
	var out []string
	for _, line := range strings.Split(s, "\n") {
		for len(line) > width {
			out = append(out, line[:width])
			line = line[width:]
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// Rendering.

func (m appModel) renderChat() string {
	width := m.width
	height := m.bodyHeight()
	c := m.chat

	contactsW := c.contactsWidth()
	if c.width == 0 {
		m.chat = c.resize(width, height)
		c = m.chat
	}
	convW := width - contactsW - 2

	contacts := m.renderContacts(contactsW, height)
	conv := m.renderConversation(convW, height)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		normalizePane(contacts, contactsW, height),
		normalizePane("", 2, height),
		normalizePane(conv, convW, height),
	)
}

func (m appModel) renderContacts(width, height int) string {
	c := m.chat
	var sb strings.Builder
	header := " Contacts"
	if !c.connected {
		header += styleMuted().Render(" (offline)")
	}
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render(header) + "\n\n")

	contacts := m.chatContacts()
	if len(contacts) == 0 {
		sb.WriteString(styleMuted().Render("  nobody to message"))
	}

	badge := lipgloss.NewStyle().Foreground(colorBadgeFg).Background(colorBadgeBg).Padding(0, 1)

	for i, u := range contacts {
		name := u.Name
		if name == "" {
			name = u.Email
		}
		line := truncate(name, width-8)
		marker := "  "
		if c.thread != nil && c.thread.ContactID == u.ID {
			marker = "◂ "
		}
		row := marker + line
		if i == c.sel && c.thread == nil {
			row = lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg).Render("> " + line)
		}
		if n := c.unread[u.ID]; n > 0 {
			row += " " + badge.Render(strconv.Itoa(n))
		}
		sb.WriteString(row + "\n")
	}
	return sb.String()
}

func (m appModel) renderConversation(width, height int) string {
	c := m.chat
	if c.thread == nil {
		return styleMuted().Render("\n  enter: open conversation")
	}

	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render(" "+m.userName(c.thread.ContactID)) + "\n")
	sb.WriteString(c.vp.View() + "\n")
	sb.WriteString(" " + c.input.View() + "\n")
	sb.WriteString(styleMuted().Render(" enter:send  esc:back"))
	return sb.String()
}
