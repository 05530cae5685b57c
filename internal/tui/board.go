package tui

import (
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"nova-cli/internal/model"
	"nova-cli/internal/perm"
	"nova-cli/internal/taskview"
)

// boardSelection tracks the focused card. TaskID is preferred over indices so
// focus survives re-sorts and status moves.
type boardSelection struct {
	Col    int
	Row    int
	TaskID string
}

type boardCol struct {
	status model.TaskStatus
	label  string
	cards  []taskview.Card
}

type boardState struct {
	cols []boardCol
	sel  boardSelection
}

var boardColumns = []struct {
	status model.TaskStatus
	label  string
}{
	{model.StatusPending, "Pending"},
	{model.StatusInProgress, "In progress"},
	{model.StatusCompleted, "Completed"},
}

func (b boardState) rebuild(tasks []model.Task) boardState {
	buckets := taskview.Partition(tasks)
	now := time.Now()

	cards := func(ts []model.Task) []taskview.Card {
		out := make([]taskview.Card, 0, len(ts))
		for _, t := range ts {
			out = append(out, taskview.CardOf(t, now))
		}
		return out
	}

	b.cols = []boardCol{
		{status: model.StatusPending, label: "Pending", cards: cards(buckets.Pending)},
		{status: model.StatusInProgress, label: "In progress", cards: cards(buckets.InProgress)},
		{status: model.StatusCompleted, label: "Completed", cards: cards(buckets.Completed)},
	}
	b.sel = b.clamp(b.sel)
	return b
}

func (b boardState) indexOfTaskID(id string) (int, int, bool) {
	if id == "" {
		return 0, 0, false
	}
	for ci := range b.cols {
		for ri := range b.cols[ci].cards {
			if b.cols[ci].cards[ri].Task.ID == id {
				return ci, ri, true
			}
		}
	}
	return 0, 0, false
}

func (b boardState) clamp(sel boardSelection) boardSelection {
	if len(b.cols) == 0 {
		return boardSelection{Col: 0, Row: -1}
	}

	if ci, ri, ok := b.indexOfTaskID(sel.TaskID); ok {
		sel.Col = ci
		sel.Row = ri
	} else {
		sel.TaskID = ""
	}

	if sel.Col < 0 {
		sel.Col = 0
	}
	if sel.Col >= len(b.cols) {
		sel.Col = len(b.cols) - 1
	}

	n := len(b.cols[sel.Col].cards)
	if n == 0 {
		sel.Row = -1
		return sel
	}
	if sel.Row < 0 {
		sel.Row = 0
	}
	if sel.Row >= n {
		sel.Row = n - 1
	}
	sel.TaskID = b.cols[sel.Col].cards[sel.Row].Task.ID
	return sel
}

func (b boardState) selected() (taskview.Card, bool) {
	sel := b.clamp(b.sel)
	if sel.Row < 0 || sel.Col >= len(b.cols) {
		return taskview.Card{}, false
	}
	return b.cols[sel.Col].cards[sel.Row], true
}

func (b boardState) move(dcol, drow int) boardState {
	sel := b.clamp(b.sel)
	if dcol != 0 {
		sel.Col += dcol
		sel.TaskID = "" // re-anchor in the new column
		sel.Row = 0
	}
	if drow != 0 {
		sel.Row += drow
		sel.TaskID = ""
	}
	b.sel = b.clamp(sel)
	return b
}

// shiftStatus is the status one column to the left/right of s, or "" at the
// board edge.
func shiftStatus(s model.TaskStatus, delta int) model.TaskStatus {
	for i, c := range boardColumns {
		if c.status == s {
			j := i + delta
			if j < 0 || j >= len(boardColumns) {
				return ""
			}
			return boardColumns[j].status
		}
	}
	// Unknown statuses render in the pending column; treat them as pending.
	if delta > 0 {
		return boardColumns[1].status
	}
	return ""
}

func (m appModel) updateTasksKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "v":
		m.mode = (m.mode + 1) % 3
		m.saveUIState()
		return m, nil
	case "n":
		m.detail = openDetailCreate(m.clientID)
		return m, nil
	}

	switch m.mode {
	case modeKanban:
		return m.updateBoardKey(msg)
	case modeCalendar:
		return m.updateCalendarKey(msg)
	case modeTimeline:
		return m.updateTimelineKey(msg)
	}
	return m, nil
}

func (m appModel) updateBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h", "left":
		m.board = m.board.move(-1, 0)
		return m, nil
	case "l", "right":
		m.board = m.board.move(1, 0)
		return m, nil
	case "j", "down":
		m.board = m.board.move(0, 1)
		return m, nil
	case "k", "up":
		m.board = m.board.move(0, -1)
		return m, nil
	case "H", "shift+left":
		return m.moveSelectedCard(-1)
	case "L", "shift+right":
		return m.moveSelectedCard(1)
	case " ":
		if card, ok := m.board.selected(); ok {
			if perm.Resolve(m.me.ID, m.me.Role, card.Task) == perm.None {
				m = m.flashError(errPermission{})
				return m, clearFlashLater()
			}
			return m, m.completeTask(card.Task.ID)
		}
		return m, nil
	case "x":
		if card, ok := m.board.selected(); ok {
			if perm.Resolve(m.me.ID, m.me.Role, card.Task) != perm.Full {
				m = m.flashError(errPermission{})
				return m, clearFlashLater()
			}
			m.detail = openDetailConfirmDelete(card.Task)
			return m, nil
		}
		return m, nil
	case "enter":
		if card, ok := m.board.selected(); ok {
			m.detail = openDetail(card.Task)
			return m, m.loadTaskExtras(card.Task.ID)
		}
		return m, nil
	}
	return m, nil
}

// moveSelectedCard changes the focused task's status by one column. The
// mutation goes through the backend; the board re-renders from the refetched
// list rather than moving the card optimistically.
func (m appModel) moveSelectedCard(delta int) (tea.Model, tea.Cmd) {
	card, ok := m.board.selected()
	if !ok {
		return m, nil
	}
	target := shiftStatus(card.Status, delta)
	if target == "" {
		return m, nil
	}
	if perm.Resolve(m.me.ID, m.me.Role, card.Task) == perm.None {
		m = m.flashError(errPermission{})
		return m, clearFlashLater()
	}
	status := target
	return m, m.saveTask(card.Task.ID, model.TaskPatch{Status: &status})
}

type errPermission struct{}

func (errPermission) Error() string { return "permission denied" }

func (m appModel) renderTasks() string {
	switch m.mode {
	case modeCalendar:
		return m.renderCalendar()
	case modeTimeline:
		return m.renderTimeline()
	}
	return m.renderBoard()
}

func (m appModel) renderBoard() string {
	width := m.width
	height := m.bodyHeight()
	b := m.board
	n := len(b.cols)
	if n == 0 {
		return normalizePane(styleMuted().Render("  no tasks"), width, height)
	}
	sel := b.clamp(b.sel)

	gap := 2
	avail := width - gap*(n-1)
	if avail < n {
		avail = n
	}
	colW := avail / n
	if colW < 12 {
		colW = 12
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1).Width(colW)
	muted := styleMuted()

	cols := make([]string, 0, n)
	for ci, col := range b.cols {
		var sb strings.Builder

		header := headerStyle.Foreground(statusColor(col.status)).
			Render(col.label + " (" + strconv.Itoa(len(col.cards)) + ")")
		sb.WriteString(header)
		sb.WriteString("\n\n")

		if len(col.cards) == 0 {
			sb.WriteString(muted.Render("  –"))
		}
		for ri, card := range col.cards {
			selected := ci == sel.Col && ri == sel.Row
			sb.WriteString(renderBoardCard(card, colW, selected))
			sb.WriteString("\n")
		}
		cols = append(cols, normalizePane(sb.String(), colW, height))
	}

	sep := strings.Repeat(" ", gap)
	joined := make([]string, 0, 2*n-1)
	for i, c := range cols {
		if i > 0 {
			joined = append(joined, normalizePane(sep, gap, height))
		}
		joined = append(joined, c)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, joined...)
}

func renderBoardCard(card taskview.Card, width int, selected bool) string {
	border := lipgloss.NormalBorder()
	borderColor := colorCardBorder
	if selected {
		borderColor = colorSelectedBorder
	}

	innerW := width - 4 // border + padding
	if innerW < 4 {
		innerW = 4
	}

	title := truncate(card.Task.Title, innerW)
	meta := ""
	if card.Task.Priority != "" {
		meta = string(card.Task.Priority)
	}
	if card.Task.DueDate != nil {
		if meta != "" {
			meta += " · "
		}
		meta += card.Task.DueDate.Format("Jan 2")
	}
	if card.Task.Source == model.SourceOutlook {
		if meta != "" {
			meta += " · "
		}
		meta += "✉"
	}

	body := title
	if meta != "" {
		body += "\n" + styleMuted().Render(truncate(meta, innerW))
	}

	st := lipgloss.NewStyle().
		Border(border).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(width - 2)
	if selected {
		st = st.Bold(true)
	}
	return st.Render(body)
}

// boardCardCount is used by tests to sanity check the rendered column totals.
func (b boardState) cardCount() int {
	n := 0
	for _, c := range b.cols {
		n += len(c.cards)
	}
	return n
}
