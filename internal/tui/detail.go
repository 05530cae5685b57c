package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"nova-cli/internal/api"
	"nova-cli/internal/model"
	"nova-cli/internal/perm"
)

type detailFocus int

const (
	focusTitle detailFocus = iota
	focusDescription
	focusDue
)

type detailState struct {
	open     bool
	creating bool
	clientID string // create mode: target workspace

	task     model.Task
	comments []model.Comment
	files    []model.File

	editing       bool
	confirmDelete bool
	commenting    bool
	focus         detailFocus

	titleInput   textinput.Model
	descInput    textarea.Model
	dueInput     textinput.Model
	commentInput textinput.Model
}

func newDetailState() detailState {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 200

	desc := textarea.New()
	desc.Placeholder = "Description (markdown)"
	desc.SetHeight(6)

	due := textinput.New()
	due.Placeholder = "YYYY-MM-DD"
	due.CharLimit = 10

	comment := textinput.New()
	comment.Placeholder = "Write a comment…"
	comment.CharLimit = 500

	return detailState{
		titleInput:   title,
		descInput:    desc,
		dueInput:     due,
		commentInput: comment,
	}
}

func openDetail(task model.Task) detailState {
	d := newDetailState()
	d.open = true
	d.task = task
	return d
}

func openDetailCreate(clientID string) detailState {
	d := newDetailState()
	d.open = true
	d.creating = true
	d.editing = true
	d.clientID = clientID
	d.task = model.Task{Status: model.StatusPending, Priority: model.PriorityMedium}
	d.titleInput.Focus()
	return d
}

func openDetailConfirmDelete(task model.Task) detailState {
	d := openDetail(task)
	d.confirmDelete = true
	return d
}

// refreshTask re-syncs the open task from a refetched list; the task may have
// been deleted elsewhere, in which case the pane closes.
func (d detailState) refreshTask(tasks []model.Task) detailState {
	if d.creating {
		return d
	}
	for _, t := range tasks {
		if t.ID == d.task.ID {
			d.task = t
			return d
		}
	}
	return newDetailState()
}

func (d detailState) startEditing() detailState {
	d.editing = true
	d.focus = focusTitle
	d.titleInput.SetValue(d.task.Title)
	d.descInput.SetValue(d.task.Description)
	if d.task.DueDate != nil {
		d.dueInput.SetValue(d.task.DueDate.Format("2006-01-02"))
	} else {
		d.dueInput.SetValue("")
	}
	d.titleInput.Focus()
	d.descInput.Blur()
	d.dueInput.Blur()
	return d
}

func (d detailState) cycleFocus() detailState {
	d.focus = (d.focus + 1) % 3
	d.titleInput.Blur()
	d.descInput.Blur()
	d.dueInput.Blur()
	switch d.focus {
	case focusTitle:
		d.titleInput.Focus()
	case focusDescription:
		d.descInput.Focus()
	case focusDue:
		d.dueInput.Focus()
	}
	return d
}

func (d detailState) updateInputs(msg tea.Msg) (detailState, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if d.editing {
		d.titleInput, cmd = d.titleInput.Update(msg)
		cmds = append(cmds, cmd)
		d.descInput, cmd = d.descInput.Update(msg)
		cmds = append(cmds, cmd)
		d.dueInput, cmd = d.dueInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	if d.commenting {
		d.commentInput, cmd = d.commentInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	return d, tea.Batch(cmds...)
}

func nextStatus(s model.TaskStatus) model.TaskStatus {
	switch s {
	case model.StatusPending:
		return model.StatusInProgress
	case model.StatusInProgress:
		return model.StatusCompleted
	default:
		return model.StatusPending
	}
}

func nextPriority(p model.TaskPriority) model.TaskPriority {
	switch p {
	case model.PriorityLow:
		return model.PriorityMedium
	case model.PriorityMedium:
		return model.PriorityHigh
	default:
		return model.PriorityLow
	}
}

func (m appModel) updateDetailExtras(msg taskExtrasMsg) appModel {
	if !m.detail.open || m.detail.task.ID != msg.taskID {
		return m
	}
	if msg.err != nil {
		return m.flashError(msg.err)
	}
	m.detail.comments = msg.comments
	m.detail.files = msg.files
	return m
}

func (m appModel) updateDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.detail
	key := msg.String()

	if d.confirmDelete {
		switch key {
		case "y", "enter":
			m.detail.confirmDelete = false
			return m, m.deleteTask(d.task.ID)
		case "n", "esc":
			m.detail.confirmDelete = false
			return m, nil
		}
		return m, nil
	}

	if d.commenting {
		switch key {
		case "esc":
			m.detail.commenting = false
			m.detail.commentInput.Blur()
			return m, nil
		case "enter":
			content := strings.TrimSpace(d.commentInput.Value())
			if content == "" {
				return m, nil
			}
			m.detail.commenting = false
			m.detail.commentInput.Blur()
			m.detail.commentInput.SetValue("")
			return m, m.addComment(d.task.ID, content)
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.updateInputs(msg)
		return m, cmd
	}

	if d.editing {
		switch key {
		case "esc":
			if d.creating {
				m.detail = newDetailState()
				return m, nil
			}
			m.detail.editing = false
			return m, nil
		case "tab":
			m.detail = d.cycleFocus()
			return m, nil
		case "ctrl+p":
			m.detail.task.Priority = nextPriority(d.task.Priority)
			return m, nil
		case "ctrl+s":
			return m.submitDetailForm()
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.updateInputs(msg)
		return m, cmd
	}

	switch key {
	case "esc", "q":
		m.detail = newDetailState()
		return m, nil
	case "e":
		if perm.Resolve(m.me.ID, m.me.Role, d.task) != perm.Full {
			m = m.flashError(errPermission{})
			return m, clearFlashLater()
		}
		m.detail = d.startEditing()
		return m, nil
	case "s":
		if perm.Resolve(m.me.ID, m.me.Role, d.task) == perm.None {
			m = m.flashError(errPermission{})
			return m, clearFlashLater()
		}
		status := nextStatus(d.task.Status)
		return m, m.saveTask(d.task.ID, model.TaskPatch{Status: &status})
	case " ":
		if perm.Resolve(m.me.ID, m.me.Role, d.task) == perm.None {
			m = m.flashError(errPermission{})
			return m, clearFlashLater()
		}
		return m, m.completeTask(d.task.ID)
	case "c":
		m.detail.commenting = true
		m.detail.commentInput.Focus()
		return m, nil
	case "x":
		if perm.Resolve(m.me.ID, m.me.Role, d.task) != perm.Full {
			m = m.flashError(errPermission{})
			return m, clearFlashLater()
		}
		m.detail.confirmDelete = true
		return m, nil
	}
	return m, nil
}

// submitDetailForm turns the form into a create call or a minimal patch.
func (m appModel) submitDetailForm() (tea.Model, tea.Cmd) {
	d := m.detail
	title := strings.TrimSpace(d.titleInput.Value())

	if d.creating {
		if title == "" {
			m = m.flashError(errEmptyTitle{})
			return m, clearFlashLater()
		}
		in := api.CreateTaskInput{
			Title:       title,
			Description: d.descInput.Value(),
			Status:      d.task.Status,
			Priority:    d.task.Priority,
			ClientID:    d.clientID,
		}
		if due := strings.TrimSpace(d.dueInput.Value()); due != "" {
			if _, err := time.ParseInLocation("2006-01-02", due, time.Local); err != nil {
				m = m.flashError(err)
				return m, clearFlashLater()
			}
			in.DueDate = due
		}
		m.detail = newDetailState()
		return m, m.createTask(in)
	}

	edits := perm.EditsFrom(d.task)
	if title != "" {
		edits.Title = title
	}
	edits.Description = d.descInput.Value()
	edits.Priority = d.task.Priority
	if due := strings.TrimSpace(d.dueInput.Value()); due != "" {
		parsed, err := time.ParseInLocation("2006-01-02", due, time.Local)
		if err != nil {
			m = m.flashError(err)
			return m, clearFlashLater()
		}
		edits.DueDate = &parsed
	} else {
		edits.DueDate = nil
	}

	patch := perm.DiffPatch(d.task, edits)
	if patch.IsEmpty() {
		m.detail.editing = false
		return m, nil
	}
	clamped := perm.ClampPatch(perm.Resolve(m.me.ID, m.me.Role, d.task), patch)
	if clamped.IsEmpty() {
		m = m.flashError(errPermission{})
		return m, clearFlashLater()
	}
	return m, m.saveTask(d.task.ID, clamped)
}

type errEmptyTitle struct{}

func (errEmptyTitle) Error() string { return "title is required" }

func (m appModel) renderDetail() string {
	width := m.width
	d := m.detail

	bodyW := width - 4
	if bodyW > 100 {
		bodyW = 100
	}
	if bodyW < 20 {
		bodyW = 20
	}

	var sb strings.Builder
	pad := "  "

	if d.confirmDelete {
		body := "Delete task \"" + truncate(d.task.Title, 50) + "\"?\n\ny: delete   n: keep"
		return placeCentered(width, m.bodyHeight(), renderModalBox(width, "Confirm", body))
	}

	if d.editing {
		header := "Edit task"
		if d.creating {
			header = "New task"
		}
		sb.WriteString(pad + lipgloss.NewStyle().Bold(true).Render(header) + "\n\n")
		sb.WriteString(pad + "Title:\n")
		sb.WriteString(pad + d.titleInput.View() + "\n\n")
		sb.WriteString(pad + "Description:\n")
		sb.WriteString(pad + d.descInput.View() + "\n\n")
		sb.WriteString(pad + "Due: " + d.dueInput.View() + "\n")
		sb.WriteString(pad + "Priority: " + string(d.task.Priority) + " (ctrl+p cycles)\n\n")
		sb.WriteString(pad + styleMuted().Render("tab:field  ctrl+s:save  esc:cancel"))
		return sb.String()
	}

	title := lipgloss.NewStyle().Bold(true).Render(d.task.Title)
	sb.WriteString(pad + title + "\n")

	meta := string(d.task.Status)
	if d.task.Priority != "" {
		meta += " · " + string(d.task.Priority)
	}
	if d.task.DueDate != nil {
		meta += " · due " + d.task.DueDate.Format("Jan 2, 2006")
	}
	if d.task.Source == model.SourceOutlook {
		meta += " · from outlook"
		if d.task.SourceFromName != "" {
			meta += " (" + d.task.SourceFromName + ")"
		} else if d.task.SourceFromAddr != "" {
			meta += " (" + d.task.SourceFromAddr + ")"
		}
	}
	sb.WriteString(pad + lipgloss.NewStyle().Foreground(statusColor(d.task.Status)).Render(meta) + "\n")

	if len(d.task.AssignedTo) > 0 {
		names := make([]string, 0, len(d.task.AssignedTo))
		for _, id := range d.task.AssignedTo {
			names = append(names, m.userName(id))
		}
		sb.WriteString(pad + styleMuted().Render("assigned: "+strings.Join(names, ", ")) + "\n")
	}
	sb.WriteString("\n")

	if d.task.Description != "" {
		sb.WriteString(renderMarkdown(d.task.Description, bodyW))
		sb.WriteString("\n\n")
	}

	if len(d.files) > 0 {
		sb.WriteString(pad + lipgloss.NewStyle().Bold(true).Render("Files") + "\n")
		for _, f := range d.files {
			sb.WriteString(pad + "· " + truncate(f.Name, bodyW-4) + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(pad + lipgloss.NewStyle().Bold(true).Render("Comments") + "\n")
	if len(d.comments) == 0 {
		sb.WriteString(pad + styleMuted().Render("none") + "\n")
	}
	for _, c := range d.comments {
		author := c.User.Name
		if author == "" {
			author = m.userName(c.User.ID)
		}
		when := ""
		if !c.CreatedAt.IsZero() {
			when = " · " + c.CreatedAt.Format("Jan 2 15:04")
		}
		sb.WriteString(pad + styleMuted().Render(author+when) + "\n")
		sb.WriteString(pad + truncate(c.Content, bodyW) + "\n")
	}

	if d.commenting {
		sb.WriteString("\n" + pad + d.commentInput.View() + "\n")
		sb.WriteString(pad + styleMuted().Render("enter:post  esc:cancel"))
	} else {
		sb.WriteString("\n" + pad + styleMuted().Render("e:edit  s:status  space:complete  c:comment  x:delete  esc:back"))
	}

	return sb.String()
}
