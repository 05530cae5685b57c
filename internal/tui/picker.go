package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"nova-cli/internal/model"
)

// pickerState is the admin-only client switcher: pick whose workspace the
// tasks and files views show.
type pickerState struct {
	open    bool
	clients []model.User
	sel     int
}

func openClientPicker(users []model.User, currentID string) pickerState {
	p := pickerState{open: true}
	for _, u := range users {
		if u.Role != model.RoleClient {
			continue
		}
		p.clients = append(p.clients, u)
		if u.ID == currentID {
			p.sel = len(p.clients) - 1
		}
	}
	return p
}

func (m appModel) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "C":
		m.picker = pickerState{}
		return m, nil
	case "j", "down":
		if m.picker.sel < len(m.picker.clients)-1 {
			m.picker.sel++
		}
		return m, nil
	case "k", "up":
		if m.picker.sel > 0 {
			m.picker.sel--
		}
		return m, nil
	case "m":
		// Back to the admin's own workspace.
		m.picker = pickerState{}
		m.clientID = m.me.ID
		m.saveUIState()
		return m, tea.Batch(m.loadTasks(), m.loadFolders())
	case "enter":
		if len(m.picker.clients) == 0 {
			m.picker = pickerState{}
			return m, nil
		}
		m.clientID = m.picker.clients[m.picker.sel].ID
		m.picker = pickerState{}
		m.saveUIState()
		return m, tea.Batch(m.loadTasks(), m.loadFolders())
	}
	return m, nil
}

func (p pickerState) render(screenWidth int) string {
	bodyW := modalBodyWidth(screenWidth)

	var sb strings.Builder
	if len(p.clients) == 0 {
		sb.WriteString(styleMuted().Render("no client accounts"))
	}
	for i, u := range p.clients {
		name := u.Name
		if name == "" {
			name = u.Email
		}
		if u.Company != "" {
			name += " · " + u.Company
		}
		line := truncate(name, bodyW-2)
		if i == p.sel {
			sb.WriteString(lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg).Render("> " + line))
		} else {
			sb.WriteString("  " + line)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(styleMuted().Render("enter:select  m:my workspace  esc:cancel"))

	return renderModalBox(screenWidth, "Switch client", sb.String())
}
