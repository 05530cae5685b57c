package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"nova-cli/internal/cache"
	"nova-cli/internal/model"
)

// resubscribeMargin matches the inbox watcher: a subscription counts as live
// while more than two minutes of its lifetime remain.
const resubscribeMargin = 2 * time.Minute

type outlookState struct {
	loaded bool
	sub    *model.Subscription
	email  *model.LatestEmail
	// loginURL is shown after "o" so the user can open it in a browser.
	loginURL string
}

func (m appModel) loadOutlook() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx := cmdCtx()
		sub, err := cache.Get(ctx, deps.Cache, cache.KeySubscription,
			func(ctx context.Context) (*model.Subscription, error) {
				return deps.API.SubscribeStatus(ctx)
			})
		if err != nil {
			return outlookLoadedMsg{err: err}
		}
		email, err := cache.Get(ctx, deps.Cache, cache.KeyLatestEmail,
			func(ctx context.Context) (*model.LatestEmail, error) {
				return deps.API.LatestEmail(ctx)
			})
		// A disconnected account reports no email; that's not an error worth
		// surfacing over the subscription state.
		if err != nil {
			email = nil
		}
		return outlookLoadedMsg{sub: sub, email: email}
	}
}

func (m appModel) ensureSubscription(force bool) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx := cmdCtx()
		if !force {
			sub, err := deps.API.SubscribeStatus(ctx)
			if err != nil {
				return outlookMutatedMsg{err: err}
			}
			if sub != nil && sub.Live(time.Now(), resubscribeMargin) {
				return outlookMutatedMsg{note: "subscription already live"}
			}
		}
		if _, err := deps.API.SubscribeInbox(ctx); err != nil {
			return outlookMutatedMsg{err: err}
		}
		deps.Cache.Invalidate(cache.KeySubscription)
		return outlookMutatedMsg{note: "subscribed"}
	}
}

func (m appModel) disconnectOutlook() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		if err := deps.API.MicrosoftDisconnect(cmdCtx()); err != nil {
			return outlookMutatedMsg{err: err}
		}
		deps.Cache.Invalidate(cache.KeySubscription, cache.KeyLatestEmail)
		return outlookMutatedMsg{note: "disconnected"}
	}
}

func (m appModel) emailToTask() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		if _, err := deps.API.LatestEmailToTask(cmdCtx()); err != nil {
			return outlookMutatedMsg{err: err}
		}
		deps.Cache.Invalidate(cache.KeyTasks, cache.KeyTasksOutlook)
		return outlookMutatedMsg{note: "task created from latest email"}
	}
}

func (m appModel) fetchLoginURL() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		u, err := deps.API.MicrosoftLoginURL(cmdCtx())
		if err != nil {
			return outlookMutatedMsg{err: err}
		}
		return outlookMutatedMsg{note: "login: " + u}
	}
}

func (m appModel) updateOutlook(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case outlookLoadedMsg:
		if msg.err != nil {
			m = m.flashError(msg.err)
			return m, clearFlashLater()
		}
		m.outlook.loaded = true
		m.outlook.sub = msg.sub
		m.outlook.email = msg.email
		return m, nil

	case outlookMutatedMsg:
		if msg.err != nil {
			m = m.flashError(msg.err)
			return m, clearFlashLater()
		}
		if strings.HasPrefix(msg.note, "login: ") {
			m.outlook.loginURL = strings.TrimPrefix(msg.note, "login: ")
			return m, nil
		}
		m = m.flashInfo(msg.note)
		return m, tea.Batch(m.loadOutlook(), m.loadTasks(), clearFlashLater())
	}
	return m, nil
}

func (m appModel) updateOutlookKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "s":
		return m, m.ensureSubscription(false)
	case "S":
		return m, m.ensureSubscription(true)
	case "d":
		return m, m.disconnectOutlook()
	case "t":
		return m, m.emailToTask()
	case "o":
		return m, m.fetchLoginURL()
	}
	return m, nil
}

func (m appModel) renderOutlook() string {
	o := m.outlook
	width := m.width
	bodyW := width - 4
	if bodyW > 100 {
		bodyW = 100
	}

	var sb strings.Builder
	pad := "  "

	sb.WriteString(pad + lipgloss.NewStyle().Bold(true).Render("Outlook") + "\n\n")

	if !o.loaded {
		sb.WriteString(pad + styleMuted().Render("loading…"))
		return sb.String()
	}

	switch {
	case o.sub == nil:
		sb.WriteString(pad + "Not connected.\n")
		sb.WriteString(pad + styleMuted().Render("o: show the Microsoft login URL, then `nova login` with the issued token") + "\n")
	case o.sub.Live(time.Now(), resubscribeMargin):
		sb.WriteString(pad + lipgloss.NewStyle().Foreground(statusColor(model.StatusCompleted)).Render("Inbox subscription live") + "\n")
		sb.WriteString(pad + styleMuted().Render("expires "+o.sub.ExpirationDateTime) + "\n")
	default:
		sb.WriteString(pad + lipgloss.NewStyle().Foreground(colorErrorFg).Render("Subscription expiring, renew with s") + "\n")
	}

	if o.loginURL != "" {
		sb.WriteString("\n" + pad + "Login URL:\n")
		sb.WriteString(pad + truncate(o.loginURL, bodyW) + "\n")
	}

	sb.WriteString("\n")
	if o.email != nil {
		sb.WriteString(pad + lipgloss.NewStyle().Bold(true).Render("Latest email") + "\n")
		sb.WriteString(pad + truncate(o.email.Subject, bodyW) + "\n")
		from := o.email.From
		when := o.email.ReceivedAt
		if when == "" {
			when = o.email.Received
		}
		if from != "" || when != "" {
			sb.WriteString(pad + styleMuted().Render(strings.TrimSpace(from+"  "+when)) + "\n")
		}
		if o.email.BodyText != "" {
			sb.WriteString("\n")
			sb.WriteString(renderMarkdown(o.email.BodyText, bodyW))
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString(pad + styleMuted().Render("no recent email") + "\n")
	}

	sb.WriteString("\n")
	sb.WriteString(pad + styleMuted().Render("s:subscribe  S:force  t:email→task  d:disconnect  o:login url"))
	return sb.String()
}
