package tui

import (
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"nova-cli/internal/model"
	"nova-cli/internal/taskview"
)

// timelineState renders one row per task as a horizontal bar spanning its
// creation-to-due window, over a shared day axis.
type timelineState struct {
	cards []taskview.Card
	sel   int
	// offsetDays scrolls the visible window relative to the earliest span.
	offsetDays int
}

func (t timelineState) rebuild(tasks []model.Task) timelineState {
	now := time.Now()
	cards := make([]taskview.Card, 0, len(tasks))
	for _, task := range tasks {
		cards = append(cards, taskview.CardOf(task, now))
	}
	sort.SliceStable(cards, func(i, j int) bool {
		if !cards[i].Span.Start.Equal(cards[j].Span.Start) {
			return cards[i].Span.Start.Before(cards[j].Span.Start)
		}
		return cards[i].Task.Title < cards[j].Task.Title
	})
	t.cards = cards
	if t.sel >= len(cards) {
		t.sel = len(cards) - 1
	}
	if t.sel < 0 {
		t.sel = 0
	}
	return t
}

func (t timelineState) selected() (taskview.Card, bool) {
	if len(t.cards) == 0 || t.sel < 0 || t.sel >= len(t.cards) {
		return taskview.Card{}, false
	}
	return t.cards[t.sel], true
}

// axisStart is the first day of the chart: earliest span start plus the
// scroll offset.
func (t timelineState) axisStart() (time.Time, bool) {
	if len(t.cards) == 0 {
		return time.Time{}, false
	}
	start := t.cards[0].Span.Start
	for _, c := range t.cards[1:] {
		if c.Span.Start.Before(start) {
			start = c.Span.Start
		}
	}
	return start.AddDate(0, 0, t.offsetDays), true
}

func (m appModel) updateTimelineKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.tl.sel < len(m.tl.cards)-1 {
			m.tl.sel++
		}
		return m, nil
	case "k", "up":
		if m.tl.sel > 0 {
			m.tl.sel--
		}
		return m, nil
	case "h", "left":
		m.tl.offsetDays--
		return m, nil
	case "l", "right":
		m.tl.offsetDays++
		return m, nil
	case "0":
		m.tl.offsetDays = 0
		return m, nil
	case "enter":
		if card, ok := m.tl.selected(); ok {
			m.detail = openDetail(card.Task)
			return m, m.loadTaskExtras(card.Task.ID)
		}
		return m, nil
	}
	return m, nil
}

func (m appModel) renderTimeline() string {
	width := m.width
	height := m.bodyHeight()
	t := m.tl

	if len(t.cards) == 0 {
		return normalizePane(styleMuted().Render("  no tasks"), width, height)
	}

	labelW := width / 3
	if labelW > 32 {
		labelW = 32
	}
	if labelW < 10 {
		labelW = 10
	}
	chartW := width - labelW - 1
	if chartW < 7 {
		chartW = 7
	}
	dayW := 2
	days := chartW / dayW

	start, _ := t.axisStart()

	var sb strings.Builder

	// Axis header: tick marks on Mondays and the 1st.
	var axis strings.Builder
	axis.WriteString(strings.Repeat(" ", labelW+1))
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		switch {
		case d.Day() == 1:
			axis.WriteString(padCell(d.Format("Jan"), dayW))
		case d.Weekday() == time.Monday:
			axis.WriteString(padCell(strconv.Itoa(d.Day()), dayW))
		default:
			axis.WriteString(strings.Repeat(" ", dayW))
		}
	}
	sb.WriteString(styleMuted().Render(axis.String()))
	sb.WriteString("\n")

	now := time.Now()
	for i, card := range t.cards {
		selected := i == t.sel

		label := truncate(card.Task.Title, labelW)
		labelStyle := lipgloss.NewStyle()
		if selected {
			labelStyle = labelStyle.Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg)
		}
		sb.WriteString(labelStyle.Render(padCell(label, labelW)))
		sb.WriteString(" ")

		barStyle := lipgloss.NewStyle().Foreground(statusColor(card.Status))
		var row strings.Builder
		for d := 0; d < days; d++ {
			day := start.AddDate(0, 0, d)
			switch {
			case card.Span.Contains(day):
				cell := "██"
				if sameCalendarDay(day, now) {
					cell = "▓▓"
				}
				row.WriteString(barStyle.Render(cell))
			case sameCalendarDay(day, now):
				row.WriteString(styleMuted().Render("┆ "))
			default:
				row.WriteString("  ")
			}
		}
		sb.WriteString(row.String())
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(styleMuted().Render(" j/k:task  h/l:scroll  0:reset  enter:open"))
	return sb.String()
}
