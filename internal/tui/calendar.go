package tui

import (
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"nova-cli/internal/model"
	"nova-cli/internal/taskview"
)

// calendarState is the month grid. Tasks appear on every day their span
// covers (creation through due date).
type calendarState struct {
	month time.Time // first day of the rendered month
	day   time.Time // selected day
	// taskSel cycles through the selected day's tasks.
	taskSel int
}

func newCalendarState(now time.Time) calendarState {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return calendarState{
		month: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
		day:   day,
	}
}

func (c calendarState) shiftDay(days int) calendarState {
	c.day = c.day.AddDate(0, 0, days)
	c.month = time.Date(c.day.Year(), c.day.Month(), 1, 0, 0, 0, 0, c.day.Location())
	c.taskSel = 0
	return c
}

func (c calendarState) shiftMonth(months int) calendarState {
	c.month = c.month.AddDate(0, months, 0)
	c.day = c.month
	c.taskSel = 0
	return c
}

// tasksOn collects tasks whose span contains the given day.
func tasksOn(tasks []model.Task, day time.Time, now time.Time) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if taskview.SpanOf(t, now).Contains(day) {
			out = append(out, t)
		}
	}
	return out
}

func (m appModel) updateCalendarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h", "left":
		m.cal = m.cal.shiftDay(-1)
		return m, nil
	case "l", "right":
		m.cal = m.cal.shiftDay(1)
		return m, nil
	case "j", "down":
		m.cal = m.cal.shiftDay(7)
		return m, nil
	case "k", "up":
		m.cal = m.cal.shiftDay(-7)
		return m, nil
	case "[":
		m.cal = m.cal.shiftMonth(-1)
		return m, nil
	case "]":
		m.cal = m.cal.shiftMonth(1)
		return m, nil
	case "t":
		m.cal = newCalendarState(time.Now())
		return m, nil
	case "J":
		m.cal.taskSel++
		return m, nil
	case "K":
		if m.cal.taskSel > 0 {
			m.cal.taskSel--
		}
		return m, nil
	case "enter":
		day := tasksOn(m.tasks, m.cal.day, time.Now())
		if len(day) == 0 {
			return m, nil
		}
		sel := m.cal.taskSel % len(day)
		m.detail = openDetail(day[sel])
		return m, m.loadTaskExtras(day[sel].ID)
	}
	return m, nil
}

func (m appModel) renderCalendar() string {
	width := m.width
	height := m.bodyHeight()
	now := time.Now()

	// Side pane lists the selected day's tasks.
	sideW := width / 3
	if sideW > 44 {
		sideW = 44
	}
	gridW := width - sideW - 2
	if gridW < 28 {
		gridW = width
		sideW = 0
	}

	grid := m.renderMonthGrid(gridW, height, now)
	if sideW == 0 {
		return grid
	}
	side := m.renderDayPane(sideW, height, now)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		normalizePane(grid, gridW, height),
		normalizePane("", 2, height),
		normalizePane(side, sideW, height),
	)
}

func (m appModel) renderMonthGrid(width, height int, now time.Time) string {
	c := m.cal
	cellW := width / 7
	if cellW < 4 {
		cellW = 4
	}

	var sb strings.Builder
	title := lipgloss.NewStyle().Bold(true).Render(c.month.Format("January 2006"))
	sb.WriteString(" " + title + "\n\n")

	dayHeader := styleMuted()
	for _, d := range []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"} {
		sb.WriteString(dayHeader.Render(padCell(d, cellW)))
	}
	sb.WriteString("\n")

	// Monday-first offset of the month's first day.
	first := c.month
	offset := (int(first.Weekday()) + 6) % 7
	day := first.AddDate(0, 0, -offset)

	selStyle := lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg)
	otherMonth := styleMuted()
	todayStyle := lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	for week := 0; week < 6; week++ {
		var datesRow, marksRow strings.Builder
		for i := 0; i < 7; i++ {
			label := padCell(strconv.Itoa(day.Day()), cellW)
			count := len(tasksOn(m.tasks, day, now))

			mark := ""
			if count > 0 {
				dots := count
				if dots > cellW-1 {
					dots = cellW - 1
				}
				mark = strings.Repeat("•", dots)
			}
			markCell := padCell(mark, cellW)

			switch {
			case sameCalendarDay(day, c.day):
				datesRow.WriteString(selStyle.Render(label))
				marksRow.WriteString(selStyle.Render(markCell))
			case day.Month() != c.month.Month():
				datesRow.WriteString(otherMonth.Render(label))
				marksRow.WriteString(otherMonth.Render(markCell))
			case sameCalendarDay(day, now):
				datesRow.WriteString(todayStyle.Render(label))
				marksRow.WriteString(padCellStyled(mark, cellW))
			default:
				datesRow.WriteString(label)
				marksRow.WriteString(padCellStyled(mark, cellW))
			}
			day = day.AddDate(0, 0, 1)
		}
		sb.WriteString(datesRow.String())
		sb.WriteString("\n")
		sb.WriteString(marksRow.String())
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m appModel) renderDayPane(width, height int, now time.Time) string {
	c := m.cal
	day := tasksOn(m.tasks, c.day, now)

	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render(c.day.Format("Mon Jan 2")))
	sb.WriteString("\n\n")

	if len(day) == 0 {
		sb.WriteString(styleMuted().Render("no tasks"))
		return sb.String()
	}

	sel := c.taskSel % len(day)
	for i, t := range day {
		marker := "  "
		line := truncate(t.Title, width-4)
		st := lipgloss.NewStyle().Foreground(statusColor(t.Status))
		if i == sel {
			marker = "> "
			st = st.Bold(true)
		}
		sb.WriteString(marker + st.Render(line) + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString(styleMuted().Render("J/K:task  enter:open"))
	return sb.String()
}

func padCell(s string, w int) string {
	sw := xansi.StringWidth(s)
	if sw >= w {
		return xansi.Cut(s, 0, w)
	}
	return s + strings.Repeat(" ", w-sw)
}

func padCellStyled(mark string, w int) string {
	dots := strings.Count(mark, "•")
	pad := w - dots
	if pad < 0 {
		pad = 0
	}
	return lipgloss.NewStyle().Foreground(colorAccent).Render(mark) + strings.Repeat(" ", pad)
}

func sameCalendarDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
