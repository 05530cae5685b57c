package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// normalizePane pads/clips s to exactly width x height so panes compose
// predictably with lipgloss.JoinHorizontal.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	lines := strings.Split(s, "\n")

	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}

	for i := range lines {
		ln := lines[i]
		// Fast path: avoid StringWidth on extremely long lines. If the raw
		// string is huge it's almost certainly wider than the pane; cut it
		// early so subsequent width computations are bounded.
		if width > 0 && len(ln) > 8192 {
			if width == 1 {
				ln = xansi.Cut(ln, 0, 1)
			} else {
				ln = xansi.Cut(ln, 0, width-1) + "…"
			}
		}

		w := xansi.StringWidth(ln)

		if w > width {
			if width <= 0 {
				ln = ""
			} else if width == 1 {
				ln = xansi.Cut(ln, 0, 1)
			} else {
				ln = xansi.Cut(ln, 0, width-1) + "…"
			}
			w = xansi.StringWidth(ln)
		}
		if w < width {
			ln = ln + strings.Repeat(" ", width-w)
		}
		lines[i] = ln
	}

	return strings.Join(lines, "\n")
}

func modalBodyWidth(screenWidth int) int {
	w := screenWidth - 12
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

// renderModalBox draws a titled modal surface sized to the screen width.
// Borders are avoided inside the box: some terminals show background
// artifacts when nesting bordered components inside a colored modal.
func renderModalBox(screenWidth int, title, content string) string {
	bodyW := modalBodyWidth(screenWidth)

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorSurfaceFg).
		Background(colorControlBg).
		Width(bodyW + 2).
		Padding(0, 1).
		Render(title)

	body := lipgloss.NewStyle().
		Foreground(colorSurfaceFg).
		Background(colorSurfaceBg).
		Width(bodyW + 2).
		Padding(1, 1).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

// placeCentered overlays the modal in the middle of a width x height screen.
func placeCentered(width, height int, modal string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}

// truncate clips s to max visible cells, appending an ellipsis when clipped.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if xansi.StringWidth(s) <= max {
		return s
	}
	if max == 1 {
		return xansi.Cut(s, 0, 1)
	}
	return xansi.Cut(s, 0, max-1) + "…"
}
