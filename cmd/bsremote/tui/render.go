package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/efroemling/ballistica-sub005/internal/controller"
	"github.com/efroemling/ballistica-sub005/internal/protocol"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("15")).
			MarginBottom(1)
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246")).
			MarginTop(1)
	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 2)
	selectedStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1)
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")).
			MarginTop(1)
)

// ButtonRef is a flattened, navigable button of a rendered page.
type ButtonRef struct {
	ID     string
	Label  string
	Action *protocol.Action
}

// RenderedPage is this front end's PreparedPage: the page text broken
// into per-row pieces plus a flattened button list for keyboard
// navigation.
type RenderedPage struct {
	Title   string
	Headers []string    // per row, may be empty
	Rows    [][]int     // per row, indices into Buttons
	Buttons []ButtonRef
}

// Renderer implements controller.Renderer for the terminal front end.
// Layout here is deliberately simple; the controller treats the result
// as opaque either way.
type Renderer struct{}

// Prepare implements controller.Renderer.
func (Renderer) Prepare(page protocol.Page, _ controller.Viewport, _ bool) controller.PreparedPage {
	rp := &RenderedPage{Title: page.Title}
	for _, row := range page.Rows {
		rp.Headers = append(rp.Headers, row.Header)
		var idxs []int
		for _, btn := range row.Buttons {
			idxs = append(idxs, len(rp.Buttons))
			rp.Buttons = append(rp.Buttons, ButtonRef{
				ID:     btn.ID,
				Label:  btn.Label,
				Action: btn.Action,
			})
		}
		rp.Rows = append(rp.Rows, idxs)
	}
	return rp
}

// View renders the page with the given button selected.
func (rp *RenderedPage) View(selected int) string {
	var b strings.Builder
	if rp.Title != "" {
		b.WriteString(titleStyle.Render(rp.Title))
		b.WriteByte('\n')
	}
	for i, idxs := range rp.Rows {
		if rp.Headers[i] != "" {
			b.WriteString(headerStyle.Render(rp.Headers[i]))
			b.WriteByte('\n')
		}
		for _, bi := range idxs {
			btn := rp.Buttons[bi]
			if bi == selected {
				b.WriteString(selectedStyle.Render("> " + btn.Label))
			} else {
				b.WriteString(buttonStyle.Render(btn.Label))
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// IndexOf returns the flattened index of the button with the given id,
// or -1.
func (rp *RenderedPage) IndexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, btn := range rp.Buttons {
		if btn.ID == id {
			return i
		}
	}
	return -1
}
