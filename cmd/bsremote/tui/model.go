package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the bubbletea model. It holds no window state itself; that
// lives in App, shared with the collaborators.
type Model struct {
	app  *App
	spin spinner.Model
}

// NewModel builds the model around app.
func NewModel(app *App) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	return Model{app: app, spin: sp}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// Update implements tea.Model. This function is the UI thread: posted
// callbacks from background workers and key-driven dispatches both
// execute here, strictly in arrival order.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case postMsg:
		msg.fn()
		return m, nil

	case tea.WindowSizeMsg:
		m.app.width = msg.Width
		m.app.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	win := m.app.top()
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if win != nil {
			win.moveSelection(-1)
		}

	case "down", "j":
		if win != nil {
			win.moveSelection(1)
		}

	case "esc":
		if win != nil {
			win.MainWindowBack()
			m.app.Ctrl.CloseWindow(win.id)
		}
		if m.app.top() == nil {
			return m, tea.Quit
		}

	case "enter", " ":
		if win != nil {
			if btn := win.selectedButton(); btn != nil {
				m.app.Disp.RunAction(win.id, btn.ID, btn.Action, false)
			}
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	win := m.app.top()
	if win == nil {
		return "no windows\n"
	}
	var body string
	if win.page != nil {
		body = win.page.View(win.sel)
	}
	if win.locked {
		body += "\n" + m.spin.View() + " fetching..."
	}
	if m.app.status != "" {
		body += "\n" + statusStyle.Render(m.app.status)
	}
	return body + "\n"
}
