// Package tui is the terminal front end of the remote-UI client: it
// owns the window stack, implements the controller's window and
// renderer collaborators, and maps key presses to dispatched actions.
// The bubbletea update loop is the UI-owning thread; background results
// re-enter it through ProgramPoster.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/efroemling/ballistica-sub005/internal/controller"
	"github.com/efroemling/ballistica-sub005/internal/dispatch"
	"github.com/efroemling/ballistica-sub005/internal/logging"
	"github.com/efroemling/ballistica-sub005/internal/protocol"
)

// postMsg carries a posted UI callback through the tea message loop.
type postMsg struct {
	fn func()
}

// ProgramPoster adapts a tea.Program into the controller's Poster: the
// program's message queue is the single ordered post-to-UI-thread
// primitive.
type ProgramPoster struct {
	p *tea.Program
}

// NewProgramPoster wraps p.
func NewProgramPoster(p *tea.Program) *ProgramPoster {
	return &ProgramPoster{p: p}
}

// Post implements controller.Poster.
func (pp *ProgramPoster) Post(fn func()) {
	pp.p.Send(postMsg{fn: fn})
}

// App holds the shared mutable front-end state. Everything here is
// owned by the tea goroutine.
type App struct {
	Ctrl *controller.Controller
	Disp *dispatch.Dispatcher

	stack  []*Window
	width  int
	height int
	status string

	log *zap.Logger
}

// NewApp builds an empty app; the controller and dispatcher are wired
// in by the caller before the program runs.
func NewApp() *App {
	return &App{log: logging.Get(logging.CategoryUI)}
}

// OpenRoot creates the first window for req. Called once, via a posted
// callback, after the program starts.
func (a *App) OpenRoot(req *protocol.Request) {
	w := newWindow(a)
	a.stack = append(a.stack, w)
	w.id = a.Ctrl.Create(w, req)
}

// PushWindow implements dispatch.Navigator.
func (a *App) PushWindow(req *protocol.Request, _ string) {
	w := newWindow(a)
	a.stack = append(a.stack, w)
	w.id = a.Ctrl.Create(w, req)
}

// popWindow removes w from the stack; restoring the window beneath is
// the stack's job, not the controller's.
func (a *App) popWindow(w *Window) {
	for i := len(a.stack) - 1; i >= 0; i-- {
		if a.stack[i] == w {
			a.stack = append(a.stack[:i], a.stack[i+1:]...)
			return
		}
	}
}

// top returns the visible window.
func (a *App) top() *Window {
	if len(a.stack) == 0 {
		return nil
	}
	return a.stack[len(a.stack)-1]
}

// =============================================================================
// EFFECT RUNNER
// =============================================================================

// Run implements the effect runner: effects surface on the status line.
// A real client would route these to toasts and audio.
func (a *App) Run(effects []protocol.ClientEffect) {
	for _, fx := range effects {
		switch fx.Kind {
		case protocol.EffectScreenMessage:
			a.status = fx.Message
		case protocol.EffectPlaySound:
			a.status = fmt.Sprintf("♪ %s", fx.Sound)
		case protocol.EffectCounter:
			a.status = fmt.Sprintf("%d → %d", fx.From, fx.To)
		case protocol.EffectDelay:
			// Sequencing delays are meaningless on a status line.
		default:
			a.log.Debug("skipping unknown effect", zap.String("tag", fx.RawTag))
		}
	}
}

// PlayDenialCue implements dispatch.EffectRunner.
func (a *App) PlayDenialCue() { a.status = "(busy)" }

// PlayAckCue implements dispatch.EffectRunner.
func (a *App) PlayAckCue() { a.status = "" }

// HandleLocalAction is the pluggable local-action handler of this
// front end.
func (a *App) HandleLocalAction(action protocol.LocalAction) {
	a.log.Info("local action",
		zap.String("name", action.Name),
		zap.String("window", action.SourceWindow),
		zap.String("widget", action.SourceWidget))
	a.status = "local: " + action.Name
}
