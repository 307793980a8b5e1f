package tui

import (
	"github.com/efroemling/ballistica-sub005/internal/controller"
	"github.com/efroemling/ballistica-sub005/internal/protocol"
)

// Window is the terminal implementation of the controller's window
// collaborator. All fields are touched from the UI (tea) goroutine
// only.
type Window struct {
	app *App

	id      string
	locked  bool
	req     *protocol.Request
	last    *protocol.Response
	page    *RenderedPage
	sel     int    // selected button index into page.Buttons
	savedID string // widget id snapshotted by SaveSelection
}

func newWindow(app *App) *Window {
	return &Window{app: app, sel: -1}
}

// LockUI implements controller.Window.
func (w *Window) LockUI(string) { w.locked = true }

// UnlockUI implements controller.Window.
func (w *Window) UnlockUI() { w.locked = false }

// Locked implements controller.Window.
func (w *Window) Locked() bool { return w.locked }

// SetLastResponse implements controller.Window.
func (w *Window) SetLastResponse(resp *protocol.Response, _ bool) {
	w.last = resp
}

// InstantiateUI implements controller.Window. Selection carries over to
// a widget with the same id when one exists in the new content.
func (w *Window) InstantiateUI(prepared controller.PreparedPage) {
	page, ok := prepared.(*RenderedPage)
	if !ok {
		return
	}
	w.page = page
	w.sel = -1
	if idx := page.IndexOf(w.savedID); idx >= 0 {
		w.sel = idx
	} else if len(page.Buttons) > 0 {
		w.sel = 0
	}
	w.savedID = ""
}

// MainWindowBack implements controller.Window.
func (w *Window) MainWindowBack() {
	w.app.popWindow(w)
}

// Request implements controller.Window.
func (w *Window) Request() *protocol.Request { return w.req }

// SetRequest implements controller.Window.
func (w *Window) SetRequest(req *protocol.Request) { w.req = req }

// Viewport implements controller.Window.
func (w *Window) Viewport() controller.Viewport {
	return controller.Viewport{Width: w.app.width, Height: w.app.height}
}

// SaveSelection implements controller.SelectionSaver.
func (w *Window) SaveSelection() {
	if w.page != nil && w.sel >= 0 && w.sel < len(w.page.Buttons) {
		w.savedID = w.page.Buttons[w.sel].ID
	}
}

func (w *Window) moveSelection(delta int) {
	if w.page == nil || len(w.page.Buttons) == 0 {
		return
	}
	w.sel += delta
	if w.sel < 0 {
		w.sel = 0
	}
	if w.sel >= len(w.page.Buttons) {
		w.sel = len(w.page.Buttons) - 1
	}
}

func (w *Window) selectedButton() *ButtonRef {
	if w.page == nil || w.sel < 0 || w.sel >= len(w.page.Buttons) {
		return nil
	}
	return &w.page.Buttons[w.sel]
}
