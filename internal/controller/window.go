package controller

import (
	"fmt"

	"github.com/efroemling/ballistica-sub005/internal/protocol"
)

// Viewport carries the scroll/size metrics a window exposes for page
// preparation. The controller never interprets these, it only passes
// them through to the renderer.
type Viewport struct {
	Width   int
	Height  int
	ScrollY float64
}

// PreparedPage is the opaque output of the layout engine.
type PreparedPage any

// Renderer bakes a Page into a positioned, drawable form. The layout
// engine itself lives outside this package; the controller treats its
// output as opaque. immediate requests a non-animated presentation
// (used when redisplaying cached state).
type Renderer interface {
	Prepare(page protocol.Page, vp Viewport, immediate bool) PreparedPage
}

// Window is the UI collaborator the controller drives. All methods are
// called from the UI thread only.
type Window interface {
	// LockUI marks the window busy so interactive input is refused
	// while a fulfillment is in flight. origin names the caller for
	// diagnostics.
	LockUI(origin string)
	// UnlockUI clears the busy flag.
	UnlockUI()
	// Locked reports the busy flag.
	Locked() bool

	// SetLastResponse records the response that produced the current
	// content; success is false for synthesized error responses.
	SetLastResponse(resp *protocol.Response, success bool)

	// InstantiateUI replaces the window's visible content.
	InstantiateUI(prepared PreparedPage)

	// MainWindowBack pops this window from the navigation stack.
	MainWindowBack()

	// Request and SetRequest expose the window's mutable current
	// request.
	Request() *protocol.Request
	SetRequest(req *protocol.Request)

	// Viewport returns current scroll/size metrics.
	Viewport() Viewport
}

// SelectionSaver is optionally implemented by windows that can snapshot
// transient UI-selection state (focus, scroll) so identical widget ids
// keep their selection across an in-place re-render.
type SelectionSaver interface {
	SaveSelection()
}

// WindowState is the controller state of one window. Exactly one state
// holds at a time.
type WindowState int

const (
	// StateIdle - content shown, nothing in flight.
	StateIdle WindowState = iota
	// StateFetchingFresh - fetching in response to user interaction.
	StateFetchingFresh
	// StateRedisplaying - showing cached content from a restore.
	StateRedisplaying
	// StateRefreshing - background re-fetch of already-shown content.
	StateRefreshing
	// StateErrored - showing a terminal error page.
	StateErrored
)

// String returns the state name.
func (s WindowState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetchingFresh:
		return "fetching_fresh_request"
	case StateRedisplaying:
		return "redisplaying_old_state"
	case StateRefreshing:
		return "refreshing"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("invalid(%d)", int(s))
	}
}
