// Package controller orchestrates remote-described UI windows: it
// dispatches page requests to background workers, validates and caches
// the results, drives each window's state machine, and schedules timed
// follow-up actions.
//
// Threading contract: every exported method and every internal state
// mutation runs on the UI thread. Background tasks receive an immutable
// request snapshot plus an opaque window handle; they re-enter through
// the Poster and re-check liveness before touching anything. No locks,
// by construction.
package controller

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/efroemling/ballistica-sub005/internal/fulfill"
	"github.com/efroemling/ballistica-sub005/internal/logging"
	"github.com/efroemling/ballistica-sub005/internal/pagecache"
	"github.com/efroemling/ballistica-sub005/internal/protocol"
)

// MinTimedDelay is the floor applied to requested timed-action delays;
// servers cannot make clients churn faster than this.
const MinTimedDelay = 250 * time.Millisecond

// Submitter submits fire-and-forget work to the background pool.
type Submitter interface {
	Submit(fn func()) error
}

// Poster posts a function to the UI thread (see executor.Poster).
type Poster interface {
	Post(fn func())
}

// EffectRunner executes trust-gated client effects.
type EffectRunner interface {
	Run(effects []protocol.ClientEffect)
}

// LocalActionHandler receives app-specific local actions. It is invoked
// from the UI thread only and any panic it raises is contained here.
type LocalActionHandler func(action protocol.LocalAction)

// RunActionFunc dispatches an action for a window. The dispatch package
// provides the real implementation; it is injected after construction
// to break the controller/dispatcher cycle.
type RunActionFunc func(windowID string, action *protocol.Action, isTimed bool)

// Options wires a Controller.
type Options struct {
	Pipeline *fulfill.Pipeline
	Pool     Submitter
	UI       Poster
	Renderer Renderer
	Effects  EffectRunner
	Local    LocalActionHandler
	Store    *pagecache.Store // optional persistent cache
}

// =============================================================================
// WINDOW REGISTRY
// =============================================================================
//
// Windows are tracked by opaque id plus a generation counter. A
// background task only ever carries (id, gen); delivery looks the pair
// up again on the UI thread. A missing id means the window was closed;
// a stale generation means the window has since issued a newer request.
// Either way the result is dropped without touching state.

type windowEntry struct {
	id       string
	win      Window
	gen      uint64
	state    WindowState
	lastGood *protocol.Response
	timer    *time.Timer
}

type handle struct {
	id  string
	gen uint64
}

// Controller drives all windows of one UI. One instance per UI thread.
type Controller struct {
	pipeline  *fulfill.Pipeline
	pool      Submitter
	ui        Poster
	renderer  Renderer
	effects   EffectRunner
	local     LocalActionHandler
	store     *pagecache.Store
	runAction RunActionFunc

	windows map[string]*windowEntry

	log *zap.Logger
}

// New builds a controller.
func New(opts Options) *Controller {
	return &Controller{
		pipeline: opts.Pipeline,
		pool:     opts.Pool,
		ui:       opts.UI,
		renderer: opts.Renderer,
		effects:  opts.Effects,
		local:    opts.Local,
		store:    opts.Store,
		windows:  make(map[string]*windowEntry),
		log:      logging.Get(logging.CategoryController),
	}
}

// SetActionRunner injects the action dispatcher used for timed firing.
func (c *Controller) SetActionRunner(fn RunActionFunc) {
	c.runAction = fn
}

// Window returns the live window for id.
func (c *Controller) Window(id string) (Window, bool) {
	e, ok := c.windows[id]
	if !ok {
		return nil, false
	}
	return e.win, true
}

// State returns the current state for id.
func (c *Controller) State(id string) (WindowState, bool) {
	e, ok := c.windows[id]
	if !ok {
		return StateIdle, false
	}
	return e.state, true
}

// LastKnownGood returns the last successfully validated response shown
// in this window, for use with Restore after the window is rebuilt.
func (c *Controller) LastKnownGood(id string) *protocol.Response {
	e, ok := c.windows[id]
	if !ok {
		return nil
	}
	return e.lastGood.Clone()
}

// =============================================================================
// STATE MACHINE ENTRY POINTS
// =============================================================================

// Create registers win, locks it, and fetches req into it. Returns the
// window's id.
func (c *Controller) Create(win Window, req *protocol.Request) string {
	e := c.register(win)
	req = req.Clone()
	win.SetRequest(req)
	c.log.Debug("create", zap.String("window", e.id), zap.String("path", req.Path))
	c.beginFetch(e, req, StateFetchingFresh, "create")
	return e.id
}

// Restore re-shows a window from cached state. The window's request
// field must already be set. If cached is nil the persistent store is
// consulted. With a cached response the content renders immediately
// and, for GET, a background refresh is chained. Without one, GET
// refetches; POST (or an unknown method) shows a generic error with no
// network call, because POST requests are never silently replayed.
func (c *Controller) Restore(win Window, cached *protocol.Response) string {
	e := c.register(win)
	req := win.Request().Clone()
	if req == nil {
		c.log.Error("restore without request", zap.String("window", e.id))
		req = protocol.NewRequest("", "", nil)
	}
	if cached == nil && c.store != nil {
		if stored, ok := c.store.Get(req); ok {
			cached = stored
		}
	}

	if cached != nil {
		e.state = StateRedisplaying
		e.gen++
		win.LockUI("restore")
		c.log.Debug("restore from cache", zap.String("window", e.id),
			zap.String("path", req.Path))
		c.deliver(handle{e.id, e.gen}, req, cached.Clone())
		return e.id
	}

	if req.Method == protocol.MethodGet {
		c.log.Debug("restore refetch", zap.String("window", e.id),
			zap.String("path", req.Path))
		c.beginFetch(e, req, StateFetchingFresh, "restore")
		return e.id
	}

	c.log.Warn("restore without cache for non-GET request; not replaying",
		zap.String("window", e.id), zap.String("method", string(req.Method)))
	e.state = StateErrored
	e.gen++
	win.LockUI("restore")
	c.deliver(handle{e.id, e.gen}, req, protocol.ErrorResponse(protocol.ErrorGeneric, ""))
	return e.id
}

// Replace swaps the window's content in place with req's page.
// isRefresh marks controller-initiated re-fetches of already-shown
// content; interactive replaces pass false.
func (c *Controller) Replace(id string, req *protocol.Request, isRefresh bool) {
	e, ok := c.windows[id]
	if !ok {
		c.log.Debug("replace on dead window", zap.String("window", id))
		return
	}
	st, origin := StateFetchingFresh, "replace"
	if isRefresh {
		st, origin = StateRefreshing, "refresh"
	}
	req = req.Clone()
	e.win.SetRequest(req)
	c.log.Debug("replace", zap.String("window", id),
		zap.String("path", req.Path), zap.Bool("refresh", isRefresh))
	c.beginFetch(e, req, st, origin)
}

// CloseWindow forgets a window. In-flight results and pending timers
// addressed to it become no-ops; background work is never cancelled,
// only orphaned.
func (c *Controller) CloseWindow(id string) {
	e, ok := c.windows[id]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(c.windows, id)
	c.log.Debug("window closed", zap.String("window", id))
}

func (c *Controller) register(win Window) *windowEntry {
	e := &windowEntry{id: uuid.NewString(), win: win, state: StateIdle}
	c.windows[e.id] = e
	return e
}

// =============================================================================
// FETCH AND DELIVERY
// =============================================================================

// beginFetch locks the window, bumps its generation, and submits the
// fulfillment pipeline to the background pool. The task captures only
// the request clone and the (id, gen) handle.
func (c *Controller) beginFetch(e *windowEntry, req *protocol.Request, st WindowState, origin string) {
	e.state = st
	e.gen++
	h := handle{e.id, e.gen}
	e.win.LockUI(origin)

	reqCopy := req.Clone()
	err := c.pool.Submit(func() {
		resp := c.pipeline.Run(reqCopy)
		c.ui.Post(func() {
			c.deliver(h, reqCopy, resp)
		})
	})
	if err != nil {
		// Pool shut down under us. Deliver an error locally so the
		// window still unlocks.
		c.log.Error("background submit failed", zap.Error(err))
		c.deliver(h, reqCopy, protocol.ErrorResponse(protocol.ErrorGeneric, ""))
	}
}

// deliver applies a fulfillment result to its window. Runs on the UI
// thread. The liveness check comes first: results for closed or
// superseded windows are dropped wholesale.
func (c *Controller) deliver(h handle, req *protocol.Request, resp *protocol.Response) {
	e, ok := c.windows[h.id]
	if !ok {
		c.log.Debug("dropping delivery for closed window", zap.String("window", h.id))
		return
	}
	if e.gen != h.gen {
		c.log.Debug("dropping stale delivery", zap.String("window", h.id),
			zap.Uint64("got", h.gen), zap.Uint64("want", e.gen))
		return
	}

	prev := e.state
	e.win.UnlockUI()

	success := !resp.IsError()
	e.win.SetLastResponse(resp, success)
	if success {
		e.lastGood = resp.Clone()
		if c.store != nil {
			c.store.Put(req, resp)
		}
	}

	prepared := c.renderer.Prepare(resp.Page, e.win.Viewport(), prev == StateRedisplaying)
	e.win.InstantiateUI(prepared)

	// Trust gate: effects and local actions run only when this content
	// was fetched fresh for an interaction. Redisplayed cache and
	// chained refreshes stay silent.
	if prev == StateFetchingFresh {
		if len(resp.Effects) > 0 && c.effects != nil {
			c.effects.Run(resp.Effects)
		}
		if resp.Local != nil {
			c.runLocalAction(e, *resp.Local)
		}
	}

	if prev == StateErrored {
		// Terminal error page; no follow-up cycles.
		return
	}
	e.state = StateIdle

	if resp.Timed != nil {
		c.scheduleTimed(e, resp.Timed)
	}

	if prev == StateRedisplaying && req.Method == protocol.MethodGet {
		// Cached content is on screen; quietly fetch a fresh copy.
		c.beginFetch(e, req, StateRefreshing, "refresh")
	}
}

func (c *Controller) runLocalAction(e *windowEntry, spec protocol.LocalActionSpec) {
	if c.local == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic in local-action handler",
				zap.String("action", spec.Name), zap.Any("panic", r))
		}
	}()
	c.local(protocol.LocalAction{
		Name:         spec.Name,
		Params:       spec.Params,
		SourceWindow: e.id,
	})
}

// =============================================================================
// TIMED ACTIONS
// =============================================================================

// scheduleTimed arms the window's timed action, clamping the delay to
// MinTimedDelay. Only one timed action is armed per window; a newer
// delivery replaces an older timer.
func (c *Controller) scheduleTimed(e *windowEntry, ta *protocol.TimedAction) {
	if e.timer != nil {
		e.timer.Stop()
	}
	delay := ta.Delay
	if delay < MinTimedDelay {
		delay = MinTimedDelay
	}
	h := handle{e.id, e.gen}
	action := ta.Action.Clone()
	c.log.Debug("arming timed action", zap.String("window", e.id),
		zap.Duration("delay", delay), zap.Stringer("kind", action.Kind))
	e.timer = time.AfterFunc(delay, func() {
		c.ui.Post(func() {
			c.timerFire(h, action)
		})
	})
}

// timerFire runs on the UI thread when a timed action comes due. Any
// mismatch (window gone, superseded, or no longer idle) is a logged
// no-op; the timer never forces a transition.
func (c *Controller) timerFire(h handle, action *protocol.Action) {
	e, ok := c.windows[h.id]
	if !ok || e.gen != h.gen {
		c.log.Debug("timed action skipped; window gone or superseded",
			zap.String("window", h.id))
		return
	}
	if e.state != StateIdle {
		c.log.Debug("timed action skipped; window busy",
			zap.String("window", h.id), zap.Stringer("state", e.state))
		return
	}
	if c.runAction == nil {
		c.log.Warn("timed action with no dispatcher wired",
			zap.String("window", h.id))
		return
	}
	c.runAction(h.id, action, true)
}
