package controller_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efroemling/ballistica-sub005/internal/controller"
	"github.com/efroemling/ballistica-sub005/internal/executor"
	"github.com/efroemling/ballistica-sub005/internal/fulfill"
	"github.com/efroemling/ballistica-sub005/internal/pagecache"
	"github.com/efroemling/ballistica-sub005/internal/protocol"
)

// =============================================================================
// FAKES
// =============================================================================

type preparedRecord struct {
	page      protocol.Page
	immediate bool
	at        time.Time
}

type fakeRenderer struct{}

func (fakeRenderer) Prepare(page protocol.Page, _ controller.Viewport, immediate bool) controller.PreparedPage {
	return &preparedRecord{page: page, immediate: immediate, at: time.Now()}
}

// fakeWindow records every collaborator call. It is only ever touched
// from the UI loop goroutine; tests read it via onUI.
type fakeWindow struct {
	locked      bool
	lockCount   int
	unlockCount int
	req         *protocol.Request
	last        *protocol.Response
	lastSuccess bool
	shown       []*preparedRecord
	backCount   int
}

func (w *fakeWindow) LockUI(string) { w.locked = true; w.lockCount++ }
func (w *fakeWindow) UnlockUI()     { w.locked = false; w.unlockCount++ }
func (w *fakeWindow) Locked() bool  { return w.locked }
func (w *fakeWindow) SetLastResponse(resp *protocol.Response, success bool) {
	w.last, w.lastSuccess = resp, success
}
func (w *fakeWindow) InstantiateUI(p controller.PreparedPage) {
	w.shown = append(w.shown, p.(*preparedRecord))
}
func (w *fakeWindow) MainWindowBack()                  { w.backCount++ }
func (w *fakeWindow) Request() *protocol.Request       { return w.req }
func (w *fakeWindow) SetRequest(req *protocol.Request) { w.req = req }
func (w *fakeWindow) Viewport() controller.Viewport {
	return controller.Viewport{Width: 80, Height: 24}
}

type fakeEffects struct {
	runs [][]protocol.ClientEffect
}

func (f *fakeEffects) Run(effects []protocol.ClientEffect) {
	f.runs = append(f.runs, effects)
}

// =============================================================================
// FIXTURE
// =============================================================================

type fixture struct {
	t    *testing.T
	pool *executor.Pool
	loop *executor.Loop
	ctrl *controller.Controller
	fx   *fakeEffects

	mu     sync.Mutex
	locals []protocol.LocalAction
}

func newFixture(t *testing.T, site fulfill.LocalFunc, store *pagecache.Store) *fixture {
	t.Helper()
	f := &fixture{
		t:    t,
		pool: executor.NewPool(2, 32),
		loop: executor.NewLoop(),
		fx:   &fakeEffects{},
	}
	t.Cleanup(func() {
		f.pool.Stop()
		f.loop.Stop()
	})
	f.ctrl = controller.New(controller.Options{
		Pipeline: &fulfill.Pipeline{
			F:    fulfill.NewLocalFulfiller(site),
			Gate: fulfill.NewGate(100),
		},
		Pool:     f.pool,
		UI:       f.loop,
		Renderer: fakeRenderer{},
		Effects:  f.fx,
		Local: func(a protocol.LocalAction) {
			f.mu.Lock()
			f.locals = append(f.locals, a)
			f.mu.Unlock()
		},
		Store: store,
	})
	return f
}

// onUI runs fn on the UI loop and waits for it.
func (f *fixture) onUI(fn func()) {
	f.loop.Post(fn)
	f.loop.Sync()
}

// waitIdle waits until the window leaves its in-flight state.
func (f *fixture) waitIdle(id string) {
	f.t.Helper()
	require.Eventually(f.t, func() bool {
		var st controller.WindowState
		var ok bool
		f.onUI(func() { st, ok = f.ctrl.State(id) })
		return ok && (st == controller.StateIdle || st == controller.StateErrored)
	}, 5*time.Second, 5*time.Millisecond)
}

func simplePage(title string) *protocol.Response {
	return &protocol.Response{
		Tag: protocol.TagResponsePage,
		Page: protocol.Page{
			Title: title,
			Rows:  []protocol.Row{{Buttons: []protocol.Button{{ID: "ok", Label: "OK"}}}},
		},
	}
}

func getReq(path string) *protocol.Request {
	return protocol.NewRequest(path, protocol.MethodGet, nil)
}

// =============================================================================
// TESTS
// =============================================================================

func TestCreateDelivers(t *testing.T) {
	f := newFixture(t, func(req *protocol.Request) (*protocol.Response, error) {
		resp := simplePage("hello " + req.Path)
		resp.Effects = []protocol.ClientEffect{protocol.PlaySound("chime")}
		resp.Local = &protocol.LocalActionSpec{Name: "arrived"}
		return resp, nil
	}, nil)

	win := &fakeWindow{}
	var id string
	f.onUI(func() { id = f.ctrl.Create(win, getReq("/home")) })
	f.waitIdle(id)

	f.onUI(func() {
		// Locked during fetch, unlocked exactly once on delivery.
		assert.Equal(t, 1, win.lockCount)
		assert.Equal(t, 1, win.unlockCount)
		assert.False(t, win.locked)

		require.Len(t, win.shown, 1)
		assert.Equal(t, "hello /home", win.shown[0].page.Title)
		assert.False(t, win.shown[0].immediate)
		assert.True(t, win.lastSuccess)

		// Fresh interactive fetch: effects and local action ran.
		require.Len(t, f.fx.runs, 1)
		require.Len(t, f.locals, 1)
		assert.Equal(t, "arrived", f.locals[0].Name)
		assert.Equal(t, id, f.locals[0].SourceWindow)
	})
}

func TestDeliveryOfErrorStillUnlocks(t *testing.T) {
	f := newFixture(t, func(req *protocol.Request) (*protocol.Response, error) {
		panic("page bug")
	}, nil)

	win := &fakeWindow{}
	var id string
	f.onUI(func() { id = f.ctrl.Create(win, getReq("/boom")) })
	f.waitIdle(id)

	f.onUI(func() {
		assert.Equal(t, 1, win.unlockCount)
		assert.False(t, win.locked)
		require.NotNil(t, win.last)
		assert.Equal(t, protocol.ErrorGeneric, win.last.Err)
		assert.False(t, win.lastSuccess)
		// Error pages still render; the window is never stuck empty.
		require.Len(t, win.shown, 1)
	})
}

func TestRestoreWithCachedGet(t *testing.T) {
	var mu sync.Mutex
	fetches := 0
	f := newFixture(t, func(req *protocol.Request) (*protocol.Response, error) {
		mu.Lock()
		fetches++
		mu.Unlock()
		return simplePage("fresh"), nil
	}, nil)

	cached := simplePage("cached")
	cached.Effects = []protocol.ClientEffect{protocol.PlaySound("stale-chime")}

	win := &fakeWindow{req: getReq("/news")}
	var id string
	f.onUI(func() { id = f.ctrl.Restore(win, cached) })

	// Cached content must appear immediately, before any fetch lands.
	f.onUI(func() {
		require.NotEmpty(t, win.shown)
		assert.Equal(t, "cached", win.shown[0].page.Title)
		assert.True(t, win.shown[0].immediate)
	})

	f.waitIdle(id)
	// Let any extra refreshes (there must be none) land.
	time.Sleep(50 * time.Millisecond)
	f.waitIdle(id)

	f.onUI(func() {
		// Exactly one chained background refresh.
		mu.Lock()
		assert.Equal(t, 1, fetches)
		mu.Unlock()

		require.Len(t, win.shown, 2)
		assert.Equal(t, "fresh", win.shown[1].page.Title)
		assert.False(t, win.shown[1].immediate)

		// Neither the redisplay nor the refresh may run effects.
		assert.Empty(t, f.fx.runs)

		// Two lock/unlock pairs: restore render and chained refresh.
		assert.Equal(t, 2, win.lockCount)
		assert.Equal(t, 2, win.unlockCount)
	})
}

func TestRestoreWithoutCachePost(t *testing.T) {
	var mu sync.Mutex
	fetches := 0
	f := newFixture(t, func(req *protocol.Request) (*protocol.Response, error) {
		mu.Lock()
		fetches++
		mu.Unlock()
		return simplePage("must not happen"), nil
	}, nil)

	win := &fakeWindow{req: protocol.NewRequest("/buy", protocol.MethodPost, nil)}
	var id string
	f.onUI(func() { id = f.ctrl.Restore(win, nil) })

	f.onUI(func() {
		st, ok := f.ctrl.State(id)
		require.True(t, ok)
		assert.Equal(t, controller.StateErrored, st)

		// POST is never replayed: no fulfillment happened at all.
		mu.Lock()
		assert.Equal(t, 0, fetches)
		mu.Unlock()

		require.NotNil(t, win.last)
		assert.Equal(t, protocol.ErrorGeneric, win.last.Err)
		assert.Equal(t, 1, win.unlockCount)
	})
}

func TestRestoreWithoutCacheGetRefetches(t *testing.T) {
	f := newFixture(t, func(req *protocol.Request) (*protocol.Response, error) {
		return simplePage("refetched"), nil
	}, nil)

	win := &fakeWindow{req: getReq("/news")}
	var id string
	f.onUI(func() { id = f.ctrl.Restore(win, nil) })
	f.waitIdle(id)

	f.onUI(func() {
		require.Len(t, win.shown, 1)
		assert.Equal(t, "refetched", win.shown[0].page.Title)
	})
}

func TestRestoreFromPersistentStore(t *testing.T) {
	store, err := pagecache.Open(t.TempDir() + "/cache.db")
	require.NoError(t, err)
	defer store.Close()

	f := newFixture(t, func(req *protocol.Request) (*protocol.Response, error) {
		return simplePage("fresh " + req.Path), nil
	}, store)

	// First visit populates the store.
	win1 := &fakeWindow{}
	var id1 string
	f.onUI(func() { id1 = f.ctrl.Create(win1, getReq("/news")) })
	f.waitIdle(id1)

	// A brand-new window restores instantly from the store.
	win2 := &fakeWindow{req: getReq("/news")}
	var id2 string
	f.onUI(func() { id2 = f.ctrl.Restore(win2, nil) })
	f.onUI(func() {
		require.NotEmpty(t, win2.shown)
		assert.Equal(t, "fresh /news", win2.shown[0].page.Title)
		assert.True(t, win2.shown[0].immediate)
	})
	f.waitIdle(id2)
}

func TestSlowRequestStillDelivers(t *testing.T) {
	f := newFixture(t, func(req *protocol.Request) (*protocol.Response, error) {
		time.Sleep(300 * time.Millisecond)
		return simplePage("slow but sure"), nil
	}, nil)

	win := &fakeWindow{}
	var id string
	f.onUI(func() { id = f.ctrl.Create(win, getReq("/slow")) })
	f.waitIdle(id)

	f.onUI(func() {
		require.Len(t, win.shown, 1)
		assert.Equal(t, "slow but sure", win.shown[0].page.Title)
		assert.Equal(t, 1, win.unlockCount)
	})
}

func TestStaleDeliveryDropped(t *testing.T) {
	blockA := make(chan struct{})
	f := newFixture(t, func(req *protocol.Request) (*protocol.Response, error) {
		if req.Path == "/a" {
			<-blockA
		}
		return simplePage(req.Path), nil
	}, nil)

	win := &fakeWindow{}
	var id string
	f.onUI(func() { id = f.ctrl.Create(win, getReq("/home")) })
	f.waitIdle(id)

	// Two replaces in quick succession; the first stays in flight.
	f.onUI(func() {
		f.ctrl.Replace(id, getReq("/a"), false)
		f.ctrl.Replace(id, getReq("/b"), false)
	})
	f.waitIdle(id)

	var shownBefore int
	f.onUI(func() {
		shownBefore = len(win.shown)
		require.GreaterOrEqual(t, shownBefore, 2)
		assert.Equal(t, "/b", win.shown[shownBefore-1].page.Title)
	})

	// Now the superseded /a result arrives... and must be dropped.
	close(blockA)
	time.Sleep(100 * time.Millisecond)
	f.loop.Sync()

	f.onUI(func() {
		assert.Len(t, win.shown, shownBefore, "stale /a result must not render")
		assert.Equal(t, "/b", win.shown[len(win.shown)-1].page.Title)
		assert.False(t, win.locked)
	})
}

func TestTimedActionFiresWithClampedDelay(t *testing.T) {
	f := newFixture(t, func(req *protocol.Request) (*protocol.Response, error) {
		resp := simplePage("closing soon")
		resp.Timed = &protocol.TimedAction{
			Action: *protocol.NewLocal(true, nil, nil),
			Delay:  10 * time.Millisecond, // below the floor
		}
		return resp, nil
	}, nil)

	var mu sync.Mutex
	var fired []bool
	var firedAt time.Time
	f.ctrl.SetActionRunner(func(windowID string, action *protocol.Action, isTimed bool) {
		mu.Lock()
		fired = append(fired, isTimed)
		firedAt = time.Now()
		mu.Unlock()
	})

	win := &fakeWindow{}
	var id string
	f.onUI(func() { id = f.ctrl.Create(win, getReq("/timedactions")) })
	f.waitIdle(id)

	var deliveredAt time.Time
	f.onUI(func() {
		require.Len(t, win.shown, 1)
		deliveredAt = win.shown[0].at
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) == 1
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, fired[0], "timed firing must pass isTimed=true")
	assert.GreaterOrEqual(t, firedAt.Sub(deliveredAt), controller.MinTimedDelay,
		"requested delay below the floor must be clamped up")
}

func TestTimedActionSkippedWhenSuperseded(t *testing.T) {
	block := make(chan struct{})
	f := newFixture(t, func(req *protocol.Request) (*protocol.Response, error) {
		if req.Path == "/second" {
			<-block
			return simplePage("second"), nil
		}
		resp := simplePage("with timer")
		resp.Timed = &protocol.TimedAction{
			Action: *protocol.NewLocal(true, nil, nil),
			Delay:  time.Millisecond,
		}
		return resp, nil
	}, nil)

	var mu sync.Mutex
	firedCount := 0
	f.ctrl.SetActionRunner(func(string, *protocol.Action, bool) {
		mu.Lock()
		firedCount++
		mu.Unlock()
	})

	win := &fakeWindow{}
	var id string
	f.onUI(func() { id = f.ctrl.Create(win, getReq("/first")) })
	f.waitIdle(id)

	// Supersede the window before the (clamped) timer comes due.
	f.onUI(func() { f.ctrl.Replace(id, getReq("/second"), false) })
	time.Sleep(controller.MinTimedDelay + 100*time.Millisecond)
	close(block)
	f.waitIdle(id)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, firedCount, "timer for a superseded request must not fire")
}

func TestClosedWindowDropsDelivery(t *testing.T) {
	block := make(chan struct{})
	f := newFixture(t, func(req *protocol.Request) (*protocol.Response, error) {
		<-block
		return simplePage("too late"), nil
	}, nil)

	win := &fakeWindow{}
	var id string
	f.onUI(func() {
		id = f.ctrl.Create(win, getReq("/x"))
		f.ctrl.CloseWindow(id)
	})
	close(block)
	time.Sleep(50 * time.Millisecond)
	f.loop.Sync()

	f.onUI(func() {
		assert.Empty(t, win.shown)
		_, ok := f.ctrl.State(id)
		assert.False(t, ok)
	})
}

func TestLastKnownGood(t *testing.T) {
	f := newFixture(t, func(req *protocol.Request) (*protocol.Response, error) {
		return simplePage("good"), nil
	}, nil)

	win := &fakeWindow{}
	var id string
	f.onUI(func() { id = f.ctrl.Create(win, getReq("/x")) })
	f.waitIdle(id)

	f.onUI(func() {
		last := f.ctrl.LastKnownGood(id)
		require.NotNil(t, last)
		assert.Equal(t, "good", last.Page.Title)
		// Clone, not the stored value.
		last.Page.Title = "mutated"
		assert.Equal(t, "good", f.ctrl.LastKnownGood(id).Page.Title)
	})
}
