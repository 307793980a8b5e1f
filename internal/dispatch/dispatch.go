// Package dispatch interprets page actions under the client trust
// policy. Interactive invocations get the full set of capabilities;
// timer-triggered invocations are restricted: they may never open
// windows and never execute immediate effects or local actions. That
// boundary is what keeps passively-delivered content from causing
// user-visible side effects.
package dispatch

import (
	"go.uber.org/zap"

	"github.com/efroemling/ballistica-sub005/internal/controller"
	"github.com/efroemling/ballistica-sub005/internal/logging"
	"github.com/efroemling/ballistica-sub005/internal/protocol"
)

// Navigator opens new windows for browse actions.
type Navigator interface {
	PushWindow(req *protocol.Request, fromWindowID string)
}

// EffectRunner executes client effects and the two built-in cues.
type EffectRunner interface {
	Run(effects []protocol.ClientEffect)
	// PlayDenialCue signals a refused input (window busy).
	PlayDenialCue()
	// PlayAckCue signals an accepted but action-less press.
	PlayAckCue()
}

// Dispatcher routes actions. It never panics and never queues input.
type Dispatcher struct {
	ctrl    *controller.Controller
	nav     Navigator
	effects EffectRunner
	local   controller.LocalActionHandler
	log     *zap.Logger
}

// New builds a dispatcher and wires it into ctrl for timed firing.
func New(ctrl *controller.Controller, nav Navigator, effects EffectRunner, local controller.LocalActionHandler) *Dispatcher {
	d := &Dispatcher{
		ctrl:    ctrl,
		nav:     nav,
		effects: effects,
		local:   local,
		log:     logging.Get(logging.CategoryDispatch),
	}
	ctrl.SetActionRunner(func(windowID string, action *protocol.Action, isTimed bool) {
		d.RunAction(windowID, "", action, isTimed)
	})
	return d
}

// RunAction executes action for the given window. widgetID names the
// triggering widget, empty for timer-triggered runs. isTimed selects
// the restricted trust policy.
func (d *Dispatcher) RunAction(windowID, widgetID string, action *protocol.Action, isTimed bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("panic while dispatching action", zap.Any("panic", r))
		}
	}()

	win, ok := d.ctrl.Window(windowID)
	if !ok {
		d.log.Debug("action for dead window dropped", zap.String("window", windowID))
		return
	}

	if win.Locked() {
		// A busy window refuses input outright; nothing is queued.
		d.log.Debug("action refused; window locked", zap.String("window", windowID))
		if !isTimed {
			d.effects.PlayDenialCue()
		}
		return
	}

	if action == nil {
		if !isTimed {
			d.effects.PlayAckCue()
		}
		return
	}

	switch action.Kind {
	case protocol.ActionBrowse:
		if isTimed {
			// Untrusted timers must not spawn navigational windows.
			d.log.Warn("timed invocation may not browse; ignoring",
				zap.String("window", windowID))
			return
		}
		d.nav.PushWindow(action.Request.Clone(), windowID)

	case protocol.ActionReplace:
		// Keep focus/scroll stable across the in-place re-render for
		// widgets whose ids survive it.
		if saver, ok := win.(controller.SelectionSaver); ok {
			saver.SaveSelection()
		}
		d.ctrl.Replace(windowID, action.Request, false)

	case protocol.ActionLocal:
		d.runLocal(windowID, widgetID, win, action, isTimed)

	case protocol.ActionUnknown:
		d.log.Warn("unknown action tag; ignoring",
			zap.String("tag", action.RawTag), zap.String("window", windowID))

	default:
		d.log.Error("invalid action kind", zap.Int("kind", int(action.Kind)))
	}
}

func (d *Dispatcher) runLocal(windowID, widgetID string, win controller.Window, action *protocol.Action, isTimed bool) {
	if action.CloseWindow {
		win.MainWindowBack()
		d.ctrl.CloseWindow(windowID)
	}

	if isTimed {
		if len(action.Effects) > 0 || action.Local != nil {
			d.log.Warn("dropping immediate effects/local action from timed invocation",
				zap.String("window", windowID),
				zap.Int("effects", len(action.Effects)),
				zap.Bool("local", action.Local != nil))
		}
		return
	}

	if len(action.Effects) > 0 {
		d.effects.Run(action.Effects)
	}
	if action.Local != nil && d.local != nil {
		d.safeLocal(protocol.LocalAction{
			Name:         action.Local.Name,
			Params:       action.Local.Params,
			SourceWidget: widgetID,
			SourceWindow: windowID,
		})
	}
}

// safeLocal calls the local-action handler with panic containment; a
// broken handler must never take the dispatcher down.
func (d *Dispatcher) safeLocal(action protocol.LocalAction) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("panic in local-action handler",
				zap.String("action", action.Name), zap.Any("panic", r))
		}
	}()
	d.local(action)
}
