package protocol

import "fmt"

// ActionKind discriminates Action variants.
type ActionKind int

const (
	// ActionUnknown is the forward-compatibility arm for action tags
	// this client does not recognize. Dispatching it is a no-op.
	ActionUnknown ActionKind = iota
	// ActionBrowse pushes a new window for a request.
	ActionBrowse
	// ActionReplace swaps the current window's content in place.
	ActionReplace
	// ActionLocal optionally closes the window and runs immediate
	// effects / a local action, subject to the trust gate.
	ActionLocal
)

// String returns the action kind name.
func (k ActionKind) String() string {
	switch k {
	case ActionUnknown:
		return "unknown"
	case ActionBrowse:
		return "browse"
	case ActionReplace:
		return "replace"
	case ActionLocal:
		return "local"
	default:
		return fmt.Sprintf("invalid(%d)", int(k))
	}
}

// Action is the tagged union interpreted by the action dispatcher.
type Action struct {
	Kind ActionKind

	// Request is set for Browse and Replace.
	Request *Request

	// Local fields.
	CloseWindow bool
	Effects     []ClientEffect   // immediate effects, dropped when timed
	Local       *LocalActionSpec // immediate local action, dropped when timed

	// RawTag preserves the wire tag when Kind == ActionUnknown.
	RawTag string
}

// NewBrowse returns an action that opens req in a new window.
func NewBrowse(req *Request) *Action {
	return &Action{Kind: ActionBrowse, Request: req}
}

// NewReplace returns an action that replaces the current window's
// content with req's page.
func NewReplace(req *Request) *Action {
	return &Action{Kind: ActionReplace, Request: req}
}

// NewLocal returns a local action.
func NewLocal(closeWindow bool, effects []ClientEffect, local *LocalActionSpec) *Action {
	return &Action{Kind: ActionLocal, CloseWindow: closeWindow, Effects: effects, Local: local}
}

// Clone returns a deep copy sharing no mutable state with the receiver.
func (a *Action) Clone() *Action {
	if a == nil {
		return nil
	}
	out := *a
	out.Request = a.Request.Clone()
	if a.Effects != nil {
		out.Effects = append([]ClientEffect(nil), a.Effects...)
	}
	out.Local = a.Local.Clone()
	return &out
}
