// Package protocol defines the versioned request/response types of the
// remote-described UI protocol, their JSON wire codec, and the error
// response taxonomy.
//
// Every multi-type (Request, Response, Action, ClientEffect) is a closed
// sum: a tag discriminant plus variant payload, with an explicit Unknown
// arm. Tags unknown to this client decode to the Unknown arm instead of
// failing, which is what lets old clients survive newer servers.
package protocol

import (
	"fmt"
	"maps"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// REQUEST
// =============================================================================

// Method is the HTTP-like fetch method of a Request.
type Method string

const (
	MethodGet  Method = "get"
	MethodPost Method = "post"
)

// RequestTag discriminates Request variants.
type RequestTag string

const (
	// TagRequestPage is the only request variant this client emits.
	TagRequestPage RequestTag = "page-request-1"
	// TagRequestUnknown marks a request decoded from an unrecognized tag.
	TagRequestUnknown RequestTag = "unknown"
)

// Request identifies a page to fetch. Value semantics: Requests cross
// the UI/background thread boundary, so they are cloned rather than
// shared (see Clone).
type Request struct {
	Tag    RequestTag
	Path   string
	Method Method
	Args   map[string]string

	// RawTag preserves the wire tag when Tag == TagRequestUnknown.
	RawTag string
}

// NewRequest builds a page request.
func NewRequest(path string, method Method, args map[string]string) *Request {
	return &Request{Tag: TagRequestPage, Path: path, Method: method, Args: args}
}

// Clone returns a deep copy sharing no mutable state with the receiver.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	out := *r
	if r.Args != nil {
		out.Args = maps.Clone(r.Args)
	}
	return &out
}

// Equal reports value equality.
func (r *Request) Equal(o *Request) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.Tag == o.Tag && r.Path == o.Path && r.Method == o.Method &&
		r.RawTag == o.RawTag && maps.Equal(r.Args, o.Args)
}

// CacheKey returns a stable key for caching and in-flight deduplication.
// Args are sorted so key construction is order-independent.
func (r *Request) CacheKey() string {
	var b strings.Builder
	b.WriteString(string(r.Method))
	b.WriteByte('|')
	b.WriteString(r.Path)
	keys := make([]string, 0, len(r.Args))
	for k := range r.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%s", k, r.Args[k])
	}
	return b.String()
}

// =============================================================================
// PAGE
// =============================================================================

// Page is the declarative UI description carried by a Response: an
// ordered list of Rows. A Page with zero rows, or any row with zero
// buttons, is invalid and is rejected by the validation gate before it
// can reach rendering.
type Page struct {
	Title string
	Rows  []Row
}

// Row holds one or more Buttons plus optional header decoration.
type Row struct {
	Header  string
	Buttons []Button
}

// Button is a pressable element bound to an optional Action. A nil
// Action means pressing the button only plays an acknowledgement cue.
type Button struct {
	ID     string
	Label  string
	Action *Action
}

// Clone deep-copies the page.
func (p Page) Clone() Page {
	out := p
	if p.Rows != nil {
		out.Rows = make([]Row, len(p.Rows))
		for i, row := range p.Rows {
			out.Rows[i] = row
			if row.Buttons != nil {
				out.Rows[i].Buttons = make([]Button, len(row.Buttons))
				for j, btn := range row.Buttons {
					out.Rows[i].Buttons[j] = btn
					out.Rows[i].Buttons[j].Action = btn.Action.Clone()
				}
			}
		}
	}
	return out
}

// =============================================================================
// RESPONSE
// =============================================================================

// ResponseTag discriminates Response variants.
type ResponseTag string

const (
	TagResponsePage    ResponseTag = "page-response-1"
	TagResponseUnknown ResponseTag = "unknown"
)

// TimedAction pairs an Action with a requested delay after which the
// controller auto-fires it. Timed firing runs under the restricted
// trust policy: see the dispatch package.
type TimedAction struct {
	Action Action
	Delay  time.Duration
}

// Response is the server's answer to a Request.
type Response struct {
	Tag  ResponseTag
	Page Page

	// MinBuild, when > 0, is the minimum client build number required
	// to display this response. Older clients show a NEED_UPDATE page.
	MinBuild int

	// Effects run on delivery, gated on the delivery being
	// interactively triggered.
	Effects []ClientEffect

	// Local, when set, names an app-specific local action to run on
	// delivery, under the same trust gate as Effects.
	Local *LocalActionSpec

	// Timed, when set, is auto-dispatched after its delay.
	Timed *TimedAction

	// Err marks responses synthesized by the error taxonomy;
	// ErrorNone for ordinary responses.
	Err ErrorKind

	// RawTag preserves the wire tag when Tag == TagResponseUnknown.
	RawTag string
}

// IsError reports whether this response was synthesized from a failure.
func (r *Response) IsError() bool { return r.Err != ErrorNone }

// Clone returns a deep copy sharing no mutable state with the receiver.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	out := *r
	out.Page = r.Page.Clone()
	if r.Effects != nil {
		out.Effects = append([]ClientEffect(nil), r.Effects...)
	}
	out.Local = r.Local.Clone()
	if r.Timed != nil {
		t := TimedAction{Action: *r.Timed.Action.Clone(), Delay: r.Timed.Delay}
		out.Timed = &t
	}
	return &out
}

// =============================================================================
// LOCAL ACTIONS
// =============================================================================

// LocalActionSpec names an app-specific action for the client to run
// outside the protocol, with free-form parameters.
type LocalActionSpec struct {
	Name   string
	Params map[string]string
}

// Clone returns a deep copy.
func (s *LocalActionSpec) Clone() *LocalActionSpec {
	if s == nil {
		return nil
	}
	out := *s
	if s.Params != nil {
		out.Params = maps.Clone(s.Params)
	}
	return &out
}

// LocalAction is a LocalActionSpec resolved with its source context,
// as delivered to the pluggable local-action handler.
type LocalAction struct {
	Name         string
	Params       map[string]string
	SourceWidget string // widget id that triggered it, if any
	SourceWindow string // window id it originated from
}
