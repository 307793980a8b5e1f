package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// WIRE CODEC
// =============================================================================
//
// The wire format is compact JSON. Each sum type carries its tag in "t";
// decoding looks the tag up in a registry of decoders and falls back to
// the Unknown arm for tags this client has never heard of. Decoding
// happens exactly once, at this boundary; the rest of the runtime only
// ever sees the decoded sum types.

// Envelope is the body wrapper used by the remote transports:
// {"r": <serialized Request>} on the way out, {"r": <Response>} back.
type Envelope struct {
	R json.RawMessage `json:"r"`
}

// -----------------------------------------------------------------------------
// Wire structs
// -----------------------------------------------------------------------------

type wireRequest struct {
	Tag    string            `json:"t"`
	Path   string            `json:"p,omitempty"`
	Method string            `json:"m,omitempty"`
	Args   map[string]string `json:"a,omitempty"`
}

type wireResponse struct {
	Tag      string       `json:"t"`
	Title    string       `json:"ti,omitempty"`
	Rows     []wireRow    `json:"rows,omitempty"`
	MinBuild int          `json:"mb,omitempty"`
	Effects  []wireEffect `json:"fx,omitempty"`
	Local    *wireLocal   `json:"la,omitempty"`
	Timed    *wireTimed   `json:"ta,omitempty"`
}

type wireRow struct {
	Header  string       `json:"h,omitempty"`
	Buttons []wireButton `json:"b"`
}

type wireButton struct {
	ID     string          `json:"id,omitempty"`
	Label  string          `json:"l"`
	Action json.RawMessage `json:"a,omitempty"`
}

type wireAction struct {
	Tag         string          `json:"t"`
	Request     json.RawMessage `json:"r,omitempty"`
	CloseWindow bool            `json:"cw,omitempty"`
	Effects     []wireEffect    `json:"fx,omitempty"`
	Local       *wireLocal      `json:"la,omitempty"`
}

type wireEffect struct {
	Tag     string  `json:"t"`
	Message string  `json:"m,omitempty"`
	Error   bool    `json:"e,omitempty"`
	Sound   string  `json:"s,omitempty"`
	Delay   float64 `json:"d,omitempty"` // seconds
	From    int     `json:"f,omitempty"`
	To      int     `json:"to,omitempty"`
}

type wireLocal struct {
	Name   string            `json:"n"`
	Params map[string]string `json:"p,omitempty"`
}

type wireTimed struct {
	Action json.RawMessage `json:"a"`
	Delay  float64         `json:"d"` // seconds
}

// -----------------------------------------------------------------------------
// Tag registries
// -----------------------------------------------------------------------------

var (
	requestDecoders  = map[string]func(*wireRequest) *Request{}
	responseDecoders = map[string]func(*wireResponse) (*Response, error){}
	actionDecoders   = map[string]func(*wireAction) (*Action, error){}
	effectDecoders   = map[string]func(*wireEffect) ClientEffect{}
)

func init() {
	requestDecoders[string(TagRequestPage)] = decodePageRequest
	responseDecoders[string(TagResponsePage)] = decodePageResponse
	actionDecoders["browse"] = decodeBrowseAction
	actionDecoders["replace"] = decodeReplaceAction
	actionDecoders["local"] = decodeLocalAction
	effectDecoders["msg"] = func(w *wireEffect) ClientEffect {
		return ClientEffect{Kind: EffectScreenMessage, Message: w.Message, Error: w.Error}
	}
	effectDecoders["sound"] = func(w *wireEffect) ClientEffect {
		return ClientEffect{Kind: EffectPlaySound, Sound: w.Sound}
	}
	effectDecoders["delay"] = func(w *wireEffect) ClientEffect {
		return ClientEffect{Kind: EffectDelay, Delay: secondsToDuration(w.Delay)}
	}
	effectDecoders["counter"] = func(w *wireEffect) ClientEffect {
		return ClientEffect{Kind: EffectCounter, From: w.From, To: w.To}
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func durationToSeconds(d time.Duration) float64 {
	return d.Seconds()
}

// -----------------------------------------------------------------------------
// Request codec
// -----------------------------------------------------------------------------

// EncodeRequest serializes a request to its wire form.
func EncodeRequest(r *Request) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("encode nil request")
	}
	tag := string(r.Tag)
	if r.Tag == TagRequestUnknown {
		tag = r.RawTag
	}
	return json.Marshal(&wireRequest{
		Tag:    tag,
		Path:   r.Path,
		Method: string(r.Method),
		Args:   r.Args,
	})
}

// DecodeRequest parses a wire request. Unrecognized tags yield the
// Unknown arm, never an error.
func DecodeRequest(data []byte) (*Request, error) {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	if dec, ok := requestDecoders[w.Tag]; ok {
		return dec(&w), nil
	}
	return &Request{Tag: TagRequestUnknown, RawTag: w.Tag}, nil
}

func decodePageRequest(w *wireRequest) *Request {
	return &Request{
		Tag:    TagRequestPage,
		Path:   w.Path,
		Method: Method(w.Method),
		Args:   w.Args,
	}
}

// -----------------------------------------------------------------------------
// Response codec
// -----------------------------------------------------------------------------

// EncodeResponse serializes a response to its wire form. Unknown
// responses round-trip their original tag.
func EncodeResponse(r *Response) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("encode nil response")
	}
	tag := string(r.Tag)
	if r.Tag == TagResponseUnknown {
		tag = r.RawTag
	}
	w := wireResponse{
		Tag:      tag,
		Title:    r.Page.Title,
		MinBuild: r.MinBuild,
	}
	for _, row := range r.Page.Rows {
		wr := wireRow{Header: row.Header}
		for _, btn := range row.Buttons {
			wb := wireButton{ID: btn.ID, Label: btn.Label}
			if btn.Action != nil {
				raw, err := EncodeAction(btn.Action)
				if err != nil {
					return nil, err
				}
				wb.Action = raw
			}
			wr.Buttons = append(wr.Buttons, wb)
		}
		w.Rows = append(w.Rows, wr)
	}
	for _, fx := range r.Effects {
		w.Effects = append(w.Effects, encodeEffect(fx))
	}
	if r.Local != nil {
		w.Local = &wireLocal{Name: r.Local.Name, Params: r.Local.Params}
	}
	if r.Timed != nil {
		raw, err := EncodeAction(&r.Timed.Action)
		if err != nil {
			return nil, err
		}
		w.Timed = &wireTimed{Action: raw, Delay: durationToSeconds(r.Timed.Delay)}
	}
	return json.Marshal(&w)
}

// DecodeResponse parses a wire response. An unrecognized tag yields the
// Unknown arm; the validation gate turns that into a NEED_UPDATE page.
func DecodeResponse(data []byte) (*Response, error) {
	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if dec, ok := responseDecoders[w.Tag]; ok {
		return dec(&w)
	}
	return &Response{Tag: TagResponseUnknown, RawTag: w.Tag}, nil
}

func decodePageResponse(w *wireResponse) (*Response, error) {
	resp := &Response{
		Tag:      TagResponsePage,
		Page:     Page{Title: w.Title},
		MinBuild: w.MinBuild,
	}
	for _, wr := range w.Rows {
		row := Row{Header: wr.Header}
		for _, wb := range wr.Buttons {
			btn := Button{ID: wb.ID, Label: wb.Label}
			if len(wb.Action) > 0 {
				act, err := DecodeAction(wb.Action)
				if err != nil {
					return nil, err
				}
				btn.Action = act
			}
			row.Buttons = append(row.Buttons, btn)
		}
		resp.Page.Rows = append(resp.Page.Rows, row)
	}
	for _, wfx := range w.Effects {
		resp.Effects = append(resp.Effects, decodeEffect(&wfx))
	}
	if w.Local != nil {
		resp.Local = &LocalActionSpec{Name: w.Local.Name, Params: w.Local.Params}
	}
	if w.Timed != nil {
		act, err := DecodeAction(w.Timed.Action)
		if err != nil {
			return nil, err
		}
		resp.Timed = &TimedAction{Action: *act, Delay: secondsToDuration(w.Timed.Delay)}
	}
	return resp, nil
}

// -----------------------------------------------------------------------------
// Action codec
// -----------------------------------------------------------------------------

// EncodeAction serializes an action.
func EncodeAction(a *Action) (json.RawMessage, error) {
	if a == nil {
		return nil, fmt.Errorf("encode nil action")
	}
	w := wireAction{CloseWindow: a.CloseWindow}
	switch a.Kind {
	case ActionBrowse, ActionReplace:
		w.Tag = a.Kind.String()
		raw, err := EncodeRequest(a.Request)
		if err != nil {
			return nil, err
		}
		w.Request = raw
	case ActionLocal:
		w.Tag = "local"
		for _, fx := range a.Effects {
			w.Effects = append(w.Effects, encodeEffect(fx))
		}
		if a.Local != nil {
			w.Local = &wireLocal{Name: a.Local.Name, Params: a.Local.Params}
		}
	case ActionUnknown:
		w.Tag = a.RawTag
	default:
		return nil, fmt.Errorf("encode action: invalid kind %v", a.Kind)
	}
	return json.Marshal(&w)
}

// DecodeAction parses an action; unrecognized tags yield the Unknown arm.
func DecodeAction(data []byte) (*Action, error) {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	if dec, ok := actionDecoders[w.Tag]; ok {
		return dec(&w)
	}
	return &Action{Kind: ActionUnknown, RawTag: w.Tag}, nil
}

func decodeBrowseAction(w *wireAction) (*Action, error) {
	req, err := DecodeRequest(w.Request)
	if err != nil {
		return nil, err
	}
	return &Action{Kind: ActionBrowse, Request: req}, nil
}

func decodeReplaceAction(w *wireAction) (*Action, error) {
	req, err := DecodeRequest(w.Request)
	if err != nil {
		return nil, err
	}
	return &Action{Kind: ActionReplace, Request: req}, nil
}

func decodeLocalAction(w *wireAction) (*Action, error) {
	a := &Action{Kind: ActionLocal, CloseWindow: w.CloseWindow}
	for _, wfx := range w.Effects {
		a.Effects = append(a.Effects, decodeEffect(&wfx))
	}
	if w.Local != nil {
		a.Local = &LocalActionSpec{Name: w.Local.Name, Params: w.Local.Params}
	}
	return a, nil
}

// -----------------------------------------------------------------------------
// Effect codec
// -----------------------------------------------------------------------------

func encodeEffect(fx ClientEffect) wireEffect {
	w := wireEffect{
		Message: fx.Message,
		Error:   fx.Error,
		Sound:   fx.Sound,
		Delay:   durationToSeconds(fx.Delay),
		From:    fx.From,
		To:      fx.To,
	}
	switch fx.Kind {
	case EffectScreenMessage:
		w.Tag = "msg"
	case EffectPlaySound:
		w.Tag = "sound"
	case EffectDelay:
		w.Tag = "delay"
	case EffectCounter:
		w.Tag = "counter"
	default:
		w.Tag = fx.RawTag
	}
	return w
}

func decodeEffect(w *wireEffect) ClientEffect {
	if dec, ok := effectDecoders[w.Tag]; ok {
		return dec(w)
	}
	return ClientEffect{Kind: EffectUnknown, RawTag: w.Tag}
}
