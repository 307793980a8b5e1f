package protocol

import (
	"fmt"
	"time"
)

// EffectKind discriminates ClientEffect variants.
type EffectKind int

const (
	// EffectUnknown is the forward-compatibility arm; running it is a
	// no-op.
	EffectUnknown EffectKind = iota
	// EffectScreenMessage shows a transient on-screen message.
	EffectScreenMessage
	// EffectPlaySound plays a named sound.
	EffectPlaySound
	// EffectDelay pauses the effect sequence.
	EffectDelay
	// EffectCounter animates a counter between two values.
	EffectCounter
)

// String returns the effect kind name.
func (k EffectKind) String() string {
	switch k {
	case EffectUnknown:
		return "unknown"
	case EffectScreenMessage:
		return "message"
	case EffectPlaySound:
		return "sound"
	case EffectDelay:
		return "delay"
	case EffectCounter:
		return "counter"
	default:
		return fmt.Sprintf("invalid(%d)", int(k))
	}
}

// ClientEffect is an opaque client-side side effect instruction.
// Effects only ever run under the trust gate: passively-triggered
// (timed) deliveries never execute them.
type ClientEffect struct {
	Kind EffectKind

	Message string        // EffectScreenMessage
	Error   bool          // EffectScreenMessage: error styling
	Sound   string        // EffectPlaySound
	Delay   time.Duration // EffectDelay
	From    int           // EffectCounter
	To      int           // EffectCounter

	// RawTag preserves the wire tag when Kind == EffectUnknown.
	RawTag string
}

// ScreenMessage builds a message effect.
func ScreenMessage(msg string, isError bool) ClientEffect {
	return ClientEffect{Kind: EffectScreenMessage, Message: msg, Error: isError}
}

// PlaySound builds a sound effect.
func PlaySound(name string) ClientEffect {
	return ClientEffect{Kind: EffectPlaySound, Sound: name}
}
