package fulfill

import (
	"encoding/json"
	"fmt"

	"github.com/efroemling/ballistica-sub005/internal/protocol"
)

// envelopeBody wraps an encoded request as {"r": <request>}. Both
// remote transports share this shape.
func envelopeBody(rawRequest json.RawMessage) ([]byte, error) {
	return json.Marshal(&protocol.Envelope{R: rawRequest})
}

// decodeEnvelope unwraps {"r": <response>} and decodes the response.
func decodeEnvelope(data []byte) (*protocol.Response, error) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(env.R) == 0 {
		return nil, fmt.Errorf("envelope missing response")
	}
	return protocol.DecodeResponse(env.R)
}
