package fulfill

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/efroemling/ballistica-sub005/internal/logging"
	"github.com/efroemling/ballistica-sub005/internal/protocol"
)

// HTTPBridge fulfills requests against a remote HTTP endpoint. The
// request method maps to the HTTP verb; the body is the compact JSON
// envelope {"r": <request>}. Compressed responses are accepted via the
// transport's transparent gzip handling. Any non-200 status maps to a
// COMMUNICATION_ERROR response.
//
// Calls are synchronous and only ever run on background workers. There
// is no cancellation; a dead server is bounded by the client timeout
// and surfaces as a communication error, never as a stuck window.
type HTTPBridge struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewHTTPBridge builds a bridge for baseURL.
func NewHTTPBridge(baseURL string, timeout time.Duration) *HTTPBridge {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPBridge{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     logging.Get(logging.CategoryHTTP),
	}
}

// Fulfill implements Fulfiller.
func (b *HTTPBridge) Fulfill(req *protocol.Request) *protocol.Response {
	raw, err := protocol.EncodeRequest(req)
	if err != nil {
		b.log.Error("encode request", zap.String("path", req.Path), zap.Error(err))
		return protocol.ErrorResponse(protocol.ErrorGeneric, "")
	}
	body, err := envelopeBody(raw)
	if err != nil {
		b.log.Error("build envelope", zap.Error(err))
		return protocol.ErrorResponse(protocol.ErrorGeneric, "")
	}

	verb := http.MethodGet
	if req.Method == protocol.MethodPost {
		verb = http.MethodPost
	}
	httpReq, err := http.NewRequest(verb, b.baseURL, bytes.NewReader(body))
	if err != nil {
		b.log.Error("build http request", zap.Error(err))
		return protocol.ErrorResponse(protocol.ErrorGeneric, "")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := b.client.Do(httpReq)
	if err != nil {
		b.log.Warn("http fulfillment failed",
			zap.String("path", req.Path), zap.Error(err))
		return protocol.ErrorResponse(protocol.ErrorCommunication, "")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		b.log.Warn("http fulfillment non-200",
			zap.String("path", req.Path), zap.Int("status", httpResp.StatusCode))
		return protocol.ErrorResponse(protocol.ErrorCommunication, "")
	}

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		b.log.Warn("read response body", zap.Error(err))
		return protocol.ErrorResponse(protocol.ErrorCommunication, "")
	}
	resp, err := decodeEnvelope(data)
	if err != nil {
		b.log.Error("malformed response from server",
			zap.String("path", req.Path), zap.Error(err))
		return protocol.ErrorResponse(protocol.ErrorGeneric, "")
	}
	return resp
}
