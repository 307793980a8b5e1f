package fulfill

import (
	"context"
	"net"

	"github.com/sourcegraph/jsonrpc2"
	"go.uber.org/zap"

	"github.com/efroemling/ballistica-sub005/internal/logging"
	"github.com/efroemling/ballistica-sub005/internal/protocol"
)

// BusFulfillMethod is the RPC method name used for page fulfillment on
// the message bus.
const BusFulfillMethod = "ui.fulfill"

// BusBridge fulfills requests over a persistent message-bus connection
// using id-correlated JSON-RPC request/reply. It shares the {"r": ...}
// envelope with the HTTP bridge, so both remote transports use one
// codec.
//
// Connection failures surface as COMMUNICATION_ERROR responses; there
// is no reconnect logic here, the owner decides when to redial.
type BusBridge struct {
	conn *jsonrpc2.Conn
	log  *zap.Logger
}

// noopHandler ignores server-initiated traffic; the bus is
// request/reply only from the client's point of view.
type noopHandler struct{}

func (noopHandler) Handle(context.Context, *jsonrpc2.Conn, *jsonrpc2.Request) {}

// NewBusBridge wraps an established connection.
func NewBusBridge(conn net.Conn) *BusBridge {
	stream := jsonrpc2.NewBufferedStream(conn, jsonrpc2.VSCodeObjectCodec{})
	return &BusBridge{
		conn: jsonrpc2.NewConn(context.Background(), stream, noopHandler{}),
		log:  logging.Get(logging.CategoryBus),
	}
}

// Close tears down the bus connection.
func (b *BusBridge) Close() error {
	return b.conn.Close()
}

// Fulfill implements Fulfiller.
func (b *BusBridge) Fulfill(req *protocol.Request) *protocol.Response {
	raw, err := protocol.EncodeRequest(req)
	if err != nil {
		b.log.Error("encode request", zap.String("path", req.Path), zap.Error(err))
		return protocol.ErrorResponse(protocol.ErrorGeneric, "")
	}

	var reply protocol.Envelope
	params := protocol.Envelope{R: raw}
	if err := b.conn.Call(context.Background(), BusFulfillMethod, &params, &reply); err != nil {
		b.log.Warn("bus fulfillment failed",
			zap.String("path", req.Path), zap.Error(err))
		return protocol.ErrorResponse(protocol.ErrorCommunication, "")
	}
	if len(reply.R) == 0 {
		b.log.Error("bus reply missing response", zap.String("path", req.Path))
		return protocol.ErrorResponse(protocol.ErrorGeneric, "")
	}
	resp, err := protocol.DecodeResponse(reply.R)
	if err != nil {
		b.log.Error("malformed bus response",
			zap.String("path", req.Path), zap.Error(err))
		return protocol.ErrorResponse(protocol.ErrorGeneric, "")
	}
	return resp
}
