package fulfill

import (
	"go.uber.org/zap"

	"github.com/efroemling/ballistica-sub005/internal/logging"
	"github.com/efroemling/ballistica-sub005/internal/protocol"
)

// Gate validates responses after any backend has produced them and
// before they are delivered to the UI thread. A response that fails
// validation is replaced wholesale by an error response, so the UI only
// ever sees renderable pages.
type Gate struct {
	clientBuild int
	log         *zap.Logger
}

// NewGate builds a gate for the running client build number.
func NewGate(clientBuild int) *Gate {
	return &Gate{clientBuild: clientBuild, log: logging.Get(logging.CategoryFulfill)}
}

// Validate returns resp if it is displayable, or a replacement error
// response if not. Check order matters: an unknown response tag means
// the server is speaking a newer protocol, which is an update problem
// rather than a malformed page.
func (g *Gate) Validate(resp *protocol.Response) *protocol.Response {
	if resp == nil {
		g.log.Error("nil response reached validation gate")
		return protocol.ErrorResponse(protocol.ErrorGeneric, "")
	}
	if resp.Tag == protocol.TagResponseUnknown {
		g.log.Warn("response has unknown type tag; client too old",
			zap.String("tag", resp.RawTag))
		return protocol.ErrorResponse(protocol.ErrorNeedUpdate, "")
	}
	if resp.MinBuild > 0 && resp.MinBuild > g.clientBuild {
		g.log.Warn("response requires newer build",
			zap.Int("min_build", resp.MinBuild),
			zap.Int("client_build", g.clientBuild))
		return protocol.ErrorResponse(protocol.ErrorNeedUpdate, "")
	}
	if len(resp.Page.Rows) == 0 {
		g.log.Error("response page has no rows")
		return protocol.ErrorResponse(protocol.ErrorGeneric, "")
	}
	for i, row := range resp.Page.Rows {
		if len(row.Buttons) == 0 {
			g.log.Error("response page row has no buttons", zap.Int("row", i))
			return protocol.ErrorResponse(protocol.ErrorGeneric, "")
		}
	}
	return resp
}

// Pipeline runs a fulfiller followed by the validation gate, with a
// final panic guard. The controller's background tasks call exactly
// this and nothing else.
type Pipeline struct {
	F    Fulfiller
	Gate *Gate
}

// Run produces a validated response. It never panics and never returns
// nil.
func (p *Pipeline) Run(req *protocol.Request) (resp *protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategoryFulfill).Error("panic in fulfillment pipeline",
				zap.Any("panic", r))
			resp = protocol.ErrorResponse(protocol.ErrorGeneric, "")
		}
	}()
	return p.Gate.Validate(p.F.Fulfill(req))
}
