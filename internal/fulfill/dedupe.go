package fulfill

import (
	"golang.org/x/sync/singleflight"

	"github.com/efroemling/ballistica-sub005/internal/protocol"
)

// Deduper collapses concurrent identical GET fulfillments into one
// backend call. Several windows asking for the same page at the same
// moment (a common pattern right after restore) share a single fetch.
// POST requests are never deduplicated.
type Deduper struct {
	inner Fulfiller
	group singleflight.Group
}

// NewDeduper wraps inner.
func NewDeduper(inner Fulfiller) *Deduper {
	return &Deduper{inner: inner}
}

// Fulfill implements Fulfiller. Callers sharing a flight each get their
// own clone, preserving the no-aliasing rule for values that cross the
// thread boundary.
func (d *Deduper) Fulfill(req *protocol.Request) *protocol.Response {
	if req.Method != protocol.MethodGet {
		return d.inner.Fulfill(req)
	}
	v, _, shared := d.group.Do(req.CacheKey(), func() (any, error) {
		return d.inner.Fulfill(req), nil
	})
	resp := v.(*protocol.Response)
	if shared {
		return resp.Clone()
	}
	return resp
}
