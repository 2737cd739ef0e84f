package client

import (
	"time"

	"github.com/Jashshor/mini-rpc/message"
)

// pendingCall tracks one in-flight request awaiting a response correlated
// by message id. Exactly one of sync/callback is set, matching the two
// call modes (§4.5): synchronous Call blocks on sync, AsyncCall never
// blocks and gets delivered through callback instead.
type pendingCall struct {
	messageID uint32
	start     time.Time
	deadline  time.Time
	sync      chan *message.Response
	callback  func(*message.Response)
}

// deliver routes resp (or a locally synthesized error response) to
// whichever of sync/callback this call was registered with.
func (p *pendingCall) deliver(resp *message.Response) {
	if p.sync != nil {
		p.sync <- resp
		return
	}
	if p.callback != nil {
		p.callback(resp)
	}
}
