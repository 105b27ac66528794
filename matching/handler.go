package matching

import (
	"github.com/helixtrading/helix-venue/types/ring"
	"github.com/helixtrading/helix-venue/wire"
)

//go:generate mockgen -destination=mocks/interfaces.go -package=mockmatching . Handler

// Handler receives everything the matching engine emits. For one fill the
// engine calls OnClientResponse twice, aggressor first; market updates for
// one instrument arrive in the canonical order the publisher's sequence
// numbers will preserve.
type Handler interface {
	OnClientResponse(response *wire.MEClientResponse)
	OnMarketUpdate(update *wire.MEMarketUpdate)
}

// RingHandler is the production Handler: it copies responses and updates
// into the two outbound SPSC rings drained by the order server and the
// market data publisher.
type RingHandler struct {
	responses *ring.Ring[wire.MEClientResponse]
	updates   *ring.Ring[wire.MEMarketUpdate]
}

// NewRingHandler creates a RingHandler over the two outbound rings.
func NewRingHandler(responses *ring.Ring[wire.MEClientResponse], updates *ring.Ring[wire.MEMarketUpdate]) *RingHandler {
	return &RingHandler{
		responses: responses,
		updates:   updates,
	}
}

// OnClientResponse publishes the response to the order server ring.
func (h *RingHandler) OnClientResponse(response *wire.MEClientResponse) {
	slot := h.responses.NextToWrite()
	*slot = *response
	h.responses.CommitWrite()
}

// OnMarketUpdate publishes the update to the market data ring.
func (h *RingHandler) OnMarketUpdate(update *wire.MEMarketUpdate) {
	slot := h.updates.NextToWrite()
	*slot = *update
	h.updates.CommitWrite()
}
