package trading

import (
	"fmt"

	"github.com/helixtrading/helix-venue/wire"
)

// OMOrderState is the tracked lifecycle of one managed order. PENDING
// states mean a request is in flight and the manager must not act on the
// slot until the venue answers.
type OMOrderState uint8

const (
	OMOrderStateInvalid       OMOrderState = 0
	OMOrderStatePendingNew    OMOrderState = 1
	OMOrderStateLive          OMOrderState = 2
	OMOrderStatePendingCancel OMOrderState = 3
	OMOrderStateDead          OMOrderState = 4
)

func (s OMOrderState) String() string {
	switch s {
	case OMOrderStatePendingNew:
		return "PENDING_NEW"
	case OMOrderStateLive:
		return "LIVE"
	case OMOrderStatePendingCancel:
		return "PENDING_CANCEL"
	case OMOrderStateDead:
		return "DEAD"
	}
	return "INVALID"
}

// OMOrder is the order manager's view of the single order it keeps per
// instrument and side.
type OMOrder struct {
	TickerID wire.TickerID
	OrderID  wire.OrderID
	Side     wire.Side
	Price    wire.Price
	Qty      wire.Qty
	State    OMOrderState
}

func (o *OMOrder) String() string {
	return fmt.Sprintf("OMOrder[ticker:%s oid:%s side:%s price:%s qty:%s state:%s]",
		o.TickerID, o.OrderID, o.Side, o.Price, o.Qty, o.State)
}
