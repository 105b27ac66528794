package marketdata

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helixtrading/helix-venue/types/avl"
	"github.com/helixtrading/helix-venue/types/pool"
	"github.com/helixtrading/helix-venue/wire"
)

func newTestSynthesizer() *SnapshotSynthesizer {
	s := &SnapshotSynthesizer{
		orders: pool.New[wire.MEMarketUpdate](256),
		log:    zap.NewNop(),
	}
	nodePool := &sync.Pool{New: func() any {
		return new(avl.Node[uint64, *wire.MEMarketUpdate])
	}}
	for i := range s.images {
		s.images[i] = avl.NewTreePooled[uint64, *wire.MEMarketUpdate](
			func(a, b uint64) int {
				switch {
				case a < b:
					return -1
				case a > b:
					return 1
				}
				return 0
			},
			nodePool,
		)
	}
	return s
}

func apply(s *SnapshotSynthesizer, seq uint64, update wire.MEMarketUpdate) {
	framed := wire.MDPMarketUpdate{SeqNum: seq, Update: update}
	s.addToSnapshot(&framed)
}

func add(oid wire.OrderID, ticker wire.TickerID, side wire.Side, price wire.Price, qty wire.Qty, prio wire.Priority) wire.MEMarketUpdate {
	return wire.MEMarketUpdate{
		Type: wire.MarketUpdateTypeAdd, OrderID: oid, TickerID: ticker,
		Side: side, Price: price, Qty: qty, Priority: prio,
	}
}

func TestSnapshotCycleFraming(t *testing.T) {
	s := newTestSynthesizer()

	apply(s, 1, add(1, 0, wire.SideBuy, 50, 10, 1))
	apply(s, 2, add(2, 0, wire.SideSell, 52, 5, 1))
	apply(s, 3, add(3, 1, wire.SideBuy, 70, 2, 1))

	frames := s.buildSnapshot()

	// START, one CLEAR per instrument, three ADDs, END.
	require.Len(t, frames, 1+wire.MaxTickers+3+1)

	start := frames[0]
	require.Equal(t, wire.MarketUpdateTypeSnapshotStart, start.Update.Type)
	require.Equal(t, uint64(0), start.SeqNum)
	require.Equal(t, uint64(3), start.Update.SnapshotAnchorSeq())

	end := frames[len(frames)-1]
	require.Equal(t, wire.MarketUpdateTypeSnapshotEnd, end.Update.Type)
	require.Equal(t, uint64(len(frames)-1), end.SeqNum)
	require.Equal(t, uint64(3), end.Update.SnapshotAnchorSeq())

	// Contiguous per-cycle sequence numbers.
	for i, f := range frames {
		require.Equal(t, uint64(i), f.SeqNum)
	}

	// Instrument 0 body: CLEAR then its ADDs ordered by market order id.
	require.Equal(t, wire.MarketUpdateTypeClear, frames[1].Update.Type)
	require.Equal(t, wire.TickerID(0), frames[1].Update.TickerID)
	require.Equal(t, wire.MarketUpdateTypeAdd, frames[2].Update.Type)
	require.Equal(t, wire.OrderID(1), frames[2].Update.OrderID)
	require.Equal(t, wire.OrderID(2), frames[3].Update.OrderID)
	require.Equal(t, wire.MarketUpdateTypeClear, frames[4].Update.Type)
	require.Equal(t, wire.TickerID(1), frames[4].Update.TickerID)
	require.Equal(t, wire.OrderID(3), frames[5].Update.OrderID)
}

func TestSnapshotTracksModifyAndCancel(t *testing.T) {
	s := newTestSynthesizer()

	apply(s, 1, add(1, 0, wire.SideBuy, 50, 10, 1))
	apply(s, 2, add(2, 0, wire.SideBuy, 50, 7, 2))

	modify := add(1, 0, wire.SideBuy, 50, 4, 1)
	modify.Type = wire.MarketUpdateTypeModify
	apply(s, 3, modify)

	cancel := add(2, 0, wire.SideBuy, 50, 0, 2)
	cancel.Type = wire.MarketUpdateTypeCancel
	apply(s, 4, cancel)

	frames := s.buildSnapshot()
	var adds []wire.MEMarketUpdate
	for _, f := range frames {
		if f.Update.Type == wire.MarketUpdateTypeAdd {
			adds = append(adds, f.Update)
		}
	}
	require.Len(t, adds, 1)
	require.Equal(t, wire.OrderID(1), adds[0].OrderID)
	require.Equal(t, wire.Qty(4), adds[0].Qty)
	require.Equal(t, uint64(4), s.lastIncSeqNum)
}

func TestSnapshotTradeLeavesImageUntouched(t *testing.T) {
	s := newTestSynthesizer()
	apply(s, 1, add(1, 0, wire.SideBuy, 50, 10, 1))

	trade := wire.MEMarketUpdate{
		Type: wire.MarketUpdateTypeTrade, OrderID: wire.OrderIDInvalid,
		TickerID: 0, Side: wire.SideSell, Price: 50, Qty: 3,
	}
	apply(s, 2, trade)

	require.Equal(t, 1, s.images[0].Size())
	require.Equal(t, uint64(2), s.lastIncSeqNum)
}

func TestSnapshotClearReleasesImage(t *testing.T) {
	s := newTestSynthesizer()
	apply(s, 1, add(1, 0, wire.SideBuy, 50, 10, 1))
	apply(s, 2, add(2, 0, wire.SideBuy, 49, 10, 1))
	require.Equal(t, 2, s.orders.Len())

	clear := wire.MEMarketUpdate{Type: wire.MarketUpdateTypeClear, TickerID: 0}
	apply(s, 3, clear)

	require.Equal(t, 0, s.images[0].Size())
	require.Equal(t, 0, s.orders.Len())
}

func TestSnapshotInconsistentTapPanics(t *testing.T) {
	s := newTestSynthesizer()
	modify := wire.MEMarketUpdate{Type: wire.MarketUpdateTypeModify, OrderID: 9, TickerID: 0}
	framed := wire.MDPMarketUpdate{SeqNum: 1, Update: modify}
	require.Panics(t, func() { s.addToSnapshot(&framed) })
}
