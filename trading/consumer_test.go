package trading

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helixtrading/helix-venue/types/ring"
	"github.com/helixtrading/helix-venue/wire"
)

func newTestConsumer() (*MarketDataConsumer, *ring.Ring[wire.MEMarketUpdate]) {
	mdUpdates := ring.New[wire.MEMarketUpdate](4096)
	return newConsumerState(mdUpdates, zap.NewNop()), mdUpdates
}

func incFrame(seq uint64) wire.MDPMarketUpdate {
	return wire.MDPMarketUpdate{
		SeqNum: seq,
		Update: wire.MEMarketUpdate{
			Type:    wire.MarketUpdateTypeAdd,
			OrderID: wire.OrderID(seq),
			Side:    wire.SideBuy,
			Price:   50,
			Qty:     1,
		},
	}
}

func snapFrame(seq uint64, update wire.MEMarketUpdate) wire.MDPMarketUpdate {
	return wire.MDPMarketUpdate{SeqNum: seq, Update: update}
}

func drainUpdates(r *ring.Ring[wire.MEMarketUpdate]) []wire.MEMarketUpdate {
	var out []wire.MEMarketUpdate
	for {
		v := r.NextToRead()
		if v == nil {
			return out
		}
		out = append(out, *v)
		r.CommitRead()
	}
}

func TestSteadyStatePassThrough(t *testing.T) {
	c, md := newTestConsumer()

	for seq := uint64(1); seq <= 5; seq++ {
		f := incFrame(seq)
		c.processFrame(false, &f)
	}

	out := drainUpdates(md)
	require.Len(t, out, 5)
	for i, u := range out {
		require.Equal(t, wire.OrderID(i+1), u.OrderID)
	}
	require.False(t, c.inRecovery)
	require.Equal(t, uint64(6), c.nextExpIncSeqNum)
}

func TestSnapshotWhileNotInRecoveryIsDropped(t *testing.T) {
	c, md := newTestConsumer()

	f := snapFrame(0, wire.MEMarketUpdate{Type: wire.MarketUpdateTypeSnapshotStart})
	c.processFrame(true, &f)

	require.Empty(t, drainUpdates(md))
	require.False(t, c.inRecovery)
}

func TestGapEntersRecoveryAndQueues(t *testing.T) {
	c, md := newTestConsumer()

	f := incFrame(1)
	c.processFrame(false, &f)
	require.Len(t, drainUpdates(md), 1)

	// 2 is lost; 3 arrives.
	f = incFrame(3)
	c.processFrame(false, &f)

	require.True(t, c.inRecovery)
	require.Empty(t, drainUpdates(md))
	require.Equal(t, 1, c.incrementalQueued.Size())
}

// Scenario S6: incrementals 1..100 processed, 101..105 missed, snapshot
// cycle anchored at 110 arrives while live incrementals 106..120 queue up.
func TestSnapshotRecovery(t *testing.T) {
	c, md := newTestConsumer()

	for seq := uint64(1); seq <= 100; seq++ {
		f := incFrame(seq)
		c.processFrame(false, &f)
	}
	require.Len(t, drainUpdates(md), 100)

	// Gap: 101..105 lost, live stream continues at 106..120.
	for seq := uint64(106); seq <= 120; seq++ {
		f := incFrame(seq)
		c.processFrame(false, &f)
	}
	require.True(t, c.inRecovery)
	require.Empty(t, drainUpdates(md))

	// Snapshot cycle anchored at incremental 110.
	f := snapFrame(0, wire.MEMarketUpdate{
		Type:    wire.MarketUpdateTypeSnapshotStart,
		OrderID: wire.OrderID(110),
	})
	c.processFrame(true, &f)
	f = snapFrame(1, wire.MEMarketUpdate{Type: wire.MarketUpdateTypeClear, TickerID: 0})
	c.processFrame(true, &f)
	f = snapFrame(2, wire.MEMarketUpdate{
		Type: wire.MarketUpdateTypeAdd, OrderID: 55, TickerID: 0,
		Side: wire.SideBuy, Price: 50, Qty: 3, Priority: 1,
	})
	c.processFrame(true, &f)
	require.True(t, c.inRecovery, "cycle incomplete without END")

	f = snapFrame(3, wire.MEMarketUpdate{
		Type:    wire.MarketUpdateTypeSnapshotEnd,
		OrderID: wire.OrderID(110),
	})
	c.processFrame(true, &f)

	require.False(t, c.inRecovery)
	out := drainUpdates(md)
	// Snapshot body (CLEAR + ADD) then incrementals 111..120.
	require.Len(t, out, 2+10)
	require.Equal(t, wire.MarketUpdateTypeClear, out[0].Type)
	require.Equal(t, wire.OrderID(55), out[1].OrderID)
	for i := 0; i < 10; i++ {
		require.Equal(t, wire.OrderID(111+i), out[2+i].OrderID)
	}
	require.Equal(t, uint64(121), c.nextExpIncSeqNum)
	require.Equal(t, 0, c.snapshotQueued.Size())
	require.Equal(t, 0, c.incrementalQueued.Size())

	// Steady state resumes.
	f = incFrame(121)
	c.processFrame(false, &f)
	require.Len(t, drainUpdates(md), 1)
	require.False(t, c.inRecovery)
}

func TestRecoveryCompletesWithEmptyIncrementalTail(t *testing.T) {
	c, md := newTestConsumer()

	f := incFrame(1)
	c.processFrame(false, &f)
	drainUpdates(md)

	// Gap at 2; snapshot anchored at 5 but incrementals 6.. not yet seen.
	f = incFrame(3)
	c.processFrame(false, &f)

	f = snapFrame(0, wire.MEMarketUpdate{Type: wire.MarketUpdateTypeSnapshotStart, OrderID: 5})
	c.processFrame(true, &f)
	f = snapFrame(1, wire.MEMarketUpdate{Type: wire.MarketUpdateTypeSnapshotEnd, OrderID: 5})
	c.processFrame(true, &f)

	// The snapshot alone covers the gap (tail empty), recovery completes.
	require.False(t, c.inRecovery)
	require.Equal(t, uint64(6), c.nextExpIncSeqNum)
}

func TestDuplicateSnapshotSeqRestartsCycle(t *testing.T) {
	c, _ := newTestConsumer()

	f := incFrame(3) // gap
	c.processFrame(false, &f)
	require.True(t, c.inRecovery)

	f = snapFrame(0, wire.MEMarketUpdate{Type: wire.MarketUpdateTypeSnapshotStart, OrderID: 1})
	c.processFrame(true, &f)
	f = snapFrame(1, wire.MEMarketUpdate{Type: wire.MarketUpdateTypeAdd, OrderID: 9, Qty: 1, Side: wire.SideBuy})
	c.processFrame(true, &f)

	// The same cycle position again means the previous cycle had drops.
	f = snapFrame(1, wire.MEMarketUpdate{Type: wire.MarketUpdateTypeAdd, OrderID: 9, Qty: 1, Side: wire.SideBuy})
	c.processFrame(true, &f)

	// The restarted cycle is discarded again by the sync check because its
	// first frame is not a START; recovery continues waiting.
	require.True(t, c.inRecovery)
	require.Equal(t, 0, c.snapshotQueued.Size())
}

func TestSnapshotWithoutStartIsDiscarded(t *testing.T) {
	c, _ := newTestConsumer()

	f := incFrame(3) // gap
	c.processFrame(false, &f)

	// Joined mid-cycle: first seen frame is not START.
	f = snapFrame(4, wire.MEMarketUpdate{Type: wire.MarketUpdateTypeAdd, OrderID: 9, Qty: 1, Side: wire.SideBuy})
	c.processFrame(true, &f)

	require.True(t, c.inRecovery)
	require.Equal(t, 0, c.snapshotQueued.Size())
}
