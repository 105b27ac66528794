package trading

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/helixtrading/helix-venue/network"
	"github.com/helixtrading/helix-venue/types/avl"
	"github.com/helixtrading/helix-venue/types/ring"
	"github.com/helixtrading/helix-venue/wire"
)

// MarketDataConsumer keeps the trade engine fed with a gapless stream of
// market updates. In steady state it decodes the incremental multicast feed
// straight into the md ring. On a sequence gap it joins the snapshot group
// and queues both streams until one full snapshot cycle plus the
// incremental tail behind its anchor are on hand, replays them in order,
// then leaves the snapshot group again.
type MarketDataConsumer struct {
	mdUpdates *ring.Ring[wire.MEMarketUpdate]

	incrementalSocket *network.McastSocket
	snapshotSocket    *network.McastSocket

	snapshotIP   string
	snapshotPort int

	inRecovery bool

	// Next expected sequence number on the incremental stream, starts at 1
	nextExpIncSeqNum uint64

	// Queued frames during recovery, keyed (and iterated) by sequence number
	snapshotQueued    avl.Tree[uint64, wire.MDPMarketUpdate]
	incrementalQueued avl.Tree[uint64, wire.MDPMarketUpdate]

	running atomic.Bool
	wg      sync.WaitGroup

	log *zap.Logger
}

// NewMarketDataConsumer joins the incremental group immediately; the
// snapshot group is only joined during recovery.
func NewMarketDataConsumer(mdUpdates *ring.Ring[wire.MEMarketUpdate],
	incrementalIP string, incrementalPort int,
	snapshotIP string, snapshotPort int, log *zap.Logger) (*MarketDataConsumer, error) {

	c := newConsumerState(mdUpdates, log)
	c.snapshotIP = snapshotIP
	c.snapshotPort = snapshotPort

	incrementalSocket, err := network.OpenMcast(incrementalIP, incrementalPort, true, log)
	if err != nil {
		return nil, err
	}
	if err := incrementalSocket.Join(); err != nil {
		incrementalSocket.Close()
		return nil, err
	}
	incrementalSocket.RecvCallback = func(s *network.McastSocket) {
		c.recvCallback(s, false)
	}
	c.incrementalSocket = incrementalSocket
	return c, nil
}

// newConsumerState builds the protocol state without any sockets.
func newConsumerState(mdUpdates *ring.Ring[wire.MEMarketUpdate], log *zap.Logger) *MarketDataConsumer {
	return &MarketDataConsumer{
		mdUpdates:         mdUpdates,
		nextExpIncSeqNum:  1,
		snapshotQueued:    avl.NewOrderedTree[uint64, wire.MDPMarketUpdate](),
		incrementalQueued: avl.NewOrderedTree[uint64, wire.MDPMarketUpdate](),
		log:               log,
	}
}

// Start launches the consumer goroutine.
func (c *MarketDataConsumer) Start() {
	c.running.Store(true)
	c.wg.Add(1)
	go c.run()
}

// Stop flips the running flag and waits for the loop to exit.
func (c *MarketDataConsumer) Stop() {
	c.running.Store(false)
	c.wg.Wait()
	if c.snapshotSocket != nil {
		c.snapshotSocket.Close()
	}
	c.incrementalSocket.Close()
	c.log.Info("market data consumer stopped")
}

func (c *MarketDataConsumer) run() {
	defer c.wg.Done()
	c.log.Info("market data consumer started")
	for c.running.Load() {
		c.incrementalSocket.SendAndRecv()
		if c.snapshotSocket != nil {
			c.snapshotSocket.SendAndRecv()
		}
	}
}

// recvCallback slices complete frames out of a socket's inbound buffer.
func (c *MarketDataConsumer) recvCallback(socket *network.McastSocket, isSnapshot bool) {
	consumed := 0
	for consumed+wire.MDPMarketUpdateSize <= socket.InboundLen {
		framed, err := wire.UnmarshalMDPMarketUpdate(socket.Inbound[consumed : consumed+wire.MDPMarketUpdateSize])
		consumed += wire.MDPMarketUpdateSize
		if err != nil {
			c.log.Warn("dropping malformed market data frame", zap.Error(err))
			continue
		}
		c.processFrame(isSnapshot, &framed)
	}
	socket.ShiftInbound(consumed)
}

// processFrame advances the steady-state or recovery protocol by one frame.
func (c *MarketDataConsumer) processFrame(isSnapshot bool, framed *wire.MDPMarketUpdate) {
	if isSnapshot && !c.inRecovery {
		// Stale snapshot subscription; nothing to recover.
		c.log.Warn("not expecting snapshot messages")
		return
	}

	alreadyInRecovery := c.inRecovery
	c.inRecovery = alreadyInRecovery || (!isSnapshot && framed.SeqNum != c.nextExpIncSeqNum)

	if c.inRecovery {
		if !alreadyInRecovery {
			c.log.Warn("incremental stream gap, starting snapshot sync",
				zap.Uint64("expected", c.nextExpIncSeqNum),
				zap.Uint64("received", framed.SeqNum))
			c.startSnapshotSync()
		}
		c.queueMessage(isSnapshot, framed)
		return
	}

	c.nextExpIncSeqNum++
	c.publish(&framed.Update)
}

func (c *MarketDataConsumer) publish(update *wire.MEMarketUpdate) {
	slot := c.mdUpdates.NextToWrite()
	*slot = *update
	c.mdUpdates.CommitWrite()
}

// startSnapshotSync clears the queues and joins the snapshot group.
func (c *MarketDataConsumer) startSnapshotSync() {
	c.snapshotQueued.Clear()
	c.incrementalQueued.Clear()
	c.joinSnapshotGroup()
}

func (c *MarketDataConsumer) joinSnapshotGroup() {
	if c.snapshotSocket != nil || c.snapshotIP == "" {
		return
	}
	socket, err := network.OpenMcast(c.snapshotIP, c.snapshotPort, true, c.log)
	if err != nil {
		panic("market data consumer: failed to open snapshot socket: " + err.Error())
	}
	if err := socket.Join(); err != nil {
		panic("market data consumer: failed to join snapshot group: " + err.Error())
	}
	socket.RecvCallback = func(s *network.McastSocket) {
		c.recvCallback(s, true)
	}
	c.snapshotSocket = socket
}

func (c *MarketDataConsumer) leaveSnapshotGroup() {
	if c.snapshotSocket == nil {
		return
	}
	c.snapshotSocket.Leave()
	c.snapshotSocket.Close()
	c.snapshotSocket = nil
}

// queueMessage stages one frame during recovery and retries the sync.
// A sequence number seen twice on the snapshot stream means the previous
// cycle had drops; only the fresh cycle is kept.
func (c *MarketDataConsumer) queueMessage(isSnapshot bool, framed *wire.MDPMarketUpdate) {
	if isSnapshot {
		if c.snapshotQueued.Find(framed.SeqNum) != nil {
			c.log.Warn("snapshot stream drops, restarting cycle", zap.Uint64("seq", framed.SeqNum))
			c.snapshotQueued.Clear()
		}
		c.snapshotQueued.Add(framed.SeqNum, *framed)
	} else {
		if c.incrementalQueued.Find(framed.SeqNum) == nil {
			c.incrementalQueued.Add(framed.SeqNum, *framed)
		}
	}
	c.checkSnapshotSync()
}

// checkSnapshotSync decides whether the queued snapshot cycle and
// incremental tail are complete; if so it replays them in order and leaves
// recovery.
func (c *MarketDataConsumer) checkSnapshotSync() {
	if c.snapshotQueued.Size() == 0 {
		return
	}

	first := c.snapshotQueued.MostLeft().Value()
	if first.Update.Type != wire.MarketUpdateTypeSnapshotStart {
		c.log.Warn("no SNAPSHOT_START yet, discarding snapshot queue")
		c.snapshotQueued.Clear()
		return
	}

	finalEvents := make([]wire.MEMarketUpdate, 0, c.snapshotQueued.Size())

	haveCompleteSnapshot := true
	nextSnapshotSeq := uint64(0)
	c.snapshotQueued.IterateInOrder(func(f wire.MDPMarketUpdate) bool {
		if f.SeqNum != nextSnapshotSeq {
			haveCompleteSnapshot = false
			return true
		}
		if f.Update.Type != wire.MarketUpdateTypeSnapshotStart &&
			f.Update.Type != wire.MarketUpdateTypeSnapshotEnd {
			finalEvents = append(finalEvents, f.Update)
		}
		nextSnapshotSeq++
		return false
	})
	if !haveCompleteSnapshot {
		c.log.Warn("gaps in snapshot stream, discarding snapshot queue")
		c.snapshotQueued.Clear()
		return
	}

	last := c.snapshotQueued.MostRight().Value()
	if last.Update.Type != wire.MarketUpdateTypeSnapshotEnd {
		// Cycle still in flight, keep queueing.
		return
	}

	haveCompleteIncremental := true
	numIncrementals := 0
	c.nextExpIncSeqNum = last.Update.SnapshotAnchorSeq() + 1
	c.incrementalQueued.IterateInOrder(func(f wire.MDPMarketUpdate) bool {
		if f.SeqNum < c.nextExpIncSeqNum {
			return false
		}
		if f.SeqNum != c.nextExpIncSeqNum {
			haveCompleteIncremental = false
			return true
		}
		finalEvents = append(finalEvents, f.Update)
		c.nextExpIncSeqNum++
		numIncrementals++
		return false
	})
	if !haveCompleteIncremental {
		c.log.Warn("gaps in queued incrementals, discarding snapshot queue")
		c.snapshotQueued.Clear()
		return
	}

	for i := range finalEvents {
		c.publish(&finalEvents[i])
	}
	c.log.Info("recovered from snapshot",
		zap.Int("snapshot_events", c.snapshotQueued.Size()-2),
		zap.Int("incremental_events", numIncrementals),
		zap.Uint64("next_exp_inc_seq", c.nextExpIncSeqNum))

	c.snapshotQueued.Clear()
	c.incrementalQueued.Clear()
	c.inRecovery = false

	c.leaveSnapshotGroup()
}
