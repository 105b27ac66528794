package marketdata

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/helixtrading/helix-venue/network"
	"github.com/helixtrading/helix-venue/types/avl"
	"github.com/helixtrading/helix-venue/types/pool"
	"github.com/helixtrading/helix-venue/types/ring"
	"github.com/helixtrading/helix-venue/wire"
)

// SnapshotInterval is how often a full snapshot cycle is multicast.
const SnapshotInterval = 60 * time.Second

// SnapshotSynthesizer maintains a full book image per instrument from the
// publisher's tap and periodically multicasts it as one snapshot cycle:
// SNAPSHOT_START, a CLEAR plus one ADD per live order for every instrument,
// SNAPSHOT_END. The cycle's frames are numbered 0..N+1 and the START/END
// markers carry the incremental sequence number the image is current to,
// which anchors the snapshot to a point on the incremental stream.
//
// Images are AVL trees keyed by market order id so a cycle lists orders in
// a deterministic order.
type SnapshotSynthesizer struct {
	snapshotUpdates *ring.Ring[wire.MDPMarketUpdate]

	socket socketSink

	// Per-instrument image of live orders, keyed by market order id
	images [wire.MaxTickers]avl.Tree[uint64, *wire.MEMarketUpdate]

	// Arena for the stored order updates
	orders *pool.Pool[wire.MEMarketUpdate]

	// Highest incremental sequence number applied to the images
	lastIncSeqNum uint64

	lastSnapshotAt time.Time

	running atomic.Bool
	wg      sync.WaitGroup

	scratch []byte

	log *zap.Logger
}

// socketSink is the slice of McastSocket the synthesizer uses.
type socketSink interface {
	Send(data []byte)
	SendAndRecv() bool
	Close()
}

func openMcastSink(ip string, port int, log *zap.Logger) (socketSink, error) {
	return network.OpenMcast(ip, port, false, log)
}

// NewSnapshotSynthesizer creates the synthesizer with its own multicast
// sender socket.
func NewSnapshotSynthesizer(snapshotUpdates *ring.Ring[wire.MDPMarketUpdate], snapshotIP string, snapshotPort int,
	maxOrders int, log *zap.Logger) (*SnapshotSynthesizer, error) {

	socket, err := openMcastSink(snapshotIP, snapshotPort, log)
	if err != nil {
		return nil, err
	}
	s := &SnapshotSynthesizer{
		snapshotUpdates: snapshotUpdates,
		socket:          socket,
		orders:          pool.New[wire.MEMarketUpdate](maxOrders),
		scratch:         make([]byte, 0, wire.MDPMarketUpdateSize),
		log:             log,
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
	return s, nil
}

// Start launches the synthesizer goroutine.
func (s *SnapshotSynthesizer) Start() {
	s.running.Store(true)
	s.lastSnapshotAt = time.Now()
	s.wg.Add(1)
	go s.run()
}

// Stop flips the running flag and waits for the loop to exit.
func (s *SnapshotSynthesizer) Stop() {
	s.running.Store(false)
	s.wg.Wait()
	s.socket.Close()
	s.log.Info("snapshot synthesizer stopped")
}

func (s *SnapshotSynthesizer) run() {
	defer s.wg.Done()
	s.log.Info("snapshot synthesizer started")
	for s.running.Load() {
		update := s.snapshotUpdates.NextToRead()
		if update != nil {
			s.addToSnapshot(update)
			s.snapshotUpdates.CommitRead()
		}
		if time.Since(s.lastSnapshotAt) >= SnapshotInterval {
			s.publishSnapshot()
			s.lastSnapshotAt = time.Now()
		}
	}
}

// addToSnapshot folds one incremental update into the per-instrument image.
// The tap is lossless, so inconsistencies mean the publisher or engine is
// broken and are fatal.
func (s *SnapshotSynthesizer) addToSnapshot(framed *wire.MDPMarketUpdate) {
	update := &framed.Update
	if update.TickerID >= wire.MaxTickers {
		panic(fmt.Sprintf("snapshot synthesizer: unknown ticker on update %s", update.String()))
	}
	image := &s.images[update.TickerID]

	switch update.Type {
	case wire.MarketUpdateTypeAdd:
		stored := s.orders.Allocate()
		*stored = *update
		if _, err := image.Add(uint64(update.OrderID), stored); err != nil {
			panic(fmt.Sprintf("snapshot synthesizer: duplicate ADD for order %s", update.OrderID))
		}
	case wire.MarketUpdateTypeModify:
		node := image.Find(uint64(update.OrderID))
		if node == nil {
			panic(fmt.Sprintf("snapshot synthesizer: MODIFY for unknown order %s", update.OrderID))
		}
		stored := node.Value()
		stored.Qty = update.Qty
		stored.Priority = update.Priority
	case wire.MarketUpdateTypeCancel:
		stored, err := image.Remove(uint64(update.OrderID))
		if err != nil {
			panic(fmt.Sprintf("snapshot synthesizer: CANCEL for unknown order %s", update.OrderID))
		}
		s.orders.Deallocate(stored)
	case wire.MarketUpdateTypeClear:
		image.IteratePostOrder(func(stored *wire.MEMarketUpdate) bool {
			s.orders.Deallocate(stored)
			return false
		})
		image.Clear()
	case wire.MarketUpdateTypeTrade:
		// Trades do not change the set of live orders.
	}

	s.lastIncSeqNum = framed.SeqNum
}

// buildSnapshot assembles one full snapshot cycle. Frames are numbered from
// 0; each instrument contributes a CLEAR followed by one ADD per live order
// so that replaying the body onto any replica leaves it equal to the image.
func (s *SnapshotSynthesizer) buildSnapshot() []wire.MDPMarketUpdate {
	frames := make([]wire.MDPMarketUpdate, 0, 64)
	seqNum := uint64(0)

	push := func(update *wire.MEMarketUpdate) {
		frames = append(frames, wire.MDPMarketUpdate{SeqNum: seqNum, Update: *update})
		seqNum++
	}

	push(&wire.MEMarketUpdate{
		Type:    wire.MarketUpdateTypeSnapshotStart,
		OrderID: wire.OrderID(s.lastIncSeqNum),
	})
	for tickerID := range s.images {
		push(&wire.MEMarketUpdate{
			Type:     wire.MarketUpdateTypeClear,
			OrderID:  wire.OrderIDInvalid,
			TickerID: wire.TickerID(tickerID),
			Side:     wire.SideInvalid,
			Price:    wire.PriceInvalid,
			Qty:      wire.QtyInvalid,
			Priority: wire.PriorityInvalid,
		})
		s.images[tickerID].IterateInOrder(func(stored *wire.MEMarketUpdate) bool {
			push(stored)
			return false
		})
	}
	push(&wire.MEMarketUpdate{
		Type:    wire.MarketUpdateTypeSnapshotEnd,
		OrderID: wire.OrderID(s.lastIncSeqNum),
	})

	return frames
}

// publishSnapshot multicasts one cycle, one frame per datagram.
func (s *SnapshotSynthesizer) publishSnapshot() {
	frames := s.buildSnapshot()
	for i := range frames {
		s.scratch = frames[i].AppendTo(s.scratch[:0])
		s.socket.Send(s.scratch)
		s.socket.SendAndRecv()
	}
	s.log.Info("published snapshot cycle",
		zap.Int("frames", len(frames)),
		zap.Uint64("last_inc_seq", s.lastIncSeqNum))
}
