// Package marketdata publishes the engine's market updates: every event on
// a lossy incremental multicast stream, and periodic full-book snapshot
// cycles on a second multicast group for late joiners and gap recovery.
package marketdata

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/helixtrading/helix-venue/network"
	"github.com/helixtrading/helix-venue/types/ring"
	"github.com/helixtrading/helix-venue/wire"
)

// Default multicast endpoints.
const (
	DefaultIncrementalIP   = "233.252.14.1"
	DefaultIncrementalPort = 20001
	DefaultSnapshotIP      = "233.252.14.3"
	DefaultSnapshotPort    = 20000
)

const stopDrainTimeout = 5 * time.Second

// Publisher drains the engine update ring, stamps each update with the next
// global incremental sequence number, multicasts the frame and tees it onto
// the inner ring consumed by the snapshot synthesizer.
type Publisher struct {
	updates *ring.Ring[wire.MEMarketUpdate]

	// Inner ring feeding the snapshot synthesizer
	snapshotUpdates *ring.Ring[wire.MDPMarketUpdate]

	socket      *network.McastSocket
	synthesizer *SnapshotSynthesizer

	// Next sequence number on the incremental stream, starts at 1
	nextIncSeqNum uint64

	running atomic.Bool
	wg      sync.WaitGroup

	scratch []byte

	log *zap.Logger
}

// NewPublisher creates the publisher and its snapshot synthesizer.
func NewPublisher(updates *ring.Ring[wire.MEMarketUpdate], incrementalIP string, incrementalPort int,
	snapshotIP string, snapshotPort int, maxSnapshotOrders int, log *zap.Logger) (*Publisher, error) {

	socket, err := network.OpenMcast(incrementalIP, incrementalPort, false, log)
	if err != nil {
		return nil, err
	}
	snapshotUpdates := ring.New[wire.MDPMarketUpdate](wire.RingCapacity)
	synthesizer, err := NewSnapshotSynthesizer(snapshotUpdates, snapshotIP, snapshotPort, maxSnapshotOrders, log)
	if err != nil {
		socket.Close()
		return nil, err
	}
	return &Publisher{
		updates:         updates,
		snapshotUpdates: snapshotUpdates,
		socket:          socket,
		synthesizer:     synthesizer,
		nextIncSeqNum:   1,
		scratch:         make([]byte, 0, wire.MDPMarketUpdateSize),
		log:             log,
	}, nil
}

// Start launches the publisher and synthesizer goroutines.
func (p *Publisher) Start() {
	p.running.Store(true)
	p.wg.Add(1)
	go p.run()
	p.synthesizer.Start()
}

// Stop gives the update ring a bounded window to drain, then stops the
// publisher and the synthesizer.
func (p *Publisher) Stop() {
	deadline := time.Now().Add(stopDrainTimeout)
	for p.updates.Size() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	p.running.Store(false)
	p.wg.Wait()
	p.synthesizer.Stop()
	p.socket.Close()
	p.log.Info("market data publisher stopped", zap.Uint64("published", p.nextIncSeqNum-1))
}

func (p *Publisher) run() {
	defer p.wg.Done()
	p.log.Info("market data publisher started")
	for p.running.Load() {
		update := p.updates.NextToRead()
		if update == nil {
			p.socket.SendAndRecv()
			continue
		}

		framed := wire.MDPMarketUpdate{
			SeqNum: p.nextIncSeqNum,
			Update: *update,
		}
		p.scratch = framed.AppendTo(p.scratch[:0])
		p.socket.Send(p.scratch)
		p.socket.SendAndRecv()

		slot := p.snapshotUpdates.NextToWrite()
		*slot = framed
		p.snapshotUpdates.CommitWrite()

		p.nextIncSeqNum++
		p.updates.CommitRead()
	}
}
