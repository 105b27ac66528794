package orderserver

import (
	"sort"

	"github.com/helixtrading/helix-venue/types/ring"
	"github.com/helixtrading/helix-venue/wire"
)

// MaxPendingRequests bounds the unprocessed client requests across all TCP
// connections within one poll cycle.
const MaxPendingRequests = 1024

type recvTimeRequest struct {
	recvTime int64
	request  wire.MEClientRequest
}

// FIFOSequencer re-establishes wire-arrival order across connections.
// Requests accepted during one poll cycle are staged with their kernel
// receive time; SequenceAndPublish sorts them by that time and publishes to
// the engine request ring, so the engine sees arrival order regardless of
// which socket was drained first.
type FIFOSequencer struct {
	requests *ring.Ring[wire.MEClientRequest]

	pending [MaxPendingRequests]recvTimeRequest
	size    int
}

// NewFIFOSequencer creates a sequencer publishing to the engine ring.
func NewFIFOSequencer(requests *ring.Ring[wire.MEClientRequest]) *FIFOSequencer {
	return &FIFOSequencer{
		requests: requests,
	}
}

// Add stages one accepted request with its kernel receive time.
func (s *FIFOSequencer) Add(recvTime int64, request *wire.MEClientRequest) {
	if s.size >= len(s.pending) {
		panic("fifo sequencer: too many pending requests")
	}
	s.pending[s.size] = recvTimeRequest{recvTime: recvTime, request: *request}
	s.size++
}

// SequenceAndPublish sorts the staged requests by receive time ascending
// and pushes them to the engine request ring. Equal timestamps keep their
// arrival order.
func (s *FIFOSequencer) SequenceAndPublish() {
	if s.size == 0 {
		return
	}

	pending := s.pending[:s.size]
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].recvTime < pending[j].recvTime
	})

	for i := range pending {
		slot := s.requests.NextToWrite()
		*slot = pending[i].request
		s.requests.CommitWrite()
	}
	s.size = 0
}
