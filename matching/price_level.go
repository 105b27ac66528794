package matching

import (
	"github.com/helixtrading/helix-venue/types/list"
	"github.com/helixtrading/helix-venue/wire"
)

// PriceLevel holds the FIFO queue of orders resting at one price. Levels of
// a side form a doubly-linked ladder ordered most-aggressive first, so the
// ladder front is always the best level of the side.
type PriceLevel struct {
	side  wire.Side
	price wire.Price

	// FIFO queue of resting orders, front = oldest.
	queue list.List[*Order]

	// Position of the level in its side's ladder.
	entry *list.Element[*PriceLevel]
}

// Side returns the side of the level.
func (l *PriceLevel) Side() wire.Side {
	return l.side
}

// Price returns the price of the level.
func (l *PriceLevel) Price() wire.Price {
	return l.price
}

// Orders returns the number of orders queued at the level.
func (l *PriceLevel) Orders() int {
	return l.queue.Len()
}

// Front returns the oldest resting order at the level, nil when empty.
func (l *PriceLevel) Front() *Order {
	if e := l.queue.Front(); e != nil {
		return e.Value
	}
	return nil
}

// Back returns the youngest resting order at the level, nil when empty.
func (l *PriceLevel) Back() *Order {
	if e := l.queue.Back(); e != nil {
		return e.Value
	}
	return nil
}

// Volume returns the total resting quantity at the level.
func (l *PriceLevel) Volume() uint64 {
	var total uint64
	for e := l.queue.Front(); e != nil; e = e.Next() {
		total += uint64(e.Value.qty)
	}
	return total
}
