package matching

import (
	"sync"

	"github.com/helixtrading/helix-venue/types/list"
	"github.com/helixtrading/helix-venue/types/pool"
)

// Allocator encapsulates all object allocation for one order book: bounded
// arenas for orders and price levels, and element pools for the container
// nodes. Arena exhaustion is fatal, which makes the configured capacities
// the hard limits of the book.
type Allocator struct {

	// Orders
	orders *pool.Pool[Order]

	// Price levels
	priceLevels *pool.Pool[PriceLevel]

	// Pools used by containers
	orderQueueElements sync.Pool // used by PriceLevel.queue
	levelLadderElement sync.Pool // used by OrderBook bid/ask ladders
}

// NewAllocator creates and returns new Allocator instance with the given
// arena capacities.
func NewAllocator(maxOrders, maxPriceLevels int) *Allocator {
	a := &Allocator{
		orders:      pool.New[Order](maxOrders),
		priceLevels: pool.New[PriceLevel](maxPriceLevels),
	}
	a.orderQueueElements = sync.Pool{New: func() any {
		return new(list.Element[*Order])
	}}
	a.levelLadderElement = sync.Pool{New: func() any {
		return new(list.Element[*PriceLevel])
	}}
	return a
}

// GetOrder allocates a zeroed Order.
func (a *Allocator) GetOrder() *Order {
	return a.orders.Allocate()
}

// PutOrder releases an Order back to its arena.
func (a *Allocator) PutOrder(order *Order) {
	a.orders.Deallocate(order)
}

// GetPriceLevel allocates a PriceLevel with an initialized order queue.
func (a *Allocator) GetPriceLevel() *PriceLevel {
	priceLevel := a.priceLevels.Allocate()
	priceLevel.queue.Init(&a.orderQueueElements)
	return priceLevel
}

// PutPriceLevel releases a PriceLevel back to its arena.
func (a *Allocator) PutPriceLevel(priceLevel *PriceLevel) {
	// Clean up the queue before releasing so its elements return to the pool
	priceLevel.queue.Clean()
	a.priceLevels.Deallocate(priceLevel)
}
