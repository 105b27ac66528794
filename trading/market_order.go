package trading

import (
	"sync"

	"github.com/helixtrading/helix-venue/types/list"
	"github.com/helixtrading/helix-venue/types/pool"
	"github.com/helixtrading/helix-venue/wire"
)

// MarketOrder is one live order in the client-side book replica. The venue
// already canonicalized identity, so only the market order id is kept.
type MarketOrder struct {
	orderID  wire.OrderID
	side     wire.Side
	price    wire.Price
	qty      wire.Qty
	priority wire.Priority

	queued *list.Element[*MarketOrder]
	level  *MarketPriceLevel
}

// OrderID returns the venue-assigned order id.
func (o *MarketOrder) OrderID() wire.OrderID {
	return o.orderID
}

// Side returns the market side of the order.
func (o *MarketOrder) Side() wire.Side {
	return o.side
}

// Price returns the limit price.
func (o *MarketOrder) Price() wire.Price {
	return o.price
}

// Qty returns the remaining quantity.
func (o *MarketOrder) Qty() wire.Qty {
	return o.qty
}

// MarketPriceLevel mirrors the engine-side price level: a FIFO order queue
// and a position on the side's ladder.
type MarketPriceLevel struct {
	side  wire.Side
	price wire.Price

	queue list.List[*MarketOrder]
	entry *list.Element[*MarketPriceLevel]
}

// Price returns the price of the level.
func (l *MarketPriceLevel) Price() wire.Price {
	return l.price
}

// Volume returns the total resting quantity at the level.
func (l *MarketPriceLevel) Volume() wire.Qty {
	var total wire.Qty
	for e := l.queue.Front(); e != nil; e = e.Next() {
		total += e.Value.qty
	}
	return total
}

// marketAllocator owns all replica book allocation, the same arena plus
// element-pool split the engine book uses.
type marketAllocator struct {
	orders      *pool.Pool[MarketOrder]
	priceLevels *pool.Pool[MarketPriceLevel]

	orderQueueElements sync.Pool
	levelLadderElement sync.Pool
}

func newMarketAllocator(maxOrders, maxPriceLevels int) *marketAllocator {
	a := &marketAllocator{
		orders:      pool.New[MarketOrder](maxOrders),
		priceLevels: pool.New[MarketPriceLevel](maxPriceLevels),
	}
	a.orderQueueElements = sync.Pool{New: func() any {
		return new(list.Element[*MarketOrder])
	}}
	a.levelLadderElement = sync.Pool{New: func() any {
		return new(list.Element[*MarketPriceLevel])
	}}
	return a
}

func (a *marketAllocator) getOrder() *MarketOrder {
	return a.orders.Allocate()
}

func (a *marketAllocator) putOrder(order *MarketOrder) {
	a.orders.Deallocate(order)
}

func (a *marketAllocator) getPriceLevel() *MarketPriceLevel {
	priceLevel := a.priceLevels.Allocate()
	priceLevel.queue.Init(&a.orderQueueElements)
	return priceLevel
}

func (a *marketAllocator) putPriceLevel(priceLevel *MarketPriceLevel) {
	priceLevel.queue.Clean()
	a.priceLevels.Deallocate(priceLevel)
}
