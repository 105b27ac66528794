package matching

import (
	"github.com/helixtrading/helix-venue/types/list"
	"github.com/helixtrading/helix-venue/wire"
)

// Order is a live book order. It is reachable two ways: through the
// (client, client-order-id) lookup and through the FIFO queue of its price
// level. The queue element and level references keep removal O(1).
//
// Orders are arena-allocated; only the matching engine goroutine ever
// touches one. The remaining quantity only decreases over an order's life.
type Order struct {
	tickerID      wire.TickerID
	clientID      wire.ClientID
	clientOrderID wire.OrderID
	marketOrderID wire.OrderID
	side          wire.Side
	price         wire.Price
	qty           wire.Qty
	priority      wire.Priority

	// Position of the order in its price level FIFO queue.
	queued *list.Element[*Order]

	// The price level the order rests at.
	level *PriceLevel
}

// TickerID returns the instrument of the order.
func (o *Order) TickerID() wire.TickerID {
	return o.tickerID
}

// ClientID returns the owning client.
func (o *Order) ClientID() wire.ClientID {
	return o.clientID
}

// ClientOrderID returns the client-assigned order id.
func (o *Order) ClientOrderID() wire.OrderID {
	return o.clientOrderID
}

// MarketOrderID returns the venue-assigned order id.
func (o *Order) MarketOrderID() wire.OrderID {
	return o.marketOrderID
}

// Side returns the market side of the order.
func (o *Order) Side() wire.Side {
	return o.side
}

// IsBuy returns true if buy order.
func (o *Order) IsBuy() bool {
	return o.side == wire.SideBuy
}

// Price returns the limit price.
func (o *Order) Price() wire.Price {
	return o.price
}

// Qty returns the remaining quantity.
func (o *Order) Qty() wire.Qty {
	return o.qty
}

// Priority returns the time priority within the order's price level.
func (o *Order) Priority() wire.Priority {
	return o.priority
}
