package trading

import (
	"fmt"

	"github.com/tidwall/hashmap"
	"go.uber.org/zap"

	"github.com/helixtrading/helix-venue/types/list"
	"github.com/helixtrading/helix-venue/wire"
)

// BBO is the top-of-book summary: best bid and ask price with the
// aggregated quantity resting at each.
type BBO struct {
	BidPrice wire.Price
	AskPrice wire.Price
	BidQty   wire.Qty
	AskQty   wire.Qty
}

// Valid reports whether both sides of the book have a level.
func (b *BBO) Valid() bool {
	return b.BidPrice != wire.PriceInvalid && b.AskPrice != wire.PriceInvalid
}

func (b *BBO) String() string {
	return fmt.Sprintf("BBO[%s@%s X %s@%s]", b.BidQty, b.BidPrice, b.AskQty, b.AskPrice)
}

// MarketOrderBook is the client-side replica of one instrument's book,
// driven purely by MEMarketUpdate events. After every event that can move
// the top of book it rederives the BBO; TRADE events are dispatched to the
// trade engine separately and leave the book untouched.
//
// The incremental stream is gapless by the time it reaches the book, so an
// event that contradicts the replica state is an invariant breach.
type MarketOrderBook struct {
	tickerID wire.TickerID

	engine *TradeEngine

	alloc *marketAllocator

	bids list.List[*MarketPriceLevel]
	asks list.List[*MarketPriceLevel]

	priceLevels [wire.MaxPriceLevels]*MarketPriceLevel

	// Lookup from market order id to live order
	orders *hashmap.Map[uint64, *MarketOrder]

	bbo BBO

	log *zap.Logger
}

// NewMarketOrderBook creates an empty replica book.
func NewMarketOrderBook(tickerID wire.TickerID, maxOrders int, log *zap.Logger) *MarketOrderBook {
	alloc := newMarketAllocator(maxOrders, wire.MaxPriceLevels)
	ob := &MarketOrderBook{
		tickerID: tickerID,
		alloc:    alloc,
		orders:   hashmap.New[uint64, *MarketOrder](maxOrders),
		bbo: BBO{
			BidPrice: wire.PriceInvalid,
			AskPrice: wire.PriceInvalid,
		},
		log: log,
	}
	ob.bids.Init(&alloc.levelLadderElement)
	ob.asks.Init(&alloc.levelLadderElement)
	return ob
}

// SetTradeEngine wires the book to its trade engine.
func (ob *MarketOrderBook) SetTradeEngine(engine *TradeEngine) {
	ob.engine = engine
}

// BBO returns the current top-of-book summary.
func (ob *MarketOrderBook) BBO() *BBO {
	return &ob.bbo
}

// Size returns the number of live orders in the replica.
func (ob *MarketOrderBook) Size() int {
	return ob.orders.Len()
}

// OnMarketUpdate applies one market update to the replica.
func (ob *MarketOrderBook) OnMarketUpdate(update *wire.MEMarketUpdate) {
	// Decide before mutating whether the event can move either top.
	bidUpdated := update.Side == wire.SideBuy &&
		(ob.bids.Front() == nil || update.Price >= ob.bids.Front().Value.price)
	askUpdated := update.Side == wire.SideSell &&
		(ob.asks.Front() == nil || update.Price <= ob.asks.Front().Value.price)

	switch update.Type {
	case wire.MarketUpdateTypeAdd:
		order := ob.alloc.getOrder()
		*order = MarketOrder{
			orderID:  update.OrderID,
			side:     update.Side,
			price:    update.Price,
			qty:      update.Qty,
			priority: update.Priority,
		}
		ob.addOrder(order)
	case wire.MarketUpdateTypeModify:
		order, ok := ob.orders.Get(uint64(update.OrderID))
		if !ok {
			panic(fmt.Sprintf("market order book %d: MODIFY for unknown order %s", ob.tickerID, update.OrderID))
		}
		order.qty = update.Qty
	case wire.MarketUpdateTypeCancel:
		order, ok := ob.orders.Get(uint64(update.OrderID))
		if !ok {
			panic(fmt.Sprintf("market order book %d: CANCEL for unknown order %s", ob.tickerID, update.OrderID))
		}
		ob.removeOrder(order)
	case wire.MarketUpdateTypeTrade:
		if ob.engine != nil {
			ob.engine.OnTradeUpdate(update, ob)
		}
		return
	case wire.MarketUpdateTypeClear:
		ob.clear()
		bidUpdated, askUpdated = true, true
	case wire.MarketUpdateTypeInvalid, wire.MarketUpdateTypeSnapshotStart, wire.MarketUpdateTypeSnapshotEnd:
		return
	}

	ob.updateBBO(bidUpdated, askUpdated)

	if ob.engine != nil {
		ob.engine.OnOrderBookUpdate(ob.tickerID, update.Price, update.Side, ob)
	}
}

func (ob *MarketOrderBook) updateBBO(bidUpdated, askUpdated bool) {
	if bidUpdated {
		if best := ob.bids.Front(); best != nil {
			ob.bbo.BidPrice = best.Value.price
			ob.bbo.BidQty = best.Value.Volume()
		} else {
			ob.bbo.BidPrice = wire.PriceInvalid
			ob.bbo.BidQty = 0
		}
	}
	if askUpdated {
		if best := ob.asks.Front(); best != nil {
			ob.bbo.AskPrice = best.Value.price
			ob.bbo.AskQty = best.Value.Volume()
		} else {
			ob.bbo.AskPrice = wire.PriceInvalid
			ob.bbo.AskQty = 0
		}
	}
}

func (ob *MarketOrderBook) clear() {
	ob.clearLadder(&ob.bids)
	ob.clearLadder(&ob.asks)
	ob.orders = hashmap.New[uint64, *MarketOrder](ob.alloc.orders.Capacity())
}

func (ob *MarketOrderBook) clearLadder(ladder *list.List[*MarketPriceLevel]) {
	for e := ladder.Front(); e != nil; e = e.Next() {
		priceLevel := e.Value
		for o := priceLevel.queue.Front(); o != nil; o = o.Next() {
			ob.alloc.putOrder(o.Value)
		}
		ob.priceLevels[marketPriceIndex(priceLevel.price)] = nil
		ob.alloc.putPriceLevel(priceLevel)
	}
	ladder.Clean()
}

////////////////////////////////////////////////////////////////
// Orders and price levels management
////////////////////////////////////////////////////////////////

func marketPriceIndex(price wire.Price) int {
	idx := int(price % wire.MaxPriceLevels)
	if idx < 0 {
		idx += wire.MaxPriceLevels
	}
	return idx
}

func (ob *MarketOrderBook) levelAt(price wire.Price) *MarketPriceLevel {
	priceLevel := ob.priceLevels[marketPriceIndex(price)]
	if priceLevel != nil && priceLevel.price != price {
		panic(fmt.Sprintf("market order book %d: price level collision between %d and %d", ob.tickerID, priceLevel.price, price))
	}
	return priceLevel
}

func (ob *MarketOrderBook) addOrder(order *MarketOrder) {
	priceLevel := ob.levelAt(order.price)
	if priceLevel == nil {
		priceLevel = ob.addPriceLevel(order.side, order.price)
	}
	order.queued = priceLevel.queue.PushBack(order)
	order.level = priceLevel
	ob.orders.Set(uint64(order.orderID), order)
}

func (ob *MarketOrderBook) removeOrder(order *MarketOrder) {
	priceLevel := order.level
	priceLevel.queue.Remove(order.queued)
	order.queued = nil
	order.level = nil

	if priceLevel.queue.Len() == 0 {
		ob.removePriceLevel(priceLevel)
	}

	ob.orders.Delete(uint64(order.orderID))
	ob.alloc.putOrder(order)
}

func (ob *MarketOrderBook) addPriceLevel(side wire.Side, price wire.Price) *MarketPriceLevel {
	priceLevel := ob.alloc.getPriceLevel()
	priceLevel.side = side
	priceLevel.price = price

	ladder := &ob.asks
	if side == wire.SideBuy {
		ladder = &ob.bids
	}
	var at *list.Element[*MarketPriceLevel]
	for e := ladder.Front(); e != nil; e = e.Next() {
		if (side == wire.SideBuy && e.Value.price < price) ||
			(side == wire.SideSell && e.Value.price > price) {
			at = e
			break
		}
	}
	if at != nil {
		priceLevel.entry = ladder.InsertBefore(priceLevel, at)
	} else {
		priceLevel.entry = ladder.PushBack(priceLevel)
	}

	ob.priceLevels[marketPriceIndex(price)] = priceLevel
	return priceLevel
}

func (ob *MarketOrderBook) removePriceLevel(priceLevel *MarketPriceLevel) {
	ladder := &ob.asks
	if priceLevel.side == wire.SideBuy {
		ladder = &ob.bids
	}
	ladder.Remove(priceLevel.entry)
	priceLevel.entry = nil
	ob.priceLevels[marketPriceIndex(priceLevel.price)] = nil
	ob.alloc.putPriceLevel(priceLevel)
}
