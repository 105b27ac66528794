package matching

import (
	"fmt"

	"github.com/tidwall/hashmap"
	"lukechampine.com/uint128"

	"github.com/helixtrading/helix-venue/types/list"
	"github.com/helixtrading/helix-venue/wire"
)

const reservedClientOrderSlots = 1024

// OrderBook is a price-time-priority limit order book for one instrument.
//
// Levels live on two ladders (bids descending, asks ascending, front =
// best) and are additionally reachable through a direct-mapped lookup keyed
// by price mod MaxPriceLevels. The direct map is a contract with the
// instrument configuration: the active price window must stay narrower than
// MaxPriceLevels ticks, a collision inside a live book is fatal.
//
// NOTE: Not thread-safe, owned by the engine goroutine.
type OrderBook struct {
	// Allocator used by the order book
	alloc *Allocator

	tickerID wire.TickerID

	// The engine the book emits responses and updates through
	engine *Engine

	// Bid/Ask price level ladders, most aggressive level first
	bids list.List[*PriceLevel]
	asks list.List[*PriceLevel]

	// Direct-mapped price -> level lookup, keyed by price mod MaxPriceLevels
	priceLevels [wire.MaxPriceLevels]*PriceLevel

	// Per-client lookup from client order id to live order
	clientOrders [wire.MaxClients]*hashmap.Map[uint64, *Order]

	// Next venue-assigned market order id
	nextMarketOrderID wire.OrderID

	liveOrders int

	// Turnover counters, updated on every trade
	tradedQty      uint64
	tradedNotional uint128.Uint128
}

// NewOrderBook creates and returns new OrderBook instance.
func NewOrderBook(tickerID wire.TickerID, engine *Engine, alloc *Allocator) *OrderBook {
	ob := &OrderBook{
		alloc:             alloc,
		tickerID:          tickerID,
		engine:            engine,
		nextMarketOrderID: 1,
	}
	ob.bids.Init(&alloc.levelLadderElement)
	ob.asks.Init(&alloc.levelLadderElement)
	return ob
}

// TickerID returns the instrument of the book.
func (ob *OrderBook) TickerID() wire.TickerID {
	return ob.tickerID
}

// Size returns the number of live orders in the book.
func (ob *OrderBook) Size() int {
	return ob.liveOrders
}

// BestBid returns the most aggressive bid level, nil when the side is empty.
func (ob *OrderBook) BestBid() *PriceLevel {
	if e := ob.bids.Front(); e != nil {
		return e.Value
	}
	return nil
}

// BestAsk returns the most aggressive ask level, nil when the side is empty.
func (ob *OrderBook) BestAsk() *PriceLevel {
	if e := ob.asks.Front(); e != nil {
		return e.Value
	}
	return nil
}

// Order returns the live order with the given client order id, nil if none.
func (ob *OrderBook) Order(clientID wire.ClientID, clientOrderID wire.OrderID) *Order {
	if clientID >= wire.MaxClients {
		return nil
	}
	if m := ob.clientOrders[clientID]; m != nil {
		if order, ok := m.Get(uint64(clientOrderID)); ok {
			return order
		}
	}
	return nil
}

// TradedQty returns the cumulative traded quantity of the instrument.
func (ob *OrderBook) TradedQty() uint64 {
	return ob.tradedQty
}

// TradedNotional returns the cumulative price*qty turnover of the
// instrument. 128 bits: at full capacity the sum does not fit 64.
func (ob *OrderBook) TradedNotional() uint128.Uint128 {
	return ob.tradedNotional
}

////////////////////////////////////////////////////////////////
// Order entry
////////////////////////////////////////////////////////////////

// Add processes a NEW request: assigns the market order id, acknowledges,
// crosses against the opposite side and rests any remainder.
func (ob *OrderBook) Add(clientID wire.ClientID, clientOrderID wire.OrderID, side wire.Side, price wire.Price, qty wire.Qty) {
	marketOrderID := ob.nextMarketOrderID
	ob.nextMarketOrderID++

	ob.engine.sendClientResponse(&wire.MEClientResponse{
		Type:          wire.ClientResponseTypeAccepted,
		ClientID:      clientID,
		TickerID:      ob.tickerID,
		ClientOrderID: clientOrderID,
		MarketOrderID: marketOrderID,
		Side:          side,
		Price:         price,
		ExecQty:       0,
		LeavesQty:     qty,
	})

	leaves := ob.checkForMatch(clientID, clientOrderID, side, price, qty, marketOrderID)

	if leaves > 0 {
		priority := ob.nextPriority(price)
		order := ob.alloc.GetOrder()
		*order = Order{
			tickerID:      ob.tickerID,
			clientID:      clientID,
			clientOrderID: clientOrderID,
			marketOrderID: marketOrderID,
			side:          side,
			price:         price,
			qty:           leaves,
			priority:      priority,
		}
		ob.addOrder(order)

		ob.engine.sendMarketUpdate(&wire.MEMarketUpdate{
			Type:     wire.MarketUpdateTypeAdd,
			OrderID:  marketOrderID,
			TickerID: ob.tickerID,
			Side:     side,
			Price:    price,
			Qty:      leaves,
			Priority: priority,
		})
	}
}

// Cancel processes a CANCEL request, rejecting cancels of unknown or
// foreign orders.
func (ob *OrderBook) Cancel(clientID wire.ClientID, orderID wire.OrderID) {
	order := ob.Order(clientID, orderID)
	if order == nil {
		ob.engine.sendClientResponse(&wire.MEClientResponse{
			Type:          wire.ClientResponseTypeCancelRejected,
			ClientID:      clientID,
			TickerID:      ob.tickerID,
			ClientOrderID: orderID,
			MarketOrderID: wire.OrderIDInvalid,
			Side:          wire.SideInvalid,
			Price:         wire.PriceInvalid,
			ExecQty:       wire.QtyInvalid,
			LeavesQty:     wire.QtyInvalid,
		})
		return
	}

	ob.engine.sendMarketUpdate(&wire.MEMarketUpdate{
		Type:     wire.MarketUpdateTypeCancel,
		OrderID:  order.marketOrderID,
		TickerID: ob.tickerID,
		Side:     order.side,
		Price:    order.price,
		Qty:      0,
		Priority: order.priority,
	})
	ob.engine.sendClientResponse(&wire.MEClientResponse{
		Type:          wire.ClientResponseTypeCanceled,
		ClientID:      clientID,
		TickerID:      ob.tickerID,
		ClientOrderID: orderID,
		MarketOrderID: order.marketOrderID,
		Side:          order.side,
		Price:         order.price,
		ExecQty:       wire.QtyInvalid,
		LeavesQty:     order.qty,
	})
	ob.removeOrder(order)
}

// Clear removes every order and level and emits a CLEAR market update.
func (ob *OrderBook) Clear() {
	ob.clearLadder(&ob.bids)
	ob.clearLadder(&ob.asks)
	for i := range ob.clientOrders {
		ob.clientOrders[i] = nil
	}
	ob.liveOrders = 0

	ob.engine.sendMarketUpdate(&wire.MEMarketUpdate{
		Type:     wire.MarketUpdateTypeClear,
		OrderID:  wire.OrderIDInvalid,
		TickerID: ob.tickerID,
		Side:     wire.SideInvalid,
		Price:    wire.PriceInvalid,
		Qty:      wire.QtyInvalid,
		Priority: wire.PriorityInvalid,
	})
}

func (ob *OrderBook) clearLadder(ladder *list.List[*PriceLevel]) {
	for e := ladder.Front(); e != nil; e = e.Next() {
		priceLevel := e.Value
		for o := priceLevel.queue.Front(); o != nil; o = o.Next() {
			ob.alloc.PutOrder(o.Value)
		}
		ob.priceLevels[priceIndex(priceLevel.price)] = nil
		ob.alloc.PutPriceLevel(priceLevel)
	}
	ladder.Clean()
}

////////////////////////////////////////////////////////////////
// Matching
////////////////////////////////////////////////////////////////

// checkForMatch crosses the aggressive order against the opposite side for
// as long as the price allows and quantity remains, matching only the FIFO
// head of the best level per iteration; the loop re-enters the same level
// until it empties. Returns the unmatched remainder.
func (ob *OrderBook) checkForMatch(clientID wire.ClientID, clientOrderID wire.OrderID, side wire.Side, price wire.Price, qty wire.Qty, marketOrderID wire.OrderID) wire.Qty {
	leaves := qty

	if side == wire.SideBuy {
		for leaves > 0 {
			best := ob.BestAsk()
			if best == nil || price < best.price {
				break
			}
			leaves = ob.match(clientID, clientOrderID, side, marketOrderID, best.Front(), leaves)
		}
	}
	if side == wire.SideSell {
		for leaves > 0 {
			best := ob.BestBid()
			if best == nil || price > best.price {
				break
			}
			leaves = ob.match(clientID, clientOrderID, side, marketOrderID, best.Front(), leaves)
		}
	}

	return leaves
}

// match fills the aggressive order against one passive order, emitting both
// FILLED responses (aggressor first), the TRADE update and the passive
// order's MODIFY or CANCEL update.
func (ob *OrderBook) match(clientID wire.ClientID, clientOrderID wire.OrderID, side wire.Side, marketOrderID wire.OrderID, passive *Order, leaves wire.Qty) wire.Qty {
	passiveQty := passive.qty
	fillQty := min(leaves, passiveQty)

	leaves -= fillQty
	passive.qty -= fillQty

	ob.engine.sendClientResponse(&wire.MEClientResponse{
		Type:          wire.ClientResponseTypeFilled,
		ClientID:      clientID,
		TickerID:      ob.tickerID,
		ClientOrderID: clientOrderID,
		MarketOrderID: marketOrderID,
		Side:          side,
		Price:         passive.price,
		ExecQty:       fillQty,
		LeavesQty:     leaves,
	})
	ob.engine.sendClientResponse(&wire.MEClientResponse{
		Type:          wire.ClientResponseTypeFilled,
		ClientID:      passive.clientID,
		TickerID:      ob.tickerID,
		ClientOrderID: passive.clientOrderID,
		MarketOrderID: passive.marketOrderID,
		Side:          passive.side,
		Price:         passive.price,
		ExecQty:       fillQty,
		LeavesQty:     passive.qty,
	})

	ob.engine.sendMarketUpdate(&wire.MEMarketUpdate{
		Type:     wire.MarketUpdateTypeTrade,
		OrderID:  wire.OrderIDInvalid,
		TickerID: ob.tickerID,
		Side:     side,
		Price:    passive.price,
		Qty:      fillQty,
		Priority: wire.PriorityInvalid,
	})

	ob.tradedQty += uint64(fillQty)
	ob.tradedNotional = ob.tradedNotional.Add(uint128.From64(uint64(passive.price)).Mul64(uint64(fillQty)))

	if passive.qty == 0 {
		ob.engine.sendMarketUpdate(&wire.MEMarketUpdate{
			Type:     wire.MarketUpdateTypeCancel,
			OrderID:  passive.marketOrderID,
			TickerID: ob.tickerID,
			Side:     passive.side,
			Price:    passive.price,
			Qty:      passiveQty,
			Priority: wire.PriorityInvalid,
		})
		ob.removeOrder(passive)
	} else {
		ob.engine.sendMarketUpdate(&wire.MEMarketUpdate{
			Type:     wire.MarketUpdateTypeModify,
			OrderID:  passive.marketOrderID,
			TickerID: ob.tickerID,
			Side:     passive.side,
			Price:    passive.price,
			Qty:      passive.qty,
			Priority: passive.priority,
		})
	}

	return leaves
}

////////////////////////////////////////////////////////////////
// Orders management
////////////////////////////////////////////////////////////////

func (ob *OrderBook) addOrder(order *Order) {
	priceLevel := ob.levelAt(order.price)
	if priceLevel == nil {
		priceLevel = ob.addPriceLevel(order.side, order.price)
	}
	order.queued = priceLevel.queue.PushBack(order)
	order.level = priceLevel

	if order.clientID >= wire.MaxClients {
		panic(fmt.Sprintf("order book %d: client id %d out of range", ob.tickerID, order.clientID))
	}
	m := ob.clientOrders[order.clientID]
	if m == nil {
		m = hashmap.New[uint64, *Order](reservedClientOrderSlots)
		ob.clientOrders[order.clientID] = m
	}
	m.Set(uint64(order.clientOrderID), order)
	ob.liveOrders++
}

func (ob *OrderBook) removeOrder(order *Order) {
	priceLevel := order.level
	priceLevel.queue.Remove(order.queued)
	order.queued = nil
	order.level = nil

	if priceLevel.queue.Len() == 0 {
		ob.removePriceLevel(priceLevel)
	}

	ob.clientOrders[order.clientID].Delete(uint64(order.clientOrderID))
	ob.liveOrders--
	ob.alloc.PutOrder(order)
}

////////////////////////////////////////////////////////////////
// Price levels management
////////////////////////////////////////////////////////////////

func priceIndex(price wire.Price) int {
	idx := int(price % wire.MaxPriceLevels)
	if idx < 0 {
		idx += wire.MaxPriceLevels
	}
	return idx
}

// levelAt returns the level at the given price, nil when there is none.
// A foreign level in the direct-mapped slot means the active price window
// outgrew the map.
func (ob *OrderBook) levelAt(price wire.Price) *PriceLevel {
	priceLevel := ob.priceLevels[priceIndex(price)]
	if priceLevel != nil && priceLevel.price != price {
		panic(fmt.Sprintf("order book %d: price level collision between %d and %d", ob.tickerID, priceLevel.price, price))
	}
	return priceLevel
}

// nextPriority returns the time priority for a new order at the price:
// one past the youngest resting order, or 1 on a fresh level.
func (ob *OrderBook) nextPriority(price wire.Price) wire.Priority {
	if priceLevel := ob.levelAt(price); priceLevel != nil {
		if back := priceLevel.Back(); back != nil {
			return back.priority + 1
		}
	}
	return 1
}

func (ob *OrderBook) addPriceLevel(side wire.Side, price wire.Price) *PriceLevel {
	priceLevel := ob.alloc.GetPriceLevel()
	priceLevel.side = side
	priceLevel.price = price

	ladder := &ob.asks
	if side == wire.SideBuy {
		ladder = &ob.bids
	}

	// Walk from the best level to the first one worse than price
	var at *list.Element[*PriceLevel]
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

	ob.priceLevels[priceIndex(price)] = priceLevel
	return priceLevel
}

func (ob *OrderBook) removePriceLevel(priceLevel *PriceLevel) {
	ladder := &ob.asks
	if priceLevel.side == wire.SideBuy {
		ladder = &ob.bids
	}
	ladder.Remove(priceLevel.entry)
	priceLevel.entry = nil
	ob.priceLevels[priceIndex(priceLevel.price)] = nil
	ob.alloc.PutPriceLevel(priceLevel)
}
