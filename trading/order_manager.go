package trading

import (
	"go.uber.org/zap"

	"github.com/helixtrading/helix-venue/wire"
)

//go:generate mockgen -destination=mocks/interfaces.go -package=mocktrading . RequestSender

// RequestSender is where the order manager hands outbound client requests.
// The trade engine implements it by pushing onto the gateway ring.
type RequestSender interface {
	SendClientRequest(request *wire.MEClientRequest)
}

// OrderManager keeps at most one live order per instrument and side and
// hides order state tracking from the trading algorithms. MoveOrders is the
// whole API an algorithm needs: say where the two orders should be and the
// manager converges through NEW and CANCEL requests.
type OrderManager struct {
	sender RequestSender
	risk   *RiskManager

	clientID wire.ClientID

	// One managed order per instrument and side
	orders [wire.MaxTickers][2]OMOrder

	// Used to set order ids on outgoing new order requests
	nextOrderID wire.OrderID

	log *zap.Logger
}

// NewOrderManager creates an OrderManager sending through the given sender.
func NewOrderManager(clientID wire.ClientID, sender RequestSender, risk *RiskManager, log *zap.Logger) *OrderManager {
	return &OrderManager{
		sender:      sender,
		risk:        risk,
		clientID:    clientID,
		nextOrderID: 1,
		log:         log,
	}
}

// SideOrder returns the managed order of the instrument and side.
func (m *OrderManager) SideOrder(tickerID wire.TickerID, side wire.Side) *OMOrder {
	return &m.orders[tickerID][side.Index()]
}

// OnOrderUpdate advances the managed order's state from a client response.
func (m *OrderManager) OnOrderUpdate(response *wire.MEClientResponse) {
	if response.Side == wire.SideInvalid {
		// Cancel rejects carry no side; there is no slot to update.
		return
	}
	order := m.SideOrder(response.TickerID, response.Side)
	if order.OrderID != response.ClientOrderID {
		return
	}

	switch response.Type {
	case wire.ClientResponseTypeAccepted:
		order.State = OMOrderStateLive
	case wire.ClientResponseTypeCanceled:
		order.State = OMOrderStateDead
	case wire.ClientResponseTypeFilled:
		order.Qty = response.LeavesQty
		if order.Qty == 0 {
			order.State = OMOrderStateDead
		}
	case wire.ClientResponseTypeCancelRejected, wire.ClientResponseTypeInvalid:
	}
}

// MoveOrders converges both sides of an instrument to the requested prices
// with the given clip. An invalid price on a side means no order there.
func (m *OrderManager) MoveOrders(tickerID wire.TickerID, bidPrice, askPrice wire.Price, clip wire.Qty) {
	m.moveOrder(m.SideOrder(tickerID, wire.SideBuy), tickerID, bidPrice, wire.SideBuy, clip)
	m.moveOrder(m.SideOrder(tickerID, wire.SideSell), tickerID, askPrice, wire.SideSell, clip)
}

// moveOrder converges a single managed order to the requested price.
// In-flight orders are left alone until their response arrives.
func (m *OrderManager) moveOrder(order *OMOrder, tickerID wire.TickerID, price wire.Price, side wire.Side, qty wire.Qty) {
	switch order.State {
	case OMOrderStateLive:
		if order.Price != price {
			m.cancelOrder(order)
		}
	case OMOrderStateInvalid, OMOrderStateDead:
		if price != wire.PriceInvalid {
			result := m.risk.CheckPreTradeRisk(tickerID, side, qty)
			if result == RiskCheckResultAllowed {
				m.newOrder(order, tickerID, price, side, qty)
			} else {
				m.log.Warn("risk check blocked order",
					zap.Uint32("ticker", uint32(tickerID)),
					zap.String("side", side.String()),
					zap.String("qty", qty.String()),
					zap.String("result", result.String()))
			}
		}
	case OMOrderStatePendingNew, OMOrderStatePendingCancel:
	}
}

// newOrder sends a NEW request and marks the slot pending.
func (m *OrderManager) newOrder(order *OMOrder, tickerID wire.TickerID, price wire.Price, side wire.Side, qty wire.Qty) {
	request := wire.MEClientRequest{
		Type:     wire.ClientRequestTypeNew,
		ClientID: m.clientID,
		TickerID: tickerID,
		OrderID:  m.nextOrderID,
		Side:     side,
		Price:    price,
		Qty:      qty,
	}
	m.sender.SendClientRequest(&request)

	*order = OMOrder{
		TickerID: tickerID,
		OrderID:  m.nextOrderID,
		Side:     side,
		Price:    price,
		Qty:      qty,
		State:    OMOrderStatePendingNew,
	}
	m.nextOrderID++
}

// cancelOrder sends a CANCEL for the managed order and marks it pending.
func (m *OrderManager) cancelOrder(order *OMOrder) {
	request := wire.MEClientRequest{
		Type:     wire.ClientRequestTypeCancel,
		ClientID: m.clientID,
		TickerID: order.TickerID,
		OrderID:  order.OrderID,
		Side:     order.Side,
		Price:    order.Price,
		Qty:      order.Qty,
	}
	m.sender.SendClientRequest(&request)

	order.State = OMOrderStatePendingCancel
}
