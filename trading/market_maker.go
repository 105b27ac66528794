package trading

import (
	"math"

	"go.uber.org/zap"

	"github.com/helixtrading/helix-venue/wire"
)

// MarketMaker quotes both sides of every instrument around the feature
// engine's fair price: it joins the BBO when the edge to fair value is at
// least the configured threshold, otherwise steps one tick away from it.
type MarketMaker struct {
	featureEngine *FeatureEngine
	orderManager  *OrderManager

	cfg *[wire.MaxTickers]TradeEngineCfg

	log *zap.Logger
}

// NewMarketMaker creates the algorithm and claims the trade engine's
// callbacks.
func NewMarketMaker(engine *TradeEngine, featureEngine *FeatureEngine, orderManager *OrderManager,
	cfg *[wire.MaxTickers]TradeEngineCfg, log *zap.Logger) *MarketMaker {
	m := &MarketMaker{
		featureEngine: featureEngine,
		orderManager:  orderManager,
		cfg:           cfg,
		log:           log,
	}
	engine.algoOnOrderBookUpdate = m.onOrderBookUpdate
	engine.algoOnTradeUpdate = m.onTradeUpdate
	engine.algoOnOrderUpdate = m.onOrderUpdate
	return m
}

// onOrderBookUpdate requotes around the fresh fair price.
func (m *MarketMaker) onOrderBookUpdate(tickerID wire.TickerID, price wire.Price, side wire.Side, book *MarketOrderBook) {
	bbo := book.BBO()
	fairPrice := m.featureEngine.MktPrice()
	if !bbo.Valid() || math.IsNaN(fairPrice) {
		return
	}

	clip := m.cfg[tickerID].Clip
	threshold := m.cfg[tickerID].Threshold

	bidPrice := bbo.BidPrice
	if fairPrice-float64(bbo.BidPrice) < threshold {
		bidPrice--
	}
	askPrice := bbo.AskPrice
	if float64(bbo.AskPrice)-fairPrice < threshold {
		askPrice++
	}

	m.orderManager.MoveOrders(tickerID, bidPrice, askPrice, clip)
}

// onTradeUpdate: trade events do not drive the market making algorithm.
func (m *MarketMaker) onTradeUpdate(update *wire.MEMarketUpdate, book *MarketOrderBook) {
}

// onOrderUpdate forwards responses to the order manager.
func (m *MarketMaker) onOrderUpdate(response *wire.MEClientResponse) {
	m.orderManager.OnOrderUpdate(response)
}
