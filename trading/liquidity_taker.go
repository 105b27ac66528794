package trading

import (
	"math"

	"go.uber.org/zap"

	"github.com/helixtrading/helix-venue/wire"
)

// LiquidityTaker sends aggressive one-sided orders when the ratio of
// aggressive trade quantity to BBO quantity crosses the configured
// threshold, following the direction of the trade flow.
type LiquidityTaker struct {
	featureEngine *FeatureEngine
	orderManager  *OrderManager

	cfg *[wire.MaxTickers]TradeEngineCfg

	log *zap.Logger
}

// NewLiquidityTaker creates the algorithm and claims the trade engine's
// callbacks.
func NewLiquidityTaker(engine *TradeEngine, featureEngine *FeatureEngine, orderManager *OrderManager,
	cfg *[wire.MaxTickers]TradeEngineCfg, log *zap.Logger) *LiquidityTaker {
	t := &LiquidityTaker{
		featureEngine: featureEngine,
		orderManager:  orderManager,
		cfg:           cfg,
		log:           log,
	}
	engine.algoOnOrderBookUpdate = t.onOrderBookUpdate
	engine.algoOnTradeUpdate = t.onTradeUpdate
	engine.algoOnOrderUpdate = t.onOrderUpdate
	return t
}

// onOrderBookUpdate: book changes do not drive the liquidity taking
// algorithm.
func (t *LiquidityTaker) onOrderBookUpdate(tickerID wire.TickerID, price wire.Price, side wire.Side, book *MarketOrderBook) {
}

// onTradeUpdate fires an aggressive order in the direction of strong trade
// flow.
func (t *LiquidityTaker) onTradeUpdate(update *wire.MEMarketUpdate, book *MarketOrderBook) {
	bbo := book.BBO()
	aggQtyRatio := t.featureEngine.AggTradeQtyRatio()
	if !bbo.Valid() || math.IsNaN(aggQtyRatio) {
		return
	}

	clip := t.cfg[update.TickerID].Clip
	threshold := t.cfg[update.TickerID].Threshold

	if aggQtyRatio >= threshold {
		if update.Side == wire.SideBuy {
			t.orderManager.MoveOrders(update.TickerID, bbo.AskPrice, wire.PriceInvalid, clip)
		} else {
			t.orderManager.MoveOrders(update.TickerID, wire.PriceInvalid, bbo.BidPrice, clip)
		}
	}
}

// onOrderUpdate forwards responses to the order manager.
func (t *LiquidityTaker) onOrderUpdate(response *wire.MEClientResponse) {
	t.orderManager.OnOrderUpdate(response)
}
