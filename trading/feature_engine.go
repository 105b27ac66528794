package trading

import (
	"math"

	"go.uber.org/zap"

	"github.com/helixtrading/helix-venue/wire"
)

// FeatureInvalid marks a feature that has no defined value yet.
var FeatureInvalid = math.NaN()

// FeatureEngine computes the two signals the sample algorithms trade on:
// a quantity-weighted fair market price and the ratio of aggressive trade
// quantity to the BBO quantity it hit.
type FeatureEngine struct {
	mktPrice         float64
	aggTradeQtyRatio float64

	log *zap.Logger
}

// NewFeatureEngine creates a FeatureEngine with undefined features.
func NewFeatureEngine(log *zap.Logger) *FeatureEngine {
	return &FeatureEngine{
		mktPrice:         FeatureInvalid,
		aggTradeQtyRatio: FeatureInvalid,
		log:              log,
	}
}

// OnOrderBookUpdate recomputes the fair market price from the fresh BBO.
func (f *FeatureEngine) OnOrderBookUpdate(tickerID wire.TickerID, price wire.Price, side wire.Side, book *MarketOrderBook) {
	bbo := book.BBO()
	if bbo.Valid() && bbo.BidQty+bbo.AskQty > 0 {
		f.mktPrice = (float64(bbo.BidPrice)*float64(bbo.AskQty) + float64(bbo.AskPrice)*float64(bbo.BidQty)) /
			float64(bbo.BidQty+bbo.AskQty)
	}
}

// OnTradeUpdate recomputes the aggressive-trade-quantity ratio against the
// BBO side the trade consumed.
func (f *FeatureEngine) OnTradeUpdate(update *wire.MEMarketUpdate, book *MarketOrderBook) {
	bbo := book.BBO()
	if bbo.Valid() {
		against := bbo.BidQty
		if update.Side == wire.SideBuy {
			against = bbo.AskQty
		}
		if against > 0 {
			f.aggTradeQtyRatio = float64(update.Qty) / float64(against)
		}
	}
}

// MktPrice returns the fair market price feature.
func (f *FeatureEngine) MktPrice() float64 {
	return f.mktPrice
}

// AggTradeQtyRatio returns the aggressive trade quantity ratio feature.
func (f *FeatureEngine) AggTradeQtyRatio() float64 {
	return f.aggTradeQtyRatio
}
