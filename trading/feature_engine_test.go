package trading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helixtrading/helix-venue/wire"
)

func TestFeaturesUndefinedAtStart(t *testing.T) {
	f := NewFeatureEngine(zap.NewNop())
	require.True(t, math.IsNaN(f.MktPrice()))
	require.True(t, math.IsNaN(f.AggTradeQtyRatio()))
}

func TestFairPriceIsQtyWeighted(t *testing.T) {
	f := NewFeatureEngine(zap.NewNop())
	ob := NewMarketOrderBook(0, 64, zap.NewNop())

	u := mdAdd(1, wire.SideBuy, 100, 3, 1)
	ob.OnMarketUpdate(&u)
	u = mdAdd(2, wire.SideSell, 102, 1, 1)
	ob.OnMarketUpdate(&u)

	f.OnOrderBookUpdate(0, 100, wire.SideBuy, ob)
	// (100*1 + 102*3) / (3+1)
	require.InDelta(t, 101.5, f.MktPrice(), 1e-9)
}

func TestAggTradeQtyRatio(t *testing.T) {
	f := NewFeatureEngine(zap.NewNop())
	ob := NewMarketOrderBook(0, 64, zap.NewNop())

	u := mdAdd(1, wire.SideBuy, 100, 10, 1)
	ob.OnMarketUpdate(&u)
	u = mdAdd(2, wire.SideSell, 102, 4, 1)
	ob.OnMarketUpdate(&u)

	trade := wire.MEMarketUpdate{
		Type: wire.MarketUpdateTypeTrade, TickerID: 0,
		Side: wire.SideBuy, Price: 102, Qty: 2,
	}
	f.OnTradeUpdate(&trade, ob)
	require.InDelta(t, 0.5, f.AggTradeQtyRatio(), 1e-9) // 2 against 4 resting asks
}
