package trading

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helixtrading/helix-venue/wire"
)

func fill(side wire.Side, price wire.Price, qty wire.Qty) wire.MEClientResponse {
	return wire.MEClientResponse{
		Type:     wire.ClientResponseTypeFilled,
		ClientID: 1,
		TickerID: 0,
		Side:     side,
		Price:    price,
		ExecQty:  qty,
	}
}

func TestRoundTripRealizedPnL(t *testing.T) {
	k := NewPositionKeeper(zap.NewNop())

	buy := fill(wire.SideBuy, 50, 10)
	k.AddFill(&buy)
	p := k.PositionInfo(0)
	require.Equal(t, int64(10), p.Position)
	require.Equal(t, float64(500), p.OpenVWAP[wire.SideBuy.Index()])

	sell := fill(wire.SideSell, 53, 10)
	k.AddFill(&sell)

	require.Equal(t, int64(0), p.Position)
	require.InDelta(t, 30.0, p.RealPnL, 1e-9) // 10 * (53 - 50)
	require.Equal(t, 0.0, p.UnrealPnL)
	require.InDelta(t, 30.0, p.TotalPnL, 1e-9)
	require.Equal(t, 0.0, p.OpenVWAP[0])
	require.Equal(t, 0.0, p.OpenVWAP[1])
	require.Equal(t, uint64(20), p.Volume)
	require.Equal(t, uint64(10*50+10*53), p.Turnover.Lo)
}

func TestPartialReduce(t *testing.T) {
	k := NewPositionKeeper(zap.NewNop())

	buy := fill(wire.SideBuy, 100, 10)
	k.AddFill(&buy)
	sell := fill(wire.SideSell, 110, 4)
	k.AddFill(&sell)

	p := k.PositionInfo(0)
	require.Equal(t, int64(6), p.Position)
	require.InDelta(t, 40.0, p.RealPnL, 1e-9) // 4 * (110 - 100)
	// Open VWAP of the remaining 6 still 100, marked at the fill price.
	require.InDelta(t, 60.0, p.UnrealPnL, 1e-9) // 6 * (110 - 100)
	require.InDelta(t, 100.0, p.TotalPnL, 1e-9)
}

func TestPositionFlip(t *testing.T) {
	k := NewPositionKeeper(zap.NewNop())

	buy := fill(wire.SideBuy, 100, 4)
	k.AddFill(&buy)
	sell := fill(wire.SideSell, 90, 10)
	k.AddFill(&sell)

	p := k.PositionInfo(0)
	require.Equal(t, int64(-6), p.Position)
	require.InDelta(t, -40.0, p.RealPnL, 1e-9) // closed 4 at -10 each
	// The short side reopens at the flip price.
	require.InDelta(t, 90.0*6, p.OpenVWAP[wire.SideSell.Index()], 1e-9)
	require.Equal(t, 0.0, p.OpenVWAP[wire.SideBuy.Index()])
	require.Equal(t, 0.0, p.UnrealPnL)
}

func TestShortSideRoundTrip(t *testing.T) {
	k := NewPositionKeeper(zap.NewNop())

	sell := fill(wire.SideSell, 80, 5)
	k.AddFill(&sell)
	p := k.PositionInfo(0)
	require.Equal(t, int64(-5), p.Position)

	buy := fill(wire.SideBuy, 70, 5)
	k.AddFill(&buy)
	require.Equal(t, int64(0), p.Position)
	require.InDelta(t, 50.0, p.RealPnL, 1e-9) // 5 * (80 - 70)
}

func TestUnrealizedFollowsBBO(t *testing.T) {
	k := NewPositionKeeper(zap.NewNop())

	buy := fill(wire.SideBuy, 100, 10)
	k.AddFill(&buy)

	bbo := &BBO{BidPrice: 104, AskPrice: 106, BidQty: 1, AskQty: 1}
	k.UpdateBBO(0, bbo)

	p := k.PositionInfo(0)
	require.InDelta(t, 50.0, p.UnrealPnL, 1e-9) // 10 * (105 - 100)
	require.InDelta(t, 50.0, p.TotalPnL, 1e-9)

	// One-sided book leaves the mark untouched.
	oneSided := &BBO{BidPrice: wire.PriceInvalid, AskPrice: 106}
	k.UpdateBBO(0, oneSided)
	require.InDelta(t, 50.0, p.UnrealPnL, 1e-9)
}

func TestFlatPositionIgnoresBBO(t *testing.T) {
	k := NewPositionKeeper(zap.NewNop())
	bbo := &BBO{BidPrice: 104, AskPrice: 106, BidQty: 1, AskQty: 1}
	k.UpdateBBO(0, bbo)
	require.Equal(t, 0.0, k.PositionInfo(0).UnrealPnL)
}
