package trading

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"lukechampine.com/uint128"

	"github.com/helixtrading/helix-venue/wire"
)

// PositionInfo tracks the position, pnl and traded volume of one
// instrument. The open VWAP accumulators hold the running sum of
// price*qty for the side that opened the position; dividing by the
// absolute position yields the open volume-weighted average price.
type PositionInfo struct {
	Position  int64
	RealPnL   float64
	UnrealPnL float64
	TotalPnL  float64

	// Open VWAP accumulators, indexed by Side.Index
	OpenVWAP [2]float64

	Volume uint64

	// Cumulative price*qty turnover; 128 bits so it cannot wrap
	Turnover uint128.Uint128

	bbo BBO
}

func (p *PositionInfo) String() string {
	return fmt.Sprintf("Position[pos:%d u-pnl:%.2f r-pnl:%.2f t-pnl:%.2f vol:%d]",
		p.Position, p.UnrealPnL, p.RealPnL, p.TotalPnL, p.Volume)
}

// addFill folds one execution into the position and recomputes pnl.
func (p *PositionInfo) addFill(response *wire.MEClientResponse) {
	oldPosition := p.Position
	sideIndex := response.Side.Index()
	oppIndex := response.Side.Opposite().Index()
	sideValue := response.Side.Value()
	execQty := int64(response.ExecQty)
	price := float64(response.Price)

	p.Position += execQty * sideValue
	p.Volume += uint64(response.ExecQty)
	p.Turnover = p.Turnover.Add(uint128.From64(uint64(response.Price)).Mul64(uint64(response.ExecQty)))

	if oldPosition*sideValue >= 0 { // opened / increased position
		p.OpenVWAP[sideIndex] += price * float64(execQty)
	} else { // decreased position
		oppVWAP := p.OpenVWAP[oppIndex] / math.Abs(float64(oldPosition))
		p.OpenVWAP[oppIndex] = oppVWAP * math.Abs(float64(p.Position))
		p.RealPnL += math.Min(float64(execQty), math.Abs(float64(oldPosition))) *
			(oppVWAP - price) * float64(sideValue)
		if p.Position*oldPosition < 0 { // flipped position to opposite sign
			p.OpenVWAP[sideIndex] = price * math.Abs(float64(p.Position))
			p.OpenVWAP[oppIndex] = 0
		}
	}

	if p.Position == 0 { // flat
		p.OpenVWAP[0], p.OpenVWAP[1] = 0, 0
		p.UnrealPnL = 0
	} else if p.Position > 0 {
		p.UnrealPnL = (price - p.OpenVWAP[wire.SideBuy.Index()]/math.Abs(float64(p.Position))) *
			math.Abs(float64(p.Position))
	} else {
		p.UnrealPnL = (p.OpenVWAP[wire.SideSell.Index()]/math.Abs(float64(p.Position)) - price) *
			math.Abs(float64(p.Position))
	}

	p.TotalPnL = p.UnrealPnL + p.RealPnL
}

// updateBBO recomputes unrealized pnl against the mid-price of a fresh BBO
// while a position is open.
func (p *PositionInfo) updateBBO(bbo *BBO) {
	p.bbo = *bbo

	if p.Position == 0 || !bbo.Valid() {
		return
	}
	midPrice := float64(bbo.BidPrice+bbo.AskPrice) * 0.5
	if p.Position > 0 {
		p.UnrealPnL = (midPrice - p.OpenVWAP[wire.SideBuy.Index()]/math.Abs(float64(p.Position))) *
			math.Abs(float64(p.Position))
	} else {
		p.UnrealPnL = (p.OpenVWAP[wire.SideSell.Index()]/math.Abs(float64(p.Position)) - midPrice) *
			math.Abs(float64(p.Position))
	}
	p.TotalPnL = p.UnrealPnL + p.RealPnL
}

// PositionKeeper tracks positions, pnl and volume across all instruments.
type PositionKeeper struct {
	positions [wire.MaxTickers]PositionInfo

	log *zap.Logger
}

// NewPositionKeeper creates a flat PositionKeeper.
func NewPositionKeeper(log *zap.Logger) *PositionKeeper {
	return &PositionKeeper{log: log}
}

// AddFill processes one FILLED client response.
func (k *PositionKeeper) AddFill(response *wire.MEClientResponse) {
	if response.TickerID >= wire.MaxTickers {
		panic(fmt.Sprintf("position keeper: unknown ticker on response %s", response.String()))
	}
	p := &k.positions[response.TickerID]
	p.addFill(response)
	k.log.Info("fill applied",
		zap.Uint32("ticker", uint32(response.TickerID)),
		zap.String("position", p.String()))
}

// UpdateBBO refreshes unrealized pnl for the instrument's open position.
func (k *PositionKeeper) UpdateBBO(tickerID wire.TickerID, bbo *BBO) {
	if tickerID >= wire.MaxTickers {
		return
	}
	k.positions[tickerID].updateBBO(bbo)
}

// PositionInfo returns the record of one instrument.
func (k *PositionKeeper) PositionInfo(tickerID wire.TickerID) *PositionInfo {
	return &k.positions[tickerID]
}
