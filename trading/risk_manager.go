package trading

import (
	"math"

	"github.com/helixtrading/helix-venue/wire"
)

// RiskCheckResult is the outcome of a pre-trade risk check.
type RiskCheckResult uint8

const (
	RiskCheckResultInvalid          RiskCheckResult = 0
	RiskCheckResultOrderTooLarge    RiskCheckResult = 1
	RiskCheckResultPositionTooLarge RiskCheckResult = 2
	RiskCheckResultLossTooLarge     RiskCheckResult = 3
	RiskCheckResultAllowed          RiskCheckResult = 4
)

func (r RiskCheckResult) String() string {
	switch r {
	case RiskCheckResultOrderTooLarge:
		return "ORDER_TOO_LARGE"
	case RiskCheckResultPositionTooLarge:
		return "POSITION_TOO_LARGE"
	case RiskCheckResultLossTooLarge:
		return "LOSS_TOO_LARGE"
	case RiskCheckResultAllowed:
		return "ALLOWED"
	}
	return "INVALID"
}

// RiskCfg is the static per-instrument risk configuration. MaxLoss is a
// negative pnl bound: total pnl below it blocks new orders.
type RiskCfg struct {
	MaxOrderSize wire.Qty
	MaxPosition  wire.Qty
	MaxLoss      float64
}

// riskInfo couples one instrument's risk configuration with its live
// position record.
type riskInfo struct {
	position *PositionInfo
	cfg      RiskCfg
}

// checkPreTradeRisk checks whether an order of the given side and quantity
// may be sent. Position and loss are checked against the post-fill
// projection.
func (r *riskInfo) checkPreTradeRisk(side wire.Side, qty wire.Qty) RiskCheckResult {
	if qty > r.cfg.MaxOrderSize {
		return RiskCheckResultOrderTooLarge
	}
	if math.Abs(float64(r.position.Position+side.Value()*int64(qty))) > float64(r.cfg.MaxPosition) {
		return RiskCheckResultPositionTooLarge
	}
	if r.position.TotalPnL < r.cfg.MaxLoss {
		return RiskCheckResultLossTooLarge
	}
	return RiskCheckResultAllowed
}

// RiskManager performs pre-trade risk checks across all instruments.
// Risk is purely client-side: the venue itself never rejects for risk.
type RiskManager struct {
	risk [wire.MaxTickers]riskInfo
}

// NewRiskManager wires per-instrument configs to the position keeper.
func NewRiskManager(positionKeeper *PositionKeeper, cfg *[wire.MaxTickers]TradeEngineCfg) *RiskManager {
	m := &RiskManager{}
	for i := range m.risk {
		m.risk[i] = riskInfo{
			position: positionKeeper.PositionInfo(wire.TickerID(i)),
			cfg:      cfg[i].Risk,
		}
	}
	return m
}

// CheckPreTradeRisk checks an order of the given instrument, side and
// quantity.
func (m *RiskManager) CheckPreTradeRisk(tickerID wire.TickerID, side wire.Side, qty wire.Qty) RiskCheckResult {
	if tickerID >= wire.MaxTickers {
		return RiskCheckResultInvalid
	}
	return m.risk[tickerID].checkPreTradeRisk(side, qty)
}
