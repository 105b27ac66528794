package trading

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/helixtrading/helix-venue/types/ring"
	"github.com/helixtrading/helix-venue/wire"
)

// AlgoType selects the trading algorithm wired into the engine at startup.
type AlgoType uint8

const (
	AlgoTypeDefault AlgoType = 0
	AlgoTypeMaker   AlgoType = 1
	AlgoTypeTaker   AlgoType = 2
)

func (t AlgoType) String() string {
	switch t {
	case AlgoTypeMaker:
		return "MAKER"
	case AlgoTypeTaker:
		return "TAKER"
	}
	return "DEFAULT"
}

// AlgoTypeFromString parses an algorithm name.
func AlgoTypeFromString(s string) (AlgoType, error) {
	switch s {
	case "maker":
		return AlgoTypeMaker, nil
	case "taker":
		return AlgoTypeTaker, nil
	case "default":
		return AlgoTypeDefault, nil
	}
	return AlgoTypeDefault, fmt.Errorf("unknown algo type %q", s)
}

// TradeEngineCfg is the per-instrument trading configuration: the working
// quantity per side, the algorithm's signal threshold and the risk limits.
type TradeEngineCfg struct {
	Clip      wire.Qty
	Threshold float64
	Risk      RiskCfg
}

// TradeEngine is the client-side runtime: it drains the gateway response
// ring and the market-data ring, maintains the replica books, positions and
// managed orders, and dispatches the three callbacks the algorithm fills.
type TradeEngine struct {
	clientID wire.ClientID

	requests  *ring.Ring[wire.MEClientRequest]
	responses *ring.Ring[wire.MEClientResponse]
	mdUpdates *ring.Ring[wire.MEMarketUpdate]

	books [wire.MaxTickers]*MarketOrderBook

	positionKeeper *PositionKeeper
	riskManager    *RiskManager
	orderManager   *OrderManager
	featureEngine  *FeatureEngine

	// Algorithm callbacks, overridden once at startup by the chosen algo
	algoOnOrderBookUpdate func(tickerID wire.TickerID, price wire.Price, side wire.Side, book *MarketOrderBook)
	algoOnTradeUpdate     func(update *wire.MEMarketUpdate, book *MarketOrderBook)
	algoOnOrderUpdate     func(response *wire.MEClientResponse)

	marketMaker    *MarketMaker
	liquidityTaker *LiquidityTaker

	running atomic.Bool
	wg      sync.WaitGroup

	log *zap.Logger
}

// NewTradeEngine builds the full client runtime for one trading account.
func NewTradeEngine(clientID wire.ClientID, algoType AlgoType, cfg *[wire.MaxTickers]TradeEngineCfg,
	requests *ring.Ring[wire.MEClientRequest], responses *ring.Ring[wire.MEClientResponse],
	mdUpdates *ring.Ring[wire.MEMarketUpdate], maxOrdersPerBook int, log *zap.Logger) *TradeEngine {

	e := &TradeEngine{
		clientID:  clientID,
		requests:  requests,
		responses: responses,
		mdUpdates: mdUpdates,
		log:       log,
	}
	e.positionKeeper = NewPositionKeeper(log)
	e.riskManager = NewRiskManager(e.positionKeeper, cfg)
	e.orderManager = NewOrderManager(clientID, e, e.riskManager, log)
	e.featureEngine = NewFeatureEngine(log)

	for i := range e.books {
		e.books[i] = NewMarketOrderBook(wire.TickerID(i), maxOrdersPerBook, log)
		e.books[i].SetTradeEngine(e)
	}

	// Default callbacks only log; the algorithm constructor overrides them.
	e.algoOnOrderBookUpdate = func(tickerID wire.TickerID, price wire.Price, side wire.Side, book *MarketOrderBook) {
		e.log.Debug("book update", zap.Uint32("ticker", uint32(tickerID)))
	}
	e.algoOnTradeUpdate = func(update *wire.MEMarketUpdate, book *MarketOrderBook) {
		e.log.Debug("trade update", zap.String("update", update.String()))
	}
	e.algoOnOrderUpdate = func(response *wire.MEClientResponse) {
		e.log.Debug("order update", zap.String("response", response.String()))
	}

	switch algoType {
	case AlgoTypeMaker:
		e.marketMaker = NewMarketMaker(e, e.featureEngine, e.orderManager, cfg, log)
	case AlgoTypeTaker:
		e.liquidityTaker = NewLiquidityTaker(e, e.featureEngine, e.orderManager, cfg, log)
	case AlgoTypeDefault:
	}

	return e
}

// ClientID returns the trading account of this engine.
func (e *TradeEngine) ClientID() wire.ClientID {
	return e.clientID
}

// PositionKeeper exposes the engine's position records.
func (e *TradeEngine) PositionKeeper() *PositionKeeper {
	return e.positionKeeper
}

// OrderManager exposes the engine's managed orders.
func (e *TradeEngine) OrderManager() *OrderManager {
	return e.orderManager
}

// MarketOrderBook returns the replica book of an instrument.
func (e *TradeEngine) MarketOrderBook(tickerID wire.TickerID) *MarketOrderBook {
	if tickerID >= wire.MaxTickers {
		return nil
	}
	return e.books[tickerID]
}

// SendClientRequest stages one request for the order gateway.
func (e *TradeEngine) SendClientRequest(request *wire.MEClientRequest) {
	slot := e.requests.NextToWrite()
	*slot = *request
	e.requests.CommitWrite()
}

// Start launches the trade engine goroutine.
func (e *TradeEngine) Start() {
	e.running.Store(true)
	e.wg.Add(1)
	go e.run()
}

// Stop waits for both inbound rings to drain, then stops the loop.
func (e *TradeEngine) Stop() {
	for e.responses.Size() > 0 || e.mdUpdates.Size() > 0 {
		// wait for in-flight events
	}
	e.running.Store(false)
	e.wg.Wait()
	e.log.Info("trade engine stopped")
}

func (e *TradeEngine) run() {
	defer e.wg.Done()
	e.log.Info("trade engine started", zap.Uint32("client", uint32(e.clientID)))
	for e.running.Load() {
		for {
			response := e.responses.NextToRead()
			if response == nil {
				break
			}
			e.OnOrderUpdate(response)
			e.responses.CommitRead()
		}
		for {
			update := e.mdUpdates.NextToRead()
			if update == nil {
				break
			}
			if update.TickerID >= wire.MaxTickers {
				panic(fmt.Sprintf("trade engine: unknown ticker on update %s", update.String()))
			}
			e.books[update.TickerID].OnMarketUpdate(update)
			e.mdUpdates.CommitRead()
		}
	}
}

// OnOrderBookUpdate fans a book change out to the position keeper, the
// feature engine and the algorithm.
func (e *TradeEngine) OnOrderBookUpdate(tickerID wire.TickerID, price wire.Price, side wire.Side, book *MarketOrderBook) {
	e.positionKeeper.UpdateBBO(tickerID, book.BBO())
	e.featureEngine.OnOrderBookUpdate(tickerID, price, side, book)
	e.algoOnOrderBookUpdate(tickerID, price, side, book)
}

// OnTradeUpdate fans a trade event out to the feature engine and the
// algorithm.
func (e *TradeEngine) OnTradeUpdate(update *wire.MEMarketUpdate, book *MarketOrderBook) {
	e.featureEngine.OnTradeUpdate(update, book)
	e.algoOnTradeUpdate(update, book)
}

// OnOrderUpdate fans a client response out to the position keeper and the
// algorithm.
func (e *TradeEngine) OnOrderUpdate(response *wire.MEClientResponse) {
	if response.Type == wire.ClientResponseTypeFilled {
		e.positionKeeper.AddFill(response)
	}
	e.algoOnOrderUpdate(response)
}
