package matching

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/helixtrading/helix-venue/types/ring"
	"github.com/helixtrading/helix-venue/wire"
)

// Engine is the matching engine: the single serialization point of the
// venue. It drains the request ring in a busy loop on its own goroutine,
// dispatches each request to the instrument's order book and emits client
// responses and market updates through the Handler. For one instrument the
// emitted market updates form the canonical event sequence.
type Engine struct {
	requests *ring.Ring[wire.MEClientRequest]
	handler  Handler

	// Order books, indexed by ticker id
	orderBooks [wire.MaxTickers]*OrderBook

	running atomic.Bool
	wg      sync.WaitGroup

	log *zap.Logger
}

// NewEngine creates an Engine with one order book per instrument, each with
// its own arenas sized to maxOrdersPerBook live orders.
func NewEngine(requests *ring.Ring[wire.MEClientRequest], handler Handler, maxOrdersPerBook int, log *zap.Logger) *Engine {
	e := &Engine{
		requests: requests,
		handler:  handler,
		log:      log,
	}
	for i := range e.orderBooks {
		alloc := NewAllocator(maxOrdersPerBook, wire.MaxPriceLevels)
		e.orderBooks[i] = NewOrderBook(wire.TickerID(i), e, alloc)
	}
	return e
}

// OrderBook returns the book of the given instrument, nil if out of range.
func (e *Engine) OrderBook(tickerID wire.TickerID) *OrderBook {
	if tickerID >= wire.MaxTickers {
		return nil
	}
	return e.orderBooks[tickerID]
}

// Start launches the engine goroutine.
func (e *Engine) Start() {
	e.running.Store(true)
	e.wg.Add(1)
	go e.run()
}

// Stop waits for the request ring to drain, stops the engine goroutine and
// clears all books, emitting one CLEAR per instrument.
func (e *Engine) Stop() {
	for e.requests.Size() > 0 {
		// wait for in-flight requests
	}
	e.running.Store(false)
	e.wg.Wait()

	for _, ob := range e.orderBooks {
		ob.Clear()
	}
	e.log.Info("matching engine stopped")
}

func (e *Engine) run() {
	defer e.wg.Done()
	e.log.Info("matching engine started")
	for e.running.Load() {
		request := e.requests.NextToRead()
		if request == nil {
			continue
		}
		e.Process(request)
		e.requests.CommitRead()
	}
}

// Process applies a single client request to the right order book.
// A request type the engine does not recognize is a defect in the order
// server, not a client error, and is fatal.
func (e *Engine) Process(request *wire.MEClientRequest) {
	ob := e.OrderBook(request.TickerID)
	if ob == nil {
		panic(fmt.Sprintf("matching engine: unknown ticker id on request %s", request.String()))
	}
	switch request.Type {
	case wire.ClientRequestTypeNew:
		ob.Add(request.ClientID, request.OrderID, request.Side, request.Price, request.Qty)
	case wire.ClientRequestTypeCancel:
		ob.Cancel(request.ClientID, request.OrderID)
	default:
		panic(fmt.Sprintf("matching engine: unrecognized client request type %d", request.Type))
	}
}

func (e *Engine) sendClientResponse(response *wire.MEClientResponse) {
	e.handler.OnClientResponse(response)
}

func (e *Engine) sendMarketUpdate(update *wire.MEMarketUpdate) {
	e.handler.OnMarketUpdate(update)
}
