package trading

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/helixtrading/helix-venue/network"
	"github.com/helixtrading/helix-venue/types/ring"
	"github.com/helixtrading/helix-venue/wire"
)

// OrderGateway is the client half of the order-entry path: one persistent
// non-blocking TCP connection to the order server. Outbound requests are
// stamped with a per-connection sequence number; inbound responses must
// carry the next expected sequence number and this client's id or they are
// dropped with a log.
type OrderGateway struct {
	clientID wire.ClientID

	requests  *ring.Ring[wire.MEClientRequest]
	responses *ring.Ring[wire.MEClientResponse]

	socket *network.TCPSocket

	// Sequence number stamped on the next outgoing request
	nextOutSeqNum uint64

	// Sequence number expected on the next incoming response
	nextExpSeqNum uint64

	running atomic.Bool
	wg      sync.WaitGroup

	scratch []byte

	log *zap.Logger
}

// NewOrderGateway connects to the order server.
func NewOrderGateway(clientID wire.ClientID, requests *ring.Ring[wire.MEClientRequest],
	responses *ring.Ring[wire.MEClientResponse], serverIP string, serverPort int, log *zap.Logger) (*OrderGateway, error) {

	socket, err := network.ConnectTCP(serverIP, serverPort, log)
	if err != nil {
		return nil, err
	}
	g := &OrderGateway{
		clientID:      clientID,
		requests:      requests,
		responses:     responses,
		socket:        socket,
		nextOutSeqNum: 1,
		nextExpSeqNum: 1,
		scratch:       make([]byte, 0, wire.OMClientRequestSize),
		log:           log,
	}
	socket.RecvCallback = g.recvCallback
	return g, nil
}

// Start launches the gateway goroutine.
func (g *OrderGateway) Start() {
	g.running.Store(true)
	g.wg.Add(1)
	go g.run()
}

// Stop flips the running flag and waits for the loop to exit.
func (g *OrderGateway) Stop() {
	g.running.Store(false)
	g.wg.Wait()
	g.socket.Close()
	g.log.Info("order gateway stopped")
}

func (g *OrderGateway) run() {
	defer g.wg.Done()
	g.log.Info("order gateway started", zap.Uint32("client", uint32(g.clientID)))
	for g.running.Load() {
		g.socket.SendAndRecv()

		for {
			request := g.requests.NextToRead()
			if request == nil {
				break
			}
			framed := wire.OMClientRequest{
				SeqNum:  g.nextOutSeqNum,
				Request: *request,
			}
			g.scratch = framed.AppendTo(g.scratch[:0])
			g.socket.Send(g.scratch)
			g.nextOutSeqNum++
			g.requests.CommitRead()
		}
	}
}

// recvCallback validates complete inbound frames and forwards the responses
// to the trade engine ring.
func (g *OrderGateway) recvCallback(socket *network.TCPSocket, rxTime int64) {
	consumed := 0
	for consumed+wire.OMClientResponseSize <= socket.InboundLen {
		framed, err := wire.UnmarshalOMClientResponse(socket.Inbound[consumed : consumed+wire.OMClientResponseSize])
		consumed += wire.OMClientResponseSize
		if err != nil {
			panic("order gateway: malformed frame on trusted TCP stream: " + err.Error())
		}

		if framed.Response.ClientID != g.clientID {
			g.log.Warn("dropping response for foreign client",
				zap.String("response", framed.Response.String()))
			continue
		}
		if framed.SeqNum != g.nextExpSeqNum {
			g.log.Warn("dropping response with sequence gap",
				zap.Uint64("expected", g.nextExpSeqNum),
				zap.Uint64("received", framed.SeqNum))
			continue
		}
		g.nextExpSeqNum++

		slot := g.responses.NextToWrite()
		*slot = framed.Response
		g.responses.CommitWrite()
	}
	socket.ShiftInbound(consumed)
}
