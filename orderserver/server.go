// Package orderserver terminates client order-entry connections and bridges
// them to the matching engine rings. One TCP connection per client, frames
// checked for per-client sequence gaps, accepted requests reordered by
// kernel receive time through the FIFO sequencer.
package orderserver

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/helixtrading/helix-venue/network"
	"github.com/helixtrading/helix-venue/types/ring"
	"github.com/helixtrading/helix-venue/wire"
)

// DefaultPort is the order-entry listen port.
const DefaultPort = 12345

// Server is the order-entry TCP server. A connection becomes bound to a
// ClientId on its first valid message; later messages for that ClientId on
// any other socket are dropped. Inbound frames must carry the client's next
// expected sequence number or they are dropped with a log: order entry
// rides on TCP, so a gap here is a client defect, not packet loss.
type Server struct {
	responses *ring.Ring[wire.MEClientResponse]

	tcp       *network.TCPServer
	sequencer *FIFOSequencer

	// Per-client sequence spaces and socket bindings
	nextOutSeqNum [wire.MaxClients]uint64
	nextExpSeqNum [wire.MaxClients]uint64
	clientSocket  [wire.MaxClients]*network.TCPSocket

	running atomic.Bool
	wg      sync.WaitGroup

	scratch []byte

	log *zap.Logger
}

// NewServer creates the order server listening on the given port.
// Failing to acquire the listening socket at startup is fatal to the venue,
// so the error is returned for main to treat that way.
func NewServer(port int, requests *ring.Ring[wire.MEClientRequest], responses *ring.Ring[wire.MEClientResponse], log *zap.Logger) (*Server, error) {
	tcp, err := network.ListenTCP(port, log)
	if err != nil {
		return nil, err
	}
	s := &Server{
		responses: responses,
		tcp:       tcp,
		sequencer: NewFIFOSequencer(requests),
		scratch:   make([]byte, 0, wire.OMClientResponseSize),
		log:       log,
	}
	for i := range s.nextOutSeqNum {
		s.nextOutSeqNum[i] = 1
		s.nextExpSeqNum[i] = 1
	}
	tcp.RecvCallback = s.recvCallback
	tcp.RecvFinishedCallback = s.recvFinishedCallback
	return s, nil
}

// Start launches the server goroutine.
func (s *Server) Start() {
	s.running.Store(true)
	s.wg.Add(1)
	go s.run()
}

// Stop flips the running flag and waits for the loop to exit.
func (s *Server) Stop() {
	s.running.Store(false)
	s.wg.Wait()
	s.tcp.Close()
	s.log.Info("order server stopped")
}

func (s *Server) run() {
	defer s.wg.Done()
	s.log.Info("order server started")
	for s.running.Load() {
		s.tcp.Poll()
		s.tcp.SendAndRecv()
		s.drainResponses()
	}
}

// drainResponses frames each engine response with the client's outgoing
// sequence number and writes it to the client's socket.
func (s *Server) drainResponses() {
	for {
		response := s.responses.NextToRead()
		if response == nil {
			return
		}
		if response.ClientID < wire.MaxClients && s.clientSocket[response.ClientID] != nil {
			framed := wire.OMClientResponse{
				SeqNum:   s.nextOutSeqNum[response.ClientID],
				Response: *response,
			}
			s.scratch = framed.AppendTo(s.scratch[:0])
			s.clientSocket[response.ClientID].Send(s.scratch)
			s.nextOutSeqNum[response.ClientID]++
		} else {
			s.log.Warn("no socket for client response", zap.String("response", response.String()))
		}
		s.responses.CommitRead()
	}
}

// recvCallback consumes complete frames from one socket's inbound buffer,
// enforcing the socket binding and the per-client sequence contract.
func (s *Server) recvCallback(socket *network.TCPSocket, rxTime int64) {
	consumed := 0
	for consumed+wire.OMClientRequestSize <= socket.InboundLen {
		framed, err := wire.UnmarshalOMClientRequest(socket.Inbound[consumed : consumed+wire.OMClientRequestSize])
		consumed += wire.OMClientRequestSize
		if err != nil {
			panic("order server: malformed frame on trusted TCP stream: " + err.Error())
		}

		clientID := framed.Request.ClientID
		if clientID >= wire.MaxClients {
			s.log.Warn("dropping request with bad client id", zap.String("request", framed.Request.String()))
			continue
		}
		if s.clientSocket[clientID] == nil {
			// First message from this client binds the socket.
			s.clientSocket[clientID] = socket
		}
		if s.clientSocket[clientID] != socket {
			s.log.Warn("dropping request from client on foreign socket",
				zap.Uint32("client", uint32(clientID)), zap.Int("fd", socket.FD()))
			continue
		}

		if framed.SeqNum != s.nextExpSeqNum[clientID] {
			s.log.Warn("dropping request with sequence gap",
				zap.Uint32("client", uint32(clientID)),
				zap.Uint64("expected", s.nextExpSeqNum[clientID]),
				zap.Uint64("received", framed.SeqNum))
			continue
		}
		s.nextExpSeqNum[clientID]++

		s.sequencer.Add(rxTime, &framed.Request)
	}
	socket.ShiftInbound(consumed)
}

// recvFinishedCallback runs once per poll cycle after every socket was
// drained: the sequencer flushes in kernel receive time order.
func (s *Server) recvFinishedCallback() {
	s.sequencer.SequenceAndPublish()
}
