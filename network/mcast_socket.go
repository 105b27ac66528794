package network

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

const multicastTTL = 32

// McastSocket is a non-blocking UDP socket bound to a multicast group.
// A sender connects to the group address and batches frames written through
// Send into one datagram per SendAndRecv flush; a listener binds the group
// port and joins the group with Join. The protocol on top is lossy by
// design, so send failures are logged and dropped, never retried.
type McastSocket struct {
	fd int

	group [4]byte
	port  int

	Inbound    []byte
	InboundLen int

	outbound    []byte
	outboundLen int

	// RecvCallback is invoked after new datagrams landed in the inbound buffer.
	RecvCallback func(s *McastSocket)

	log *zap.Logger
}

// OpenMcast creates the socket. A listening socket binds the group port and
// still needs Join to start receiving; a sending socket is connected to the
// group address with the configured TTL.
func OpenMcast(groupIP string, port int, listening bool, log *zap.Logger) (*McastSocket, error) {
	group, err := resolveIPv4(groupIP)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcast socket: %w", err)
	}
	if listening {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("failed to set SO_REUSEADDR: %w", err)
		}
		if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port}); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("failed to bind mcast port %d: %w", port, err)
		}
	} else {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_MULTICAST_TTL, multicastTTL); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("failed to set multicast TTL: %w", err)
		}
		if err := unix.Connect(fd, &unix.SockaddrInet4{Port: port, Addr: group}); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("failed to connect mcast socket to %s:%d: %w", groupIP, port, err)
		}
	}
	return &McastSocket{
		fd:       fd,
		group:    group,
		port:     port,
		Inbound:  make([]byte, McastBufferSize),
		outbound: make([]byte, McastBufferSize),
		log:      log,
	}, nil
}

// Join subscribes the listening socket to its multicast group (IGMP join).
func (s *McastSocket) Join() error {
	mreq := &unix.IPMreq{Multiaddr: s.group}
	if err := unix.SetsockoptIPMreq(s.fd, unix.IPPROTO_IP, unix.IP_ADD_MEMBERSHIP, mreq); err != nil {
		return fmt.Errorf("failed to join multicast group: %w", err)
	}
	return nil
}

// Leave drops the group subscription.
func (s *McastSocket) Leave() {
	mreq := &unix.IPMreq{Multiaddr: s.group}
	if err := unix.SetsockoptIPMreq(s.fd, unix.IPPROTO_IP, unix.IP_DROP_MEMBERSHIP, mreq); err != nil {
		s.log.Warn("failed to leave multicast group", zap.Error(err))
	}
}

// Send stages one frame; frames staged between flushes share a datagram.
func (s *McastSocket) Send(data []byte) {
	if s.outboundLen+len(data) > len(s.outbound) {
		panic("mcast socket: outbound buffer overflow")
	}
	copy(s.outbound[s.outboundLen:], data)
	s.outboundLen += len(data)
}

// SendAndRecv performs one non-blocking receive and flush pass.
// Returns true if any datagrams were received.
func (s *McastSocket) SendAndRecv() bool {
	received := false
	for s.InboundLen < len(s.Inbound) {
		n, _, err := unix.Recvfrom(s.fd, s.Inbound[s.InboundLen:], 0)
		if err != nil || n <= 0 {
			if err != nil && !wouldBlock(err) {
				s.log.Warn("mcast recv failed", zap.Error(err))
			}
			break
		}
		s.InboundLen += n
		received = true
	}
	if received && s.RecvCallback != nil {
		s.RecvCallback(s)
	}

	if s.outboundLen > 0 {
		if _, err := unix.Write(s.fd, s.outbound[:s.outboundLen]); err != nil && !wouldBlock(err) {
			s.log.Warn("mcast send failed", zap.Error(err))
		}
		// Lossy stream: the datagram is gone whether or not the kernel took it.
		s.outboundLen = 0
	}

	return received
}

// ShiftInbound discards the first n consumed bytes of the inbound buffer.
func (s *McastSocket) ShiftInbound(n int) {
	if n <= 0 {
		return
	}
	copy(s.Inbound, s.Inbound[n:s.InboundLen])
	s.InboundLen -= n
}

// Close releases the socket.
func (s *McastSocket) Close() {
	if s.fd >= 0 {
		unix.Close(s.fd)
		s.fd = -1
	}
}
