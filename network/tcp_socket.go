package network

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// TCPSocket is a non-blocking TCP connection with fixed staging buffers.
// Send only appends to the outbound buffer; SendAndRecv moves bytes between
// the buffers and the kernel. Inbound bytes accumulate in Inbound[:InboundLen]
// until the receive callback consumes them and calls ShiftInbound.
type TCPSocket struct {
	fd int

	Inbound    []byte
	InboundLen int

	outbound    []byte
	outboundLen int

	oob []byte

	// RecvCallback is invoked after new bytes landed in the inbound buffer,
	// with the kernel receive time of the last segment.
	RecvCallback func(s *TCPSocket, rxTime int64)

	log *zap.Logger
}

func newTCPSocket(fd int, log *zap.Logger) *TCPSocket {
	return &TCPSocket{
		fd:       fd,
		Inbound:  make([]byte, TCPBufferSize),
		outbound: make([]byte, TCPBufferSize),
		oob:      make([]byte, 1024),
		log:      log,
	}
}

// ConnectTCP opens a non-blocking connection to ip:port. The connect is
// initiated but possibly still in progress when the call returns; queued
// sends flush once the handshake completes.
func ConnectTCP(ip string, port int, log *zap.Logger) (*TCPSocket, error) {
	addr, err := resolveIPv4(ip)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create TCP socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to set TCP_NODELAY: %w", err)
	}
	sa := &unix.SockaddrInet4{Port: port, Addr: addr}
	if err := unix.Connect(fd, sa); err != nil && err != unix.EINPROGRESS {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to connect to %s:%d: %w", ip, port, err)
	}
	return newTCPSocket(fd, log), nil
}

// FD returns the underlying file descriptor.
func (s *TCPSocket) FD() int {
	return s.fd
}

// Send stages data for transmission. Overflowing the staging buffer means
// the peer stopped draining an entire reservoir; that is fatal.
func (s *TCPSocket) Send(data []byte) {
	if s.outboundLen+len(data) > len(s.outbound) {
		panic("tcp socket: outbound buffer overflow")
	}
	copy(s.outbound[s.outboundLen:], data)
	s.outboundLen += len(data)
}

// SendAndRecv performs one non-blocking receive and flush pass.
// Returns true if any bytes were received.
func (s *TCPSocket) SendAndRecv() bool {
	received := false

	// Drain the kernel receive queue into the inbound buffer.
	var rxTime int64
	for s.InboundLen < len(s.Inbound) {
		n, oobn, _, _, err := unix.Recvmsg(s.fd, s.Inbound[s.InboundLen:], s.oob, 0)
		if err != nil {
			if wouldBlock(err) {
				break
			}
			s.log.Warn("tcp recv failed", zap.Int("fd", s.fd), zap.Error(err))
			break
		}
		if n <= 0 {
			break
		}
		s.InboundLen += n
		rxTime = rxTimestamp(s.oob[:oobn])
		received = true
	}
	if received && s.RecvCallback != nil {
		s.RecvCallback(s, rxTime)
	}

	// Flush as much of the outbound buffer as the kernel accepts.
	if s.outboundLen > 0 {
		n, err := unix.Write(s.fd, s.outbound[:s.outboundLen])
		if err != nil && !wouldBlock(err) && err != unix.ENOTCONN {
			s.log.Warn("tcp send failed", zap.Int("fd", s.fd), zap.Error(err))
		}
		if n > 0 {
			copy(s.outbound, s.outbound[n:s.outboundLen])
			s.outboundLen -= n
		}
	}

	return received
}

// ShiftInbound discards the first n consumed bytes of the inbound buffer,
// keeping any trailing partial frame.
func (s *TCPSocket) ShiftInbound(n int) {
	if n <= 0 {
		return
	}
	copy(s.Inbound, s.Inbound[n:s.InboundLen])
	s.InboundLen -= n
}

// Close releases the socket.
func (s *TCPSocket) Close() {
	if s.fd >= 0 {
		unix.Close(s.fd)
		s.fd = -1
	}
}
