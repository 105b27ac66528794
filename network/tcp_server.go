package network

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

const epollMaxEvents = 1024

// TCPServer accepts and services persistent client connections through a
// single epoll instance. Poll handles readiness and connection lifecycle;
// SendAndRecv moves bytes on every live socket and fires
// RecvFinishedCallback once per cycle after all inbound data was delivered,
// which is the hook the FIFO sequencer hangs off.
type TCPServer struct {
	efd      int
	listener int

	sockets map[int]*TCPSocket
	events  []unix.EpollEvent

	// RecvCallback fires per socket after new inbound bytes, with the kernel
	// receive time. RecvFinishedCallback fires once per SendAndRecv cycle in
	// which at least one socket received data.
	RecvCallback         func(s *TCPSocket, rxTime int64)
	RecvFinishedCallback func()

	log *zap.Logger
}

// ListenTCP creates a server listening on the given port on all interfaces.
// Failure to acquire the listening socket is an error the caller treats as
// fatal at startup.
func ListenTCP(port int, log *zap.Logger) (*TCPServer, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create listener socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to set SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to bind port %d: %w", port, err)
	}
	if err := unix.Listen(fd, 1024); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to listen on port %d: %w", port, err)
	}

	efd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to create epoll instance: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(efd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		unix.Close(fd)
		unix.Close(efd)
		return nil, fmt.Errorf("failed to register listener with epoll: %w", err)
	}

	return &TCPServer{
		efd:      efd,
		listener: fd,
		sockets:  make(map[int]*TCPSocket),
		events:   make([]unix.EpollEvent, epollMaxEvents),
		log:      log,
	}, nil
}

// Poll processes pending readiness events: accepts new connections and
// drops hung-up ones. It never blocks.
func (s *TCPServer) Poll() {
	n, err := unix.EpollWait(s.efd, s.events, 0)
	if err != nil {
		if err != unix.EINTR {
			s.log.Warn("epoll_wait failed", zap.Error(err))
		}
		return
	}
	for i := 0; i < n; i++ {
		ev := s.events[i]
		fd := int(ev.Fd)
		if fd == s.listener {
			s.acceptAll()
			continue
		}
		if ev.Events&(unix.EPOLLHUP|unix.EPOLLERR) != 0 {
			s.dropSocket(fd)
		}
	}
}

func (s *TCPServer) acceptAll() {
	for {
		fd, _, err := unix.Accept4(s.listener, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if !wouldBlock(err) {
				s.log.Warn("accept failed", zap.Error(err))
			}
			return
		}
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
			s.log.Warn("failed to set TCP_NODELAY on accepted socket", zap.Int("fd", fd), zap.Error(err))
		}
		// Kernel receive timestamps drive the FIFO sequencer ordering.
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TIMESTAMPNS, 1); err != nil {
			s.log.Warn("failed to set SO_TIMESTAMPNS on accepted socket", zap.Int("fd", fd), zap.Error(err))
		}
		ev := unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLET, Fd: int32(fd)}
		if err := unix.EpollCtl(s.efd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
			s.log.Warn("failed to register accepted socket", zap.Int("fd", fd), zap.Error(err))
			unix.Close(fd)
			continue
		}
		sock := newTCPSocket(fd, s.log)
		sock.RecvCallback = s.RecvCallback
		s.sockets[fd] = sock
		s.log.Info("accepted connection", zap.Int("fd", fd))
	}
}

func (s *TCPServer) dropSocket(fd int) {
	sock, ok := s.sockets[fd]
	if !ok {
		return
	}
	unix.EpollCtl(s.efd, unix.EPOLL_CTL_DEL, fd, nil)
	sock.Close()
	delete(s.sockets, fd)
	s.log.Info("dropped connection", zap.Int("fd", fd))
}

// SendAndRecv services every live socket once and fires the finished
// callback if anything was received in this cycle.
func (s *TCPServer) SendAndRecv() {
	received := false
	for _, sock := range s.sockets {
		if sock.SendAndRecv() {
			received = true
		}
	}
	if received && s.RecvFinishedCallback != nil {
		s.RecvFinishedCallback()
	}
}

// Close tears down the listener, the epoll instance and all connections.
func (s *TCPServer) Close() {
	for fd := range s.sockets {
		s.dropSocket(fd)
	}
	unix.Close(s.listener)
	unix.Close(s.efd)
}
