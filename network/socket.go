// Package network provides the non-blocking socket layer used by the venue
// and its clients: a buffered TCP socket with kernel receive timestamps, an
// epoll-based TCP server and a UDP multicast socket. All sockets are owned
// by exactly one goroutine; none of the calls block.
package network

import (
	"fmt"
	"net"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Socket send/receive staging buffers. Sized generously so the buffer is the
// system's back-pressure reservoir, mirroring the ring capacities.
const (
	TCPBufferSize   = 64 * 1024 * 1024
	McastBufferSize = 64 * 1024 * 1024
)

func resolveIPv4(ip string) ([4]byte, error) {
	var out [4]byte
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return out, fmt.Errorf("invalid IPv4 address %q", ip)
	}
	v4 := parsed.To4()
	if v4 == nil {
		return out, fmt.Errorf("address %q is not IPv4", ip)
	}
	copy(out[:], v4)
	return out, nil
}

// rxTimestamp extracts the kernel receive time from recvmsg control data.
// Returns the wall clock when the kernel did not attach one.
func rxTimestamp(oob []byte) int64 {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err == nil {
		for i := range msgs {
			m := &msgs[i]
			if m.Header.Level == unix.SOL_SOCKET && m.Header.Type == unix.SCM_TIMESTAMPNS &&
				len(m.Data) >= int(unsafe.Sizeof(unix.Timespec{})) {
				ts := (*unix.Timespec)(unsafe.Pointer(&m.Data[0]))
				return ts.Nano()
			}
		}
	}
	return time.Now().UnixNano()
}

func wouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR
}
