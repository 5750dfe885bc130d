//go:build !windows

package rbzk

import (
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// tuneTCPConn disables Nagle's algorithm and enables TCP keepalives on conn.
// ZK devices exchange many small request/reply packets; Nagle coalescing
// adds latency with no throughput benefit here.
func tuneTCPConn(conn *net.TCPConn) {
	conn.SetNoDelay(true)
	conn.SetKeepAlive(true)
	conn.SetKeepAlivePeriod(30 * time.Second)

	raw, err := conn.SyscallConn()
	if err != nil {
		return
	}
	raw.Control(func(fd uintptr) {
		unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
}
