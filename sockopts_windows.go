//go:build windows

package rbzk

import (
	"net"
	"time"
)

// tuneTCPConn on Windows skips the unix-specific SO_REUSEADDR tweak; Nagle
// and keepalive tuning still apply.
func tuneTCPConn(conn *net.TCPConn) {
	conn.SetNoDelay(true)
	conn.SetKeepAlive(true)
	conn.SetKeepAlivePeriod(30 * time.Second)
}
