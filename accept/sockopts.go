// Author: momentics <momentics@gmail.com>
package accept

import (
	"net"
	"time"
)

// ApplySocketOptions sets the per-accepted-socket options spec §4.7 calls
// for: TCP_NODELAY always and SO_KEEPALIVE optionally. It sets no read/write
// deadlines; the connection arms those before each request. A conn that is
// not a *net.TCPConn (including a *tls.Conn) is left untouched.
func ApplySocketOptions(conn net.Conn, keepAlive bool, keepAlivePeriod time.Duration) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	_ = tc.SetNoDelay(true)
	if keepAlive {
		_ = tc.SetKeepAlive(true)
		if keepAlivePeriod > 0 {
			_ = tc.SetKeepAlivePeriod(keepAlivePeriod)
		}
	}
}
