// Package listener binds the UDP and TCP sockets DNS queries arrive on
// and hands each decoded request to a pipeline.Pipeline. Grounded on the
// teacher's internal/server.{UDPServer,TCPServer} (socket setup, buffer
// tuning, accept-loop/shutdown shape), but generalized from the
// teacher's fixed-worker-pool-per-socket model to spec.md §5's
// lightweight-task model: one goroutine runs the accept loop, and one
// goroutine is spawned per request rather than drawn from a bounded
// pool — a corrupt or hostile burst degrades throughput, never
// correctness, and a slow pipeline task never blocks the accept loop.
package listener

import (
	"encoding/binary"
	"net"
	"time"

	"github.com/resolvd/resolvd/internal/pool"
)

// Socket and framing tuning, carried over from the teacher's UDP/TCP
// servers.
const (
	socketRecvBufferSize = 4 * 1024 * 1024
	socketSendBufferSize = 4 * 1024 * 1024
	maxIncomingUDPSize   = 65535
	maxTCPMessageSize    = 65535
	tcpReadTimeout       = 10 * time.Second
	tcpIdleTimeout       = 30 * time.Second

	// classicUDPSize is the boundary past which an incoming UDP datagram
	// could only have arrived via EDNS0 (RFC 6891) large-payload
	// signaling, so it's decoded (and its response re-encoded) with the
	// resizable buffer rather than the fixed 512-byte one.
	classicUDPSize = 512
)

// recvBufPool hands out scratch buffers for one read cycle. The UDP loop
// returns a buffer as soon as the message has been decoded, since decoding
// copies out every byte range a Record or Question keeps; a TCP handler
// returns its buffer when the handler finishes.
var recvBufPool = pool.New(func() []byte {
	return make([]byte, maxIncomingUDPSize)
})

func lengthPrefix(n int) [2]byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(n))
	return b
}

// canonicalizeIP unmaps an IPv4-mapped IPv6 address back to plain IPv4,
// matching the teacher's netipAddrFromUDPAddr treatment of peer
// addresses.
func canonicalizeIP(ip net.IP) net.IP {
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	return ip
}

func remoteIP(addr net.Addr) net.IP {
	if addr == nil {
		return nil
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil
	}
	return canonicalizeIP(net.ParseIP(host))
}
