// Package forwarder sends a decoded Packet to a single upstream resolver
// over UDP and decodes its reply. Grounded on the teacher's
// ForwardingResolver.queryOneAttempt (dial, deadline, write, read), but
// stripped down to the single-shot, no-pool, no-cache, no-failover model
// spec.md §4.6 describes: the request pipeline owns caching and retries
// are not part of this package's contract.
package forwarder

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/resolvd/resolvd/internal/wire"
)

// DefaultUpstream is used when no upstream is configured.
const DefaultUpstream = "9.9.9.9:53"

const (
	defaultSendTimeout = 5 * time.Second
	defaultRecvTimeout = 5 * time.Second
	recvBufSize        = 65535
)

// ErrTimeout is returned when the upstream does not respond within the
// send or receive deadline. Callers are expected to treat this
// distinctly from other errors (spec.md §4.6: timeouts are dropped
// silently rather than answered with SERVFAIL).
var ErrTimeout = errors.New("forwarder: upstream timeout")

// Forwarder holds a fixed, ordered list of upstream servers and sends every
// query to the first of them; the rest are not tried.
type Forwarder struct {
	upstreams []string

	sendTimeout time.Duration
	recvTimeout time.Duration
}

// New returns a Forwarder over upstreams. If upstreams is empty,
// DefaultUpstream is used.
func New(upstreams []string) *Forwarder {
	if len(upstreams) == 0 {
		upstreams = []string{DefaultUpstream}
	}
	return &Forwarder{upstreams: upstreams, sendTimeout: defaultSendTimeout, recvTimeout: defaultRecvTimeout}
}

// Upstream returns the address forwarding will use: the first configured
// upstream, or DefaultUpstream if none was configured.
func (f *Forwarder) Upstream() string {
	return f.upstreams[0]
}

// Forward encodes req, sends it to the selected upstream over UDP, and
// decodes the reply.
//
// Steps (spec.md §4.6):
//  1. Encode the packet.
//  2. Bind an ephemeral UDP socket.
//  3. Send with a 5-second deadline.
//  4. Receive a reply with a 5-second deadline.
//  5. Decode and return it.
//
// A send or receive deadline expiring returns ErrTimeout, wrapping the
// underlying net.Error so errors.Is(err, ErrTimeout) holds. Any other
// failure (dial, encode, decode) is returned as-is; the pipeline is
// expected to synthesize SERVFAIL for those, and to drop the query
// silently on ErrTimeout.
func (f *Forwarder) Forward(req wire.Packet) (wire.Packet, error) {
	up := f.Upstream()

	queryBytes, err := req.EncodeResizable()
	if err != nil {
		return wire.Packet{}, fmt.Errorf("forwarder: encode query: %w", err)
	}

	conn, err := net.Dial("udp", up)
	if err != nil {
		return wire.Packet{}, fmt.Errorf("forwarder: dial %s: %w", up, err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(f.sendTimeout)); err != nil {
		return wire.Packet{}, fmt.Errorf("forwarder: set write deadline: %w", err)
	}
	if _, err := conn.Write(queryBytes); err != nil {
		if isTimeout(err) {
			return wire.Packet{}, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return wire.Packet{}, fmt.Errorf("forwarder: send to %s: %w", up, err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(f.recvTimeout)); err != nil {
		return wire.Packet{}, fmt.Errorf("forwarder: set read deadline: %w", err)
	}
	buf := make([]byte, recvBufSize)
	n, err := conn.Read(buf)
	if err != nil {
		if isTimeout(err) {
			return wire.Packet{}, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return wire.Packet{}, fmt.Errorf("forwarder: receive from %s: %w", up, err)
	}

	resp, err := wire.DecodePacketResizable(buf[:n])
	if err != nil {
		return wire.Packet{}, fmt.Errorf("forwarder: decode reply from %s: %w", up, err)
	}
	return resp, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
