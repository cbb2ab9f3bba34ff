package listener

import (
	"context"
	"log/slog"
	"net"
	"sync"

	"github.com/resolvd/resolvd/internal/pipeline"
	"github.com/resolvd/resolvd/internal/wire"
)

// UDPListener owns one UDP socket shared between its accept loop
// (receiving) and every spawned pipeline task (sending) — spec.md §4.8's
// "shares socket for writing".
type UDPListener struct {
	Logger   *slog.Logger
	Pipeline *pipeline.Pipeline

	conn *net.UDPConn
	wg   sync.WaitGroup
}

// Run binds addr and serves until ctx is cancelled, then waits for every
// in-flight pipeline task spawned from this listener to finish before
// returning (spec.md §5: listeners let in-flight tasks drain rather than
// hard-cancelling them).
func (l *UDPListener) Run(ctx context.Context, addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	_ = conn.SetReadBuffer(socketRecvBufferSize)
	_ = conn.SetWriteBuffer(socketSendBufferSize)
	return l.RunOnConn(ctx, conn)
}

// RunOnConn is Run against a connection the caller already bound. Tests
// use this to avoid a bind/close/rebind race on an ephemeral port.
func (l *UDPListener) RunOnConn(ctx context.Context, conn *net.UDPConn) error {
	l.conn = conn

	closeOnDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-closeOnDone:
		}
	}()

	l.acceptLoop(ctx, conn)
	close(closeOnDone)
	l.wg.Wait()
	return nil
}

func (l *UDPListener) acceptLoop(ctx context.Context, conn *net.UDPConn) {
	for {
		buf := recvBufPool.Get()
		n, peer, err := conn.ReadFromUDP(buf)
		if err != nil {
			recvBufPool.Put(buf)
			return
		}

		useResizable := n > classicUDPSize

		var req wire.Packet
		if useResizable {
			req, err = wire.DecodePacketResizable(buf[:n])
		} else {
			req, err = wire.DecodePacket(buf[:n])
		}
		recvBufPool.Put(buf)
		if err != nil {
			// InvalidPacket (spec.md §7): header/question decode
			// failure, drop without a response.
			continue
		}
		// An OPT record signals EDNS0, so the response may exceed 512
		// bytes and is encoded with the resizable buffer.
		for _, rr := range req.Resources {
			if rr.Type == wire.TypeOPT {
				useResizable = true
				break
			}
		}

		l.wg.Add(1)
		go func(peer *net.UDPAddr) {
			defer l.wg.Done()
			resp := &udpResponder{conn: conn, peer: peer}
			l.Pipeline.Handle(canonicalizeIP(peer.IP), req, useResizable, resp)
		}(peer)
	}
}

type udpResponder struct {
	conn *net.UDPConn
	peer *net.UDPAddr
}

func (r *udpResponder) WriteResponse(packet []byte) error {
	_, err := r.conn.WriteToUDP(packet, r.peer)
	return err
}
