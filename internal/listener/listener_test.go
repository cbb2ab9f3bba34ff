package listener

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/resolvd/resolvd/internal/cache"
	"github.com/resolvd/resolvd/internal/filterrules"
	"github.com/resolvd/resolvd/internal/forwarder"
	"github.com/resolvd/resolvd/internal/pipeline"
	"github.com/resolvd/resolvd/internal/stats"
	"github.com/resolvd/resolvd/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream answers every A query with a fixed 300s-TTL record.
func fakeUpstream(t *testing.T) *net.UDPConn {
	t.Helper()
	addr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	require.NoError(t, err)
	conn, err := net.ListenUDP("udp", addr)
	require.NoError(t, err)

	go func() {
		buf := make([]byte, 65535)
		for {
			n, raddr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			req, err := wire.DecodePacketResizable(buf[:n])
			if err != nil {
				continue
			}
			resp := wire.Packet{
				Header:    wire.Header{ID: req.Header.ID, Response: true},
				Questions: req.Questions,
				Answers: []wire.Record{{
					Domain: req.Questions[0].Name,
					Type:   wire.TypeA,
					Class:  wire.ClassIN,
					TTL:    300,
					Data:   []byte{93, 184, 216, 34},
				}},
			}
			out, err := resp.Encode()
			if err != nil {
				continue
			}
			_, _ = conn.WriteToUDP(out, raddr)
		}
	}()
	return conn
}

func newTestPipeline(upstream string) *pipeline.Pipeline {
	sink := stats.New()
	return &pipeline.Pipeline{
		Cache:     cache.New(sink),
		Filters:   filterrules.NewTrie(),
		Forwarder: forwarder.New([]string{upstream}),
		Stats:     sink,
	}
}

func encodeQuery(t *testing.T, id uint16, name string) []byte {
	t.Helper()
	p := wire.Packet{
		Header:    wire.Header{ID: id, RecursionDesired: true},
		Questions: []wire.Question{{Name: name, Type: wire.TypeA, Class: wire.ClassIN}},
	}
	b, err := p.Encode()
	require.NoError(t, err)
	return b
}

func TestUDPListenerRoundTrip(t *testing.T) {
	upstream := fakeUpstream(t)
	defer upstream.Close()

	l := &UDPListener{Pipeline: newTestPipeline(upstream.LocalAddr().String())}
	ctx, cancel := context.WithCancel(context.Background())

	listenerAddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	require.NoError(t, err)
	conn, err := net.ListenUDP("udp", listenerAddr)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- l.RunOnConn(ctx, conn) }()

	client, err := net.Dial("udp", conn.LocalAddr().String())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write(encodeQuery(t, 77, "example.com"))
	require.NoError(t, err)

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 65535)
	n, err := client.Read(buf)
	require.NoError(t, err)

	resp, err := wire.DecodePacket(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, uint16(77), resp.Header.ID)
	require.Len(t, resp.Answers, 1)

	cancel()
	require.NoError(t, <-done)
}

func TestTCPListenerRoundTrip(t *testing.T) {
	upstream := fakeUpstream(t)
	defer upstream.Close()

	l := &TCPListener{Pipeline: newTestPipeline(upstream.LocalAddr().String())}
	ctx, cancel := context.WithCancel(context.Background())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- l.RunOnListener(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	query := encodeQuery(t, 88, "example.com")
	var prefix [2]byte
	binary.BigEndian.PutUint16(prefix[:], uint16(len(query)))
	_, err = conn.Write(append(prefix[:], query...))
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var respPrefix [2]byte
	_, err = conn.Read(respPrefix[:])
	require.NoError(t, err)
	respLen := binary.BigEndian.Uint16(respPrefix[:])
	body := make([]byte, respLen)
	_, err = conn.Read(body)
	require.NoError(t, err)

	resp, err := wire.DecodePacketResizable(body)
	require.NoError(t, err)
	assert.Equal(t, uint16(88), resp.Header.ID)
	require.Len(t, resp.Answers, 1)

	cancel()
	require.NoError(t, <-done)
}
