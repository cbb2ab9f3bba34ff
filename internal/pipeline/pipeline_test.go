package pipeline

import (
	"net"
	"testing"

	"github.com/resolvd/resolvd/internal/cache"
	"github.com/resolvd/resolvd/internal/filterrules"
	"github.com/resolvd/resolvd/internal/forwarder"
	"github.com/resolvd/resolvd/internal/stats"
	"github.com/resolvd/resolvd/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingResponder captures the bytes a Pipeline writes back, so tests
// can decode and assert on them without a real socket.
type recordingResponder struct {
	packets [][]byte
}

func (r *recordingResponder) WriteResponse(packet []byte) error {
	cp := make([]byte, len(packet))
	copy(cp, packet)
	r.packets = append(r.packets, cp)
	return nil
}

func aQuery(id uint16, name string) wire.Packet {
	return wire.Packet{
		Header:    wire.Header{ID: id, RecursionDesired: true},
		Questions: []wire.Question{{Name: name, Type: wire.TypeA, Class: wire.ClassIN}},
	}
}

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

func newTestPipeline(t *testing.T, upstream string) (*Pipeline, *stats.Sink) {
	sink := stats.New()
	return &Pipeline{
		Cache:     cache.New(sink),
		Filters:   filterrules.NewTrie(),
		Forwarder: forwarder.New([]string{upstream}),
		Stats:     sink,
	}, sink
}

func TestHandleForwardsAndCachesOnMiss(t *testing.T) {
	upstream := fakeUpstream(t)
	defer upstream.Close()

	p, sink := newTestPipeline(t, upstream.LocalAddr().String())
	resp := &recordingResponder{}

	p.Handle(net.ParseIP("127.0.0.1"), aQuery(7, "example.com"), false, resp)

	require.Len(t, resp.packets, 1)
	got, err := wire.DecodePacket(resp.packets[0])
	require.NoError(t, err)
	assert.Equal(t, uint16(7), got.Header.ID)
	require.Len(t, got.Answers, 1)

	cached, ok := p.Cache.Get("example.com", wire.TypeA)
	require.True(t, ok)
	assert.Equal(t, 1, len(cached.Answers))

	total, ok := sink.Get("requests.total")
	require.True(t, ok)
	assert.Equal(t, uint64(1), total.Count)
}

// Second identical query should hit the cache and not touch upstream —
// spec.md §8 scenario 5 (cache hit keeps the second request's id).
func TestHandleSecondQueryHitsCache(t *testing.T) {
	upstream := fakeUpstream(t)
	defer upstream.Close()

	p, sink := newTestPipeline(t, upstream.LocalAddr().String())

	first := &recordingResponder{}
	p.Handle(net.ParseIP("127.0.0.1"), aQuery(1, "cached.example.com"), false, first)

	second := &recordingResponder{}
	p.Handle(net.ParseIP("127.0.0.1"), aQuery(2, "cached.example.com"), false, second)

	require.Len(t, second.packets, 1)
	got, err := wire.DecodePacket(second.packets[0])
	require.NoError(t, err)
	assert.Equal(t, uint16(2), got.Header.ID, "response carries the second request's id")

	cacheStat, ok := sink.Get("cache")
	require.True(t, ok)
	assert.Equal(t, uint64(1), cacheStat.Cache.Hits)
}

func TestHandleDenyRuleWithoutRewriteYieldsNXDOMAIN(t *testing.T) {
	upstream := fakeUpstream(t)
	defer upstream.Close()

	p, _ := newTestPipeline(t, upstream.LocalAddr().String())
	p.Filters.Insert(filterrules.Rule{Domain: "ads.example.com", Kind: filterrules.Deny})

	resp := &recordingResponder{}
	p.Handle(net.ParseIP("127.0.0.1"), aQuery(9, "ads.example.com"), false, resp)

	require.Len(t, resp.packets, 1)
	got, err := wire.DecodePacket(resp.packets[0])
	require.NoError(t, err)
	assert.Equal(t, wire.NXDOMAIN, got.Header.ResultCode)
	assert.Equal(t, uint16(9), got.Header.ID)
}

// spec.md §8 scenario 4: hosts rewrite still forwards (to let the
// upstream answer any non-matching record types) but the response
// carries the rewritten address and NOERROR.
func TestHandleHostsRewrite(t *testing.T) {
	upstream := fakeUpstream(t)
	defer upstream.Close()

	p, _ := newTestPipeline(t, upstream.LocalAddr().String())
	p.Filters.Insert(filterrules.Rule{
		Domain: "blocked.test",
		Kind:   filterrules.Deny,
		Rewrite: &filterrules.Rewrite{
			V4: net.ParseIP("127.0.0.1"),
		},
	})

	resp := &recordingResponder{}
	p.Handle(net.ParseIP("127.0.0.1"), aQuery(3, "blocked.test"), false, resp)

	require.Len(t, resp.packets, 1)
	got, err := wire.DecodePacket(resp.packets[0])
	require.NoError(t, err)
	assert.Equal(t, wire.NOERROR, got.Header.ResultCode)
	require.Len(t, got.Answers, 1)
	assert.Equal(t, net.IPv4(127, 0, 0, 1).To4(), net.IP(got.Answers[0].Data.([]byte)))

	// A rewritten response must never be cached.
	_, ok := p.Cache.Get("blocked.test", wire.TypeA)
	assert.False(t, ok)
}

// Upstream never replies, so the forward times out; the pipeline must
// drop the request rather than answer with SERVFAIL (spec.md §4.6/§7).
// This relies on the forwarder's real 5-second deadline, so it is slow
// by design.
func TestHandleUpstreamTimeoutDropsRequestSilently(t *testing.T) {
	if testing.Short() {
		t.Skip("exercises the forwarder's real 5s deadline")
	}
	addr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	require.NoError(t, err)
	silent, err := net.ListenUDP("udp", addr)
	require.NoError(t, err)
	defer silent.Close()

	p, _ := newTestPipeline(t, silent.LocalAddr().String())
	resp := &recordingResponder{}

	p.Handle(net.ParseIP("127.0.0.1"), aQuery(11, "unreachable.example.com"), false, resp)

	assert.Empty(t, resp.packets, "no response is sent for a timed-out forward")
}

func TestHandleNoQuestionRespondsFormerr(t *testing.T) {
	p, _ := newTestPipeline(t, "127.0.0.1:1")
	resp := &recordingResponder{}

	p.Handle(net.ParseIP("127.0.0.1"), wire.Packet{Header: wire.Header{ID: 5}}, false, resp)

	require.Len(t, resp.packets, 1)
	got, err := wire.DecodePacket(resp.packets[0])
	require.NoError(t, err)
	assert.Equal(t, wire.FORMERR, got.Header.ResultCode)
	assert.Equal(t, uint16(5), got.Header.ID)
}
