package cache

import (
	"testing"
	"time"

	"github.com/resolvd/resolvd/internal/stats"
	"github.com/resolvd/resolvd/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func packetFor(name string, qtype wire.RecordType, ttl uint32) wire.Packet {
	return wire.Packet{
		Header:    wire.Header{ID: 1, Response: true},
		Questions: []wire.Question{{Name: name, Type: qtype, Class: wire.ClassIN}},
		Answers:   []wire.Record{{Domain: name, Type: qtype, Class: wire.ClassIN, TTL: ttl, Data: []byte{1, 2, 3, 4}}},
	}
}

func TestCacheMissThenHit(t *testing.T) {
	c := New(nil)
	_, ok := c.Get("example.com", wire.TypeA)
	assert.False(t, ok)

	c.Insert(packetFor("example.com", wire.TypeA, 300))

	got, ok := c.Get("example.com", wire.TypeA)
	require.True(t, ok)
	assert.Equal(t, "example.com", got.Questions[0].Name)
}

func TestCacheEntryExpires(t *testing.T) {
	c := New(nil)
	p := packetFor("example.com", wire.TypeA, 1)
	// Backdate the expiry directly to avoid a real sleep in the test.
	c.mu.Lock()
	c.data["example.com"] = map[wire.RecordType]entry{
		wire.TypeA: {packet: p, expiry: time.Now().Add(-time.Second)},
	}
	c.mu.Unlock()

	_, ok := c.Get("example.com", wire.TypeA)
	assert.False(t, ok, "expired entries miss")
}

func TestCacheZeroTTLIsNotStored(t *testing.T) {
	c := New(nil)
	c.Insert(packetFor("example.com", wire.TypeA, 0))

	_, ok := c.Get("example.com", wire.TypeA)
	assert.False(t, ok)
}

func TestCacheKeyedByTypeIndependently(t *testing.T) {
	c := New(nil)
	c.Insert(packetFor("example.com", wire.TypeA, 300))

	_, ok := c.Get("example.com", wire.TypeAAAA)
	assert.False(t, ok, "A and AAAA are cached independently")
}

// scenario 5 from spec.md §8.
func TestCacheHitPublishesStats(t *testing.T) {
	sink := stats.New()
	c := New(sink)
	c.Insert(packetFor("example.com", wire.TypeA, 300))
	c.Get("example.com", wire.TypeA)

	got, ok := sink.Get("cache")
	require.True(t, ok)
	assert.Equal(t, uint64(1), got.Cache.Hits)
}
