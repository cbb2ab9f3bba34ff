// Package cache is the resolver's answer cache: a two-level map keyed by
// question name then question type, holding (Packet, absolute expiry)
// entries. Grounded on the teacher's internal/resolvers.TTLCache (mutex,
// map, TTL-gated Get/Set) but stripped of LRU eviction and negative
// caching — spec.md §4.5 describes a flat TTL-only cache, not a bounded
// LRU with RFC 2308 negative-TTL handling; those are teacher features not
// named by the spec.
package cache

import (
	"sync"
	"time"

	"github.com/resolvd/resolvd/internal/stats"
	"github.com/resolvd/resolvd/internal/wire"
)

type entry struct {
	packet wire.Packet
	expiry time.Time
}

// Cache is a TTL-bounded, (qname, qtype)-keyed answer cache.
type Cache struct {
	mu     sync.RWMutex
	data   map[string]map[wire.RecordType]entry
	sink   *stats.Sink
	size   int
	hits   uint64
	misses uint64
}

// New returns an empty Cache. sink may be nil, in which case hit/miss
// statistics are tracked internally but never published.
func New(sink *stats.Sink) *Cache {
	return &Cache{data: make(map[string]map[wire.RecordType]entry), sink: sink}
}

// Get returns the cached packet for (qname, qtype) if present and not yet
// expired. A hit statistic is recorded on success; a miss records nothing
// here (spec.md §4.5 ties the miss statistic to Insert, not to Get).
func (c *Cache) Get(qname string, qtype wire.RecordType) (wire.Packet, bool) {
	c.mu.RLock()
	byType, ok := c.data[qname]
	var e entry
	if ok {
		e, ok = byType[qtype]
	}
	c.mu.RUnlock()

	if !ok || !e.expiry.After(time.Now()) {
		return wire.Packet{}, false
	}
	c.recordHit()
	return e.packet, true
}

// Insert stores resp keyed by its first question's (name, type). TTL is
// the first answer's TTL, or 0 (meaning: do not cache) if there are no
// answers. A miss is recorded, matching spec.md §4.5 ("on insert, record
// a miss statistic").
func (c *Cache) Insert(resp wire.Packet) {
	if len(resp.Questions) == 0 {
		return
	}
	var ttl uint32
	if len(resp.Answers) > 0 {
		ttl = resp.Answers[0].TTL
	}
	if ttl == 0 {
		return
	}

	q := resp.Questions[0]
	e := entry{packet: resp, expiry: time.Now().Add(time.Duration(ttl) * time.Second)}

	c.mu.Lock()
	byType, ok := c.data[q.Name]
	if !ok {
		byType = make(map[wire.RecordType]entry)
		c.data[q.Name] = byType
	}
	if _, existed := byType[q.Type]; !existed {
		c.size++
	}
	byType[q.Type] = e
	size := c.size
	c.mu.Unlock()

	c.recordMiss()
	if c.sink != nil {
		c.sink.SetCache("cache", stats.Cache{Hits: c.loadHits(), Misses: c.loadMisses(), Size: size})
	}
}

func (c *Cache) recordHit() {
	c.mu.Lock()
	c.hits++
	hits, misses, size := c.hits, c.misses, c.size
	c.mu.Unlock()
	if c.sink != nil {
		c.sink.SetCache("cache", stats.Cache{Hits: hits, Misses: misses, Size: size})
	}
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}

func (c *Cache) loadHits() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits
}

func (c *Cache) loadMisses() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.misses
}
