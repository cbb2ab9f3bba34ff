package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrCountIsMonotonic(t *testing.T) {
	s := New()
	s.IncrCount("cache.hits", 1)
	s.IncrCount("cache.hits", 2)

	got, ok := s.Get("cache.hits")
	require.True(t, ok)
	assert.Equal(t, uint64(3), got.Count)
}

func TestRecordAverageWeightedMean(t *testing.T) {
	s := New()
	s.RecordAverage("latency", 10)
	s.RecordAverage("latency", 20)
	s.RecordAverage("latency", 30)

	got, ok := s.Get("latency")
	require.True(t, ok)
	assert.Equal(t, uint64(3), got.Average.Count)
	assert.InDelta(t, 20, got.Average.Mean, 0.0001)
}

func TestRecordPipelineResultBumpsCountersAndAverage(t *testing.T) {
	s := New()
	s.RecordPipelineResult(Request{Status: "NOERROR", ElapsedNs: 1_000_000, Answers: 1})
	s.RecordPipelineResult(Request{Status: "NXDOMAIN", ElapsedNs: 2_000_000})

	total, ok := s.Get("requests.total")
	require.True(t, ok)
	assert.Equal(t, uint64(2), total.Count)

	noerr, ok := s.Get("requests.status.NOERROR")
	require.True(t, ok)
	assert.Equal(t, uint64(1), noerr.Count)

	avg, ok := s.Get("requests.latency_ns")
	require.True(t, ok)
	assert.InDelta(t, 1_500_000, avg.Average.Mean, 1)
}

func TestConcurrentIncrCountIsSafe(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.IncrCount("requests.total", 1)
		}()
	}
	wg.Wait()

	got, ok := s.Get("requests.total")
	require.True(t, ok)
	assert.Equal(t, uint64(100), got.Count)
}

func TestRequestHistoryIsNewestFirstAndPaginated(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.RecordPipelineResult(Request{Question: string(rune('a' + i)), Status: "NOERROR"})
	}

	all := s.RequestHistory(0, 0)
	require.Len(t, all, 5)
	assert.Equal(t, "e", all[0].Question, "newest request comes first")
	assert.Equal(t, "a", all[4].Question)

	page := s.RequestHistory(1, 3)
	require.Len(t, page, 2)
	assert.Equal(t, "d", page[0].Question)
	assert.Equal(t, "c", page[1].Question)
}

func TestPruneRequestHistoryOlderThanDropsOldestOnly(t *testing.T) {
	s := New()
	base := time.Unix(1000, 0)
	s.RecordPipelineResult(Request{Question: "old1", Timestamp: base})
	s.RecordPipelineResult(Request{Question: "old2", Timestamp: base.Add(time.Second)})
	s.RecordPipelineResult(Request{Question: "new", Timestamp: base.Add(time.Hour)})

	s.PruneRequestHistoryOlderThan(base.Add(time.Minute))

	remaining := s.RequestHistory(0, 0)
	require.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].Question)
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	s := New()
	s.IncrCount("a", 1)
	snap := s.Snapshot()
	s.IncrCount("a", 1)

	assert.Equal(t, uint64(1), snap["a"].Count)
	got, _ := s.Get("a")
	assert.Equal(t, uint64(2), got.Count)
}
