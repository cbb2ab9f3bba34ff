package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/resolvd/resolvd/internal/resolvdconfig"
	"github.com/stretchr/testify/assert"
)

func TestRunFiresTaskOnInterval(t *testing.T) {
	var runs int32
	s := New(nil, []Task{{
		Name:     resolvdconfig.TaskFilters,
		Interval: 5 * time.Millisecond,
		Run:      func(ctx context.Context) { atomic.AddInt32(&runs, 1) },
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	assert.GreaterOrEqual(t, atomic.LoadInt32(&runs), int32(2))
}

func TestRunSkipsNonPositiveInterval(t *testing.T) {
	var runs int32
	s := New(nil, []Task{{
		Name:     resolvdconfig.TaskLogs,
		Interval: 0,
		Run:      func(ctx context.Context) { atomic.AddInt32(&runs, 1) },
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	assert.Equal(t, int32(0), atomic.LoadInt32(&runs))
}
