package downloader

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tumblrripper/pkg/metrics"
)

func TestJobQueueFIFO(t *testing.T) {
	q := NewJobQueue(4)
	ctx := context.Background()

	for _, src := range []string{"a", "b", "c"} {
		require.NoError(t, q.Put(ctx, MediaJob{Source: src}))
	}
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, 3, q.Unfinished())

	for _, want := range []string{"a", "b", "c"} {
		job, err := q.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, job.Source)
	}
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 3, q.Unfinished())
}

func TestJoinOnEmptyQueueReturnsImmediately(t *testing.T) {
	q := NewJobQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, q.Join(ctx))
}

func TestJoinWaitsForMarkDone(t *testing.T) {
	q := NewJobQueue(2)
	ctx := context.Background()
	require.NoError(t, q.Put(ctx, MediaJob{}))
	require.NoError(t, q.Put(ctx, MediaJob{}))

	joined := make(chan struct{})
	go func() {
		assert.NoError(t, q.Join(ctx))
		close(joined)
	}()

	for i := 0; i < 2; i++ {
		_, err := q.Get(ctx)
		require.NoError(t, err)
		select {
		case <-joined:
			t.Fatal("Join returned before every job was marked done")
		case <-time.After(20 * time.Millisecond):
		}
		require.NoError(t, q.MarkDone())
	}

	select {
	case <-joined:
	case <-time.After(time.Second):
		t.Fatal("Join did not return after every job was marked done")
	}

	// The barrier re-arms for the next pass.
	require.NoError(t, q.Put(ctx, MediaJob{}))
	shortCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Join(shortCtx), context.DeadlineExceeded)
}

func TestMarkDoneTooManyTimes(t *testing.T) {
	q := NewJobQueue(1)
	assert.ErrorIs(t, q.MarkDone(), ErrTooManyDone)
}

func TestPutBlocksWhenFull(t *testing.T) {
	q := NewJobQueue(1)
	require.NoError(t, q.Put(context.Background(), MediaJob{}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Put(ctx, MediaJob{}), context.DeadlineExceeded)
	assert.Equal(t, 1, q.Unfinished())
}

func TestGetHonoursContext(t *testing.T) {
	q := NewJobQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Get(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentProducersAndConsumers(t *testing.T) {
	q := NewJobQueue(3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	seen := 0
	for i := 0; i < 4; i++ {
		go func() {
			for {
				if _, err := q.Get(ctx); err != nil {
					return
				}
				mu.Lock()
				seen++
				mu.Unlock()
				_ = q.MarkDone()
			}
		}()
	}

	var producers sync.WaitGroup
	for p := 0; p < 5; p++ {
		producers.Add(1)
		go func() {
			defer producers.Done()
			for i := 0; i < 20; i++ {
				assert.NoError(t, q.Put(ctx, MediaJob{}))
			}
		}()
	}
	producers.Wait()

	require.NoError(t, q.Join(ctx))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 100, seen)
}

func unfinishedGauge(t *testing.T) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "tumblr_ripper_unfinished_jobs" {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("unfinished jobs gauge is not registered")
	return 0
}

func TestUnfinishedGaugeSettlesAtZero(t *testing.T) {
	metrics.Init()
	q := NewJobQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 8; i++ {
		go func() {
			for {
				if _, err := q.Get(ctx); err != nil {
					return
				}
				_ = q.MarkDone()
			}
		}()
	}

	for round := 0; round < 50; round++ {
		var producers sync.WaitGroup
		for p := 0; p < 8; p++ {
			producers.Add(1)
			go func() {
				defer producers.Done()
				assert.NoError(t, q.Put(ctx, MediaJob{}))
			}()
		}
		producers.Wait()
		require.NoError(t, q.Join(ctx))

		require.Equal(t, 0, q.Unfinished())
		require.Equal(t, float64(0), unfinishedGauge(t), "round %d", round)
	}
}
