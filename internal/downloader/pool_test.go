package downloader

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"tumblrripper/pkg/logger"
)

// countingExecutor sleeps per job and tracks concurrency
type countingExecutor struct {
	delay     time.Duration
	done      atomic.Int32
	running   atomic.Int32
	maxActive atomic.Int32
}

func (e *countingExecutor) Execute(ctx context.Context, job MediaJob) {
	n := e.running.Add(1)
	for {
		peak := e.maxActive.Load()
		if n <= peak || e.maxActive.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(e.delay)
	e.running.Add(-1)
	e.done.Add(1)
}

// mockExecutor is a testify mock of Executor
type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) Execute(ctx context.Context, job MediaJob) {
	m.Called(ctx, job)
}

func TestWorkerPoolJoinBarrier(t *testing.T) {
	const jobs, workers = 50, 4

	exec := &countingExecutor{delay: 5 * time.Millisecond}
	queue := NewJobQueue(8)
	pool := NewWorkerPool(workers, queue, exec, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	pool.Start(ctx)

	for i := 0; i < jobs; i++ {
		require.NoError(t, queue.Put(ctx, MediaJob{MediaType: "photo"}))
	}
	require.NoError(t, queue.Join(ctx))

	assert.Equal(t, int32(jobs), exec.done.Load())
	assert.Equal(t, 0, queue.Unfinished())
	assert.LessOrEqual(t, exec.maxActive.Load(), int32(workers))
	assert.Equal(t, workers, pool.Size())

	cancel()
	pool.Wait()
}

func TestWorkerPoolSequentialPasses(t *testing.T) {
	exec := &countingExecutor{delay: time.Millisecond}
	queue := NewJobQueue(2)
	pool := NewWorkerPool(3, queue, exec, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	total := int32(0)
	for pass := 0; pass < 3; pass++ {
		for i := 0; i < 10; i++ {
			require.NoError(t, queue.Put(ctx, MediaJob{}))
		}
		total += 10
		require.NoError(t, queue.Join(ctx))
		assert.Equal(t, total, exec.done.Load(), "pass %d", pass)
	}
}

func TestWorkerPoolRecoversFromPanic(t *testing.T) {
	exec := &mockExecutor{}
	boom := mock.MatchedBy(func(job MediaJob) bool { return job.Source == "boom" })
	fine := mock.MatchedBy(func(job MediaJob) bool { return job.Source != "boom" })
	exec.On("Execute", mock.Anything, boom).Panic("unexpected markup")
	exec.On("Execute", mock.Anything, fine).Return()

	log := logger.NewTestLogger()
	queue := NewJobQueue(4)
	pool := NewWorkerPool(1, queue, exec, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	for _, src := range []string{"a", "boom", "b", "boom", "c"} {
		require.NoError(t, queue.Put(ctx, MediaJob{Source: src}))
	}

	joinCtx, joinCancel := context.WithTimeout(ctx, 5*time.Second)
	defer joinCancel()
	require.NoError(t, queue.Join(joinCtx))

	exec.AssertNumberOfCalls(t, "Execute", 5)
	assert.Equal(t, 2, log.CountMessage("worker recovered from panic"))
}

func TestWorkerPoolStopsOnCancel(t *testing.T) {
	pool := NewWorkerPool(0, NewJobQueue(1), &countingExecutor{}, logger.NewNopLogger())
	assert.Equal(t, 1, pool.Size())

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	cancel()

	stopped := make(chan struct{})
	go func() {
		pool.Wait()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("workers did not stop after cancel")
	}
}
