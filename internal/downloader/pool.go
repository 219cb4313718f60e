package downloader

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"tumblrripper/pkg/logger"
	"tumblrripper/pkg/metrics"
)

// Executor processes one job. It has no result; outcomes are logged.
type Executor interface {
	Execute(ctx context.Context, job MediaJob)
}

// WorkerPool runs a fixed set of long-lived workers over a JobQueue
type WorkerPool struct {
	numWorkers int
	queue      *JobQueue
	executor   Executor
	logger     logger.Logger
	startOnce  sync.Once
	wg         sync.WaitGroup
}

// NewWorkerPool creates a new download worker pool
func NewWorkerPool(numWorkers int, queue *JobQueue, executor Executor, log logger.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &WorkerPool{
		numWorkers: numWorkers,
		queue:      queue,
		executor:   executor,
		logger:     logger.OrDefault(log),
	}
}

// Start launches the workers. Later calls are no-ops. Workers run until ctx
// is done.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.startOnce.Do(func() {
		wp.logger.InfoWithFields("starting worker pool", map[string]interface{}{
			"num_workers": wp.numWorkers,
		})

		for i := 0; i < wp.numWorkers; i++ {
			wp.wg.Add(1)
			go wp.worker(ctx, i)
		}
	})
}

// Wait blocks until every worker has returned, which happens after the
// context passed to Start is done.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Queue returns the queue the pool consumes
func (wp *WorkerPool) Queue() *JobQueue {
	return wp.queue
}

// Size returns the number of workers
func (wp *WorkerPool) Size() int {
	return wp.numWorkers
}

// worker is the main worker routine
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	wp.logger.DebugWithFields("worker started", map[string]interface{}{
		"worker_id": id,
	})

	for {
		job, err := wp.queue.Get(ctx)
		if err != nil {
			wp.logger.DebugWithFields("worker stopping", map[string]interface{}{
				"worker_id": id,
				"reason":    err.Error(),
			})
			return
		}
		wp.process(ctx, id, job)
	}
}

// process runs one job. The job is always marked done, and a panic is
// confined to the job so the worker keeps pulling.
func (wp *WorkerPool) process(ctx context.Context, id int, job MediaJob) {
	metrics.IncActiveWorkers()
	defer func() {
		if r := recover(); r != nil {
			metrics.ObserveJob(metrics.JobPanicked)
			wp.logger.ErrorWithFields("worker recovered from panic", map[string]interface{}{
				"worker_id":  id,
				"media_type": job.MediaType,
				"post":       job.Post.String(),
				"panic":      fmt.Sprint(r),
				"stack":      string(debug.Stack()),
			})
		}
		metrics.DecActiveWorkers()
		if err := wp.queue.MarkDone(); err != nil {
			wp.logger.WithError(err).Error("queue accounting error")
		}
	}()

	wp.executor.Execute(ctx, job)
}
