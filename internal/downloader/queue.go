package downloader

import (
	"context"
	"errors"
	"sync"

	"tumblrripper/pkg/metrics"
	"tumblrripper/pkg/tumblr"
)

// ErrTooManyDone is returned when MarkDone is called more often than Put
var ErrTooManyDone = errors.New("MarkDone called more times than jobs were put")

// MediaJob is one unit of download work: a post, or one photo of a
// photoset, together with the media type and the folder it downloads into.
type MediaJob struct {
	MediaType    string
	Post         *tumblr.Post
	TargetFolder string
	Source       string
}

// JobQueue is a bounded FIFO shared by the crawler and the workers. Every Put
// must be matched by a MarkDone once the job is processed; Join waits until
// that has happened for all jobs put so far.
type JobQueue struct {
	jobs chan MediaJob

	mu         sync.Mutex
	unfinished int
	drained    chan struct{}
}

// NewJobQueue creates a queue holding at most size pending jobs
func NewJobQueue(size int) *JobQueue {
	if size <= 0 {
		size = 1
	}
	drained := make(chan struct{})
	close(drained)
	return &JobQueue{
		jobs:    make(chan MediaJob, size),
		drained: drained,
	}
}

// Put enqueues a job, blocking while the queue is full
func (q *JobQueue) Put(ctx context.Context, job MediaJob) error {
	q.mu.Lock()
	if q.unfinished == 0 {
		q.drained = make(chan struct{})
	}
	q.unfinished++
	metrics.SetUnfinishedJobs(q.unfinished)
	q.mu.Unlock()

	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		_ = q.MarkDone()
		return ctx.Err()
	}
}

// Get dequeues a job, blocking while the queue is empty
func (q *JobQueue) Get(ctx context.Context) (MediaJob, error) {
	select {
	case job := <-q.jobs:
		return job, nil
	case <-ctx.Done():
		return MediaJob{}, ctx.Err()
	}
}

// MarkDone records that a job obtained from Get has been processed
func (q *JobQueue) MarkDone() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.unfinished <= 0 {
		return ErrTooManyDone
	}
	q.unfinished--
	metrics.SetUnfinishedJobs(q.unfinished)
	if q.unfinished == 0 {
		close(q.drained)
	}
	return nil
}

// Join blocks until every job put so far has been marked done
func (q *JobQueue) Join(ctx context.Context) error {
	q.mu.Lock()
	drained := q.drained
	q.mu.Unlock()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unfinished returns the number of jobs put and not yet marked done
func (q *JobQueue) Unfinished() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinished
}

// Len returns the number of jobs waiting to be picked up
func (q *JobQueue) Len() int {
	return len(q.jobs)
}
