package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"tumblrripper/internal/downloader"
	"tumblrripper/pkg/config"
	errs "tumblrripper/pkg/errors"
	"tumblrripper/pkg/logger"
	"tumblrripper/pkg/metadata"
	"tumblrripper/pkg/metrics"
	"tumblrripper/pkg/resolver"
	"tumblrripper/pkg/storage"
	"tumblrripper/pkg/tumblr"
)

// ErrAlreadyRan is returned when Run is called a second time
var ErrAlreadyRan = errors.New("scheduler already ran")

// FolderStore provides per-source target folders
type FolderStore interface {
	TargetFolder(source string) (string, error)
	SavedCount() int64
}

// Options selects what each source pass crawls
type Options struct {
	MediaTypes    []string
	OriginalsOnly bool
}

// Summary reports what a run did
type Summary struct {
	RunID          string
	Sources        int
	Passes         int
	FailedPasses   int
	MissingSources []string
	Jobs           int
	Saved          int64
	Duration       time.Duration
}

// Scheduler drives the crawler over every source and media type and owns
// the worker pool that drains the jobs.
type Scheduler struct {
	crawler *Crawler
	pool    *downloader.WorkerPool
	store   FolderStore
	opts    Options
	logger  logger.Logger
	ran     atomic.Bool
}

// NewScheduler assembles a scheduler from its parts. The crawler must feed
// the pool's queue.
func NewScheduler(crawler *Crawler, pool *downloader.WorkerPool, store FolderStore, opts Options, log logger.Logger) *Scheduler {
	if len(opts.MediaTypes) == 0 {
		opts.MediaTypes = []string{tumblr.TypePhoto, tumblr.TypeVideo}
	}
	return &Scheduler{
		crawler: crawler,
		pool:    pool,
		store:   store,
		opts:    opts,
		logger:  logger.OrDefault(log),
	}
}

// New builds the whole pipeline from configuration
func New(cfg *config.Config, log logger.Logger) (*Scheduler, error) {
	log = logger.OrDefault(log)

	proxy, err := cfg.Proxy.ProxyFunc()
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, err, "invalid proxy configuration")
	}

	store, err := storage.NewManager(cfg.Output.BaseDirectory, cfg.Download.ChunkSize)
	if err != nil {
		return nil, err
	}

	pageClient := tumblr.NewClient(cfg.Crawler.RequestTimeout, proxy, log)
	mediaClient := tumblr.NewMediaClient(cfg.Download.Timeout, proxy, log)

	queue := downloader.NewJobQueue(cfg.Download.QueueSize)
	worker := downloader.NewDownloadWorker(resolver.New(), mediaClient, store, downloader.WorkerOptions{
		Retry:     cfg.Download.Retry,
		VideoHost: cfg.Download.VideoHost,
	}, log)
	pool := downloader.NewWorkerPool(cfg.Download.Threads, queue, worker, log)

	var dumper PageDumper
	if d := metadata.NewDumper(store, cfg.Output.DumpResponses, cfg.Output.DumpPosts, log); d.Enabled() {
		dumper = d
	}

	crawler := NewCrawler(pageClient, queue, dumper, CrawlerOptions{
		BaseURL:           cfg.Crawler.BaseURL,
		Start:             cfg.Crawler.StartPostIndex,
		End:               cfg.Crawler.EndPostIndex,
		Num:               cfg.Crawler.MediaNum,
		RetryLimit:        cfg.Crawler.PageRetryLimit,
		NetworkRetryLimit: cfg.Crawler.PageNetworkRetryLimit,
		RetryDelay:        cfg.Crawler.PageRetryDelay,
	}, log)

	return NewScheduler(crawler, pool, store, Options{
		MediaTypes:    cfg.Crawler.MediaTypes,
		OriginalsOnly: cfg.Crawler.OriginalPostsOnly,
	}, log), nil
}

// Run crawls every source, one media type pass at a time, waiting for the
// pool to drain between passes. Pass failures are logged and the run moves
// on; only cancellation of ctx stops it early. Workers are started on entry
// and stopped on return, so Run may be called once.
func (s *Scheduler) Run(ctx context.Context, sources []string) (*Summary, error) {
	if s.ran.Swap(true) {
		return nil, ErrAlreadyRan
	}

	began := time.Now()
	summary := &Summary{RunID: uuid.NewString(), Sources: len(sources)}
	log := s.logger.WithField("run_id", summary.RunID)

	poolCtx, stop := context.WithCancel(ctx)
	s.pool.Start(poolCtx)
	defer func() {
		stop()
		s.pool.Wait()
	}()

	log.InfoWithFields("starting run", map[string]interface{}{
		"sources":     len(sources),
		"media_types": s.opts.MediaTypes,
		"workers":     s.pool.Size(),
	})

	filter := FilterFor(s.opts.OriginalsOnly)
	var runErr error

sources:
	for _, source := range sources {
		srcLog := log.WithField("source", source)

		folder, err := s.store.TargetFolder(source)
		if err != nil {
			srcLog.WithError(err).Error("failed to create target folder")
			summary.FailedPasses += len(s.opts.MediaTypes)
			continue
		}

		missing := false
		for _, mediaType := range s.opts.MediaTypes {
			passLog := srcLog.WithField("media_type", mediaType)
			passStarted := time.Now()

			stats, err := s.crawler.Crawl(ctx, source, mediaType, folder, filter)
			summary.Passes++
			summary.Jobs += stats.Jobs
			if err != nil {
				summary.FailedPasses++
				passLog.WithError(err).Error("pass aborted")
			}
			missing = missing || stats.NotFound

			if err := s.pool.Queue().Join(ctx); err != nil || ctx.Err() != nil {
				runErr = ctx.Err()
				break sources
			}

			metrics.ObservePass(mediaType, time.Since(passStarted))
			passLog.InfoWithFields(fmt.Sprintf("finished downloading all the %ss from %s", mediaType, source), map[string]interface{}{
				"pages": stats.Pages,
				"posts": stats.Posts,
				"jobs":  stats.Jobs,
			})
		}
		if missing {
			summary.MissingSources = append(summary.MissingSources, source)
		}
	}

	summary.Saved = s.store.SavedCount()
	summary.Duration = time.Since(began)

	log.InfoWithFields("run finished", map[string]interface{}{
		"passes":        summary.Passes,
		"failed_passes": summary.FailedPasses,
		"jobs":          summary.Jobs,
		"saved":         summary.Saved,
		"duration":      summary.Duration,
	})

	return summary, runErr
}
