package scraper

import (
	"context"
	"fmt"
	"time"

	"tumblrripper/internal/downloader"
	errs "tumblrripper/pkg/errors"
	"tumblrripper/pkg/logger"
	"tumblrripper/pkg/metrics"
	"tumblrripper/pkg/retry"
	"tumblrripper/pkg/tumblr"
)

const (
	maxPageRetryDelay        = time.Minute
	defaultNetworkRetryLimit = 5
)

// CrawlerOptions holds the pagination tunables
type CrawlerOptions struct {
	// BaseURL is the source URL template, see tumblr.DefaultBaseURL
	BaseURL string
	Start   int
	End     int
	Num     int
	// RetryLimit caps attempts per page; 0 retries until the page decodes
	RetryLimit int
	// NetworkRetryLimit caps attempts per page that end in a transport
	// failure or timeout, so an unreachable source is given up on
	NetworkRetryLimit int
	RetryDelay        time.Duration
}

// PassStats summarises one (source, media type) pass
type PassStats struct {
	Pages    int
	Posts    int
	Jobs     int
	NotFound bool
}

// Crawler walks the read API for one source and media type at a time and
// feeds the posts it accepts to a JobSink.
type Crawler struct {
	fetcher PageFetcher
	sink    JobSink
	dumper  PageDumper
	opts    CrawlerOptions
	logger  logger.Logger
}

// NewCrawler creates a crawler. dumper may be nil.
func NewCrawler(fetcher PageFetcher, sink JobSink, dumper PageDumper, opts CrawlerOptions, log logger.Logger) *Crawler {
	if opts.BaseURL == "" {
		opts.BaseURL = tumblr.DefaultBaseURL
	}
	if opts.Num <= 0 {
		opts.Num = 50
	}
	if opts.NetworkRetryLimit <= 0 {
		opts.NetworkRetryLimit = defaultNetworkRetryLimit
	}
	return &Crawler{
		fetcher: fetcher,
		sink:    sink,
		dumper:  dumper,
		opts:    opts,
		logger:  logger.OrDefault(log),
	}
}

// Crawl pages through source for mediaType and enqueues one job per accepted
// post, or one per photo for photosets. A missing source ends the pass
// without an error. It does not wait for the enqueued jobs.
func (c *Crawler) Crawl(ctx context.Context, source, mediaType, folder string, filter PostFilter) (PassStats, error) {
	var stats PassStats
	if filter == nil {
		filter = AcceptAll
	}
	log := c.logger.WithFields(map[string]interface{}{
		"source":     source,
		"media_type": mediaType,
	})

	for start := c.opts.Start; start < c.opts.End; {
		pageURL := tumblr.GetReadURL(c.opts.BaseURL, source, mediaType, c.opts.Num, start)
		pageLog := log.WithField("start", start)

		page, err := c.fetchPage(ctx, mediaType, pageURL, pageLog)
		switch {
		case errs.Is(err, errs.ErrorTypeNotFound):
			metrics.ObservePage(mediaType, "not_found")
			pageLog.WithField("url", pageURL).Warn("source does not exist")
			stats.NotFound = true
			return stats, nil
		case err != nil:
			metrics.ObservePage(mediaType, "error")
			pageLog.WithError(err).WithField("url", pageURL).Error("unable to process page")
			return stats, fmt.Errorf("crawl %s %s at start %d: %w", source, mediaType, start, err)
		}
		metrics.ObservePage(mediaType, "ok")
		stats.Pages++

		if c.dumper != nil {
			if err := c.dumper.DumpPage(source, mediaType, c.opts.Num, start, page.Raw); err != nil {
				pageLog.WithError(err).Warn("failed to dump page")
			}
		}

		if len(page.Posts) == 0 {
			pageLog.Debug("no more posts")
			return stats, nil
		}
		stats.Posts += len(page.Posts)

		for _, post := range page.Posts {
			n, err := c.enqueue(ctx, source, folder, post, filter)
			stats.Jobs += n
			if err != nil {
				return stats, err
			}
		}

		pageLog.DebugWithFields("page processed", map[string]interface{}{
			"posts": len(page.Posts),
			"jobs":  stats.Jobs,
		})
		start += c.opts.Num
	}

	return stats, nil
}

// fetchPage retrieves one page, retrying the same URL while the failure is a
// decode or transport error.
func (c *Crawler) fetchPage(ctx context.Context, mediaType, pageURL string, log logger.Logger) (*tumblr.Page, error) {
	transportFailures := 0
	return retry.DoWithResult(func() (*tumblr.Page, error) {
		return c.fetcher.FetchPage(ctx, pageURL)
	}, &retry.Config{
		MaxAttempts: c.opts.RetryLimit,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:  c.opts.RetryDelay,
			MaxDelay:   maxPageRetryDelay,
			Multiplier: 2,
		},
		RetryIf: func(err error) bool {
			if ctx.Err() != nil {
				return false
			}
			switch errs.TypeOf(err) {
			case errs.ErrorTypeDecode:
				return true
			case errs.ErrorTypeNetwork, errs.ErrorTypeTimeout:
				transportFailures++
				return transportFailures < c.opts.NetworkRetryLimit
			}
			return false
		},
		OnRetry: func(attempt int, err error, delay time.Duration) {
			metrics.ObservePage(mediaType, "retry")
			msg := "page request failed, retrying"
			if errs.Is(err, errs.ErrorTypeDecode) {
				msg = "cannot decode response data, retrying"
			}
			log.WithError(err).WarnWithFields(msg, map[string]interface{}{
				"attempt": attempt,
				"delay":   delay,
			})
		},
		Context: ctx,
	})
}

// enqueue turns one post into jobs and reports how many were put
func (c *Crawler) enqueue(ctx context.Context, source, folder string, post *tumblr.Post, filter PostFilter) (int, error) {
	if c.dumper != nil {
		if err := c.dumper.DumpPost(source, post); err != nil {
			c.logger.WithError(err).WithField("post_id", post.ID()).Warn("failed to dump post")
		}
	}

	mediaType, ok := post.Type()
	if !ok || !tumblr.IsMediaType(mediaType) || !filter(post) {
		return 0, nil
	}

	items := post.Photoset()
	if len(items) == 0 {
		items = []*tumblr.Post{post}
	}

	for i, item := range items {
		job := downloader.MediaJob{
			MediaType:    mediaType,
			Post:         item,
			TargetFolder: folder,
			Source:       source,
		}
		if err := c.sink.Put(ctx, job); err != nil {
			return i, fmt.Errorf("enqueue post %s: %w", post.ID(), err)
		}
	}
	return len(items), nil
}
