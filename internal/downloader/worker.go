package downloader

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	errs "tumblrripper/pkg/errors"
	"tumblrripper/pkg/logger"
	"tumblrripper/pkg/metrics"
	"tumblrripper/pkg/resolver"
	"tumblrripper/pkg/retry"
	"tumblrripper/pkg/tumblr"
)

// URLResolver maps a post to the media URLs it carries
type URLResolver interface {
	Resolve(mediaType string, post *tumblr.Post) ([]resolver.ResolvedURL, error)
}

// MediaFetcher opens a media download
type MediaFetcher interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// MediaStore persists media files
type MediaStore interface {
	Exists(path string) bool
	Save(path string, r io.Reader) (int64, error)
	Cleanup(path string)
}

// WorkerOptions tunes a DownloadWorker
type WorkerOptions struct {
	// Retry is the number of fetch attempts per URL
	Retry int
	// VideoHost serves normalised video names
	VideoHost string
}

// DownloadWorker resolves a job's URLs and downloads each one
type DownloadWorker struct {
	resolver URLResolver
	fetcher  MediaFetcher
	store    MediaStore
	opts     WorkerOptions
	logger   logger.Logger
}

// NewDownloadWorker creates a worker
func NewDownloadWorker(res URLResolver, fetcher MediaFetcher, store MediaStore, opts WorkerOptions, log logger.Logger) *DownloadWorker {
	if opts.Retry <= 0 {
		opts.Retry = 1
	}
	if opts.VideoHost == "" {
		opts.VideoHost = tumblr.DefaultVideoHost
	}
	return &DownloadWorker{
		resolver: res,
		fetcher:  fetcher,
		store:    store,
		opts:     opts,
		logger:   logger.OrDefault(log),
	}
}

// Execute processes one job. Failures are logged and confined to the job.
func (w *DownloadWorker) Execute(ctx context.Context, job MediaJob) {
	urls, err := w.resolver.Resolve(job.MediaType, job.Post)
	if err != nil {
		metrics.ObserveJob(metrics.JobUnresolved)
		fields := map[string]interface{}{
			"media_type": job.MediaType,
			"source":     job.Source,
			"post_id":    job.Post.ID(),
		}
		var resErr *resolver.ResolutionError
		if errors.As(err, &resErr) {
			fields["post"] = resErr.Post.String()
		}
		w.logger.WithError(err).WarnWithFields("didn't download medium", fields)
		return
	}

	for _, u := range urls {
		if ctx.Err() != nil {
			return
		}
		status := w.download(ctx, u, job.TargetFolder)
		metrics.ObserveJob(status)
	}
}

// MediaName derives the file name for a media URL and the URL to fetch it
// from. Video names without the reserved prefix get the parent path segment
// prepended, an .mp4 extension, and are fetched from videoHost.
func MediaName(mediaType, mediaURL, videoHost string) (name, fetchURL string) {
	segments := strings.Split(mediaURL, "/")
	name = strings.SplitN(segments[len(segments)-1], "?", 2)[0]
	fetchURL = mediaURL

	if mediaType == tumblr.TypeVideo {
		if !strings.HasPrefix(name, tumblr.ReservedVideoPrefix) && len(segments) >= 2 {
			name = segments[len(segments)-2] + "_" + name
		}
		name += ".mp4"
		fetchURL = videoHost + name
	}

	return name, fetchURL
}

// download fetches one URL into folder and reports the outcome
func (w *DownloadWorker) download(ctx context.Context, u resolver.ResolvedURL, folder string) string {
	name, fetchURL := MediaName(u.MediaType, u.URL, w.opts.VideoHost)
	path := filepath.Join(folder, name)
	fields := map[string]interface{}{
		"media_type": u.MediaType,
		"name":       name,
		"url":        fetchURL,
	}
	if u.Rule != "" {
		fields["rule"] = u.Rule
	}
	log := w.logger.WithFields(fields)

	if w.store.Exists(path) {
		log.Debug("medium already downloaded")
		return metrics.JobSkipped
	}

	log.Info("downloading medium")

	var written int64
	err := retry.Do(func() error {
		metrics.ObserveFetchAttempt()
		body, err := w.fetcher.Open(ctx, fetchURL)
		if err != nil {
			return err
		}
		defer body.Close()

		written, err = w.store.Save(path, body)
		return err
	}, &retry.Config{
		MaxAttempts: w.opts.Retry,
		Backoff:     &retry.ConstantBackoff{},
		RetryIf:     func(err error) bool { return ctx.Err() == nil && retryFetch(err) },
		Context:     ctx,
		Logger:      log,
	})

	switch {
	case err == nil:
		metrics.ObserveBytes(written)
		log.DebugWithFields("medium downloaded", map[string]interface{}{"size": written})
		return metrics.JobDownloaded
	case errs.Is(err, errs.ErrorTypeAccessDenied):
		w.store.Cleanup(path)
		log.Warn("access denied")
		return metrics.JobDenied
	default:
		w.store.Cleanup(path)
		log.WithError(err).Error("failed to retrieve medium")
		return metrics.JobFailed
	}
}

// retryFetch retries every fetch failure except access denied and
// cancellation.
func retryFetch(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return !errs.Is(err, errs.ErrorTypeAccessDenied)
}
