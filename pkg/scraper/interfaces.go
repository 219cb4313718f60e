package scraper

import (
	"context"

	"tumblrripper/internal/downloader"
	"tumblrripper/pkg/tumblr"
)

// PageFetcher defines the read API operation the crawler needs
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (*tumblr.Page, error)
}

// JobSink accepts media jobs produced by the crawler
type JobSink interface {
	Put(ctx context.Context, job downloader.MediaJob) error
}

// PageDumper persists raw pages and posts for debugging
type PageDumper interface {
	DumpPage(source, mediaType string, num, start int, raw []byte) error
	DumpPost(source string, post *tumblr.Post) error
}

// PostFilter decides whether a media post is enqueued
type PostFilter func(post *tumblr.Post) bool

// AcceptAll accepts every post
func AcceptAll(*tumblr.Post) bool { return true }

// OriginalsOnly accepts posts that were not reblogged
func OriginalsOnly(post *tumblr.Post) bool { return post.IsOriginal() }

// FilterFor returns the filter matching the originals-only setting
func FilterFor(originalsOnly bool) PostFilter {
	if originalsOnly {
		return OriginalsOnly
	}
	return AcceptAll
}
