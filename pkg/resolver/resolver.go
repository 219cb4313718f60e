package resolver

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	errs "tumblrripper/pkg/errors"
	"tumblrripper/pkg/tumblr"
)

// ResolvedURL is a media URL together with the type that produced it
type ResolvedURL struct {
	URL       string
	MediaType string
	// Rule names the video extractor that matched, empty for other types
	Rule string
}

// ResolutionError reports a post whose required media fields are absent or
// malformed. It carries the post for diagnostics and is terminal for the job.
type ResolutionError struct {
	MediaType string
	Post      *tumblr.Post
	Reason    string
	Err       error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("unable to find the right url for downloading %s: %s", e.MediaType, e.Reason)
}

// Unwrap exposes the typed resolution error for classification
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Resolver maps a post and its media type to the URLs to download
type Resolver struct {
	videoRules []URLExtractor
}

// New creates a resolver. With no rules the default video chain is used.
func New(videoRules ...URLExtractor) *Resolver {
	if len(videoRules) == 0 {
		videoRules = DefaultVideoExtractors()
	}
	return &Resolver{videoRules: videoRules}
}

// Resolve returns the media URLs of a post. It performs no network I/O.
// A regular post without images resolves to an empty list.
func (r *Resolver) Resolve(mediaType string, post *tumblr.Post) ([]ResolvedURL, error) {
	var (
		urls []string
		rule string
		err  error
	)

	switch mediaType {
	case tumblr.TypePhoto:
		urls, err = r.resolvePhoto(post)
	case tumblr.TypeVideo:
		urls, rule, err = r.resolveVideo(post)
	case tumblr.TypeRegular:
		urls, err = r.resolveRegular(post)
	default:
		err = fmt.Errorf("unsupported media type %q", mediaType)
	}
	if err != nil {
		return nil, &ResolutionError{
			MediaType: mediaType,
			Post:      post,
			Reason:    err.Error(),
			Err:       errs.Wrap(errs.ErrorTypeResolution, err, "resolve %s post", mediaType),
		}
	}

	resolved := make([]ResolvedURL, 0, len(urls))
	for _, u := range urls {
		resolved = append(resolved, ResolvedURL{URL: u, MediaType: mediaType, Rule: rule})
	}
	return resolved, nil
}

func (r *Resolver) resolvePhoto(post *tumblr.Post) ([]string, error) {
	url, ok := post.ChildText("photo-url")
	if !ok || strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("post has no photo-url")
	}
	return []string{strings.TrimSpace(url)}, nil
}

func (r *Resolver) resolveVideo(post *tumblr.Post) ([]string, string, error) {
	players := post.ChildTexts("video-player")
	if len(players) < 2 {
		return nil, "", fmt.Errorf("post has %d video-player entries, need 2", len(players))
	}

	fragment := players[1]
	for _, rule := range r.videoRules {
		if url, ok := rule.Extract(fragment); ok {
			return []string{url}, rule.Name(), nil
		}
	}
	return nil, "", fmt.Errorf("no video url rule matched the player markup")
}

func (r *Resolver) resolveRegular(post *tumblr.Post) ([]string, error) {
	body, ok := post.ChildText("regular-body")
	if !ok {
		return nil, fmt.Errorf("post has no regular-body")
	}
	return ImagesFromHTML(body)
}

// ImagesFromHTML returns the best srcset candidate of every img element.
// The best candidate is the second-to-last whitespace-separated token of
// the raw srcset, the URL before the final descriptor.
func ImagesFromHTML(body string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular body: %w", err)
	}

	srcs := []string{}
	var firstErr error
	doc.Find("img").EachWithBreak(func(i int, img *goquery.Selection) bool {
		srcset, ok := img.Attr("srcset")
		if !ok {
			firstErr = fmt.Errorf("image %d has no srcset", i)
			return false
		}
		tokens := strings.Fields(srcset)
		if len(tokens) < 2 {
			firstErr = fmt.Errorf("image %d has a malformed srcset %q", i, srcset)
			return false
		}
		srcs = append(srcs, tokens[len(tokens)-2])
		return true
	})
	if firstErr != nil {
		return nil, firstErr
	}

	return srcs, nil
}
