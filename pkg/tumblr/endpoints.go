package tumblr

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is the per-source host template for the v1 read API
	DefaultBaseURL = "https://{source}.tumblr.com"

	// SourcePlaceholder is replaced by the source name in a base URL template
	SourcePlaceholder = "{source}"

	// ReadEndpoint is the v1 read API path
	ReadEndpoint = "/api/read"

	// DefaultVideoHost serves normalised video assets
	DefaultVideoHost = "https://vt.tumblr.com/"

	// ReservedVideoPrefix marks video names that need no path prefix
	ReservedVideoPrefix = "tumblr"
)

// Media post types understood by the read API
const (
	TypeRegular = "regular"
	TypePhoto   = "photo"
	TypeVideo   = "video"
)

// MediaPostTypes lists the post types that can yield media jobs
var MediaPostTypes = []string{TypeRegular, TypePhoto, TypeVideo}

// IsMediaType reports whether t is a recognised media post type
func IsMediaType(t string) bool {
	for _, m := range MediaPostTypes {
		if t == m {
			return true
		}
	}
	return false
}

// SourceBaseURL fills the source name into a base URL template
func SourceBaseURL(template, source string) string {
	if template == "" {
		template = DefaultBaseURL
	}
	return strings.TrimRight(strings.ReplaceAll(template, SourcePlaceholder, source), "/")
}

// GetReadURL constructs the read API URL for one page of a source
func GetReadURL(template, source, mediaType string, num, start int) string {
	params := url.Values{}
	params.Set("type", mediaType)
	params.Set("num", strconv.Itoa(num))
	params.Set("start", strconv.Itoa(start))

	return fmt.Sprintf("%s%s?%s", SourceBaseURL(template, source), ReadEndpoint, params.Encode())
}
