package resolver

import (
	"regexp"
	"strings"
)

// URLExtractor pulls a media URL out of a video embed fragment.
// Extractors are tried in order and the first match wins.
type URLExtractor interface {
	Name() string
	Extract(fragment string) (string, bool)
}

var (
	hdURLPattern   = regexp.MustCompile(`"hdUrl":("([^\s,]*)"|false),`)
	srcAttrPattern = regexp.MustCompile(`src="(\S*)" `)
)

// HDURLExtractor reads the last "hdUrl" field of the player config.
// A false value is no match. Backslash escapes are removed from the URL.
type HDURLExtractor struct{}

func (HDURLExtractor) Name() string { return "hd_url" }

func (HDURLExtractor) Extract(fragment string) (string, bool) {
	matches := hdURLPattern.FindAllStringSubmatch(fragment, -1)
	if len(matches) == 0 {
		return "", false
	}
	last := matches[len(matches)-1]
	if last[1] == "false" {
		return "", false
	}
	return strings.ReplaceAll(last[2], `\`, ""), true
}

// SourceExtractor reads the last src attribute of the embed markup
type SourceExtractor struct{}

func (SourceExtractor) Name() string { return "src" }

func (SourceExtractor) Extract(fragment string) (string, bool) {
	matches := srcAttrPattern.FindAllStringSubmatch(fragment, -1)
	if len(matches) == 0 {
		return "", false
	}
	return matches[len(matches)-1][1], true
}

// DefaultVideoExtractors returns the HD rule followed by the src fallback
func DefaultVideoExtractors() []URLExtractor {
	return []URLExtractor{HDURLExtractor{}, SourceExtractor{}}
}
