package tumblr

import (
	"bytes"
	"unicode/utf8"

	"github.com/antchfx/xmlquery"
	errs "tumblrripper/pkg/errors"
)

// postsPath locates post records in a read API document
const postsPath = "/tumblr/posts/post"

// Page is one decoded read API response
type Page struct {
	// Raw is the sanitised document the posts were parsed from
	Raw   []byte
	Posts []*Post
}

// Sanitize drops every byte outside the printable ASCII range 0x20-0x7f.
// The read API is known to emit control characters that break XML parsers.
func Sanitize(body []byte) []byte {
	out := make([]byte, 0, len(body))
	for _, b := range body {
		if b >= 0x20 && b <= 0x7f {
			out = append(out, b)
		}
	}
	return out
}

// DecodePage validates, sanitises and parses a raw response body.
// A body that is not valid UTF-8 yields a decode error. A document without a
// post list yields a page with no posts.
func DecodePage(body []byte) (*Page, error) {
	if !utf8.Valid(body) {
		return nil, errs.New(errs.ErrorTypeDecode, 0, "response body is not valid UTF-8")
	}

	clean := Sanitize(body)
	doc, err := xmlquery.Parse(bytes.NewReader(clean))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "failed to parse read API document")
	}

	nodes := xmlquery.Find(doc, postsPath)
	posts := make([]*Post, 0, len(nodes))
	for _, n := range nodes {
		posts = append(posts, NewPost(n))
	}

	return &Page{Raw: clean, Posts: posts}, nil
}
