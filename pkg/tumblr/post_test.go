package tumblr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "tumblrripper/pkg/errors"
)

func TestSanitize(t *testing.T) {
	in := []byte("a\x00b\x1fc\td\ne\x7f\xc3\xa9f")
	assert.Equal(t, "abcde\x7ff", string(Sanitize(in)))
}

func TestDecodePagePosts(t *testing.T) {
	page, err := DecodePage([]byte(samplePage))
	require.NoError(t, err)
	require.Len(t, page.Posts, 3)

	first := page.Posts[0]
	typ, ok := first.Type()
	assert.True(t, ok)
	assert.Equal(t, "photo", typ)
	assert.Equal(t, "101", first.ID())
	assert.True(t, first.IsOriginal())
	assert.Nil(t, first.Photoset())
	assert.Equal(t, []string{
		"https://64.media.tumblr.com/abc/tumblr_a_1280.jpg",
		"https://64.media.tumblr.com/abc/tumblr_a_500.jpg",
	}, first.ChildTexts("photo-url"))

	second := page.Posts[1]
	assert.False(t, second.IsOriginal())
	photos := second.Photoset()
	require.Len(t, photos, 2)
	text, ok := photos[1].ChildText("photo-url")
	assert.True(t, ok)
	assert.Equal(t, "https://64.media.tumblr.com/s/two.jpg", text)

	_, ok = page.Posts[2].Type()
	assert.False(t, ok)
}

func TestDecodePageWithoutPosts(t *testing.T) {
	tests := []string{
		`<tumblr version="1.0"><posts start="100" total="100"></posts></tumblr>`,
		`<tumblr version="1.0"><tumblelog name="x"/></tumblr>`,
	}
	for _, body := range tests {
		page, err := DecodePage([]byte(body))
		require.NoError(t, err)
		assert.Empty(t, page.Posts)
	}
}

func TestDecodePageInvalidUTF8(t *testing.T) {
	_, err := DecodePage([]byte("<tumblr>\xff</tumblr>"))
	assert.True(t, errs.Is(err, errs.ErrorTypeDecode))
}

func TestPostToMap(t *testing.T) {
	page, err := DecodePage([]byte(samplePage))
	require.NoError(t, err)

	m := page.Posts[0].ToMap()
	assert.Equal(t, "101", m["@id"])
	assert.Equal(t, "Photo", m["@type"])
	assert.Equal(t, "first", m["photo-caption"])

	urls, ok := m["photo-url"].([]interface{})
	require.True(t, ok)
	require.Len(t, urls, 2)
	firstURL := urls[0].(map[string]interface{})
	assert.Equal(t, "1280", firstURL["@max-width"])
	assert.Equal(t, "https://64.media.tumblr.com/abc/tumblr_a_1280.jpg", firstURL["#text"])

	data, err := json.Marshal(page.Posts[1])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"@reblogged-from-name":"other"`)
	assert.Contains(t, string(data), `"photoset"`)
}
