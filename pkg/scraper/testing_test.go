package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"tumblrripper/internal/downloader"
	"tumblrripper/pkg/tumblr"
)

// readAPI emulates /api/read and counts requests per (type, start)
type readAPI struct {
	*httptest.Server
	mu      sync.Mutex
	hits    map[string]int
	respond func(source, mediaType string, start, hit int) (int, string)
}

func newReadAPI(t *testing.T, respond func(source, mediaType string, start, hit int) (int, string)) *readAPI {
	t.Helper()
	api := &readAPI{hits: map[string]int{}, respond: respond}
	api.Server = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.Close)
	return api
}

func (a *readAPI) serve(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, tumblr.ReadEndpoint) {
		http.NotFound(w, r)
		return
	}
	source := strings.Trim(strings.TrimSuffix(r.URL.Path, tumblr.ReadEndpoint), "/")
	mediaType := r.URL.Query().Get("type")
	start, _ := strconv.Atoi(r.URL.Query().Get("start"))

	a.mu.Lock()
	key := fmt.Sprintf("%s/%s/%d", source, mediaType, start)
	a.hits[key]++
	hit := a.hits[key]
	a.mu.Unlock()

	status, body := a.respond(source, mediaType, start, hit)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (a *readAPI) count(source, mediaType string, start int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hits[fmt.Sprintf("%s/%s/%d", source, mediaType, start)]
}

func (a *readAPI) total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, v := range a.hits {
		n += v
	}
	return n
}

// baseURL routes every source to a path prefix on the test server
func (a *readAPI) baseURL() string {
	return a.URL + "/" + tumblr.SourcePlaceholder
}

func document(posts ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><tumblr version="1.0"><posts>` +
		strings.Join(posts, "") + `</posts></tumblr>`
}

func photoXML(id int, mediaURL string) string {
	return fmt.Sprintf(`<post id="%d" type="photo"><photo-url max-width="1280">%s</photo-url></post>`, id, mediaURL)
}

func photoPage(first, n int) string {
	posts := make([]string, 0, n)
	for i := first; i < first+n; i++ {
		posts = append(posts, photoXML(i, fmt.Sprintf("https://media.example/p/%d.jpg", i)))
	}
	return document(posts...)
}

// recordingSink collects jobs instead of queueing them
type recordingSink struct {
	mu   sync.Mutex
	jobs []downloader.MediaJob
	err  error
}

func (s *recordingSink) Put(ctx context.Context, job downloader.MediaJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *recordingSink) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		ids = append(ids, j.Post.ID())
	}
	return ids
}

// stubFetcher returns canned results in order
type stubFetcher struct {
	results []error
	calls   int
}

func (f *stubFetcher) FetchPage(ctx context.Context, url string) (*tumblr.Page, error) {
	f.calls++
	if f.calls <= len(f.results) {
		return nil, f.results[f.calls-1]
	}
	return nil, errors.New("unexpected call")
}
