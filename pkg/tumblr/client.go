package tumblr

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	errs "tumblrripper/pkg/errors"
	"tumblrripper/pkg/logger"
)

// ProxyFunc selects a proxy for a request, as used by http.Transport
type ProxyFunc func(*http.Request) (*url.URL, error)

// Client talks to the read API and the media hosts
type Client struct {
	httpClient  *http.Client
	headers     map[string]string
	idleTimeout time.Duration
	logger      logger.Logger
}

// NewClient creates a client for read API pages. timeout bounds the whole
// request, body included.
func NewClient(timeout time.Duration, proxy ProxyFunc, log logger.Logger) *Client {
	return newClient(&http.Client{
		Timeout:   timeout,
		Transport: newTransport(proxy, 0),
	}, log)
}

// NewMediaClient creates a client for media downloads. timeout bounds the
// dial, the TLS handshake and the wait for response headers. While the body
// streams it is an idle timeout: a download fails once no bytes arrive for
// that long, so large videos still complete.
func NewMediaClient(timeout time.Duration, proxy ProxyFunc, log logger.Logger) *Client {
	c := newClient(&http.Client{
		Transport: newTransport(proxy, timeout),
	}, log)
	c.idleTimeout = timeout
	return c
}

func newClient(httpClient *http.Client, log logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		headers: map[string]string{
			"User-Agent": "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			"Accept":     "*/*",
		},
		logger: logger.OrDefault(log),
	}
}

func newTransport(proxy ProxyFunc, timeout time.Duration) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != nil {
		transport.Proxy = proxy
	}
	if timeout > 0 {
		transport.DialContext = (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
		transport.TLSHandshakeTimeout = timeout
		transport.ResponseHeaderTimeout = timeout
	}
	return transport
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, classifyTransportError(err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// classifyTransportError types a transport failure. Cancellation is passed
// through untyped so that retry loops stop.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errs.Wrap(errs.ErrorTypeTimeout, err, "request timed out")
	}
	return errs.Wrap(errs.ErrorTypeNetwork, err, "network error")
}

// Get performs a GET request and returns the response for any status
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}
	return c.doRequest(req)
}

// checkResponseStatus maps a non-2xx status to a typed error
func checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return errs.FromStatusCode(resp.StatusCode, resp.Request.URL.String())
}

// FetchPage fetches and decodes one read API page.
//
// A 404 yields a not-found error. A body that is not valid UTF-8 yields a
// decode error. A malformed document yields a parsing error.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*Page, error) {
	resp, err := c.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read response body")
	}

	page, err := DecodePage(body)
	if err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.DebugWithFields("failed to decode read API page", map[string]interface{}{
			"url":          pageURL,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return nil, err
	}

	return page, nil
}

// Open starts a media download. The caller must close the returned body.
// Non-2xx statuses are returned as typed errors with the body closed. A body
// that stalls for longer than the idle timeout fails with a timeout error.
func (c *Client) Open(ctx context.Context, mediaURL string) (io.ReadCloser, error) {
	reqCtx, cancel := context.WithCancelCause(ctx)
	resp, err := c.Get(reqCtx, mediaURL)
	if err != nil {
		cancel(nil)
		return nil, err
	}

	if err := checkResponseStatus(resp); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		cancel(nil)
		return nil, err
	}

	return newIdleBody(reqCtx, resp.Body, c.idleTimeout, cancel), nil
}

// errBodyStalled is the cancel cause used when a media body goes idle
var errBodyStalled = errors.New("no data received")

// idleBody cancels its request when no bytes arrive within timeout.
// Every successful read pushes the deadline out again.
type idleBody struct {
	ctx     context.Context
	body    io.ReadCloser
	timeout time.Duration
	timer   *time.Timer
	cancel  context.CancelCauseFunc
}

func newIdleBody(ctx context.Context, body io.ReadCloser, timeout time.Duration, cancel context.CancelCauseFunc) *idleBody {
	b := &idleBody{ctx: ctx, body: body, timeout: timeout, cancel: cancel}
	if timeout > 0 {
		b.timer = time.AfterFunc(timeout, func() { cancel(errBodyStalled) })
	}
	return b
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	if n > 0 && b.timer != nil {
		b.timer.Reset(b.timeout)
	}
	if err != nil && err != io.EOF && errors.Is(context.Cause(b.ctx), errBodyStalled) {
		return n, errs.Wrap(errs.ErrorTypeTimeout, errBodyStalled, "media body idle for %s", b.timeout)
	}
	return n, err
}

func (b *idleBody) Close() error {
	if b.timer != nil {
		b.timer.Stop()
	}
	err := b.body.Close()
	b.cancel(nil)
	return err
}
