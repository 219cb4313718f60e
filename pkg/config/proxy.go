package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"

	errs "tumblrripper/pkg/errors"
)

// LoadProxies reads the optional proxies file (a JSON object of scheme to
// proxy URL). A missing file is not an error; a malformed one is fatal.
func (c *Config) LoadProxies() error {
	if c.Proxy.File == "" {
		return nil
	}

	data, err := os.ReadFile(c.Proxy.File)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.Wrap(errs.ErrorTypeConfig, err, "failed to read proxies file %s", c.Proxy.File)
	}

	var proxies map[string]string
	if err := json.Unmarshal(data, &proxies); err != nil {
		return errs.Wrap(errs.ErrorTypeConfig, err, "illegal JSON format in proxies file %s", c.Proxy.File)
	}

	if c.Proxy.Proxies == nil {
		c.Proxy.Proxies = make(map[string]string, len(proxies))
	}
	for scheme, proxy := range proxies {
		c.Proxy.Proxies[scheme] = proxy
	}

	return nil
}

// ProxyFunc returns a function suitable for http.Transport.Proxy that picks the
// proxy registered for the request's scheme. It returns nil when no proxies are
// configured, which leaves the transport on direct connections.
func (p ProxyConfig) ProxyFunc() (func(*http.Request) (*url.URL, error), error) {
	if len(p.Proxies) == 0 {
		return nil, nil
	}

	parsed := make(map[string]*url.URL, len(p.Proxies))
	for scheme, raw := range p.Proxies {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy for scheme %q: %w", scheme, err)
		}
		parsed[scheme] = u
	}

	return func(req *http.Request) (*url.URL, error) {
		return parsed[req.URL.Scheme], nil
	}, nil
}
