// Package httpclient is the shared fetch layer for all JSON/HTML adapters:
// rate limiting, identity rotation, proxy selection, retry with backoff and
// failure classification live here so adapters stay thin mapping code.
package httpclient

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MinorTermite/prizmbet-v2/internal/pkg/apperrors"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/proxy"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/ratelimit"
	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

const (
	defaultTimeout = 30 * time.Second
	maxAttempts    = 3
	baseBackoff    = time.Second
)

// Options configure a single request beyond the URL.
type Options struct {
	Header http.Header // extra headers (auth), merged over the rotated identity
	Query  url.Values

	// ObserveHeaders, when set, receives the response headers of a
	// successful request (quota counters and the like).
	ObserveHeaders func(http.Header)
}

// Client performs rate-limited, proxy-aware GET requests with retry.
// One instance is shared by every adapter in a pipeline.
type Client struct {
	limiter *ratelimit.Limiter
	rotator *ratelimit.UARotator
	proxies *proxy.Manager // nil when proxying is disabled
	static  string         // static proxy URL override; bypasses the pool
	timeout time.Duration

	// sleep is replaced in tests to avoid real backoff waits.
	sleep func(context.Context, time.Duration) error
}

// New creates the shared client. proxies may be nil (direct connections);
// staticProxy, when set, is used for every request instead of the pool.
func New(limiter *ratelimit.Limiter, proxies *proxy.Manager, staticProxy string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		limiter: limiter,
		rotator: ratelimit.NewUARotator(),
		proxies: proxies,
		static:  staticProxy,
		timeout: timeout,
		sleep:   sleepCtx,
	}
}

// Get fetches rawURL and returns the decompressed body. Transient failures
// (timeout, 5xx, connection reset) are retried up to 3 attempts with
// exponential backoff; 4xx responses are permanent and returned immediately.
func (c *Client) Get(ctx context.Context, rawURL string, opts Options) ([]byte, error) {
	requestURL := rawURL
	if len(opts.Query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		requestURL = rawURL + sep + opts.Query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := baseBackoff << (attempt - 1)
			slog.Debug("Retrying request", "url", rawURL, "attempt", attempt+1, "backoff", backoff)
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			if err := c.sleep(ctx, c.limiter.Jitter()); err != nil {
				return nil, err
			}
		}

		body, err := c.do(ctx, requestURL, opts)
		if err == nil {
			return body, nil
		}
		if !apperrors.IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all %d attempts failed: %w", maxAttempts, lastErr)
}

// GetJSON fetches rawURL expecting a JSON body (Accept header set).
func (c *Client) GetJSON(ctx context.Context, rawURL string, opts Options) ([]byte, error) {
	if opts.Header == nil {
		opts.Header = http.Header{}
	}
	if opts.Header.Get("Accept") == "" {
		opts.Header.Set("Accept", "application/json, text/plain, */*")
	}
	return c.Get(ctx, rawURL, opts)
}

func (c *Client) do(ctx context.Context, requestURL string, opts Options) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, apperrors.Permanent(err)
	}

	for k, vs := range c.rotator.Headers() {
		req.Header[k] = vs
	}
	for k, vs := range opts.Header {
		req.Header[k] = vs
	}

	httpClient, proxyUsed := c.buildClient(reqCtx)
	resp, err := httpClient.Do(req)
	if err != nil {
		if proxyUsed != "" && c.proxies != nil {
			c.proxies.MarkFailed(proxyUsed)
			slog.Debug("Proxy marked failed", "proxy", maskProxy(proxyUsed))
		}
		return nil, apperrors.ClassifyNetErr(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.ClassifyNetErr(err)
	}

	if statusErr := apperrors.ClassifyStatus(resp.StatusCode); statusErr != nil {
		slog.Debug("HTTP error response", "url", requestURL, "status", resp.StatusCode)
		return nil, statusErr
	}

	if opts.ObserveHeaders != nil {
		opts.ObserveHeaders(resp.Header)
	}
	return decodeBody(body, resp.Header.Get("Content-Encoding"))
}

// buildClient returns an HTTP client wired to the current proxy selection
// and which proxy it uses ("" for direct). A stale or exhausted pool is
// re-fetched before picking, so a run that burns through every proxy goes
// back to the list sources instead of silently running direct.
func (c *Client) buildClient(ctx context.Context) (*http.Client, string) {
	proxyURL := c.static
	if proxyURL == "" && c.proxies != nil {
		c.proxies.RefreshIfNeeded(ctx)
		proxyURL = c.proxies.Get()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		} else {
			proxyURL = ""
		}
	}
	return &http.Client{Timeout: c.timeout, Transport: transport}, proxyURL
}

// decodeBody decompresses the body per its Content-Encoding. Setting an
// explicit Accept-Encoding disables the transport's transparent gzip, so
// every encoding the identity headers advertise must be handled here.
func decodeBody(body []byte, encoding string) ([]byte, error) {
	enc := strings.ToLower(strings.TrimSpace(encoding))
	switch {
	case strings.Contains(enc, "br"):
		out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, apperrors.Permanent(fmt.Errorf("brotli: %w", err))
		}
		return out, nil
	case strings.Contains(enc, "zstd"):
		zr, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, apperrors.Permanent(fmt.Errorf("zstd: %w", err))
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, apperrors.Permanent(fmt.Errorf("zstd: %w", err))
		}
		return out, nil
	case strings.Contains(enc, "deflate"):
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			// Some servers send raw deflate without the zlib wrapper.
			fr := flate.NewReader(bytes.NewReader(body))
			defer fr.Close()
			out, ferr := io.ReadAll(fr)
			if ferr != nil {
				return nil, apperrors.Permanent(fmt.Errorf("deflate: %w", ferr))
			}
			return out, nil
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, apperrors.Permanent(fmt.Errorf("deflate: %w", err))
		}
		return out, nil
	default:
		// Covers "gzip" and the missing header; 1xbet's VZip feed ships
		// gzip bytes with no Content-Encoding at all.
		return maybeGunzip(body)
	}
}

// maybeGunzip decompresses bodies that carry the gzip magic bytes,
// whether or not a Content-Encoding header said so.
func maybeGunzip(body []byte) ([]byte, error) {
	if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
		return body, nil
	}
	zr, err := gzip.NewReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, apperrors.Permanent(fmt.Errorf("gzip: %w", err))
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, apperrors.Permanent(fmt.Errorf("gzip: %w", err))
	}
	return out, nil
}

func maskProxy(proxyURL string) string {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return "***"
	}
	if parsed.User != nil {
		parsed.User = url.User(parsed.User.Username())
	}
	return parsed.String()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
