// Package proxy maintains a pool of outbound proxies fetched from free
// public lists, health-tested and ranked by latency.
package proxy

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultSources are plaintext proxy lists, one host:port (or full URL) per line.
var DefaultSources = []string{
	"https://cdn.jsdelivr.net/gh/proxifly/free-proxy-list@main/proxies/protocols/http/data.txt",
	"https://cdn.jsdelivr.net/gh/proxifly/free-proxy-list@main/proxies/protocols/socks5/data.txt",
	"https://vakhov.github.io/fresh-proxy-list/http.txt",
	"https://vakhov.github.io/fresh-proxy-list/socks5.txt",
}

const (
	defaultTestURL  = "http://httpbin.org/ip"
	testTimeout     = 5 * time.Second
	listTimeout     = 10 * time.Second
	maxCandidates   = 50
	maxConcurrent   = 20
	staleAfter      = 15 * time.Minute
)

// Entry is one tested proxy with its observed probe latency.
type Entry struct {
	URL     string
	Latency time.Duration
}

// Manager fetches, tests and ranks proxies. Safe for concurrent use by
// adapters; access to the pool and the failed set is mutex-serialized.
type Manager struct {
	sources []string
	testURL string

	mu        sync.Mutex
	pool      []Entry
	failed    map[string]bool
	fetchedAt time.Time

	// refreshMu serializes pool refreshes so concurrent requests hitting a
	// stale pool trigger one re-fetch, not one per request.
	refreshMu sync.Mutex

	// probeClient builds the client used to test one proxy; replaced in tests.
	probeClient func(proxyURL *url.URL) *http.Client
}

// NewManager creates a proxy manager over the given list sources.
// Empty sources fall back to DefaultSources.
func NewManager(sources []string) *Manager {
	if len(sources) == 0 {
		sources = DefaultSources
	}
	return &Manager{
		sources: sources,
		testURL: defaultTestURL,
		failed:  map[string]bool{},
		probeClient: func(proxyURL *url.URL) *http.Client {
			transport := http.DefaultTransport.(*http.Transport).Clone()
			transport.Proxy = http.ProxyURL(proxyURL)
			return &http.Client{Timeout: testTimeout, Transport: transport}
		},
	}
}

// Get returns the fastest proxy not yet marked failed, or "" when the pool
// is empty or exhausted.
func (m *Manager) Get() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.pool {
		if !m.failed[e.URL] {
			return e.URL
		}
	}
	return ""
}

// Pool returns a snapshot of the tested proxies, fastest first.
func (m *Manager) Pool() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.pool))
	copy(out, m.pool)
	return out
}

// MarkFailed excludes a proxy for the remainder of the pool's lifetime.
func (m *Manager) MarkFailed(proxyURL string) {
	if proxyURL == "" {
		return
	}
	m.mu.Lock()
	m.failed[proxyURL] = true
	m.mu.Unlock()
}

// RefreshIfNeeded re-fetches the pool when it is stale (>15 min) or every
// entry has been marked failed. A caller racing an in-flight refresh blocks
// until it finishes and then sees the fresh pool instead of starting another.
func (m *Manager) RefreshIfNeeded(ctx context.Context) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()
	if m.needsRefresh() {
		m.Refresh(ctx)
	}
}

func (m *Manager) needsRefresh() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchedAt.IsZero() || time.Since(m.fetchedAt) > staleAfter {
		return true
	}
	for _, e := range m.pool {
		if !m.failed[e.URL] {
			return false
		}
	}
	// A fresh but empty pool stays empty until it goes stale; re-probing
	// the same dead lists on every request would not help.
	return len(m.pool) > 0
}

// Refresh downloads all list sources, normalizes and truncates candidates,
// probes them concurrently and replaces the pool with the successes sorted
// by latency. Finding no working proxy is non-fatal: adapters fall back to
// direct connections.
func (m *Manager) Refresh(ctx context.Context) {
	slog.Info("Proxy pool refresh started", "sources", len(m.sources))

	var raw []string
	client := &http.Client{Timeout: listTimeout}
	for _, src := range m.sources {
		lines, err := fetchList(ctx, client, src)
		if err != nil {
			slog.Warn("Proxy list fetch failed", "source", src, "error", err)
			continue
		}
		raw = append(raw, lines...)
	}

	candidates := normalizeCandidates(raw, maxCandidates)
	slog.Info("Testing proxy candidates", "count", len(candidates))

	working := m.probeAll(ctx, candidates)
	sort.Slice(working, func(i, j int) bool { return working[i].Latency < working[j].Latency })

	m.mu.Lock()
	m.pool = working
	m.failed = map[string]bool{}
	m.fetchedAt = time.Now()
	m.mu.Unlock()

	if len(working) > 0 {
		slog.Info("Proxy pool ready",
			"working", len(working),
			"best", working[0].URL,
			"best_latency", working[0].Latency)
	} else {
		slog.Warn("No working proxies found, adapters will run without proxy")
	}
}

func fetchList(ctx context.Context, client *http.Client, src string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, io.EOF
	}

	var lines []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// normalizeCandidates canonicalizes entries to scheme://host:port, prefers
// HTTP over SOCKS5 and truncates to the test budget.
func normalizeCandidates(raw []string, limit int) []string {
	var httpProxies, socksProxies []string
	seen := map[string]bool{}
	for _, p := range raw {
		switch {
		case strings.HasPrefix(p, "socks"):
			socksProxies = append(socksProxies, p)
		case strings.HasPrefix(p, "http"):
			httpProxies = append(httpProxies, p)
		default:
			httpProxies = append(httpProxies, "http://"+p)
		}
	}

	var out []string
	for _, p := range append(httpProxies, socksProxies...) {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func (m *Manager) probeAll(ctx context.Context, candidates []string) []Entry {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		working []Entry
	)
	sem := make(chan struct{}, maxConcurrent)

	for _, candidate := range candidates {
		candidate := candidate
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			latency, ok := m.probe(ctx, candidate)
			if ok {
				mu.Lock()
				working = append(working, Entry{URL: candidate, Latency: latency})
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return working
}

func (m *Manager) probe(ctx context.Context, candidate string) (time.Duration, bool) {
	proxyURL, err := url.Parse(candidate)
	if err != nil {
		return 0, false
	}

	probeCtx, cancel := context.WithTimeout(ctx, testTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, m.testURL, nil)
	if err != nil {
		return 0, false
	}

	start := time.Now()
	resp, err := m.probeClient(proxyURL).Do(req)
	if err != nil {
		return 0, false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return 0, false
	}
	return time.Since(start), true
}
