package ratelimit

import (
	"math/rand"
	"net/http"
	"sync"
)

// userAgents is a pool of current desktop browser identities rotated across
// requests to reduce blocking.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
}

// UARotator rotates identity headers across outbound requests.
type UARotator struct {
	mu  sync.Mutex
	idx int
}

// NewUARotator creates a rotator starting at a random pool position.
func NewUARotator() *UARotator {
	return &UARotator{idx: rand.Intn(len(userAgents))}
}

// Next returns the next user-agent string in round-robin order.
func (r *UARotator) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ua := userAgents[r.idx%len(userAgents)]
	r.idx++
	return ua
}

// Headers returns baseline request headers with a rotated User-Agent.
func (r *UARotator) Headers() http.Header {
	h := http.Header{}
	h.Set("User-Agent", r.Next())
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.5")
	h.Set("Accept-Encoding", "gzip, deflate, br, zstd")
	h.Set("Connection", "keep-alive")
	return h
}
