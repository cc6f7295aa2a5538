package proxy

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// DefaultCooldown is how long a failed proxy is skipped.
const DefaultCooldown = 5 * time.Minute

// ProxyPool rotates over proxies round-robin, skipping ones that failed
// recently, and keeps one transport per proxy so connections are reused.
type ProxyPool struct {
	proxies    []*url.URL
	index      int
	mu         sync.Mutex
	failed     map[string]time.Time
	cooldown   time.Duration
	base       *http.Transport
	transports map[string]*http.Transport
}

// NewProxyPool parses the proxy URLs. base is cloned for every proxy and may
// be nil.
func NewProxyPool(proxies []string, base *http.Transport) (*ProxyPool, error) {
	parsed := make([]*url.URL, 0, len(proxies))
	for _, raw := range proxies {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q", raw)
		}
		parsed = append(parsed, u)
	}
	if base == nil {
		base = http.DefaultTransport.(*http.Transport)
	}
	return &ProxyPool{
		proxies:    parsed,
		failed:     make(map[string]time.Time),
		cooldown:   DefaultCooldown,
		base:       base,
		transports: make(map[string]*http.Transport),
	}, nil
}

// Len returns the number of configured proxies.
func (p *ProxyPool) Len() int {
	return len(p.proxies)
}

// GetNext returns the next healthy proxy, or "" when the pool is empty. If
// every proxy is cooling down, the next one in order is returned anyway.
func (p *ProxyPool) GetNext() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	start := p.index
	for {
		proxy := p.proxies[p.index].String()
		p.index = (p.index + 1) % len(p.proxies)

		if failTime, ok := p.failed[proxy]; ok {
			if time.Since(failTime) < p.cooldown {
				if p.index == start {
					return proxy
				}
				continue
			}
			delete(p.failed, proxy)
		}
		return proxy
	}
}

// Transport returns the shared transport that routes through proxy.
func (p *ProxyPool) Transport(proxy string) *http.Transport {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.transports[proxy]; ok {
		return t
	}
	t := p.base.Clone()
	if u, err := url.Parse(proxy); err == nil {
		t.Proxy = http.ProxyURL(u)
	}
	p.transports[proxy] = t
	return t
}

// MarkFailed marks a proxy as failed so it will be skipped for a while
func (p *ProxyPool) MarkFailed(proxy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[proxy] = time.Now()
}

// MarkHealthy clears the failure status of a proxy
func (p *ProxyPool) MarkHealthy(proxy string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, proxy)
}

// CloseIdle drops idle connections on every proxy transport.
func (p *ProxyPool) CloseIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.transports {
		t.CloseIdleConnections()
	}
}
