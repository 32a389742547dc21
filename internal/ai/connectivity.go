package ai

import (
	"context"
	"net"
	"net/url"
	"sync"
	"time"
)

const connectivityTimeout = 4 * time.Second

// CheckTCP reports whether a TCP connection to host:port succeeds within
// the timeout. It never issues an HTTP request, so it is safe to run
// against metered APIs.
func CheckTCP(ctx context.Context, host, port string, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = connectivityTimeout
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// HostPort extracts the dial target from a base URL, defaulting the port
// from the scheme.
func HostPort(rawURL string) (string, string) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL, "443"
	}
	port := u.Port()
	if port == "" {
		if u.Scheme == "http" {
			port = "80"
		} else {
			port = "443"
		}
	}
	return u.Hostname(), port
}

// TestAll runs every provider's connectivity check concurrently, each
// bounded by its own timeout, and aggregates only after all finish. The
// descriptor set is read-only, so no locking beyond the result map is
// needed.
func TestAll(ctx context.Context, providers map[string]Provider, timeout time.Duration) map[string]bool {
	if timeout <= 0 {
		timeout = connectivityTimeout
	}
	results := make(map[string]bool, len(providers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for name, p := range providers {
		wg.Add(1)
		go func(name string, p Provider) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			ok := p.CheckConnectivity(checkCtx)
			mu.Lock()
			results[name] = ok
			mu.Unlock()
		}(name, p)
	}
	wg.Wait()
	return results
}
