package blueair

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const defaultCooldown = 30 * time.Second

// rateLimitGuard keeps the client off the gateway after it has pushed
// back. A 429 or 503 opens a cooldown, honouring Retry-After when the
// gateway sends one; calls during the cooldown fail locally without
// hitting the network.
type rateLimitGuard struct {
	clk clock.Clock

	mu       sync.Mutex
	cooldown time.Time
}

// wrapHTTP wraps an http.Client with rate-limit enforcement.
func wrapHTTP(base *http.Client, clk clock.Clock) *http.Client {
	client := *base
	transport := client.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	client.Transport = &guardedTransport{
		base:  transport,
		guard: &rateLimitGuard{clk: clk},
	}
	return &client
}

type guardedTransport struct {
	base  http.RoundTripper
	guard *rateLimitGuard
}

func (t *guardedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if retryAt, blocked := t.guard.blocked(); blocked {
		return nil, &RateLimitError{RetryAt: retryAt}
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	t.guard.observe(resp.StatusCode, resp.Header)
	return resp, nil
}

func (g *rateLimitGuard) blocked() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.cooldown.IsZero() && g.clk.Now().Before(g.cooldown) {
		return g.cooldown, true
	}
	return time.Time{}, false
}

func (g *rateLimitGuard) observe(status int, headers http.Header) {
	if status != http.StatusTooManyRequests && status != http.StatusServiceUnavailable {
		return
	}

	wait := defaultCooldown
	if raw := headers.Get("Retry-After"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			wait = time.Duration(seconds) * time.Second
		}
	}
	retryAfterSeconds.Set(wait.Seconds())

	g.mu.Lock()
	g.cooldown = g.clk.Now().Add(wait)
	g.mu.Unlock()
}
