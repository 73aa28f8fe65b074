package util

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter spaces requests per hostname, so targets hosted on the same ATS
// (boards-api.greenhouse.io, api.lever.co) share one budget.
type HostLimiter struct {
	mu    sync.Mutex
	hosts map[string]*rate.Limiter
	limit rate.Limit
	burst int
}

// NewHostLimiter returns nil when reqPerSec <= 0; a nil limiter never waits.
func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	if reqPerSec <= 0 {
		return nil
	}
	return &HostLimiter{
		hosts: make(map[string]*rate.Limiter),
		limit: rate.Limit(reqPerSec),
		burst: max(burst, 1),
	}
}

func hostKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "_"
	}
	return strings.ToLower(u.Hostname())
}

func (hl *HostLimiter) forHost(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	lim, ok := hl.hosts[host]
	if !ok {
		lim = rate.NewLimiter(hl.limit, hl.burst)
		hl.hosts[host] = lim
	}
	return lim
}

// Wait blocks until a request to raw's host may go out and reports how long
// it was held back.
func (hl *HostLimiter) Wait(ctx context.Context, raw string) (time.Duration, error) {
	if hl == nil {
		return 0, nil
	}
	start := time.Now()
	if err := hl.forHost(hostKey(raw)).Wait(ctx); err != nil {
		return time.Since(start), err
	}
	return time.Since(start), nil
}
