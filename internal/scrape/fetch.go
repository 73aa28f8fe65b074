package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"jobalert-engine/internal/domain"
	"jobalert-engine/internal/scrape/util"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultMaxBody   = 8 << 20
)

// Resolver maps a target to the URL that should be requested.
type Resolver func(domain.CompanyTarget) (string, error)

type FetcherConfig struct {
	UserAgent    string
	MaxBodyBytes int64
	Limiter      *util.HostLimiter
	Resolve      Resolver // nil fetches SiteURL as-is
	Client       *http.Client
}

// Fetcher performs exactly one GET per call and never retries.
type Fetcher struct {
	hc      *http.Client
	ua      string
	maxBody int64
	limiter *util.HostLimiter
	resolve Resolver
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	f := &Fetcher{
		hc:      cfg.Client,
		ua:      cfg.UserAgent,
		maxBody: cfg.MaxBodyBytes,
		limiter: cfg.Limiter,
		resolve: cfg.Resolve,
	}
	if f.hc == nil {
		// Per-call deadlines come from the context; no client-wide timeout.
		f.hc = &http.Client{}
	}
	if f.ua == "" {
		f.ua = defaultUserAgent
	}
	if f.maxBody <= 0 {
		f.maxBody = defaultMaxBody
	}
	return f
}

// Fetch never returns an error: every failure is encoded in the result status
// so the caller can move on to the next target.
func (f *Fetcher) Fetch(ctx context.Context, target domain.CompanyTarget, timeout time.Duration) domain.RawFetchResult {
	res := domain.RawFetchResult{Target: target, URL: target.SiteURL}

	if timeout <= 0 {
		res.Status = domain.FetchNetworkError
		res.Permanent = true
		res.Err = fmt.Errorf("fetch timeout must be > 0, got %s", timeout)
		return res
	}
	if _, ok := util.ValidSiteURL(target.SiteURL); !ok {
		res.Status = domain.FetchNetworkError
		res.Permanent = true
		res.Err = fmt.Errorf("invalid site url %q", target.SiteURL)
		return res
	}
	if f.resolve != nil {
		u, err := f.resolve(target)
		if err != nil {
			res.Status = domain.FetchNetworkError
			res.Permanent = true
			res.Err = err
			return res
		}
		res.URL = u
	}

	waited, err := f.limiter.Wait(ctx, res.URL)
	if err != nil {
		res.Status = domain.FetchNetworkError
		res.Err = fmt.Errorf("rate limiter: %w", err)
		return res
	}
	if waited > time.Second {
		log.Printf("[fetch] company=%q throttled=%s", target.Name, waited.Round(time.Millisecond))
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, res.URL, nil)
	if err != nil {
		res.Status = domain.FetchNetworkError
		res.Permanent = true
		res.Err = err
		return res
	}
	req.Header.Set("User-Agent", f.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := f.hc.Do(req)
	if err != nil {
		res.Status = classify(cctx, err)
		res.Err = err
		log.Printf("[fetch] company=%q url=%q status=%s err=%v", target.Name, res.URL, res.Status, err)
		return res
	}
	defer resp.Body.Close()

	res.HTTPCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		res.Status = domain.FetchHTTPError
		res.Err = fmt.Errorf("http status %s", resp.Status)
		log.Printf("[fetch] company=%q url=%q status=%s code=%d", target.Name, res.URL, res.Status, resp.StatusCode)
		return res
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		res.Status = classify(cctx, err)
		res.Err = fmt.Errorf("read body: %w", err)
		log.Printf("[fetch] company=%q url=%q status=%s err=%v", target.Name, res.URL, res.Status, err)
		return res
	}

	res.Body = body
	res.Status = domain.FetchOK
	log.Printf("[fetch] company=%q code=%d bytes=%d took=%s", target.Name, resp.StatusCode, len(body), time.Since(start).Round(time.Millisecond))
	return res
}

func classify(ctx context.Context, err error) domain.FetchStatus {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.FetchTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.FetchTimeout
	}
	return domain.FetchNetworkError
}
