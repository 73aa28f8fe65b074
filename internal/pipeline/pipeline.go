// Package pipeline runs one scrape, diff, notify and persist cycle.
package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"jobalert-engine/internal/companies"
	"jobalert-engine/internal/diff"
	"jobalert-engine/internal/domain"
	"jobalert-engine/internal/notify"
	"jobalert-engine/internal/scrape/parse"
	"jobalert-engine/internal/store"
)

var ErrRunInProgress = errors.New("a run is already in progress")

type Fetcher interface {
	Fetch(ctx context.Context, target domain.CompanyTarget, timeout time.Duration) domain.RawFetchResult
}

type Parser interface {
	Parse(res domain.RawFetchResult) (parse.Result, error)
}

type Normalizer interface {
	Normalize(raw domain.ParsedItem, target domain.CompanyTarget) domain.JobPosting
	KeyOf(p domain.JobPosting) domain.JobKey
}

// Relevance drops postings outside the configured countries and titles.
type Relevance interface {
	Keep(p domain.JobPosting) (bool, string)
}

type SeenStore interface {
	Load(ctx context.Context) (store.LoadInfo, error)
	Contains(domain.JobKey) bool
	Merge(keys []domain.JobKey, at time.Time) int
	Persist(ctx context.Context) error
	Len() int
}

type Lease interface {
	Acquire(ctx context.Context) error
	Release() error
}

type Notifier interface {
	Notify(ctx context.Context, batch domain.NotificationBatch, recipient string) notify.Result
}

type Deps struct {
	Companies  companies.Source
	Fetcher    Fetcher
	Parsers    Parser
	Normalizer Normalizer
	Filter     Relevance // optional
	Seen       SeenStore
	Lease      Lease // optional
	Notifier   Notifier
}

type Options struct {
	Concurrency    int
	FetchTimeout   time.Duration
	Retries        int
	RetryBackoff   time.Duration
	PersistTimeout time.Duration
	Recipient      string
	DryRun         bool // notify through the configured sender but never persist

	Now     func() time.Time
	OnState func(runID string, s State)
	OnDone  func(Report)
}

// Runner executes runs one at a time.
type Runner struct {
	deps Deps
	opts Options

	running sync.Mutex

	mu     sync.Mutex
	active bool
	last   *Report
}

func New(deps Deps, opts Options) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 30 * time.Second
	}
	return &Runner{deps: deps, opts: opts}
}

type Status struct {
	Running bool    `json:"running"`
	Last    *Report `json:"last,omitempty"`
}

func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Status{Running: r.active}
	if r.last != nil {
		cp := *r.last
		st.Last = &cp
	}
	return st
}

// Run executes one full cycle. The returned error is non-nil exactly when the
// report ends in ERROR (or when another run is in progress).
func (r *Runner) Run(ctx context.Context) (Report, error) {
	if !r.running.TryLock() {
		return Report{}, ErrRunInProgress
	}
	defer r.running.Unlock()

	r.mu.Lock()
	r.active = true
	r.mu.Unlock()

	rep, err := r.run(ctx)

	r.mu.Lock()
	r.active = false
	r.last = &rep
	r.mu.Unlock()

	logSummary(rep)
	if r.opts.OnDone != nil {
		r.opts.OnDone(rep)
	}
	return rep, err
}

func (r *Runner) run(ctx context.Context) (Report, error) {
	rep := Report{
		RunID:     newRunID(),
		StartedAt: r.opts.Now(),
		DryRun:    r.opts.DryRun,
	}
	fail := func(err error) (Report, error) {
		rep.Error = err.Error()
		rep.FinishedAt = r.opts.Now()
		r.enter(&rep, StateError)
		return rep, err
	}

	r.enter(&rep, StateInit)
	if r.deps.Lease != nil {
		if err := r.deps.Lease.Acquire(ctx); err != nil {
			return fail(fmt.Errorf("acquire store lease: %w", err))
		}
		defer func() {
			if err := r.deps.Lease.Release(); err != nil {
				log.Printf("[pipeline] run=%s release lease: %v", rep.RunID, err)
			}
		}()
	}
	info, err := r.deps.Seen.Load(ctx)
	if err != nil {
		return fail(err)
	}
	rep.FirstRun, rep.StoreCorrupt, rep.SeenBefore = info.FirstRun, info.Corrupt, info.Keys

	r.enter(&rep, StateLoadingTargets)
	targets, err := r.deps.Companies.Load(ctx)
	if err != nil {
		return fail(fmt.Errorf("load targets: %w", err))
	}
	rep.Targets = len(targets)

	r.enter(&rep, StateScraping)
	outcomes := r.scrapeAll(ctx, targets)
	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("scraping interrupted: %w", err))
	}

	var postings []domain.JobPosting
	for _, o := range outcomes {
		if o.failure != nil {
			rep.Failures = append(rep.Failures, *o.failure)
		} else {
			rep.Succeeded++
		}
		rep.Filtered += o.filtered
		rep.Skipped += o.skipped
		postings = append(postings, o.postings...)
	}
	rep.Postings = len(postings)

	r.enter(&rep, StateDiffing)
	d := diff.New(postings, r.deps.Seen, r.deps.Normalizer.KeyOf)
	rep.New = len(d.New)
	rep.NewPostings = d.New

	// Nothing is marked seen unless the run gets this far uncancelled.
	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("cancelled before notifying: %w", err))
	}

	r.enter(&rep, StateNotifying)
	now := r.opts.Now()
	if len(d.New) == 0 {
		rep.Notify = notify.Result{Status: notify.StatusSkipped, Reason: "no new postings"}
	} else {
		batch := domain.NotificationBatch{NewPostings: d.New, GeneratedAt: now}
		rep.Notify = r.deps.Notifier.Notify(ctx, batch, r.opts.Recipient)
		if rep.Notify.Failed() {
			log.Printf("[pipeline] run=%s notification failed (%s); new postings are still recorded as seen", rep.RunID, rep.Notify.Reason)
		}
	}

	r.enter(&rep, StatePersisting)
	if r.opts.DryRun {
		log.Printf("[pipeline] run=%s dry run: seen store left unchanged", rep.RunID)
	} else {
		r.deps.Seen.Merge(d.Keys, now)
		// The notification has been attempted; finish persisting even if the
		// caller is shutting down.
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.PersistTimeout)
		err := r.deps.Seen.Persist(pctx)
		cancel()
		if err != nil {
			return fail(fmt.Errorf("persist seen store: %w", err))
		}
		rep.Persisted = true
	}
	rep.SeenAfter = r.deps.Seen.Len()

	rep.FinishedAt = r.opts.Now()
	r.enter(&rep, StateDone)
	return rep, nil
}

func (r *Runner) enter(rep *Report, s State) {
	rep.State = s
	if !s.Terminal() {
		log.Printf("[pipeline] run=%s state=%s", rep.RunID, s)
	}
	if r.opts.OnState != nil {
		r.opts.OnState(rep.RunID, s)
	}
}

type outcome struct {
	postings []domain.JobPosting
	filtered int
	skipped  int
	failure  *TargetFailure
}

// scrapeAll fans out over targets with bounded concurrency. Results keep the
// company list order.
func (r *Runner) scrapeAll(ctx context.Context, targets []domain.CompanyTarget) []outcome {
	out := make([]outcome, len(targets))

	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			if ctx.Err() != nil {
				out[i] = outcome{failure: &TargetFailure{
					Company: t.Name, URL: t.SiteURL, Kind: FailureFetch,
					Status: domain.FetchNetworkError, Error: "run cancelled",
				}}
				return nil
			}
			out[i] = r.scrapeTarget(ctx, t)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *Runner) scrapeTarget(ctx context.Context, t domain.CompanyTarget) outcome {
	var res domain.RawFetchResult
	attempts := 0
	for {
		attempts++
		res = r.deps.Fetcher.Fetch(ctx, t, r.opts.FetchTimeout)
		if res.Status == domain.FetchOK || !res.Transient() || attempts > r.opts.Retries {
			break
		}
		wait := r.opts.RetryBackoff * time.Duration(attempts)
		log.Printf("[pipeline] company=%q status=%s attempt=%d retrying in %s", t.Name, res.Status, attempts, wait)
		if !sleep(ctx, wait) {
			break
		}
	}

	if res.Status != domain.FetchOK {
		f := &TargetFailure{
			Company: t.Name, URL: res.URL, Kind: FailureFetch,
			Status: res.Status, HTTPCode: res.HTTPCode, Attempts: attempts,
		}
		if res.Err != nil {
			f.Error = res.Err.Error()
		}
		return outcome{failure: f}
	}

	parsed, err := r.deps.Parsers.Parse(res)
	if err != nil {
		var drift *parse.DriftError
		if errors.As(err, &drift) {
			log.Printf("[pipeline] company=%q parse drift: %s", t.Name, drift.Reason)
		} else {
			log.Printf("[pipeline] company=%q parse error: %v", t.Name, err)
		}
		return outcome{failure: &TargetFailure{
			Company: t.Name, URL: res.URL, Kind: FailureParse,
			Status: res.Status, HTTPCode: res.HTTPCode, Attempts: attempts, Error: err.Error(),
		}}
	}

	o := outcome{skipped: parsed.Skipped}
	for _, item := range parsed.Items {
		p := r.deps.Normalizer.Normalize(item, t)
		if r.deps.Filter != nil {
			if keep, reason := r.deps.Filter.Keep(p); !keep {
				o.filtered++
				log.Printf("[filter] company=%q title=%q country=%q dropped=%s", t.Name, p.Title, p.Country, reason)
				continue
			}
		}
		o.postings = append(o.postings, p)
	}
	log.Printf("[pipeline] company=%q items=%d kept=%d filtered=%d skipped=%d", t.Name, len(parsed.Items), len(o.postings), o.filtered, o.skipped)
	return o
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func logSummary(rep Report) {
	took := rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond)
	log.Printf("[pipeline] run=%s state=%s targets=%d ok=%d failed=%d postings=%d filtered=%d new=%d notify=%s persisted=%v seen=%s took=%s",
		rep.RunID, rep.State, rep.Targets, rep.Succeeded, len(rep.Failures), rep.Postings, rep.Filtered,
		rep.New, rep.Notify.Status, rep.Persisted, humanize.Comma(int64(rep.SeenAfter)), took)
	for _, f := range rep.Failures {
		log.Printf("[pipeline] run=%s failed company=%q kind=%s status=%s code=%d attempts=%d err=%s",
			rep.RunID, f.Company, f.Kind, f.Status, f.HTTPCode, f.Attempts, f.Error)
	}
	if rep.Error != "" {
		log.Printf("[pipeline] run=%s ERROR: %s", rep.RunID, rep.Error)
	}
}

func newRunID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
