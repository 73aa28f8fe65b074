// Package parse dispatches raw career-site content to the extraction
// strategy registered for the target's site kind.
package parse

import (
	"errors"
	"fmt"
	"net/url"

	"jobalert-engine/internal/domain"
)

// Strategy extracts postings from one career-site template.
type Strategy interface {
	Kind() domain.SiteKind
	// Endpoint maps the configured site URL to the URL that should actually be
	// fetched (e.g. a board page to its JSON API).
	Endpoint(site *url.URL) string
	// Parse returns a *DriftError when the content is not recognizable at all.
	// Malformed single items are skipped and counted in Result.Skipped.
	Parse(body []byte) (Result, error)
}

type Result struct {
	Items   []domain.ParsedItem
	Skipped int
}

var ErrUnknownKind = errors.New("no parser registered for site kind")

// DriftError reports that a page no longer matches its parser, typically
// after a career-site redesign.
type DriftError struct {
	Kind   domain.SiteKind
	Target string
	Reason string
}

func (e *DriftError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("parser drift kind=%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("parser drift kind=%s target=%q: %s", e.Kind, e.Target, e.Reason)
}

func Drift(kind domain.SiteKind, format string, args ...any) *DriftError {
	return &DriftError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

type Registry struct {
	m map[domain.SiteKind]Strategy
}

func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{m: make(map[domain.SiteKind]Strategy, len(strategies))}
	for _, s := range strategies {
		r.m[s.Kind()] = s
	}
	return r
}

func (r *Registry) Lookup(kind domain.SiteKind) (Strategy, bool) {
	s, ok := r.m[kind]
	return s, ok
}

// Endpoint resolves the URL SiteFetcher should request for t.
func (r *Registry) Endpoint(t domain.CompanyTarget) (string, error) {
	s, ok := r.Lookup(t.SiteKind)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, t.SiteKind)
	}
	u, err := url.Parse(t.SiteURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid site url %q", t.SiteURL)
	}
	return s.Endpoint(u), nil
}

// Parse extracts items from a successful fetch.
func (r *Registry) Parse(res domain.RawFetchResult) (Result, error) {
	if res.Status != domain.FetchOK {
		return Result{}, fmt.Errorf("cannot parse fetch with status %s", res.Status)
	}
	s, ok := r.Lookup(res.Target.SiteKind)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownKind, res.Target.SiteKind)
	}
	out, err := s.Parse(res.Body)
	if err != nil {
		var de *DriftError
		if errors.As(err, &de) && de.Target == "" {
			de.Target = res.Target.Name
		}
		return Result{}, err
	}
	return out, nil
}
