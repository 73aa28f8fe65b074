package domain

import "time"

// FetchStatus classifies the outcome of one SiteFetcher call.
type FetchStatus string

const (
	FetchOK           FetchStatus = "OK"
	FetchHTTPError    FetchStatus = "HTTP_ERROR"
	FetchTimeout      FetchStatus = "TIMEOUT"
	FetchNetworkError FetchStatus = "NETWORK_ERROR"
)

// RawFetchResult is consumed once by a listing parser and never persisted.
type RawFetchResult struct {
	Target   CompanyTarget
	URL      string // the URL actually requested
	Body     []byte
	Status   FetchStatus
	HTTPCode int // 0 when no response was received
	Err      error
	// Permanent marks failures caused by the target or fetch settings
	// themselves; the request was never sent.
	Permanent bool
}

// Transient reports whether a retry could plausibly succeed.
func (r RawFetchResult) Transient() bool {
	if r.Permanent {
		return false
	}
	switch r.Status {
	case FetchTimeout, FetchNetworkError:
		return true
	case FetchHTTPError:
		return r.HTTPCode >= 500 || r.HTTPCode == 429
	}
	return false
}

// ParsedItem is one listing as extracted from a page, before normalization.
// URL may be relative.
type ParsedItem struct {
	Title    string
	URL      string
	Location string
	Country  string
	PostedAt *time.Time
	Snippet  string
}

// JobPosting is the canonical, display-ready posting.
type JobPosting struct {
	Title      string
	Company    string
	Country    string
	Location   string
	URL        string
	PostedDate *time.Time
	Snippet    string
}

// JobKey identifies the same real-world posting across runs.
type JobKey string

// NotificationBatch is consumed exactly once by the notifier.
type NotificationBatch struct {
	NewPostings []JobPosting
	GeneratedAt time.Time
}
