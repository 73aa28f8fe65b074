package pipeline

import (
	"time"

	"jobalert-engine/internal/domain"
	"jobalert-engine/internal/notify"
)

type State string

const (
	StateInit           State = "INIT"
	StateLoadingTargets State = "LOADING_TARGETS"
	StateScraping       State = "SCRAPING"
	StateDiffing        State = "DIFFING"
	StateNotifying      State = "NOTIFYING"
	StatePersisting     State = "PERSISTING"
	StateDone           State = "DONE"
	StateError          State = "ERROR"
)

func (s State) Terminal() bool { return s == StateDone || s == StateError }

type FailureKind string

const (
	FailureFetch FailureKind = "FETCH" // TIMEOUT, NETWORK_ERROR or HTTP_ERROR after retries
	FailureParse FailureKind = "PARSE" // page fetched but its structure was not recognised
)

// TargetFailure is one per-target problem. It never aborts a run.
type TargetFailure struct {
	Company  string             `json:"company"`
	URL      string             `json:"url"`
	Kind     FailureKind        `json:"kind"`
	Status   domain.FetchStatus `json:"status,omitempty"`
	HTTPCode int                `json:"http_code,omitempty"`
	Attempts int                `json:"attempts"`
	Error    string             `json:"error"`
}

// Report summarises a run for logs, the status endpoint and the exit code.
type Report struct {
	RunID      string    `json:"run_id"`
	State      State     `json:"state"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Targets   int `json:"targets"`
	Succeeded int `json:"succeeded"`
	Postings  int `json:"postings"` // relevant postings after filtering
	Filtered  int `json:"filtered"`
	Skipped   int `json:"skipped"` // listing entries parsers could not use
	New       int `json:"new"`

	NewPostings []domain.JobPosting `json:"-"`
	Failures    []TargetFailure     `json:"failures,omitempty"`

	Notify    notify.Result `json:"notify"`
	Persisted bool          `json:"persisted"`
	DryRun    bool          `json:"dry_run,omitempty"`

	FirstRun     bool `json:"first_run,omitempty"`
	StoreCorrupt bool `json:"store_corrupt,omitempty"`
	SeenBefore   int  `json:"seen_before"`
	SeenAfter    int  `json:"seen_after"`

	Error string `json:"error,omitempty"`
}

// ExitCode is non-zero only for runs that ended in ERROR. Partial
// per-target failures still exit 0.
func (r Report) ExitCode() int {
	if r.State == StateError {
		return 1
	}
	return 0
}
