// Package diff separates postings that have not been seen before.
package diff

import "jobalert-engine/internal/domain"

// Seen answers membership for the persisted set.
type Seen interface {
	Contains(domain.JobKey) bool
}

type KeyFunc func(domain.JobPosting) domain.JobKey

type Result struct {
	New  []domain.JobPosting
	Keys []domain.JobKey // parallel to New

	Total       int
	AlreadySeen int
	Duplicates  int // repeated within this run
}

// New returns postings whose key is absent from seen, in input order,
// keeping only the first posting for each key. seen is not modified.
func New(postings []domain.JobPosting, seen Seen, keyOf KeyFunc) Result {
	res := Result{Total: len(postings)}
	batch := make(map[domain.JobKey]struct{}, len(postings))

	for _, p := range postings {
		k := keyOf(p)
		if _, dup := batch[k]; dup {
			res.Duplicates++
			continue
		}
		batch[k] = struct{}{}
		if seen != nil && seen.Contains(k) {
			res.AlreadySeen++
			continue
		}
		res.New = append(res.New, p)
		res.Keys = append(res.Keys, k)
	}
	return res
}
