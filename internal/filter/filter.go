// Package filter drops postings outside the configured countries or the
// finance title vocabulary.
package filter

import (
	"strings"

	"jobalert-engine/internal/config"
	"jobalert-engine/internal/domain"
	"jobalert-engine/internal/normalize"
	"jobalert-engine/internal/scrape/util"
)

type Filter struct {
	countries  map[string]bool
	titleAny   []term
	titleBlock []term
}

// term is one vocabulary entry. It matches whole words only; a trailing "*"
// also accepts longer words ("audit*" hits "auditor").
type term struct {
	word   string
	prefix bool
}

func parseTerm(s string) (term, bool) {
	s = normalize.Fold(s)
	t := term{word: strings.TrimSuffix(s, "*")}
	t.prefix = t.word != s
	t.word = strings.TrimSpace(t.word)
	return t, t.word != ""
}

func (t term) in(title string) bool {
	if t.prefix {
		return util.ContainsWordPrefix(title, t.word)
	}
	return util.ContainsWord(title, t.word)
}

func parseTerms(xs []string) []term {
	var out []term
	for _, x := range xs {
		if t, ok := parseTerm(x); ok {
			out = append(out, t)
		}
	}
	return out
}

func New(cfg config.Config) *Filter {
	f := &Filter{countries: map[string]bool{}}
	for _, c := range cfg.Filters.Countries {
		f.countries[normalize.Fold(util.CanonicalCountry(c))] = true
	}
	f.titleAny = parseTerms(cfg.Filters.TitleAny)
	f.titleBlock = parseTerms(cfg.Filters.TitleBlock)
	return f
}

// Keep reports whether p is relevant; reason names the failed check.
func (f *Filter) Keep(p domain.JobPosting) (keep bool, reason string) {
	if f == nil {
		return true, ""
	}
	// 1) Country allowlist (biggest filter)
	if !f.passesCountry(p) {
		return false, "country"
	}
	title := normalize.Fold(p.Title)
	// 2) Blocklist wins over title matches
	for _, b := range f.titleBlock {
		if b.in(title) {
			return false, "title_blocked"
		}
	}
	// 3) Must hit the finance vocabulary, if one is configured
	if len(f.titleAny) == 0 {
		return true, ""
	}
	for _, a := range f.titleAny {
		if a.in(title) {
			return true, ""
		}
	}
	return false, "no_title_match"
}

func (f *Filter) passesCountry(p domain.JobPosting) bool {
	if len(f.countries) == 0 {
		return true
	}
	if f.countries[normalize.Fold(util.CanonicalCountry(p.Country))] {
		return true
	}
	// Multi-country target rows sometimes carry the real country only in the
	// location text.
	if c := util.ExtractCountry(p.Location); c != "" {
		return f.countries[normalize.Fold(c)]
	}
	return false
}
