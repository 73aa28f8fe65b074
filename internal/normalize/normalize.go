// Package normalize turns parsed listing items into canonical postings and
// derives their stable identity keys.
package normalize

import (
	"net/url"
	"strings"

	"jobalert-engine/internal/domain"
	"jobalert-engine/internal/scrape/util"
)

type Normalizer struct {
	keys KeyStrategy
}

func New(keys KeyStrategy) *Normalizer {
	if keys == nil {
		keys = CompanyTitleURL
	}
	return &Normalizer{keys: keys}
}

// Normalize keeps display casing, fills the country from the target when the
// page gave none, and resolves relative URLs against the target's site URL.
func (n *Normalizer) Normalize(raw domain.ParsedItem, target domain.CompanyTarget) domain.JobPosting {
	base, _ := url.Parse(strings.TrimSpace(target.SiteURL))

	link := util.ResolveURL(base, raw.URL)
	if link == "" {
		// Listings without their own link still point somewhere useful.
		link = strings.TrimSpace(target.SiteURL)
	}

	country := util.CanonicalCountry(raw.Country)
	if country == "" {
		country = util.CanonicalCountry(target.Country)
	}

	return domain.JobPosting{
		Title:      util.CleanText(raw.Title),
		Company:    util.CleanText(target.Name),
		Country:    country,
		Location:   util.NormalizeLocation(raw.Location),
		URL:        link,
		PostedDate: raw.PostedAt,
		Snippet:    util.CleanText(raw.Snippet),
	}
}

func (n *Normalizer) KeyOf(p domain.JobPosting) domain.JobKey {
	return n.keys.Key(p)
}

func (n *Normalizer) Strategy() KeyStrategy { return n.keys }
