package domain

import "strings"

// SiteKind selects the listing parser used for a career site.
type SiteKind string

const (
	SiteHTML            SiteKind = "html"
	SiteGreenhouse      SiteKind = "greenhouse"
	SiteLever           SiteKind = "lever"
	SiteSmartRecruiters SiteKind = "smartrecruiters"
)

// ParseSiteKind maps a free-form cell value to a SiteKind. Unknown or empty
// values fall back to the generic HTML strategy.
func ParseSiteKind(s string) SiteKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "greenhouse", "gh":
		return SiteGreenhouse
	case "lever":
		return SiteLever
	case "smartrecruiters", "smart recruiters", "sr":
		return SiteSmartRecruiters
	default:
		return SiteHTML
	}
}

// CompanyTarget is one company career site to scrape. Immutable per run.
type CompanyTarget struct {
	Name     string
	Country  string
	SiteURL  string
	SiteKind SiteKind
}

func (t CompanyTarget) String() string {
	return t.Name + " (" + t.Country + ")"
}
