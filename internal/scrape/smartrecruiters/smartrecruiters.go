package smartrecruiters

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"jobalert-engine/internal/domain"
	"jobalert-engine/internal/scrape/parse"
	"jobalert-engine/internal/scrape/util"

	"github.com/tidwall/gjson"
)

// pageLimit is the API maximum; one fetch returns the first page only.
const pageLimit = 100

type Parser struct{}

func New() Parser { return Parser{} }

func (Parser) Kind() domain.SiteKind { return domain.SiteSmartRecruiters }

// Endpoint maps jobs.smartrecruiters.com/<slug> and careers.smartrecruiters.com/<slug>
// to the public postings API.
func (Parser) Endpoint(site *url.URL) string {
	host := strings.ToLower(site.Hostname())
	if host == "api.smartrecruiters.com" {
		return site.String()
	}
	if host == "jobs.smartrecruiters.com" || host == "careers.smartrecruiters.com" {
		slug := strings.Split(strings.Trim(site.Path, "/"), "/")[0]
		if slug != "" {
			return fmt.Sprintf("https://api.smartrecruiters.com/v1/companies/%s/postings?limit=%d", url.PathEscape(slug), pageLimit)
		}
	}
	return site.String()
}

// Response schema (public API) is typically:
// { "content": [...], "totalFound": N, "offset": O, "limit": L }
func (p Parser) Parse(body []byte) (parse.Result, error) {
	if !gjson.ValidBytes(body) {
		return parse.Result{}, parse.Drift(domain.SiteSmartRecruiters, "invalid json")
	}
	content := gjson.GetBytes(body, "content")
	if !content.IsArray() {
		return parse.Result{}, parse.Drift(domain.SiteSmartRecruiters, "missing content array")
	}

	var res parse.Result
	content.ForEach(func(_, j gjson.Result) bool {
		title := util.CleanText(j.Get("name").String())
		id := strings.TrimSpace(util.FirstNonEmpty(j.Get("id").String(), j.Get("uuid").String()))
		company := strings.TrimSpace(j.Get("company.identifier").String())
		if title == "" || id == "" || company == "" {
			res.Skipped++
			return true
		}

		loc := util.NormalizeLocation(strings.Join(util.NonEmpty(
			j.Get("location.city").String(),
			j.Get("location.region").String(),
		), ", "))
		country := util.CountryFromISO(j.Get("location.country").String())

		var posted *time.Time
		if rd := j.Get("releasedDate").String(); rd != "" {
			if t, err := time.Parse(time.RFC3339, rd); err == nil {
				posted = &t
			}
		}

		res.Items = append(res.Items, domain.ParsedItem{
			Title:    title,
			URL:      fmt.Sprintf("https://jobs.smartrecruiters.com/%s/%s", url.PathEscape(company), url.PathEscape(id)),
			Location: loc,
			Country:  country,
			PostedAt: posted,
			Snippet:  util.CleanText(j.Get("function.label").String()),
		})
		return true
	})
	return res, nil
}
