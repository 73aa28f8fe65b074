package lever

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"jobalert-engine/internal/domain"
	"jobalert-engine/internal/scrape/parse"
	"jobalert-engine/internal/scrape/util"
)

type Parser struct{}

func New() Parser { return Parser{} }

func (Parser) Kind() domain.SiteKind { return domain.SiteLever }

// Endpoint maps jobs.lever.co/<slug> (and the EU host) to the postings API.
func (Parser) Endpoint(site *url.URL) string {
	host := strings.ToLower(site.Hostname())
	slug := strings.Split(strings.Trim(site.Path, "/"), "/")[0]
	switch host {
	case "jobs.lever.co":
		if slug != "" {
			return fmt.Sprintf("https://api.lever.co/v0/postings/%s?mode=json", url.PathEscape(slug))
		}
	case "jobs.eu.lever.co":
		if slug != "" {
			return fmt.Sprintf("https://api.eu.lever.co/v0/postings/%s?mode=json", url.PathEscape(slug))
		}
	}
	return site.String()
}

type leverPosting struct {
	ID               string `json:"id"`
	Text             string `json:"text"` // title
	HostedURL        string `json:"hostedUrl"`
	CreatedAt        int64  `json:"createdAt"` // ms epoch
	Country          string `json:"country"`   // ISO 3166-1 alpha-2
	DescriptionPlain string `json:"descriptionPlain"`
	Categories       struct {
		Location string `json:"location"`
		Team     string `json:"team"`
	} `json:"categories"`
}

func (p Parser) Parse(body []byte) (parse.Result, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return parse.Result{}, parse.Drift(domain.SiteLever, "expected postings array: %v", err)
	}

	var res parse.Result
	for _, r := range raw {
		var lp leverPosting
		if err := json.Unmarshal(r, &lp); err != nil {
			res.Skipped++
			continue
		}
		title := util.CleanText(lp.Text)
		if title == "" || strings.TrimSpace(lp.HostedURL) == "" {
			res.Skipped++
			continue
		}

		var posted *time.Time
		if lp.CreatedAt > 0 {
			t := time.UnixMilli(lp.CreatedAt).UTC()
			posted = &t
		}
		loc := util.NormalizeLocation(lp.Categories.Location)
		country := util.CountryFromISO(lp.Country)
		if country == "" {
			country = util.ExtractCountry(loc)
		}

		res.Items = append(res.Items, domain.ParsedItem{
			Title:    title,
			URL:      strings.TrimSpace(lp.HostedURL),
			Location: loc,
			Country:  country,
			PostedAt: posted,
			Snippet:  util.Snippet(lp.DescriptionPlain, 200),
		})
	}
	return res, nil
}
