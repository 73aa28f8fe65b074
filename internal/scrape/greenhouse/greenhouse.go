package greenhouse

import (
	"bytes"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"jobalert-engine/internal/domain"
	"jobalert-engine/internal/scrape/parse"
	"jobalert-engine/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

const apiBase = "https://boards-api.greenhouse.io/v1/boards"

type Parser struct{}

func New() Parser { return Parser{} }

func (Parser) Kind() domain.SiteKind { return domain.SiteGreenhouse }

// Endpoint maps boards.greenhouse.io/<slug> and job-boards.greenhouse.io/<slug>
// to the public board API. Anything else is fetched as given.
func (Parser) Endpoint(site *url.URL) string {
	host := strings.ToLower(site.Hostname())
	switch host {
	case "boards-api.greenhouse.io":
		return site.String()
	case "boards.greenhouse.io", "job-boards.greenhouse.io":
		slug := strings.Split(strings.Trim(site.Path, "/"), "/")[0]
		if slug == "" {
			slug = site.Query().Get("for")
		}
		if slug != "" {
			return fmt.Sprintf("%s/%s/jobs?content=true", apiBase, url.PathEscape(slug))
		}
	}
	return site.String()
}

func (p Parser) Parse(body []byte) (parse.Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return parseAPI(trimmed)
	}
	return parseBoard(body)
}

func parseAPI(body []byte) (parse.Result, error) {
	if !gjson.ValidBytes(body) {
		return parse.Result{}, parse.Drift(domain.SiteGreenhouse, "invalid json")
	}
	jobs := gjson.GetBytes(body, "jobs")
	if !jobs.IsArray() {
		return parse.Result{}, parse.Drift(domain.SiteGreenhouse, "missing jobs array")
	}

	var res parse.Result
	jobs.ForEach(func(_, j gjson.Result) bool {
		title := util.CleanText(j.Get("title").String())
		link := strings.TrimSpace(j.Get("absolute_url").String())
		if title == "" || link == "" {
			res.Skipped++
			return true
		}
		loc := util.NormalizeLocation(j.Get("location.name").String())
		res.Items = append(res.Items, domain.ParsedItem{
			Title:    title,
			URL:      link,
			Location: loc,
			Country:  util.ExtractCountry(loc),
			PostedAt: parseTime(util.FirstNonEmpty(j.Get("first_published").String(), j.Get("updated_at").String())),
			Snippet:  contentSnippet(j.Get("content").String()),
		})
		return true
	})
	return res, nil
}

// parseBoard handles the hosted HTML board, where each opening links to
// /<slug>/jobs/<id>.
func parseBoard(body []byte) (parse.Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return parse.Result{}, parse.Drift(domain.SiteGreenhouse, "html: %v", err)
	}

	anchors := doc.Find(`a[href*="/jobs/"]`)
	if anchors.Length() == 0 {
		if doc.Find(".opening, .job-post, #main, section.level-0").Length() == 0 {
			return parse.Result{}, parse.Drift(domain.SiteGreenhouse, "no openings or board container")
		}
		return parse.Result{}, nil
	}

	var res parse.Result
	seen := map[string]bool{}
	anchors.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		id := extractJobID(href)
		if id == "" {
			res.Skipped++
			return
		}
		if seen[id] {
			return
		}
		seen[id] = true

		title := util.CleanText(a.Find(".body--medium, p").First().Text())
		if title == "" {
			title = util.CleanText(a.Text())
		}
		if title == "" || looksLikeJunkTitle(title) {
			res.Skipped++
			return
		}

		row := a.Closest(".opening, .job-post, tr")
		loc := util.NormalizeLocation(row.Find(".location, .body--metadata").First().Text())
		res.Items = append(res.Items, domain.ParsedItem{
			Title:    title,
			URL:      href,
			Location: loc,
			Country:  util.ExtractCountry(loc),
		})
	})
	return res, nil
}

func contentSnippet(escaped string) string {
	if escaped == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html.UnescapeString(escaped)))
	if err != nil {
		return ""
	}
	return util.Snippet(doc.Text(), 200)
}

func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func extractJobID(u string) string {
	// crude but effective: split on /jobs/ and take next chunk of digits
	parts := strings.Split(u, "/jobs/")
	if len(parts) < 2 {
		return ""
	}
	tail := parts[1]
	id := ""
	for _, r := range tail {
		if r >= '0' && r <= '9' {
			id += string(r)
		} else {
			break
		}
	}
	return id
}

func looksLikeJunkTitle(t string) bool {
	l := strings.ToLower(t)
	return l == "view" || l == "apply" || strings.HasPrefix(l, "view all") || strings.HasPrefix(l, "apply now")
}
