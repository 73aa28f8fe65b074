// Package generic extracts postings from arbitrary company career pages with
// an ordered list of CSS selector heuristics.
package generic

import (
	"bytes"
	"net/url"
	"strings"
	"time"

	"jobalert-engine/internal/domain"
	"jobalert-engine/internal/scrape/parse"
	"jobalert-engine/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
)

var primarySelectors = []string{
	".job-listing", ".job-item", ".position", ".career-item",
	`[class*="job"]`, `[class*="career"]`, `[class*="position"]`,
	".opportunity", ".role", ".opening", ".vacancy",
}

var fallbackSelectors = []string{
	`a[href*="job"]`, `a[href*="career"]`, `a[href*="position"]`,
	".job", ".career", ".position", ".role", ".opportunity",
	"h3", "h4", `div[class*="title"]`,
}

const (
	primaryCap  = 50
	fallbackCap = 30
)

var navWords = map[string]bool{
	"jobs": true, "careers": true, "search": true, "apply": true, "home": true,
}

var skipKeywords = []string{"cookie", "privacy", "about us", "contact", "home", "search", "filter", "menu"}

// Phrases career pages show when nothing is open. A page with one of these
// and no matching elements is a valid empty result, not drift.
var emptyStatePhrases = []string{
	"no open positions", "no current openings", "no openings",
	"no vacancies", "no jobs found", "there are currently no",
	"no positions available",
}

type Parser struct{}

func New() Parser { return Parser{} }

func (Parser) Kind() domain.SiteKind { return domain.SiteHTML }

func (Parser) Endpoint(site *url.URL) string { return site.String() }

func (p Parser) Parse(body []byte) (parse.Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return parse.Result{}, parse.Drift(domain.SiteHTML, "html: %v", err)
	}
	doc.Find("script, style, noscript, nav, footer, header").Remove()

	sel, ok := pick(doc, primarySelectors, primaryCap)
	if !ok {
		sel, ok = pick(doc, fallbackSelectors, fallbackCap)
	}
	if !ok {
		if looksEmpty(doc) {
			return parse.Result{}, nil
		}
		return parse.Result{}, parse.Drift(domain.SiteHTML, "no listing selector matched (title=%q)", util.CleanText(doc.Find("title").First().Text()))
	}

	var res parse.Result
	seen := map[string]bool{}
	for _, el := range sel {
		item, ok := extract(el)
		if !ok {
			res.Skipped++
			continue
		}
		k := strings.ToLower(item.Title) + "\x00" + item.URL
		if seen[k] {
			continue
		}
		seen[k] = true
		res.Items = append(res.Items, item)
	}
	return res, nil
}

// pick returns the elements of the first selector with any match, dropping
// containers that wrap other matches of the same selector.
func pick(doc *goquery.Document, selectors []string, limit int) ([]*goquery.Selection, bool) {
	for _, s := range selectors {
		found := doc.Find(s)
		if found.Length() == 0 {
			continue
		}
		var out []*goquery.Selection
		found.EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if el.Find(s).Length() > 0 {
				return true
			}
			out = append(out, el)
			return len(out) < limit
		})
		if len(out) > 0 {
			return out, true
		}
	}
	return nil, false
}

func extract(el *goquery.Selection) (domain.ParsedItem, bool) {
	raw := el.Text()
	text := util.CleanText(raw)
	if len(text) < 5 || navWords[strings.ToLower(text)] {
		return domain.ParsedItem{}, false
	}

	title := ""
	switch goquery.NodeName(el) {
	case "h1", "h2", "h3", "h4", "h5":
		title = text
	case "a":
		title = text
		if title == "" {
			title, _ = el.Attr("title")
		}
	default:
		if t := el.Find("h1, h2, h3, h4, h5, a").First(); t.Length() > 0 {
			title = util.CleanText(t.Text())
		} else {
			title = util.CleanText(firstLine(raw))
		}
	}
	title = util.CleanText(title)
	if len(title) < 3 {
		return domain.ParsedItem{}, false
	}
	lt := strings.ToLower(title)
	for _, k := range skipKeywords {
		if strings.Contains(lt, k) {
			return domain.ParsedItem{}, false
		}
	}

	href := ""
	if goquery.NodeName(el) == "a" {
		href, _ = el.Attr("href")
	} else if a := el.Find("a[href]").First(); a.Length() > 0 {
		href, _ = a.Attr("href")
	} else if a := el.Closest("a[href]"); a.Length() > 0 {
		href, _ = a.Attr("href")
	}

	return domain.ParsedItem{
		Title:    title,
		URL:      strings.TrimSpace(href),
		Location: util.ExtractLocation(text),
		Country:  util.ExtractCountry(text),
		PostedAt: postedAt(el),
		Snippet:  util.Snippet(text, 200),
	}, true
}

func postedAt(el *goquery.Selection) *time.Time {
	v, ok := el.Find("time[datetime]").First().Attr("datetime")
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			return l
		}
	}
	return ""
}

func looksEmpty(doc *goquery.Document) bool {
	body := strings.ToLower(util.CleanText(doc.Find("body").Text()))
	for _, p := range emptyStatePhrases {
		if strings.Contains(body, p) {
			return true
		}
	}
	return false
}
