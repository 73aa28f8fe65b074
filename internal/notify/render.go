package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io"
	"net/mail"
	"sort"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/dustin/go-humanize"
	gomail "github.com/emersion/go-message/mail"

	"jobalert-engine/internal/domain"
)

const unknownCountry = "Other"

type companyGroup struct {
	Company  string
	Postings []domain.JobPosting
}

type countryGroup struct {
	Country   string
	Count     int
	Companies []companyGroup
}

type view struct {
	Subject     string
	Total       int
	Countries   []countryGroup
	GeneratedAt time.Time
}

// group orders countries and companies by name. Postings keep their input
// order within a company.
func group(postings []domain.JobPosting) []countryGroup {
	byCountry := map[string]map[string][]domain.JobPosting{}
	for _, p := range postings {
		c := strings.TrimSpace(p.Country)
		if c == "" {
			c = unknownCountry
		}
		if byCountry[c] == nil {
			byCountry[c] = map[string][]domain.JobPosting{}
		}
		byCountry[c][p.Company] = append(byCountry[c][p.Company], p)
	}

	countries := make([]string, 0, len(byCountry))
	for c := range byCountry {
		countries = append(countries, c)
	}
	sort.Slice(countries, func(i, j int) bool {
		// "Other" sorts last
		if (countries[i] == unknownCountry) != (countries[j] == unknownCountry) {
			return countries[j] == unknownCountry
		}
		return countries[i] < countries[j]
	})

	out := make([]countryGroup, 0, len(countries))
	for _, c := range countries {
		companies := make([]string, 0, len(byCountry[c]))
		for name := range byCountry[c] {
			companies = append(companies, name)
		}
		sort.Strings(companies)

		g := countryGroup{Country: c}
		for _, name := range companies {
			ps := byCountry[c][name]
			g.Companies = append(g.Companies, companyGroup{Company: name, Postings: ps})
			g.Count += len(ps)
		}
		out = append(out, g)
	}
	return out
}

func Subject(prefix string, postings []domain.JobPosting) string {
	countries := map[string]struct{}{}
	for _, p := range postings {
		c := strings.TrimSpace(p.Country)
		if c == "" {
			c = unknownCountry
		}
		countries[c] = struct{}{}
	}
	jobs := "jobs"
	if len(postings) == 1 {
		jobs = "job"
	}
	where := "countries"
	if len(countries) == 1 {
		where = "country"
	}
	s := fmt.Sprintf("%s new finance %s across %d %s", humanize.Comma(int64(len(postings))), jobs, len(countries), where)
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		s = prefix + " " + s
	}
	return s
}

var funcs = map[string]any{
	"posted": func(t *time.Time) string {
		if t == nil || t.IsZero() {
			return ""
		}
		return "posted " + humanize.Time(*t)
	},
}

var textTmpl = texttemplate.Must(texttemplate.New("text").Funcs(funcs).Parse(
	`{{.Subject}}
{{range .Countries}}
== {{.Country}} ({{.Count}}) ==
{{range .Companies}}{{$company := .Company}}{{range .Postings}}
- {{.Title}} | {{$company}}{{if .Location}} | {{.Location}}{{end}}{{with posted .PostedDate}} | {{.}}{{end}}
  {{.URL}}
{{end}}{{end}}{{end}}
`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Funcs(funcs).Parse(
	`<!doctype html>
<html><body style="font-family:Arial,Helvetica,sans-serif;font-size:14px;color:#222">
<h2 style="margin:0 0 12px">{{.Subject}}</h2>
{{range .Countries}}
<h3 style="margin:18px 0 6px;border-bottom:1px solid #ddd">{{.Country}} ({{.Count}})</h3>
{{range .Companies}}
<p style="margin:10px 0 4px"><strong>{{.Company}}</strong></p>
<ul style="margin:0 0 8px;padding-left:18px">
{{range .Postings}}<li><a href="{{.URL}}">{{.Title}}</a>{{if .Location}} &middot; {{.Location}}{{end}}{{with posted .PostedDate}} &middot; <span style="color:#777">{{.}}</span>{{end}}{{if .Snippet}}<br><span style="color:#555">{{.Snippet}}</span>{{end}}</li>
{{end}}</ul>
{{end}}{{end}}
</body></html>
`))

// Render builds a multipart/alternative message (plain text + HTML) listing
// every posting's title, company, country and URL.
func Render(batch domain.NotificationBatch, from, to, subjectPrefix string) (Message, error) {
	v := view{
		Subject:     Subject(subjectPrefix, batch.NewPostings),
		Total:       len(batch.NewPostings),
		Countries:   group(batch.NewPostings),
		GeneratedAt: batch.GeneratedAt,
	}

	var text, html bytes.Buffer
	if err := textTmpl.Execute(&text, v); err != nil {
		return Message{}, err
	}
	if err := htmlTmpl.Execute(&html, v); err != nil {
		return Message{}, err
	}

	fromAddr, err := mail.ParseAddress(from)
	if err != nil {
		return Message{}, fmt.Errorf("from address %q: %w", from, err)
	}
	toAddr, err := mail.ParseAddress(to)
	if err != nil {
		return Message{}, fmt.Errorf("recipient %q: %w", to, err)
	}

	var h gomail.Header
	date := batch.GeneratedAt
	if date.IsZero() {
		date = time.Now()
	}
	h.SetDate(date)
	h.SetAddressList("From", []*gomail.Address{fromAddr})
	h.SetAddressList("To", []*gomail.Address{toAddr})
	h.SetSubject(v.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return Message{}, err
	}

	var raw bytes.Buffer
	mw, err := gomail.CreateWriter(&raw, h)
	if err != nil {
		return Message{}, err
	}
	iw, err := mw.CreateInline()
	if err != nil {
		return Message{}, err
	}
	if err := writePart(iw, "text/plain", text.Bytes()); err != nil {
		return Message{}, err
	}
	if err := writePart(iw, "text/html", html.Bytes()); err != nil {
		return Message{}, err
	}
	if err := iw.Close(); err != nil {
		return Message{}, err
	}
	if err := mw.Close(); err != nil {
		return Message{}, err
	}

	return Message{
		From:    fromAddr.Address,
		To:      toAddr.Address,
		Subject: v.Subject,
		Raw:     raw.Bytes(),
	}, nil
}

func writePart(iw *gomail.InlineWriter, contentType string, body []byte) error {
	var ph gomail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	w, err := iw.CreatePart(ph)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, bytes.NewReader(body)); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
