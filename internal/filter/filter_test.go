package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jobalert-engine/internal/config"
	"jobalert-engine/internal/domain"
)

func TestKeepDefaults(t *testing.T) {
	f := New(config.Default())

	cases := []struct {
		name   string
		p      domain.JobPosting
		keep   bool
		reason string
	}{
		{"finance in target country", domain.JobPosting{Title: "Senior Financial Analyst", Country: "UAE"}, true, ""},
		{"alias country", domain.JobPosting{Title: "Tax Manager", Country: "UK"}, true, ""},
		{"country from location", domain.JobPosting{Title: "Auditor", Country: "Global", Location: "Doha, Qatar"}, true, ""},
		{"wrong country", domain.JobPosting{Title: "Accountant", Country: "Germany"}, false, "country"},
		{"not finance", domain.JobPosting{Title: "Software Engineer", Country: "UAE"}, false, "no_title_match"},
		{"case insensitive", domain.JobPosting{Title: "FP&A LEAD", Country: "Saudi Arabia"}, true, ""},
		{"term inside another word", domain.JobPosting{Title: "Taxi Driver", Country: "UAE"}, false, "no_title_match"},
		{"term at end of another word", domain.JobPosting{Title: "Syntax Engineer", Country: "UAE"}, false, "no_title_match"},
		{"prefix term", domain.JobPosting{Title: "Finance Controller", Country: "Qatar"}, true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			keep, reason := f.Keep(tc.p)
			assert.Equal(t, tc.keep, keep)
			assert.Equal(t, tc.reason, reason)
		})
	}
}

func TestBlocklistWins(t *testing.T) {
	cfg := config.Default()
	cfg.Filters.TitleBlock = []string{"Intern"}
	keep, reason := New(cfg).Keep(domain.JobPosting{Title: "Finance Intern", Country: "UAE"})
	assert.False(t, keep)
	assert.Equal(t, "title_blocked", reason)
}

func TestEmptyListsDisableChecks(t *testing.T) {
	cfg := config.Default()
	cfg.Filters.Countries = nil
	cfg.Filters.TitleAny = nil
	keep, _ := New(cfg).Keep(domain.JobPosting{Title: "Software Engineer", Country: "US"})
	assert.True(t, keep)

	var none *Filter
	keep, _ = none.Keep(domain.JobPosting{})
	assert.True(t, keep)
}

func TestBlocklistMatchesWholeWords(t *testing.T) {
	cfg := config.Default()
	cfg.Filters.TitleBlock = []string{"intern"}
	f := New(cfg)

	keep, reason := f.Keep(domain.JobPosting{Title: "International Tax Manager", Country: "UAE"})
	assert.True(t, keep)
	assert.Empty(t, reason)

	keep, reason = f.Keep(domain.JobPosting{Title: "Tax Intern", Country: "UAE"})
	assert.False(t, keep)
	assert.Equal(t, "title_blocked", reason)
}

func TestWildcardTerms(t *testing.T) {
	cfg := config.Default()
	cfg.Filters.TitleAny = []string{"audit"}
	cfg.Filters.TitleBlock = []string{"intern*"}
	f := New(cfg)

	keep, reason := f.Keep(domain.JobPosting{Title: "Internal Auditor", Country: "UAE"})
	assert.False(t, keep, "intern* blocks internal")
	assert.Equal(t, "title_blocked", reason)

	keep, reason = f.Keep(domain.JobPosting{Title: "Auditor", Country: "UAE"})
	assert.False(t, keep, "plain audit needs the whole word")
	assert.Equal(t, "no_title_match", reason)

	keep, _ = f.Keep(domain.JobPosting{Title: "Audit Senior", Country: "UAE"})
	assert.True(t, keep)

	cfg.Filters.TitleAny = []string{"*", " "}
	cfg.Filters.TitleBlock = nil
	keep, _ = New(cfg).Keep(domain.JobPosting{Title: "Anything", Country: "UAE"})
	assert.True(t, keep, "blank terms are ignored")
}
