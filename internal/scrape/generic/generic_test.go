package generic

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobalert-engine/internal/scrape/parse"
)

const listingPage = `<html><head><title>Careers</title></head><body>
<nav><a href="/jobs">Jobs</a></nav>
<div class="openings">
  <div class="job-item">
    <h3><a href="/jobs/101">Senior Financial Analyst</a></h3>
    <span>Dubai, UAE</span>
    <time datetime="2026-02-20">20 Feb</time>
  </div>
  <div class="job-item">
    <h3><a href="/jobs/102">Treasury Manager</a></h3>
    <p>Location: Riyadh</p>
  </div>
  <div class="job-item">
    <h3><a href="/jobs/101">Senior Financial Analyst</a></h3>
    <span>Dubai, UAE</span>
  </div>
  <div class="job-item"><h3>Cookie settings</h3></div>
</div>
<footer><a href="/privacy">Privacy</a></footer>
</body></html>`

func TestParseListing(t *testing.T) {
	res, err := New().Parse([]byte(listingPage))
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	assert.Equal(t, 1, res.Skipped)

	first := res.Items[0]
	assert.Equal(t, "Senior Financial Analyst", first.Title)
	assert.Equal(t, "/jobs/101", first.URL)
	assert.Equal(t, "Dubai, UAE", first.Location)
	assert.Equal(t, "UAE", first.Country)
	require.NotNil(t, first.PostedAt)
	assert.Equal(t, 20, first.PostedAt.Day())

	second := res.Items[1]
	assert.Equal(t, "Treasury Manager", second.Title)
	assert.Equal(t, "Riyadh", second.Location)
	assert.Equal(t, "Saudi Arabia", second.Country)
}

func TestParseFallbackSelectors(t *testing.T) {
	page := `<html><body><main>
<ul>
  <li><a href="/careers/audit-lead">Internal Audit Lead - Doha</a></li>
  <li><a href="/careers/tax">Tax Manager, London</a></li>
</ul></main></body></html>`

	res, err := New().Parse([]byte(page))
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Internal Audit Lead - Doha", res.Items[0].Title)
	assert.Equal(t, "Qatar", res.Items[0].Country)
	assert.Equal(t, "/careers/tax", res.Items[1].URL)
	assert.Equal(t, "United Kingdom", res.Items[1].Country)
}

func TestParseEmptyStateIsNotDrift(t *testing.T) {
	page := `<html><body><main><p>There are currently no open positions. Check back soon.</p></main></body></html>`
	res, err := New().Parse([]byte(page))
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestParseUnrecognisedPageIsDrift(t *testing.T) {
	page := `<html><head><title>Welcome</title></head><body><main><p>We build things.</p></main></body></html>`
	_, err := New().Parse([]byte(page))

	var drift *parse.DriftError
	require.True(t, errors.As(err, &drift))
	assert.Contains(t, drift.Reason, "Welcome")
}

func TestParseNonASCIIAroundLocationLabel(t *testing.T) {
	page := `<html><body>
<div class="job-item"><h3>Finance Analyst</h3><p>` + strings.Repeat("Ⱥ", 20) + ` Location:</p></div>
<div class="job-item"><h3>Tax Manager</h3><p>İİİİİİ Location: Dubai</p></div>
</body></html>`

	var res parse.Result
	require.NotPanics(t, func() {
		var err error
		res, err = New().Parse([]byte(page))
		require.NoError(t, err)
	})
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Finance Analyst", res.Items[0].Title)
	assert.Empty(t, res.Items[0].Location)
	assert.Equal(t, "Dubai", res.Items[1].Location)
	assert.Equal(t, "UAE", res.Items[1].Country)
}
