package lever

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobalert-engine/internal/scrape/parse"
)

func TestEndpoint(t *testing.T) {
	cases := map[string]string{
		"https://jobs.lever.co/globex":            "https://api.lever.co/v0/postings/globex?mode=json",
		"https://jobs.lever.co/globex/abc-123":    "https://api.lever.co/v0/postings/globex?mode=json",
		"https://jobs.eu.lever.co/globex":         "https://api.eu.lever.co/v0/postings/globex?mode=json",
		"https://careers.globex.example/openings": "https://careers.globex.example/openings",
	}
	for in, want := range cases {
		u, err := url.Parse(in)
		require.NoError(t, err)
		assert.Equal(t, want, New().Endpoint(u), in)
	}
}

func TestParse(t *testing.T) {
	body := `[
  {"id":"a1","text":"Accounts Payable Specialist","hostedUrl":"https://jobs.lever.co/globex/a1",
   "createdAt":1767225600000,"country":"AE","descriptionPlain":"Process invoices.",
   "categories":{"location":"Dubai","team":"Finance"}},
  {"id":"a2","text":"Payroll Lead","hostedUrl":"https://jobs.lever.co/globex/a2","categories":{"location":"Manchester"}},
  {"id":"a3","text":"No link"},
  "garbage"
]`
	res, err := New().Parse([]byte(body))
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, 2, res.Skipped)

	ap := res.Items[0]
	assert.Equal(t, "Accounts Payable Specialist", ap.Title)
	assert.Equal(t, "UAE", ap.Country)
	assert.Equal(t, "Dubai", ap.Location)
	assert.Equal(t, "Process invoices.", ap.Snippet)
	require.NotNil(t, ap.PostedAt)
	assert.Equal(t, 2026, ap.PostedAt.Year())

	assert.Equal(t, "United Kingdom", res.Items[1].Country)
}

func TestParseNonArrayIsDrift(t *testing.T) {
	_, err := New().Parse([]byte(`{"ok":false,"error":"Document not found"}`))
	var drift *parse.DriftError
	assert.True(t, errors.As(err, &drift))
}
