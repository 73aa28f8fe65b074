package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSiteKind(t *testing.T) {
	assert.Equal(t, SiteGreenhouse, ParseSiteKind(" Greenhouse "))
	assert.Equal(t, SiteGreenhouse, ParseSiteKind("gh"))
	assert.Equal(t, SiteLever, ParseSiteKind("LEVER"))
	assert.Equal(t, SiteSmartRecruiters, ParseSiteKind("Smart Recruiters"))
	assert.Equal(t, SiteHTML, ParseSiteKind(""))
	assert.Equal(t, SiteHTML, ParseSiteKind("workday"))
}

func TestTransient(t *testing.T) {
	cases := []struct {
		r    RawFetchResult
		want bool
	}{
		{RawFetchResult{Status: FetchOK, HTTPCode: 200}, false},
		{RawFetchResult{Status: FetchTimeout}, true},
		{RawFetchResult{Status: FetchNetworkError}, true},
		{RawFetchResult{Status: FetchNetworkError, Permanent: true}, false},
		{RawFetchResult{Status: FetchHTTPError, HTTPCode: 503}, true},
		{RawFetchResult{Status: FetchHTTPError, HTTPCode: 429}, true},
		{RawFetchResult{Status: FetchHTTPError, HTTPCode: 404}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.r.Transient(), "%s %d", tc.r.Status, tc.r.HTTPCode)
	}
}
