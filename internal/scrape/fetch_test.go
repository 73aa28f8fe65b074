package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobalert-engine/internal/domain"
)

func target(u string) domain.CompanyTarget {
	return domain.CompanyTarget{Name: "Acme", Country: "UAE", SiteURL: u, SiteKind: domain.SiteHTML}
}

func TestFetchOK(t *testing.T) {
	gotUA := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA <- r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<html>jobs</html>"))
	}))
	defer srv.Close()

	res := NewFetcher(FetcherConfig{UserAgent: "jobalert-test"}).Fetch(context.Background(), target(srv.URL), time.Second)
	require.Equal(t, domain.FetchOK, res.Status)
	assert.Equal(t, 200, res.HTTPCode)
	assert.Equal(t, "<html>jobs</html>", string(res.Body))
	assert.Equal(t, "jobalert-test", <-gotUA)
	assert.NoError(t, res.Err)
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	res := NewFetcher(FetcherConfig{}).Fetch(context.Background(), target(srv.URL), time.Second)
	assert.Equal(t, domain.FetchHTTPError, res.Status)
	assert.Equal(t, 503, res.HTTPCode)
	assert.True(t, res.Transient())

	srv404 := httptest.NewServer(http.NotFoundHandler())
	defer srv404.Close()
	res = NewFetcher(FetcherConfig{}).Fetch(context.Background(), target(srv404.URL), time.Second)
	assert.Equal(t, domain.FetchHTTPError, res.Status)
	assert.False(t, res.Transient())
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	start := time.Now()
	res := NewFetcher(FetcherConfig{}).Fetch(context.Background(), target(srv.URL), 100*time.Millisecond)
	assert.Equal(t, domain.FetchTimeout, res.Status)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()

	res := NewFetcher(FetcherConfig{}).Fetch(context.Background(), target(u), time.Second)
	assert.Equal(t, domain.FetchNetworkError, res.Status)
	assert.Error(t, res.Err)
}

func TestFetchRejectsBadInput(t *testing.T) {
	f := NewFetcher(FetcherConfig{})
	for _, res := range []domain.RawFetchResult{
		f.Fetch(context.Background(), target("not a url"), time.Second),
		f.Fetch(context.Background(), target("https://acme.example"), 0),
	} {
		assert.Equal(t, domain.FetchNetworkError, res.Status)
		assert.True(t, res.Permanent)
		assert.False(t, res.Transient(), "bad input is not worth retrying: %v", res.Err)
	}
}

func TestFetchResolverErrorIsPermanent(t *testing.T) {
	f := NewFetcher(FetcherConfig{
		Resolve: func(domain.CompanyTarget) (string, error) { return "", errors.New("no board token in url") },
	})
	res := f.Fetch(context.Background(), target("https://acme.example"), time.Second)
	assert.Equal(t, domain.FetchNetworkError, res.Status)
	assert.False(t, res.Transient())
	assert.EqualError(t, res.Err, "no board token in url")
}

func TestFetchNetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()

	res := NewFetcher(FetcherConfig{}).Fetch(context.Background(), target(u), time.Second)
	assert.False(t, res.Permanent)
	assert.True(t, res.Transient())
}

func TestFetchUsesResolverAndBodyCap(t *testing.T) {
	gotPath := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath <- r.URL.Path
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{
		MaxBodyBytes: 4,
		Resolve:      func(t domain.CompanyTarget) (string, error) { return t.SiteURL + "/api/postings", nil },
	})
	res := f.Fetch(context.Background(), target(srv.URL), time.Second)
	require.Equal(t, domain.FetchOK, res.Status)
	assert.Equal(t, "/api/postings", <-gotPath)
	assert.Equal(t, srv.URL+"/api/postings", res.URL)
	assert.Equal(t, "0123", string(res.Body))
}

func TestDefaultParsersCoverEveryKind(t *testing.T) {
	reg := DefaultParsers()
	for _, k := range []domain.SiteKind{domain.SiteHTML, domain.SiteGreenhouse, domain.SiteLever, domain.SiteSmartRecruiters} {
		_, ok := reg.Lookup(k)
		assert.True(t, ok, k)
	}
}
