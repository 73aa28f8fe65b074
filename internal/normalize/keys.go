package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"jobalert-engine/internal/domain"
	"jobalert-engine/internal/scrape/util"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// KeyStrategy derives a JobKey. Implementations must be pure: the same
// posting yields the same key in every process.
type KeyStrategy interface {
	Name() string
	Key(p domain.JobPosting) domain.JobKey
}

type fieldsStrategy struct {
	name   string
	fields func(p domain.JobPosting) []string
}

func (s fieldsStrategy) Name() string { return s.name }

func (s fieldsStrategy) Key(p domain.JobPosting) domain.JobKey {
	h := sha256.New()
	for i, f := range s.fields(p) {
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.Write([]byte(f))
	}
	return domain.JobKey(s.name + ":" + hex.EncodeToString(h.Sum(nil)))
}

var (
	// CompanyTitleURL is the default: two listings with the same title at the
	// same company stay distinct when their URLs differ.
	CompanyTitleURL KeyStrategy = fieldsStrategy{
		name: "company_title_url",
		fields: func(p domain.JobPosting) []string {
			return []string{Fold(p.Company), Fold(p.Title), foldURL(p.URL)}
		},
	}
	URLOnly KeyStrategy = fieldsStrategy{
		name: "url",
		fields: func(p domain.JobPosting) []string {
			return []string{foldURL(p.URL)}
		},
	}
	CompanyTitle KeyStrategy = fieldsStrategy{
		name: "company_title",
		fields: func(p domain.JobPosting) []string {
			return []string{Fold(p.Company), Fold(p.Title)}
		},
	}
)

var strategies = map[string]KeyStrategy{
	CompanyTitleURL.Name(): CompanyTitleURL,
	URLOnly.Name():         URLOnly,
	CompanyTitle.Name():    CompanyTitle,
}

// StrategyByName looks up a built-in strategy; "" selects the default.
func StrategyByName(name string) (KeyStrategy, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return CompanyTitleURL, nil
	}
	s, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown key strategy %q", name)
	}
	return s, nil
}

// Fold applies NFKC, Unicode case folding and whitespace collapsing.
func Fold(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return util.CleanText(s)
}

func foldURL(u string) string {
	return util.CanonicalizeURL(util.CleanText(u))
}
