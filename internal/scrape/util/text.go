package util

import (
	"strings"
	"unicode/utf8"
)

// CleanText collapses whitespace runs to single spaces. unicode.IsSpace
// covers NBSP, so scraped &nbsp; needs no special casing.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var locationLabels = []string{"job location:", "locations:", "location:"}

// locationSeps split multi-site strings like "Dubai / Abu Dhabi; Riyadh".
var locationSeps = strings.NewReplacer(" / ", ",", ";", ",", " | ", ",")

// NormalizeLocation strips a leading "Location:" label, splits on the usual
// separators and drops repeated parts case-insensitively.
func NormalizeLocation(loc string) string {
	loc = CleanText(loc)
	low := asciiLower(loc)
	for _, l := range locationLabels {
		if strings.HasPrefix(low, l) {
			loc = loc[len(l):]
			break
		}
	}

	var out []string
	seen := map[string]bool{}
	for _, p := range strings.Split(locationSeps.Replace(loc), ",") {
		p = CleanText(p)
		k := strings.ToLower(p)
		if p == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

// Snippet trims s to at most max runes, cutting back to a word boundary when
// one is reasonably close.
func Snippet(s string, max int) string {
	s = CleanText(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	cut := string([]rune(s)[:max])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "..."
}

func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// NonEmpty returns the trimmed non-blank values.
func NonEmpty(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
