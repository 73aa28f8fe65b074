package util

import "strings"

type place struct {
	keyword string
	display string
}

// Ordered so multi-word and more specific names win over short tokens.
var cities = []place{
	{"abu dhabi", "Abu Dhabi, UAE"},
	{"dubai", "Dubai, UAE"},
	{"sharjah", "Sharjah, UAE"},
	{"ajman", "Ajman, UAE"},
	{"riyadh", "Riyadh, Saudi Arabia"},
	{"jeddah", "Jeddah, Saudi Arabia"},
	{"dammam", "Dammam, Saudi Arabia"},
	{"khobar", "Khobar, Saudi Arabia"},
	{"doha", "Doha, Qatar"},
	{"london", "London, UK"},
	{"manchester", "Manchester, UK"},
	{"birmingham", "Birmingham, UK"},
	{"edinburgh", "Edinburgh, UK"},
	{"glasgow", "Glasgow, UK"},
}

var countries = []struct {
	name  string
	words []string
}{
	{"UAE", []string{"uae", "united arab emirates", "emirates", "dubai", "abu dhabi", "sharjah", "ajman"}},
	{"Saudi Arabia", []string{"saudi", "ksa", "riyadh", "jeddah", "dammam", "khobar"}},
	{"Qatar", []string{"qatar", "doha"}},
	{"United Kingdom", []string{"united kingdom", "uk", "england", "scotland", "london", "manchester", "birmingham", "edinburgh", "glasgow"}},
}

// ExtractLocation returns the first known city mentioned in text, or "".
func ExtractLocation(text string) string {
	if loc := ExtractLocationFromLabeledText(text); loc != "" {
		return NormalizeLocation(loc)
	}
	low := asciiLower(text)
	for _, c := range cities {
		if ContainsWord(low, c.keyword) {
			return c.display
		}
	}
	return ""
}

// ExtractCountry maps free text to one of the known country names, or "".
func ExtractCountry(text string) string {
	low := asciiLower(text)
	for _, c := range countries {
		for _, w := range c.words {
			if ContainsWord(low, w) {
				return c.name
			}
		}
	}
	return ""
}

// CanonicalCountry folds common aliases ("UK", "KSA", "U.A.E.") onto the names
// used by ExtractCountry. Unknown names are returned cleaned but unchanged.
func CanonicalCountry(name string) string {
	clean := CleanText(name)
	key := strings.ToLower(strings.ReplaceAll(clean, ".", ""))
	for _, c := range countries {
		if key == strings.ToLower(c.name) {
			return c.name
		}
		for _, w := range c.words {
			if key == w {
				return c.name
			}
		}
	}
	return clean
}

// ExtractLocationFromLabeledText returns the text after a "Location:" style
// label, up to the end of its line or segment.
func ExtractLocationFromLabeledText(s string) string {
	// asciiLower keeps byte offsets aligned with s.
	low := asciiLower(s)
	for _, lab := range locationLabels {
		i := strings.Index(low, lab)
		if i < 0 {
			continue
		}
		rest := strings.TrimSpace(s[i+len(lab):])
		for _, cut := range []string{"\n", "\r", " | ", " \u00b7 "} {
			if j := strings.Index(rest, cut); j >= 0 {
				rest = rest[:j]
			}
		}
		rest = CleanText(rest)
		if rest != "" && len(rest) <= 80 {
			return rest
		}
	}
	return ""
}

// asciiLower lower-cases ASCII letters only, so the result has the same byte
// length and offsets as s.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// ContainsWord reports whether w occurs in s at word boundaries, so "uk" does
// not hit "ukulele" or "duke". Both are expected to be lower-case already.
func ContainsWord(s, w string) bool {
	return matchWord(s, w, false)
}

// ContainsWordPrefix is ContainsWord with only the leading boundary required:
// "audit" matches "auditor" but not "preaudit".
func ContainsWordPrefix(s, w string) bool {
	return matchWord(s, w, true)
}

func matchWord(s, w string, prefix bool) bool {
	if w == "" {
		return false
	}
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], w)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(w)
		if (i == 0 || !isWordByte(s[i-1])) && (prefix || end == len(s) || !isWordByte(s[end])) {
			return true
		}
		from = i + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}

var isoCountries = map[string]string{
	"ae": "UAE",
	"sa": "Saudi Arabia",
	"qa": "Qatar",
	"gb": "United Kingdom",
	"uk": "United Kingdom",
	"us": "United States",
	"in": "India",
	"eg": "Egypt",
	"bh": "Bahrain",
	"kw": "Kuwait",
	"om": "Oman",
}

// CountryFromISO maps a two-letter country code to a display name.
func CountryFromISO(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if name, ok := isoCountries[code]; ok {
		return name
	}
	return strings.ToUpper(code)
}
