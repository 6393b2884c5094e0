package engine

import (
	"regexp"
	"strings"
)

var (
	// Trailing size suffix on sale titles: " - 42", " - EU 42", " - XL",
	// " - One Size" and region/letter variants.
	titleSizeSuffixRe = regexp.MustCompile(
		`(?i)\s+-\s+(?:(?:EU|US|UK|ASIA)\s*)?(?:\d{1,2}(?:\.\d)?[MW]?|XXS|XS|S|M|L|XL|XXL|XXXL|One\s*Size|OS|O/S)\s*$`)

	// Trailing discount percent marker on sale titles: " - 30%", " 30%".
	titlePercentSuffixRe = regexp.MustCompile(`\s+-?\s*\d{1,3}\s*%\s*$`)

	// Punctuation stripped during name normalization; hyphens survive.
	namePunctRe = regexp.MustCompile(`[^\p{L}\p{N}\s-]+`)

	multiSpaceRe = regexp.MustCompile(`\s{2,}`)

	// Region prefix on sizes: "EU 42", "US 9.5W", "UK8", "ASIA M".
	sizeRegionRe = regexp.MustCompile(`(?i)^(?:EU|US|UK|ASIA)\s*`)

	sizeTrailingGenderRe = regexp.MustCompile(`(?i)^(\d{1,2}(?:\.\d)?)[MW]$`)

	// Trailing size suffix on SKUs: "-L", "-OS", "-O/S", "-ONE SIZE", "-42".
	skuSizeSuffixRe = regexp.MustCompile(
		`(?i)[-/ ](?:XXS|XS|S|M|L|XL|XXL|XXXL|OS|O/S|ONE\s*SIZE|\d{1,2}(?:\.\d)?)$`)

	numericTokenRe = regexp.MustCompile(`^\d+$`)
)

// Canonical size values produced by NormalizeSize.
const (
	sizeNone    = ""
	sizeOneSize = "OS"
)

// CleanTitle strips trailing size suffixes and discount percent markers from
// a sale title so it compares against purchase titles that carry neither.
func CleanTitle(title string) string {
	t := strings.TrimSpace(title)
	t = titlePercentSuffixRe.ReplaceAllString(t, "")
	t = titleSizeSuffixRe.ReplaceAllString(t, "")
	return strings.TrimSpace(t)
}

// normalizeName lowercases, strips punctuation except hyphens, collapses
// whitespace, and drops stopword tokens. Returns the surviving tokens.
func normalizeName(s string, stopwords map[string]struct{}) []string {
	n := strings.ToLower(strings.TrimSpace(s))
	n = namePunctRe.ReplaceAllString(n, "")
	n = multiSpaceRe.ReplaceAllString(n, " ")

	var tokens []string
	for _, tok := range strings.Fields(n) {
		if _, skip := stopwords[tok]; skip {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// comparableTokens filters normalized tokens down to the set used for
// word-overlap similarity: longer than 2 characters and not purely numeric.
func comparableTokens(tokens []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if len(tok) <= 2 || numericTokenRe.MatchString(tok) {
			continue
		}
		out[tok] = struct{}{}
	}
	return out
}

// NormalizeSize maps a raw size string to its comparable canonical form:
// the empty string for "no size", "OS" for one-size variants, otherwise the
// uppercased size with region prefixes and gender suffixes stripped.
func NormalizeSize(raw string) string {
	s := strings.TrimSpace(raw)
	switch strings.ToUpper(s) {
	case "", "N/A", "—", "-", "NONE", "NULL":
		return sizeNone
	case "ONE SIZE", "ONESIZE", "OS", "O/S":
		return sizeOneSize
	}

	s = sizeRegionRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ToUpper(s)

	if m := sizeTrailingGenderRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	switch s {
	case "ONESIZE", "O/S", "OS":
		return sizeOneSize
	}
	return s
}

// BaseSKU strips a trailing size suffix (letter size, one-size marker, or
// numeric size) from a SKU so it can be cross-referenced against a purchase
// SKU key that carries no suffix.
func BaseSKU(sku string) string {
	s := strings.TrimSpace(sku)
	base := skuSizeSuffixRe.ReplaceAllString(s, "")
	return strings.TrimSpace(base)
}
