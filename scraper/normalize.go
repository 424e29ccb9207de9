package scraper

import "strings"

// Normalize canonicalizes a raw phone-like value for dedup. Empty return
// means the value is rejected; rejection is a normal outcome, not an error.
//
// The `=`/`:` check exists because the leads API sometimes leaks encrypted
// payloads where a phone number should be.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.ContainsAny(raw, "=:") {
		return ""
	}

	hasPlus := strings.HasPrefix(raw, "+")

	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	// Plausible phone lengths only; anything else is a fragment or a blob.
	if digits.Len() < 10 || digits.Len() > 15 {
		return ""
	}

	if hasPlus {
		return "+" + digits.String()
	}
	return digits.String()
}
