package validate

import (
	"net/url"
	"regexp"
	"strings"
)

// emailRegex is the structural email grammar: local-part@domain.tld with a
// TLD of at least two letters.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// imageExtensions are suffixes of asset file names that look like emails,
// e.g. "logo@2x.png".
var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"}

// schemePrefix matches an explicit URL scheme such as "https://" or "ftp://".
var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)

// Phone digit counts accepted by IsValidPhone.
const (
	minPhoneDigits = 10
	maxPhoneDigits = 11
)

// IsValidEmail reports whether candidate is a well-formed email address that
// is not an image file name.
func IsValidEmail(candidate string) bool {
	if candidate == "" || !emailRegex.MatchString(candidate) {
		return false
	}
	lower := strings.ToLower(candidate)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	return true
}

// IsValidPhone reports whether candidate holds 10 or 11 digits once every
// non-digit character is removed.
func IsValidPhone(candidate string) bool {
	n := len(PhoneDigits(candidate))
	return n >= minPhoneDigits && n <= maxPhoneDigits
}

// PhoneDigits returns only the ASCII digits of candidate.
func PhoneDigits(candidate string) string {
	var b strings.Builder
	b.Grow(len(candidate))
	for _, c := range candidate {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// PhoneKey returns the identity used to deduplicate phone numbers.
// Eleven-digit numbers with a leading 7 or 8 are the same subscriber
// written with the international or the trunk prefix, so they collapse
// to their last ten digits.
func PhoneKey(candidate string) string {
	digits := PhoneDigits(candidate)
	if len(digits) == maxPhoneDigits && (digits[0] == '7' || digits[0] == '8') {
		return digits[1:]
	}
	return digits
}

// NormalizePhone trims surrounding whitespace and keeps the original grouping.
func NormalizePhone(candidate string) string {
	return strings.TrimSpace(candidate)
}

// NormalizeURL trims candidate and prefixes https:// when it has no scheme.
// URLs with any other scheme are returned unchanged for IsValidURL to reject.
func NormalizeURL(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return ""
	}
	if schemePrefix.MatchString(candidate) {
		return candidate
	}
	if strings.HasPrefix(candidate, "//") {
		return "https:" + candidate
	}
	return "https://" + candidate
}

// IsValidURL reports whether candidate is an absolute http(s) URL with a host.
func IsValidURL(candidate string) bool {
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Hostname() != ""
}
