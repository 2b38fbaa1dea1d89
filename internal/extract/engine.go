package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/leadscan/internal/markup"
	"github.com/nao1215/leadscan/internal/validate"
	"golang.org/x/text/unicode/norm"
)

// NoTitle is returned by ExtractTitle when every candidate is rejected.
const NoTitle = "untitled"

// Length bounds for titles and for the description fallback, in runes.
const (
	minTitleLength       = 3
	minDescriptionLength = 10
	maxDescriptionLength = 99
)

// titleBlocklist holds lower-case substrings that mark a title as an
// anti-bot page, an error page or a loading placeholder.
var titleBlocklist = []string{
	"captcha",
	"robot",
	"checking your browser",
	"just a moment",
	"attention required",
	"access denied",
	"403",
	"404",
	"error",
	"loading",
	"проверка",
	"капча",
	"доступ запрещен",
	"ошибка",
	"загрузка",
}

// mailtoRegex matches the address part of mailto: hrefs.
var mailtoRegex = regexp.MustCompile(`(?i)mailto:([a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,})`)

// whitespaceRegex collapses runs of whitespace in titles.
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Engine extracts emails, phones and titles from page markup.
type Engine struct {
	// emailRegex is the configured email pattern, matched case-insensitively.
	emailRegex *regexp.Regexp

	// phoneRegexes are applied in configuration order.
	phoneRegexes []*regexp.Regexp
}

// NewEngine compiles the email pattern and phone patterns.
// A pattern that does not compile is reported as ErrInvalidPattern.
func NewEngine(emailPattern string, phonePatterns []string) (*Engine, error) {
	if strings.TrimSpace(emailPattern) == "" {
		return nil, fmt.Errorf("email: %w", ErrEmptyPattern)
	}

	emailRegex, err := regexp.Compile("(?i)" + emailPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: email pattern %q: %w", ErrInvalidPattern, emailPattern, err)
	}

	phoneRegexes := make([]*regexp.Regexp, 0, len(phonePatterns))
	for i, pattern := range phonePatterns {
		if strings.TrimSpace(pattern) == "" {
			return nil, fmt.Errorf("phone pattern %d: %w", i+1, ErrEmptyPattern)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: phone pattern %q: %w", ErrInvalidPattern, pattern, err)
		}
		phoneRegexes = append(phoneRegexes, re)
	}

	return &Engine{
		emailRegex:   emailRegex,
		phoneRegexes: phoneRegexes,
	}, nil
}

// ExtractEmails returns the unique, lower-cased, valid email addresses in
// markup, in order of first appearance. Attributes and scripts are searched
// too, followed by a dedicated pass over mailto: links.
func (e *Engine) ExtractEmails(markup string) []string {
	emails := make([]string, 0)
	if strings.TrimSpace(markup) == "" {
		return emails
	}

	seen := make(map[string]bool)
	add := func(candidate string) {
		email := strings.ToLower(strings.TrimSpace(candidate))
		if seen[email] || !validate.IsValidEmail(email) {
			return
		}
		seen[email] = true
		emails = append(emails, email)
	}

	for _, match := range e.emailRegex.FindAllString(markup, -1) {
		add(match)
	}
	for _, match := range mailtoRegex.FindAllStringSubmatch(markup, -1) {
		add(match[1])
	}
	return emails
}

// ExtractPhones returns the unique valid phone numbers in markup. Numbers
// are deduplicated by digit sequence, so the same number written in two
// formats is kept once, in its first-seen formatting.
func (e *Engine) ExtractPhones(markup string) []string {
	phones := make([]string, 0)
	if strings.TrimSpace(markup) == "" {
		return phones
	}

	seen := make(map[string]bool)
	for _, re := range e.phoneRegexes {
		for _, match := range re.FindAllString(markup, -1) {
			if !validate.IsValidPhone(match) {
				continue
			}
			phone := validate.NormalizePhone(match)
			key := validate.PhoneKey(phone)
			if seen[key] {
				continue
			}
			seen[key] = true
			phones = append(phones, phone)
		}
	}
	return phones
}

// ExtractTitle returns the best title of doc. Candidates are tried in
// order: <title>, og:title, the first <h1>, and the description meta tag
// when it is 10 to 99 characters long. NoTitle is returned when every
// candidate is empty or looks like an error or anti-bot page.
func (e *Engine) ExtractTitle(doc *markup.Document) string {
	if doc == nil {
		return NoTitle
	}

	candidates := []string{
		doc.Title(),
		doc.MetaContent("og:title"),
		doc.FirstText("h1"),
	}
	for _, candidate := range candidates {
		if title := cleanText(candidate); isAcceptableTitle(title) {
			return title
		}
	}

	description := cleanText(doc.MetaContent("description"))
	n := utf8.RuneCountInString(description)
	if n >= minDescriptionLength && n <= maxDescriptionLength && isAcceptableTitle(description) {
		return description
	}
	return NoTitle
}

// cleanText collapses whitespace and applies NFC normalization so visually
// equal titles compare equal. Entities are already decoded by the parser.
func cleanText(s string) string {
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return norm.NFC.String(strings.TrimSpace(s))
}

func isAcceptableTitle(title string) bool {
	if utf8.RuneCountInString(title) < minTitleLength {
		return false
	}
	lower := strings.ToLower(title)
	for _, blocked := range titleBlocklist {
		if strings.Contains(lower, blocked) {
			return false
		}
	}
	return true
}
