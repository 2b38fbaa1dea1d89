package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/nao1215/leadscan/internal/model"
)

// urlTail matches the rest of a link up to whitespace, a quote or a bracket.
const urlTail = `[^\s"'<>]*`

// trailingPunctuation is stripped from the end of matched links.
const trailingPunctuation = `.,;)]}>"'`

// shareEndpoints are first path segments of share buttons, which link to
// the platform but not to the site's own profile. Handles that merely start
// with "share" are profiles.
var shareEndpoints = map[string]bool{
	"share":      true,
	"share.php":  true,
	"sharer":     true,
	"sharer.php": true,
	"intent":     true,
}

// SocialResolver finds at most one profile link per social platform.
type SocialResolver struct {
	// matchers are ordered like model.Platforms.
	matchers []platformMatcher
}

type platformMatcher struct {
	platform     model.Platform
	alternatives []alternative
}

// alternative is one domain of a platform, e.g. "t.me" for Telegram.
type alternative struct {
	// full matches an absolute link such as https://www.vk.com/shop.
	full *regexp.Regexp

	// bare matches the domain without a scheme, e.g. vk.com/shop. The
	// domain must not be glued to a preceding word.
	bare *regexp.Regexp
}

// NewSocialResolver compiles the platform patterns. Each pattern is a
// pipe-delimited list of domains, e.g. "t.me|telegram.me", tried in order.
// Platforms without a pattern are never matched.
func NewSocialResolver(patterns map[model.Platform]string) (*SocialResolver, error) {
	for platform := range patterns {
		if _, ok := model.ParsePlatform(string(platform)); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
		}
	}

	r := &SocialResolver{}
	for _, platform := range model.Platforms {
		pattern, ok := patterns[platform]
		if !ok {
			continue
		}

		m := platformMatcher{platform: platform}
		for _, domain := range strings.Split(pattern, "|") {
			domain = strings.TrimSpace(domain)
			if domain == "" {
				continue
			}
			quoted := regexp.QuoteMeta(domain)
			full, err := regexp.Compile(`(?i)https?://(?:www\.)?` + quoted + urlTail)
			if err != nil {
				return nil, fmt.Errorf("%w: %s pattern %q: %w", ErrInvalidPattern, platform, domain, err)
			}
			bare, err := regexp.Compile(`(?i)(?:^|[^a-z0-9_\-])(` + quoted + urlTail + `)`)
			if err != nil {
				return nil, fmt.Errorf("%w: %s pattern %q: %w", ErrInvalidPattern, platform, domain, err)
			}
			m.alternatives = append(m.alternatives, alternative{full: full, bare: bare})
		}
		if len(m.alternatives) == 0 {
			return nil, fmt.Errorf("%s: %w", platform, ErrEmptyPattern)
		}
		r.matchers = append(r.matchers, m)
	}
	return r, nil
}

// ExtractSocialMedia returns a link for every platform. Platforms with
// no match map to "".
func (r *SocialResolver) ExtractSocialMedia(markup string) map[model.Platform]string {
	links := make(map[model.Platform]string, len(model.Platforms))
	for _, p := range model.Platforms {
		links[p] = ""
	}
	if strings.TrimSpace(markup) == "" {
		return links
	}

	for _, m := range r.matchers {
		for _, alt := range m.alternatives {
			if link := alt.find(markup); link != "" {
				links[m.platform] = link
				break
			}
		}
	}
	return links
}

// find returns the first usable full link, or failing that the first
// usable bare link with an https:// prefix.
func (a alternative) find(markup string) string {
	for _, match := range a.full.FindAllString(markup, -1) {
		if link := CleanURL(match); isProfileLink(link) {
			return link
		}
	}
	for _, match := range a.bare.FindAllStringSubmatch(markup, -1) {
		if link := CleanURL("https://" + match[1]); isProfileLink(link) {
			return link
		}
	}
	return ""
}

// CleanURL strips trailing punctuation and drops the query string and
// the fragment.
func CleanURL(link string) string {
	link = strings.TrimRight(link, trailingPunctuation)
	if i := strings.IndexAny(link, "?#"); i > 0 {
		link = strings.TrimRight(link[:i], trailingPunctuation)
	}
	return link
}

func isProfileLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return true
	}
	first, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	return !shareEndpoints[strings.ToLower(first)]
}
