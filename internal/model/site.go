package model

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// Platform is a social network a site can link to.
type Platform string

// Supported social platforms.
const (
	PlatformVK        Platform = "VK"
	PlatformTelegram  Platform = "Telegram"
	PlatformWhatsApp  Platform = "WhatsApp"
	PlatformInstagram Platform = "Instagram"
	PlatformFacebook  Platform = "Facebook"
	PlatformOK        Platform = "OK"
	PlatformYouTube   Platform = "YouTube"
)

// Platforms lists every supported platform in export column order.
var Platforms = []Platform{
	PlatformVK,
	PlatformTelegram,
	PlatformWhatsApp,
	PlatformInstagram,
	PlatformFacebook,
	PlatformOK,
	PlatformYouTube,
}

// ParsePlatform maps a case-insensitive platform name to a Platform.
func ParsePlatform(name string) (Platform, bool) {
	for _, p := range Platforms {
		if strings.EqualFold(string(p), strings.TrimSpace(name)) {
			return p, true
		}
	}
	return "", false
}

// ReasonSkipped is the error reason of sites that never started because
// the run was cancelled.
const ReasonSkipped = "skipped: run cancelled"

// SiteRecord is the extraction result for one seed URL.
//
// ErrorReason is non-empty iff Success is false. Emails and Phones only
// hold values that passed validation.
type SiteRecord struct {
	// Index is the 1-based position of the seed in the input list.
	Index int `json:"index"`

	// URL is the seed URL as given.
	URL string `json:"url"`

	// Title is the page title, or the seed host when no usable title exists.
	Title string `json:"title"`

	// Emails are lower-cased, unique email addresses.
	Emails []string `json:"emails"`

	// Phones are unique phone numbers in their first-seen formatting.
	Phones []string `json:"phones"`

	// SocialLinks maps every platform to a profile URL, or "" when none was found.
	SocialLinks map[Platform]string `json:"social_links"`

	// Success reports whether the seed page loaded.
	Success bool `json:"success"`

	// ErrorReason is a short human-readable failure cause.
	ErrorReason string `json:"error_reason,omitempty"`

	// Skipped is set when the run was cancelled before this site started.
	Skipped bool `json:"skipped,omitempty"`

	// PagesCrawled is the number of pages fetched successfully.
	PagesCrawled int `json:"pages_crawled"`

	// Timestamp is set once, when the record is finalized.
	Timestamp time.Time `json:"timestamp"`
}

// NewSiteRecord creates an empty record for the seed at the given index.
func NewSiteRecord(index int, seedURL string) *SiteRecord {
	return &SiteRecord{
		Index:       index,
		URL:         seedURL,
		Emails:      make([]string, 0),
		Phones:      make([]string, 0),
		SocialLinks: emptySocialLinks(),
	}
}

// NewSkippedRecord creates a finalized record for a site that never ran.
func NewSkippedRecord(index int, seedURL string, now time.Time) *SiteRecord {
	r := NewSiteRecord(index, seedURL)
	r.Title = r.Domain()
	r.Skipped = true
	r.Fail(ReasonSkipped)
	r.Finalize(now)
	return r
}

func emptySocialLinks() map[Platform]string {
	links := make(map[Platform]string, len(Platforms))
	for _, p := range Platforms {
		links[p] = ""
	}
	return links
}

// Fail marks the record as failed. An empty reason becomes "unknown error"
// so the ErrorReason/Success invariant always holds.
func (r *SiteRecord) Fail(reason string) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown error"
	}
	r.Success = false
	r.ErrorReason = reason
	r.Emails = make([]string, 0)
	r.Phones = make([]string, 0)
	r.SocialLinks = emptySocialLinks()
}

// Succeed marks the record as successful.
func (r *SiteRecord) Succeed() {
	r.Success = true
	r.ErrorReason = ""
}

// Finalize stamps the record and puts contact lists into a stable order.
// Only the first call sets the timestamp.
func (r *SiteRecord) Finalize(now time.Time) {
	if r.Timestamp.IsZero() {
		r.Timestamp = now
	}
	sort.Strings(r.Emails)
	sort.SliceStable(r.Phones, func(i, j int) bool {
		return digitsOf(r.Phones[i]) < digitsOf(r.Phones[j])
	})
	if r.SocialLinks == nil {
		r.SocialLinks = emptySocialLinks()
	}
}

// SocialCount returns the number of platforms with a link.
func (r *SiteRecord) SocialCount() int {
	count := 0
	for _, link := range r.SocialLinks {
		if link != "" {
			count++
		}
	}
	return count
}

// Domain returns the seed host, or the raw URL when it cannot be parsed.
func (r *SiteRecord) Domain() string {
	u, err := url.Parse(r.URL)
	if err != nil || u.Hostname() == "" {
		return r.URL
	}
	return u.Hostname()
}

// StatusText returns "OK" for successful records and "Error: <reason>" otherwise.
func (r *SiteRecord) StatusText() string {
	if r.Success {
		return "OK"
	}
	return "Error: " + r.ErrorReason
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
