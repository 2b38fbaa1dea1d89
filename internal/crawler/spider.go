package crawler

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/nao1215/leadscan/internal/extract"
	"github.com/nao1215/leadscan/internal/fetch"
	"github.com/nao1215/leadscan/internal/markup"
	"github.com/nao1215/leadscan/internal/model"
)

// Spider defaults.
const (
	// DefaultDepth crawls the seed page plus one tier of internal pages.
	DefaultDepth = 2

	// DefaultDelay is the pause between two fetches of the same site.
	DefaultDelay = 2 * time.Second

	// pagesPerDepth multiplied by the depth gives the per-site page cap.
	pagesPerDepth = 10

	// maxFallbackLinks is how many links are visited when no contact-like link exists.
	maxFallbackLinks = 10
)

// FetcherFactory creates the fetcher owned by one site crawl.
// A fetcher that implements io.Closer is closed when the crawl ends.
type FetcherFactory func() fetch.Fetcher

// Spider crawls one site at a time and extracts its contacts.
// A Spider holds no per-site state, so one instance can serve many
// concurrent crawls.
type Spider struct {
	// newFetcher supplies a fresh fetcher for every site.
	newFetcher FetcherFactory

	engine *extract.Engine
	social *extract.SocialResolver

	// depth is the crawl depth. 1 fetches only the seed page; anything
	// larger adds one tier of internal pages.
	depth int

	// delay is the time to wait between requests to the same site.
	delay time.Duration

	// contactHints are URL substrings that mark contact-like pages.
	contactHints []string

	// ignorePatterns are URL path globs that are never fetched (e.g. "*.pdf").
	ignorePatterns []string

	logger *slog.Logger

	// now returns the finalization timestamp.
	now func() time.Time
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithDepth sets the crawl depth.
func WithDepth(depth int) SpiderOption {
	return func(s *Spider) {
		if depth > 0 {
			s.depth = depth
		}
	}
}

// WithDelay sets the delay between requests to the same site.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithContactHints sets the keywords that identify contact-like links.
func WithContactHints(hints []string) SpiderOption {
	return func(s *Spider) {
		s.contactHints = make([]string, 0, len(hints))
		for _, h := range hints {
			if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
				s.contactHints = append(s.contactHints, h)
			}
		}
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "*.pdf", "/cart/*").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithSpiderLogger sets the logger.
func WithSpiderLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the function used to timestamp records.
func WithClock(now func() time.Time) SpiderOption {
	return func(s *Spider) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSpider creates a Spider. engine and social are shared by all crawls
// and must already be compiled.
func NewSpider(newFetcher FetcherFactory, engine *extract.Engine, social *extract.SocialResolver, opts ...SpiderOption) *Spider {
	s := &Spider{
		newFetcher: newFetcher,
		engine:     engine,
		social:     social,
		depth:      DefaultDepth,
		delay:      DefaultDelay,
		logger:     slog.Default(),
		now:        time.Now,
	}
	WithContactHints(DefaultContactHints)(s)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// MaxPages returns the per-site page cap.
func (s *Spider) MaxPages() int {
	return s.depth * pagesPerDepth
}

// CrawlSite crawls the site at seedURL and returns its finalized record.
// Only a failure to load the seed page fails the record; errors on other
// pages are skipped.
func (s *Spider) CrawlSite(ctx context.Context, index int, seedURL string) *model.SiteRecord {
	f := s.newFetcher()
	if closer, ok := f.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				s.logger.Debug("failed to close fetcher", "url", seedURL, "error", err)
			}
		}()
	}

	record := s.crawl(ctx, f, index, seedURL)
	record.Finalize(s.now())
	return record
}

func (s *Spider) crawl(ctx context.Context, f fetch.Fetcher, index int, seedURL string) *model.SiteRecord {
	record := model.NewSiteRecord(index, seedURL)
	record.Title = record.Domain()

	seed, err := url.Parse(seedURL)
	if err != nil || seed.Hostname() == "" || (seed.Scheme != "http" && seed.Scheme != "https") {
		record.Fail("invalid URL")
		return record
	}

	s.logger.Debug("crawling site", "index", index, "url", seedURL)

	state := newCrawlState(seed)
	state.markVisited(seedURL)

	seedPage, err := f.Fetch(ctx, seedURL)
	if err != nil {
		reason := fetch.Reason(err)
		s.logger.Debug("seed page failed", "index", index, "url", seedURL, "reason", reason, "error", err)
		record.Fail(reason)
		return record
	}
	record.Succeed()
	state.addPage(seedPage)

	doc, err := markup.Parse(seedPage.Body)
	if err != nil {
		s.logger.Debug("failed to parse seed page", "url", seedURL, "error", err)
	} else {
		if title := s.engine.ExtractTitle(doc); title != extract.NoTitle {
			record.Title = title
		}
		state.allowFinalHost(seedPage)
		links := s.filterLinks(state, doc, seedPage)

		if s.depth > 1 {
			s.crawlTier(ctx, f, state, s.visitQueue(links))
		}
	}

	s.extractContacts(record, state)
	record.PagesCrawled = len(state.pages)

	s.logger.Debug("site crawled",
		"index", index,
		"url", seedURL,
		"pages", record.PagesCrawled,
		"links_discovered", len(state.discovered),
		"emails", len(record.Emails),
		"phones", len(record.Phones),
	)
	return record
}

// crawlTier fetches the queued pages one by one, waiting s.delay before
// each request. Links found on these pages are recorded but not followed.
func (s *Spider) crawlTier(ctx context.Context, f fetch.Fetcher, state *crawlState, queue []string) {
	for _, link := range queue {
		if state.visitedCount() >= s.MaxPages() {
			s.logger.Debug("page cap reached", "url", state.seed.String(), "cap", s.MaxPages())
			return
		}
		if state.isVisited(link) {
			continue
		}

		if s.delay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.delay):
			}
		} else if ctx.Err() != nil {
			return
		}

		state.markVisited(link)
		page, err := f.Fetch(ctx, link)
		if err != nil {
			s.logger.Debug("skipping page", "url", link, "reason", fetch.Reason(err))
			continue
		}
		if !state.addPage(page) {
			continue
		}

		doc, err := markup.Parse(page.Body)
		if err != nil {
			continue
		}
		for _, l := range s.filterLinks(state, doc, page) {
			state.discovered[l] = true
		}
	}
}

// filterLinks returns the in-scope links of a page that are not ignored.
func (s *Spider) filterLinks(state *crawlState, doc *markup.Document, page *model.Page) []string {
	base, err := url.Parse(page.BaseURL())
	if err != nil {
		return nil
	}

	var links []string
	for _, u := range doc.Links(base) {
		if !state.inScope(u) || s.shouldIgnore(u) {
			continue
		}
		link := markup.NormalizeLink(u)
		state.discovered[link] = true
		links = append(links, link)
	}
	return links
}

// visitQueue returns the contact-like links, or the first links of the
// page when none looks like a contact page.
func (s *Spider) visitQueue(links []string) []string {
	var contacts []string
	for _, link := range links {
		if s.isContactLink(link) {
			contacts = append(contacts, link)
		}
	}
	if len(contacts) > 0 {
		return contacts
	}
	if len(links) > maxFallbackLinks {
		return links[:maxFallbackLinks]
	}
	return links
}

// isContactLink matches hints against the link and its percent-decoded
// form, so "/контакты" matches even when written as "/%D0%BA...".
func (s *Spider) isContactLink(link string) bool {
	lower := strings.ToLower(link)
	decoded := lower
	if unescaped, err := url.PathUnescape(link); err == nil {
		decoded = strings.ToLower(unescaped)
	}
	for _, hint := range s.contactHints {
		if strings.Contains(lower, hint) || strings.Contains(decoded, hint) {
			return true
		}
	}
	return false
}

func (s *Spider) shouldIgnore(u *url.URL) bool {
	p := u.Path
	if p == "" {
		p = "/"
	}
	for _, pattern := range s.ignorePatterns {
		if matched, _ := path.Match(pattern, p); matched { //nolint:errcheck // invalid patterns never match
			return true
		}
		if matched, _ := path.Match(pattern, path.Base(p)); matched { //nolint:errcheck
			return true
		}
	}
	return false
}

// extractContacts unions the contacts of every fetched page and resolves
// social links over their combined markup.
func (s *Spider) extractContacts(record *model.SiteRecord, state *crawlState) {
	emails := newStringSet()
	phones := newStringSet()
	var combined strings.Builder

	for _, page := range state.pages {
		for _, email := range s.engine.ExtractEmails(page.Body) {
			emails.add(email, email)
		}
		for _, phone := range s.engine.ExtractPhones(page.Body) {
			phones.add(phoneKey(phone), phone)
		}
		combined.WriteString(page.Body)
		combined.WriteByte('\n')
	}

	record.Emails = emails.values()
	record.Phones = phones.values()
	record.SocialLinks = s.social.ExtractSocialMedia(combined.String())
}
