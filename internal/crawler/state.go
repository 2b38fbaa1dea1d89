package crawler

import (
	"net/url"
	"strings"

	"github.com/nao1215/leadscan/internal/markup"
	"github.com/nao1215/leadscan/internal/model"
	"github.com/nao1215/leadscan/internal/validate"
)

// DefaultContactHints are URL substrings of typical contact and about pages.
var DefaultContactHints = []string{"контакты", "contact", "contacts", "о-нас", "about", "o-nas"}

// crawlState is owned by a single crawl and dropped when it returns.
type crawlState struct {
	seed *url.URL

	// hosts are the lower-case host names in scope: the seed host and the
	// host the seed page redirected to.
	hosts map[string]bool

	// visited holds normalized URLs that were fetched or attempted.
	visited map[string]bool

	// discovered holds every in-scope link seen on any page.
	discovered map[string]bool

	// pages are the successfully fetched pages with distinct content.
	pages []*model.Page

	// hashes are the body hashes of pages.
	hashes map[string]bool
}

func newCrawlState(seed *url.URL) *crawlState {
	return &crawlState{
		seed:       seed,
		hosts:      map[string]bool{strings.ToLower(seed.Hostname()): true},
		visited:    make(map[string]bool),
		discovered: make(map[string]bool),
		hashes:     make(map[string]bool),
	}
}

func (c *crawlState) key(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return markup.NormalizeLink(u)
}

func (c *crawlState) isVisited(rawURL string) bool {
	return c.visited[c.key(rawURL)]
}

func (c *crawlState) markVisited(rawURL string) {
	c.visited[c.key(rawURL)] = true
}

func (c *crawlState) visitedCount() int {
	return len(c.visited)
}

// allowFinalHost brings the host of the seed page's final URL into scope,
// so a site that redirects example.com to www.example.com is still crawled.
func (c *crawlState) allowFinalHost(page *model.Page) {
	if page.FinalURL == "" {
		return
	}
	u, err := url.Parse(page.FinalURL)
	if err != nil || u.Hostname() == "" {
		return
	}
	c.hosts[strings.ToLower(u.Hostname())] = true
	c.markVisited(page.FinalURL)
}

func (c *crawlState) inScope(u *url.URL) bool {
	return c.hosts[strings.ToLower(u.Hostname())]
}

// addPage records a fetched page. It returns false when a page with the
// same body was already recorded, e.g. after a redirect to the home page.
func (c *crawlState) addPage(page *model.Page) bool {
	if page.FinalURL != "" {
		c.markVisited(page.FinalURL)
	}
	if page.Hash != "" {
		if c.hashes[page.Hash] {
			return false
		}
		c.hashes[page.Hash] = true
	}
	c.pages = append(c.pages, page)
	return true
}

// stringSet keeps the first value stored under each key, in insertion order.
type stringSet struct {
	seen  map[string]bool
	items []string
}

func newStringSet() *stringSet {
	return &stringSet{seen: make(map[string]bool)}
}

func (s *stringSet) add(key, value string) {
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.items = append(s.items, value)
}

func (s *stringSet) values() []string {
	if s.items == nil {
		return make([]string, 0)
	}
	return s.items
}

func phoneKey(phone string) string {
	return validate.PhoneKey(phone)
}
