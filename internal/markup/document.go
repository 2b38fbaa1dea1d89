package markup

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed HTML page.
type Document struct {
	doc *goquery.Document
}

// Parse parses raw markup into a Document.
func Parse(raw string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{doc: goquery.NewDocumentFromNode(root)}, nil
}

// Title returns the text of the first <title> element.
func (d *Document) Title() string {
	return d.FirstText("title")
}

// FirstText returns the raw text of the first element matching selector.
func (d *Document) FirstText(selector string) string {
	return d.doc.Find(selector).First().Text()
}

// MetaContent returns the content attribute of the first <meta> whose name
// or property equals key (case-insensitive).
func (d *Document) MetaContent(key string) string {
	var content string
	d.doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		property, _ := s.Attr("property")
		if !strings.EqualFold(name, key) && !strings.EqualFold(property, key) {
			return true
		}
		content, _ = s.Attr("content")
		return false
	})
	return content
}

// Hrefs returns the trimmed href of every anchor in document order.
func (d *Document) Hrefs() []string {
	var hrefs []string
	d.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			if href = strings.TrimSpace(href); href != "" {
				hrefs = append(hrefs, href)
			}
		}
	})
	return hrefs
}

// Links resolves every anchor against base and returns the unique
// navigable http(s) URLs in document order. Uniqueness is decided on the
// normalized form, so "/a" and "/a#top" count once.
func (d *Document) Links(base *url.URL) []*url.URL {
	seen := make(map[string]bool)
	var links []*url.URL
	for _, href := range d.Hrefs() {
		resolved := ResolveURL(base, href)
		if resolved == nil {
			continue
		}
		key := NormalizeLink(resolved)
		if seen[key] {
			continue
		}
		seen[key] = true
		links = append(links, resolved)
	}
	return links
}

// ResolveURL resolves href against base. It returns nil for non-navigable
// targets (javascript:, mailto:, tel:, data:, fragment-only) and for
// anything that does not end up as http or https.
func ResolveURL(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return nil
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return nil
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil
	}
	return resolved
}

// NormalizeLink returns the canonical string form of u used for visited
// tracking: lower-case host, no fragment, "/" for an empty path.
func NormalizeLink(u *url.URL) string {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	c.Fragment = ""
	c.RawFragment = ""
	if c.Path == "" {
		c.Path = "/"
	}
	return c.String()
}
