// Package markup parses HTML into a queryable document.
//
// It covers the small set of queries the crawler needs: the title, h1 and
// meta tags for title extraction, and anchor hrefs for link discovery.
// Parsing is lenient; malformed markup still yields a document.
package markup
