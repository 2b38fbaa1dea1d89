// Package fetch downloads web pages for the crawler.
//
// A Client holds the settings shared by a run: timeout, user agent,
// optional proxy and an optional global request-rate limit. Every site
// crawl gets its own Fetcher from Client.NewFetcher, with its own
// connection pool and cookie jar, and closes it when the crawl ends.
// No connection or cookie state crosses sites.
//
// Fetchers follow up to five redirects, decode gzip and deflate bodies
// and convert legacy charsets to UTF-8.
package fetch
