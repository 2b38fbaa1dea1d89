// Package crawler crawls a single site and extracts its contacts.
//
// # Crawl model
//
// The Spider uses a bounded two-tier crawl rather than a recursive one:
//
//  1. The seed page is fetched. If that fails the site fails.
//  2. Links on the seed page are resolved and kept when they point at the
//     seed host (or the host the seed redirected to).
//  3. With a depth above 1, the contact-like links are fetched, or the
//     first ten links when no link looks like a contact page. Links on
//     those pages are recorded but not followed.
//  4. Emails and phones of every fetched page are merged; social links are
//     resolved once over the combined markup.
//
// A site never receives more than depth×10 requests, and requests to the
// same site are issued one at a time with a politeness delay in between.
//
// # Resources
//
// Every crawl owns a fetcher created through a FetcherFactory and closes
// it before returning, so connections and cookies are never shared between
// sites. The visited set lives only for the duration of the crawl.
//
// # Usage
//
//	newFetcher := func() fetch.Fetcher { return client.NewFetcher() }
//	spider := crawler.NewSpider(newFetcher, engine, social, crawler.WithDepth(2))
//	record := spider.CrawlSite(ctx, 1, "https://example.com")
package crawler
