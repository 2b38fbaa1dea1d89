// Package main provides the entry point for the leadscan CLI.
//
// leadscan crawls a list of business web sites and collects their public
// contacts: email addresses, phone numbers and social network profiles.
//
// Usage:
//
//	leadscan scan https://example.com
//	leadscan scan --urls sites.txt --format csv
//
// See --help for all available options.
package main

func main() {
	Execute()
}
