// Package seed reads the list of sites to crawl.
//
// Seed lists are plain text, one URL per line. Blank lines and lines
// starting with '#' are ignored. URLs without a scheme get https://, and
// duplicates are dropped while keeping the first occurrence, so the
// position of every site in the list (its index in exports) is stable.
package seed
