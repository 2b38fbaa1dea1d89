package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// Page represents a fetched web page.
// Body always holds UTF-8 text; the fetcher decodes legacy charsets
// (windows-1251, koi8-r, ...) before the page reaches extraction.
type Page struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// FinalURL is the URL after redirects. Equal to URL when no redirect happened.
	FinalURL string `json:"final_url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type of the response.
	ContentType string `json:"content_type"`

	// Body is the decoded response body, truncated to the fetcher's size limit.
	Body string `json:"-"`

	// Hash is the SHA-256 hash of Body.
	Hash string `json:"hash"`
}

// ComputeHash calculates the SHA-256 hash of the body.
// An empty body leaves Hash empty.
func (p *Page) ComputeHash() {
	if p.Body == "" {
		p.Hash = ""
		return
	}
	sum := sha256.Sum256([]byte(p.Body))
	p.Hash = hex.EncodeToString(sum[:])
}

// BaseURL returns the URL relative links on this page resolve against.
func (p *Page) BaseURL() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}
