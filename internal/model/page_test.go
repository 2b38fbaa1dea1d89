package model

import "testing"

func TestPageComputeHash(t *testing.T) {
	t.Parallel()

	t.Run("computes SHA256 hash of body", func(t *testing.T) {
		t.Parallel()

		page := &Page{Body: "Hello, World!"}
		page.ComputeHash()

		expected := "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f"
		if page.Hash != expected {
			t.Errorf("got %q, expected %q", page.Hash, expected)
		}
	})

	t.Run("empty body produces empty hash", func(t *testing.T) {
		t.Parallel()

		page := &Page{}
		page.ComputeHash()

		if page.Hash != "" {
			t.Errorf("expected empty hash, got %q", page.Hash)
		}
	})
}

func TestPageBaseURL(t *testing.T) {
	t.Parallel()

	p := &Page{URL: "http://example.com/a"}
	if p.BaseURL() != "http://example.com/a" {
		t.Errorf("expected request URL, got %q", p.BaseURL())
	}
	p.FinalURL = "https://example.com/b"
	if p.BaseURL() != "https://example.com/b" {
		t.Errorf("expected final URL, got %q", p.BaseURL())
	}
}
