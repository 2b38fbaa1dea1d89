package extract

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nao1215/leadscan/internal/markup"
)

const (
	testEmailPattern = `[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`
)

var testPhonePatterns = []string{
	`\+7\s?\(?\d{3}\)?\s?\d{3}-?\d{2}-?\d{2}`,
	`8\s?\(?\d{3}\)?\s?\d{3}-?\d{2}-?\d{2}`,
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	e, err := NewEngine(testEmailPattern, testPhonePatterns)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return e
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	t.Run("malformed email pattern fails at construction", func(t *testing.T) {
		t.Parallel()

		_, err := NewEngine(`[a-z`, testPhonePatterns)
		if !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("expected ErrInvalidPattern, got %v", err)
		}
	})

	t.Run("malformed phone pattern fails at construction", func(t *testing.T) {
		t.Parallel()

		_, err := NewEngine(testEmailPattern, []string{`\d{3}(`})
		if !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("expected ErrInvalidPattern, got %v", err)
		}
	})

	t.Run("empty email pattern is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := NewEngine("  ", testPhonePatterns)
		if !errors.Is(err, ErrEmptyPattern) {
			t.Errorf("expected ErrEmptyPattern, got %v", err)
		}
	})
}

func TestExtractEmails(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	t.Run("mailto and plain text collapse case-insensitively", func(t *testing.T) {
		t.Parallel()

		got := e.ExtractEmails(`<a href="mailto:a@b.com">write</a> contact: A@B.COM`)
		if !reflect.DeepEqual(got, []string{"a@b.com"}) {
			t.Errorf("expected [a@b.com], got %v", got)
		}
	})

	t.Run("finds emails in attributes and scripts", func(t *testing.T) {
		t.Parallel()

		markup := `<div data-mail="sales@shop.ru"></div><script>var m = "Support@Shop.ru";</script>`
		got := e.ExtractEmails(markup)
		expected := []string{"sales@shop.ru", "support@shop.ru"}
		if !reflect.DeepEqual(got, expected) {
			t.Errorf("expected %v, got %v", expected, got)
		}
	})

	t.Run("rejects image asset names", func(t *testing.T) {
		t.Parallel()

		got := e.ExtractEmails(`<img src="/img/logo@2x.png"> <img srcset="icon@3x.webp">`)
		if len(got) != 0 {
			t.Errorf("expected no emails, got %v", got)
		}
	})

	t.Run("empty markup yields empty set", func(t *testing.T) {
		t.Parallel()

		for _, markup := range []string{"", "   \n\t"} {
			got := e.ExtractEmails(markup)
			if got == nil || len(got) != 0 {
				t.Errorf("expected empty non-nil slice, got %#v", got)
			}
		}
	})
}

func TestExtractPhones(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	t.Run("same number in two formats is kept once", func(t *testing.T) {
		t.Parallel()

		got := e.ExtractPhones(`Call +7 (495) 123-45-67 or 8(495)1234567`)
		if !reflect.DeepEqual(got, []string{"+7 (495) 123-45-67"}) {
			t.Errorf("expected one phone in first-seen format, got %v", got)
		}
	})

	t.Run("distinct numbers are kept", func(t *testing.T) {
		t.Parallel()

		got := e.ExtractPhones(`+7 (495) 123-45-67, +7 (812) 765-43-21`)
		if len(got) != 2 {
			t.Errorf("expected 2 phones, got %v", got)
		}
	})

	t.Run("empty markup yields empty set", func(t *testing.T) {
		t.Parallel()

		if got := e.ExtractPhones(" "); len(got) != 0 {
			t.Errorf("expected no phones, got %v", got)
		}
	})
}

func TestExtractTitle(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	tests := []struct {
		name     string
		markup   string
		expected string
	}{
		{
			name:     "title tag",
			markup:   `<html><head><title>  Stroy   Market &amp; Co </title></head></html>`,
			expected: "Stroy Market & Co",
		},
		{
			name:     "entities are decoded once",
			markup:   `<html><head><title>AT&amp;amp;T Dealer</title></head></html>`,
			expected: "AT&amp;T Dealer",
		},
		{
			name:     "og:title entities are decoded once",
			markup:   `<html><head><meta property="og:title" content="Tom &amp;lt;Plumbing&amp;gt;"></head></html>`,
			expected: "Tom &lt;Plumbing&gt;",
		},
		{
			name:     "blocked title falls through to h1",
			markup:   `<html><head><title>Captcha Check</title></head><body><h1>Stroy Market</h1></body></html>`,
			expected: "Stroy Market",
		},
		{
			name:     "og:title before h1",
			markup:   `<html><head><title>404 Not Found</title><meta property="og:title" content="Open Graph"></head><body><h1>Header</h1></body></html>`,
			expected: "Open Graph",
		},
		{
			name:     "russian blocklist",
			markup:   `<html><head><title>Проверка браузера</title></head><body><h1>Окна Москва</h1></body></html>`,
			expected: "Окна Москва",
		},
		{
			name:     "description in range",
			markup:   `<html><head><title>ab</title><meta name="description" content="Windows and doors in Moscow"></head></html>`,
			expected: "Windows and doors in Moscow",
		},
		{
			name:     "description too short",
			markup:   `<html><head><meta name="description" content="Short"></head></html>`,
			expected: NoTitle,
		},
		{
			name:     "nothing usable",
			markup:   `<html><head><title>Just a moment...</title></head><body><h1>Loading</h1></body></html>`,
			expected: NoTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := markup.Parse(tt.markup)
			if err != nil {
				t.Fatalf("failed to parse: %v", err)
			}
			if got := e.ExtractTitle(doc); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}

	t.Run("nil document", func(t *testing.T) {
		t.Parallel()

		if got := e.ExtractTitle(nil); got != NoTitle {
			t.Errorf("expected %q, got %q", NoTitle, got)
		}
	})
}
