package extract

import (
	"errors"
	"testing"

	"github.com/nao1215/leadscan/internal/model"
)

var testSocialPatterns = map[model.Platform]string{
	model.PlatformVK:        "vk.com",
	model.PlatformTelegram:  "t.me|telegram.me",
	model.PlatformWhatsApp:  "wa.me|api.whatsapp.com",
	model.PlatformInstagram: "instagram.com",
	model.PlatformFacebook:  "facebook.com",
	model.PlatformOK:        "ok.ru",
	model.PlatformYouTube:   "youtube.com",
}

func newTestResolver(t *testing.T) *SocialResolver {
	t.Helper()

	r, err := NewSocialResolver(testSocialPatterns)
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}
	return r
}

func TestNewSocialResolver(t *testing.T) {
	t.Parallel()

	t.Run("unknown platform", func(t *testing.T) {
		t.Parallel()

		_, err := NewSocialResolver(map[model.Platform]string{"MySpace": "myspace.com"})
		if !errors.Is(err, ErrUnknownPlatform) {
			t.Errorf("expected ErrUnknownPlatform, got %v", err)
		}
	})

	t.Run("empty alternatives", func(t *testing.T) {
		t.Parallel()

		_, err := NewSocialResolver(map[model.Platform]string{model.PlatformVK: " | "})
		if !errors.Is(err, ErrEmptyPattern) {
			t.Errorf("expected ErrEmptyPattern, got %v", err)
		}
	})
}

func TestExtractSocialMedia(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t)

	t.Run("result is total over platforms", func(t *testing.T) {
		t.Parallel()

		links := r.ExtractSocialMedia("")
		if len(links) != len(model.Platforms) {
			t.Fatalf("expected %d platforms, got %d", len(model.Platforms), len(links))
		}
		for p, link := range links {
			if link != "" {
				t.Errorf("expected empty link for %s, got %q", p, link)
			}
		}
	})

	t.Run("full links are cleaned", func(t *testing.T) {
		t.Parallel()

		markup := `<a href="https://www.vk.com/stroymarket?from=site">VK</a>
			<a href='https://instagram.com/stroy.market/'>IG</a>
			<p>Find us (https://facebook.com/stroymarket).</p>`
		links := r.ExtractSocialMedia(markup)

		expected := map[model.Platform]string{
			model.PlatformVK:        "https://www.vk.com/stroymarket",
			model.PlatformInstagram: "https://instagram.com/stroy.market/",
			model.PlatformFacebook:  "https://facebook.com/stroymarket",
		}
		for p, want := range expected {
			if links[p] != want {
				t.Errorf("%s: expected %q, got %q", p, want, links[p])
			}
		}
	})

	t.Run("first alternative wins over document order", func(t *testing.T) {
		t.Parallel()

		markup := `<a href="https://telegram.me/early">old</a> <a href="https://t.me/late">new</a>`
		links := r.ExtractSocialMedia(markup)
		if links[model.PlatformTelegram] != "https://t.me/late" {
			t.Errorf("expected t.me link, got %q", links[model.PlatformTelegram])
		}
	})

	t.Run("first match in document order within an alternative", func(t *testing.T) {
		t.Parallel()

		markup := `https://youtube.com/@first https://youtube.com/@second`
		links := r.ExtractSocialMedia(markup)
		if links[model.PlatformYouTube] != "https://youtube.com/@first" {
			t.Errorf("expected first link, got %q", links[model.PlatformYouTube])
		}
	})

	t.Run("bare domain gets https prefix", func(t *testing.T) {
		t.Parallel()

		links := r.ExtractSocialMedia(`WhatsApp: wa.me/79991234567, OK: //ok.ru/group/123`)
		if links[model.PlatformWhatsApp] != "https://wa.me/79991234567" {
			t.Errorf("unexpected WhatsApp link %q", links[model.PlatformWhatsApp])
		}
		if links[model.PlatformOK] != "https://ok.ru/group/123" {
			t.Errorf("unexpected OK link %q", links[model.PlatformOK])
		}
	})

	t.Run("domain glued to a word is not a match", func(t *testing.T) {
		t.Parallel()

		links := r.ExtractSocialMedia(`<script src="/js/script.menu.js"></script> visit facebook.ru`)
		if links[model.PlatformTelegram] != "" || links[model.PlatformOK] != "" {
			t.Errorf("expected no matches, got %v", links)
		}
	})

	t.Run("share buttons are skipped", func(t *testing.T) {
		t.Parallel()

		markup := `<a href="https://vk.com/share.php?url=x">share</a> <a href="https://vk.com/club1">club</a>`
		links := r.ExtractSocialMedia(markup)
		if links[model.PlatformVK] != "https://vk.com/club1" {
			t.Errorf("expected profile link, got %q", links[model.PlatformVK])
		}
	})

	t.Run("share endpoints are skipped by path", func(t *testing.T) {
		t.Parallel()

		markup := `<a href="https://t.me/share/url?url=x">send</a> <a href="https://t.me/acme">chat</a>`
		links := r.ExtractSocialMedia(markup)
		if links[model.PlatformTelegram] != "https://t.me/acme" {
			t.Errorf("expected profile link, got %q", links[model.PlatformTelegram])
		}
	})

	t.Run("handles starting with share are profiles", func(t *testing.T) {
		t.Parallel()

		markup := `<a href="https://t.me/shareholders_club">chat</a> vk.com/share_market`
		links := r.ExtractSocialMedia(markup)
		if links[model.PlatformTelegram] != "https://t.me/shareholders_club" {
			t.Errorf("expected telegram profile, got %q", links[model.PlatformTelegram])
		}
		if links[model.PlatformVK] != "https://vk.com/share_market" {
			t.Errorf("expected vk profile, got %q", links[model.PlatformVK])
		}
	})
}

func TestCleanURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://vk.com/shop.", "https://vk.com/shop"},
		{"https://vk.com/shop);", "https://vk.com/shop"},
		{"https://vk.com/shop?utm=1", "https://vk.com/shop"},
		{"https://vk.com/shop.?utm=1", "https://vk.com/shop"},
		{"https://vk.com/club#wall", "https://vk.com/club"},
		{"https://vk.com/club?w=1#wall", "https://vk.com/club"},
		{"?only", "?only"},
	}
	for _, tt := range tests {
		if got := CleanURL(tt.in); got != tt.want {
			t.Errorf("CleanURL(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}
