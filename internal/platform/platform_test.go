package platform

import (
	"testing"

	"clipqueue/internal/model"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		url      string
		expected model.Platform
	}{
		{"https://www.tiktok.com/@user/video/123", model.PlatformTikTok},
		{"https://vm.tiktok.com/ZMabcdef/", model.PlatformTikTok},
		{"https://instagram.com/reel/abc/", model.PlatformInstagram},
		{"https://www.instagram.com/p/xyz/", model.PlatformInstagram},
		{"https://twitter.com/user/status/123", model.PlatformTwitter},
		{"https://x.com/user/status/123", model.PlatformTwitter},
		{"https://www.facebook.com/watch?v=123", model.PlatformFacebook},
		{"https://fb.watch/abcdef/", model.PlatformFacebook},
		{"https://youtube.com/watch?v=123", model.PlatformUnknown},
		{"https://example.com/video", model.PlatformUnknown},
		{"ftp://tiktok.com/video", model.PlatformUnknown},
		{"not a url", model.PlatformUnknown},
		{"", model.PlatformUnknown},
	}

	for _, test := range tests {
		result := Detect(test.url)
		if result != test.expected {
			t.Errorf("Detect(%q) = %s, expected %s", test.url, result, test.expected)
		}
	}
}

func TestDetect_NoSubstringFalsePositives(t *testing.T) {
	// Host matching must not be fooled by platform names elsewhere in the URL.
	tests := []string{
		"https://example.com/tiktok.com/video",
		"https://nottiktok.com/video/1",
		"https://evil.com/?next=instagram.com",
	}

	for _, u := range tests {
		if got := Detect(u); got != model.PlatformUnknown {
			t.Errorf("Detect(%q) = %s, expected Unknown", u, got)
		}
	}
}

func TestSupported(t *testing.T) {
	supported := Supported()
	if len(supported) != 4 {
		t.Fatalf("Expected 4 supported platforms, got %d", len(supported))
	}
	if supported[0] != model.PlatformTikTok {
		t.Errorf("Expected TikTok first, got %s", supported[0])
	}
}
