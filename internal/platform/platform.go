package platform

import (
	"net/url"
	"strings"

	"clipqueue/internal/model"
)

// matcher binds a platform tag to the host suffixes that identify it
type matcher struct {
	platform model.Platform
	hosts    []string
}

// matchers are evaluated in order; first hit wins
var matchers = []matcher{
	{model.PlatformTikTok, []string{"tiktok.com"}},
	{model.PlatformInstagram, []string{"instagram.com"}},
	{model.PlatformTwitter, []string{"twitter.com", "x.com"}},
	{model.PlatformFacebook, []string{"facebook.com", "fb.watch"}},
}

// Detect returns the platform a URL belongs to, or Unknown
func Detect(rawURL string) model.Platform {
	host := hostOf(rawURL)
	if host == "" {
		return model.PlatformUnknown
	}

	for _, m := range matchers {
		for _, h := range m.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return m.platform
			}
		}
	}
	return model.PlatformUnknown
}

// Supported lists the platforms a user can submit, in matcher order
func Supported() []model.Platform {
	out := make([]model.Platform, 0, len(matchers))
	for _, m := range matchers {
		out = append(out, m.platform)
	}
	return out
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
