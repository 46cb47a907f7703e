package extract

import (
	"testing"

	"github.com/lrstanley/go-ytdlp"

	"clipqueue/internal/model"
)

func TestArtifactPrivate(t *testing.T) {
	private := ytdlp.ExtractedAvailabilityPrivate
	public := ytdlp.ExtractedAvailability("public")

	tests := []struct {
		name         string
		availability *ytdlp.ExtractedAvailability
		usedCookies  bool
		want         bool
	}{
		{"PrivateAvailability", &private, false, true},
		{"PrivateAvailabilityWithCookies", &private, true, true},
		{"PublicAvailability", &public, false, false},
		{"PublicOverridesCookieSignal", &public, true, false},
		{"NoAvailabilityWithCookies", nil, true, true},
		{"NoAvailabilityNoCookies", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := artifactPrivate(tt.availability, tt.usedCookies); got != tt.want {
				t.Errorf("artifactPrivate() = %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		name     string
		platform model.Platform
		want     string
	}{
		{"Instagram", model.PlatformInstagram, "mp4/best[height<=1080]/best"},
		{"TikTok", model.PlatformTikTok, "mp4/best[height<=1080]/best"},
		{"Twitter", model.PlatformTwitter, "mp4/best[height<=720]/best"},
		{"Facebook", model.PlatformFacebook, "mp4/best[height<=720]/best"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatFor(tt.platform); got != tt.want {
				t.Errorf("formatFor(%s) = %s, expected %s", tt.platform, got, tt.want)
			}
		})
	}
}
