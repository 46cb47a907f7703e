package model

// Platform identifies the site a submitted URL belongs to
type Platform string

const (
	PlatformTikTok    Platform = "TikTok"
	PlatformInstagram Platform = "Instagram"
	PlatformTwitter   Platform = "Twitter/X"
	PlatformFacebook  Platform = "Facebook"
	PlatformUnknown   Platform = "Unknown"
)

// String returns the string representation of Platform
func (p Platform) String() string {
	return string(p)
}

// Supported returns true if the platform can be handed to the extractor
func (p Platform) Supported() bool {
	return p != PlatformUnknown && p != ""
}
