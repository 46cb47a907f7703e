package model

import "testing"

func TestJobState_IsActive(t *testing.T) {
	tests := []struct {
		state    JobState
		expected bool
	}{
		{StateQueued, false},
		{StateRunning, true},
		{StateRetrying, true},
		{StateSucceeded, false},
		{StateFailed, false},
	}

	for _, test := range tests {
		result := test.state.IsActive()
		if result != test.expected {
			t.Errorf("JobState(%s).IsActive() = %v, expected %v", test.state, result, test.expected)
		}
	}
}

func TestJobState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    JobState
		expected bool
	}{
		{StateQueued, false},
		{StateRunning, false},
		{StateRetrying, false},
		{StateSucceeded, true},
		{StateFailed, true},
	}

	for _, test := range tests {
		result := test.state.IsTerminal()
		if result != test.expected {
			t.Errorf("JobState(%s).IsTerminal() = %v, expected %v", test.state, result, test.expected)
		}
	}
}

func TestPlatform_Supported(t *testing.T) {
	tests := []struct {
		platform Platform
		expected bool
	}{
		{PlatformTikTok, true},
		{PlatformInstagram, true},
		{PlatformTwitter, true},
		{PlatformFacebook, true},
		{PlatformUnknown, false},
		{Platform(""), false},
	}

	for _, test := range tests {
		result := test.platform.Supported()
		if result != test.expected {
			t.Errorf("Platform(%s).Supported() = %v, expected %v", test.platform, result, test.expected)
		}
	}
}

func TestJob_Clone(t *testing.T) {
	job := &Job{
		ID:       "job-1",
		Owner:    "user-1",
		URL:      "https://tiktok.com/@a/video/1",
		Platform: PlatformTikTok,
		State:    StateSucceeded,
		Artifact: &Artifact{Path: "/tmp/v.mp4", SizeBytes: 1024},
	}

	clone := job.Clone()
	clone.Artifact.Path = "/tmp/other.mp4"

	if job.Artifact.Path != "/tmp/v.mp4" {
		t.Errorf("Clone should not share artifact with original, got path %s", job.Artifact.Path)
	}
}

func TestJob_DisplayTitle(t *testing.T) {
	job := &Job{URL: "https://tiktok.com/@a/video/1"}
	if job.DisplayTitle() != job.URL {
		t.Errorf("Expected URL fallback, got %s", job.DisplayTitle())
	}

	job.Artifact = &Artifact{Title: "My clip"}
	if job.DisplayTitle() != "My clip" {
		t.Errorf("Expected artifact title, got %s", job.DisplayTitle())
	}
}
