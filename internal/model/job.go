package model

import (
	"fmt"
	"time"
)

// Job represents a single requested download and its lifecycle record.
// The scheduler owns a Job exclusively until it reaches a terminal state;
// everyone else reads copies taken via Clone.
type Job struct {
	ID         string
	Owner      string
	URL        string // original submitted link, immutable
	Platform   Platform
	State      JobState
	Attempts   int // extraction attempts made so far
	Progress   Progress
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time

	// Artifact is set on success, before handoff to the notifier.
	Artifact *Artifact

	// FailureKind and FailureReason are set on terminal failure.
	// FailureReason is the single human-readable message for the owner.
	FailureKind   string
	FailureReason string
}

// Failure kinds recorded on terminal Failed jobs
const (
	FailureUnsupported = "unsupported_platform"
	FailureTransient   = "transient_extraction"
	FailurePermanent   = "permanent_extraction"
	FailureLimit       = "limit_violation"
	FailureDelivery    = "delivery"
	FailureCancelled   = "cancelled"
)

// Artifact describes a downloaded media file
type Artifact struct {
	Path            string
	SizeBytes       int64
	DurationSeconds int
	Title           string
	AuthorHandle    string
	Private         bool // content required enhanced (cookie) access
}

// Progress is a last-known display snapshot; it is not authoritative
type Progress struct {
	Percent int
	Rate    string // human readable speed (e.g., "1.2MB/s")
}

// Clone returns a copy safe to hand outside the scheduler
func (j *Job) Clone() Job {
	c := *j
	if j.Artifact != nil {
		a := *j.Artifact
		c.Artifact = &a
	}
	return c
}

// DisplayTitle returns the artifact title or the URL as a fallback
func (j *Job) DisplayTitle() string {
	if j.Artifact != nil && j.Artifact.Title != "" {
		return j.Artifact.Title
	}
	return j.URL
}

// Elapsed returns the wall-clock duration of a finished job
func (j *Job) Elapsed() time.Duration {
	if j.StartedAt.IsZero() || j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

// SizeHuman returns the artifact size formatted in MB
func (a *Artifact) SizeHuman() string {
	return fmt.Sprintf("%.1fMB", float64(a.SizeBytes)/(1024*1024))
}
