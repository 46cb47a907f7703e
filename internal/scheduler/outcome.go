package scheduler

import (
	"fmt"
	"time"

	"clipqueue/internal/model"
)

// RejectReason classifies why a submission was turned away
type RejectReason string

const (
	// ReasonRateLimited means the owner exhausted the sliding window
	ReasonRateLimited RejectReason = "rate_limited"

	// ReasonUnsupportedPlatform means the URL matched no known platform
	ReasonUnsupportedPlatform RejectReason = "unsupported_platform"

	// ReasonQueueFull means the pending queue reached its capacity
	ReasonQueueFull RejectReason = "queue_full"
)

// Rejection is the typed outcome of a refused submission
type Rejection struct {
	Reason RejectReason

	// RetryAfter is set for rate-limit rejections: the time until the
	// oldest tracked request leaves the window.
	RetryAfter time.Duration
}

// Error implements the error interface
func (r *Rejection) Error() string {
	if r.Reason == ReasonRateLimited {
		return fmt.Sprintf("rate limit exceeded, retry in %s", r.RetryAfter.Round(time.Second))
	}
	return string(r.Reason)
}

// EnqueueResult reports a successful submission
type EnqueueResult struct {
	JobID         string
	Position      int // 1-based position in the queue
	EstimatedWait time.Duration
}

// QueueEntry is one row of a queue snapshot
type QueueEntry struct {
	JobID    string
	Owner    string
	Platform model.Platform
	Position int // 1-based
}
