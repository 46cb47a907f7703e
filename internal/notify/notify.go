// Package notify defines the structured events the queue engine emits
// toward the messaging front-end, and the bounded relay that decouples
// workers from a slow notifier. The engine never formats chat messages;
// it hands over typed events and artifact references.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"clipqueue/internal/model"
)

// EventType enumerates the lifecycle events visible to the owner
type EventType string

const (
	EventQueued        EventType = "queued"
	EventStarted       EventType = "started"
	EventProgress      EventType = "progress"
	EventUploadStarted EventType = "upload_started"
	EventSucceeded     EventType = "succeeded"
	EventFailed        EventType = "failed"
)

// Event is one structured progress/result notification
type Event struct {
	Type  EventType
	JobID string

	// Queued fields
	Position      int
	EstimatedWait time.Duration

	// Progress fields
	Percent int
	Rate    string

	// Succeeded metadata
	Artifact *model.Artifact

	// Failed: the single human-readable reason for the owner
	Reason string
}

// Notifier is the external collaborator delivering messages and media
type Notifier interface {
	// Notify sends a lifecycle event to the owner. Best effort.
	Notify(owner string, event Event)

	// Deliver hands the artifact over for delivery. The caller deletes
	// the file after Deliver returns, regardless of outcome.
	Deliver(ctx context.Context, owner string, artifact model.Artifact) error
}

// LogNotifier is the default Notifier used when no front-end is wired;
// it writes events to the structured log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the event
func (n *LogNotifier) Notify(owner string, event Event) {
	fields := []zap.Field{
		zap.String("owner", owner),
		zap.String("job_id", event.JobID),
	}
	switch event.Type {
	case EventQueued:
		fields = append(fields,
			zap.Int("position", event.Position),
			zap.Duration("estimated_wait", event.EstimatedWait),
		)
	case EventProgress:
		fields = append(fields, zap.Int("percent", event.Percent), zap.String("rate", event.Rate))
	case EventFailed:
		fields = append(fields, zap.String("reason", event.Reason))
	case EventSucceeded:
		if event.Artifact != nil {
			fields = append(fields,
				zap.String("title", event.Artifact.Title),
				zap.Int64("size_bytes", event.Artifact.SizeBytes),
			)
		}
	}
	n.logger.Info("job event: "+string(event.Type), fields...)
}

// Deliver logs the handoff and reports success
func (n *LogNotifier) Deliver(_ context.Context, owner string, artifact model.Artifact) error {
	n.logger.Info("artifact ready for delivery",
		zap.String("owner", owner),
		zap.String("path", artifact.Path),
		zap.Int64("size_bytes", artifact.SizeBytes),
	)
	return nil
}
