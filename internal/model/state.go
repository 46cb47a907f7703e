package model

// JobState represents the lifecycle state of a download job
type JobState string

const (
	// StateQueued means the job is admitted and waiting in the FIFO queue
	StateQueued JobState = "Queued"

	// StateRunning means a worker slot is driving the extraction
	StateRunning JobState = "Running"

	// StateRetrying means the last attempt failed with a retryable error
	// and the job is about to run again with an alternate strategy
	StateRetrying JobState = "Retrying"

	// StateSucceeded means the artifact was produced and handed off
	StateSucceeded JobState = "Succeeded"

	// StateFailed means the job ended without a delivered artifact
	StateFailed JobState = "Failed"
)

// String returns the string representation of JobState
func (s JobState) String() string {
	return string(s)
}

// IsActive returns true if the job currently holds a worker slot
func (s JobState) IsActive() bool {
	return s == StateRunning || s == StateRetrying
}

// IsTerminal returns true if the job reached an immutable final state
func (s JobState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}
