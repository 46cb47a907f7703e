// Package model defines domain data structures used across the service:
// download jobs, extracted artifacts, platform tags, and the job state
// machine. Structures are designed for explicit state transitions and
// safe snapshotting for status queries.
package model
