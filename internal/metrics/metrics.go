// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Login outcomes.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Public note lookup metrics
	IncPublicNoteCacheHit()
	IncPublicNoteCacheMiss()
	ObservePublicNoteLookup(duration time.Duration)

	// Note management metrics
	IncNoteCreated()
	IncNoteUpdated()
	IncNoteDeleted()

	// Auth and upload metrics
	IncLogin(method, status string) // method: "google", "google_code", "mock"
	IncImageUpload(status string)
	IncRateLimited()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
