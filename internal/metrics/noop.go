package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncPublicNoteCacheHit is a no-op.
func (n *NoopRecorder) IncPublicNoteCacheHit() {}

// IncPublicNoteCacheMiss is a no-op.
func (n *NoopRecorder) IncPublicNoteCacheMiss() {}

// ObservePublicNoteLookup is a no-op.
func (n *NoopRecorder) ObservePublicNoteLookup(duration time.Duration) {}

// IncNoteCreated is a no-op.
func (n *NoopRecorder) IncNoteCreated() {}

// IncNoteUpdated is a no-op.
func (n *NoopRecorder) IncNoteUpdated() {}

// IncNoteDeleted is a no-op.
func (n *NoopRecorder) IncNoteDeleted() {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(method, status string) {}

// IncImageUpload is a no-op.
func (n *NoopRecorder) IncImageUpload(status string) {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited() {}
