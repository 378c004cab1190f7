package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	PublicNoteCacheHits     uint64
	PublicNoteCacheMisses   uint64
	PublicNoteLookupCount   uint64
	PublicNoteLookupTotalNs int64
	NotesCreated            uint64
	NotesUpdated            uint64
	NotesDeleted            uint64
	RateLimited             uint64
	// Logins is keyed by "method:status".
	Logins map[string]uint64
	// ImageUploads is keyed by status.
	ImageUploads map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	publicNoteCacheHits     uint64
	publicNoteCacheMisses   uint64
	publicNoteLookupCount   uint64
	publicNoteLookupTotalNs int64
	notesCreated            uint64
	notesUpdated            uint64
	notesDeleted            uint64
	rateLimited             uint64

	mu           sync.Mutex
	logins       map[string]uint64
	imageUploads map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		logins:       make(map[string]uint64),
		imageUploads: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	logins := make(map[string]uint64, len(m.logins))
	for k, v := range m.logins {
		logins[k] = v
	}
	uploads := make(map[string]uint64, len(m.imageUploads))
	for k, v := range m.imageUploads {
		uploads[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		PublicNoteCacheHits:     atomic.LoadUint64(&m.publicNoteCacheHits),
		PublicNoteCacheMisses:   atomic.LoadUint64(&m.publicNoteCacheMisses),
		PublicNoteLookupCount:   atomic.LoadUint64(&m.publicNoteLookupCount),
		PublicNoteLookupTotalNs: atomic.LoadInt64(&m.publicNoteLookupTotalNs),
		NotesCreated:            atomic.LoadUint64(&m.notesCreated),
		NotesUpdated:            atomic.LoadUint64(&m.notesUpdated),
		NotesDeleted:            atomic.LoadUint64(&m.notesDeleted),
		RateLimited:             atomic.LoadUint64(&m.rateLimited),
		Logins:                  logins,
		ImageUploads:            uploads,
	}
}

// IncPublicNoteCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncPublicNoteCacheHit() {
	atomic.AddUint64(&m.publicNoteCacheHits, 1)
}

// IncPublicNoteCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncPublicNoteCacheMiss() {
	atomic.AddUint64(&m.publicNoteCacheMisses, 1)
}

// ObservePublicNoteLookup records public note lookup duration.
func (m *InMemoryRecorder) ObservePublicNoteLookup(duration time.Duration) {
	atomic.AddUint64(&m.publicNoteLookupCount, 1)
	atomic.AddInt64(&m.publicNoteLookupTotalNs, duration.Nanoseconds())
}

// IncNoteCreated increments note created counter.
func (m *InMemoryRecorder) IncNoteCreated() {
	atomic.AddUint64(&m.notesCreated, 1)
}

// IncNoteUpdated increments note updated counter.
func (m *InMemoryRecorder) IncNoteUpdated() {
	atomic.AddUint64(&m.notesUpdated, 1)
}

// IncNoteDeleted increments note deleted counter.
func (m *InMemoryRecorder) IncNoteDeleted() {
	atomic.AddUint64(&m.notesDeleted, 1)
}

// IncRateLimited increments the rejected request counter.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

// IncLogin counts a login attempt by method and outcome.
func (m *InMemoryRecorder) IncLogin(method, status string) {
	m.mu.Lock()
	m.logins[method+":"+status]++
	m.mu.Unlock()
}

// IncImageUpload counts an image upload by outcome.
func (m *InMemoryRecorder) IncImageUpload(status string) {
	m.mu.Lock()
	m.imageUploads[status]++
	m.mu.Unlock()
}
