package handler

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/nnote/nnote/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "nnote_public_note_cache_hits_total %d\n", snap.PublicNoteCacheHits)
	writeMetric(w, "nnote_public_note_cache_misses_total %d\n", snap.PublicNoteCacheMisses)
	writeMetric(w, "nnote_public_note_lookup_seconds_count %d\n", snap.PublicNoteLookupCount)
	writeMetric(w, "nnote_public_note_lookup_seconds_sum %.6f\n", float64(snap.PublicNoteLookupTotalNs)/1e9)

	writeMetric(w, "nnote_notes_created_total %d\n", snap.NotesCreated)
	writeMetric(w, "nnote_notes_updated_total %d\n", snap.NotesUpdated)
	writeMetric(w, "nnote_notes_deleted_total %d\n", snap.NotesDeleted)

	writeMetric(w, "nnote_rate_limited_total %d\n", snap.RateLimited)

	for _, key := range sortedKeys(snap.Logins) {
		method, status, _ := strings.Cut(key, ":")
		writeMetric(w, "nnote_logins_total{method=%q,status=%q} %d\n", method, status, snap.Logins[key])
	}
	for _, status := range sortedKeys(snap.ImageUploads) {
		writeMetric(w, "nnote_image_uploads_total{status=%q} %d\n", status, snap.ImageUploads[status])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
