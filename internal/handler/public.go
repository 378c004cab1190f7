package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nnote/nnote/internal/auth"
	"github.com/nnote/nnote/internal/handler/dto"
	"github.com/nnote/nnote/internal/middleware"
	"github.com/nnote/nnote/internal/service"
)

// PublicHandler serves published notes to any caller.
// Routes using it run behind optional auth.
type PublicHandler struct {
	notes  *service.NoteService
	logger *slog.Logger
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(notes *service.NoteService, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{
		notes:  notes,
		logger: logger,
	}
}

// List handles GET /api/public/notes?page=&limit=.
// Unparseable values fall back to the defaults.
func (h *PublicHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	result, err := h.notes.ListPublic(r.Context(), page, limit)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	viewerID := auth.UserIDFromContext(r.Context())
	writeJSON(w, http.StatusOK, dto.ToPublicNoteListResponse(result.Notes, viewerID, dto.Pagination{
		Page:       result.Page,
		Limit:      result.Limit,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	}))
}

// Get handles GET /api/public/notes/{slug}.
func (h *PublicHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := middleware.ValidateSlug(slug); err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, "Note not found")
		return
	}

	note, err := h.notes.GetPublic(r.Context(), slug)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	viewerID := auth.UserIDFromContext(r.Context())
	writeJSON(w, http.StatusOK, dto.PublicNoteEnvelope{Note: dto.ToPublicNoteResponse(note, viewerID)})
}
