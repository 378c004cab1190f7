package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nnote/nnote/internal/auth"
	"github.com/nnote/nnote/internal/handler/dto"
	"github.com/nnote/nnote/internal/middleware"
	"github.com/nnote/nnote/internal/service"
)

// multipartOverhead is the room left for multipart framing around an image.
const multipartOverhead = 1 << 20

// NoteHandler handles HTTP requests for the caller's own notes.
type NoteHandler struct {
	notes  *service.NoteService
	images *service.ImageService
	logger *slog.Logger
}

// NewNoteHandler creates a new NoteHandler. images may be nil when no
// blob storage is configured.
func NewNoteHandler(notes *service.NoteService, images *service.ImageService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{
		notes:  notes,
		images: images,
		logger: logger,
	}
}

// List handles GET /api/notes.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	notes, err := h.notes.ListOwn(r.Context(), authCtx.UserID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToNoteListResponse(notes))
}

// Create handles POST /api/notes.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	var req dto.CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	note, err := h.notes.Create(r.Context(), authCtx.UserID, service.CreateNoteInput{
		Title:       req.Title,
		Content:     req.Content,
		IsPublic:    req.IsPublic,
		IsAnonymous: req.IsAnonymous,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("note_created",
		"note_id", note.ID,
		"user_id", authCtx.UserID,
		"slug", note.Slug,
		"visibility", string(note.Visibility()),
	)

	writeJSON(w, http.StatusCreated, dto.NoteEnvelope{Note: dto.ToNoteResponse(note)})
}

// Get handles GET /api/notes/{id}.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	id, ok := noteID(w, r)
	if !ok {
		return
	}

	note, err := h.notes.Get(r.Context(), authCtx.UserID, id)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NoteEnvelope{Note: dto.ToNoteResponse(note)})
}

// Update handles PUT /api/notes/{id}.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	id, ok := noteID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	note, err := h.notes.Update(r.Context(), authCtx.UserID, id, service.UpdateNoteInput{
		Title:       req.Title,
		Content:     req.Content,
		IsPublic:    req.IsPublic,
		IsAnonymous: req.IsAnonymous,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("note_updated",
		"note_id", note.ID,
		"user_id", authCtx.UserID,
		"visibility", string(note.Visibility()),
	)

	writeJSON(w, http.StatusOK, dto.NoteEnvelope{Note: dto.ToNoteResponse(note)})
}

// Delete handles DELETE /api/notes/{id}.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	id, ok := noteID(w, r)
	if !ok {
		return
	}

	if err := h.notes.Delete(r.Context(), authCtx.UserID, id); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("note_deleted",
		"note_id", id,
		"user_id", authCtx.UserID,
	)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Note deleted successfully"})
}

// UploadImage handles POST /api/notes/upload-image with the file in the
// multipart field "image".
func (h *NoteHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.MustAuthFromContext(r.Context())

	if h.images == nil {
		writeError(w, http.StatusServiceUnavailable, "UPLOAD_DISABLED", "Image upload is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxImageSize+multipartOverhead)

	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge, "Image exceeds the 5MB limit")
		default:
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "No image file provided")
		}
		return
	}
	defer file.Close()

	// One byte past the limit is enough for the service to reject it.
	data, err := io.ReadAll(io.LimitReader(file, service.MaxImageSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Failed to read image")
		return
	}

	url, err := h.images.Upload(r.Context(), data, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("image_uploaded",
		"user_id", authCtx.UserID,
		"bytes", len(data),
	)

	writeJSON(w, http.StatusOK, dto.ImageUploadResponse{ImageURL: url})
}

// noteID reads and validates the {id} URL parameter. A malformed id cannot
// name a note, so it is answered as not found.
func noteID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateNoteID(id); err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, "Note not found")
		return "", false
	}
	return id, true
}
