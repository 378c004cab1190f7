package dto

import (
	"time"

	"github.com/nnote/nnote/internal/model"
)

// CreateNoteRequest represents the request body for creating a note.
type CreateNoteRequest struct {
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	IsPublic    bool    `json:"isPublic"`
	IsAnonymous bool    `json:"isAnonymous"`
	ImageURL    *string `json:"imageUrl"`
}

// UpdateNoteRequest represents the request body for updating a note.
// Absent fields are left unchanged.
type UpdateNoteRequest struct {
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	IsPublic    *bool   `json:"isPublic"`
	IsAnonymous *bool   `json:"isAnonymous"`
	ImageURL    *string `json:"imageUrl"`
}

// AuthorResponse is the public projection of a note's author.
type AuthorResponse struct {
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}

// NoteResponse is a note as seen by its owner.
type NoteResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	Slug        string          `json:"slug"`
	IsPublic    bool            `json:"isPublic"`
	IsAnonymous bool            `json:"isAnonymous"`
	ImageURL    *string         `json:"imageUrl"`
	AuthorID    string          `json:"authorId"`
	Author      *AuthorResponse `json:"author"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// PublicNoteResponse is a note as seen through the public endpoints.
// It never carries the owner id; Author is null for anonymous notes.
type PublicNoteResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	Slug        string          `json:"slug"`
	IsPublic    bool            `json:"isPublic"`
	IsAnonymous bool            `json:"isAnonymous"`
	ImageURL    *string         `json:"imageUrl"`
	Author      *AuthorResponse `json:"author"`
	IsOwner     bool            `json:"isOwner"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NoteEnvelope wraps a single owner note.
type NoteEnvelope struct {
	Note NoteResponse `json:"note"`
}

// NoteListResponse wraps the caller's notes.
type NoteListResponse struct {
	Notes []NoteResponse `json:"notes"`
}

// PublicNoteEnvelope wraps a single public note.
type PublicNoteEnvelope struct {
	Note PublicNoteResponse `json:"note"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// PublicNoteListResponse is one page of public notes.
type PublicNoteListResponse struct {
	Notes      []PublicNoteResponse `json:"notes"`
	Pagination Pagination           `json:"pagination"`
}

// ImageUploadResponse is returned after a successful image upload.
type ImageUploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

func toAuthorResponse(author *model.Author) *AuthorResponse {
	if author == nil {
		return nil
	}
	return &AuthorResponse{Name: author.Name, Avatar: author.AvatarURL}
}

// ToNoteResponse converts a note for its owner.
func ToNoteResponse(note *model.Note) NoteResponse {
	return NoteResponse{
		ID:          note.ID,
		Title:       note.Title,
		Content:     note.Content,
		Slug:        note.Slug,
		IsPublic:    note.IsPublic,
		IsAnonymous: note.IsAnonymous,
		ImageURL:    note.ImageURL,
		AuthorID:    note.AuthorID,
		Author:      toAuthorResponse(note.Author),
		CreatedAt:   note.CreatedAt,
		UpdatedAt:   note.UpdatedAt,
	}
}

// ToNoteListResponse converts the caller's notes.
func ToNoteListResponse(notes []*model.Note) NoteListResponse {
	out := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, ToNoteResponse(n))
	}
	return NoteListResponse{Notes: out}
}

// ToPublicNoteResponse converts a public note for viewerID, which is empty
// for anonymous callers. Author masking applies to every viewer.
func ToPublicNoteResponse(note *model.Note, viewerID string) PublicNoteResponse {
	return PublicNoteResponse{
		ID:          note.ID,
		Title:       note.Title,
		Content:     note.Content,
		Slug:        note.Slug,
		IsPublic:    note.IsPublic,
		IsAnonymous: note.IsAnonymous,
		ImageURL:    note.ImageURL,
		Author:      toAuthorResponse(note.PublicAuthor()),
		IsOwner:     note.IsOwnedBy(viewerID),
		CreatedAt:   note.CreatedAt,
		UpdatedAt:   note.UpdatedAt,
	}
}

// ToPublicNoteListResponse converts one page of public notes.
func ToPublicNoteListResponse(notes []*model.Note, viewerID string, p Pagination) PublicNoteListResponse {
	out := make([]PublicNoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, ToPublicNoteResponse(n, viewerID))
	}
	return PublicNoteListResponse{Notes: out, Pagination: p}
}
