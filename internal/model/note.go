package model

import "time"

// NoteVisibility is the externally observable state of a note.
type NoteVisibility string

const (
	VisibilityPrivate   NoteVisibility = "private"
	VisibilityPublic    NoteVisibility = "public"
	VisibilityAnonymous NoteVisibility = "anonymous"
)

// Author is the public-facing projection of a note owner.
type Author struct {
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// Note represents a user's note.
type Note struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Slug        string    `json:"slug"`
	IsPublic    bool      `json:"is_public"`
	IsAnonymous bool      `json:"is_anonymous"`
	ImageURL    *string   `json:"image_url,omitempty"`
	AuthorID    string    `json:"author_id"`
	Author      *Author   `json:"author,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Visibility computes the observable state from the two flags.
// Anonymity has no effect on a private note.
func (n *Note) Visibility() NoteVisibility {
	if !n.IsPublic {
		return VisibilityPrivate
	}
	if n.IsAnonymous {
		return VisibilityAnonymous
	}
	return VisibilityPublic
}

// IsOwnedBy reports whether userID owns the note.
func (n *Note) IsOwnedBy(userID string) bool {
	return userID != "" && n.AuthorID == userID
}

// PublicAuthor returns the author as shown to other viewers:
// nil when the note is published anonymously.
func (n *Note) PublicAuthor() *Author {
	if n.Visibility() == VisibilityAnonymous {
		return nil
	}
	return n.Author
}
