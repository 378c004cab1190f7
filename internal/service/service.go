// Package service provides business logic for the application.
package service

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nnote/nnote/internal/model"
	"github.com/nnote/nnote/internal/repository"
)

// UserStore persists users. Implemented by repository.Repository and memstore.Store.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, user *model.User) error
}

// NoteStore persists notes. Implemented by repository.Repository and memstore.Store.
type NoteStore interface {
	GetNoteByID(ctx context.Context, id string) (*model.Note, error)
	GetNoteBySlug(ctx context.Context, slug string) (*model.Note, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListNotes(ctx context.Context, q repository.NoteQuery) ([]*model.Note, error)
	CountNotes(ctx context.Context, q repository.NoteQuery) (int, error)
	CreateNote(ctx context.Context, note *model.Note) error
	UpdateNote(ctx context.Context, note *model.Note) error
	DeleteNote(ctx context.Context, id string) error
}

// PublicNoteCache caches public slug reads. Implemented by cache.Cache.
// Writes carry the slug generation read before the store lookup and are
// dropped when DeletePublicNote ran in between.
type PublicNoteCache interface {
	GetPublicNote(ctx context.Context, slug string) (*model.Note, error)
	PublicNoteGeneration(ctx context.Context, slug string) (int64, error)
	SetPublicNote(ctx context.Context, note *model.Note, ttl time.Duration, gen int64) error
	DeletePublicNote(ctx context.Context, slug string) error
	IsNegativelyCached(ctx context.Context, slug string) (bool, error)
	SetNegativeCache(ctx context.Context, slug string, gen int64) error
}

// ImageStore uploads image bytes and returns a public URL.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, contentType, ext string) (string, error)
}

// IDTokenVerifier validates an external identity assertion.
type IDTokenVerifier interface {
	Verify(ctx context.Context, raw string) (*model.Identity, error)
}

// CodeExchanger trades an OAuth authorization code for an ID token.
type CodeExchanger interface {
	Exchange(ctx context.Context, code string) (string, error)
}

// TokenIssuer issues session tokens.
type TokenIssuer interface {
	Issue(user *model.User) (string, error)
}

// newID returns a fresh, time-ordered identifier.
func newID() string {
	return ulid.Make().String()
}
