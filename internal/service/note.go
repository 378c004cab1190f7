package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/nnote/nnote/internal/apperr"
	"github.com/nnote/nnote/internal/cache"
	"github.com/nnote/nnote/internal/metrics"
	"github.com/nnote/nnote/internal/model"
	"github.com/nnote/nnote/internal/repository"
)

// Public listing paging bounds.
const (
	DefaultPublicPageSize = 10
	MaxPublicPageSize     = 100
)

// NoteService enforces note ownership and visibility rules.
type NoteService struct {
	notes    NoteStore
	cache    PublicNoteCache
	cacheTTL time.Duration
	metrics  metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewNoteService creates a new NoteService. cache may be nil, in which
// case public reads always go to the store.
func NewNoteService(notes NoteStore, noteCache PublicNoteCache, cacheTTL time.Duration, recorder metrics.Recorder, logger *slog.Logger) *NoteService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteService{
		notes:    notes,
		cache:    noteCache,
		cacheTTL: cacheTTL,
		metrics:  recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateNoteInput defines input for creating a note.
type CreateNoteInput struct {
	Title       string
	Content     string
	IsPublic    bool
	IsAnonymous bool
	ImageURL    *string
}

// UpdateNoteInput defines input for updating a note. Nil fields are left
// unchanged; an empty ImageURL removes the image.
type UpdateNoteInput struct {
	Title       *string
	Content     *string
	IsPublic    *bool
	IsAnonymous *bool
	ImageURL    *string
}

// PublicPage is one page of the public listing.
type PublicPage struct {
	Notes      []*model.Note
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// ListOwn returns every note owned by userID, most recently updated first.
func (s *NoteService) ListOwn(ctx context.Context, userID string) ([]*model.Note, error) {
	notes, err := s.notes.ListNotes(ctx, repository.NoteQuery{
		AuthorID: userID,
		Order:    repository.OrderUpdatedDesc,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, "Failed to fetch notes", err)
	}
	return notes, nil
}

// Get returns a note by id. Only its owner may read it, whatever its visibility.
func (s *NoteService) Get(ctx context.Context, userID, id string) (*model.Note, error) {
	return s.owned(ctx, userID, id)
}

// Create stores a new note owned by userID under a fresh unique slug.
func (s *NoteService) Create(ctx context.Context, userID string, input CreateNoteInput) (*model.Note, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Content) == "" {
		return nil, apperr.New(apperr.ErrValidation, "Title and content are required")
	}

	now := s.now().UTC()
	note := &model.Note{
		ID:          newID(),
		Title:       input.Title,
		Content:     input.Content,
		IsPublic:    input.IsPublic,
		IsAnonymous: input.IsAnonymous,
		ImageURL:    nonEmpty(input.ImageURL),
		AuthorID:    userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	base := Slugify(input.Title)
	var err error
	// A concurrent create can take the probed slug before our insert
	// commits; probe again once before surfacing the conflict.
	for attempt := 0; attempt < 2; attempt++ {
		note.Slug, err = uniqueSlug(ctx, s.notes, base)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrInternal, "Failed to generate slug", err)
		}

		err = s.notes.CreateNote(ctx, note)
		if !errors.Is(err, repository.ErrSlugExists) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, repository.ErrSlugExists) {
			return nil, apperr.Wrap(apperr.ErrConflict, "A note with this slug already exists", err)
		}
		return nil, apperr.Wrap(apperr.ErrInternal, "Failed to create note", err)
	}

	s.metrics.IncNoteCreated()
	s.evict(ctx, note.Slug)

	created, err := s.notes.GetNoteByID(ctx, note.ID)
	if err != nil {
		// The write succeeded; return it without the author projection.
		return note, nil
	}
	return created, nil
}

// Update changes the mutable fields of a note owned by userID.
// The slug never changes. Concurrent updates are last-write-wins.
func (s *NoteService) Update(ctx context.Context, userID, id string, input UpdateNoteInput) (*model.Note, error) {
	note, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperr.New(apperr.ErrValidation, "Title cannot be empty")
		}
		note.Title = *input.Title
	}
	if input.Content != nil {
		if strings.TrimSpace(*input.Content) == "" {
			return nil, apperr.New(apperr.ErrValidation, "Content cannot be empty")
		}
		note.Content = *input.Content
	}
	if input.IsPublic != nil {
		note.IsPublic = *input.IsPublic
	}
	if input.IsAnonymous != nil {
		note.IsAnonymous = *input.IsAnonymous
	}
	if input.ImageURL != nil {
		note.ImageURL = nonEmpty(input.ImageURL)
	}
	note.UpdatedAt = s.now().UTC()

	if err := s.notes.UpdateNote(ctx, note); err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "Note not found")
		}
		return nil, apperr.Wrap(apperr.ErrInternal, "Failed to update note", err)
	}

	s.metrics.IncNoteUpdated()
	s.evict(ctx, note.Slug)

	return note, nil
}

// Delete removes a note owned by userID.
func (s *NoteService) Delete(ctx context.Context, userID, id string) error {
	note, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.notes.DeleteNote(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return apperr.New(apperr.ErrNotFound, "Note not found")
		}
		return apperr.Wrap(apperr.ErrInternal, "Failed to delete note", err)
	}

	s.metrics.IncNoteDeleted()
	s.evict(ctx, note.Slug)

	return nil
}

// ListPublic returns one page of public notes, newest first.
// page defaults to 1 and limit to DefaultPublicPageSize, capped at MaxPublicPageSize.
func (s *NoteService) ListPublic(ctx context.Context, page, limit int) (*PublicPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPublicPageSize
	}
	if limit > MaxPublicPageSize {
		limit = MaxPublicPageSize
	}

	query := repository.NoteQuery{
		PublicOnly: true,
		Order:      repository.OrderCreatedDesc,
		Limit:      limit,
	}

	// A page whose offset does not fit an int lies past any stored note.
	notes := []*model.Note{}
	if page-1 <= math.MaxInt/limit {
		query.Offset = (page - 1) * limit

		var err error
		notes, err = s.notes.ListNotes(ctx, query)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrInternal, "Failed to fetch public notes", err)
		}
	}
	total, err := s.notes.CountNotes(ctx, query)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, "Failed to count public notes", err)
	}

	return &PublicPage{
		Notes:      notes,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// GetPublic returns a public note by slug. A private note is Forbidden and
// a missing one NotFound. Hits are served from cache when available.
func (s *NoteService) GetPublic(ctx context.Context, slug string) (*model.Note, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObservePublicNoteLookup(time.Since(start))
	}()

	// backfill stays false when the generation is unknown, so a failed
	// read never leads to an unguarded cache write.
	var (
		gen      int64
		backfill bool
	)
	if s.cache != nil {
		cached, err := s.cache.GetPublicNote(ctx, slug)
		switch {
		case err == nil:
			s.metrics.IncPublicNoteCacheHit()
			return cached, nil
		case errors.Is(err, cache.ErrCacheMiss):
			s.metrics.IncPublicNoteCacheMiss()
			if negative, _ := s.cache.IsNegativelyCached(ctx, slug); negative {
				return nil, apperr.New(apperr.ErrNotFound, "Note not found")
			}
		default:
			s.logger.Warn("public note cache read failed", "slug", slug, "error", err)
		}

		gen, err = s.cache.PublicNoteGeneration(ctx, slug)
		if err != nil {
			s.logger.Warn("public note cache generation read failed", "slug", slug, "error", err)
		} else {
			backfill = true
		}
	}

	note, err := s.notes.GetNoteBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			if backfill {
				if err := s.cache.SetNegativeCache(ctx, slug, gen); err != nil {
					s.logger.Warn("public note negative cache write failed", "slug", slug, "error", err)
				}
			}
			return nil, apperr.New(apperr.ErrNotFound, "Note not found")
		}
		return nil, apperr.Wrap(apperr.ErrInternal, "Failed to fetch note", err)
	}

	if !note.IsPublic {
		return nil, apperr.New(apperr.ErrForbidden, "This note is private")
	}

	if backfill {
		if err := s.cache.SetPublicNote(ctx, note, s.cacheTTL, gen); err != nil {
			s.logger.Warn("public note cache write failed", "slug", slug, "error", err)
		}
	}

	return note, nil
}

// owned loads a note and checks that userID owns it. A missing note is
// reported before an ownership mismatch.
func (s *NoteService) owned(ctx context.Context, userID, id string) (*model.Note, error) {
	note, err := s.notes.GetNoteByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return nil, apperr.New(apperr.ErrNotFound, "Note not found")
		}
		return nil, apperr.Wrap(apperr.ErrInternal, "Failed to fetch note", err)
	}

	if !note.IsOwnedBy(userID) {
		return nil, apperr.New(apperr.ErrForbidden, "Access denied")
	}

	return note, nil
}

// evict drops any cached public copy of slug.
func (s *NoteService) evict(ctx context.Context, slug string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePublicNote(ctx, slug); err != nil {
		s.logger.Warn("public note cache eviction failed", "slug", slug, "error", err)
	}
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
