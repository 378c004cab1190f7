// Package memstore is an in-memory implementation of the user and note
// stores. It enforces the same uniqueness rules as the PostgreSQL schema
// and returns the same repository errors.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/nnote/nnote/internal/model"
	"github.com/nnote/nnote/internal/repository"
)

// Store holds users and notes in memory.
type Store struct {
	mu      sync.RWMutex
	users   map[string]*model.User // id -> user
	byEmail map[string]string      // email -> user id
	notes   map[string]*model.Note // id -> note
	bySlug  map[string]string      // slug -> note id
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]string),
		notes:   make(map[string]*model.Note),
		bySlug:  make(map[string]string),
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// CreateUser stores a new user.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return repository.ErrEmailExists
	}
	if s.externalIDTaken(user.GoogleID, user.ID) {
		return repository.ErrExternalIDExists
	}

	stored := cloneUser(user)
	s.users[user.ID] = stored
	s.byEmail[user.Email] = user.ID
	return nil
}

// UpdateUser overwrites the mutable profile fields of a user.
func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if s.externalIDTaken(user.GoogleID, user.ID) {
		return repository.ErrExternalIDExists
	}

	stored.Name = user.Name
	stored.AvatarURL = cloneString(user.AvatarURL)
	stored.GoogleID = cloneString(user.GoogleID)
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return cloneUser(user), nil
}

// GetUserByEmail retrieves a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return cloneUser(s.users[id]), nil
}

// CreateNote stores a new note.
func (s *Store) CreateNote(ctx context.Context, note *model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bySlug[note.Slug]; exists {
		return repository.ErrSlugExists
	}

	stored := cloneNote(note)
	stored.Author = nil
	s.notes[note.ID] = stored
	s.bySlug[note.Slug] = note.ID
	return nil
}

// GetNoteByID retrieves a note and its author by ID.
func (s *Store) GetNoteByID(ctx context.Context, id string) (*model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	note, ok := s.notes[id]
	if !ok {
		return nil, repository.ErrNoteNotFound
	}
	return s.withAuthor(note), nil
}

// GetNoteBySlug retrieves a note and its author by slug.
func (s *Store) GetNoteBySlug(ctx context.Context, slug string) (*model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[slug]
	if !ok {
		return nil, repository.ErrNoteNotFound
	}
	return s.withAuthor(s.notes[id]), nil
}

// SlugExists checks if a slug is taken.
func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.bySlug[slug]
	return exists, nil
}

// ListNotes returns the notes matching q in the requested order.
func (s *Store) ListNotes(ctx context.Context, q repository.NoteQuery) ([]*model.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.match(q)
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		ta, tb := a.UpdatedAt, b.UpdatedAt
		if q.Order == repository.OrderCreatedDesc {
			ta, tb = a.CreatedAt, b.CreatedAt
		}
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return a.ID > b.ID
	})

	if q.Limit > 0 {
		start := max(0, min(q.Offset, len(matched)))
		end := min(start+q.Limit, len(matched))
		matched = matched[start:end]
	}

	notes := make([]*model.Note, 0, len(matched))
	for _, note := range matched {
		notes = append(notes, s.withAuthor(note))
	}
	return notes, nil
}

// CountNotes counts the notes matching q, ignoring paging.
func (s *Store) CountNotes(ctx context.Context, q repository.NoteQuery) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.match(q)), nil
}

// UpdateNote overwrites the mutable fields of a note.
func (s *Store) UpdateNote(ctx context.Context, note *model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.notes[note.ID]
	if !ok {
		return repository.ErrNoteNotFound
	}

	stored.Title = note.Title
	stored.Content = note.Content
	stored.IsPublic = note.IsPublic
	stored.IsAnonymous = note.IsAnonymous
	stored.ImageURL = cloneString(note.ImageURL)
	stored.UpdatedAt = note.UpdatedAt
	return nil
}

// DeleteNote removes a note.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	note, ok := s.notes[id]
	if !ok {
		return repository.ErrNoteNotFound
	}
	delete(s.bySlug, note.Slug)
	delete(s.notes, id)
	return nil
}

func (s *Store) match(q repository.NoteQuery) []*model.Note {
	matched := make([]*model.Note, 0, len(s.notes))
	for _, note := range s.notes {
		if q.AuthorID != "" && note.AuthorID != q.AuthorID {
			continue
		}
		if q.PublicOnly && !note.IsPublic {
			continue
		}
		matched = append(matched, note)
	}
	return matched
}

func (s *Store) externalIDTaken(externalID *string, ownerID string) bool {
	if externalID == nil || *externalID == "" {
		return false
	}
	for id, user := range s.users {
		if id != ownerID && user.GoogleID != nil && *user.GoogleID == *externalID {
			return true
		}
	}
	return false
}

func (s *Store) withAuthor(note *model.Note) *model.Note {
	out := cloneNote(note)
	if user, ok := s.users[note.AuthorID]; ok {
		out.Author = &model.Author{Name: user.Name, AvatarURL: cloneString(user.AvatarURL)}
	}
	return out
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.AvatarURL = cloneString(u.AvatarURL)
	c.GoogleID = cloneString(u.GoogleID)
	return &c
}

func cloneNote(n *model.Note) *model.Note {
	c := *n
	c.ImageURL = cloneString(n.ImageURL)
	if n.Author != nil {
		author := *n.Author
		c.Author = &author
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
