package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nnote/nnote/internal/model"
)

// Common errors for note repository operations.
var (
	ErrNoteNotFound = errors.New("note not found")
	ErrSlugExists   = errors.New("slug already exists")
)

// NoteOrder selects the sort order of a note listing.
type NoteOrder int

const (
	// OrderUpdatedDesc sorts by last modification, newest first.
	OrderUpdatedDesc NoteOrder = iota
	// OrderCreatedDesc sorts by creation, newest first.
	OrderCreatedDesc
)

// NoteQuery filters and pages a note listing.
// A zero Limit returns every matching note.
type NoteQuery struct {
	AuthorID   string
	PublicOnly bool
	Order      NoteOrder
	Limit      int
	Offset     int
}

const noteSelect = `
	SELECT n.id, n.title, n.content, n.slug, n.is_public, n.is_anonymous, n.image_url,
	       n.author_id, n.created_at, n.updated_at, u.name, u.avatar_url
	FROM notes n
	JOIN users u ON u.id = n.author_id
`

// CreateNote inserts a new note into the database.
func (r *Repository) CreateNote(ctx context.Context, note *model.Note) error {
	query := `
		INSERT INTO notes (id, title, content, slug, is_public, is_anonymous, image_url, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		note.ID,
		note.Title,
		note.Content,
		note.Slug,
		note.IsPublic,
		note.IsAnonymous,
		note.ImageURL,
		note.AuthorID,
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return ErrSlugExists
		}
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

// GetNoteByID retrieves a note and its author by ID.
func (r *Repository) GetNoteByID(ctx context.Context, id string) (*model.Note, error) {
	note, err := scanNote(r.pool.QueryRow(ctx, noteSelect+` WHERE n.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note by ID: %w", err)
	}

	return note, nil
}

// GetNoteBySlug retrieves a note and its author by slug.
func (r *Repository) GetNoteBySlug(ctx context.Context, slug string) (*model.Note, error) {
	note, err := scanNote(r.pool.QueryRow(ctx, noteSelect+` WHERE n.slug = $1`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note by slug: %w", err)
	}

	return note, nil
}

// SlugExists checks if a slug is already taken.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM notes WHERE slug = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check slug existence: %w", err)
	}

	return exists, nil
}

// ListNotes returns the notes matching q.
func (r *Repository) ListNotes(ctx context.Context, q NoteQuery) ([]*model.Note, error) {
	where, args := q.where()
	query := noteSelect + where

	switch q.Order {
	case OrderCreatedDesc:
		query += ` ORDER BY n.created_at DESC, n.id DESC`
	default:
		query += ` ORDER BY n.updated_at DESC, n.id DESC`
	}

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, q.Limit, q.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*model.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}

	return notes, nil
}

// CountNotes counts the notes matching q, ignoring paging.
func (r *Repository) CountNotes(ctx context.Context, q NoteQuery) (int, error) {
	where, args := q.where()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notes n`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}

	return total, nil
}

// UpdateNote overwrites the mutable fields of a note. Slug and author
// never change after creation.
func (r *Repository) UpdateNote(ctx context.Context, note *model.Note) error {
	query := `
		UPDATE notes
		SET title = $2, content = $3, is_public = $4, is_anonymous = $5, image_url = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		note.ID,
		note.Title,
		note.Content,
		note.IsPublic,
		note.IsAnonymous,
		note.ImageURL,
		note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNoteNotFound
	}

	return nil
}

// DeleteNote permanently removes a note.
func (r *Repository) DeleteNote(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNoteNotFound
	}

	return nil
}

func (q NoteQuery) where() (string, []any) {
	clause := ` WHERE TRUE`
	var args []any

	if q.AuthorID != "" {
		args = append(args, q.AuthorID)
		clause += fmt.Sprintf(" AND n.author_id = $%d", len(args))
	}
	if q.PublicOnly {
		clause += ` AND n.is_public`
	}

	return clause, args
}

func scanNote(row pgx.Row) (*model.Note, error) {
	var (
		note   model.Note
		author model.Author
	)
	err := row.Scan(
		&note.ID,
		&note.Title,
		&note.Content,
		&note.Slug,
		&note.IsPublic,
		&note.IsAnonymous,
		&note.ImageURL,
		&note.AuthorID,
		&note.CreatedAt,
		&note.UpdatedAt,
		&author.Name,
		&author.AvatarURL,
	)
	if err != nil {
		return nil, err
	}
	note.Author = &author
	return &note, nil
}
