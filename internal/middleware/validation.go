package middleware

import (
	"errors"
	"regexp"
)

// Validation limits.
const (
	// MaxNoteIDLength is the maximum length for a note id path parameter.
	MaxNoteIDLength = 64

	// MaxSlugLength is the maximum length for a slug path parameter.
	MaxSlugLength = 512
)

// Validation errors.
var (
	ErrNoteIDEmpty   = errors.New("note id is empty")
	ErrNoteIDTooLong = errors.New("note id exceeds maximum length")
	ErrNoteIDInvalid = errors.New("note id contains invalid characters")
	ErrSlugEmpty     = errors.New("slug is empty")
	ErrSlugTooLong   = errors.New("slug exceeds maximum length")
	ErrSlugInvalid   = errors.New("slug contains invalid characters")
)

// validNoteIDPattern matches generated note ids (ULIDs and test ids).
var validNoteIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// validSlugPattern matches slugs as produced from titles: lowercase ASCII
// word characters and hyphens.
var validSlugPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ValidateNoteID validates a note id taken from the URL.
func ValidateNoteID(id string) error {
	if id == "" {
		return ErrNoteIDEmpty
	}
	if len(id) > MaxNoteIDLength {
		return ErrNoteIDTooLong
	}
	if !validNoteIDPattern.MatchString(id) {
		return ErrNoteIDInvalid
	}
	return nil
}

// ValidateSlug validates a public note slug taken from the URL.
// A slug that fails here cannot exist, so callers answer not-found without
// touching the cache or the store.
func ValidateSlug(slug string) error {
	if slug == "" {
		return ErrSlugEmpty
	}
	if len(slug) > MaxSlugLength {
		return ErrSlugTooLong
	}
	if !validSlugPattern.MatchString(slug) {
		return ErrSlugInvalid
	}
	return nil
}
