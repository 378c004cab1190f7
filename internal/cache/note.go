package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nnote/nnote/internal/model"
)

// Cache key prefixes and TTLs.
const (
	publicNoteKeyPrefix = "note:public:"
	negCacheKeySuffix   = ":neg"
	genKeySuffix        = ":gen"

	// DefaultNoteTTL is the TTL for cached public notes.
	DefaultNoteTTL = 10 * time.Minute

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = time.Minute

	// generationTTL outlives any cached entry so a bumped generation is
	// still visible to readers that started before the bump.
	generationTTL = 24 * time.Hour
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// setIfGenerationScript writes KEYS[2] only while the slug generation in
// KEYS[1] still equals ARGV[1]. A missing generation counts as 0.
// KEYS[3], when given, is deleted alongside the write.
// Returns 1 when written, 0 when the generation moved.
var setIfGenerationScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
if gen ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
if KEYS[3] then
	redis.call('DEL', KEYS[3])
end
return 1
`)

// evictScript bumps the slug generation and drops both cache entries.
var evictScript = redis.NewScript(`
redis.call('INCR', KEYS[1])
redis.call('PEXPIRE', KEYS[1], ARGV[1])
redis.call('DEL', KEYS[2], KEYS[3])
return 1
`)

// cachedNote is the JSON form of a public note in Redis. The author is
// stored with the note so a hit needs no database access.
type cachedNote struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Content     string        `json:"content"`
	Slug        string        `json:"slug"`
	IsAnonymous bool          `json:"is_anonymous"`
	ImageURL    *string       `json:"image_url,omitempty"`
	AuthorID    string        `json:"author_id"`
	Author      *model.Author `json:"author,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func noteKey(slug string) string { return publicNoteKeyPrefix + slug }
func negKey(slug string) string  { return publicNoteKeyPrefix + slug + negCacheKeySuffix }
func genKey(slug string) string  { return publicNoteKeyPrefix + slug + genKeySuffix }

// GetPublicNote retrieves a public note from cache by slug.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetPublicNote(ctx context.Context, slug string) (*model.Note, error) {
	data, err := c.client.Get(ctx, noteKey(slug)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	note, err := decodeNote(data)
	if err != nil {
		return nil, err
	}
	return note, nil
}

// PublicNoteGeneration returns the eviction counter of slug. Read it before
// loading from the store and hand it to SetPublicNote or SetNegativeCache.
func (c *Cache) PublicNoteGeneration(ctx context.Context, slug string) (int64, error) {
	gen, err := c.client.Get(ctx, genKey(slug)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return gen, nil
}

// SetPublicNote stores a public note in cache unless the slug was evicted
// since gen was read. Private notes are never cached; passing one evicts
// the slug instead.
func (c *Cache) SetPublicNote(ctx context.Context, note *model.Note, ttl time.Duration, gen int64) error {
	if !note.IsPublic {
		return c.DeletePublicNote(ctx, note.Slug)
	}
	if ttl <= 0 {
		ttl = DefaultNoteTTL
	}

	data, err := encodeNote(note)
	if err != nil {
		return err
	}

	err = setIfGenerationScript.Run(ctx, c.client,
		[]string{genKey(note.Slug), noteKey(note.Slug), negKey(note.Slug)},
		strconv.FormatInt(gen, 10), data, ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to cache note: %w", err)
	}

	return nil
}

// DeletePublicNote evicts a slug: both entries are removed and the
// generation is bumped so in-flight reads cannot write stale data back.
func (c *Cache) DeletePublicNote(ctx context.Context, slug string) error {
	err := evictScript.Run(ctx, c.client,
		[]string{genKey(slug), noteKey(slug), negKey(slug)},
		generationTTL.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to delete note from cache: %w", err)
	}

	return nil
}

// IsNegativelyCached checks if a slug is known to have no public note.
func (c *Cache) IsNegativelyCached(ctx context.Context, slug string) (bool, error) {
	exists, err := c.client.Exists(ctx, negKey(slug)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks a slug as having no public note unless the slug
// was evicted since gen was read.
func (c *Cache) SetNegativeCache(ctx context.Context, slug string, gen int64) error {
	err := setIfGenerationScript.Run(ctx, c.client,
		[]string{genKey(slug), negKey(slug)},
		strconv.FormatInt(gen, 10), "", NegativeCacheTTL.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}


func encodeNote(note *model.Note) ([]byte, error) {
	data, err := json.Marshal(cachedNote{
		ID:          note.ID,
		Title:       note.Title,
		Content:     note.Content,
		Slug:        note.Slug,
		IsAnonymous: note.IsAnonymous,
		ImageURL:    note.ImageURL,
		AuthorID:    note.AuthorID,
		Author:      note.Author,
		CreatedAt:   note.CreatedAt,
		UpdatedAt:   note.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode note: %w", err)
	}
	return data, nil
}

func decodeNote(data []byte) (*model.Note, error) {
	var cached cachedNote
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to decode cached note: %w", err)
	}

	return &model.Note{
		ID:          cached.ID,
		Title:       cached.Title,
		Content:     cached.Content,
		Slug:        cached.Slug,
		IsPublic:    true,
		IsAnonymous: cached.IsAnonymous,
		ImageURL:    cached.ImageURL,
		AuthorID:    cached.AuthorID,
		Author:      cached.Author,
		CreatedAt:   cached.CreatedAt,
		UpdatedAt:   cached.UpdatedAt,
	}, nil
}
