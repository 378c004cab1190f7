package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/nnote/nnote/internal/cache"
	"github.com/nnote/nnote/internal/model"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockUserStore) CreateUser(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserStore) UpdateUser(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, raw string) (*model.Identity, error) {
	args := m.Called(ctx, raw)
	identity, _ := args.Get(0).(*model.Identity)
	return identity, args.Error(1)
}

type mockExchanger struct {
	mock.Mock
}

func (m *mockExchanger) Exchange(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

type mockImageStore struct {
	mock.Mock
}

func (m *mockImageStore) Upload(ctx context.Context, data []byte, contentType, ext string) (string, error) {
	args := m.Called(ctx, data, contentType, ext)
	return args.String(0), args.Error(1)
}

type mockNoteCache struct {
	mock.Mock
}

func (m *mockNoteCache) GetPublicNote(ctx context.Context, slug string) (*model.Note, error) {
	args := m.Called(ctx, slug)
	note, _ := args.Get(0).(*model.Note)
	return note, args.Error(1)
}

func (m *mockNoteCache) PublicNoteGeneration(ctx context.Context, slug string) (int64, error) {
	args := m.Called(ctx, slug)
	gen, _ := args.Get(0).(int64)
	return gen, args.Error(1)
}

func (m *mockNoteCache) SetPublicNote(ctx context.Context, note *model.Note, ttl time.Duration, gen int64) error {
	return m.Called(ctx, note, ttl, gen).Error(0)
}

func (m *mockNoteCache) DeletePublicNote(ctx context.Context, slug string) error {
	return m.Called(ctx, slug).Error(0)
}

func (m *mockNoteCache) IsNegativelyCached(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *mockNoteCache) SetNegativeCache(ctx context.Context, slug string, gen int64) error {
	return m.Called(ctx, slug, gen).Error(0)
}

// memNoteCache is a PublicNoteCache with the same generation rules as
// the Redis implementation.
type memNoteCache struct {
	mu    sync.Mutex
	notes map[string]*model.Note
	neg   map[string]bool
	gens  map[string]int64
}

func newMemNoteCache() *memNoteCache {
	return &memNoteCache{
		notes: make(map[string]*model.Note),
		neg:   make(map[string]bool),
		gens:  make(map[string]int64),
	}
}

func (c *memNoteCache) GetPublicNote(ctx context.Context, slug string) (*model.Note, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	note, ok := c.notes[slug]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	out := *note
	return &out, nil
}

func (c *memNoteCache) PublicNoteGeneration(ctx context.Context, slug string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[slug], nil
}

func (c *memNoteCache) SetPublicNote(ctx context.Context, note *model.Note, ttl time.Duration, gen int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[note.Slug] != gen || !note.IsPublic {
		return nil
	}
	out := *note
	c.notes[note.Slug] = &out
	delete(c.neg, note.Slug)
	return nil
}

func (c *memNoteCache) DeletePublicNote(ctx context.Context, slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[slug]++
	delete(c.notes, slug)
	delete(c.neg, slug)
	return nil
}

func (c *memNoteCache) IsNegativelyCached(ctx context.Context, slug string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.neg[slug], nil
}

func (c *memNoteCache) SetNegativeCache(ctx context.Context, slug string, gen int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[slug] == gen {
		c.neg[slug] = true
	}
	return nil
}

// fakeTokens issues a token derived from the user id.
type fakeTokens struct {
	err error
}

func (f fakeTokens) Issue(user *model.User) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-for-" + user.ID, nil
}
