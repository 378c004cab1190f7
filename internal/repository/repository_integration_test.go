//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nnote/nnote/internal/model"
	"github.com/nnote/nnote/internal/testutil"
)

// ============================================================================
// Repository Integration Tests
// ============================================================================

func newTestRepository(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	ctx := context.Background()

	dbURL := testutil.RequireEnv(t, "DATABASE_URL")
	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("create repository: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := testutil.TruncateAll(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset tables: %v", err)
	}

	return ctx, repo
}

func mustCreateUser(t *testing.T, ctx context.Context, repo *Repository) *model.User {
	t.Helper()
	user := testutil.NewTestUser(t)
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func TestIntegrationRepository_MigrateIsIdempotent(t *testing.T) {
	ctx, repo := newTestRepository(t)

	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestIntegrationUserRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newTestRepository(t)

	user := testutil.NewTestUser(t)
	avatar := "https://example.com/a.png"
	user.AvatarURL = &avatar

	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	byEmail, err := repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("ID mismatch: got %q, want %q", byEmail.ID, user.ID)
	}
	if byEmail.AvatarURL == nil || *byEmail.AvatarURL != avatar {
		t.Errorf("AvatarURL mismatch: got %v", byEmail.AvatarURL)
	}
	if byEmail.GoogleID != nil {
		t.Errorf("GoogleID should be nil, got %q", *byEmail.GoogleID)
	}

	if _, err := repo.GetUserByID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got: %v", err)
	}
}

func TestIntegrationUserRepository_DuplicateEmail(t *testing.T) {
	ctx, repo := newTestRepository(t)

	user := mustCreateUser(t, ctx, repo)

	dup := testutil.NewTestUser(t)
	dup.Email = user.Email
	if err := repo.CreateUser(ctx, dup); !errors.Is(err, ErrEmailExists) {
		t.Errorf("Expected ErrEmailExists, got: %v", err)
	}
}

func TestIntegrationUserRepository_LinkExternalID(t *testing.T) {
	ctx, repo := newTestRepository(t)

	user := mustCreateUser(t, ctx, repo)
	googleID := "google-sub-1"
	user.GoogleID = &googleID
	user.Name = "Renamed"

	if err := repo.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	loaded, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if !loaded.IsLinked() || *loaded.GoogleID != googleID {
		t.Errorf("expected user to be linked to %q", googleID)
	}
	if loaded.Name != "Renamed" {
		t.Errorf("Name mismatch: got %q", loaded.Name)
	}

	other := mustCreateUser(t, ctx, repo)
	other.GoogleID = &googleID
	if err := repo.UpdateUser(ctx, other); !errors.Is(err, ErrExternalIDExists) {
		t.Errorf("Expected ErrExternalIDExists, got: %v", err)
	}
}

func TestIntegrationNoteRepository_CreateGetDelete(t *testing.T) {
	ctx, repo := newTestRepository(t)
	author := mustCreateUser(t, ctx, repo)

	note := testutil.NewTestNote(t, author, "hello-world")
	if err := repo.CreateNote(ctx, note); err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}

	bySlug, err := repo.GetNoteBySlug(ctx, "hello-world")
	if err != nil {
		t.Fatalf("GetNoteBySlug failed: %v", err)
	}
	if bySlug.ID != note.ID {
		t.Errorf("ID mismatch: got %q, want %q", bySlug.ID, note.ID)
	}
	if bySlug.Author == nil || bySlug.Author.Name != author.Name {
		t.Errorf("expected author %q to be joined, got %+v", author.Name, bySlug.Author)
	}

	exists, err := repo.SlugExists(ctx, "hello-world")
	if err != nil || !exists {
		t.Fatalf("SlugExists = %v, %v; want true", exists, err)
	}

	dup := testutil.NewTestNote(t, author, "hello-world")
	if err := repo.CreateNote(ctx, dup); !errors.Is(err, ErrSlugExists) {
		t.Errorf("Expected ErrSlugExists, got: %v", err)
	}

	if err := repo.DeleteNote(ctx, note.ID); err != nil {
		t.Fatalf("DeleteNote failed: %v", err)
	}
	if _, err := repo.GetNoteByID(ctx, note.ID); !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("Expected ErrNoteNotFound, got: %v", err)
	}
	if err := repo.DeleteNote(ctx, note.ID); !errors.Is(err, ErrNoteNotFound) {
		t.Errorf("Expected ErrNoteNotFound on second delete, got: %v", err)
	}
}

func TestIntegrationNoteRepository_Update(t *testing.T) {
	ctx, repo := newTestRepository(t)
	author := mustCreateUser(t, ctx, repo)

	note := testutil.NewTestNote(t, author, "draft")
	if err := repo.CreateNote(ctx, note); err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}

	image := "https://cdn.example.com/x.png"
	note.Title = "Published"
	note.IsPublic = true
	note.IsAnonymous = true
	note.ImageURL = &image
	note.UpdatedAt = note.UpdatedAt.Add(time.Minute)

	if err := repo.UpdateNote(ctx, note); err != nil {
		t.Fatalf("UpdateNote failed: %v", err)
	}

	loaded, err := repo.GetNoteByID(ctx, note.ID)
	if err != nil {
		t.Fatalf("GetNoteByID failed: %v", err)
	}
	if loaded.Title != "Published" || !loaded.IsPublic || !loaded.IsAnonymous {
		t.Errorf("update not applied: %+v", loaded)
	}
	if loaded.Slug != "draft" {
		t.Errorf("slug must not change, got %q", loaded.Slug)
	}
	if loaded.ImageURL == nil || *loaded.ImageURL != image {
		t.Errorf("ImageURL mismatch: got %v", loaded.ImageURL)
	}
}

func TestIntegrationNoteRepository_ListAndCount(t *testing.T) {
	ctx, repo := newTestRepository(t)
	alice := mustCreateUser(t, ctx, repo)
	bob := mustCreateUser(t, ctx, repo)

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, tc := range []struct {
		author   *model.User
		slug     string
		isPublic bool
	}{
		{alice, "a-1", true},
		{alice, "a-2", false},
		{bob, "b-1", true},
		{bob, "b-2", true},
	} {
		note := testutil.NewTestNote(t, tc.author, tc.slug)
		note.IsPublic = tc.isPublic
		note.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		note.UpdatedAt = base.Add(time.Duration(10-i) * time.Minute)
		if err := repo.CreateNote(ctx, note); err != nil {
			t.Fatalf("CreateNote(%s) failed: %v", tc.slug, err)
		}
	}

	own, err := repo.ListNotes(ctx, NoteQuery{AuthorID: alice.ID, Order: OrderUpdatedDesc})
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if len(own) != 2 || own[0].Slug != "a-1" || own[1].Slug != "a-2" {
		t.Errorf("unexpected own notes order: %v", slugs(own))
	}

	public, err := repo.ListNotes(ctx, NoteQuery{PublicOnly: true, Order: OrderCreatedDesc, Limit: 2})
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if got := slugs(public); len(got) != 2 || got[0] != "b-2" || got[1] != "b-1" {
		t.Errorf("unexpected public page: %v", got)
	}

	total, err := repo.CountNotes(ctx, NoteQuery{PublicOnly: true, Limit: 2})
	if err != nil {
		t.Fatalf("CountNotes failed: %v", err)
	}
	if total != 3 {
		t.Errorf("CountNotes = %d, want 3", total)
	}
}

func slugs(notes []*model.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Slug
	}
	return out
}
