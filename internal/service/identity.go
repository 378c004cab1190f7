package service

import (
	"context"
	"errors"
	"time"

	"github.com/nnote/nnote/internal/apperr"
	"github.com/nnote/nnote/internal/model"
	"github.com/nnote/nnote/internal/repository"
)

// IdentityResolver maps a verified identity onto an internal user.
// Email is the join key; the external id is linked on first external login.
type IdentityResolver struct {
	users UserStore
	now   func() time.Time
	newID func() string
}

// NewIdentityResolver creates a new IdentityResolver.
func NewIdentityResolver(users UserStore) *IdentityResolver {
	return &IdentityResolver{
		users: users,
		now:   time.Now,
		newID: newID,
	}
}

// Resolve returns the user for identity, creating or linking it first when
// needed. At most one write is issued per call.
func (r *IdentityResolver) Resolve(ctx context.Context, identity *model.Identity) (*model.User, error) {
	user, err := r.users.GetUserByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		return r.link(ctx, user, identity)
	case errors.Is(err, repository.ErrUserNotFound):
		return r.create(ctx, identity)
	default:
		return nil, apperr.Wrap(apperr.ErrInternal, "Failed to look up user", err)
	}
}

func (r *IdentityResolver) create(ctx context.Context, identity *model.Identity) (*model.User, error) {
	user := &model.User{
		ID:        r.newID(),
		Email:     identity.Email,
		Name:      identity.Name,
		AvatarURL: identity.AvatarURL,
		CreatedAt: r.now().UTC(),
	}
	if identity.ExternalID != "" {
		externalID := identity.ExternalID
		user.GoogleID = &externalID
	}

	err := r.users.CreateUser(ctx, user)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, repository.ErrEmailExists):
		// Lost a race with a concurrent first login; the winner's record is canonical.
		existing, getErr := r.users.GetUserByEmail(ctx, identity.Email)
		if getErr != nil {
			return nil, apperr.Wrap(apperr.ErrInternal, "Failed to look up user", getErr)
		}
		return existing, nil
	case errors.Is(err, repository.ErrExternalIDExists):
		return nil, apperr.Wrap(apperr.ErrConflict, "Identity is linked to another account", err)
	default:
		return nil, apperr.Wrap(apperr.ErrInternal, "Failed to create user", err)
	}
}

func (r *IdentityResolver) link(ctx context.Context, user *model.User, identity *model.Identity) (*model.User, error) {
	if identity.ExternalID == "" || user.IsLinked() {
		return user, nil
	}

	externalID := identity.ExternalID
	user.GoogleID = &externalID
	user.AvatarURL = identity.AvatarURL

	if err := r.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrExternalIDExists) {
			return nil, apperr.Wrap(apperr.ErrConflict, "Identity is linked to another account", err)
		}
		return nil, apperr.Wrap(apperr.ErrInternal, "Failed to link user", err)
	}

	return user, nil
}
