package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/markbates/goth"
	"github.com/tosurnament/dashboard/internal/store"
	users "github.com/tosurnament/dashboard/internal/user"
	"github.com/tosurnament/dashboard/internal/utils"
)

type UserService struct {
	db    *sqlx.DB
	store *store.UserStore
	now   func() time.Time
}

func NewUserService(db *sqlx.DB, store *store.UserStore) *UserService {
	return &UserService{db: db, store: store, now: time.Now}
}

// FindOrCreateUserByProvider maps an OAuth identity to a dashboard user and
// refreshes the stored profile when Discord reports a new one.
func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User) (*users.User, error) {
	username := utils.FirstNonEmpty(gothUser.NickName, gothUser.Name, gothUser.UserID)

	user, err := s.store.GetUserByProvider(ctx, gothUser.Provider, gothUser.UserID)
	switch {
	case err == nil:
		if utils.OrZero(user.AvatarURL) != gothUser.AvatarURL || user.Username != username || user.Email != gothUser.Email {
			user.AvatarURL = utils.StringOrNil(gothUser.AvatarURL)
			user.Username = username
			user.Email = gothUser.Email
			if err := s.store.UpdateProfile(ctx, user); err != nil {
				return nil, fmt.Errorf("update profile of %s: %w", user.ID, err)
			}
		}
	case errors.Is(err, sql.ErrNoRows):
		user = &users.User{
			ID:         uuid.New(),
			Email:      gothUser.Email,
			Username:   username,
			Provider:   utils.Ptr(gothUser.Provider),
			ProviderID: utils.Ptr(gothUser.UserID),
			AvatarURL:  utils.StringOrNil(gothUser.AvatarURL),
		}
		if err := s.store.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
	default:
		return nil, err
	}

	if err := s.store.TouchLastLogin(ctx, user, s.now()); err != nil {
		return nil, fmt.Errorf("record login of %s: %w", user.ID, err)
	}
	return user, nil
}
