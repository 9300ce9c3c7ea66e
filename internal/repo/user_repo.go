// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// Functions:
//
//   - CreateUser(ctx, db, u) -> error
//   - GetUser(ctx, db, id) -> *domain.User, error
//   - GetUserByEmail(ctx, db, email) -> *domain.User, error
//   - ListUsersByRole(ctx, db, role) -> []domain.UserSummary, error
//   - EnsureUser(ctx, db, u) -> created bool, error
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-scheduler-backend/internal/domain"
)

// CreateUser inserts a user. Emails are stored lower-cased; a duplicate email
// fails on the unique index.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return db.WithContext(ctx).Create(u).Error
}

// GetUser fetches a user by primary key.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by login email (case-insensitive).
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsersByRole returns display summaries of every user with role,
// ordered by last name then first name.
func ListUsersByRole(ctx context.Context, db *gorm.DB, role domain.Role) ([]domain.UserSummary, error) {
	out := []domain.UserSummary{}
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Select("id", "first_name", "last_name", "email").
		Where("role = ?", string(role)).
		Order("last_name asc").
		Order("first_name asc").
		Scan(&out).Error
	return out, err
}

// EnsureUser inserts u unless a user with the same email exists. It reports
// whether a row was created; on return u holds the stored row either way.
func EnsureUser(ctx context.Context, db *gorm.DB, u *domain.User) (bool, error) {
	existing, err := GetUserByEmail(ctx, db, u.Email)
	switch {
	case err == nil:
		*u = *existing
		return false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, err
	}
	if err := CreateUser(ctx, db, u); err != nil {
		return false, err
	}
	return true, nil
}
