// Package services – UserService
//
// UserService serves the doctor/patient directory and password login.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-scheduler-backend/internal/auth"
	"github.com/tbourn/go-scheduler-backend/internal/authz"
	"github.com/tbourn/go-scheduler-backend/internal/domain"
	"github.com/tbourn/go-scheduler-backend/internal/repo"
)

// LoginResult is returned by Authenticate.
type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      domain.User      `json:"user"`
	Principal domain.Principal `json:"-"`
}

// UserService implements directory listings and login.
type UserService struct {
	DB     *gorm.DB
	Policy *authz.Policy
	Tokens *auth.Issuer
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, pol *authz.Policy, tokens *auth.Issuer) *UserService {
	return &UserService{DB: db, Policy: pol, Tokens: tokens}
}

// ListDoctors returns every doctor ordered by last name.
func (s *UserService) ListDoctors(ctx context.Context, p domain.Principal) ([]domain.UserSummary, error) {
	return s.list(ctx, p, domain.RoleDoctor)
}

// ListPatients returns every patient ordered by last name.
func (s *UserService) ListPatients(ctx context.Context, p domain.Principal) ([]domain.UserSummary, error) {
	return s.list(ctx, p, domain.RolePatient)
}

func (s *UserService) list(ctx context.Context, p domain.Principal, role domain.Role) ([]domain.UserSummary, error) {
	ctx, span := startSpan(ctx, "UserService", "List", p)
	defer span.End()

	if err := s.Policy.Require(p, authz.ResourceDirectory, authz.ActionRead); err != nil {
		return nil, ErrForbidden
	}
	return repo.ListUsersByRole(ctx, s.DB, role)
}

// Authenticate verifies email and password and issues a bearer token.
// Unknown email and wrong password both return ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*LoginResult, error) {
	ctx, span := startSpan(ctx, "UserService", "Authenticate", domain.Principal{})
	defer span.End()

	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	tok, exp, err := s.Tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Token:     tok,
		ExpiresAt: exp,
		User:      *u,
		Principal: domain.Principal{ID: u.ID, Role: u.Role},
	}, nil
}
