package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerdesk/ledgerdesk/internal/rbac"
	"github.com/ledgerdesk/ledgerdesk/internal/session"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials. Lookup failures,
// deactivated accounts and password mismatches all collapse into
// ErrInvalidCredentials so the response does not leak which one applied.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*session.Identity, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return identityOf(user), nil
}

// Lookup resolves an identity by email without checking credentials. Used by
// the OTP flow after the code has been verified.
func (s *Service) Lookup(ctx context.Context, email string) (*session.Identity, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrNotFound
	}
	return identityOf(user), nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, token string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, token, userID, expiresAt, ip, ua)
}

// RevokeSession deletes a session record. Implements session.Revoker.
func (s *Service) RevokeSession(ctx context.Context, refreshToken string) error {
	return s.repo.DeleteSession(ctx, refreshToken)
}

func identityOf(user *User) *session.Identity {
	role, _ := rbac.ParseRole(user.Role)
	ident := &session.Identity{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  role,
	}
	if user.TenantID != nil {
		ident.TenantID = *user.TenantID
	}
	return ident
}
