// Package service orchestrates storage, the balance engine, and
// notifications behind transport-agnostic methods. Handlers map the
// returned errors to HTTP status codes.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/billsplit/billsplit/internal/auth"
	"github.com/billsplit/billsplit/internal/models"
	"github.com/billsplit/billsplit/internal/storage"
)

// AuthService handles registration and login.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	store         storage.Store
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, store storage.Store, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		store:         store,
		logger:        logger,
	}
}

// Register creates a new user account and returns the user with a session
// token. Any pending group invitations addressed to the email become real
// memberships.
func (s *AuthService) Register(ctx context.Context, email, displayName, password string) (*models.User, string, error) {
	email = normalizeEmail(email)
	s.logger.Info("Register request", "email", email)

	if email == "" || displayName == "" {
		return nil, "", ErrInvalidInput
	}

	user, err := s.authenticator.Register(ctx, email, displayName, password)
	if err != nil {
		s.logger.Error("Registration failed", "email", email, "error", err)
		return nil, "", err
	}

	s.promotePendingInvites(ctx, user)

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, "", err
	}

	s.logger.Info("User registered", "user_id", user.ID, "email", user.Email)
	return user, token, nil
}

// Login verifies credentials and returns the user with a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = normalizeEmail(email)
	s.logger.Info("Login request", "email", email)

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		s.logger.Warn("Login failed", "email", email, "error", err)
		return nil, "", err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, "", err
	}

	return user, token, nil
}

// promotePendingInvites converts every pending membership for the new
// user's email into a real membership. Failures are logged and skipped so
// a bad invite never blocks registration.
func (s *AuthService) promotePendingInvites(ctx context.Context, user *models.User) {
	invites, err := s.store.ListPendingInvitesByEmail(ctx, user.Email)
	if err != nil {
		s.logger.Error("Failed to list pending invites", "email", user.Email, "error", err)
		return
	}

	for _, invite := range invites {
		member := &models.GroupMember{
			GroupID:  invite.GroupID,
			UserID:   user.ID,
			Role:     models.RoleMember,
			JoinedAt: time.Now().Unix(),
		}
		if err := s.store.AddGroupMember(ctx, member); err != nil {
			s.logger.Error("Failed to promote pending invite",
				"group_id", invite.GroupID, "user_id", user.ID, "error", err)
			continue
		}
		if err := s.store.DeletePendingMember(ctx, invite.GroupID, invite.Email); err != nil {
			s.logger.Error("Failed to clear pending invite",
				"group_id", invite.GroupID, "email", invite.Email, "error", err)
		}
		s.logger.Info("Pending invite promoted", "group_id", invite.GroupID, "user_id", user.ID)
	}
}
