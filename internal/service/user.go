package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/planbook/planbook/internal/auth"
	"github.com/planbook/planbook/internal/metrics"
	"github.com/planbook/planbook/internal/model"
	"github.com/planbook/planbook/internal/repository"
	"github.com/planbook/planbook/internal/validation"
)

// TokenIssuer signs access tokens for a user.
type TokenIssuer interface {
	Issue(userID string) (string, *auth.Claims, error)
}

// TokenRevoker records revoked token ids until they expire.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

// UserService handles registration, login and account lifecycle.
type UserService struct {
	store   UserStore
	tokens  TokenIssuer
	revoker TokenRevoker
	metrics metrics.Recorder
	now     func() time.Time
}

// NewUserService creates a new UserService. revoker may be nil, in which
// case logout only relies on the client discarding its token.
func NewUserService(store UserStore, tokens TokenIssuer, revoker TokenRevoker, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		store:   store,
		tokens:  tokens,
		revoker: revoker,
		metrics: recorder,
		now:     time.Now,
	}
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthResult is a user together with a freshly issued token.
type AuthResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// Register validates and creates a new account.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	if err := validation.Username(username); err != nil {
		return nil, err
	}
	email, err := validation.Email(input.Email)
	if err != nil {
		return nil, err
	}
	if err := validation.Password(input.Password); err != nil {
		return nil, err
	}

	usernameTaken, emailTaken, err := s.store.UserTaken(ctx, username, email)
	if err != nil {
		return nil, persistence("check existing user", err)
	}
	if usernameTaken {
		return nil, duplicate("username already exists")
	}
	if emailTaken {
		return nil, duplicate("email already exists")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           ulid.Make().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// a concurrent registration can still win the unique constraint
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, storeError("user", "create user", err)
	}

	s.metrics.IncUserRegistered()
	return s.issue(user)
}

// Login checks credentials and issues a token.
func (s *UserService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalidInput("username and password are required")
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			auth.BurnVerify(password)
			s.metrics.IncLogin(false)
			return nil, &Error{Kind: ErrInvalidCredentials, Message: "invalid username or password"}
		}
		return nil, persistence("load user", err)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.metrics.IncLogin(false)
		return nil, &Error{Kind: ErrInvalidCredentials, Message: "invalid username or password"}
	}

	s.metrics.IncLogin(true)
	return s.issue(user)
}

// Profile returns the user with the given id.
func (s *UserService) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeError("user", "load user", err)
	}
	return user, nil
}

// DeleteAccount removes the user and everything they own.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return storeError("user", "delete user", err)
	}
	s.metrics.IncUserDeleted()
	return nil
}

// Logout revokes the token described by claims until it would have expired.
func (s *UserService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.revoker == nil || claims == nil || claims.ID == "" {
		return nil
	}

	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(s.now())
	}
	if err := s.revoker.RevokeToken(ctx, claims.ID, ttl); err != nil {
		return persistence("revoke token", err)
	}
	return nil
}

func (s *UserService) issue(user *model.User) (*AuthResult, error) {
	token, claims, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}
