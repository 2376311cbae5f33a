package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"membership/internal/auth"
	apperrors "membership/internal/errors"
	"membership/internal/model"
	"membership/internal/repository"
)

// Validator checks request payloads before they reach storage.
type Validator interface {
	Validate(i interface{}) error
}

// Hasher hashes and verifies secrets.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, req SignupRequest) (*model.User, error)
	Signup(ctx context.Context, req SignupRequest) (*model.Session, error)
	Signin(ctx context.Context, req SigninRequest) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

type authService struct {
	userRepo  repository.UserRepository
	sessions  auth.SessionStore
	hasher    Hasher
	validator Validator
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, sessions auth.SessionStore, hasher Hasher, validator Validator) AuthService {
	return &authService{
		userRepo:  userRepo,
		sessions:  sessions,
		hasher:    hasher,
		validator: validator,
	}
}

// Register validates req and creates a user record with the default role.
func (s *authService) Register(ctx context.Context, req SignupRequest) (*model.User, error) {
	req = req.Normalize()
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrDuplicateEmail
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Storage("check user existence", err)
	}

	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		FirstName:    req.FirstName,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         model.RoleUser,
	}

	// A concurrent signup may have won since the existence check; the unique
	// index reports that as ErrDuplicateEmail.
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, apperrors.Storage("create user", err)
	}

	return user, nil
}

// Signup registers a new user and opens a session for them.
func (s *authService) Signup(ctx context.Context, req SignupRequest) (*model.Session, error) {
	user, err := s.Register(ctx, req)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Create(ctx, user.Principal())
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Signin verifies credentials and opens a session bound to the stored record.
func (s *authService) Signin(ctx context.Context, req SigninRequest) (*model.Session, error) {
	req = req.Normalize()
	if err := s.validator.Validate(&req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, apperrors.Storage("find user", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	session, err := s.sessions.Create(ctx, user.Principal())
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Logout destroys the session.
func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}
