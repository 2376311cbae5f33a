package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "membership/internal/errors"
	"membership/internal/model"
	"membership/internal/repository"
)

// UserService exposes user lookups and the admin role operations.
type UserService interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	Promote(ctx context.Context, email string) error
	Demote(ctx context.Context, email string) error
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService builds a UserService on top of the credential store.
// Lookups always hit the store so role checks see the current value.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, apperrors.Storage("find user", err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Storage("list users", err)
	}
	return users, nil
}

// Promote grants the admin role. Unknown emails are a no-op.
func (s *userService) Promote(ctx context.Context, email string) error {
	return s.setRole(ctx, email, model.RoleAdmin)
}

// Demote reverts to the user role. Unknown emails are a no-op, and an admin may demote themselves.
func (s *userService) Demote(ctx context.Context, email string) error {
	return s.setRole(ctx, email, model.RoleUser)
}

func (s *userService) setRole(ctx context.Context, email string, role model.Role) error {
	if _, err := s.repo.UpdateRole(ctx, email, role); err != nil {
		return apperrors.Storage("update role", err)
	}
	return nil
}
