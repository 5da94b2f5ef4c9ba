package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"natours/internal/model"
	"natours/internal/repository"
)

// UpdateMeInput holds the profile fields a user may change about themselves.
type UpdateMeInput struct {
	Name  *string
	Email *string
	Photo *string
}

// UpdateUserInput holds the fields an administrator may change. Passwords are
// never updated through it.
type UpdateUserInput struct {
	Name  *string
	Email *string
	Photo *string
	Role  *model.Role
}

// UserService exposes user management operations.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context, q repository.Query) ([]model.User, error)
	UpdateMe(ctx context.Context, id uuid.UUID, in UpdateMeInput) (*model.User, error)
	DeleteMe(ctx context.Context, id uuid.UUID) error
	UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService builds a UserService.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *userService) ListUsers(ctx context.Context, q repository.Query) ([]model.User, error) {
	return s.repo.List(ctx, q)
}

func (s *userService) UpdateMe(ctx context.Context, id uuid.UUID, in UpdateMeInput) (*model.User, error) {
	fields := map[string]interface{}{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Email != nil {
		fields["email"] = model.NormalizeEmail(*in.Email)
	}
	if in.Photo != nil {
		fields["photo"] = *in.Photo
	}
	return s.update(ctx, id, fields)
}

func (s *userService) DeleteMe(ctx context.Context, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, id)
}

func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*model.User, error) {
	fields := map[string]interface{}{}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Email != nil {
		fields["email"] = model.NormalizeEmail(*in.Email)
	}
	if in.Photo != nil {
		fields["photo"] = *in.Photo
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, &model.ValidationError{Messages: []string{"Role is either: user, guide, lead-guide, admin"}}
		}
		fields["role"] = *in.Role
	}
	return s.update(ctx, id, fields)
}

func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *userService) update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*model.User, error) {
	if len(fields) > 0 {
		if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	return s.repo.FindByID(ctx, id)
}
