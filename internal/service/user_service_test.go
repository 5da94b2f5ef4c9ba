package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"natours/internal/model"
)

func TestUserService_UpdateMe(t *testing.T) {
	id := uuid.New()
	repo := new(MockUserRepository)
	repo.On("UpdateFields", mock.Anything, id, map[string]interface{}{"name": "Ann B", "email": "ann@example.com"}).Return(nil)
	repo.On("FindByID", mock.Anything, id).Return(&model.User{ID: id, Name: "Ann B", Email: "ann@example.com"}, nil)

	got, err := NewUserService(repo).UpdateMe(context.Background(), id, UpdateMeInput{
		Name:  ptr("Ann B"),
		Email: ptr(" ANN@example.com"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Ann B", got.Name)
	repo.AssertExpectations(t)
}

func TestUserService_UpdateMePhoto(t *testing.T) {
	id := uuid.New()
	repo := new(MockUserRepository)
	repo.On("UpdateFields", mock.Anything, id, map[string]interface{}{"photo": "user-1.jpeg"}).Return(nil)
	repo.On("FindByID", mock.Anything, id).Return(&model.User{ID: id, Photo: "user-1.jpeg"}, nil)

	got, err := NewUserService(repo).UpdateMe(context.Background(), id, UpdateMeInput{Photo: ptr("user-1.jpeg")})

	require.NoError(t, err)
	assert.Equal(t, "user-1.jpeg", got.Photo)
	repo.AssertExpectations(t)
}

func TestUserService_UpdateMeWithoutFieldsSkipsWrite(t *testing.T) {
	id := uuid.New()
	repo := new(MockUserRepository)
	repo.On("FindByID", mock.Anything, id).Return(&model.User{ID: id}, nil)

	_, err := NewUserService(repo).UpdateMe(context.Background(), id, UpdateMeInput{})
	require.NoError(t, err)
	repo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_UpdateUser(t *testing.T) {
	id := uuid.New()

	t.Run("rejects unknown role", func(t *testing.T) {
		repo := new(MockUserRepository)
		_, err := NewUserService(repo).UpdateUser(context.Background(), id, UpdateUserInput{Role: ptr(model.Role("superuser"))})

		var verr *model.ValidationError
		assert.ErrorAs(t, err, &verr)
		repo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing user", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("UpdateFields", mock.Anything, id, map[string]interface{}{"role": model.RoleGuide}).Return(gorm.ErrRecordNotFound)

		_, err := NewUserService(repo).UpdateUser(context.Background(), id, UpdateUserInput{Role: ptr(model.RoleGuide)})
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestUserService_DeleteMeDeactivates(t *testing.T) {
	id := uuid.New()
	repo := new(MockUserRepository)
	repo.On("Deactivate", mock.Anything, id).Return(nil)

	require.NoError(t, NewUserService(repo).DeleteMe(context.Background(), id))
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
