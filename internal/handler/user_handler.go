package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "natours/internal/errors"
	"natours/internal/model"
	"natours/internal/repository"
	"natours/internal/service"
)

// UserHandler bundles the self-service and admin user endpoints.
type UserHandler struct {
	svc    service.UserService
	images ImageStore
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService, images ImageStore) *UserHandler {
	return &UserHandler{svc: svc, images: images}
}

// UpdateMeRequest carries the fields a user may change on their own
// account. Password fields are accepted only to be rejected.
type UpdateMeRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"passwordConfirm"`
}

// UpdateUserRequest is the admin update payload. Passwords cannot be set here.
type UpdateUserRequest struct {
	Name  *string     `json:"name" validate:"omitempty,min=1"`
	Email *string     `json:"email" validate:"omitempty,email"`
	Photo *string     `json:"photo"`
	Role  *model.Role `json:"role"`
}

// GetMe godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} DataResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) GetMe(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetUser(c.Request().Context(), me.ID)
	if err != nil {
		return err
	}
	return sendData(c, http.StatusOK, user)
}

// UpdateMe godoc
// @Summary Update name, email or photo of the current user
// @Description Accepts JSON, or multipart/form-data with name, email and a photo file cropped to 500x500.
// @Tags users
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body UpdateMeRequest true "Fields to change"
// @Success 200 {object} DataResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /users/updateMe [patch]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}
	var (
		req   UpdateMeRequest
		photo *multipart.FileHeader
	)
	if isMultipart(c) {
		form, err := multipartForm(c)
		if err != nil {
			return err
		}
		req = UpdateMeRequest{
			Name:            formValue(form, "name"),
			Email:           formValue(form, "email"),
			Password:        formValue(form, "password"),
			PasswordConfirm: formValue(form, "passwordConfirm"),
		}
		photo = formFile(form, "photo")
		if err := c.Validate(&req); err != nil {
			return err
		}
	} else if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Password != nil || req.PasswordConfirm != nil {
		return apperrors.ErrPasswordUpdateNotAllowed
	}

	in := service.UpdateMeInput{Name: req.Name, Email: req.Email}
	if photo != nil {
		name, err := h.images.UserPhoto(me.ID, photo)
		if err != nil {
			return err
		}
		in.Photo = &name
	}
	user, err := h.svc.UpdateMe(c.Request().Context(), me.ID, in)
	if err != nil {
		return err
	}
	return sendData(c, http.StatusOK, user)
}

// DeleteMe godoc
// @Summary Deactivate the current user
// @Tags users
// @Security BearerAuth
// @Success 204
// @Router /users/deleteMe [delete]
func (h *UserHandler) DeleteMe(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteMe(c.Request().Context(), me.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param sort query string false "Comma separated sort fields"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} ListResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context(), repository.ParseQuery(c.QueryParams(), repository.UserColumns))
	if err != nil {
		return err
	}
	return sendList(c, users)
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} DataResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return sendData(c, http.StatusOK, user)
}

// UpdateUser godoc
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body UpdateUserRequest true "Fields to change"
// @Success 200 {object} DataResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [patch]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.svc.UpdateUser(c.Request().Context(), id, service.UpdateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Photo: req.Photo,
		Role:  req.Role,
	})
	if err != nil {
		return err
	}
	return sendData(c, http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags users
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteUser(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
