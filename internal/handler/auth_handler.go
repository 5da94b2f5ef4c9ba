package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"natours/internal/service"
)

// AuthHandler handles signup, login and password flows.
type AuthHandler struct {
	authService service.AuthService
	cookies     cookieWriter
}

// NewAuthHandler creates a new auth handler. cookieTTL is the lifetime of
// the session cookie.
func NewAuthHandler(authService service.AuthService, cookieTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookies:     cookieWriter{ttl: cookieTTL, now: time.Now},
	}
}

// SignupRequest represents a user registration request.
type SignupRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// LoginRequest represents a user login request. Missing fields are reported
// by the service so the response matches the credentials check.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest asks for a reset token.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest sets a new password with a reset token.
type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// UpdatePasswordRequest changes the password of the logged-in user.
type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// Signup godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup data"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sess, err := h.authService.Signup(c.Request().Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, baseURL(c)+"/me")
	if err != nil {
		return err
	}
	return h.cookies.sendSession(c, http.StatusCreated, sess)
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	sess, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.cookies.sendSession(c, http.StatusOK, sess)
}

// Logout godoc
// @Summary Logout user
// @Description Replaces the session cookie with a placeholder that expires in ten seconds.
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /users/logout [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.cookies.clearSession(c)
	return c.JSON(http.StatusOK, MessageResponse{Status: statusSuccess})
}

// ForgotPassword godoc
// @Summary Send a password reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Account email"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/forgotPassword [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	base := baseURL(c)
	err := h.authService.ForgotPassword(c.Request().Context(), req.Email, func(token string) string {
		return base + "/api/v1/users/resetPassword/" + token
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Status: statusSuccess, Message: "Token sent to email!"})
}

// ResetPassword godoc
// @Summary Reset the password with an emailed token
// @Tags auth
// @Accept json
// @Produce json
// @Param token path string true "Reset token"
// @Param request body ResetPasswordRequest true "New password"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /users/resetPassword/{token} [patch]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sess, err := h.authService.ResetPassword(c.Request().Context(), c.Param("token"), req.Password)
	if err != nil {
		return err
	}
	return h.cookies.sendSession(c, http.StatusOK, sess)
}

// UpdatePassword godoc
// @Summary Change the password of the logged-in user
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdatePasswordRequest true "Current and new password"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/updateMyPassword [patch]
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req UpdatePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sess, err := h.authService.UpdatePassword(c.Request().Context(), user.ID, req.PasswordCurrent, req.Password)
	if err != nil {
		return err
	}
	return h.cookies.sendSession(c, http.StatusOK, sess)
}
