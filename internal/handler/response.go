package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "natours/internal/errors"
	"natours/internal/middleware"
	"natours/internal/model"
	"natours/internal/service"
)

const (
	statusSuccess = "success"

	loggedOutValue = "loggedOut"
	loggedOutTTL   = 10 * time.Second
)

// SessionResponse is returned by every endpoint that issues a token.
type SessionResponse struct {
	Status string      `json:"status"`
	Token  string      `json:"token"`
	Data   SessionData `json:"data"`
}

// SessionData wraps the authenticated user.
type SessionData struct {
	User *model.User `json:"user"`
}

// DataResponse is the envelope of single document responses.
type DataResponse struct {
	Status string   `json:"status"`
	Data   DataBody `json:"data"`
}

// ListResponse is the envelope of list responses.
type ListResponse struct {
	Status  string   `json:"status"`
	Results int      `json:"results"`
	Data    DataBody `json:"data"`
}

// DataBody holds the payload under "data".
type DataBody struct {
	Data any `json:"data"`
}

// MessageResponse carries a plain status message.
type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func sendData(c echo.Context, code int, data any) error {
	return c.JSON(code, DataResponse{Status: statusSuccess, Data: DataBody{Data: data}})
}

func sendList[T any](c echo.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, ListResponse{Status: statusSuccess, Results: len(items), Data: DataBody{Data: items}})
}

// cookieWriter issues the session cookie alongside the token in the body.
type cookieWriter struct {
	ttl time.Duration
	now func() time.Time
}

func (w cookieWriter) sendSession(c echo.Context, code int, sess *service.Session) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  w.now().Add(w.ttl),
		HttpOnly: true,
		Secure:   isSecure(c),
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(code, SessionResponse{
		Status: statusSuccess,
		Token:  sess.Token,
		Data:   SessionData{User: sess.User},
	})
}

// clearSession overwrites the cookie with a short lived placeholder.
func (w cookieWriter) clearSession(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    loggedOutValue,
		Path:     "/",
		Expires:  w.now().Add(loggedOutTTL),
		HttpOnly: true,
	})
}

// isSecure reports whether the request reached us over TLS, either directly
// or through a proxy that set X-Forwarded-Proto.
func isSecure(c echo.Context) bool {
	return c.Scheme() == "https"
}

func baseURL(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host
}

// paramID parses a UUID path parameter.
func paramID(c echo.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &apperrors.CastError{Path: name, Value: raw}
	}
	return id, nil
}

// bindAndValidate binds the request body and runs the struct validator.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return err
	}
	return c.Validate(dst)
}

func currentUser(c echo.Context) (*model.User, error) {
	user := middleware.CurrentUser(c)
	if user == nil {
		return nil, apperrors.ErrNotLoggedIn
	}
	return user, nil
}
