// Package middleware holds the authorization chain and HTTP plumbing shared by
// the API and the views.
package middleware

import (
	"context"
	"errors"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"natours/internal/auth"
	apperrors "natours/internal/errors"
	"natours/internal/model"
)

const (
	// UserKey is the echo context key holding the authenticated *model.User.
	UserKey = "user"
	// SessionCookie is the cookie carrying the session token.
	SessionCookie = "jwt"
)

// Authenticator resolves a session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// tokenError marks failures that happened after a token was found, so they
// are not confused with a missing token.
type tokenError struct {
	err error
}

func (e *tokenError) Error() string { return e.err.Error() }
func (e *tokenError) Unwrap() error { return e.err }

// bearerOrCookie reads the token from an Authorization: Bearer header, falling
// back to the session cookie only when no Bearer header was sent.
func bearerOrCookie(c echo.Context) ([]string, error) {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer") {
		if token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer")); token != "" {
			return []string{token}, nil
		}
		return nil, apperrors.ErrNotLoggedIn
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return []string{cookie.Value}, nil
	}
	return nil, apperrors.ErrNotLoggedIn
}

func parseToken(authn Authenticator) func(c echo.Context, token string) (interface{}, error) {
	return func(c echo.Context, token string) (interface{}, error) {
		user, err := authn.Authenticate(c.Request().Context(), token)
		if err != nil {
			return nil, &tokenError{err: err}
		}
		return user, nil
	}
}

// Protect rejects requests without a valid session token and stores the
// resolved user under UserKey.
func Protect(authn Authenticator) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:       UserKey,
		TokenLookupFuncs: []middleware.ValuesExtractor{bearerOrCookie},
		ParseTokenFunc:   parseToken(authn),
		ErrorHandler: func(c echo.Context, err error) error {
			var te *tokenError
			if errors.As(err, &te) {
				return te.err
			}
			return apperrors.ErrNotLoggedIn
		},
	})
}

// IsLoggedIn resolves the session cookie when present and never fails the
// request; anonymous visitors simply have no user in the context.
func IsLoggedIn(authn Authenticator) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:             UserKey,
		TokenLookup:            "cookie:" + SessionCookie,
		ParseTokenFunc:         parseToken(authn),
		ContinueOnIgnoredError: true,
		ErrorHandler: func(echo.Context, error) error {
			return nil
		},
	})
}

// RestrictTo allows only the given roles. It must run after Protect.
func RestrictTo(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil || !auth.Allowed(roles, user.Role) {
				return apperrors.ErrForbidden
			}
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(UserKey).(*model.User)
	return user
}
