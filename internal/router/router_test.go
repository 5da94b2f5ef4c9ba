package router

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"natours/internal/auth"
	"natours/internal/config"
	"natours/internal/handler"
	"natours/internal/metrics"
	"natours/internal/model"
	"natours/internal/views"
)

type tokenAuthenticator map[string]*model.User

func (a tokenAuthenticator) Authenticate(_ context.Context, token string) (*model.User, error) {
	if u, ok := a[token]; ok {
		return u, nil
	}
	return nil, auth.ErrInvalidToken
}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	renderer, err := views.New()
	require.NoError(t, err)

	cfg := &config.Config{
		AppEnv:          config.EnvProduction,
		PublicDir:       t.TempDir(),
		RateLimitMax:    100,
		RateLimitWindow: time.Hour,
	}
	e := echo.New()
	Register(e, Deps{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Authenticator: tokenAuthenticator{
			"user":  {ID: uuid.New(), Name: "Ann", Role: model.RoleUser},
			"guide": {ID: uuid.New(), Name: "Gus", Role: model.RoleGuide},
		},
		Metrics:  metrics.New(),
		Renderer: renderer,
	}, Handlers{
		Auth:    handler.NewAuthHandler(nil, time.Hour),
		User:    handler.NewUserHandler(nil, nil),
		Tour:    handler.NewTourHandler(nil, nil),
		Review:  handler.NewReviewHandler(nil),
		Booking: handler.NewBookingHandler(nil),
		View:    handler.NewViewHandler(nil, nil),
	})
	return e
}

func TestRoutes_Authorization(t *testing.T) {
	e := newServer(t)

	tests := []struct {
		name       string
		method     string
		target     string
		token      string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, target: "/healthz", wantStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, target: "/metrics", wantStatus: http.StatusOK},
		{name: "logout is public", method: http.MethodGet, target: "/api/v1/users/logout", wantStatus: http.StatusOK},
		{name: "me needs a token", method: http.MethodGet, target: "/api/v1/users/me", wantStatus: http.StatusUnauthorized},
		{name: "bad token", method: http.MethodGet, target: "/api/v1/users/me", token: "forged", wantStatus: http.StatusUnauthorized},
		{name: "admin route as user", method: http.MethodGet, target: "/api/v1/users", token: "user", wantStatus: http.StatusForbidden},
		{name: "tour create as guide", method: http.MethodPost, target: "/api/v1/tours", token: "guide", wantStatus: http.StatusForbidden},
		{name: "monthly plan as user", method: http.MethodGet, target: "/api/v1/tours/monthly-plan/2021", token: "user", wantStatus: http.StatusForbidden},
		{name: "review create as guide", method: http.MethodPost, target: "/api/v1/reviews", token: "guide", wantStatus: http.StatusForbidden},
		{name: "bookings list as user", method: http.MethodGet, target: "/api/v1/bookings", token: "user", wantStatus: http.StatusForbidden},
		{name: "checkout needs a token", method: http.MethodGet, target: "/api/v1/bookings/checkout-session/x", wantStatus: http.StatusUnauthorized},
		{name: "unknown api route", method: http.MethodGet, target: "/api/v1/nothing", wantStatus: http.StatusNotFound},
		{name: "account view needs a token", method: http.MethodGet, target: "/me", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.token != "" {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRoutes_ErrorFormats(t *testing.T) {
	e := newServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nothing", nil))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
	assert.Contains(t, rec.Body.String(), "Can't find /api/v1/nothing on this server!")

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Contains(t, rec.Body.String(), "<title>Natours | Something went wrong!</title>")
	assert.Contains(t, rec.Body.String(), "You are not logged in!")
}

func TestRoutes_SecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestRoutes_BodyLimits(t *testing.T) {
	e := newServer(t)
	big := strings.Repeat("x", 20<<10)

	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
		chunked     bool
		wantStatus  int
	}{
		{name: "json over api limit", method: http.MethodPatch, target: "/api/v1/users/updateMe",
			contentType: echo.MIMEApplicationJSON, body: `{"name":"` + big + `"}`, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "multipart upload passes api limit", method: http.MethodPatch, target: "/api/v1/users/updateMe",
			contentType: echo.MIMEMultipartForm + "; boundary=x", body: big, wantStatus: http.StatusUnauthorized},
		{name: "webhook over its cap", method: http.MethodPost, target: "/api/v1/bookings/webhook-checkout",
			contentType: echo.MIMEApplicationJSON, body: strings.Repeat("x", 100<<10), wantStatus: http.StatusRequestEntityTooLarge},
		{name: "webhook over its cap without length", method: http.MethodPost, target: "/api/v1/bookings/webhook-checkout",
			contentType: echo.MIMEApplicationJSON, body: strings.Repeat("x", 100<<10), chunked: true, wantStatus: http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, tt.contentType)
			if tt.chunked {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestValidator_UsesJSONNames(t *testing.T) {
	type body struct {
		PasswordConfirm string `json:"passwordConfirm" validate:"required"`
	}
	err := NewValidator().Validate(&body{})
	require.Error(t, err)

	var fieldErrs validator.ValidationErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "passwordConfirm", fieldErrs[0].Field())
}
