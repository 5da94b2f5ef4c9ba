package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"natours/internal/auth"
	apperrors "natours/internal/errors"
	"natours/internal/mail"
	"natours/internal/model"
	"natours/internal/repository"
)

// Notifier delivers account emails. *mail.Dispatcher implements it.
type Notifier interface {
	SendWelcome(ctx context.Context, to mail.Recipient, url string) error
	SendPasswordReset(ctx context.Context, to mail.Recipient, url string) error
}

// Session is the result of every flow that logs a user in.
type Session struct {
	Token string
	User  *model.User
}

// SignupInput carries an already validated signup request.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// AuthService implements the password lifecycle and token resolution.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput, welcomeURL string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error
	ResetPassword(ctx context.Context, token, password string) (*Session, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, current, password string) (*Session, error)
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

type authService struct {
	users    repository.UserRepository
	jwt      *auth.JWTService
	hasher   *auth.Hasher
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, jwtService *auth.JWTService, hasher *auth.Hasher, notifier Notifier, logger *slog.Logger) AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{
		users:    users,
		jwt:      jwtService,
		hasher:   hasher,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func recipient(u *model.User) mail.Recipient {
	return mail.Recipient{Name: u.FirstName(), Email: u.Email}
}

func (s *authService) session(user *model.User) (*Session, error) {
	token, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

// Signup persists a new user with role user and sends the welcome email. A
// failed welcome email does not undo the signup.
func (s *authService) Signup(ctx context.Context, in SignupInput, welcomeURL string) (*Session, error) {
	hash, err := s.hasher.HashPassword(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     in.Name,
		Email:    model.NormalizeEmail(in.Email),
		Role:     model.RoleUser,
		Password: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.notifier.SendWelcome(ctx, recipient(user), welcomeURL); err != nil {
		s.logger.WarnContext(ctx, "welcome email not delivered", "user_id", user.ID, "error", err)
	}
	return s.session(user)
}

// Login returns the same error for an unknown email and a wrong password.
func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, apperrors.ErrMissingCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !s.hasher.VerifyPassword(ctx, password, user.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return s.session(user)
}

// ForgotPassword stores a reset token and mails its plaintext. When delivery
// fails the token is cleared again so it can never be used.
func (s *authService) ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrEmailNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	token, err := auth.GenerateResetToken(s.now())
	if err != nil {
		return err
	}
	user.SetResetToken(token.Hash, token.ExpiresAt)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.notifier.SendPasswordReset(ctx, recipient(user), resetURL(token.Plaintext)); err != nil {
		s.logger.ErrorContext(ctx, "password reset email not delivered", "user_id", user.ID, "error", err)
		user.ClearResetToken()
		// The send may have failed because the client went away; the
		// rollback must still land.
		if uerr := s.users.Update(context.WithoutCancel(ctx), user); uerr != nil {
			return fmt.Errorf("clear reset token: %w", uerr)
		}
		return fmt.Errorf("%w: %v", apperrors.ErrEmailDelivery, err)
	}
	return nil
}

// ResetPassword consumes a reset token. The token is cleared in the same
// write that stores the new password, so it works at most once.
func (s *authService) ResetPassword(ctx context.Context, token, password string) (*Session, error) {
	now := s.now()
	user, err := s.users.FindByResetToken(ctx, auth.HashResetToken(token), now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidResetToken
		}
		return nil, fmt.Errorf("find reset token: %w", err)
	}

	hash, err := s.hasher.HashPassword(ctx, password)
	if err != nil {
		return nil, err
	}
	user.SetPassword(hash, now)
	user.ClearResetToken()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}
	return s.session(user)
}

// UpdatePassword changes the password of a logged in user after checking the
// current one.
func (s *authService) UpdatePassword(ctx context.Context, userID uuid.UUID, current, password string) (*Session, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserGone
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !s.hasher.VerifyPassword(ctx, current, user.Password) {
		return nil, apperrors.ErrWrongPassword
	}

	hash, err := s.hasher.HashPassword(ctx, password)
	if err != nil {
		return nil, err
	}
	user.SetPassword(hash, s.now())
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}
	return s.session(user)
}

// Authenticate resolves a session token to its active user. Token errors are
// the auth package sentinels; a vanished user or a password changed after the
// token was issued are reported as ErrUserGone and ErrPasswordChanged.
func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserGone
		}
		return nil, fmt.Errorf("load token user: %w", err)
	}
	if user.ChangedPasswordAfter(claims.IssuedAtTime()) {
		return nil, apperrors.ErrPasswordChanged
	}
	return user, nil
}
