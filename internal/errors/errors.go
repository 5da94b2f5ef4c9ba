package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingCredentials is returned when login omits email or password.
	ErrMissingCredentials = errors.New("missing email or password")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNotLoggedIn is returned when a protected route receives no token.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrUserGone is returned when a token's subject no longer resolves to an active user.
	ErrUserGone = errors.New("token user no longer exists")
	// ErrPasswordChanged is returned for tokens issued before the last password change.
	ErrPasswordChanged = errors.New("password changed after token was issued")
	// ErrForbidden is returned when the caller's role is not permitted.
	ErrForbidden = errors.New("forbidden")
	// ErrEmailNotFound is returned by forgot-password for unknown addresses.
	ErrEmailNotFound = errors.New("no user with that email")
	// ErrEmailDelivery is returned when a notification could not be delivered.
	ErrEmailDelivery = errors.New("email delivery failed")
	// ErrInvalidResetToken is returned for unknown, used or expired reset tokens.
	ErrInvalidResetToken = errors.New("reset token is invalid or expired")
	// ErrWrongPassword is returned when the current password does not match.
	ErrWrongPassword = errors.New("current password is wrong")
	// ErrPasswordUpdateNotAllowed is returned when updateMe receives password fields.
	ErrPasswordUpdateNotAllowed = errors.New("password update not allowed on this route")
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidLatLng is returned for malformed geo coordinates.
	ErrInvalidLatLng = errors.New("invalid latitude/longitude")
	// ErrTooManyRequests is returned by the API rate limiter.
	ErrTooManyRequests = errors.New("too many requests")
	// ErrPaymentUnavailable is returned when no payment gateway is configured.
	ErrPaymentUnavailable = errors.New("payment gateway unavailable")
	// ErrInvalidWebhook is returned when a payment webhook fails verification.
	ErrInvalidWebhook = errors.New("invalid webhook")
	// ErrNotAnImage is returned when an upload is not a decodable image.
	ErrNotAnImage = errors.New("not an image")
	// ErrTooManyImages is returned when a tour upload carries more gallery images than allowed.
	ErrTooManyImages = errors.New("too many images")
)

const (
	CodeBadRequest            = "BAD_REQUEST"
	CodeUnauthenticated       = "UNAUTHENTICATED"
	CodeForbidden             = "FORBIDDEN"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeNotFound              = "NOT_FOUND"
	CodeEmailDeliveryFailed   = "EMAIL_DELIVERY_FAILED"
	CodeInvalidOrExpiredToken = "INVALID_OR_EXPIRED_TOKEN"
	CodeWrongPassword         = "WRONG_PASSWORD"
	CodeInvalidToken          = "INVALID_TOKEN"
	CodeExpiredToken          = "EXPIRED_TOKEN"
	CodeValidation            = "VALIDATION_ERROR"
	CodeDuplicate             = "DUPLICATE_VALUE"
	CodeCast                  = "INVALID_ID"
	CodeTooManyRequests       = "TOO_MANY_REQUESTS"
	CodeServiceUnavailable    = "SERVICE_UNAVAILABLE"
	CodeInternal              = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HTTPError is an operational error: a status and a message that is safe to
// show to clients.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// Status returns "fail" for client errors and "error" for server errors.
func (e *HTTPError) Status() string {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return "fail"
	}
	return "error"
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Status:  e.Status(),
		Message: e.Message,
		Code:    e.Code,
	}
}

// CastError reports a path or query value that is not a valid identifier.
type CastError struct {
	Path  string
	Value string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("Invalid %s: %s.", e.Path, e.Value)
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unknown errors yield nil.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return NewHTTPError(http.StatusBadRequest, "Please provide email and password!", CodeBadRequest)
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, "Incorrect email or password", CodeInvalidCredentials)
	case errors.Is(err, ErrNotLoggedIn):
		return NewHTTPError(http.StatusUnauthorized, "You are not logged in! Please log in to get access.", CodeUnauthenticated)
	case errors.Is(err, ErrUserGone):
		return NewHTTPError(http.StatusUnauthorized, "The user belonging to this token does no longer exist.", CodeUnauthenticated)
	case errors.Is(err, ErrPasswordChanged):
		return NewHTTPError(http.StatusUnauthorized, "User recently changed password! Please log in again.", CodeUnauthenticated)
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, "You do not have permission to perform this action", CodeForbidden)
	case errors.Is(err, ErrEmailNotFound):
		return NewHTTPError(http.StatusNotFound, "There is no user with email address.", CodeNotFound)
	case errors.Is(err, ErrEmailDelivery):
		return NewHTTPError(http.StatusInternalServerError, "There was an error sending the email. Try again later!", CodeEmailDeliveryFailed)
	case errors.Is(err, ErrInvalidResetToken):
		return NewHTTPError(http.StatusBadRequest, "Token is invalid or has expired", CodeInvalidOrExpiredToken)
	case errors.Is(err, ErrWrongPassword):
		return NewHTTPError(http.StatusUnauthorized, "Your current password is wrong.", CodeWrongPassword)
	case errors.Is(err, ErrPasswordUpdateNotAllowed):
		return NewHTTPError(http.StatusBadRequest, "This route is not for password updates. Please use /updateMyPassword.", CodeBadRequest)
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "No document found with that ID", CodeNotFound)
	case errors.Is(err, ErrInvalidLatLng):
		return NewHTTPError(http.StatusBadRequest, "Please provide latitude and longitude in the format lat,lng.", CodeBadRequest)
	case errors.Is(err, ErrTooManyRequests):
		return NewHTTPError(http.StatusTooManyRequests, "Too many requests from this IP, please try again in an hour!", CodeTooManyRequests)
	case errors.Is(err, ErrInvalidWebhook):
		return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Webhook error: %v", err), CodeBadRequest)
	case errors.Is(err, ErrNotAnImage):
		return NewHTTPError(http.StatusBadRequest, "Not an image! Please upload only images.", CodeBadRequest)
	case errors.Is(err, ErrTooManyImages):
		return NewHTTPError(http.StatusBadRequest, "A tour takes at most 3 images.", CodeBadRequest)
	case errors.Is(err, ErrPaymentUnavailable):
		return NewHTTPError(http.StatusServiceUnavailable, "Payments are currently unavailable.", CodeServiceUnavailable)
	default:
		return nil
	}
}
