package errors

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"natours/internal/auth"
	"natours/internal/model"
)

const mysqlDuplicateEntry = 1062

var quotedValue = regexp.MustCompile(`'([^']*)'`)

// Translate turns any error into an HTTPError. Known fault shapes become
// operational errors with tailored messages; everything else becomes a
// generic 500 with CodeInternal.
func Translate(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	if mapped := MapErrorToHTTP(err); mapped != nil {
		return mapped
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return NewHTTPError(http.StatusUnauthorized, "Your token has expired! Please log in again.", CodeExpiredToken)
	case errors.Is(err, auth.ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, "Invalid token. Please log in again!", CodeInvalidToken)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NewHTTPError(http.StatusNotFound, "No document found with that ID", CodeNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return NewHTTPError(http.StatusBadRequest, "Duplicate field value. Please use another value!", CodeDuplicate)
	}

	var castErr *CastError
	if errors.As(err, &castErr) {
		return NewHTTPError(http.StatusBadRequest, castErr.Error(), CodeCast)
	}

	var modelErr *model.ValidationError
	if errors.As(err, &modelErr) {
		return NewHTTPError(http.StatusBadRequest, modelErr.Error(), CodeValidation)
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return NewHTTPError(http.StatusBadRequest, "Invalid input data. "+strings.Join(msgs, ". "), CodeValidation)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		value := ""
		if m := quotedValue.FindStringSubmatch(mysqlErr.Message); m != nil {
			value = m[1]
		}
		return NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("Duplicate field value: %s. Please use another value!", value), CodeDuplicate)
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		msg := http.StatusText(echoErr.Code)
		if s, ok := echoErr.Message.(string); ok && s != "" {
			msg = s
		}
		code := CodeBadRequest
		if echoErr.Code >= 500 {
			code = CodeInternal
		}
		return NewHTTPError(echoErr.Code, msg, code)
	}

	return NewHTTPError(http.StatusInternalServerError, "Something went very wrong!", CodeInternal)
}

// fieldMessage renders one validator failure in plain words. Field names are
// the JSON names registered on the validator.
func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "Please provide your " + field
	case "email":
		return "Please provide a valid email"
	case "eqfield":
		return "Passwords are not the same!"
	case "min":
		return fmt.Sprintf("%s must have at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must have at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s is either: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte", "lte", "gt", "lt":
		return fmt.Sprintf("%s must be %s %s", field, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
