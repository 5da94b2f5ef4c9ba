package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ImageStore persists uploaded images and returns the stored file names.
// *media.Store implements it.
type ImageStore interface {
	UserPhoto(userID uuid.UUID, fh *multipart.FileHeader) (string, error)
	TourImages(tourID uuid.UUID, cover *multipart.FileHeader, images []*multipart.FileHeader) (string, []string, error)
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// multipartForm parses the request as multipart/form-data. A body over the
// route limit keeps its 413.
func multipartForm(c echo.Context) (*multipart.Form, error) {
	form, err := c.MultipartForm()
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, he
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Malformed multipart form.")
	}
	return form, nil
}

func formValue(form *multipart.Form, name string) *string {
	if v := form.Value[name]; len(v) > 0 {
		return &v[0]
	}
	return nil
}

func formFile(form *multipart.Form, name string) *multipart.FileHeader {
	if files := form.File[name]; len(files) > 0 {
		return files[0]
	}
	return nil
}
