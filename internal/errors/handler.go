package errors

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// NewHandler returns the global echo error handler. API paths receive JSON;
// other paths render the "error" view. Outside development, messages of
// non-operational errors are replaced by a generic one.
func NewHandler(logger *slog.Logger, development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		httpErr := Translate(err)
		if errors.Is(err, echo.ErrNotFound) {
			httpErr = NewHTTPError(http.StatusNotFound,
				"Can't find "+c.Request().URL.Path+" on this server!", CodeNotFound)
		}

		internal := httpErr.Code == CodeInternal
		if internal {
			logger.Error("unhandled error",
				"error", err,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)
		}

		resp := httpErr.ToErrorResponse()
		if development {
			resp.Error = err.Error()
		}

		var writeErr error
		switch {
		case c.Request().Method == http.MethodHead:
			writeErr = c.NoContent(httpErr.StatusCode)
		case strings.HasPrefix(c.Request().URL.Path, "/api") || c.Echo().Renderer == nil:
			writeErr = c.JSON(httpErr.StatusCode, resp)
		default:
			msg := httpErr.Message
			if internal && !development {
				msg = "Please try again later."
			}
			writeErr = c.Render(httpErr.StatusCode, "error", map[string]any{
				"Title": "Something went wrong!",
				"Msg":   msg,
				"User":  c.Get("user"),
			})
		}
		if writeErr != nil {
			logger.Error("write error response", "error", writeErr)
		}
	}
}
