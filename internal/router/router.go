package router

import (
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"natours/internal/config"
	apperrors "natours/internal/errors"
	"natours/internal/handler"
	"natours/internal/logging"
	"natours/internal/metrics"
	appmw "natours/internal/middleware"
	"natours/internal/model"
)

const (
	webhookPath = "/api/v1/bookings/webhook-checkout"

	apiBodyLimit     = "10K"
	webhookBodyLimit = "64K"
	uploadBodyLimit  = "10M"
)

// uploadPaths take multipart image uploads under uploadBodyLimit instead of
// the API-wide limit.
var uploadPaths = map[string]bool{
	"/api/v1/users/updateMe": true,
	"/api/v1/tours/:id":      true,
}

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Tour    *handler.TourHandler
	Review  *handler.ReviewHandler
	Booking *handler.BookingHandler
	View    *handler.ViewHandler
}

// Deps are the collaborators of the middleware chain.
type Deps struct {
	Config        *config.Config
	Logger        *slog.Logger
	Authenticator appmw.Authenticator
	Counter       appmw.Counter
	Metrics       *metrics.HTTP
	Renderer      echo.Renderer
}

// Register wires routes and middleware.
func Register(e *echo.Echo, d Deps, h Handlers) {
	cfg := d.Config

	e.Validator = NewValidator()
	e.Renderer = d.Renderer
	e.HTTPErrorHandler = apperrors.NewHandler(d.Logger, !cfg.IsProduction())

	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(d.Logger))
	e.Use(middleware.Recover())
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	e.Use(middleware.Secure())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
		Limit: apiBodyLimit,
		Skipper: func(c echo.Context) bool {
			if c.Path() == webhookPath {
				return true
			}
			return uploadPaths[c.Path()] &&
				strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
		},
	}))
	e.Use(middleware.Gzip())
	e.Use(middleware.Static(cfg.PublicDir))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	protect := appmw.Protect(d.Authenticator)
	isLoggedIn := appmw.IsLoggedIn(d.Authenticator)
	restrictTo := appmw.RestrictTo

	// Views
	e.GET("/", h.View.Overview, isLoggedIn)
	e.GET("/tour/:slug", h.View.Tour, isLoggedIn)
	e.GET("/login", h.View.Login, isLoggedIn)
	e.GET("/me", h.View.Account, protect)
	e.GET("/my-tours", h.View.MyTours, protect)

	api := e.Group("/api", appmw.RateLimit(d.Counter, cfg.RateLimitMax, cfg.RateLimitWindow, d.Logger))
	v1 := api.Group("/v1")

	// Users
	users := v1.Group("/users")
	users.POST("/signup", h.Auth.Signup)
	users.POST("/login", h.Auth.Login)
	users.GET("/logout", h.Auth.Logout)
	users.POST("/forgotPassword", h.Auth.ForgotPassword)
	users.PATCH("/resetPassword/:token", h.Auth.ResetPassword)

	users.PATCH("/updateMyPassword", h.Auth.UpdatePassword, protect)
	users.GET("/me", h.User.GetMe, protect)
	users.PATCH("/updateMe", h.User.UpdateMe, protect, middleware.BodyLimit(uploadBodyLimit))
	users.DELETE("/deleteMe", h.User.DeleteMe, protect)

	adminOnly := []echo.MiddlewareFunc{protect, restrictTo(model.RoleAdmin)}
	users.GET("", h.User.ListUsers, adminOnly...)
	users.GET("/:id", h.User.GetUser, adminOnly...)
	users.PATCH("/:id", h.User.UpdateUser, adminOnly...)
	users.DELETE("/:id", h.User.DeleteUser, adminOnly...)

	// Tours
	tourEditors := []echo.MiddlewareFunc{protect, restrictTo(model.RoleAdmin, model.RoleLeadGuide)}
	tours := v1.Group("/tours")
	tours.GET("", h.Tour.ListTours)
	tours.GET("/top-5-cheap", h.Tour.TopCheap)
	tours.GET("/top-stats", h.Tour.Stats)
	tours.GET("/monthly-plan/:year", h.Tour.MonthlyPlan,
		protect, restrictTo(model.RoleAdmin, model.RoleLeadGuide, model.RoleGuide))
	tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", h.Tour.ToursWithin)
	tours.GET("/distances/:latlng/unit/:unit", h.Tour.Distances)
	tours.GET("/:id", h.Tour.GetTour)
	tours.POST("", h.Tour.CreateTour, tourEditors...)
	tours.PATCH("/:id", h.Tour.UpdateTour, protect, restrictTo(model.RoleAdmin, model.RoleLeadGuide), middleware.BodyLimit(uploadBodyLimit))
	tours.DELETE("/:id", h.Tour.DeleteTour, tourEditors...)

	tours.GET("/:tourId/reviews", h.Review.ListReviews, protect)
	tours.POST("/:tourId/reviews", h.Review.CreateReview, protect, restrictTo(model.RoleUser))

	// Reviews
	reviews := v1.Group("/reviews", protect)
	reviews.GET("", h.Review.ListReviews)
	reviews.POST("", h.Review.CreateReview, restrictTo(model.RoleUser))
	reviews.GET("/:id", h.Review.GetReview)
	reviews.PATCH("/:id", h.Review.UpdateReview, restrictTo(model.RoleUser, model.RoleAdmin))
	reviews.DELETE("/:id", h.Review.DeleteReview, restrictTo(model.RoleUser, model.RoleAdmin))

	// Bookings. The webhook is called by the payment provider and carries no
	// session. Its raw body is verified as a whole, so it gets its own cap.
	e.POST(webhookPath, h.Booking.WebhookCheckout, middleware.BodyLimit(webhookBodyLimit))

	bookingAdmins := []echo.MiddlewareFunc{protect, restrictTo(model.RoleAdmin, model.RoleLeadGuide)}
	bookings := v1.Group("/bookings")
	bookings.GET("/checkout-session/:tourId", h.Booking.CheckoutSession, protect)
	bookings.GET("", h.Booking.ListBookings, bookingAdmins...)
	bookings.POST("", h.Booking.CreateBooking, bookingAdmins...)
	bookings.GET("/:id", h.Booking.GetBooking, bookingAdmins...)
	bookings.PATCH("/:id", h.Booking.UpdateBooking, bookingAdmins...)
	bookings.DELETE("/:id", h.Booking.DeleteBooking, bookingAdmins...)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator reports field errors under their JSON names.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
