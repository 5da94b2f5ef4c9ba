package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	apperrors "natours/internal/errors"
	"natours/internal/middleware"
	"natours/internal/service"
)

var alerts = map[string]string{
	"booking": "Your booking was successful! Please check your email for a confirmation. " +
		"If your booking doesn't show up here immediately, please come back later.",
}

// ViewHandler renders the HTML pages.
type ViewHandler struct {
	tours    service.TourService
	bookings service.BookingService
}

// NewViewHandler creates a view handler.
func NewViewHandler(tours service.TourService, bookings service.BookingService) *ViewHandler {
	return &ViewHandler{tours: tours, bookings: bookings}
}

// page builds the template data shared by every view.
func page(c echo.Context, title string) map[string]any {
	data := map[string]any{"Title": title}
	if user := middleware.CurrentUser(c); user != nil {
		data["User"] = user
	}
	if alert, ok := alerts[c.QueryParam("alert")]; ok {
		data["Alert"] = alert
	}
	return data
}

// Overview lists every tour.
func (h *ViewHandler) Overview(c echo.Context) error {
	tours, err := h.tours.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	data := page(c, "All Tours")
	data["Tours"] = tours
	return c.Render(http.StatusOK, "overview", data)
}

// Tour shows one tour with its guides and reviews.
func (h *ViewHandler) Tour(c echo.Context) error {
	tour, err := h.tours.GetBySlug(c.Request().Context(), c.Param("slug"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewHTTPError(http.StatusNotFound, "There is no tour with that name.", apperrors.CodeNotFound)
	}
	if err != nil {
		return err
	}
	data := page(c, tour.Name+" Tour")
	data["Tour"] = tour
	return c.Render(http.StatusOK, "tour", data)
}

// Login renders the login form.
func (h *ViewHandler) Login(c echo.Context) error {
	return c.Render(http.StatusOK, "login", page(c, "Log into your account"))
}

// Account renders the settings page of the logged-in user.
func (h *ViewHandler) Account(c echo.Context) error {
	return c.Render(http.StatusOK, "account", page(c, "Your account"))
}

// MyTours lists the tours the logged-in user booked.
func (h *ViewHandler) MyTours(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}
	tours, err := h.bookings.MyTours(c.Request().Context(), me.ID)
	if err != nil {
		return err
	}
	data := page(c, "My Tours")
	data["Tours"] = tours
	return c.Render(http.StatusOK, "my-tours", data)
}
