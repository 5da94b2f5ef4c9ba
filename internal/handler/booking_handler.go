package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"natours/internal/payment"
	"natours/internal/service"
)

const stripeSignatureHeader = "Stripe-Signature"

// BookingHandler serves checkout, the payment webhook and booking CRUD.
type BookingHandler struct {
	svc service.BookingService
}

// NewBookingHandler creates a booking handler.
func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

// CheckoutResponse carries the hosted checkout session.
type CheckoutResponse struct {
	Status  string           `json:"status"`
	Session *payment.Session `json:"session"`
}

// CheckoutSession godoc
// @Summary Start a checkout for a tour
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param tourId path string true "Tour ID"
// @Success 200 {object} CheckoutResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /bookings/checkout-session/{tourId} [get]
func (h *BookingHandler) CheckoutSession(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}
	tourID, err := paramID(c, "tourId")
	if err != nil {
		return err
	}
	sess, err := h.svc.Checkout(c.Request().Context(), me, tourID, baseURL(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CheckoutResponse{Status: statusSuccess, Session: sess})
}

// WebhookCheckout godoc
// @Summary Payment provider webhook
// @Description Verifies the Stripe-Signature header over the raw body and books the tour on checkout.session.completed.
// @Tags bookings
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 400 {object} errors.ErrorResponse
// @Router /bookings/webhook-checkout [post]
func (h *BookingHandler) WebhookCheckout(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}
	if err := h.svc.HandleWebhook(c.Request().Context(), payload, c.Request().Header.Get(stripeSignatureHeader)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

// ListBookings godoc
// @Summary List bookings
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ListResponse
// @Router /bookings [get]
func (h *BookingHandler) ListBookings(c echo.Context) error {
	bookings, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return sendList(c, bookings)
}

// GetBooking godoc
// @Summary Get booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} DataResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	booking, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return sendData(c, http.StatusOK, booking)
}

// CreateBooking godoc
// @Summary Create booking
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.BookingInput true "Booking"
// @Success 201 {object} DataResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var in service.BookingInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	booking, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return sendData(c, http.StatusCreated, booking)
}

// UpdateBooking godoc
// @Summary Update booking
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body service.BookingInput true "Fields to change"
// @Success 200 {object} DataResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /bookings/{id} [patch]
func (h *BookingHandler) UpdateBooking(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in service.BookingInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	booking, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return sendData(c, http.StatusOK, booking)
}

// DeleteBooking godoc
// @Summary Delete booking
// @Tags bookings
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /bookings/{id} [delete]
func (h *BookingHandler) DeleteBooking(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
