package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "natours/internal/errors"
	"natours/internal/model"
	"natours/internal/service"
)

// ReviewHandler serves /reviews and the nested /tours/:tourId/reviews.
type ReviewHandler struct {
	svc service.ReviewService
}

// NewReviewHandler creates a review handler.
func NewReviewHandler(svc service.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

// CreateReviewRequest is the review payload. Tour defaults to the :tourId
// path parameter and user to the caller.
type CreateReviewRequest struct {
	Review string     `json:"review"`
	Rating int        `json:"rating"`
	Tour   *uuid.UUID `json:"tour"`
	User   *uuid.UUID `json:"user"`
}

// tourFilter reads the tour from the nested route, then from ?tour=.
func tourFilter(c echo.Context) (*uuid.UUID, error) {
	name, raw := "tourId", c.Param("tourId")
	if raw == "" {
		name, raw = "tour", c.QueryParam("tour")
	}
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, &apperrors.CastError{Path: name, Value: raw}
	}
	return &id, nil
}

// ListReviews godoc
// @Summary List reviews, optionally of one tour
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param tour query string false "Tour ID"
// @Success 200 {object} ListResponse
// @Router /reviews [get]
func (h *ReviewHandler) ListReviews(c echo.Context) error {
	tourID, err := tourFilter(c)
	if err != nil {
		return err
	}
	reviews, err := h.svc.List(c.Request().Context(), tourID)
	if err != nil {
		return err
	}
	return sendList(c, reviews)
}

// GetReview godoc
// @Summary Get review
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 200 {object} DataResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /reviews/{id} [get]
func (h *ReviewHandler) GetReview(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	review, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return sendData(c, http.StatusOK, review)
}

// CreateReview godoc
// @Summary Review a tour
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateReviewRequest true "Review"
// @Success 201 {object} DataResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /reviews [post]
func (h *ReviewHandler) CreateReview(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}
	var req CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	review := &model.Review{Review: req.Review, Rating: req.Rating, UserID: me.ID}
	if req.User != nil {
		review.UserID = *req.User
	}
	if req.Tour != nil {
		review.TourID = *req.Tour
	}
	if c.Param("tourId") != "" {
		pathTour, err := tourFilter(c)
		if err != nil {
			return err
		}
		review.TourID = *pathTour
	}

	created, err := h.svc.Create(c.Request().Context(), review)
	if err != nil {
		return err
	}
	return sendData(c, http.StatusCreated, created)
}

// UpdateReview godoc
// @Summary Update review
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Param request body service.ReviewInput true "Fields to change"
// @Success 200 {object} DataResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /reviews/{id} [patch]
func (h *ReviewHandler) UpdateReview(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in service.ReviewInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	review, err := h.svc.Update(c.Request().Context(), me, id, in)
	if err != nil {
		return err
	}
	return sendData(c, http.StatusOK, review)
}

// DeleteReview godoc
// @Summary Delete review
// @Tags reviews
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), me, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
