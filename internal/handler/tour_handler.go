package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "natours/internal/errors"
	"natours/internal/repository"
	"natours/internal/service"
)

// topCheapQuery backs the /top-5-cheap alias.
var topCheapQuery = url.Values{
	"limit":  {"5"},
	"sort":   {"-ratingsAverage,price"},
	"fields": {"name,price,ratingsAverage,summary,difficulty"},
}

// TourHandler serves the tour resource and its aggregates.
type TourHandler struct {
	svc    service.TourService
	images ImageStore
}

// NewTourHandler creates a tour handler.
func NewTourHandler(svc service.TourService, images ImageStore) *TourHandler {
	return &TourHandler{svc: svc, images: images}
}

// ListTours godoc
// @Summary List tours
// @Description Supports field[gte|gt|lte|lt]=value filters, sort, fields, page and limit.
// @Tags tours
// @Produce json
// @Param sort query string false "Comma separated sort fields, prefix - for descending"
// @Param fields query string false "Comma separated fields to return"
// @Param page query int false "Page, default 1"
// @Param limit query int false "Page size, default 100"
// @Success 200 {object} ListResponse
// @Router /tours [get]
func (h *TourHandler) ListTours(c echo.Context) error {
	return h.list(c, c.QueryParams())
}

// TopCheap godoc
// @Summary Five best rated cheap tours
// @Tags tours
// @Produce json
// @Success 200 {object} ListResponse
// @Router /tours/top-5-cheap [get]
func (h *TourHandler) TopCheap(c echo.Context) error {
	values := url.Values{}
	for k, v := range c.QueryParams() {
		values[k] = v
	}
	for k, v := range topCheapQuery {
		values[k] = v
	}
	return h.list(c, values)
}

func (h *TourHandler) list(c echo.Context, values url.Values) error {
	tours, err := h.svc.List(c.Request().Context(), repository.ParseQuery(values, repository.TourColumns))
	if err != nil {
		return err
	}
	return sendList(c, tours)
}

// GetTour godoc
// @Summary Get tour with guides and reviews
// @Tags tours
// @Produce json
// @Param id path string true "Tour ID"
// @Success 200 {object} DataResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tours/{id} [get]
func (h *TourHandler) GetTour(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	tour, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return sendData(c, http.StatusOK, tour)
}

// CreateTour godoc
// @Summary Create tour
// @Tags tours
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param tour body service.TourInput true "Tour"
// @Success 201 {object} DataResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /tours [post]
func (h *TourHandler) CreateTour(c echo.Context) error {
	var in service.TourInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	tour, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return sendData(c, http.StatusCreated, tour)
}

// UpdateTour godoc
// @Summary Update tour
// @Description A JSON body patches tour fields. A multipart/form-data body replaces the
// @Description cover (imageCover) and gallery (images, at most 3) with resized uploads.
// @Tags tours
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tour ID"
// @Param tour body service.TourInput true "Fields to change"
// @Success 200 {object} DataResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tours/{id} [patch]
func (h *TourHandler) UpdateTour(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in service.TourInput
	if isMultipart(c) {
		if err := h.uploadImages(c, id, &in); err != nil {
			return err
		}
	} else if err := c.Bind(&in); err != nil {
		return err
	}
	tour, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return sendData(c, http.StatusOK, tour)
}

func (h *TourHandler) uploadImages(c echo.Context, id uuid.UUID, in *service.TourInput) error {
	form, err := multipartForm(c)
	if err != nil {
		return err
	}
	cover, images, err := h.images.TourImages(id, formFile(form, "imageCover"), form.File["images"])
	if err != nil {
		return err
	}
	if cover != "" {
		in.ImageCover = &cover
	}
	if len(images) > 0 {
		in.Images = &images
	}
	return nil
}

// DeleteTour godoc
// @Summary Delete tour
// @Tags tours
// @Security BearerAuth
// @Param id path string true "Tour ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /tours/{id} [delete]
func (h *TourHandler) DeleteTour(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats godoc
// @Summary Tour statistics per difficulty
// @Tags tours
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /tours/top-stats [get]
func (h *TourHandler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	if stats == nil {
		stats = []repository.TourStats{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": statusSuccess,
		"data":   echo.Map{"stats": stats},
	})
}

// MonthlyPlan godoc
// @Summary Tour starts per month
// @Tags tours
// @Produce json
// @Security BearerAuth
// @Param year path int true "Year"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Router /tours/monthly-plan/{year} [get]
func (h *TourHandler) MonthlyPlan(c echo.Context) error {
	raw := c.Param("year")
	year, err := strconv.Atoi(raw)
	if err != nil {
		return &apperrors.CastError{Path: "year", Value: raw}
	}
	plan, err := h.svc.MonthlyPlan(c.Request().Context(), year)
	if err != nil {
		return err
	}
	if plan == nil {
		plan = []service.MonthlyPlan{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": statusSuccess,
		"data":   echo.Map{"plan": plan},
	})
}

// ToursWithin godoc
// @Summary Tours starting within a radius
// @Tags tours
// @Produce json
// @Param distance path number true "Radius"
// @Param latlng path string true "Center as lat,lng"
// @Param unit path string true "mi or km"
// @Success 200 {object} ListResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /tours/tours-within/{distance}/center/{latlng}/unit/{unit} [get]
func (h *TourHandler) ToursWithin(c echo.Context) error {
	raw := c.Param("distance")
	dist, err := strconv.ParseFloat(raw, 64)
	if err != nil || dist < 0 {
		return &apperrors.CastError{Path: "distance", Value: raw}
	}
	center, err := service.ParseLatLng(c.Param("latlng"))
	if err != nil {
		return err
	}
	tours, err := h.svc.Within(c.Request().Context(), dist, center, service.Unit(c.Param("unit")))
	if err != nil {
		return err
	}
	return sendList(c, tours)
}

// Distances godoc
// @Summary Distance from a point to every tour start
// @Tags tours
// @Produce json
// @Param latlng path string true "Origin as lat,lng"
// @Param unit path string true "mi or km"
// @Success 200 {object} ListResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /tours/distances/{latlng}/unit/{unit} [get]
func (h *TourHandler) Distances(c echo.Context) error {
	center, err := service.ParseLatLng(c.Param("latlng"))
	if err != nil {
		return err
	}
	distances, err := h.svc.Distances(c.Request().Context(), center, service.Unit(c.Param("unit")))
	if err != nil {
		return err
	}
	return sendList(c, distances)
}
