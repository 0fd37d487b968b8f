package handler

import (
	"errors"
	"net/http"
	"strconv"

	"bus-reservation/internal/model"
	"bus-reservation/internal/service"
	apperrors "bus-reservation/pkg/app_errors"
	"bus-reservation/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TripHandler struct {
	service service.TripService
}

func NewTripHandler(service service.TripService) *TripHandler {
	return &TripHandler{service: service}
}

func (h *TripHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("trips", h.GetTrips)
		router.GET("trips/search", h.SearchTrips)
		router.GET("trips/:id", h.GetTrip)
		router.GET("trips/:id/availability", h.GetAvailability)
		router.POST("trips", h.CreateTrip)
		router.PUT("trips/:id", h.UpdateTrip)
		router.DELETE("trips/:id", h.DeactivateTrip)
	}
}

func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req model.CreateTripRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	created, err := h.service.CreateTrip(c, req)
	if err != nil {
		h.handleTripError(c, err, "CreateTrip")
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *TripHandler) GetTrips(c *gin.Context) {
	page, limit := pagination(c)
	trips, err := h.service.ListTrips(c, page, limit)
	if err != nil {
		h.handleTripError(c, err, "GetTrips")
		return
	}

	c.JSON(http.StatusOK, trips)
}

func (h *TripHandler) SearchTrips(c *gin.Context) {
	params := model.SearchTripsParams{
		FromCity: c.Query("from"),
		ToCity:   c.Query("to"),
		BusType:  c.Query("bus_type"),
	}
	params.Passengers, _ = strconv.Atoi(c.DefaultQuery("passengers", "1"))
	if raw := c.Query("min_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			params.MinPrice = &v
		}
	}
	if raw := c.Query("max_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			params.MaxPrice = &v
		}
	}

	trips, err := h.service.SearchTrips(c, params)
	if err != nil {
		h.handleTripError(c, err, "SearchTrips")
		return
	}

	c.JSON(http.StatusOK, trips)
}

func (h *TripHandler) GetTrip(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.handleTripError(c, apperrors.ErrInvalidInput, "GetTrip")
		return
	}

	trip, err := h.service.GetTripByID(c, id)
	if err != nil {
		h.handleTripError(c, err, "GetTrip")
		return
	}

	c.JSON(http.StatusOK, trip)
}

func (h *TripHandler) GetAvailability(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.handleTripError(c, apperrors.ErrInvalidInput, "GetAvailability")
		return
	}

	available, err := h.service.AvailableSeats(c, id)
	if err != nil {
		h.handleTripError(c, err, "GetAvailability")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"trip_id":         id,
		"available_seats": available,
	})
}

func (h *TripHandler) UpdateTrip(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.handleTripError(c, apperrors.ErrInvalidInput, "UpdateTrip")
		return
	}

	var req model.UpdateTripParams
	if err := BindJson(c, &req); err != nil {
		return
	}

	updated, err := h.service.UpdateTrip(c, id, req)
	if err != nil {
		h.handleTripError(c, err, "UpdateTrip")
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *TripHandler) DeactivateTrip(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.handleTripError(c, apperrors.ErrInvalidInput, "DeactivateTrip")
		return
	}

	if err := h.service.DeactivateTrip(c, id); err != nil {
		h.handleTripError(c, err, "DeactivateTrip")
		return
	}

	c.Status(http.StatusNoContent)
}

// Helper functions

func (h *TripHandler) handleTripError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrTripNotFound):
		log.Warn("Trip not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Trip not found",
		})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid input",
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
