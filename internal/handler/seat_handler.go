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

type SeatHandler struct {
	service service.SeatService
}

func NewSeatHandler(service service.SeatService) *SeatHandler {
	return &SeatHandler{service: service}
}

func (h *SeatHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("trips/:id/seats", h.GetSeats)
		router.POST("trips/:id/seats/initialize", h.InitializeSeats)
		router.POST("trips/:id/seats/book", h.BookSeats)
	}
}

func (h *SeatHandler) GetSeats(c *gin.Context) {
	tripID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.handleSeatError(c, apperrors.ErrInvalidInput, "GetSeats")
		return
	}

	seats, err := h.service.ListSeats(c, tripID)
	if err != nil {
		h.handleSeatError(c, err, "GetSeats")
		return
	}

	c.JSON(http.StatusOK, seats)
}

func (h *SeatHandler) InitializeSeats(c *gin.Context) {
	tripID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.handleSeatError(c, apperrors.ErrInvalidInput, "InitializeSeats")
		return
	}

	result, err := h.service.InitializeSeats(c, tripID)
	if err != nil {
		h.handleSeatError(c, err, "InitializeSeats")
		return
	}

	status := http.StatusCreated
	if result.AlreadyInitialized {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

func (h *SeatHandler) BookSeats(c *gin.Context) {
	tripID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.handleSeatError(c, apperrors.ErrInvalidInput, "BookSeats")
		return
	}

	var req model.BookSeatsRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	userID, _ := actingUser(c)
	seats, err := h.service.BookSeats(c, tripID, req.SeatNumbers, userID)
	if err != nil {
		h.handleSeatError(c, err, "BookSeats")
		return
	}

	c.JSON(http.StatusOK, seats)
}

// Helper functions

func (h *SeatHandler) handleSeatError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))

	var conflictErr *apperrors.SeatConflictError
	var notFoundErr *apperrors.SeatNotFoundError

	switch {
	case errors.As(err, &conflictErr):
		log.Warn("Seat conflict")
		c.JSON(http.StatusConflict, gin.H{
			"error":             "Some seats are already booked",
			"conflicting_seats": conflictErr.Seats,
		})
	case errors.As(err, &notFoundErr):
		log.Warn("Seat not found")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         "Some seats do not exist for this trip",
			"missing_seats": notFoundErr.Missing,
		})
	case errors.Is(err, apperrors.ErrInsufficientSeats):
		log.Warn("Insufficient seats")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Not enough available seats",
		})
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
