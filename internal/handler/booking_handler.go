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

type BookingHandler struct {
	service service.BookingService
}

func NewBookingHandler(service service.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("bookings", h.CreateBooking)
		router.POST("bookings/check-availability", h.CheckSeatAvailability)
		router.GET("bookings", h.GetBookings)
		router.GET("bookings/my", h.GetMyBookings)
		router.GET("bookings/stats", h.GetStats)
		router.GET("bookings/code/:code", h.GetBookingByCode)
		router.GET("bookings/:id", h.GetBooking)
		router.PUT("bookings/:id/cancel", h.CancelBooking)
		router.PUT("bookings/:id/status", h.UpdateBookingStatus)
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	// 冪等鍵也接受標頭形式，body 優先
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("X-Idempotency-Key")
	}

	created, err := h.service.CreateBooking(c, req)
	if err != nil {
		h.handleBookingError(c, err, "CreateBooking")
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *BookingHandler) CheckSeatAvailability(c *gin.Context) {
	var req model.CheckSeatAvailabilityRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	result, err := h.service.CheckSeatAvailability(c, req.TripID, req.SeatNumbers, req.TravelDate)
	if err != nil {
		h.handleBookingError(c, err, "CheckSeatAvailability")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) GetBookings(c *gin.Context) {
	_, role := actingUser(c)
	if role != "admin" {
		h.handleBookingError(c, apperrors.ErrForbidden, "GetBookings")
		return
	}

	page, limit := pagination(c)
	bookings, err := h.service.ListAllBookings(c, page, limit)
	if err != nil {
		h.handleBookingError(c, err, "GetBookings")
		return
	}

	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	userID, _ := actingUser(c)
	page, limit := pagination(c)

	bookings, err := h.service.ListUserBookings(c, userID, page, limit)
	if err != nil {
		h.handleBookingError(c, err, "GetMyBookings")
		return
	}

	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) GetStats(c *gin.Context) {
	userID, _ := actingUser(c)

	stats, err := h.service.Stats(c, userID)
	if err != nil {
		h.handleBookingError(c, err, "GetStats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.handleBookingError(c, apperrors.ErrInvalidInput, "GetBooking")
		return
	}

	userID, role := actingUser(c)
	booking, err := h.service.GetBookingByID(c, id, userID, role)
	if err != nil {
		h.handleBookingError(c, err, "GetBooking")
		return
	}

	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) GetBookingByCode(c *gin.Context) {
	booking, err := h.service.GetBookingByCode(c, c.Param("code"))
	if err != nil {
		h.handleBookingError(c, err, "GetBookingByCode")
		return
	}

	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.handleBookingError(c, apperrors.ErrInvalidInput, "CancelBooking")
		return
	}

	var req model.CancelBookingRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	userID, role := actingUser(c)
	cancelled, err := h.service.CancelBooking(c, id, userID, role, req)
	if err != nil {
		h.handleBookingError(c, err, "CancelBooking")
		return
	}

	c.JSON(http.StatusOK, cancelled)
}

func (h *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.handleBookingError(c, apperrors.ErrInvalidInput, "UpdateBookingStatus")
		return
	}

	_, role := actingUser(c)
	if role != "admin" {
		h.handleBookingError(c, apperrors.ErrForbidden, "UpdateBookingStatus")
		return
	}

	var req model.UpdateBookingStatusRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	updated, err := h.service.UpdateBookingStatus(c, id, req)
	if err != nil {
		h.handleBookingError(c, err, "UpdateBookingStatus")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Helper functions

func (h *BookingHandler) handleBookingError(c *gin.Context, err error, operation string) {
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
	case errors.Is(err, apperrors.ErrSeatConflict):
		log.Warn("Seat conflict")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Some seats are already booked",
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
	case errors.Is(err, apperrors.ErrBookingNotFound):
		log.Warn("Booking not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Booking not found",
		})
	case errors.Is(err, apperrors.ErrBookingNotCancellable):
		log.Warn("Booking not cancellable")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Booking cannot be cancelled in its current status",
		})
	case errors.Is(err, apperrors.ErrForbidden):
		log.Warn("Forbidden")
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Not allowed",
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
