package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"bus-reservation/internal/model"
	"bus-reservation/internal/queue"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

const invalidJSON = `{"trip_id": `

func createJSONHTTPRequest(method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer

	switch v := body.(type) {
	case string:
		buf.WriteString(v)
	default:
		_ = json.NewEncoder(&buf).Encode(v)
	}

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// asUser 設定操作者標頭，模擬上游閘道轉發的身分
func asUser(req *http.Request, userID, role string) *http.Request {
	req.Header.Set("X-User-ID", userID)
	req.Header.Set("X-User-Role", role)
	return req
}

type BookingServiceMock struct {
	mock.Mock
}

func (m *BookingServiceMock) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingServiceMock) CancelBooking(ctx context.Context, id int, actorID int, actorRole string, req model.CancelBookingRequest) (*model.Booking, error) {
	args := m.Called(ctx, id, actorID, actorRole, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingServiceMock) GetBookingByID(ctx context.Context, id int, actorID int, actorRole string) (*model.Booking, error) {
	args := m.Called(ctx, id, actorID, actorRole)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingServiceMock) GetBookingByCode(ctx context.Context, code string) (*model.Booking, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingServiceMock) ListUserBookings(ctx context.Context, userID, page, limit int) ([]*model.Booking, error) {
	args := m.Called(ctx, userID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Booking), args.Error(1)
}

func (m *BookingServiceMock) ListAllBookings(ctx context.Context, page, limit int) ([]*model.Booking, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Booking), args.Error(1)
}

func (m *BookingServiceMock) UpdateBookingStatus(ctx context.Context, id int, req model.UpdateBookingStatusRequest) (*model.Booking, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingServiceMock) CheckSeatAvailability(ctx context.Context, tripID int, seatNumbers []string, travelDate string) (*model.SeatAvailability, error) {
	args := m.Called(ctx, tripID, seatNumbers, travelDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SeatAvailability), args.Error(1)
}

func (m *BookingServiceMock) Stats(ctx context.Context, userID int) (*model.BookingStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingStats), args.Error(1)
}

type TripServiceMock struct {
	mock.Mock
}

func (m *TripServiceMock) CreateTrip(ctx context.Context, req model.CreateTripRequest) (*model.Trip, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Trip), args.Error(1)
}

func (m *TripServiceMock) ListTrips(ctx context.Context, page, limit int) ([]*model.Trip, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Trip), args.Error(1)
}

func (m *TripServiceMock) SearchTrips(ctx context.Context, params model.SearchTripsParams) ([]*model.Trip, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Trip), args.Error(1)
}

func (m *TripServiceMock) GetTripByID(ctx context.Context, id int) (*model.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Trip), args.Error(1)
}

func (m *TripServiceMock) UpdateTrip(ctx context.Context, id int, params model.UpdateTripParams) (*model.Trip, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Trip), args.Error(1)
}

func (m *TripServiceMock) DeactivateTrip(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *TripServiceMock) AvailableSeats(ctx context.Context, tripID int) (int, error) {
	args := m.Called(ctx, tripID)
	return args.Int(0), args.Error(1)
}

func (m *TripServiceMock) ApplyBookingEvent(ctx context.Context, event *queue.BookingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type SeatServiceMock struct {
	mock.Mock
}

func (m *SeatServiceMock) ListSeats(ctx context.Context, tripID int) ([]*model.Seat, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Seat), args.Error(1)
}

func (m *SeatServiceMock) InitializeSeats(ctx context.Context, tripID int) (*model.SeatInitResult, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SeatInitResult), args.Error(1)
}

func (m *SeatServiceMock) BookSeats(ctx context.Context, tripID int, seatNumbers []string, userID int) ([]*model.Seat, error) {
	args := m.Called(ctx, tripID, seatNumbers, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Seat), args.Error(1)
}

func setupBookingTestRouter(mockService *BookingServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewBookingHandler(mockService).RegisterRoutes(router)
	return router
}

func setupTripTestRouter(mockService *TripServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewTripHandler(mockService).RegisterRoutes(router)
	return router
}

func setupSeatTestRouter(mockService *SeatServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewSeatHandler(mockService).RegisterRoutes(router)
	return router
}
