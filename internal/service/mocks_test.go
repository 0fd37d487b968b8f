package service

import (
	"context"

	"bus-reservation/internal/model"
	"bus-reservation/internal/queue"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type TripRepositoryMock struct {
	mock.Mock
}

func (m *TripRepositoryMock) Create(ctx context.Context, trip *model.Trip) (*model.Trip, error) {
	args := m.Called(ctx, trip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Trip), args.Error(1)
}

func (m *TripRepositoryMock) List(ctx context.Context, page, limit int) ([]*model.Trip, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Trip), args.Error(1)
}

func (m *TripRepositoryMock) Search(ctx context.Context, params model.SearchTripsParams) ([]*model.Trip, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Trip), args.Error(1)
}

func (m *TripRepositoryMock) FindByID(ctx context.Context, id int) (*model.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Trip), args.Error(1)
}

func (m *TripRepositoryMock) Update(ctx context.Context, id int, params model.UpdateTripParams) (*model.Trip, error) {
	args := m.Called(ctx, id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Trip), args.Error(1)
}

func (m *TripRepositoryMock) Deactivate(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *TripRepositoryMock) HasEnoughSeats(ctx context.Context, id int, required int) (bool, error) {
	args := m.Called(ctx, id, required)
	return args.Bool(0), args.Error(1)
}

func (m *TripRepositoryMock) AdjustAvailableSeats(ctx context.Context, id int, delta int) (*model.Trip, error) {
	args := m.Called(ctx, id, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Trip), args.Error(1)
}

type SeatRepositoryMock struct {
	mock.Mock
}

func (m *SeatRepositoryMock) ListByTrip(ctx context.Context, tripID int) ([]*model.Seat, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Seat), args.Error(1)
}

func (m *SeatRepositoryMock) FindBySeatNumbers(ctx context.Context, tripID int, seatNumbers []string) ([]*model.Seat, error) {
	args := m.Called(ctx, tripID, seatNumbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Seat), args.Error(1)
}

func (m *SeatRepositoryMock) CountByTrip(ctx context.Context, tripID int) (int, error) {
	args := m.Called(ctx, tripID)
	return args.Int(0), args.Error(1)
}

func (m *SeatRepositoryMock) BulkCreate(ctx context.Context, tripID int, seatNumbers []string, price float64) (int, error) {
	args := m.Called(ctx, tripID, seatNumbers, price)
	return args.Int(0), args.Error(1)
}

func (m *SeatRepositoryMock) ReserveSeats(ctx context.Context, tripID int, seatNumbers []string, userID int) ([]*model.Seat, error) {
	args := m.Called(ctx, tripID, seatNumbers, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Seat), args.Error(1)
}

func (m *SeatRepositoryMock) ReleaseSeats(ctx context.Context, tripID int, seatNumbers []string) error {
	args := m.Called(ctx, tripID, seatNumbers)
	return args.Error(0)
}

func (m *SeatRepositoryMock) FindBySeatNumbersWithLock(ctx context.Context, tx pgx.Tx, tripID int, seatNumbers []string) ([]*model.Seat, error) {
	args := m.Called(ctx, tx, tripID, seatNumbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Seat), args.Error(1)
}

func (m *SeatRepositoryMock) MarkBooked(ctx context.Context, tx pgx.Tx, tripID int, seatNumbers []string, userID int) error {
	args := m.Called(ctx, tx, tripID, seatNumbers, userID)
	return args.Error(0)
}

type BookingRepositoryMock struct {
	mock.Mock
}

func (m *BookingRepositoryMock) Create(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	args := m.Called(ctx, booking)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingRepositoryMock) FindByID(ctx context.Context, id int) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingRepositoryMock) FindByBookingCode(ctx context.Context, code string) (*model.Booking, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingRepositoryMock) FindByIdempotencyKey(ctx context.Context, key string) (*model.Booking, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingRepositoryMock) ListByUser(ctx context.Context, userID, page, limit int) ([]*model.Booking, error) {
	args := m.Called(ctx, userID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Booking), args.Error(1)
}

func (m *BookingRepositoryMock) ListAll(ctx context.Context, page, limit int) ([]*model.Booking, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Booking), args.Error(1)
}

func (m *BookingRepositoryMock) UpdateStatus(ctx context.Context, id int, status model.BookingStatus, params model.UpdateStatusParams) (*model.Booking, error) {
	args := m.Called(ctx, id, status, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingRepositoryMock) Cancel(ctx context.Context, id int, reason string, refundAmount float64) (*model.Booking, error) {
	args := m.Called(ctx, id, reason, refundAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingRepositoryMock) ActiveSeatNumbers(ctx context.Context, tripID int, travelDate string) ([]string, error) {
	args := m.Called(ctx, tripID, travelDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *BookingRepositoryMock) Stats(ctx context.Context, userID int) (*model.BookingStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingStats), args.Error(1)
}

type TripCapacityCacheMock struct {
	mock.Mock
}

func (m *TripCapacityCacheMock) WarmUp(ctx context.Context, tripID int, available int) error {
	args := m.Called(ctx, tripID, available)
	return args.Error(0)
}

func (m *TripCapacityCacheMock) Available(ctx context.Context, tripID int) (int, error) {
	args := m.Called(ctx, tripID)
	return args.Int(0), args.Error(1)
}

func (m *TripCapacityCacheMock) HasEnoughSeats(ctx context.Context, tripID int, required int) (bool, error) {
	args := m.Called(ctx, tripID, required)
	return args.Bool(0), args.Error(1)
}

func (m *TripCapacityCacheMock) Invalidate(ctx context.Context, tripID int) error {
	args := m.Called(ctx, tripID)
	return args.Error(0)
}

type BookingEventQueueMock struct {
	mock.Mock
}

func (m *BookingEventQueueMock) PublishEvent(ctx context.Context, event *queue.BookingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *BookingEventQueueMock) SubscribeEvents(ctx context.Context) (<-chan queue.Delivery, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan queue.Delivery), args.Error(1)
}
