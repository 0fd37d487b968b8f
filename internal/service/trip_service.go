package service

import (
	"context"

	"bus-reservation/internal/cache"
	"bus-reservation/internal/model"
	"bus-reservation/internal/queue"
	"bus-reservation/internal/repository"
	"bus-reservation/pkg/logger"

	"go.uber.org/zap"
)

type TripService interface {
	CreateTrip(ctx context.Context, req model.CreateTripRequest) (*model.Trip, error)
	ListTrips(ctx context.Context, page, limit int) ([]*model.Trip, error)
	SearchTrips(ctx context.Context, params model.SearchTripsParams) ([]*model.Trip, error)
	GetTripByID(ctx context.Context, id int) (*model.Trip, error)
	UpdateTrip(ctx context.Context, id int, params model.UpdateTripParams) (*model.Trip, error)
	DeactivateTrip(ctx context.Context, id int) error
	// AvailableSeats 優先讀快取，未命中回源資料庫並回填
	AvailableSeats(ctx context.Context, tripID int) (int, error)
	// ApplyBookingEvent worker 消費事件後的後置處理
	ApplyBookingEvent(ctx context.Context, event *queue.BookingEvent) error
}

type TripServiceImpl struct {
	repository    repository.TripRepository
	capacityCache cache.TripCapacityCache
}

func NewTripService(tripRepository repository.TripRepository, capacityCache cache.TripCapacityCache) TripService {
	return &TripServiceImpl{
		repository:    tripRepository,
		capacityCache: capacityCache,
	}
}

func (s *TripServiceImpl) CreateTrip(ctx context.Context, req model.CreateTripRequest) (*model.Trip, error) {
	trip := &model.Trip{
		BusName:       req.BusName,
		BusNumber:     req.BusNumber,
		Operator:      req.Operator,
		FromCity:      req.FromCity,
		ToCity:        req.ToCity,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		BasePrice:     req.BasePrice,
		TotalSeats:    req.TotalSeats,
		BusType:       req.BusType,
	}

	created, err := s.repository.Create(ctx, trip)
	if err != nil {
		return nil, err
	}

	// 預熱容量快取，失敗不影響建立結果
	if err := s.capacityCache.WarmUp(ctx, created.ID, created.AvailableSeats); err != nil {
		logger.WithComponent("trip").Warn("warm up capacity cache failed", zap.Int("trip_id", created.ID), zap.Error(err))
	}

	return created, nil
}

func (s *TripServiceImpl) ListTrips(ctx context.Context, page, limit int) ([]*model.Trip, error) {
	return s.repository.List(ctx, page, limit)
}

func (s *TripServiceImpl) SearchTrips(ctx context.Context, params model.SearchTripsParams) ([]*model.Trip, error) {
	return s.repository.Search(ctx, params)
}

func (s *TripServiceImpl) GetTripByID(ctx context.Context, id int) (*model.Trip, error) {
	return s.repository.FindByID(ctx, id)
}

func (s *TripServiceImpl) UpdateTrip(ctx context.Context, id int, params model.UpdateTripParams) (*model.Trip, error) {
	return s.repository.Update(ctx, id, params)
}

func (s *TripServiceImpl) DeactivateTrip(ctx context.Context, id int) error {
	if err := s.repository.Deactivate(ctx, id); err != nil {
		return err
	}
	if err := s.capacityCache.Invalidate(ctx, id); err != nil {
		logger.WithComponent("trip").Warn("invalidate capacity cache failed", zap.Int("trip_id", id), zap.Error(err))
	}
	return nil
}

func (s *TripServiceImpl) AvailableSeats(ctx context.Context, tripID int) (int, error) {
	available, err := s.capacityCache.Available(ctx, tripID)
	if err == nil {
		return available, nil
	}

	// 快取未命中或 Redis 故障，回源資料庫（真相來源）
	trip, err := s.repository.FindByID(ctx, tripID)
	if err != nil {
		return 0, err
	}

	if err := s.capacityCache.WarmUp(ctx, tripID, trip.AvailableSeats); err != nil {
		logger.WithComponent("trip").Warn("warm up capacity cache failed", zap.Int("trip_id", tripID), zap.Error(err))
	}

	return trip.AvailableSeats, nil
}

func (s *TripServiceImpl) ApplyBookingEvent(ctx context.Context, event *queue.BookingEvent) error {
	// 事件只觸發快取回填，座位與計數在交易內已經定案
	trip, err := s.repository.FindByID(ctx, event.TripID)
	if err != nil {
		return err
	}

	if err := s.capacityCache.WarmUp(ctx, trip.ID, trip.AvailableSeats); err != nil {
		return err
	}

	logger.WithComponent("trip").Info("booking event applied",
		zap.String("event_type", string(event.Type)),
		zap.String("booking_code", event.BookingCode),
		zap.Int("trip_id", event.TripID),
		zap.Int("seat_count", len(event.SeatNumbers)),
		zap.Int("available_seats", trip.AvailableSeats))
	return nil
}
