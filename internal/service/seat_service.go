package service

import (
	"context"

	"bus-reservation/internal/model"
	"bus-reservation/internal/repository"
	apperrors "bus-reservation/pkg/app_errors"
	"bus-reservation/pkg/logger"

	"go.uber.org/zap"
)

type SeatService interface {
	ListSeats(ctx context.Context, tripID int) ([]*model.Seat, error)
	// InitializeSeats 建立車次的座位列，可重複呼叫（冪等）
	InitializeSeats(ctx context.Context, tripID int) (*model.SeatInitResult, error)
	// BookSeats 直接佔用座位並扣減容量計數，不建立訂位紀錄
	BookSeats(ctx context.Context, tripID int, seatNumbers []string, userID int) ([]*model.Seat, error)
}

type SeatServiceImpl struct {
	repository     repository.SeatRepository
	tripRepository repository.TripRepository
}

func NewSeatService(seatRepository repository.SeatRepository, tripRepository repository.TripRepository) SeatService {
	return &SeatServiceImpl{
		repository:     seatRepository,
		tripRepository: tripRepository,
	}
}

func (s *SeatServiceImpl) ListSeats(ctx context.Context, tripID int) ([]*model.Seat, error) {
	// 先確認車次存在，避免對不存在的車次回空列表
	if _, err := s.tripRepository.FindByID(ctx, tripID); err != nil {
		return nil, err
	}
	return s.repository.ListByTrip(ctx, tripID)
}

func (s *SeatServiceImpl) InitializeSeats(ctx context.Context, tripID int) (*model.SeatInitResult, error) {
	trip, err := s.tripRepository.FindByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	layout := model.DefaultSeatLayout()
	if trip.TotalSeats < len(layout) {
		layout = layout[:trip.TotalSeats]
	}

	// ON CONFLICT DO NOTHING：已存在的座位列不會重建，也不會動到狀態
	created, err := s.repository.BulkCreate(ctx, tripID, layout, trip.BasePrice)
	if err != nil {
		return nil, err
	}

	total, err := s.repository.CountByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if created > 0 {
		logger.WithComponent("seat").Info("seats initialized", zap.Int("trip_id", tripID), zap.Int("created", created))
	}

	return &model.SeatInitResult{
		TripID:             tripID,
		Created:            created,
		TotalSeats:         total,
		AlreadyInitialized: created == 0,
	}, nil
}

func (s *SeatServiceImpl) BookSeats(ctx context.Context, tripID int, seatNumbers []string, userID int) ([]*model.Seat, error) {
	if _, err := s.tripRepository.FindByID(ctx, tripID); err != nil {
		return nil, err
	}

	seatNumbers = model.DedupeSeatNumbers(model.NormalizeSeatNumbers(seatNumbers))
	if len(seatNumbers) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	seats, err := s.repository.ReserveSeats(ctx, tripID, seatNumbers, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.tripRepository.AdjustAvailableSeats(ctx, tripID, -len(seatNumbers)); err != nil {
		// 計數器守門失敗表示逃過座位鎖的競態或程式缺陷，補償後回報
		logger.WithComponent("seat").Error("capacity adjust failed after seat reservation, releasing",
			zap.Int("trip_id", tripID), zap.Strings("seat_numbers", seatNumbers), zap.Error(err))
		if releaseErr := s.repository.ReleaseSeats(context.Background(), tripID, seatNumbers); releaseErr != nil {
			logger.WithComponent("seat").Error("seat release failed during compensation",
				zap.Int("trip_id", tripID), zap.Error(releaseErr))
		}
		return nil, err
	}

	return seats, nil
}
