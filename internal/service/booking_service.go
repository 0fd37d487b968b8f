package service

import (
	"context"
	"errors"

	"bus-reservation/internal/cache"
	"bus-reservation/internal/model"
	"bus-reservation/internal/queue"
	"bus-reservation/internal/repository"
	apperrors "bus-reservation/pkg/app_errors"
	"bus-reservation/pkg/logger"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type BookingService interface {
	// CreateBooking 訂位主流程：先記帳、再佔座、再扣計數，任一步失敗就補償
	CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error)
	CancelBooking(ctx context.Context, id int, actorID int, actorRole string, req model.CancelBookingRequest) (*model.Booking, error)
	GetBookingByID(ctx context.Context, id int, actorID int, actorRole string) (*model.Booking, error)
	GetBookingByCode(ctx context.Context, code string) (*model.Booking, error)
	ListUserBookings(ctx context.Context, userID, page, limit int) ([]*model.Booking, error)
	ListAllBookings(ctx context.Context, page, limit int) ([]*model.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int, req model.UpdateBookingStatusRequest) (*model.Booking, error)
	// CheckSeatAvailability 掃描有效訂位的座位集合，唯讀，不動座位表
	CheckSeatAvailability(ctx context.Context, tripID int, seatNumbers []string, travelDate string) (*model.SeatAvailability, error)
	Stats(ctx context.Context, userID int) (*model.BookingStats, error)
}

type BookingServiceImpl struct {
	repository     repository.BookingRepository
	seatRepository repository.SeatRepository
	tripRepository repository.TripRepository
	capacityCache  cache.TripCapacityCache
	eventQueue     queue.BookingEventQueue
}

func NewBookingService(
	bookingRepository repository.BookingRepository,
	seatRepository repository.SeatRepository,
	tripRepository repository.TripRepository,
	capacityCache cache.TripCapacityCache,
	eventQueue queue.BookingEventQueue,
) BookingService {
	return &BookingServiceImpl{
		repository:     bookingRepository,
		seatRepository: seatRepository,
		tripRepository: tripRepository,
		capacityCache:  capacityCache,
		eventQueue:     eventQueue,
	}
}

func (s *BookingServiceImpl) CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	// 1. 冪等鍵命中就直接回既有訂位，不重複佔座
	if req.IdempotencyKey != "" {
		existing, err := s.repository.FindByIdempotencyKey(ctx, req.IdempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, apperrors.ErrBookingNotFound) {
			return nil, err
		}
	}

	// 2. 車次必須存在且上架中
	trip, err := s.tripRepository.FindByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}

	seatNumbers := model.DedupeSeatNumbers(model.NormalizeSeatNumbers(req.SeatNumbers))
	if len(seatNumbers) == 0 {
		return nil, apperrors.ErrInvalidInput
	}
	if len(seatNumbers) > trip.TotalSeats {
		return nil, apperrors.ErrInsufficientSeats
	}

	// 3. 諮詢性快篩：快取說不夠就提前打回，快取故障則放行，交給資料庫定奪
	if enough, err := s.capacityCache.HasEnoughSeats(ctx, req.TripID, len(seatNumbers)); err == nil && !enough {
		return nil, apperrors.ErrInsufficientSeats
	}

	// 4. 諮詢性座位查核：不存在或已被佔的座位在落帳前就打回，
	// 不留下待補償的訂位列。併發競態仍由後面的行鎖擋住。
	if err := s.precheckSeats(ctx, req.TripID, seatNumbers); err != nil {
		return nil, err
	}

	booking := &model.Booking{
		BookingCode:     model.NewBookingCode(),
		UserID:          req.UserID,
		TripID:          req.TripID,
		PassengerName:   req.PassengerName,
		PassengerEmail:  req.PassengerEmail,
		PassengerPhone:  req.PassengerPhone,
		PassengerAge:    req.PassengerAge,
		PassengerGender: req.PassengerGender,
		SeatNumbers:     seatNumbers,
		TotalAmount:     req.TotalAmount,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   model.PaymentStatusPending,
		BookingStatus:   model.BookingStatusConfirmed,
		TravelDate:      req.TravelDate,
	}
	if req.IdempotencyKey != "" {
		booking.IdempotencyKey = &req.IdempotencyKey
	}

	// 5. 先落帳：之後任何一步失敗，這一列就是補償的錨點
	created, err := s.repository.Create(ctx, booking)
	if err != nil {
		// 冪等鍵撞唯一索引表示同 key 的請求併發進來，贏家的結果就是答案
		var pgErr *pgconn.PgError
		if req.IdempotencyKey != "" && errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return s.repository.FindByIdempotencyKey(ctx, req.IdempotencyKey)
		}
		return nil, err
	}

	// 6. 佔座：行鎖 + 條件更新，輸家拿到衝突錯誤
	if _, err := s.seatRepository.ReserveSeats(ctx, req.TripID, seatNumbers, req.UserID); err != nil {
		s.compensate(created.ID, "Seat allocation failed")
		return nil, err
	}

	// 7. 扣容量計數：條件更新擋住越界
	if _, err := s.tripRepository.AdjustAvailableSeats(ctx, req.TripID, -len(seatNumbers)); err != nil {
		s.releaseSeats(created.TripID, seatNumbers)
		s.compensate(created.ID, "Seat allocation failed")
		return nil, err
	}

	s.publishEvent(queue.NewBookingEvent(queue.BookingEventConfirmed, created))

	return created, nil
}

// precheckSeats 無鎖讀取座位現況，擋下明顯不成立的請求。
// 與 ReserveSeats 之間仍有時間窗，最終裁決在行鎖那一步。
func (s *BookingServiceImpl) precheckSeats(ctx context.Context, tripID int, seatNumbers []string) error {
	seats, err := s.seatRepository.FindBySeatNumbers(ctx, tripID, seatNumbers)
	if err != nil {
		return err
	}

	found := make(map[string]*model.Seat, len(seats))
	for _, seat := range seats {
		found[seat.SeatNumber] = seat
	}

	var missing, conflicting []string
	for _, number := range seatNumbers {
		seat, ok := found[number]
		if !ok {
			missing = append(missing, number)
			continue
		}
		if !seat.IsAvailable() {
			conflicting = append(conflicting, number)
		}
	}

	if len(missing) > 0 {
		return &apperrors.SeatNotFoundError{Missing: missing}
	}
	if len(conflicting) > 0 {
		return &apperrors.SeatConflictError{Seats: conflicting}
	}
	return nil
}

// compensate 取消落帳的訂位列。使用 context.Background()：
// 就算用戶斷線，補償也必須跑完，不然帳上會多一筆持座的幽靈訂位。
func (s *BookingServiceImpl) compensate(bookingID int, reason string) {
	if _, err := s.repository.Cancel(context.Background(), bookingID, reason, 0); err != nil {
		logger.WithComponent("booking").Error("compensation failed: booking left active",
			zap.Int("booking_id", bookingID), zap.Error(err))
	}
}

// releaseSeats 補償路徑的座位歸還，同樣不跟隨請求 context
func (s *BookingServiceImpl) releaseSeats(tripID int, seatNumbers []string) {
	if err := s.seatRepository.ReleaseSeats(context.Background(), tripID, seatNumbers); err != nil {
		logger.WithComponent("booking").Error("compensation failed: seats left booked",
			zap.Int("trip_id", tripID), zap.Strings("seat_numbers", seatNumbers), zap.Error(err))
	}
}

// publishEvent 訂位已定案，事件發佈失敗只記錄，不回滾
func (s *BookingServiceImpl) publishEvent(event *queue.BookingEvent) {
	if err := s.eventQueue.PublishEvent(context.Background(), event); err != nil {
		logger.WithComponent("booking").Error("publish booking event failed",
			zap.String("booking_code", event.BookingCode), zap.Error(err))
	}
}

func (s *BookingServiceImpl) CancelBooking(ctx context.Context, id int, actorID int, actorRole string, req model.CancelBookingRequest) (*model.Booking, error) {
	booking, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actorRole != "admin" && booking.UserID != actorID {
		return nil, apperrors.ErrForbidden
	}

	// 條件更新：只有 pending/confirmed 會被改成 cancelled，
	// 已取消或已完成的訂位在這裡被打回
	cancelled, err := s.repository.Cancel(ctx, id, req.CancellationReason, req.RefundAmount)
	if err != nil {
		return nil, err
	}

	// 歸還座位與容量計數。取消在上一步已成立，歸還失敗只記錄：
	// 回報錯誤會讓呼叫端重試撞上 AlreadyCancelled，座位反而卡死。
	// 殘留的持座由事件消費端的對帳補正。
	if err := s.seatRepository.ReleaseSeats(ctx, cancelled.TripID, cancelled.SeatNumbers); err != nil {
		logger.WithComponent("booking").Error("release seats after cancel failed",
			zap.Int("booking_id", id), zap.Strings("seat_numbers", cancelled.SeatNumbers), zap.Error(err))
	}
	if _, err := s.tripRepository.AdjustAvailableSeats(ctx, cancelled.TripID, len(cancelled.SeatNumbers)); err != nil {
		logger.WithComponent("booking").Error("restore capacity after cancel failed",
			zap.Int("booking_id", id), zap.Error(err))
	}

	s.publishEvent(queue.NewBookingEvent(queue.BookingEventCancelled, cancelled))

	return cancelled, nil
}

func (s *BookingServiceImpl) GetBookingByID(ctx context.Context, id int, actorID int, actorRole string) (*model.Booking, error) {
	booking, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorRole != "admin" && booking.UserID != actorID {
		return nil, apperrors.ErrForbidden
	}
	return booking, nil
}

func (s *BookingServiceImpl) GetBookingByCode(ctx context.Context, code string) (*model.Booking, error) {
	return s.repository.FindByBookingCode(ctx, code)
}

func (s *BookingServiceImpl) ListUserBookings(ctx context.Context, userID, page, limit int) ([]*model.Booking, error) {
	return s.repository.ListByUser(ctx, userID, page, limit)
}

func (s *BookingServiceImpl) ListAllBookings(ctx context.Context, page, limit int) ([]*model.Booking, error) {
	return s.repository.ListAll(ctx, page, limit)
}

func (s *BookingServiceImpl) UpdateBookingStatus(ctx context.Context, id int, req model.UpdateBookingStatusRequest) (*model.Booking, error) {
	if !req.Status.IsValid() {
		return nil, apperrors.ErrInvalidInput
	}
	if req.PaymentStatus != nil && !req.PaymentStatus.IsValid() {
		return nil, apperrors.ErrInvalidInput
	}

	booking, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !booking.BookingStatus.CanTransitionTo(req.Status) {
		return nil, apperrors.ErrInvalidInput
	}

	// 走到 cancelled 要經過座位歸還，不允許從這個入口繞過
	if req.Status == model.BookingStatusCancelled {
		return nil, apperrors.ErrInvalidInput
	}

	return s.repository.UpdateStatus(ctx, id, req.Status, model.UpdateStatusParams{
		PaymentStatus:      req.PaymentStatus,
		PaymentID:          req.PaymentID,
		CancellationReason: req.CancellationReason,
		RefundAmount:       req.RefundAmount,
	})
}

func (s *BookingServiceImpl) CheckSeatAvailability(ctx context.Context, tripID int, seatNumbers []string, travelDate string) (*model.SeatAvailability, error) {
	if _, err := s.tripRepository.FindByID(ctx, tripID); err != nil {
		return nil, err
	}

	requested := model.DedupeSeatNumbers(model.NormalizeSeatNumbers(seatNumbers))
	if len(requested) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	taken, err := s.repository.ActiveSeatNumbers(ctx, tripID, travelDate)
	if err != nil {
		return nil, err
	}

	takenSet := make(map[string]struct{}, len(taken))
	for _, seat := range taken {
		takenSet[seat] = struct{}{}
	}

	conflicting := make([]string, 0)
	for _, seat := range requested {
		if _, ok := takenSet[seat]; ok {
			conflicting = append(conflicting, seat)
		}
	}

	return &model.SeatAvailability{
		Available:        len(conflicting) == 0,
		ConflictingSeats: conflicting,
	}, nil
}

func (s *BookingServiceImpl) Stats(ctx context.Context, userID int) (*model.BookingStats, error) {
	return s.repository.Stats(ctx, userID)
}
