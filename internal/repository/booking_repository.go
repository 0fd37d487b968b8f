package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bus-reservation/internal/model"
	apperrors "bus-reservation/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) (*model.Booking, error)
	FindByID(ctx context.Context, id int) (*model.Booking, error)
	FindByBookingCode(ctx context.Context, code string) (*model.Booking, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Booking, error)
	ListByUser(ctx context.Context, userID, page, limit int) ([]*model.Booking, error)
	ListAll(ctx context.Context, page, limit int) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, id int, status model.BookingStatus, params model.UpdateStatusParams) (*model.Booking, error)
	Cancel(ctx context.Context, id int, reason string, refundAmount float64) (*model.Booking, error)
	ActiveSeatNumbers(ctx context.Context, tripID int, travelDate string) ([]string, error)
	Stats(ctx context.Context, userID int) (*model.BookingStats, error)
}

type BookingRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &BookingRepositoryImpl{
		pool: pool,
	}
}

const bookingColumns = `id, booking_code, idempotency_key, user_id, trip_id,
		passenger_name, passenger_email, passenger_phone, passenger_age,
		passenger_gender, seat_numbers, total_amount, payment_method,
		payment_status, payment_id, booking_status, booking_date,
		travel_date::text, cancellation_reason, refund_amount,
		created_at, updated_at`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var booking model.Booking
	var seatNumbersJSON []byte

	err := row.Scan(
		&booking.ID,
		&booking.BookingCode,
		&booking.IdempotencyKey,
		&booking.UserID,
		&booking.TripID,
		&booking.PassengerName,
		&booking.PassengerEmail,
		&booking.PassengerPhone,
		&booking.PassengerAge,
		&booking.PassengerGender,
		&seatNumbersJSON,
		&booking.TotalAmount,
		&booking.PaymentMethod,
		&booking.PaymentStatus,
		&booking.PaymentID,
		&booking.BookingStatus,
		&booking.BookingDate,
		&booking.TravelDate,
		&booking.CancellationReason,
		&booking.RefundAmount,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// JSONB 座位集合必須原樣往返：保序、字串元素
	if err := json.Unmarshal(seatNumbersJSON, &booking.SeatNumbers); err != nil {
		return nil, fmt.Errorf("unmarshal seat numbers: %w", err)
	}

	return &booking, nil
}

func collectBookings(rows pgx.Rows) ([]*model.Booking, error) {
	defer rows.Close()

	bookings := make([]*model.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *BookingRepositoryImpl) Create(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	seatNumbersJSON, err := json.Marshal(booking.SeatNumbers)
	if err != nil {
		return nil, fmt.Errorf("marshal seat numbers: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO bookings (
			booking_code, idempotency_key, user_id, trip_id,
			passenger_name, passenger_email, passenger_phone, passenger_age,
			passenger_gender, seat_numbers, total_amount, payment_method,
			payment_status, booking_status, travel_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15::date)
		RETURNING %s
	`, bookingColumns)

	created, err := scanBooking(r.pool.QueryRow(ctx, query,
		booking.BookingCode, booking.IdempotencyKey, booking.UserID, booking.TripID,
		booking.PassengerName, booking.PassengerEmail, booking.PassengerPhone, booking.PassengerAge,
		booking.PassengerGender, seatNumbersJSON, booking.TotalAmount, booking.PaymentMethod,
		booking.PaymentStatus, booking.BookingStatus, booking.TravelDate,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return created, nil
}

func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}

	return booking, nil
}

func (r *BookingRepositoryImpl) FindByBookingCode(ctx context.Context, code string) (*model.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE booking_code = $1`, bookingColumns)

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}

	return booking, nil
}

func (r *BookingRepositoryImpl) FindByIdempotencyKey(ctx context.Context, key string) (*model.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE idempotency_key = $1`, bookingColumns)

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}

	return booking, nil
}

func (r *BookingRepositoryImpl) ListByUser(ctx context.Context, userID, page, limit int) ([]*model.Booking, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, bookingColumns)

	rows, err := r.pool.Query(ctx, query, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	return collectBookings(rows)
}

func (r *BookingRepositoryImpl) ListAll(ctx context.Context, page, limit int) ([]*model.Booking, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, bookingColumns)

	rows, err := r.pool.Query(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	return collectBookings(rows)
}

// UpdateStatus 部分更新：未提供的欄位以 COALESCE 保持不變
func (r *BookingRepositoryImpl) UpdateStatus(ctx context.Context, id int, status model.BookingStatus, params model.UpdateStatusParams) (*model.Booking, error) {
	query := fmt.Sprintf(`
		UPDATE bookings
		SET booking_status = $1,
			payment_status = COALESCE($2, payment_status),
			payment_id = COALESCE($3, payment_id),
			cancellation_reason = COALESCE($4, cancellation_reason),
			refund_amount = COALESCE($5, refund_amount),
			updated_at = $6
		WHERE id = $7
		RETURNING %s
	`, bookingColumns)

	booking, err := scanBooking(r.pool.QueryRow(ctx, query,
		status, params.PaymentStatus, params.PaymentID,
		params.CancellationReason, params.RefundAmount, time.Now().UTC(), id,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	return booking, nil
}

// Cancel 條件式更新：只有 pending/confirmed 的訂位可取消。
// 沒有命中任何列（已取消、已完成、或不存在）回傳 ErrBookingNotCancellable，
// 呼叫端絕不能在這種情況下再釋放座位。
func (r *BookingRepositoryImpl) Cancel(ctx context.Context, id int, reason string, refundAmount float64) (*model.Booking, error) {
	query := fmt.Sprintf(`
		UPDATE bookings
		SET booking_status = 'cancelled',
			cancellation_reason = $1,
			refund_amount = $2,
			updated_at = $3
		WHERE id = $4 AND booking_status IN ('pending', 'confirmed')
		RETURNING %s
	`, bookingColumns)

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, reason, refundAmount, time.Now().UTC(), id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBookingNotCancellable
		}
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	return booking, nil
}

// ActiveSeatNumbers 收集同車次同出發日所有 active 訂位持有的座位標籤。
// 這是 ledger 層的次要一致性檢查，只供查詢/預檢，不做寫入路徑的守門。
func (r *BookingRepositoryImpl) ActiveSeatNumbers(ctx context.Context, tripID int, travelDate string) ([]string, error) {
	query := `
		SELECT seat_numbers
		FROM bookings
		WHERE trip_id = $1
		  AND travel_date = $2::date
		  AND booking_status IN ('pending', 'confirmed')
	`

	rows, err := r.pool.Query(ctx, query, tripID, travelDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	booked := make([]string, 0)
	for rows.Next() {
		var seatNumbersJSON []byte
		if err := rows.Scan(&seatNumbersJSON); err != nil {
			return nil, err
		}

		var seats []string
		if err := json.Unmarshal(seatNumbersJSON, &seats); err != nil {
			return nil, fmt.Errorf("unmarshal seat numbers: %w", err)
		}
		booked = append(booked, seats...)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return booked, nil
}

func (r *BookingRepositoryImpl) Stats(ctx context.Context, userID int) (*model.BookingStats, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE booking_status = 'confirmed'),
			COUNT(*) FILTER (WHERE booking_status = 'cancelled'),
			COUNT(*) FILTER (WHERE booking_status = 'pending'),
			COALESCE(SUM(total_amount) FILTER (WHERE booking_status = 'confirmed'), 0)
		FROM bookings
	`
	args := []interface{}{}
	if userID != 0 {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}

	var stats model.BookingStats
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.TotalBookings,
		&stats.ConfirmedBookings,
		&stats.CancelledBookings,
		&stats.PendingBookings,
		&stats.TotalRevenue,
	)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
