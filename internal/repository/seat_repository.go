package repository

import (
	"context"
	"time"

	"bus-reservation/internal/model"
	apperrors "bus-reservation/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SeatRepository interface {
	ListByTrip(ctx context.Context, tripID int) ([]*model.Seat, error)
	FindBySeatNumbers(ctx context.Context, tripID int, seatNumbers []string) ([]*model.Seat, error)
	CountByTrip(ctx context.Context, tripID int) (int, error)
	BulkCreate(ctx context.Context, tripID int, seatNumbers []string, price float64) (int, error)
	ReserveSeats(ctx context.Context, tripID int, seatNumbers []string, userID int) ([]*model.Seat, error)
	ReleaseSeats(ctx context.Context, tripID int, seatNumbers []string) error

	// Transaction methods
	FindBySeatNumbersWithLock(ctx context.Context, tx pgx.Tx, tripID int, seatNumbers []string) ([]*model.Seat, error)
	MarkBooked(ctx context.Context, tx pgx.Tx, tripID int, seatNumbers []string, userID int) error
}

type SeatRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewSeatRepository(pool *pgxpool.Pool) SeatRepository {
	return &SeatRepositoryImpl{
		pool: pool,
	}
}

const seatColumns = `id, trip_id, seat_number, status, seat_type, price,
		booked_by, created_at, updated_at`

func scanSeat(row pgx.Row) (*model.Seat, error) {
	var seat model.Seat
	err := row.Scan(
		&seat.ID,
		&seat.TripID,
		&seat.SeatNumber,
		&seat.Status,
		&seat.SeatType,
		&seat.Price,
		&seat.BookedBy,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func collectSeats(rows pgx.Rows) ([]*model.Seat, error) {
	defer rows.Close()

	seats := make([]*model.Seat, 0)
	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}

func (r *SeatRepositoryImpl) ListByTrip(ctx context.Context, tripID int) ([]*model.Seat, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE trip_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, tripID)
	if err != nil {
		return nil, err
	}

	return collectSeats(rows)
}

// FindBySeatNumbers 只回傳存在的座位，呼叫端需自行比對缺少的標籤
func (r *SeatRepositoryImpl) FindBySeatNumbers(ctx context.Context, tripID int, seatNumbers []string) ([]*model.Seat, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE trip_id = $1 AND seat_number = ANY($2)
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, tripID, seatNumbers)
	if err != nil {
		return nil, err
	}

	return collectSeats(rows)
}

func (r *SeatRepositoryImpl) CountByTrip(ctx context.Context, tripID int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM seats WHERE trip_id = $1`, tripID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// BulkCreate 批次建立座位列，status=available。
// ON CONFLICT DO NOTHING：同 trip 重複初始化不會產生重複列。
func (r *SeatRepositoryImpl) BulkCreate(ctx context.Context, tripID int, seatNumbers []string, price float64) (int, error) {
	query := `
		INSERT INTO seats (trip_id, seat_number, status, price)
		SELECT $1, unnest($2::text[]), 'available', $3
		ON CONFLICT (trip_id, seat_number) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query, tripID, seatNumbers, price)
	if err != nil {
		return 0, err
	}

	return int(result.RowsAffected()), nil
}

// FindBySeatNumbersWithLock 以 FOR UPDATE 鎖住要保留的座位列，
// 讓檢查與標記在同一個 transaction 內不可分割
func (r *SeatRepositoryImpl) FindBySeatNumbersWithLock(ctx context.Context, tx pgx.Tx, tripID int, seatNumbers []string) ([]*model.Seat, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE trip_id = $1 AND seat_number = ANY($2)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, tripID, seatNumbers)
	if err != nil {
		return nil, err
	}

	return collectSeats(rows)
}

func (r *SeatRepositoryImpl) MarkBooked(ctx context.Context, tx pgx.Tx, tripID int, seatNumbers []string, userID int) error {
	query := `
		UPDATE seats
		SET status = 'booked', booked_by = $1, updated_at = $2
		WHERE trip_id = $3 AND seat_number = ANY($4) AND status = 'available'
	`

	result, err := tx.Exec(ctx, query, userID, time.Now().UTC(), tripID, seatNumbers)
	if err != nil {
		return err
	}

	// 列已被 FOR UPDATE 鎖住且確認過 available，數量不符表示程式錯誤
	if int(result.RowsAffected()) != len(seatNumbers) {
		return apperrors.ErrSeatConflict
	}

	return nil
}

// ReserveSeats 核心操作：在單一 transaction 內鎖列、檢查存在與可用、
// 全部標記為 booked，或完全不改。兩個重疊的併發請求恰好一個成功，
// 另一個收到 SeatConflictError。
func (r *SeatRepositoryImpl) ReserveSeats(ctx context.Context, tripID int, seatNumbers []string, userID int) ([]*model.Seat, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	seats, err := r.FindBySeatNumbersWithLock(ctx, tx, tripID, seatNumbers)
	if err != nil {
		return nil, err
	}

	found := make(map[string]*model.Seat, len(seats))
	for _, seat := range seats {
		found[seat.SeatNumber] = seat
	}

	missing := make([]string, 0)
	conflicting := make([]string, 0)
	for _, sn := range seatNumbers {
		seat, ok := found[sn]
		if !ok {
			missing = append(missing, sn)
			continue
		}
		if !seat.IsAvailable() {
			conflicting = append(conflicting, sn)
		}
	}

	if len(missing) > 0 {
		return nil, &apperrors.SeatNotFoundError{Missing: missing}
	}
	if len(conflicting) > 0 {
		return nil, &apperrors.SeatConflictError{Seats: conflicting}
	}

	if err := r.MarkBooked(ctx, tx, tripID, seatNumbers, userID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	for _, seat := range seats {
		seat.Status = model.SeatStatusBooked
		bookedBy := userID
		seat.BookedBy = &bookedBy
	}

	return seats, nil
}

// ReleaseSeats 將座位放回 available 並清除持有者。
// 冪等：釋放已經 available 的座位不是錯誤。
func (r *SeatRepositoryImpl) ReleaseSeats(ctx context.Context, tripID int, seatNumbers []string) error {
	query := `
		UPDATE seats
		SET status = 'available', booked_by = NULL, updated_at = $1
		WHERE trip_id = $2 AND seat_number = ANY($3)
	`

	_, err := r.pool.Exec(ctx, query, time.Now().UTC(), tripID, seatNumbers)
	return err
}
