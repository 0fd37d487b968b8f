package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bus-reservation/internal/model"
	apperrors "bus-reservation/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TripRepository interface {
	Create(ctx context.Context, trip *model.Trip) (*model.Trip, error)
	List(ctx context.Context, page, limit int) ([]*model.Trip, error)
	Search(ctx context.Context, params model.SearchTripsParams) ([]*model.Trip, error)
	FindByID(ctx context.Context, id int) (*model.Trip, error)
	Update(ctx context.Context, id int, params model.UpdateTripParams) (*model.Trip, error)
	Deactivate(ctx context.Context, id int) error

	// Capacity counter
	HasEnoughSeats(ctx context.Context, id int, required int) (bool, error)
	AdjustAvailableSeats(ctx context.Context, id int, delta int) (*model.Trip, error)
}

type TripRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTripRepository(pool *pgxpool.Pool) TripRepository {
	return &TripRepositoryImpl{
		pool: pool,
	}
}

const tripColumns = `id, bus_name, bus_number, operator, from_city, to_city,
		departure_time, arrival_time, base_price, total_seats, available_seats,
		bus_type, is_active, created_at, updated_at`

func scanTrip(row pgx.Row) (*model.Trip, error) {
	var trip model.Trip
	err := row.Scan(
		&trip.ID,
		&trip.BusName,
		&trip.BusNumber,
		&trip.Operator,
		&trip.FromCity,
		&trip.ToCity,
		&trip.DepartureTime,
		&trip.ArrivalTime,
		&trip.BasePrice,
		&trip.TotalSeats,
		&trip.AvailableSeats,
		&trip.BusType,
		&trip.IsActive,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *TripRepositoryImpl) Create(ctx context.Context, trip *model.Trip) (*model.Trip, error) {
	query := fmt.Sprintf(`
		INSERT INTO trips (
			bus_name, bus_number, operator, from_city, to_city,
			departure_time, arrival_time, base_price, total_seats,
			available_seats, bus_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING %s
	`, tripColumns)

	// available_seats 初始等於 total_seats
	return scanTrip(r.pool.QueryRow(ctx, query,
		trip.BusName, trip.BusNumber, trip.Operator, trip.FromCity, trip.ToCity,
		trip.DepartureTime, trip.ArrivalTime, trip.BasePrice, trip.TotalSeats,
		trip.TotalSeats, trip.BusType,
	))
}

func (r *TripRepositoryImpl) List(ctx context.Context, page, limit int) ([]*model.Trip, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM trips
		WHERE is_active = true
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, tripColumns)

	rows, err := r.pool.Query(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]*model.Trip, 0)

	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return trips, nil
}

func (r *TripRepositoryImpl) Search(ctx context.Context, params model.SearchTripsParams) ([]*model.Trip, error) {
	conditions := []string{"is_active = true"}
	args := []interface{}{}
	argPos := 1

	if params.FromCity != "" {
		conditions = append(conditions, fmt.Sprintf("from_city ILIKE $%d", argPos))
		args = append(args, "%"+params.FromCity+"%")
		argPos++
	}
	if params.ToCity != "" {
		conditions = append(conditions, fmt.Sprintf("to_city ILIKE $%d", argPos))
		args = append(args, "%"+params.ToCity+"%")
		argPos++
	}
	if params.Passengers > 0 {
		conditions = append(conditions, fmt.Sprintf("available_seats >= $%d", argPos))
		args = append(args, params.Passengers)
		argPos++
	}
	if params.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("base_price >= $%d", argPos))
		args = append(args, *params.MinPrice)
		argPos++
	}
	if params.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("base_price <= $%d", argPos))
		args = append(args, *params.MaxPrice)
		argPos++
	}
	if params.BusType != "" {
		conditions = append(conditions, fmt.Sprintf("bus_type = $%d", argPos))
		args = append(args, params.BusType)
		argPos++
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM trips
		WHERE %s
		ORDER BY departure_time
	`, tripColumns, strings.Join(conditions, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]*model.Trip, 0)

	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return trips, nil
}

func (r *TripRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Trip, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM trips
		WHERE id = $1 AND is_active = true
	`, tripColumns)

	trip, err := scanTrip(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTripNotFound
		}
		return nil, err
	}

	return trip, nil
}

func (r *TripRepositoryImpl) Update(ctx context.Context, id int, params model.UpdateTripParams) (*model.Trip, error) {
	sets := []string{}
	args := []interface{}{}
	argPos := 1

	appendSet := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if params.BusName != nil {
		appendSet("bus_name", *params.BusName)
	}
	if params.BusNumber != nil {
		appendSet("bus_number", *params.BusNumber)
	}
	if params.Operator != nil {
		appendSet("operator", *params.Operator)
	}
	if params.BasePrice != nil {
		appendSet("base_price", *params.BasePrice)
	}
	if params.BusType != nil {
		appendSet("bus_type", *params.BusType)
	}

	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	appendSet("updated_at", time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE trips
		SET %s
		WHERE id = $%d AND is_active = true
		RETURNING %s
	`, strings.Join(sets, ", "), argPos, tripColumns)

	trip, err := scanTrip(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTripNotFound
		}
		return nil, err
	}

	return trip, nil
}

func (r *TripRepositoryImpl) Deactivate(ctx context.Context, id int) error {
	query := `
		UPDATE trips
		SET is_active = false, updated_at = $1
		WHERE id = $2 AND is_active = true
	`

	result, err := r.pool.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrTripNotFound
	}

	return nil
}

// HasEnoughSeats 只是快速的諮詢性檢查，可能與併發訂位競爭；
// 權威檢查在 seat 層的 ReserveSeats。
func (r *TripRepositoryImpl) HasEnoughSeats(ctx context.Context, id int, required int) (bool, error) {
	query := `SELECT available_seats FROM trips WHERE id = $1 AND is_active = true`

	var available int
	err := r.pool.QueryRow(ctx, query, id).Scan(&available)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, apperrors.ErrTripNotFound
		}
		return false, err
	}

	return available >= required, nil
}

// AdjustAvailableSeats 以單一條件式 UPDATE 原子地套用 delta，
// 結果必須落在 [0, total_seats]，否則不更新並回傳 ErrInsufficientSeats。
// 不可用讀取後寫回的方式實作，否則併發訂位/取消會遺失更新。
func (r *TripRepositoryImpl) AdjustAvailableSeats(ctx context.Context, id int, delta int) (*model.Trip, error) {
	query := fmt.Sprintf(`
		UPDATE trips
		SET available_seats = available_seats + $1, updated_at = $2
		WHERE id = $3
		  AND available_seats + $1 >= 0
		  AND available_seats + $1 <= total_seats
		RETURNING %s
	`, tripColumns)

	trip, err := scanTrip(r.pool.QueryRow(ctx, query, delta, time.Now().UTC(), id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrInsufficientSeats
		}
		return nil, err
	}

	return trip, nil
}
