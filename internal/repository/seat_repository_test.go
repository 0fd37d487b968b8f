package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bus-reservation/internal/model"
	apperrors "bus-reservation/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatRepository_BulkCreate(t *testing.T) {
	repo := NewSeatRepository(getTestDB())
	ctx := context.Background()

	t.Run("CreatesAllSeats", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		tripID := createTestTrip(t, 37)

		created, err := repo.BulkCreate(ctx, tripID, model.DefaultSeatLayout(), 450.0)

		require.NoError(t, err)
		assert.Equal(t, 37, created)

		count, err := repo.CountByTrip(ctx, tripID)
		require.NoError(t, err)
		assert.Equal(t, 37, count)
	})

	t.Run("SecondCallIsNoop", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		tripID := createTestTrip(t, 37)

		_, err := repo.BulkCreate(ctx, tripID, model.DefaultSeatLayout(), 450.0)
		require.NoError(t, err)

		created, err := repo.BulkCreate(ctx, tripID, model.DefaultSeatLayout(), 450.0)

		require.NoError(t, err)
		assert.Zero(t, created)
	})

	t.Run("DoesNotResetBookedSeats", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		tripID := createTestTrip(t, 37)
		userID := createTestUser(t, "Alice", "alice@example.com")

		_, err := repo.BulkCreate(ctx, tripID, model.DefaultSeatLayout(), 450.0)
		require.NoError(t, err)
		_, err = repo.ReserveSeats(ctx, tripID, []string{"A1"}, userID)
		require.NoError(t, err)

		// 重複初始化不應該把已訂的座位洗回 available
		_, err = repo.BulkCreate(ctx, tripID, model.DefaultSeatLayout(), 450.0)
		require.NoError(t, err)

		assert.Equal(t, "booked", seatStatus(t, tripID, "A1"))
	})
}

func TestSeatRepository_ReserveSeats(t *testing.T) {
	repo := NewSeatRepository(getTestDB())
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		tripID := createTestTrip(t, 4)
		userID := createTestUser(t, "Alice", "alice@example.com")
		createTestSeats(t, tripID, []string{"A1", "A2", "A3", "A4"})

		seats, err := repo.ReserveSeats(ctx, tripID, []string{"A1", "A3"}, userID)

		require.NoError(t, err)
		assert.Len(t, seats, 2)
		for _, seat := range seats {
			assert.Equal(t, model.SeatStatusBooked, seat.Status)
			require.NotNil(t, seat.BookedBy)
			assert.Equal(t, userID, *seat.BookedBy)
		}
		assert.Equal(t, "booked", seatStatus(t, tripID, "A1"))
		assert.Equal(t, "available", seatStatus(t, tripID, "A2"))
	})

	t.Run("MissingSeatLabels", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		tripID := createTestTrip(t, 2)
		userID := createTestUser(t, "Alice", "alice@example.com")
		createTestSeats(t, tripID, []string{"A1", "A2"})

		_, err := repo.ReserveSeats(ctx, tripID, []string{"A1", "Z9"}, userID)

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrSeatNotFound)

		var notFound *apperrors.SeatNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, []string{"Z9"}, notFound.Missing)

		// 失敗時一個座位都不應該被佔走
		assert.Equal(t, "available", seatStatus(t, tripID, "A1"))
	})

	t.Run("ConflictIsAllOrNothing", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		tripID := createTestTrip(t, 3)
		alice := createTestUser(t, "Alice", "alice@example.com")
		bob := createTestUser(t, "Bob", "bob@example.com")
		createTestSeats(t, tripID, []string{"A1", "A2", "A3"})

		_, err := repo.ReserveSeats(ctx, tripID, []string{"A2"}, alice)
		require.NoError(t, err)

		_, err = repo.ReserveSeats(ctx, tripID, []string{"A1", "A2", "A3"}, bob)

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrSeatConflict)

		var conflict *apperrors.SeatConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, []string{"A2"}, conflict.Seats)

		// 請求中的可用座位也不能被佔走
		assert.Equal(t, "available", seatStatus(t, tripID, "A1"))
		assert.Equal(t, "available", seatStatus(t, tripID, "A3"))
	})

	t.Run("ConcurrentOverlappingRequestsExactlyOneWins", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		tripID := createTestTrip(t, 3)
		createTestSeats(t, tripID, []string{"A1", "A2", "A3"})

		userIDs := make([]int, 8)
		for i := range userIDs {
			userIDs[i] = createTestUser(t, "User", string(rune('a'+i))+"@example.com")
		}

		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded := 0

		// 8 個併發請求搶同一組座位，恰好一個成功
		for _, userID := range userIDs {
			wg.Add(1)
			go func(uid int) {
				defer wg.Done()
				_, err := repo.ReserveSeats(ctx, tripID, []string{"A1", "A2"}, uid)
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
					return
				}
				if !errors.Is(err, apperrors.ErrSeatConflict) {
					t.Errorf("unexpected error: %v", err)
				}
			}(userID)
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		assert.Equal(t, "booked", seatStatus(t, tripID, "A1"))
		assert.Equal(t, "booked", seatStatus(t, tripID, "A2"))
		assert.Equal(t, "available", seatStatus(t, tripID, "A3"))
	})
}

func TestSeatRepository_ReleaseSeats(t *testing.T) {
	repo := NewSeatRepository(getTestDB())
	ctx := context.Background()

	t.Run("ReleasesBookedSeats", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		tripID := createTestTrip(t, 2)
		userID := createTestUser(t, "Alice", "alice@example.com")
		createTestSeats(t, tripID, []string{"A1", "A2"})

		_, err := repo.ReserveSeats(ctx, tripID, []string{"A1", "A2"}, userID)
		require.NoError(t, err)

		err = repo.ReleaseSeats(ctx, tripID, []string{"A1", "A2"})

		require.NoError(t, err)
		assert.Equal(t, "available", seatStatus(t, tripID, "A1"))

		seats, err := repo.FindBySeatNumbers(ctx, tripID, []string{"A1"})
		require.NoError(t, err)
		require.Len(t, seats, 1)
		assert.Nil(t, seats[0].BookedBy)
	})

	t.Run("Idempotent", func(t *testing.T) {
		cleanup := setupTestWithTruncate(t)
		defer cleanup()

		tripID := createTestTrip(t, 2)
		createTestSeats(t, tripID, []string{"A1", "A2"})

		// 釋放本來就 available 的座位不是錯誤
		err := repo.ReleaseSeats(ctx, tripID, []string{"A1", "A2"})

		require.NoError(t, err)
		assert.Equal(t, "available", seatStatus(t, tripID, "A1"))
	})
}

func TestSeatRepository_ListByTrip(t *testing.T) {
	cleanup := setupTestWithTruncate(t)
	defer cleanup()

	repo := NewSeatRepository(getTestDB())
	ctx := context.Background()

	tripID := createTestTrip(t, 3)
	createTestSeats(t, tripID, []string{"A1", "A2", "B1"})

	seats, err := repo.ListByTrip(ctx, tripID)

	require.NoError(t, err)
	require.Len(t, seats, 3)
	assert.Equal(t, "A1", seats[0].SeatNumber)
	assert.Equal(t, "B1", seats[2].SeatNumber)
	for _, seat := range seats {
		assert.Equal(t, model.SeatStatusAvailable, seat.Status)
	}
}
