package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTripNotFound          = errors.New("trip not found")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrSeatNotFound          = errors.New("seat not found")
	ErrSeatConflict          = errors.New("seat conflict")
	ErrInsufficientSeats     = errors.New("insufficient seats")
	ErrBookingNotCancellable = errors.New("booking not cancellable")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInternalServerError   = errors.New("internal server error")
)

// SeatConflictError 帶有衝突座位清單，errors.Is 對應 ErrSeatConflict
type SeatConflictError struct {
	Seats []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats %s are already booked", strings.Join(e.Seats, ", "))
}

func (e *SeatConflictError) Is(target error) bool {
	return target == ErrSeatConflict
}

// SeatNotFoundError 帶有不存在的座位清單，errors.Is 對應 ErrSeatNotFound
type SeatNotFoundError struct {
	Missing []string
}

func (e *SeatNotFoundError) Error() string {
	return fmt.Sprintf("seats %s do not exist for this trip", strings.Join(e.Missing, ", "))
}

func (e *SeatNotFoundError) Is(target error) bool {
	return target == ErrSeatNotFound
}
