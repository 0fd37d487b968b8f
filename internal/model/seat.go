package model

import (
	"fmt"
	"time"
)

// SeatStatus 座位狀態類型
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusBooked    SeatStatus = "booked"
	SeatStatusBlocked   SeatStatus = "blocked"
)

// IsValid 驗證狀態是否有效
func (s SeatStatus) IsValid() bool {
	switch s {
	case SeatStatusAvailable, SeatStatusBooked, SeatStatusBlocked:
		return true
	}
	return false
}

// Seat 座位模型，(trip_id, seat_number) 唯一
type Seat struct {
	ID         int        `json:"id" db:"id"`
	TripID     int        `json:"trip_id" db:"trip_id"`
	SeatNumber string     `json:"seat_number" db:"seat_number"`
	Status     SeatStatus `json:"status" db:"status"`
	SeatType   string     `json:"seat_type" db:"seat_type"`
	Price      float64    `json:"price" db:"price"`
	BookedBy   *int       `json:"booked_by,omitempty" db:"booked_by"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// IsAvailable 檢查座位是否可預訂
func (s *Seat) IsAvailable() bool {
	return s.Status == SeatStatusAvailable
}

// SeatInitResult 座位初始化結果。重複初始化是 no-op，
// AlreadyInitialized 會是 true 且 Created 為 0。
type SeatInitResult struct {
	TripID             int  `json:"trip_id"`
	Created            int  `json:"created"`
	TotalSeats         int  `json:"total_seats"`
	AlreadyInitialized bool `json:"already_initialized"`
}

// BookSeatsRequest 直接佔用座位的請求，不經訂位流程
type BookSeatsRequest struct {
	SeatNumbers SeatNumbers `json:"seat_numbers" binding:"required"`
}

// DefaultSeatLayout 預設座位配置：A1..A19 與 B1..B18
func DefaultSeatLayout() []string {
	layout := make([]string, 0, 37)
	for i := 1; i <= 19; i++ {
		layout = append(layout, fmt.Sprintf("A%d", i))
	}
	for i := 1; i <= 18; i++ {
		layout = append(layout, fmt.Sprintf("B%d", i))
	}
	return layout
}
