package model

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// BookingStatus 訂位狀態類型
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// IsValid 驗證狀態是否有效
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// IsActive pending/confirmed 的訂位仍持有座位
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	transitions := map[BookingStatus][]BookingStatus{
		BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
		BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted},
		BookingStatusCancelled: {},
		BookingStatusCompleted: {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// PaymentStatus 付款狀態類型，付款本身是外部協作者，這裡只是不透明欄位
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// IsValid 驗證狀態是否有效
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Booking 訂位模型。SeatNumbers 是值拷貝的座位標籤集合，
// 以 JSONB array 持久化，順序保留。
type Booking struct {
	ID                 int           `json:"id" db:"id"`
	BookingCode        string        `json:"booking_code" db:"booking_code"`
	IdempotencyKey     *string       `json:"idempotency_key,omitempty" db:"idempotency_key"`
	UserID             int           `json:"user_id" db:"user_id"`
	TripID             int           `json:"trip_id" db:"trip_id"`
	PassengerName      string        `json:"passenger_name" db:"passenger_name"`
	PassengerEmail     string        `json:"passenger_email" db:"passenger_email"`
	PassengerPhone     string        `json:"passenger_phone" db:"passenger_phone"`
	PassengerAge       int           `json:"passenger_age" db:"passenger_age"`
	PassengerGender    string        `json:"passenger_gender" db:"passenger_gender"`
	SeatNumbers        []string      `json:"seat_numbers" db:"seat_numbers"`
	TotalAmount        float64       `json:"total_amount" db:"total_amount"`
	PaymentMethod      string        `json:"payment_method" db:"payment_method"`
	PaymentStatus      PaymentStatus `json:"payment_status" db:"payment_status"`
	PaymentID          *string       `json:"payment_id,omitempty" db:"payment_id"`
	BookingStatus      BookingStatus `json:"booking_status" db:"booking_status"`
	BookingDate        time.Time     `json:"booking_date" db:"booking_date"`
	TravelDate         string        `json:"travel_date" db:"travel_date"`
	CancellationReason *string       `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	RefundAmount       *float64      `json:"refund_amount,omitempty" db:"refund_amount"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
}

// CreateBookingRequest 建立訂位請求。SeatNumbers 接受陣列或逗號分隔字串。
type CreateBookingRequest struct {
	UserID          int         `json:"user_id" binding:"required"`
	TripID          int         `json:"trip_id" binding:"required"`
	PassengerName   string      `json:"passenger_name" binding:"required"`
	PassengerEmail  string      `json:"passenger_email" binding:"required,email"`
	PassengerPhone  string      `json:"passenger_phone" binding:"required"`
	PassengerAge    int         `json:"passenger_age" binding:"required,min=1,max=120"`
	PassengerGender string      `json:"passenger_gender" binding:"required,oneof=male female other"`
	SeatNumbers     SeatNumbers `json:"seat_numbers" binding:"required"`
	TotalAmount     float64     `json:"total_amount" binding:"required,min=0"`
	PaymentMethod   string      `json:"payment_method" binding:"required,oneof=credit_card debit_card upi net_banking wallet"`
	TravelDate      string      `json:"travel_date" binding:"required"`
	IdempotencyKey  string      `json:"idempotency_key"`
}

// CancelBookingRequest 取消訂位請求
type CancelBookingRequest struct {
	CancellationReason string  `json:"cancellation_reason" binding:"required"`
	RefundAmount       float64 `json:"refund_amount" binding:"min=0"`
}

// UpdateBookingStatusRequest 部分更新，未提供的欄位保持不變
type UpdateBookingStatusRequest struct {
	Status             BookingStatus  `json:"status" binding:"required"`
	PaymentStatus      *PaymentStatus `json:"payment_status"`
	PaymentID          *string        `json:"payment_id"`
	CancellationReason *string        `json:"cancellation_reason"`
	RefundAmount       *float64       `json:"refund_amount"`
}

// CheckSeatAvailabilityRequest 查詢座位是否已被有效訂位持有
type CheckSeatAvailabilityRequest struct {
	TripID      int         `json:"trip_id" binding:"required"`
	SeatNumbers SeatNumbers `json:"seat_numbers" binding:"required"`
	TravelDate  string      `json:"travel_date" binding:"required"`
}

// UpdateStatusParams repository 層的部分更新參數
type UpdateStatusParams struct {
	PaymentStatus      *PaymentStatus
	PaymentID          *string
	CancellationReason *string
	RefundAmount       *float64
}

// BookingStats 訂位統計（原系統的 getBookingStats）
type BookingStats struct {
	TotalBookings     int     `json:"total_bookings"`
	ConfirmedBookings int     `json:"confirmed_bookings"`
	CancelledBookings int     `json:"cancelled_bookings"`
	PendingBookings   int     `json:"pending_bookings"`
	TotalRevenue      float64 `json:"total_revenue"`
}

// SeatAvailability checkSeatAvailability 的回應
type SeatAvailability struct {
	Available        bool     `json:"available"`
	ConflictingSeats []string `json:"conflicting_seats"`
}

// SeatNumbers 座位標籤集合，JSON 可以是字串陣列或逗號分隔字串
type SeatNumbers []string

// UnmarshalJSON 兩種輸入格式都正規化成字串 slice
func (s *SeatNumbers) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "\"") {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*s = NormalizeSeatNumbers(strings.Split(raw, ","))
		return nil
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NormalizeSeatNumbers(raw)
	return nil
}

// NormalizeSeatNumbers 去除空白、丟棄空元素。不做去重，由 coordinator 處理。
func NormalizeSeatNumbers(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// DedupeSeatNumbers 保序去重
func DedupeSeatNumbers(seats []string) []string {
	seen := make(map[string]struct{}, len(seats))
	out := make([]string, 0, len(seats))
	for _, s := range seats {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// NewBookingCode 產生訂位代碼：BK + 毫秒時間戳 + 隨機後綴
func NewBookingCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = letters[rand.Intn(len(letters))]
	}
	return fmt.Sprintf("BK%d%s", time.Now().UnixMilli(), suffix)
}
