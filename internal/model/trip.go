package model

import "time"

// Trip 車次模型。available_seats 是去正規化的總量計數，
// 座位層級的真相在 seats 表。
type Trip struct {
	ID             int       `json:"id" db:"id"`
	BusName        string    `json:"bus_name" db:"bus_name"`
	BusNumber      string    `json:"bus_number" db:"bus_number"`
	Operator       string    `json:"operator" db:"operator"`
	FromCity       string    `json:"from_city" db:"from_city"`
	ToCity         string    `json:"to_city" db:"to_city"`
	DepartureTime  string    `json:"departure_time" db:"departure_time"`
	ArrivalTime    string    `json:"arrival_time" db:"arrival_time"`
	BasePrice      float64   `json:"base_price" db:"base_price"`
	TotalSeats     int       `json:"total_seats" db:"total_seats"`
	AvailableSeats int       `json:"available_seats" db:"available_seats"`
	BusType        string    `json:"bus_type" db:"bus_type"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// UpdateTripParams 部分更新，nil 欄位保持原值
type UpdateTripParams struct {
	BusName   *string  `json:"bus_name"`
	BusNumber *string  `json:"bus_number"`
	Operator  *string  `json:"operator"`
	BasePrice *float64 `json:"base_price"`
	BusType   *string  `json:"bus_type"`
}

// SearchTripsParams 路線搜尋條件，passengers 會過濾 available_seats
type SearchTripsParams struct {
	FromCity   string
	ToCity     string
	Passengers int
	MinPrice   *float64
	MaxPrice   *float64
	BusType    string
}

// CreateTripRequest 建立車次請求
type CreateTripRequest struct {
	BusName       string  `json:"bus_name" binding:"required"`
	BusNumber     string  `json:"bus_number" binding:"required"`
	Operator      string  `json:"operator"`
	FromCity      string  `json:"from_city" binding:"required"`
	ToCity        string  `json:"to_city" binding:"required"`
	DepartureTime string  `json:"departure_time" binding:"required"`
	ArrivalTime   string  `json:"arrival_time" binding:"required"`
	BasePrice     float64 `json:"base_price" binding:"required"`
	TotalSeats    int     `json:"total_seats" binding:"required,min=1"`
	BusType       string  `json:"bus_type"`
}
