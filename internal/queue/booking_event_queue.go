package queue

import (
	"context"

	"bus-reservation/internal/model"
)

// BookingEventType 訂位事件類型
type BookingEventType string

const (
	BookingEventConfirmed BookingEventType = "booking_confirmed"
	BookingEventCancelled BookingEventType = "booking_cancelled"
)

// BookingEvent 在訂位提交後發布，worker 據此刷新容量快取並寫稽核紀錄
type BookingEvent struct {
	Type        BookingEventType `json:"type"`
	BookingCode string           `json:"booking_code"`
	TripID      int              `json:"trip_id"`
	SeatNumbers []string         `json:"seat_numbers"`
	TravelDate  string           `json:"travel_date"`
}

// NewBookingEvent 從訂位紀錄組裝事件
func NewBookingEvent(eventType BookingEventType, booking *model.Booking) *BookingEvent {
	return &BookingEvent{
		Type:        eventType,
		BookingCode: booking.BookingCode,
		TripID:      booking.TripID,
		SeatNumbers: booking.SeatNumbers,
		TravelDate:  booking.TravelDate,
	}
}

type Delivery struct {
	Data *BookingEvent
	Ack  func()
	Nack func(requeue bool)
}

type BookingEventQueue interface {
	// 發送事件到隊列
	PublishEvent(ctx context.Context, event *BookingEvent) error
	// 訂閱事件隊列
	SubscribeEvents(ctx context.Context) (<-chan Delivery, error)
}

type BookingEventQueueImpl struct {
	// 使用 Go channel 模擬 MQ 隊列
	ch chan *BookingEvent
}

func NewBookingEventQueue(bufferSize int) BookingEventQueue {
	return &BookingEventQueueImpl{
		ch: make(chan *BookingEvent, bufferSize),
	}
}

func (q *BookingEventQueueImpl) PublishEvent(ctx context.Context, event *BookingEvent) error {
	select {
	case q.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *BookingEventQueueImpl) SubscribeEvents(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-q.ch:
				if !ok {
					return
				}

				out <- Delivery{
					Data: event,
					Ack:  func() { /* 記憶體版不用做特別動作 */ },
					Nack: func(requeue bool) {
						if requeue {
							q.ch <- event // 簡單模擬重回隊列
						}
					},
				}
			}
		}
	}()

	return out, nil
}
