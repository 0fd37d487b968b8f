package worker

import (
	"context"

	"bus-reservation/internal/queue"
	"bus-reservation/internal/service"
)

type BookingEventWorker interface {
	// 訂閱預訂事件流
	Start(ctx context.Context) error
}

type BookingEventWorkerImpl struct {
	service service.TripService
	queue   queue.BookingEventQueue
}

func NewBookingEventWorker(service service.TripService, queue queue.BookingEventQueue) BookingEventWorker {
	return &BookingEventWorkerImpl{
		service: service,
		queue:   queue,
	}
}

func (w *BookingEventWorkerImpl) Start(ctx context.Context) error {
	msgs, _ := w.queue.SubscribeEvents(ctx)

	go func() {
		for msg := range msgs {
			// 預訂/取消成功後的後置處理：刷新容量快取、寫稽核日誌
			err := w.service.ApplyBookingEvent(ctx, msg.Data)

			if err != nil {
				// 快取或資料庫暫時不可用，留給 XAUTOCLAIM 重試
				msg.Nack(true)
			} else {
				msg.Ack()
			}
		}
	}()
	return nil
}
