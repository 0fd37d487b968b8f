package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bus-reservation/config"
	"bus-reservation/internal/cache"
	"bus-reservation/internal/database"
	"bus-reservation/internal/handler"
	"bus-reservation/internal/queue"
	"bus-reservation/internal/repository"
	"bus-reservation/internal/service"
	"bus-reservation/internal/worker"
	"bus-reservation/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()
	defer logger.L.Sync()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(pool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tripRepository := repository.NewTripRepository(pool)
	seatRepository := repository.NewSeatRepository(pool)
	bookingRepository := repository.NewBookingRepository(pool)

	capacityCache := cache.NewTripCapacityCache(rdb)

	eventQueue, err := queue.NewRedisStreamBookingEventQueue(rdb, "", nil)
	if err != nil {
		log.Fatalf("Failed to initialize event queue: %v", err)
	}

	tripService := service.NewTripService(tripRepository, capacityCache)
	seatService := service.NewSeatService(seatRepository, tripRepository)
	bookingService := service.NewBookingService(bookingRepository, seatRepository, tripRepository, capacityCache, eventQueue)

	eventWorker := worker.NewBookingEventWorker(tripService, eventQueue)
	if err := eventWorker.Start(ctx); err != nil {
		log.Fatalf("Failed to start booking event worker: %v", err)
	}

	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	handler.NewTripHandler(tripService).RegisterRoutes(router)
	handler.NewSeatHandler(seatService).RegisterRoutes(router)
	handler.NewBookingHandler(bookingService).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()

	// 收到訊號後給在途請求 10 秒收尾
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
