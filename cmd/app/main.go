package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/airledger/config"
	"github.com/Domenick1991/airledger/internal/bootstrap"
	"github.com/Domenick1991/airledger/internal/cache"
	"github.com/Domenick1991/airledger/internal/domain"
	"github.com/Domenick1991/airledger/internal/kafka"
	"github.com/Domenick1991/airledger/internal/logger"
	"github.com/Domenick1991/airledger/internal/repository"
	"github.com/Domenick1991/airledger/internal/service/booking"
	"github.com/Domenick1991/airledger/internal/service/customers"
	"github.com/Domenick1991/airledger/internal/service/events"
	"github.com/Domenick1991/airledger/internal/service/flights"
	"github.com/Domenick1991/airledger/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := make(map[string]bootstrap.HealthCheck)

	var store repository.Store = repository.NewMemoryStore()
	if cfg.Storage.Driver == config.StoragePostgres {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.WithError(err).Fatal("connect postgres")
		}
		defer pool.Close()

		if cfg.Storage.RunMigrations {
			if err := migrations.Apply(ctx, pool); err != nil {
				log.WithError(err).Fatal("apply migrations")
			}
		}
		store = repository.NewPGStore(pool)
		checks["postgres"] = pool.Ping
	}
	log.WithField("storage", cfg.Storage.Driver).Info("store ready")

	var publisher *events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		publisher = events.NewPublisher(producer, cfg.Kafka.LedgerTopic, log,
			events.WithNotificationsTopic(cfg.Kafka.NotificationsTopic))
		checks["kafka"] = producer.CheckConnection
	}

	flightOpts := []flights.FlightServiceOption{
		flights.WithSeatLimits(domain.SeatLimits{Min: cfg.Ledger.MinSeats, Max: cfg.Ledger.MaxSeats}),
		flights.WithPublisher(publisher),
		flights.WithLogger(log),
	}
	bookingOpts := []booking.BookingServiceOption{
		booking.WithMaxTickets(cfg.Ledger.MaxTicketsPerBooking),
		booking.WithPublisher(publisher),
		booking.WithLogger(log),
	}
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Ledger.FlightsCacheTTL)*time.Second)
		defer redisCache.Close()
		flightOpts = append(flightOpts, flights.WithCache(redisCache))
		bookingOpts = append(bookingOpts,
			booking.WithCache(redisCache),
			booking.WithLocker(redisCache, time.Duration(cfg.Ledger.FlightLockTTL)*time.Second),
		)
		checks["redis"] = redisCache.Ping
	}

	services := bootstrap.Services{
		Flights:   flights.NewFlightService(store, flightOpts...),
		Customers: customers.NewCustomerService(store, customers.WithPublisher(publisher), customers.WithLogger(log)),
		Bookings:  booking.NewBookingService(store, bookingOpts...),
	}

	if err := bootstrap.Run(ctx, cfg, log, services, checks); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
