package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/airledger/config"
	"github.com/Domenick1991/airledger/internal/email"
	"github.com/Domenick1991/airledger/internal/kafka"
	"github.com/Domenick1991/airledger/internal/logger"
	"github.com/Domenick1991/airledger/internal/repository"
	"github.com/Domenick1991/airledger/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
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

	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.NotificationsTopic != "" {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
		defer consumer.Close()

		sender := email.NewSender(log)
		go func() {
			err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
				event, err := kafka.DecodeEvent(msg)
				if err != nil {
					log.WithError(err).WithField("offset", msg.Offset).Warn("skip undecodable event")
					return nil
				}
				return sender.Send(ctx, event)
			})
			if err != nil && ctx.Err() == nil {
				log.WithError(err).Error("consumer stopped")
			}
		}()
	}

	// The memory store lives inside the app process; only a shared
	// database can be audited from here.
	if cfg.Storage.Driver != config.StoragePostgres {
		log.Info("storage is not shared, ledger audit disabled")
		<-ctx.Done()
		return
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	auditor := booking.NewBookingService(repository.NewPGStore(pool), booking.WithLogger(log))

	ticker := time.NewTicker(time.Duration(cfg.Worker.AuditSweepMinutes) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			discrepancies, err := auditor.Audit(ctx)
			if err != nil {
				log.WithError(err).Warn("ledger audit failed")
				continue
			}
			for _, d := range discrepancies {
				log.WithFields(logrus.Fields{
					"flight_number":   d.FlightNumber,
					"total_seats":     d.TotalSeats,
					"available_seats": d.AvailableSeats,
					"booked_tickets":  d.BookedTickets,
				}).Error("flight out of balance")
			}
		case <-ctx.Done():
			log.Info("worker shutting down")
			return
		}
	}
}
