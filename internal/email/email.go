package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airledger/internal/kafka"
	"github.com/sirupsen/logrus"
)

// Sender delivers customer notifications. Delivery is a structured log line
// until an SMTP relay is configured.
type Sender struct {
	log logrus.FieldLogger
}

func NewSender(log logrus.FieldLogger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.LedgerEvent) error {
	if event.Email == "" {
		return nil
	}
	s.log.WithFields(logrus.Fields{
		"to":      event.Email,
		"event":   event.Type,
		"flight":  event.FlightNumber,
		"subject": Subject(event),
	}).Info("send email")
	return nil
}

func Subject(event kafka.LedgerEvent) string {
	switch event.Type {
	case kafka.EventTicketsBooked:
		return fmt.Sprintf("Booked %d ticket(s) on flight %s, %d held in total", event.Tickets, event.FlightNumber, event.HeldTickets)
	case kafka.EventTicketsCancelled:
		return fmt.Sprintf("Cancelled %d ticket(s) on flight %s, %d still held", event.Tickets, event.FlightNumber, event.HeldTickets)
	case kafka.EventCustomerRegistered:
		return fmt.Sprintf("Welcome aboard, your customer id is %d", event.CustomerID)
	default:
		return event.Type
	}
}
