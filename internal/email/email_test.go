package email

import (
	"context"
	"testing"

	"github.com/Domenick1991/airledger/internal/kafka"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSender_Send(t *testing.T) {
	log, hook := test.NewNullLogger()
	sender := NewSender(log)

	err := sender.Send(context.Background(), kafka.LedgerEvent{
		Type:         kafka.EventTicketsBooked,
		FlightNumber: "AB-123",
		Email:        "ann@example.com",
		Tickets:      3,
		HeldTickets:  5,
	})

	require.NoError(t, err)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "ann@example.com", hook.LastEntry().Data["to"])
	assert.Equal(t, "Booked 3 ticket(s) on flight AB-123, 5 held in total", hook.LastEntry().Data["subject"])
}

func TestSender_SkipsEventsWithoutRecipient(t *testing.T) {
	log, hook := test.NewNullLogger()

	require.NoError(t, NewSender(log).Send(context.Background(), kafka.LedgerEvent{Type: kafka.EventFlightScheduled}))
	assert.Empty(t, hook.Entries)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Cancelled 2 ticket(s) on flight AB-123, 0 still held",
		Subject(kafka.LedgerEvent{Type: kafka.EventTicketsCancelled, FlightNumber: "AB-123", Tickets: 2}))
	assert.Equal(t, "Welcome aboard, your customer id is 20001",
		Subject(kafka.LedgerEvent{Type: kafka.EventCustomerRegistered, CustomerID: 20001}))
}
