package kafka

import "time"

const (
	EventFlightScheduled    = "flight_scheduled"
	EventCustomerRegistered = "customer_registered"
	EventTicketsBooked      = "tickets_booked"
	EventTicketsCancelled   = "tickets_cancelled"
)

// LedgerEvent is the JSON payload written to the ledger and notification
// topics. Fields that do not apply to an event type are left empty.
type LedgerEvent struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	FlightNumber   string    `json:"flight_number,omitempty"`
	CustomerID     int64     `json:"customer_id,omitempty"`
	Email          string    `json:"email,omitempty"`
	Tickets        int       `json:"tickets,omitempty"`
	HeldTickets    int       `json:"held_tickets"`
	AvailableSeats int       `json:"available_seats"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Key partitions events by flight when there is one, otherwise by event id.
func (e LedgerEvent) Key() string {
	if e.FlightNumber != "" {
		return e.FlightNumber
	}
	return e.ID
}
