package domain

import "time"

// MaxTicketsPerBooking caps a single book request.
const MaxTicketsPerBooking = 10

// Booking is one row of the relationship table: the tickets a customer holds
// on a flight. A row exists only while Tickets > 0.
type Booking struct {
	FlightNumber string    `json:"flight_number"`
	CustomerID   int64     `json:"customer_id"`
	Tickets      int       `json:"tickets"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Passenger is a customer as listed on a flight.
type Passenger struct {
	Customer Customer `json:"customer"`
	Tickets  int      `json:"tickets"`
}

// BookingResult is the outcome of a successful book or cancel.
type BookingResult struct {
	FlightNumber   string `json:"flight_number"`
	CustomerID     int64  `json:"customer_id"`
	Changed        int    `json:"changed"`
	HeldTickets    int    `json:"held_tickets"`
	AvailableSeats int    `json:"available_seats"`
}

// Discrepancy reports a flight whose seat balance does not add up.
type Discrepancy struct {
	FlightNumber   string `json:"flight_number"`
	TotalSeats     int    `json:"total_seats"`
	AvailableSeats int    `json:"available_seats"`
	BookedTickets  int    `json:"booked_tickets"`
}
