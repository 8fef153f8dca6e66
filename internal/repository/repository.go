package repository

import (
	"context"

	"github.com/Domenick1991/airledger/internal/domain"
)

// Transactor runs fn as one unit of work. Repository calls made with the
// context passed to fn join that unit; if fn returns an error every change
// made through it is discarded.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type FlightRepository interface {
	// Create fails with a validation error when the number is already taken.
	Create(ctx context.Context, flight domain.Flight) error
	List(ctx context.Context) ([]domain.Flight, error)
	GetByNumber(ctx context.Context, number string) (*domain.Flight, error)
	// GetForUpdate is GetByNumber that also serializes writers on the flight
	// until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, number string) (*domain.Flight, error)
	UpdateAvailableSeats(ctx context.Context, number string, available int) error
}

type CustomerRepository interface {
	// Create fails with a validation error when the email is already
	// registered, compared case-insensitively.
	Create(ctx context.Context, customer domain.Customer) error
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
}

// BookingRepository is the relationship table between flights and
// customers. Both a flight's passenger list and a customer's bookings are
// read from it.
type BookingRepository interface {
	// Get returns nil, nil when the customer holds nothing on the flight.
	Get(ctx context.Context, flightNumber string, customerID int64) (*domain.Booking, error)
	// Save inserts the row or updates its ticket count in place.
	Save(ctx context.Context, booking domain.Booking) error
	Delete(ctx context.Context, flightNumber string, customerID int64) error
	ListByFlight(ctx context.Context, flightNumber string) ([]domain.Booking, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Booking, error)
	// TicketsByFlight sums held tickets per flight number.
	TicketsByFlight(ctx context.Context) (map[string]int, error)
}

// Store bundles the repositories of one backend together with the
// transactor that spans them.
type Store interface {
	Transactor
	Flights() FlightRepository
	Customers() CustomerRepository
	Bookings() BookingRepository
}
