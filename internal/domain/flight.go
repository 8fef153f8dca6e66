package domain

import (
	"time"

	"github.com/Domenick1991/airledger/internal/geo"
)

type Flight struct {
	Number         string        `json:"number"`
	Origin         string        `json:"origin"`
	Destination    string        `json:"destination"`
	Gate           string        `json:"gate"`
	DepartureTime  time.Time     `json:"departure_time"`
	Duration       time.Duration `json:"duration"`
	DistanceMiles  float64       `json:"distance_miles"`
	TotalSeats     int           `json:"total_seats"`
	AvailableSeats int           `json:"available_seats"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (f Flight) ArrivalTime() time.Time {
	return f.DepartureTime.Add(f.Duration)
}

// BookedSeats is the number of seats currently held by customers.
func (f Flight) BookedSeats() int {
	return f.TotalSeats - f.AvailableSeats
}

// SeatLimits bounds the capacity of a newly scheduled flight.
type SeatLimits struct {
	Min int
	Max int
}

var DefaultSeatLimits = SeatLimits{Min: 75, Max: 500}

type FlightParams struct {
	Number        string    `json:"number" validate:"flightnumber"`
	Origin        string    `json:"origin" validate:"notblank"`
	Destination   string    `json:"destination" validate:"notblank"`
	Gate          string    `json:"gate" validate:"gate"`
	DepartureTime time.Time `json:"departure_time"`
	DistanceMiles float64   `json:"distance_miles" validate:"gt=0"`
	TotalSeats    int       `json:"total_seats"`
}

// NewFlight validates p and returns a flight with every seat available.
// The departure must be strictly after now.
func NewFlight(p FlightParams, limits SeatLimits, now time.Time) (Flight, error) {
	if err := validateStruct(p); err != nil {
		return Flight{}, err
	}
	if !p.DepartureTime.After(now) {
		return Flight{}, ValidationError("departure time must be in the future")
	}
	if p.TotalSeats < limits.Min || p.TotalSeats > limits.Max {
		return Flight{}, ValidationError("seats must be between %d-%d", limits.Min, limits.Max)
	}

	return Flight{
		Number:         p.Number,
		Origin:         p.Origin,
		Destination:    p.Destination,
		Gate:           p.Gate,
		DepartureTime:  p.DepartureTime.UTC(),
		Duration:       geo.FlightDuration(p.DistanceMiles),
		DistanceMiles:  p.DistanceMiles,
		TotalSeats:     p.TotalSeats,
		AvailableSeats: p.TotalSeats,
		CreatedAt:      now,
	}, nil
}
