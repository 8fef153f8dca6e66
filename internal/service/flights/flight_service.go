package flights

import (
	"context"
	"time"

	"github.com/Domenick1991/airledger/internal/clock"
	"github.com/Domenick1991/airledger/internal/domain"
	"github.com/Domenick1991/airledger/internal/geo"
	"github.com/Domenick1991/airledger/internal/kafka"
	"github.com/Domenick1991/airledger/internal/repository"
	"github.com/Domenick1991/airledger/internal/service/events"
	"github.com/sirupsen/logrus"
)

type FlightUseCase interface {
	Schedule(ctx context.Context, input ScheduleFlightInput) (*domain.Flight, error)
	List(ctx context.Context) ([]domain.Flight, error)
	GetByNumber(ctx context.Context, number string) (*domain.Flight, error)
	Passengers(ctx context.Context, number string) ([]domain.Passenger, error)
}

// FlightCache holds the flight listing. Every invalidation bumps a version;
// SetFlights stores a listing only if the version it was read under is
// still current.
type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	FlightsVersion(ctx context.Context) (int64, error)
	SetFlights(ctx context.Context, flights []domain.Flight, version int64) (bool, error)
	InvalidateFlights(ctx context.Context) error
}

// Route locates both ends of a flight in decimal degrees. It is used to
// compute the distance when the input does not carry one.
type Route struct {
	OriginLat      float64 `json:"origin_lat"`
	OriginLon      float64 `json:"origin_lon"`
	DestinationLat float64 `json:"destination_lat"`
	DestinationLon float64 `json:"destination_lon"`
}

type ScheduleFlightInput struct {
	Number        string    `json:"number"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	Gate          string    `json:"gate"`
	DepartureTime time.Time `json:"departure_time"`
	DistanceMiles float64   `json:"distance_miles"`
	Route         *Route    `json:"route,omitempty"`
	TotalSeats    int       `json:"total_seats"`
}

type FlightService struct {
	store     repository.Store
	cache     FlightCache
	clock     clock.Clock
	limits    domain.SeatLimits
	publisher *events.Publisher
	log       logrus.FieldLogger
}

type FlightServiceOption func(*FlightService)

func WithCache(cache FlightCache) FlightServiceOption {
	return func(s *FlightService) {
		s.cache = cache
	}
}

func WithClock(clk clock.Clock) FlightServiceOption {
	return func(s *FlightService) {
		s.clock = clk
	}
}

// WithSeatLimits overrides the default [75, 500] capacity bounds.
func WithSeatLimits(limits domain.SeatLimits) FlightServiceOption {
	return func(s *FlightService) {
		s.limits = limits
	}
}

func WithPublisher(p *events.Publisher) FlightServiceOption {
	return func(s *FlightService) {
		s.publisher = p
	}
}

func WithLogger(log logrus.FieldLogger) FlightServiceOption {
	return func(s *FlightService) {
		s.log = log
	}
}

func NewFlightService(store repository.Store, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{
		store:  store,
		clock:  clock.NewSystem(),
		limits: domain.DefaultSeatLimits,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlightService) Schedule(ctx context.Context, input ScheduleFlightInput) (*domain.Flight, error) {
	distance := input.DistanceMiles
	if distance == 0 && input.Route != nil {
		r := input.Route
		distance = geo.Between(r.OriginLat, r.OriginLon, r.DestinationLat, r.DestinationLon).Miles
	}

	flight, err := domain.NewFlight(domain.FlightParams{
		Number:        input.Number,
		Origin:        input.Origin,
		Destination:   input.Destination,
		Gate:          input.Gate,
		DepartureTime: input.DepartureTime,
		DistanceMiles: distance,
		TotalSeats:    input.TotalSeats,
	}, s.limits, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.store.Flights().Create(ctx, flight); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.WithFields(logrus.Fields{"flight_number": flight.Number, "seats": flight.TotalSeats}).Info("flight scheduled")
	s.publisher.Publish(ctx, kafka.LedgerEvent{
		Type:           kafka.EventFlightScheduled,
		FlightNumber:   flight.Number,
		AvailableSeats: flight.AvailableSeats,
	})
	return &flight, nil
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	fill := false
	var version int64
	if s.cache != nil {
		cached, err := s.cache.GetFlights(ctx)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			s.log.WithError(err).Warn("failed to read flights cache")
		}

		// The version must be read before the store, or a booking committed
		// in between could be cached over.
		if version, err = s.cache.FlightsVersion(ctx); err != nil {
			s.log.WithError(err).Warn("failed to read flights cache version")
		} else {
			fill = true
		}
	}

	flights, err := s.store.Flights().List(ctx)
	if err != nil {
		return nil, err
	}
	if fill {
		stored, err := s.cache.SetFlights(ctx, flights, version)
		switch {
		case err != nil:
			s.log.WithError(err).Warn("failed to fill flights cache")
		case !stored:
			s.log.Debug("flights changed while listing, cache left empty")
		}
	}
	return flights, nil
}

func (s *FlightService) GetByNumber(ctx context.Context, number string) (*domain.Flight, error) {
	return s.store.Flights().GetByNumber(ctx, domain.NormalizeFlightNumber(number))
}

// Passengers lists the customers holding seats on a flight, in the order
// they first booked.
func (s *FlightService) Passengers(ctx context.Context, number string) ([]domain.Passenger, error) {
	number = domain.NormalizeFlightNumber(number)
	if _, err := s.store.Flights().GetByNumber(ctx, number); err != nil {
		return nil, err
	}

	bookings, err := s.store.Bookings().ListByFlight(ctx, number)
	if err != nil {
		return nil, err
	}

	passengers := make([]domain.Passenger, 0, len(bookings))
	for _, b := range bookings {
		c, err := s.store.Customers().GetByID(ctx, b.CustomerID)
		if err != nil {
			return nil, err
		}
		passengers = append(passengers, domain.Passenger{Customer: *c, Tickets: b.Tickets})
	}
	return passengers, nil
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		s.log.WithError(err).Warn("failed to invalidate flights cache")
	}
}

var _ FlightUseCase = (*FlightService)(nil)
