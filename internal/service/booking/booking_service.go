package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/airledger/internal/clock"
	"github.com/Domenick1991/airledger/internal/domain"
	"github.com/Domenick1991/airledger/internal/kafka"
	"github.com/Domenick1991/airledger/internal/repository"
	"github.com/Domenick1991/airledger/internal/service/events"
	"github.com/sirupsen/logrus"
)

// ErrFlightBusy is returned when another engine holds the flight lock.
var ErrFlightBusy = errors.New("flight is being updated, try again")

const defaultLockTTL = 5 * time.Second

type BookingUseCase interface {
	Book(ctx context.Context, input BookingInput) (*domain.BookingResult, error)
	Cancel(ctx context.Context, input BookingInput) (*domain.BookingResult, error)
	Audit(ctx context.Context) ([]domain.Discrepancy, error)
}

// FlightLocker serializes book and cancel calls on one flight across
// processes sharing the same store.
type FlightLocker interface {
	AcquireFlightLock(ctx context.Context, number string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseFlightLock(ctx context.Context, number, token string) error
}

// CacheInvalidator drops cached flight listings after seat counts change.
type CacheInvalidator interface {
	InvalidateFlights(ctx context.Context) error
}

type BookingInput struct {
	FlightNumber string `json:"flight_number"`
	CustomerID   int64  `json:"customer_id"`
	Tickets      int    `json:"tickets"`
}

type BookingService struct {
	store      repository.Store
	locker     FlightLocker
	lockTTL    time.Duration
	cache      CacheInvalidator
	publisher  *events.Publisher
	clock      clock.Clock
	maxTickets int
	log        logrus.FieldLogger
}

type BookingServiceOption func(*BookingService)

func WithLocker(locker FlightLocker, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = locker
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithCache(cache CacheInvalidator) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
	}
}

func WithPublisher(p *events.Publisher) BookingServiceOption {
	return func(s *BookingService) {
		s.publisher = p
	}
}

func WithClock(clk clock.Clock) BookingServiceOption {
	return func(s *BookingService) {
		s.clock = clk
	}
}

// WithMaxTickets overrides the per-booking ticket ceiling.
func WithMaxTickets(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.maxTickets = n
		}
	}
}

func WithLogger(log logrus.FieldLogger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

func NewBookingService(store repository.Store, opts ...BookingServiceOption) *BookingService {
	s := &BookingService{
		store:      store,
		lockTTL:    defaultLockTTL,
		clock:      clock.NewSystem(),
		maxTickets: domain.MaxTicketsPerBooking,
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Book takes input.Tickets seats off the flight and adds them to the
// customer's holding on it, creating the holding on first booking. Nothing
// changes unless every check passes.
func (s *BookingService) Book(ctx context.Context, input BookingInput) (*domain.BookingResult, error) {
	input.FlightNumber = domain.NormalizeFlightNumber(input.FlightNumber)
	release, err := s.lock(ctx, input.FlightNumber)
	if err != nil {
		return nil, err
	}
	defer release()

	var result domain.BookingResult
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		flight, err := s.store.Flights().GetForUpdate(ctx, input.FlightNumber)
		if err != nil {
			return err
		}
		if _, err := s.store.Customers().GetByID(ctx, input.CustomerID); err != nil {
			return err
		}

		if input.Tickets <= 0 || input.Tickets > s.maxTickets {
			return domain.InvalidCount("ticket count must be between 1 and %d, got %d", s.maxTickets, input.Tickets)
		}
		if input.Tickets > flight.AvailableSeats {
			return domain.InsufficientSeats(flight.Number, input.Tickets, flight.AvailableSeats)
		}

		existing, err := s.store.Bookings().Get(ctx, flight.Number, input.CustomerID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		booking := domain.Booking{
			FlightNumber: flight.Number,
			CustomerID:   input.CustomerID,
			Tickets:      input.Tickets,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if existing != nil {
			booking.Tickets += existing.Tickets
			booking.CreatedAt = existing.CreatedAt
		}

		available := flight.AvailableSeats - input.Tickets
		if err := s.store.Flights().UpdateAvailableSeats(ctx, flight.Number, available); err != nil {
			return err
		}
		if err := s.store.Bookings().Save(ctx, booking); err != nil {
			return err
		}

		result = domain.BookingResult{
			FlightNumber:   flight.Number,
			CustomerID:     input.CustomerID,
			Changed:        input.Tickets,
			HeldTickets:    booking.Tickets,
			AvailableSeats: available,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, kafka.EventTicketsBooked, result)
	return &result, nil
}

// Cancel returns input.Tickets of the customer's seats to the flight. The
// holding is removed once it reaches zero.
func (s *BookingService) Cancel(ctx context.Context, input BookingInput) (*domain.BookingResult, error) {
	input.FlightNumber = domain.NormalizeFlightNumber(input.FlightNumber)
	release, err := s.lock(ctx, input.FlightNumber)
	if err != nil {
		return nil, err
	}
	defer release()

	var result domain.BookingResult
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		flight, err := s.store.Flights().GetForUpdate(ctx, input.FlightNumber)
		if err != nil {
			return err
		}
		if _, err := s.store.Customers().GetByID(ctx, input.CustomerID); err != nil {
			return err
		}

		existing, err := s.store.Bookings().Get(ctx, flight.Number, input.CustomerID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.NoBooking(flight.Number, input.CustomerID)
		}

		if input.Tickets <= 0 || input.Tickets > existing.Tickets {
			return domain.InvalidCount("cancel count must be between 1 and %d, got %d", existing.Tickets, input.Tickets)
		}

		available := flight.AvailableSeats + input.Tickets
		if err := s.store.Flights().UpdateAvailableSeats(ctx, flight.Number, available); err != nil {
			return err
		}

		held := existing.Tickets - input.Tickets
		if held == 0 {
			err = s.store.Bookings().Delete(ctx, flight.Number, input.CustomerID)
		} else {
			existing.Tickets = held
			existing.UpdatedAt = s.clock.Now()
			err = s.store.Bookings().Save(ctx, *existing)
		}
		if err != nil {
			return err
		}

		result = domain.BookingResult{
			FlightNumber:   flight.Number,
			CustomerID:     input.CustomerID,
			Changed:        input.Tickets,
			HeldTickets:    held,
			AvailableSeats: available,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, kafka.EventTicketsCancelled, result)
	return &result, nil
}

// Audit reports every flight whose available seats and held tickets do not
// add up to its capacity.
func (s *BookingService) Audit(ctx context.Context) ([]domain.Discrepancy, error) {
	var out []domain.Discrepancy
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		flights, err := s.store.Flights().List(ctx)
		if err != nil {
			return err
		}
		tickets, err := s.store.Bookings().TicketsByFlight(ctx)
		if err != nil {
			return err
		}

		out = make([]domain.Discrepancy, 0)
		for _, f := range flights {
			booked := tickets[f.Number]
			if f.AvailableSeats+booked != f.TotalSeats {
				out = append(out, domain.Discrepancy{
					FlightNumber:   f.Number,
					TotalSeats:     f.TotalSeats,
					AvailableSeats: f.AvailableSeats,
					BookedTickets:  booked,
				})
			}
			delete(tickets, f.Number)
		}
		for number, booked := range tickets {
			out = append(out, domain.Discrepancy{FlightNumber: number, BookedTickets: booked})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(out) > 0 {
		s.log.WithField("flights", len(out)).Error("seat ledger out of balance")
	}
	return out, nil
}

func (s *BookingService) lock(ctx context.Context, number string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	token, ok, err := s.locker.AcquireFlightLock(ctx, number, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire flight lock: %w", err)
	}
	if !ok {
		return nil, ErrFlightBusy
	}

	return func() {
		// ctx may already be cancelled; the lock must still go.
		if err := s.locker.ReleaseFlightLock(context.WithoutCancel(ctx), number, token); err != nil {
			s.log.WithError(err).WithField("flight_number", number).Warn("failed to release flight lock")
		}
	}, nil
}

func (s *BookingService) committed(ctx context.Context, eventType string, result domain.BookingResult) {
	fields := logrus.Fields{
		"flight_number": result.FlightNumber,
		"customer_id":   result.CustomerID,
		"tickets":       result.Changed,
		"available":     result.AvailableSeats,
	}
	s.log.WithFields(fields).Info(eventType)

	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			s.log.WithError(err).Warn("failed to invalidate flights cache")
		}
	}

	event := kafka.LedgerEvent{
		Type:           eventType,
		FlightNumber:   result.FlightNumber,
		CustomerID:     result.CustomerID,
		Tickets:        result.Changed,
		HeldTickets:    result.HeldTickets,
		AvailableSeats: result.AvailableSeats,
	}
	if c, err := s.store.Customers().GetByID(ctx, result.CustomerID); err == nil {
		event.Email = c.Email
	}
	s.publisher.Publish(ctx, event)
}

var _ BookingUseCase = (*BookingService)(nil)
