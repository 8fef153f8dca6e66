package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/airledger/internal/clock"
	"github.com/Domenick1991/airledger/internal/domain"
	"github.com/Domenick1991/airledger/internal/kafka"
	"github.com/Domenick1991/airledger/internal/repository"
	"github.com/Domenick1991/airledger/internal/service/events"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) AcquireFlightLock(ctx context.Context, number string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, number, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLocker) ReleaseFlightLock(ctx context.Context, number, token string) error {
	args := m.Called(ctx, number, token)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

const (
	ann int64 = 20001
	bob int64 = 20002
)

var now = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store   *repository.MemoryStore
	service *BookingService
	hook    *test.Hook
}

func newFixture(t *testing.T, opts ...BookingServiceOption) *fixture {
	t.Helper()

	store := repository.NewMemoryStore()
	ctx := context.Background()
	for _, f := range []domain.Flight{
		{Number: "AB-123", Origin: "Karachi", Destination: "Lahore", Gate: "A1", DepartureTime: now.Add(48 * time.Hour), TotalSeats: 100, AvailableSeats: 100},
		{Number: "CD-456", Origin: "Lahore", Destination: "Dubai", Gate: "B12", DepartureTime: now.Add(72 * time.Hour), TotalSeats: 8, AvailableSeats: 8},
	} {
		require.NoError(t, store.Flights().Create(ctx, f))
	}
	for _, c := range []domain.Customer{
		{ID: ann, Name: "Ann", Email: "ann@example.com"},
		{ID: bob, Name: "Bob", Email: "bob@example.com"},
	} {
		require.NoError(t, store.Customers().Create(ctx, c))
	}

	log, hook := test.NewNullLogger()
	opts = append([]BookingServiceOption{WithClock(clock.NewFixed(now)), WithLogger(log)}, opts...)
	return &fixture{store: store, service: NewBookingService(store, opts...), hook: hook}
}

type snapshot struct {
	flights  []domain.Flight
	bookings map[string][]domain.Booking
}

func (f *fixture) snapshot(t *testing.T) snapshot {
	t.Helper()
	ctx := context.Background()

	flights, err := f.store.Flights().List(ctx)
	require.NoError(t, err)
	snap := snapshot{flights: flights, bookings: make(map[string][]domain.Booking)}
	for _, fl := range flights {
		rows, err := f.store.Bookings().ListByFlight(ctx, fl.Number)
		require.NoError(t, err)
		snap.bookings[fl.Number] = rows
	}
	return snap
}

// assertLedger checks that seats balance on every flight and that a
// flight's passengers are exactly the customers holding tickets on it.
func (f *fixture) assertLedger(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	discrepancies, err := f.service.Audit(ctx)
	require.NoError(t, err)
	assert.Empty(t, discrepancies)

	flights, err := f.store.Flights().List(ctx)
	require.NoError(t, err)
	for _, fl := range flights {
		rows, err := f.store.Bookings().ListByFlight(ctx, fl.Number)
		require.NoError(t, err)
		for _, row := range rows {
			assert.Positive(t, row.Tickets)
		}
	}
	for _, id := range []int64{ann, bob} {
		rows, err := f.store.Bookings().ListByCustomer(ctx, id)
		require.NoError(t, err)
		for _, row := range rows {
			onFlight, err := f.store.Bookings().ListByFlight(ctx, row.FlightNumber)
			require.NoError(t, err)
			assert.Contains(t, onFlight, row)
		}
	}
}

func (f *fixture) held(t *testing.T, number string, id int64) int {
	t.Helper()
	b, err := f.store.Bookings().Get(context.Background(), number, id)
	require.NoError(t, err)
	if b == nil {
		return 0
	}
	return b.Tickets
}

func (f *fixture) available(t *testing.T, number string) int {
	t.Helper()
	fl, err := f.store.Flights().GetByNumber(context.Background(), number)
	require.NoError(t, err)
	return fl.AvailableSeats
}

func TestBookingService_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.service.Book(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 10})
	require.NoError(t, err)
	assert.Equal(t, 90, res.AvailableSeats)
	assert.Equal(t, 10, res.HeldTickets)
	f.assertLedger(t)

	res, err = f.service.Book(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 5})
	require.NoError(t, err)
	assert.Equal(t, 85, res.AvailableSeats)
	assert.Equal(t, 15, res.HeldTickets)
	assert.Equal(t, 15, f.held(t, "AB-123", ann))
	f.assertLedger(t)

	res, err = f.service.Cancel(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 15})
	require.NoError(t, err)
	assert.Equal(t, 100, res.AvailableSeats)
	assert.Zero(t, res.HeldTickets)

	passengers, err := f.store.Bookings().ListByFlight(ctx, "AB-123")
	require.NoError(t, err)
	assert.Empty(t, passengers)
	bookings, err := f.store.Bookings().ListByCustomer(ctx, ann)
	require.NoError(t, err)
	assert.Empty(t, bookings)
	f.assertLedger(t)
}

func TestBookingService_RebookMerges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Book(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: bob, Tickets: 1})
	require.NoError(t, err)
	_, err = f.service.Book(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 2})
	require.NoError(t, err)
	_, err = f.service.Book(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 3})
	require.NoError(t, err)

	rows, err := f.store.Bookings().ListByFlight(ctx, "AB-123")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, bob, rows[0].CustomerID)
	assert.Equal(t, ann, rows[1].CustomerID)
	assert.Equal(t, 5, rows[1].Tickets)

	annBookings, err := f.store.Bookings().ListByCustomer(ctx, ann)
	require.NoError(t, err)
	assert.Len(t, annBookings, 1)
	assert.Equal(t, 94, f.available(t, "AB-123"))
	f.assertLedger(t)
}

func TestBookingService_PartialCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Book(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 5})
	require.NoError(t, err)

	res, err := f.service.Cancel(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 2})

	require.NoError(t, err)
	assert.Equal(t, 3, res.HeldTickets)
	assert.Equal(t, 97, res.AvailableSeats)
	rows, err := f.store.Bookings().ListByFlight(ctx, "AB-123")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ann, rows[0].CustomerID)
	f.assertLedger(t)
}

func TestBookingService_FlightNumberCaseInsensitive(t *testing.T) {
	locker := &MockLocker{}
	f := newFixture(t, WithLocker(locker, time.Second))
	ctx := context.Background()

	locker.On("AcquireFlightLock", ctx, "AB-123", time.Second).Return("token-1", true, nil).Twice()
	locker.On("ReleaseFlightLock", mock.Anything, "AB-123", "token-1").Return(nil).Twice()

	res, err := f.service.Book(ctx, BookingInput{FlightNumber: "ab-123", CustomerID: ann, Tickets: 4})

	require.NoError(t, err)
	assert.Equal(t, "AB-123", res.FlightNumber)
	assert.Equal(t, 4, f.held(t, "AB-123", ann))
	assert.Equal(t, 96, f.available(t, "AB-123"))

	res, err = f.service.Cancel(ctx, BookingInput{FlightNumber: " Ab-123", CustomerID: ann, Tickets: 1})

	require.NoError(t, err)
	assert.Equal(t, 3, res.HeldTickets)
	locker.AssertExpectations(t)
	f.assertLedger(t)
}

func TestBookingService_BookInvalidCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.Book(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 2})
	require.NoError(t, err)

	for _, count := range []int{-3, 0, 11, 50} {
		before := f.snapshot(t)

		_, err := f.service.Book(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: count})

		assert.ErrorIs(t, err, domain.ErrInvalidCount, "count %d", count)
		assert.Equal(t, before, f.snapshot(t), "count %d", count)
	}
	f.assertLedger(t)
}

func TestBookingService_BookInsufficientSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.Book(ctx, BookingInput{FlightNumber: "CD-456", CustomerID: bob, Tickets: 5})
	require.NoError(t, err)
	before := f.snapshot(t)

	_, err = f.service.Book(ctx, BookingInput{FlightNumber: "CD-456", CustomerID: ann, Tickets: 4})

	assert.ErrorIs(t, err, domain.ErrInsufficientSeats)
	assert.EqualError(t, err, "flight CD-456 has 3 seats available, 4 requested")
	assert.Equal(t, before, f.snapshot(t))
	assert.Zero(t, f.held(t, "CD-456", ann))
	f.assertLedger(t)
}

func TestBookingService_BookNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.snapshot(t)

	_, err := f.service.Book(ctx, BookingInput{FlightNumber: "ZZ-999", CustomerID: ann, Tickets: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.service.Book(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: 99999, Tickets: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Unknown entities are reported before the count is looked at.
	_, err = f.service.Book(ctx, BookingInput{FlightNumber: "ZZ-999", CustomerID: ann, Tickets: 0})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, before, f.snapshot(t))
}

func TestBookingService_CancelErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.Book(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 4})
	require.NoError(t, err)
	before := f.snapshot(t)

	tests := []struct {
		name  string
		input BookingInput
		want  error
	}{
		{"unknown flight", BookingInput{FlightNumber: "ZZ-999", CustomerID: ann, Tickets: 1}, domain.ErrNotFound},
		{"unknown customer", BookingInput{FlightNumber: "AB-123", CustomerID: 99999, Tickets: 1}, domain.ErrNotFound},
		{"no booking", BookingInput{FlightNumber: "AB-123", CustomerID: bob, Tickets: 1}, domain.ErrNoBooking},
		{"no booking on other flight", BookingInput{FlightNumber: "CD-456", CustomerID: ann, Tickets: 1}, domain.ErrNoBooking},
		{"zero", BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 0}, domain.ErrInvalidCount},
		{"negative", BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: -1}, domain.ErrInvalidCount},
		{"more than held", BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 5}, domain.ErrInvalidCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Cancel(ctx, tt.input)

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, f.snapshot(t))
		})
	}
	f.assertLedger(t)
}

func TestBookingService_MaxTicketsOption(t *testing.T) {
	f := newFixture(t, WithMaxTickets(20))
	ctx := context.Background()

	res, err := f.service.Book(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 20})
	require.NoError(t, err)
	assert.Equal(t, 80, res.AvailableSeats)

	_, err = f.service.Book(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 21})
	assert.ErrorIs(t, err, domain.ErrInvalidCount)
}

func TestBookingService_ConcurrentBookingsDoNotOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			customer := ann
			if i%2 == 1 {
				customer = bob
			}
			_, err := f.service.Book(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: customer, Tickets: 5})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientSeats)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, succeeded)
	assert.Zero(t, f.available(t, "AB-123"))
	assert.Equal(t, 100, f.held(t, "AB-123", ann)+f.held(t, "AB-123", bob))
	f.assertLedger(t)
}

func TestBookingService_LockBusy(t *testing.T) {
	locker := &MockLocker{}
	f := newFixture(t, WithLocker(locker, 3*time.Second))
	ctx := context.Background()
	before := f.snapshot(t)

	locker.On("AcquireFlightLock", ctx, "AB-123", 3*time.Second).Return("", false, nil).Once()

	_, err := f.service.Book(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 1})

	assert.ErrorIs(t, err, ErrFlightBusy)
	assert.Equal(t, before, f.snapshot(t))
	locker.AssertNotCalled(t, "ReleaseFlightLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_LockErrorIsWrapped(t *testing.T) {
	locker := &MockLocker{}
	f := newFixture(t, WithLocker(locker, 0))
	ctx := context.Background()
	redisDown := errors.New("connection refused")

	locker.On("AcquireFlightLock", ctx, "AB-123", defaultLockTTL).Return("", false, redisDown).Once()

	_, err := f.service.Cancel(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 1})

	assert.ErrorIs(t, err, redisDown)
}

func TestBookingService_LockReleasedOnFailure(t *testing.T) {
	locker := &MockLocker{}
	f := newFixture(t, WithLocker(locker, time.Second))
	ctx := context.Background()

	locker.On("AcquireFlightLock", ctx, "CD-456", time.Second).Return("token-1", true, nil).Once()
	locker.On("ReleaseFlightLock", mock.Anything, "CD-456", "token-1").Return(nil).Once()

	_, err := f.service.Book(ctx, BookingInput{FlightNumber: "CD-456", CustomerID: ann, Tickets: 9})

	assert.ErrorIs(t, err, domain.ErrInsufficientSeats)
	locker.AssertExpectations(t)
}

func TestBookingService_CommitSideEffects(t *testing.T) {
	cache := &MockCache{}
	producer := &MockProducer{}
	log, _ := test.NewNullLogger()
	publisher := events.NewPublisher(producer, "ledger.events", log, events.WithClock(clock.NewFixed(now)))
	f := newFixture(t, WithCache(cache), WithPublisher(publisher))
	ctx := context.Background()

	booked := mock.MatchedBy(func(e kafka.LedgerEvent) bool {
		return e.Type == kafka.EventTicketsBooked && e.Tickets == 3 && e.HeldTickets == 3 &&
			e.AvailableSeats == 97 && e.Email == "ann@example.com"
	})
	cancelled := mock.MatchedBy(func(e kafka.LedgerEvent) bool {
		return e.Type == kafka.EventTicketsCancelled && e.Tickets == 1 && e.HeldTickets == 2 && e.AvailableSeats == 98
	})
	cache.On("InvalidateFlights", ctx).Return(nil).Twice()
	producer.On("Publish", ctx, "ledger.events", "AB-123", booked).Return(nil).Once()
	producer.On("Publish", ctx, "ledger.events", "AB-123", cancelled).Return(nil).Once()

	_, err := f.service.Book(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 3})
	require.NoError(t, err)
	_, err = f.service.Cancel(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 1})
	require.NoError(t, err)

	cache.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestBookingService_NoSideEffectsOnFailure(t *testing.T) {
	cache := &MockCache{}
	producer := &MockProducer{}
	log, _ := test.NewNullLogger()
	f := newFixture(t, WithCache(cache), WithPublisher(events.NewPublisher(producer, "ledger.events", log)))

	_, err := f.service.Book(context.Background(), BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 11})

	assert.ErrorIs(t, err, domain.ErrInvalidCount)
	cache.AssertNotCalled(t, "InvalidateFlights", mock.Anything)
	producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_PublishFailureKeepsBooking(t *testing.T) {
	producer := &MockProducer{}
	pubLog, pubHook := test.NewNullLogger()
	f := newFixture(t, WithPublisher(events.NewPublisher(producer, "ledger.events", pubLog)))
	ctx := context.Background()

	producer.On("Publish", mock.Anything, "ledger.events", "AB-123", mock.Anything).Return(errors.New("broker down")).Once()

	res, err := f.service.Book(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: bob, Tickets: 2})

	require.NoError(t, err)
	assert.Equal(t, 98, res.AvailableSeats)
	assert.Equal(t, 2, f.held(t, "AB-123", bob))
	if assert.Len(t, pubHook.Entries, 1) {
		assert.Equal(t, logrus.WarnLevel, pubHook.LastEntry().Level)
	}
}

func TestBookingService_AuditReportsImbalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.Book(ctx, BookingInput{FlightNumber: "AB-123", CustomerID: ann, Tickets: 4})
	require.NoError(t, err)

	// Seats changed behind the engine's back.
	require.NoError(t, f.store.Flights().UpdateAvailableSeats(ctx, "AB-123", 99))

	discrepancies, err := f.service.Audit(ctx)

	require.NoError(t, err)
	require.Len(t, discrepancies, 1)
	assert.Equal(t, domain.Discrepancy{FlightNumber: "AB-123", TotalSeats: 100, AvailableSeats: 99, BookedTickets: 4}, discrepancies[0])
	assert.Equal(t, logrus.ErrorLevel, f.hook.LastEntry().Level)
}
