package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Domenick1991/airledger/internal/domain"
)

// ErrDuplicateCustomerID is returned by CustomerRepository.Create when the
// id is already taken; the caller draws a new one.
var ErrDuplicateCustomerID = errors.New("customer id already exists")

// MemoryStore keeps flights, customers and the booking table in process.
// A single mutex guards all three, so a transaction sees and changes them
// together.
type MemoryStore struct {
	mu sync.Mutex

	flights     []domain.Flight
	flightIdx   map[string]int
	customers   []domain.Customer
	customerIdx map[int64]int
	emails      map[string]int64
	bookings    []domain.Booking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flightIdx:   make(map[string]int),
		customerIdx: make(map[int64]int),
		emails:      make(map[string]int64),
	}
}

type memTxKey struct{}

type memTx struct {
	store *MemoryStore
	undo  []func()
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txFrom(ctx) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The undo journal also runs when fn panics; the panic keeps unwinding.
	tx := &memTx{store: s}
	committed := false
	defer func() {
		if committed {
			return
		}
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
	}()

	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *MemoryStore) Flights() FlightRepository     { return memFlights{s} }
func (s *MemoryStore) Customers() CustomerRepository { return memCustomers{s} }
func (s *MemoryStore) Bookings() BookingRepository   { return memBookings{s} }

func (s *MemoryStore) txFrom(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)
	if tx == nil || tx.store != s {
		return nil
	}
	return tx
}

// lock takes the store mutex unless ctx already runs inside a transaction
// of this store, which holds it.
func (s *MemoryStore) lock(ctx context.Context) func() {
	if s.txFrom(ctx) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// onRollback registers undo to run if the surrounding transaction fails.
// Undo steps run in reverse order, so each sees the state its change left.
func (s *MemoryStore) onRollback(ctx context.Context, undo func()) {
	if tx := s.txFrom(ctx); tx != nil {
		tx.undo = append(tx.undo, undo)
	}
}

type memFlights struct{ s *MemoryStore }

func (r memFlights) Create(ctx context.Context, flight domain.Flight) error {
	s := r.s
	defer s.lock(ctx)()

	if _, ok := s.flightIdx[flight.Number]; ok {
		return domain.ValidationError("flight %s already scheduled", flight.Number)
	}
	s.flights = append(s.flights, flight)
	s.flightIdx[flight.Number] = len(s.flights) - 1

	s.onRollback(ctx, func() {
		s.flights = s.flights[:len(s.flights)-1]
		delete(s.flightIdx, flight.Number)
	})
	return nil
}

func (r memFlights) List(ctx context.Context) ([]domain.Flight, error) {
	defer r.s.lock(ctx)()
	return append(make([]domain.Flight, 0, len(r.s.flights)), r.s.flights...), nil
}

func (r memFlights) GetByNumber(ctx context.Context, number string) (*domain.Flight, error) {
	defer r.s.lock(ctx)()

	i, ok := r.s.flightIdx[number]
	if !ok {
		return nil, domain.FlightNotFound(number)
	}
	f := r.s.flights[i]
	return &f, nil
}

func (r memFlights) GetForUpdate(ctx context.Context, number string) (*domain.Flight, error) {
	return r.GetByNumber(ctx, number)
}

func (r memFlights) UpdateAvailableSeats(ctx context.Context, number string, available int) error {
	s := r.s
	defer s.lock(ctx)()

	i, ok := s.flightIdx[number]
	if !ok {
		return domain.FlightNotFound(number)
	}
	if available < 0 || available > s.flights[i].TotalSeats {
		return fmt.Errorf("available seats %d out of range for flight %s", available, number)
	}

	prev := s.flights[i].AvailableSeats
	s.flights[i].AvailableSeats = available
	s.onRollback(ctx, func() { s.flights[i].AvailableSeats = prev })
	return nil
}

type memCustomers struct{ s *MemoryStore }

func (r memCustomers) Create(ctx context.Context, customer domain.Customer) error {
	s := r.s
	defer s.lock(ctx)()

	if _, ok := s.customerIdx[customer.ID]; ok {
		return ErrDuplicateCustomerID
	}
	email := domain.NormalizeEmail(customer.Email)
	if _, ok := s.emails[email]; ok {
		return domain.ValidationError("email already registered")
	}

	s.customers = append(s.customers, customer)
	s.customerIdx[customer.ID] = len(s.customers) - 1
	s.emails[email] = customer.ID

	s.onRollback(ctx, func() {
		s.customers = s.customers[:len(s.customers)-1]
		delete(s.customerIdx, customer.ID)
		delete(s.emails, email)
	})
	return nil
}

func (r memCustomers) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	defer r.s.lock(ctx)()

	i, ok := r.s.customerIdx[id]
	if !ok {
		return nil, domain.CustomerNotFound(id)
	}
	c := r.s.customers[i]
	return &c, nil
}

func (r memCustomers) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	defer r.s.lock(ctx)()

	id, ok := r.s.emails[domain.NormalizeEmail(email)]
	if !ok {
		return nil, &domain.Error{Kind: domain.KindNotFound, Msg: "customer not found"}
	}
	c := r.s.customers[r.s.customerIdx[id]]
	return &c, nil
}

func (r memCustomers) List(ctx context.Context) ([]domain.Customer, error) {
	defer r.s.lock(ctx)()
	return append(make([]domain.Customer, 0, len(r.s.customers)), r.s.customers...), nil
}

type memBookings struct{ s *MemoryStore }

func (r memBookings) find(flightNumber string, customerID int64) int {
	return slices.IndexFunc(r.s.bookings, func(b domain.Booking) bool {
		return b.FlightNumber == flightNumber && b.CustomerID == customerID
	})
}

func (r memBookings) Get(ctx context.Context, flightNumber string, customerID int64) (*domain.Booking, error) {
	defer r.s.lock(ctx)()

	i := r.find(flightNumber, customerID)
	if i < 0 {
		return nil, nil
	}
	b := r.s.bookings[i]
	return &b, nil
}

func (r memBookings) Save(ctx context.Context, booking domain.Booking) error {
	s := r.s
	defer s.lock(ctx)()

	if booking.Tickets <= 0 {
		return fmt.Errorf("booking tickets must be positive, got %d", booking.Tickets)
	}

	i := r.find(booking.FlightNumber, booking.CustomerID)
	if i < 0 {
		s.bookings = append(s.bookings, booking)
		s.onRollback(ctx, func() { s.bookings = s.bookings[:len(s.bookings)-1] })
		return nil
	}

	prev := s.bookings[i]
	booking.CreatedAt = prev.CreatedAt
	s.bookings[i] = booking
	s.onRollback(ctx, func() { s.bookings[i] = prev })
	return nil
}

func (r memBookings) Delete(ctx context.Context, flightNumber string, customerID int64) error {
	s := r.s
	defer s.lock(ctx)()

	i := r.find(flightNumber, customerID)
	if i < 0 {
		return domain.NoBooking(flightNumber, customerID)
	}

	prev := s.bookings[i]
	s.bookings = slices.Delete(s.bookings, i, i+1)
	s.onRollback(ctx, func() { s.bookings = slices.Insert(s.bookings, i, prev) })
	return nil
}

func (r memBookings) ListByFlight(ctx context.Context, flightNumber string) ([]domain.Booking, error) {
	defer r.s.lock(ctx)()
	return r.filter(func(b domain.Booking) bool { return b.FlightNumber == flightNumber }), nil
}

func (r memBookings) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Booking, error) {
	defer r.s.lock(ctx)()
	return r.filter(func(b domain.Booking) bool { return b.CustomerID == customerID }), nil
}

func (r memBookings) TicketsByFlight(ctx context.Context) (map[string]int, error) {
	defer r.s.lock(ctx)()

	totals := make(map[string]int)
	for _, b := range r.s.bookings {
		totals[b.FlightNumber] += b.Tickets
	}
	return totals, nil
}

func (r memBookings) filter(keep func(domain.Booking) bool) []domain.Booking {
	out := make([]domain.Booking, 0)
	for _, b := range r.s.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

var _ Store = (*MemoryStore)(nil)
