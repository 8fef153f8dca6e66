package customers

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/Domenick1991/airledger/internal/clock"
	"github.com/Domenick1991/airledger/internal/domain"
	"github.com/Domenick1991/airledger/internal/kafka"
	"github.com/Domenick1991/airledger/internal/repository"
	"github.com/Domenick1991/airledger/internal/service/events"
	"github.com/sirupsen/logrus"
)

const (
	MinCustomerID = 20000
	MaxCustomerID = 1000000

	maxIDAttempts = 16
)

var errInvalidCredentials = &domain.Error{Kind: domain.KindNotFound, Msg: "invalid email or password"}

type CustomerUseCase interface {
	Register(ctx context.Context, input RegisterCustomerInput) (*domain.Customer, error)
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
	Bookings(ctx context.Context, id int64) ([]domain.Booking, error)
	Authenticate(ctx context.Context, email, password string) (*domain.Customer, error)
}

// IDGenerator draws candidate customer ids.
type IDGenerator interface {
	NextID() int64
}

type randomIDs struct{}

func (randomIDs) NextID() int64 {
	return MinCustomerID + rand.Int63n(MaxCustomerID-MinCustomerID)
}

type RegisterCustomerInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Age      int    `json:"age"`
}

type CustomerService struct {
	store     repository.Store
	ids       IDGenerator
	clock     clock.Clock
	publisher *events.Publisher
	log       logrus.FieldLogger
}

type CustomerServiceOption func(*CustomerService)

func WithIDGenerator(ids IDGenerator) CustomerServiceOption {
	return func(s *CustomerService) {
		s.ids = ids
	}
}

func WithClock(clk clock.Clock) CustomerServiceOption {
	return func(s *CustomerService) {
		s.clock = clk
	}
}

func WithPublisher(p *events.Publisher) CustomerServiceOption {
	return func(s *CustomerService) {
		s.publisher = p
	}
}

func WithLogger(log logrus.FieldLogger) CustomerServiceOption {
	return func(s *CustomerService) {
		s.log = log
	}
}

func NewCustomerService(store repository.Store, opts ...CustomerServiceOption) *CustomerService {
	s := &CustomerService{
		store: store,
		ids:   randomIDs{},
		clock: clock.NewSystem(),
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CustomerService) Register(ctx context.Context, input RegisterCustomerInput) (*domain.Customer, error) {
	existing, err := s.store.Customers().GetByEmail(ctx, input.Email)
	switch {
	case err == nil && existing != nil:
		return nil, domain.ValidationError("email already registered")
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	var customer domain.Customer
	for attempt := 0; ; attempt++ {
		if attempt == maxIDAttempts {
			return nil, fmt.Errorf("register customer: no free id after %d attempts", maxIDAttempts)
		}

		customer, err = domain.NewCustomer(s.ids.NextID(), domain.CustomerParams(input), s.clock.Now())
		if err != nil {
			return nil, err
		}

		err = s.store.Customers().Create(ctx, customer)
		if errors.Is(err, repository.ErrDuplicateCustomerID) {
			s.log.WithField("customer_id", customer.ID).Debug("customer id taken, drawing another")
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}

	s.log.WithField("customer_id", customer.ID).Info("customer registered")
	s.publisher.Publish(ctx, kafka.LedgerEvent{
		Type:       kafka.EventCustomerRegistered,
		CustomerID: customer.ID,
		Email:      customer.Email,
	})
	return &customer, nil
}

func (s *CustomerService) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.store.Customers().GetByID(ctx, id)
}

func (s *CustomerService) List(ctx context.Context) ([]domain.Customer, error) {
	return s.store.Customers().List(ctx)
}

// Bookings returns the flights a customer holds tickets on, in the order
// they were first booked.
func (s *CustomerService) Bookings(ctx context.Context, id int64) ([]domain.Booking, error) {
	if _, err := s.store.Customers().GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Bookings().ListByCustomer(ctx, id)
}

// Authenticate does not tell an unknown email apart from a wrong password.
func (s *CustomerService) Authenticate(ctx context.Context, email, password string) (*domain.Customer, error) {
	customer, err := s.store.Customers().GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !customer.CheckPassword(password) {
		return nil, errInvalidCredentials
	}
	return customer, nil
}

var _ CustomerUseCase = (*CustomerService)(nil)
