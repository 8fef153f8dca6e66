package api

import (
	"context"

	"github.com/Domenick1991/airledger/internal/domain"
	"github.com/Domenick1991/airledger/internal/service/booking"
	"github.com/Domenick1991/airledger/internal/service/customers"
	"github.com/Domenick1991/airledger/internal/service/flights"
	"github.com/stretchr/testify/mock"
)

type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) Schedule(ctx context.Context, input flights.ScheduleFlightInput) (*domain.Flight, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetByNumber(ctx context.Context, number string) (*domain.Flight, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Passengers(ctx context.Context, number string) ([]domain.Passenger, error) {
	args := m.Called(ctx, number)
	return args.Get(0).([]domain.Passenger), args.Error(1)
}

type MockCustomerUseCase struct {
	mock.Mock
}

func (m *MockCustomerUseCase) Register(ctx context.Context, input customers.RegisterCustomerInput) (*domain.Customer, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerUseCase) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerUseCase) List(ctx context.Context) ([]domain.Customer, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Customer), args.Error(1)
}

func (m *MockCustomerUseCase) Bookings(ctx context.Context, id int64) ([]domain.Booking, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockCustomerUseCase) Authenticate(ctx context.Context, email, password string) (*domain.Customer, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) Book(ctx context.Context, input booking.BookingInput) (*domain.BookingResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingResult), args.Error(1)
}

func (m *MockBookingUseCase) Cancel(ctx context.Context, input booking.BookingInput) (*domain.BookingResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingResult), args.Error(1)
}

func (m *MockBookingUseCase) Audit(ctx context.Context) ([]domain.Discrepancy, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Discrepancy), args.Error(1)
}
