package ledger_service_api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Domenick1991/airledger/internal/domain"
	"github.com/Domenick1991/airledger/internal/service/booking"
	"github.com/Domenick1991/airledger/internal/service/flights"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server exposes the booking engine and the flight listing over gRPC.
type Server struct {
	bookings booking.BookingUseCase
	flights  flights.FlightUseCase
}

func NewServer(bookings booking.BookingUseCase, flights flights.FlightUseCase) *Server {
	return &Server{bookings: bookings, flights: flights}
}

func (s *Server) Book(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := bookingInput(req)
	if err != nil {
		return nil, err
	}
	result, err := s.bookings.Book(ctx, input)
	if err != nil {
		return nil, toStatus(err)
	}
	return resultStruct(result)
}

func (s *Server) Cancel(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := bookingInput(req)
	if err != nil {
		return nil, err
	}
	result, err := s.bookings.Cancel(ctx, input)
	if err != nil {
		return nil, toStatus(err)
	}
	return resultStruct(result)
}

func (s *Server) ListFlights(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	list, err := s.flights.List(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	items := make([]interface{}, 0, len(list))
	for _, f := range list {
		items = append(items, map[string]interface{}{
			"number":          f.Number,
			"origin":          f.Origin,
			"destination":     f.Destination,
			"gate":            f.Gate,
			"departure_time":  f.DepartureTime.Format(time.RFC3339),
			"arrival_time":    f.ArrivalTime().Format(time.RFC3339),
			"distance_miles":  f.DistanceMiles,
			"total_seats":     f.TotalSeats,
			"available_seats": f.AvailableSeats,
		})
	}
	out, err := structpb.NewStruct(map[string]interface{}{"flights": items})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// maxExactInt is the largest integer a Struct number carries exactly.
const maxExactInt = 1 << 53

func bookingInput(req *structpb.Struct) (booking.BookingInput, error) {
	fields := req.GetFields()
	customerID, err := wholeNumber(fields, "customer_id", maxExactInt)
	if err != nil {
		return booking.BookingInput{}, err
	}
	tickets, err := wholeNumber(fields, "tickets", math.MaxInt32)
	if err != nil {
		return booking.BookingInput{}, err
	}
	return booking.BookingInput{
		FlightNumber: fields["flight_number"].GetStringValue(),
		CustomerID:   customerID,
		Tickets:      int(tickets),
	}, nil
}

// wholeNumber reads an integer field. Fractions, NaN, infinities and values
// beyond limit are rejected rather than truncated.
func wholeNumber(fields map[string]*structpb.Value, name string, limit float64) (int64, error) {
	v := fields[name].GetNumberValue()
	if math.IsNaN(v) || v != math.Trunc(v) || math.Abs(v) > limit {
		return 0, status.Error(codes.InvalidArgument, fmt.Sprintf("%s must be a whole number, got %v", name, v))
	}
	return int64(v), nil
}

func resultStruct(r *domain.BookingResult) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]interface{}{
		"flight_number":   r.FlightNumber,
		"customer_id":     r.CustomerID,
		"changed":         r.Changed,
		"held_tickets":    r.HeldTickets,
		"available_seats": r.AvailableSeats,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

var kindCodes = map[domain.ErrorKind]codes.Code{
	domain.KindValidation:        codes.InvalidArgument,
	domain.KindInvalidCount:      codes.InvalidArgument,
	domain.KindNotFound:          codes.NotFound,
	domain.KindNoBooking:         codes.NotFound,
	domain.KindInsufficientSeats: codes.FailedPrecondition,
}

func toStatus(err error) error {
	if errors.Is(err, booking.ErrFlightBusy) {
		return status.Error(codes.Aborted, err.Error())
	}
	if code, ok := kindCodes[domain.KindOf(err)]; ok {
		return status.Error(code, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}

// UnaryLogger logs every call with its method, code and duration.
func UnaryLogger(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		entry := log.WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"code":     status.Code(err).String(),
			"duration": time.Since(start).String(),
		})
		if status.Code(err) == codes.Internal {
			entry.WithError(err).Warn("grpc call failed")
		} else {
			entry.Info("grpc call served")
		}
		return resp, err
	}
}

var _ LedgerServiceServer = (*Server)(nil)
