package ledger_service_api

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/airledger/internal/domain"
	"github.com/Domenick1991/airledger/internal/service/booking"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls LedgerService over an established connection.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) Book(ctx context.Context, input booking.BookingInput) (*domain.BookingResult, error) {
	return c.change(ctx, bookMethod, input)
}

func (c *Client) Cancel(ctx context.Context, input booking.BookingInput) (*domain.BookingResult, error) {
	return c.change(ctx, cancelMethod, input)
}

func (c *Client) ListFlights(ctx context.Context) ([]domain.Flight, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, listFlightsMethod, &structpb.Struct{}, out); err != nil {
		return nil, err
	}

	values := out.GetFields()["flights"].GetListValue().GetValues()
	list := make([]domain.Flight, 0, len(values))
	for _, v := range values {
		f := v.GetStructValue().GetFields()
		departure, err := time.Parse(time.RFC3339, f["departure_time"].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("decode flight %s: %w", f["number"].GetStringValue(), err)
		}
		arrival, err := time.Parse(time.RFC3339, f["arrival_time"].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("decode flight %s: %w", f["number"].GetStringValue(), err)
		}
		list = append(list, domain.Flight{
			Number:         f["number"].GetStringValue(),
			Origin:         f["origin"].GetStringValue(),
			Destination:    f["destination"].GetStringValue(),
			Gate:           f["gate"].GetStringValue(),
			DepartureTime:  departure,
			Duration:       arrival.Sub(departure),
			DistanceMiles:  f["distance_miles"].GetNumberValue(),
			TotalSeats:     int(f["total_seats"].GetNumberValue()),
			AvailableSeats: int(f["available_seats"].GetNumberValue()),
		})
	}
	return list, nil
}

func (c *Client) change(ctx context.Context, method string, input booking.BookingInput) (*domain.BookingResult, error) {
	req, err := structpb.NewStruct(map[string]interface{}{
		"flight_number": input.FlightNumber,
		"customer_id":   input.CustomerID,
		"tickets":       input.Tickets,
	})
	if err != nil {
		return nil, err
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, req, out); err != nil {
		return nil, err
	}

	f := out.GetFields()
	return &domain.BookingResult{
		FlightNumber:   f["flight_number"].GetStringValue(),
		CustomerID:     int64(f["customer_id"].GetNumberValue()),
		Changed:        int(f["changed"].GetNumberValue()),
		HeldTickets:    int(f["held_tickets"].GetNumberValue()),
		AvailableSeats: int(f["available_seats"].GetNumberValue()),
	}, nil
}
