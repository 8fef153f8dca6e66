package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airledger/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGBookingRepository struct {
	q querier
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{q: querier{db: db}}
}

const bookingColumns = `flight_number, customer_id, tickets, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.FlightNumber, &b.CustomerID, &b.Tickets, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) Get(ctx context.Context, flightNumber string, customerID int64) (*domain.Booking, error) {
	b, err := scanBooking(r.q.queryRow(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE flight_number=$1 AND customer_id=$2`, flightNumber, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (r *PGBookingRepository) Save(ctx context.Context, b domain.Booking) error {
	_, err := r.q.exec(ctx, `INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (flight_number, customer_id)
		DO UPDATE SET tickets = EXCLUDED.tickets, updated_at = EXCLUDED.updated_at`,
		b.FlightNumber, b.CustomerID, b.Tickets, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) Delete(ctx context.Context, flightNumber string, customerID int64) error {
	res, err := r.q.exec(ctx, `DELETE FROM bookings WHERE flight_number=$1 AND customer_id=$2`, flightNumber, customerID)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if res.RowsAffected() == 0 {
		return domain.NoBooking(flightNumber, customerID)
	}
	return nil
}

func (r *PGBookingRepository) ListByFlight(ctx context.Context, flightNumber string) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE flight_number=$1 ORDER BY seq`, flightNumber)
}

func (r *PGBookingRepository) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE customer_id=$1 ORDER BY seq`, customerID)
}

func (r *PGBookingRepository) list(ctx context.Context, sql string, arg any) ([]domain.Booking, error) {
	rows, err := r.q.query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) TicketsByFlight(ctx context.Context) (map[string]int, error) {
	rows, err := r.q.query(ctx, `SELECT flight_number, SUM(tickets) FROM bookings GROUP BY flight_number`)
	if err != nil {
		return nil, fmt.Errorf("sum tickets: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var (
			number string
			sum    int64
		)
		if err := rows.Scan(&number, &sum); err != nil {
			return nil, fmt.Errorf("scan ticket sum: %w", err)
		}
		totals[number] = int(sum)
	}
	return totals, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
