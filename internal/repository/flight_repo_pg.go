package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/airledger/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGFlightRepository struct {
	q querier
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{q: querier{db: db}}
}

const flightColumns = `number, origin, destination, gate, departure_time, duration_minutes, distance_miles, total_seats, available_seats, created_at`

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var (
		f       domain.Flight
		minutes int64
	)
	if err := row.Scan(&f.Number, &f.Origin, &f.Destination, &f.Gate, &f.DepartureTime, &minutes, &f.DistanceMiles, &f.TotalSeats, &f.AvailableSeats, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.Duration = time.Duration(minutes) * time.Minute
	return &f, nil
}

func (r *PGFlightRepository) Create(ctx context.Context, f domain.Flight) error {
	_, err := r.q.exec(ctx, `INSERT INTO flights (`+flightColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		f.Number, f.Origin, f.Destination, f.Gate, f.DepartureTime, int64(f.Duration/time.Minute), f.DistanceMiles, f.TotalSeats, f.AvailableSeats, f.CreatedAt)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return domain.ValidationError("flight %s already scheduled", f.Number)
		}
		return fmt.Errorf("create flight: %w", err)
	}
	return nil
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.q.query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flight: %w", err)
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) GetByNumber(ctx context.Context, number string) (*domain.Flight, error) {
	return r.get(ctx, `SELECT `+flightColumns+` FROM flights WHERE number=$1`, number)
}

func (r *PGFlightRepository) GetForUpdate(ctx context.Context, number string) (*domain.Flight, error) {
	return r.get(ctx, `SELECT `+flightColumns+` FROM flights WHERE number=$1 FOR UPDATE`, number)
}

func (r *PGFlightRepository) get(ctx context.Context, sql, number string) (*domain.Flight, error) {
	f, err := scanFlight(r.q.queryRow(ctx, sql, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.FlightNotFound(number)
		}
		return nil, fmt.Errorf("get flight: %w", err)
	}
	return f, nil
}

func (r *PGFlightRepository) UpdateAvailableSeats(ctx context.Context, number string, available int) error {
	res, err := r.q.exec(ctx, `UPDATE flights SET available_seats=$1, updated_at=now()
		WHERE number=$2 AND $1 BETWEEN 0 AND total_seats`, available, number)
	if err != nil {
		return fmt.Errorf("update available seats: %w", err)
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("available seats %d out of range for flight %s", available, number)
	}
	return nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
