package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgTxKey struct{}

func withTx(ctx context.Context, db *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, pgTxKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(pgTxKey{}).(pgx.Tx)
	return tx
}

// querier runs statements on the transaction carried by ctx, or on the pool.
type querier struct {
	db *pgxpool.Pool
}

func (q querier) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return q.db.Exec(ctx, sql, args...)
}

func (q querier) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return q.db.Query(ctx, sql, args...)
}

func (q querier) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return q.db.QueryRow(ctx, sql, args...)
}

func uniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// PGStore is the Postgres backend. All repositories share the pool, so a
// transaction opened by WithTx spans them.
type PGStore struct {
	db        *pgxpool.Pool
	flights   FlightRepository
	customers CustomerRepository
	bookings  BookingRepository
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{
		db:        db,
		flights:   NewFlightRepository(db),
		customers: NewCustomerRepository(db),
		bookings:  NewBookingRepository(db),
	}
}

func (s *PGStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.db, fn)
}

func (s *PGStore) Flights() FlightRepository     { return s.flights }
func (s *PGStore) Customers() CustomerRepository { return s.customers }
func (s *PGStore) Bookings() BookingRepository   { return s.bookings }

var _ Store = (*PGStore)(nil)
