package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airledger/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const customerEmailIndex = "customers_email_lower_key"

type PGCustomerRepository struct {
	q querier
}

func NewCustomerRepository(db *pgxpool.Pool) CustomerRepository {
	return &PGCustomerRepository{q: querier{db: db}}
}

const customerColumns = `id, name, email, password_hash, phone, address, age, created_at`

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Phone, &c.Address, &c.Age, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGCustomerRepository) Create(ctx context.Context, c domain.Customer) error {
	_, err := r.q.exec(ctx, `INSERT INTO customers (`+customerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Name, c.Email, c.PasswordHash, c.Phone, c.Address, c.Age, c.CreatedAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if constraint == customerEmailIndex {
				return domain.ValidationError("email already registered")
			}
			return ErrDuplicateCustomerID
		}
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (r *PGCustomerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	c, err := scanCustomer(r.q.queryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.CustomerNotFound(id)
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (r *PGCustomerRepository) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	c, err := scanCustomer(r.q.queryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE lower(email)=$1`, domain.NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.Error{Kind: domain.KindNotFound, Msg: "customer not found"}
		}
		return nil, fmt.Errorf("get customer by email: %w", err)
	}
	return c, nil
}

func (r *PGCustomerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.q.query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

var _ CustomerRepository = (*PGCustomerRepository)(nil)
