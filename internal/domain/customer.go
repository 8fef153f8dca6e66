package domain

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Customer struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	Age          int       `json:"age"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// CheckPassword reports whether password matches the stored hash.
func (c Customer) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(password)) == nil
}

type CustomerParams struct {
	Name     string `json:"name" validate:"notblank"`
	Email    string `json:"email" validate:"email_addr"`
	Password string `json:"password" validate:"min=8,bcryptlen"`
	Phone    string `json:"phone" validate:"phone"`
	Address  string `json:"address"`
	Age      int    `json:"age" validate:"gt=0,lte=120"`
}

// NewCustomer validates the profile fields of p. Email uniqueness is a
// directory concern and is not checked here.
func NewCustomer(id int64, p CustomerParams, now time.Time) (Customer, error) {
	if err := validateStruct(p); err != nil {
		return Customer{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return Customer{}, fmt.Errorf("hash password: %w", err)
	}

	return Customer{
		ID:           id,
		Name:         strings.TrimSpace(p.Name),
		Email:        p.Email,
		Phone:        p.Phone,
		Address:      p.Address,
		Age:          p.Age,
		PasswordHash: hash,
		CreatedAt:    now,
	}, nil
}

// NormalizeEmail is the key under which email uniqueness is enforced.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
