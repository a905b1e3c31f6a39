package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("employee: not found")
	ErrInvalid  = errors.New("employee: invalid input")
)

// Employee models a registry record together with its owned contacts.
type Employee struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Contacts  []Contact `json:"contacts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contact is a typed value pair owned by exactly one employee.
// Type is a free-form tag such as "phone", "email", or "address".
type Contact struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Summary is the reduced projection served by list responses. Contacts are
// intentionally absent; detail fetches compose them separately.
type Summary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Store abstracts persistence so callers can map to any table schema.
type Store interface {
	InsertEmployee(ctx context.Context, e Employee) (int64, error)
	ListEmployees(ctx context.Context) ([]Summary, error)
	GetEmployee(ctx context.Context, id int64) (Employee, error)
	UpdateEmployee(ctx context.Context, e Employee) error
	DeleteEmployee(ctx context.Context, id int64) error

	InsertContacts(ctx context.Context, employeeID int64, contacts []Contact) error
	ListContacts(ctx context.Context, employeeID int64) ([]Contact, error)
	DeleteContacts(ctx context.Context, employeeID int64) error
}

// Validate rejects malformed input before any store or cache round trip.
func (e Employee) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if !validEmail(e.Email) {
		return fmt.Errorf("%w: email is required", ErrInvalid)
	}
	for i, c := range e.Contacts {
		if strings.TrimSpace(c.Type) == "" || strings.TrimSpace(c.Value) == "" {
			return fmt.Errorf("%w: contact %d needs both type and value", ErrInvalid, i)
		}
	}
	return nil
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1
}

// DefaultSchema creates the two relations consumed by the postgres store.
const DefaultSchema = `CREATE TABLE IF NOT EXISTS employees (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS contacts (
    id BIGSERIAL PRIMARY KEY,
    employee_id BIGINT NOT NULL REFERENCES employees(id),
    type TEXT NOT NULL,
    value TEXT NOT NULL
);`
