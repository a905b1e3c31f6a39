package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/adeilh/employee-registry/employee"
)

// EmployeeStore persists employee.Employee records and their contacts
// inside PostgreSQL. It implements employee.Store.
type EmployeeStore struct {
	db *sql.DB
}

// NewEmployeeStore wraps an existing *sql.DB connection.
func NewEmployeeStore(db *sql.DB) *EmployeeStore {
	return &EmployeeStore{db: db}
}

func (s *EmployeeStore) InsertEmployee(ctx context.Context, e employee.Employee) (int64, error) {
	const query = `INSERT INTO employees (name, email, created_at, updated_at)
	               VALUES ($1, $2, $3, $3) RETURNING id`
	var id int64
	now := time.Now().UTC()
	if err := s.db.QueryRowContext(ctx, query, e.Name, e.Email, now).Scan(&id); err != nil {
		return 0, translateError(err)
	}
	return id, nil
}

func (s *EmployeeStore) ListEmployees(ctx context.Context) ([]employee.Summary, error) {
	const query = `SELECT id, name, email FROM employees ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var summaries []employee.Summary
	for rows.Next() {
		var sum employee.Summary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Email); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func (s *EmployeeStore) GetEmployee(ctx context.Context, id int64) (employee.Employee, error) {
	const query = `SELECT id, name, email, created_at, updated_at FROM employees WHERE id = $1`
	var e employee.Employee
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID,
		&e.Name,
		&e.Email,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return employee.Employee{}, employee.ErrNotFound
		}
		return employee.Employee{}, translateError(err)
	}
	return e, nil
}

func (s *EmployeeStore) UpdateEmployee(ctx context.Context, e employee.Employee) error {
	const query = `UPDATE employees SET name = $2, email = $3, updated_at = $4 WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, e.ID, e.Name, e.Email, time.Now().UTC())
	if err != nil {
		return translateError(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return employee.ErrNotFound
	}
	return nil
}

func (s *EmployeeStore) DeleteEmployee(ctx context.Context, id int64) error {
	const query = `DELETE FROM employees WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return translateError(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return employee.ErrNotFound
	}
	return nil
}

func (s *EmployeeStore) InsertContacts(ctx context.Context, employeeID int64, contacts []employee.Contact) error {
	if len(contacts) == 0 {
		return nil
	}
	const query = `INSERT INTO contacts (employee_id, type, value) VALUES ($1, $2, $3)`
	for _, c := range contacts {
		if _, err := s.db.ExecContext(ctx, query, employeeID, c.Type, c.Value); err != nil {
			return translateError(err)
		}
	}
	return nil
}

func (s *EmployeeStore) ListContacts(ctx context.Context, employeeID int64) ([]employee.Contact, error) {
	const query = `SELECT type, value FROM contacts WHERE employee_id = $1 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var contacts []employee.Contact
	for rows.Next() {
		var c employee.Contact
		if err := rows.Scan(&c.Type, &c.Value); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (s *EmployeeStore) DeleteContacts(ctx context.Context, employeeID int64) error {
	const query = `DELETE FROM contacts WHERE employee_id = $1`
	_, err := s.db.ExecContext(ctx, query, employeeID)
	return translateError(err)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503": // foreign key violation: contact references a missing employee
			return employee.ErrNotFound
		case "22P02":
			return employee.ErrNotFound
		}
	}
	return err
}
