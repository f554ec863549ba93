package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/einsicht/review-scheduler/internal/model"
)

// ErrEmployeeExists is returned when a registration collides with an
// existing google_id.
var ErrEmployeeExists = errors.New("employee already exists")

// EmployeeRepo mirrors the 'employees' table.
type EmployeeRepo struct{ DB *sql.DB }

func NewEmployeeRepo(db *sql.DB) *EmployeeRepo { return &EmployeeRepo{DB: db} }

// Create inserts an employee.  New employees start unverified and
// cannot manage reviews until an administrator flips the flag.
func (r *EmployeeRepo) Create(ctx context.Context, e *model.Employee) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO employees (google_id, first_name, last_name, verified) VALUES (?,?,?,?)",
		e.GoogleID, e.FirstName, e.LastName, e.Verified)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmployeeExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches an employee by id.
func (r *EmployeeRepo) GetByID(ctx context.Context, id uint64) (model.Employee, error) {
	var e model.Employee
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,google_id,first_name,last_name,verified FROM employees WHERE id=? LIMIT 1",
		id).Scan(&e.ID, &e.GoogleID, &e.FirstName, &e.LastName, &e.Verified)
	return e, err
}

// GetByGoogleID fetches an employee by external auth identifier.
func (r *EmployeeRepo) GetByGoogleID(ctx context.Context, googleID string) (model.Employee, error) {
	var e model.Employee
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,google_id,first_name,last_name,verified FROM employees WHERE google_id=? LIMIT 1",
		googleID).Scan(&e.ID, &e.GoogleID, &e.FirstName, &e.LastName, &e.Verified)
	return e, err
}

// ListAll returns every employee ordered by id.
func (r *EmployeeRepo) ListAll(ctx context.Context) ([]model.Employee, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,google_id,first_name,last_name,verified FROM employees ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Employee, 0)
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.ID, &e.GoogleID, &e.FirstName, &e.LastName, &e.Verified); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateByID overwrites the employee's profile fields.  The verified
// flag is managed separately through SetVerified.
func (r *EmployeeRepo) UpdateByID(ctx context.Context, id uint64, e *model.Employee) (model.Employee, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE employees SET google_id=?, first_name=?, last_name=? WHERE id=?",
		e.GoogleID, e.FirstName, e.LastName, id)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Employee{}, ErrEmployeeExists
		}
		return model.Employee{}, err
	}
	return r.GetByID(ctx, id)
}

// SetVerified flips the verification flag.  Admin only.
func (r *EmployeeRepo) SetVerified(ctx context.Context, id uint64, verified bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE employees SET verified=? WHERE id=?", verified, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// distinguish missing row from an unchanged flag
		var exists bool
		if err := r.DB.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM employees WHERE id=?)", id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return sql.ErrNoRows
		}
	}
	return nil
}

// DeleteByID removes an employee.  Reviews they created cascade away
// together with their timeslots and enrollments.
func (r *EmployeeRepo) DeleteByID(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM employees WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
