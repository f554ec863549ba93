package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/einsicht/review-scheduler/internal/model"
)

// ErrAdminExists is returned when a registration collides with an
// existing google_id.
var ErrAdminExists = errors.New("administrator already exists")

// AdminRepo mirrors the 'administrators' table.
type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

func (r *AdminRepo) Create(ctx context.Context, a *model.Administrator) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO administrators (google_id, first_name, last_name) VALUES (?,?,?)",
		a.GoogleID, a.FirstName, a.LastName)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrAdminExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (r *AdminRepo) GetByID(ctx context.Context, id uint64) (model.Administrator, error) {
	var a model.Administrator
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,google_id,first_name,last_name FROM administrators WHERE id=? LIMIT 1",
		id).Scan(&a.ID, &a.GoogleID, &a.FirstName, &a.LastName)
	return a, err
}

func (r *AdminRepo) GetByGoogleID(ctx context.Context, googleID string) (model.Administrator, error) {
	var a model.Administrator
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,google_id,first_name,last_name FROM administrators WHERE google_id=? LIMIT 1",
		googleID).Scan(&a.ID, &a.GoogleID, &a.FirstName, &a.LastName)
	return a, err
}

func (r *AdminRepo) ListAll(ctx context.Context) ([]model.Administrator, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,google_id,first_name,last_name FROM administrators ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Administrator, 0)
	for rows.Next() {
		var a model.Administrator
		if err := rows.Scan(&a.ID, &a.GoogleID, &a.FirstName, &a.LastName); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AdminRepo) UpdateByID(ctx context.Context, id uint64, a *model.Administrator) (model.Administrator, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE administrators SET google_id=?, first_name=?, last_name=? WHERE id=?",
		a.GoogleID, a.FirstName, a.LastName, id)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Administrator{}, ErrAdminExists
		}
		return model.Administrator{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *AdminRepo) DeleteByID(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM administrators WHERE id=?", id)
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
