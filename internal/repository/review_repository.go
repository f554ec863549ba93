package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/einsicht/review-scheduler/internal/model"
)

// ReviewRepo provides CRUD operations for reviews.  Reviews own their
// timeslots: deleting a review removes the slots and any enrollments
// referencing them through ON DELETE CASCADE foreign keys, so no
// explicit cleanup statements are needed here.  All timestamp fields
// are assumed to be stored in UTC.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a new ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// that span multiple repositories.
func (r *ReviewRepo) DB() *sql.DB { return r.db }

const reviewCols = `id, name, location, start_time, slot_length, slot_count, creator_id, description, created_at, updated_at`

// scanReview reads one review row from any row scanner.
func scanReview(row interface{ Scan(...any) error }) (*model.Review, error) {
	var rv model.Review
	err := row.Scan(&rv.ID, &rv.Name, &rv.Location, &rv.StartTime, &rv.SlotLength,
		&rv.SlotCount, &rv.CreatorID, &rv.Description, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// Create inserts a new review and returns the stored row, including
// the generated id and the database-assigned timestamps.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) (*model.Review, error) {
	const q = `INSERT INTO reviews (name, location, start_time, slot_length, slot_count, creator_id, description)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rv.Name, rv.Location, rv.StartTime.UTC(),
		rv.SlotLength, rv.SlotCount, rv.CreatorID, rv.Description)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a single review.  Returns ErrReviewNotFound when no
// row exists.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (*model.Review, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reviewCols+` FROM reviews WHERE id = ?`, id)
	rv, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReviewNotFound
	}
	return rv, err
}

// ListAll returns every review, newest start first.
func (r *ReviewRepo) ListAll(ctx context.Context) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+reviewCols+` FROM reviews ORDER BY start_time DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows)
}

// ListByCreator returns the reviews created by one employee, newest
// start first.
func (r *ReviewRepo) ListByCreator(ctx context.Context, employeeID uint64) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reviewCols+` FROM reviews WHERE creator_id = ? ORDER BY start_time DESC, id DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows)
}

// UpdateByID overwrites the editable fields of a review.  Only the
// creator may edit; ownership is checked here so that the rule holds
// no matter which handler calls in.  Returns ErrForbidden on an
// ownership mismatch and ErrReviewNotFound when the row is missing.
func (r *ReviewRepo) UpdateByID(ctx context.Context, id, employeeID uint64, rv *model.Review) (*model.Review, error) {
	var creatorID uint64
	err := r.db.QueryRowContext(ctx, `SELECT creator_id FROM reviews WHERE id = ?`, id).Scan(&creatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	if creatorID != employeeID {
		return nil, ErrForbidden
	}
	const q = `UPDATE reviews SET name = ?, location = ?, start_time = ?, slot_length = ?, slot_count = ?, description = ?
	           WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, rv.Name, rv.Location, rv.StartTime.UTC(),
		rv.SlotLength, rv.SlotCount, rv.Description, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// DeleteByID removes a review after checking ownership.  Timeslots
// and enrollments go with it via the cascading foreign keys.
func (r *ReviewRepo) DeleteByID(ctx context.Context, id, employeeID uint64) error {
	var creatorID uint64
	err := r.db.QueryRowContext(ctx, `SELECT creator_id FROM reviews WHERE id = ?`, id).Scan(&creatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrReviewNotFound
	}
	if err != nil {
		return err
	}
	if creatorID != employeeID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	return err
}

// StudentsForReview returns every student holding a seat in any
// timeslot of the review, ordered by last then first name for
// deterministic output.
func (r *ReviewRepo) StudentsForReview(ctx context.Context, reviewID uint64) ([]model.Student, error) {
	const q = `SELECT st.id, st.google_id, st.first_name, st.last_name, st.matriculation_number
	           FROM students st
	           JOIN enrollments e ON e.student_id = st.id
	           JOIN timeslots t ON t.id = e.timeslot_id
	           WHERE t.review_id = ?
	           ORDER BY st.last_name, st.first_name, st.id`
	rows, err := r.db.QueryContext(ctx, q, reviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Student, 0)
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.GoogleID, &s.FirstName, &s.LastName, &s.MatriculationNumber); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// EmployeeForReview resolves the employee who created the review.
// Returns ErrReviewNotFound when the review id is unknown; the creator
// row itself cannot be missing because of the foreign key.
func (r *ReviewRepo) EmployeeForReview(ctx context.Context, reviewID uint64) (model.Employee, error) {
	const q = `SELECT e.id, e.google_id, e.first_name, e.last_name, e.verified
	           FROM employees e
	           JOIN reviews rv ON rv.creator_id = e.id
	           WHERE rv.id = ?`
	var e model.Employee
	err := r.db.QueryRowContext(ctx, q, reviewID).
		Scan(&e.ID, &e.GoogleID, &e.FirstName, &e.LastName, &e.Verified)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Employee{}, ErrReviewNotFound
	}
	return e, err
}

// collectReviews drains a result set of review rows.
func collectReviews(rows *sql.Rows) ([]model.Review, error) {
	out := make([]model.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rv)
	}
	return out, rows.Err()
}
